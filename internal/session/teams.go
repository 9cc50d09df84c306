package session

import (
	"math/rand"

	"github.com/huroofgame/letters-arena-backend/internal/grid"
)

// Team bookkeeping keeps two views consistent: the denormalized Team field on
// each roster entry, and the team-id -> member-id sets. Every mutation goes
// through the handlers below so the two can never drift.

func (s *Session) handleAssign(msg AssignTeam) {
	idx := s.rosterIndex(msg.TargetID)
	if idx == -1 {
		reply(msg.Reply, Response{Err: ErrNotInSession})
		return
	}
	// players move themselves, the leader moves anyone
	if msg.RequesterID != msg.TargetID && msg.RequesterID != s.leaderID {
		reply(msg.Reply, Response{Err: ErrNotLeader})
		return
	}
	if _, ok := s.teams[msg.Team]; !ok {
		reply(msg.Reply, Response{Err: ErrInvalidTeam})
		return
	}

	s.removeFromTeams(msg.TargetID)
	s.teams[msg.Team] = append(s.teams[msg.Team], msg.TargetID)
	s.roster[idx].Team = msg.Team

	snap := s.snapshot()
	reply(msg.Reply, Response{Room: &snap})
	s.broadcast(Event{Name: EvtRosterUpdated, Payload: rosterPayload(snap)})
}

// handleRandomize deals every non-leader roster member onto alternating teams
// in uniformly shuffled order, so team sizes differ by at most one. The
// leader stays unassigned unless moved manually.
func (s *Session) handleRandomize(msg RandomizeTeams) {
	if msg.RequesterID != s.leaderID {
		reply(msg.Reply, Response{Err: ErrNotLeader})
		return
	}

	s.teams = map[grid.Team][]string{grid.Team1: {}, grid.Team2: {}}
	for i := range s.roster {
		s.roster[i].Team = ""
	}

	var ids []string
	for _, e := range s.roster {
		if !e.IsLeader {
			ids = append(ids, e.ID)
		}
	}
	rand.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	for i, id := range ids {
		team := grid.Team1
		if i%2 == 1 {
			team = grid.Team2
		}
		s.teams[team] = append(s.teams[team], id)
		s.roster[s.rosterIndex(id)].Team = team
	}

	snap := s.snapshot()
	reply(msg.Reply, Response{Room: &snap})
	s.broadcast(Event{Name: EvtRosterUpdated, Payload: rosterPayload(snap)})
}

func (s *Session) removeFromTeams(id string) {
	for team, ids := range s.teams {
		for i, member := range ids {
			if member == id {
				s.teams[team] = append(ids[:i], ids[i+1:]...)
				break
			}
		}
	}
}

type RosterPayload struct {
	Roster []RosterEntry          `json:"roster"`
	Teams  map[grid.Team][]string `json:"teams"`
}

func rosterPayload(snap RoomSnapshot) RosterPayload {
	return RosterPayload{Roster: snap.Roster, Teams: snap.Teams}
}
