// Package session holds the per-room coordinator. One goroutine owns all of a
// session's mutable state (roster, teams, game) and drains a typed inbox, so
// two operations on the same session can never interleave. Acknowledgements
// go back on per-message reply channels; everyone else hears about the change
// through per-participant outbox channels.
package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/huroofgame/letters-arena-backend/internal/grid"
	"github.com/huroofgame/letters-arena-backend/internal/metrics"
	"github.com/huroofgame/letters-arena-backend/internal/store"
)

type Deps struct {
	Log      *zap.Logger
	Recorder store.Recorder
	// OnEmpty is called from the session goroutine when the last participant
	// leaves, right before the loop exits. The hub uses it to drop its entry.
	OnEmpty func(id string)
}

type Session struct {
	id        string
	inbox     chan Msg
	cfg       Config
	createdAt time.Time

	leaderID string
	roster   []RosterEntry
	teams    map[grid.Team][]string

	status    GameStatus
	grid      grid.Grid
	scores    map[grid.Team]int
	startedAt *time.Time
	endedAt   *time.Time
	winner    grid.Team
	draw      bool

	clients map[string]chan Event

	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger
	rec    store.Recorder
	deps   Deps
}

// New builds a session in waiting state with the leader as sole roster entry
// and starts its loop. The initial grid exists so lobbies can preview and
// shuffle letters; Start regenerates it.
func New(parent context.Context, id string, cfg Config, leaderID, leaderName string, outbox chan Event, deps Deps) (*Session, error) {
	g, err := grid.Generate(cfg.GridRows, cfg.GridCols, cfg.Letters)
	if err != nil {
		return nil, err
	}

	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Recorder == nil {
		deps.Recorder = store.Noop{}
	}

	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		id:        id,
		inbox:     make(chan Msg, 64),
		cfg:       cfg,
		createdAt: time.Now(),
		leaderID:  leaderID,
		roster:    []RosterEntry{{ID: leaderID, Name: leaderName, IsLeader: true}},
		teams:     map[grid.Team][]string{grid.Team1: {}, grid.Team2: {}},
		status:    StatusWaiting,
		grid:      g,
		scores:    map[grid.Team]int{grid.Team1: 0, grid.Team2: 0},
		clients:   map[string]chan Event{leaderID: outbox},
		ctx:       ctx,
		cancel:    cancel,
		log:       deps.Log.With(zap.String("session", id)),
		rec:       deps.Recorder,
		deps:      deps,
	}

	go s.loop()
	return s, nil
}

func (s *Session) ID() string            { return s.id }
func (s *Session) Inbox() chan<- Msg     { return s.inbox }
func (s *Session) Done() <-chan struct{} { return s.ctx.Done() }

// Snapshot asks the loop for a consistent view. It fails once the session has
// been torn down, so callers racing a teardown get ErrSessionNotFound instead
// of hanging.
func (s *Session) Snapshot(ctx context.Context) (*RoomSnapshot, error) {
	reply := make(chan RoomSnapshot, 1)
	select {
	case s.inbox <- GetState{Reply: reply}:
	case <-s.ctx.Done():
		return nil, ErrSessionNotFound
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case snap := <-reply:
		return &snap, nil
	case <-s.ctx.Done():
		return nil, ErrSessionNotFound
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Session) loop() {
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Join:
				s.handleJoin(msg)
			case Leave:
				if s.handleLeave(msg) {
					return
				}
			case AssignTeam:
				s.handleAssign(msg)
			case RandomizeTeams:
				s.handleRandomize(msg)
			case Start:
				s.handleStart(msg)
			case ShuffleLetters:
				s.handleShuffle(msg)
			case SetColors:
				s.handleSetColors(msg)
			case Claim:
				s.handleClaim(msg)
			case GetState:
				msg.Reply <- s.snapshot()
			case Shutdown:
				s.shutdown()
				return
			}
		}
	}
}

func (s *Session) handleJoin(msg Join) {
	if s.rosterIndex(msg.ParticipantID) != -1 {
		reply(msg.Reply, Response{Err: ErrAlreadyJoined})
		return
	}
	if len(s.roster) >= s.cfg.MaxPlayers {
		reply(msg.Reply, Response{Err: ErrSessionFull})
		return
	}
	if s.status != StatusWaiting {
		reply(msg.Reply, Response{Err: ErrGameInProgress})
		return
	}
	if s.cfg.Visibility == VisibilityInviteCode && msg.JoinCode != s.cfg.JoinCode {
		reply(msg.Reply, Response{Err: ErrBadJoinCode})
		return
	}

	entry := RosterEntry{ID: msg.ParticipantID, Name: msg.Name}
	s.roster = append(s.roster, entry)
	s.clients[msg.ParticipantID] = msg.Outbox

	snap := s.snapshot()
	reply(msg.Reply, Response{Room: &snap})
	s.send(msg.ParticipantID, Event{Name: EvtGameState, Payload: snap.Game})
	s.broadcastExcept(msg.ParticipantID, Event{Name: EvtParticipantJoined, Payload: entry})
	s.log.Info("participant joined", zap.String("participant", msg.ParticipantID), zap.Int("roster", len(s.roster)))
}

// handleLeave reports whether the session tore itself down.
func (s *Session) handleLeave(msg Leave) bool {
	idx := s.rosterIndex(msg.ParticipantID)
	if idx == -1 {
		reply(msg.Reply, Response{Err: ErrNotInSession})
		return false
	}

	wasLeader := s.roster[idx].IsLeader
	s.roster = append(s.roster[:idx], s.roster[idx+1:]...)
	s.removeFromTeams(msg.ParticipantID)
	if ch, ok := s.clients[msg.ParticipantID]; ok {
		close(ch)
		delete(s.clients, msg.ParticipantID)
	}

	if len(s.roster) == 0 {
		reply(msg.Reply, Response{})
		s.log.Info("last participant left, tearing down")
		if s.deps.OnEmpty != nil {
			s.deps.OnEmpty(s.id)
		}
		s.shutdown()
		return true
	}

	if wasLeader {
		s.roster[0].IsLeader = true
		s.leaderID = s.roster[0].ID
	}

	reply(msg.Reply, Response{})
	s.broadcast(Event{Name: EvtParticipantLeft, Payload: map[string]string{"id": msg.ParticipantID}})
	if wasLeader {
		s.broadcast(Event{Name: EvtLeaderChanged, Payload: map[string]string{"leaderId": s.leaderID}})
		s.log.Info("leader migrated", zap.String("leader", s.leaderID))
	}
	return false
}

func (s *Session) handleStart(msg Start) {
	if msg.RequesterID != s.leaderID {
		reply(msg.Reply, Response{Err: ErrNotLeader})
		return
	}
	if s.status != StatusWaiting {
		reply(msg.Reply, Response{Err: ErrAlreadyStarted})
		return
	}
	if len(s.teams[grid.Team1]) == 0 || len(s.teams[grid.Team2]) == 0 {
		reply(msg.Reply, Response{Err: ErrInsufficientTeams})
		return
	}

	g, err := grid.Generate(s.cfg.GridRows, s.cfg.GridCols, s.cfg.Letters)
	if err != nil {
		reply(msg.Reply, Response{Err: err})
		return
	}

	now := time.Now()
	s.grid = g
	s.scores = map[grid.Team]int{grid.Team1: 0, grid.Team2: 0}
	s.status = StatusActive
	s.startedAt = &now
	s.endedAt = nil
	s.winner = ""
	s.draw = false

	snap := s.snapshot()
	reply(msg.Reply, Response{Game: &snap.Game})
	s.broadcast(Event{Name: EvtGameState, Payload: snap.Game})
	s.log.Info("game started", zap.Int("roster", len(s.roster)))
}

func (s *Session) handleClaim(msg Claim) {
	if s.status != StatusActive {
		reply(msg.Reply, Response{Err: ErrGameNotActive})
		return
	}
	idx := s.rosterIndex(msg.ParticipantID)
	if idx == -1 {
		reply(msg.Reply, Response{Err: ErrNotInSession})
		return
	}
	team := s.roster[idx].Team
	if team == "" {
		reply(msg.Reply, Response{Err: ErrNoTeam})
		return
	}

	now := time.Now()
	next, err := grid.ApplyClaim(s.grid, msg.CellID, team, msg.ParticipantID, now)
	if err != nil {
		reply(msg.Reply, Response{Err: err})
		return
	}

	s.grid = next
	cell := next[msg.CellID]
	s.scores[team] += cell.Points
	outcome := grid.EvaluateOutcome(next)

	s.persistClaim(cell)

	if outcome.Finished {
		s.status = StatusFinished
		s.endedAt = &now
		s.winner = outcome.Winner
		s.draw = outcome.Draw
	}

	gameSnap := s.gameSnapshot()
	reply(msg.Reply, Response{Game: &gameSnap})
	s.broadcast(Event{Name: EvtCellClaimed, Payload: ClaimedPayload{Cell: cell, Scores: copyScores(s.scores)}})

	if !outcome.Finished {
		return
	}

	s.broadcast(Event{Name: EvtGameFinished, Payload: FinishedPayload{
		Winner: s.winner,
		Draw:   s.draw,
		Scores: copyScores(s.scores),
	}})
	s.log.Info("game finished", zap.String("winner", string(s.winner)), zap.Bool("draw", s.draw))
	s.persistMatch()
}

func (s *Session) handleShuffle(msg ShuffleLetters) {
	if msg.RequesterID != s.leaderID {
		reply(msg.Reply, Response{Err: ErrNotLeader})
		return
	}
	// letters are frozen once the round is live
	if s.status != StatusWaiting {
		reply(msg.Reply, Response{Err: ErrGameInProgress})
		return
	}

	g, err := grid.Shuffle(s.grid, s.cfg.Letters)
	if err != nil {
		reply(msg.Reply, Response{Err: err})
		return
	}
	s.grid = g

	gameSnap := s.gameSnapshot()
	reply(msg.Reply, Response{Game: &gameSnap})
	s.broadcast(Event{Name: EvtLettersShuffled, Payload: gameSnap})
}

func (s *Session) handleSetColors(msg SetColors) {
	if msg.RequesterID != s.leaderID {
		reply(msg.Reply, Response{Err: ErrNotLeader})
		return
	}
	for team := range msg.Colors {
		if team != grid.Team1 && team != grid.Team2 {
			reply(msg.Reply, Response{Err: ErrInvalidTeam})
			return
		}
	}

	for team, color := range msg.Colors {
		s.cfg.Colors[team] = color
	}

	snap := s.snapshot()
	reply(msg.Reply, Response{Room: &snap})
	s.broadcast(Event{Name: EvtColorsChanged, Payload: snap.Colors})
}

func (s *Session) shutdown() {
	for id, ch := range s.clients {
		close(ch)
		delete(s.clients, id)
	}
	s.cancel()
}

func (s *Session) broadcast(evt Event) {
	metrics.EventsBroadcast.WithLabelValues(evt.Name).Inc()
	for id, ch := range s.clients {
		select {
		case ch <- evt:
		default:
			// slow or vanished consumer, drop the channel; the connection
			// layer will notice and synthesize a leave
			close(ch)
			delete(s.clients, id)
		}
	}
}

func (s *Session) broadcastExcept(except string, evt Event) {
	metrics.EventsBroadcast.WithLabelValues(evt.Name).Inc()
	for id, ch := range s.clients {
		if id == except {
			continue
		}
		select {
		case ch <- evt:
		default:
			close(ch)
			delete(s.clients, id)
		}
	}
}

// send delivers to a single participant; delivery to a vanished connection is
// a no-op, never an error.
func (s *Session) send(id string, evt Event) {
	ch, ok := s.clients[id]
	if !ok {
		return
	}
	select {
	case ch <- evt:
	default:
		close(ch)
		delete(s.clients, id)
	}
}

func (s *Session) persistClaim(cell grid.Cell) {
	rec := store.ClaimRecord{
		SessionID:     s.id,
		CellID:        cell.ID,
		Letter:        cell.Letter,
		Team:          cell.Owner,
		ParticipantID: cell.ClaimedBy,
	}
	if cell.ClaimedAt != nil {
		rec.ClaimedAt = *cell.ClaimedAt
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.rec.RecordClaim(ctx, rec); err != nil {
			// best effort: in-memory state has already been broadcast
			s.log.Warn("claim record write failed", zap.Error(err))
		}
	}()
}

func (s *Session) persistMatch() {
	rec := store.MatchRecord{
		SessionID: s.id,
		Name:      s.cfg.Name,
		Winner:    s.winner,
		Draw:      s.draw,
		Scores:    copyScores(s.scores),
	}
	if s.startedAt != nil {
		rec.StartedAt = *s.startedAt
	}
	if s.endedAt != nil {
		rec.EndedAt = *s.endedAt
	}
	for _, e := range s.roster {
		rec.Players = append(rec.Players, store.PlayerResult{ID: e.ID, Name: e.Name, Team: e.Team})
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.rec.RecordMatch(ctx, rec); err != nil {
			s.log.Warn("match record write failed", zap.Error(err))
		}
	}()
}

func (s *Session) rosterIndex(id string) int {
	for i, e := range s.roster {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (s *Session) gameSnapshot() GameSnapshot {
	g := make(grid.Grid, len(s.grid))
	for id, cell := range s.grid {
		g[id] = cell
	}
	return GameSnapshot{
		Status:    s.status,
		Grid:      g,
		Scores:    copyScores(s.scores),
		StartedAt: s.startedAt,
		EndedAt:   s.endedAt,
		Winner:    s.winner,
		Draw:      s.draw,
	}
}

func (s *Session) snapshot() RoomSnapshot {
	roster := make([]RosterEntry, len(s.roster))
	copy(roster, s.roster)

	teams := make(map[grid.Team][]string, len(s.teams))
	for team, ids := range s.teams {
		teams[team] = append([]string(nil), ids...)
	}

	colors := make(map[grid.Team]string, len(s.cfg.Colors))
	for team, color := range s.cfg.Colors {
		colors[team] = color
	}

	return RoomSnapshot{
		ID:            s.id,
		Name:          s.cfg.Name,
		Visibility:    s.cfg.Visibility,
		JoinCode:      s.cfg.JoinCode,
		LeaderID:      s.leaderID,
		MaxPlayers:    s.cfg.MaxPlayers,
		AnswerTimeSec: s.cfg.AnswerTimeSec,
		PenaltySec:    s.cfg.PenaltySec,
		Colors:        colors,
		Roster:        roster,
		Teams:         teams,
		Game:          s.gameSnapshot(),
		CreatedAt:     s.createdAt,
	}
}

func reply(ch chan Response, r Response) {
	if ch != nil {
		ch <- r
	}
}

func copyScores(scores map[grid.Team]int) map[grid.Team]int {
	out := make(map[grid.Team]int, len(scores))
	for team, score := range scores {
		out[team] = score
	}
	return out
}
