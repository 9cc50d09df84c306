package session

import (
	"time"

	"github.com/huroofgame/letters-arena-backend/internal/grid"
)

type Msg interface{ isSessionMsg() }

type Join struct {
	ParticipantID string
	Name          string
	JoinCode      string
	Outbox        chan Event // where this participant receives events
	Reply         chan Response
}

func (Join) isSessionMsg() {}

// Leave removes a participant. Reply is nil when the dispatcher synthesizes
// the leave after a dropped connection.
type Leave struct {
	ParticipantID string
	Reply         chan Response
}

func (Leave) isSessionMsg() {}

type AssignTeam struct {
	RequesterID string
	TargetID    string
	Team        grid.Team
	Reply       chan Response
}

func (AssignTeam) isSessionMsg() {}

type RandomizeTeams struct {
	RequesterID string
	Reply       chan Response
}

func (RandomizeTeams) isSessionMsg() {}

type Start struct {
	RequesterID string
	Reply       chan Response
}

func (Start) isSessionMsg() {}

type ShuffleLetters struct {
	RequesterID string
	Reply       chan Response
}

func (ShuffleLetters) isSessionMsg() {}

type SetColors struct {
	RequesterID string
	Colors      map[grid.Team]string
	Reply       chan Response
}

func (SetColors) isSessionMsg() {}

type Claim struct {
	ParticipantID string
	CellID        string
	Reply         chan Response
}

func (Claim) isSessionMsg() {}

type GetState struct {
	Reply chan RoomSnapshot
}

func (GetState) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

// Response is the direct acknowledgement for one client-initiated operation,
// separate from whatever the rest of the roster hears via broadcast.
type Response struct {
	Err  error
	Room *RoomSnapshot
	Game *GameSnapshot
}

// Event is one broadcast to a session's roster.
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

const (
	EvtParticipantJoined = "participant-joined"
	EvtParticipantLeft   = "participant-left"
	EvtLeaderChanged     = "leader-changed"
	EvtRosterUpdated     = "roster-updated"
	EvtGameState         = "game-state"
	EvtCellClaimed       = "cell-claimed"
	EvtGameFinished      = "game-finished"
	EvtColorsChanged     = "colors-changed"
	EvtLettersShuffled   = "letters-shuffled"
)

type Visibility string

const (
	VisibilityOpen       Visibility = "open"
	VisibilityInviteCode Visibility = "invite-code"
	VisibilityLinkOnly   Visibility = "link-only"
)

func ParseVisibility(s string) (Visibility, bool) {
	switch s {
	case "", "open":
		return VisibilityOpen, true
	case "invite-code":
		return VisibilityInviteCode, true
	case "link-only":
		return VisibilityLinkOnly, true
	default:
		return "", false
	}
}

type GameStatus string

const (
	StatusWaiting  GameStatus = "waiting"
	StatusActive   GameStatus = "active"
	StatusFinished GameStatus = "finished"
)

type Config struct {
	Name          string
	Visibility    Visibility
	JoinCode      string
	MaxPlayers    int
	AnswerTimeSec int
	PenaltySec    int
	Colors        map[grid.Team]string
	GridRows      int
	GridCols      int
	Letters       []string
}

type RosterEntry struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Team     grid.Team `json:"team,omitempty"`
	IsLeader bool      `json:"isLeader"`
}

type GameSnapshot struct {
	Status    GameStatus        `json:"status"`
	Grid      grid.Grid         `json:"grid"`
	Scores    map[grid.Team]int `json:"scores"`
	StartedAt *time.Time        `json:"startedAt,omitempty"`
	EndedAt   *time.Time        `json:"endedAt,omitempty"`
	Winner    grid.Team         `json:"winner,omitempty"`
	Draw      bool              `json:"draw,omitempty"`
}

type RoomSnapshot struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Visibility    Visibility             `json:"visibility"`
	JoinCode      string                 `json:"joinCode,omitempty"`
	LeaderID      string                 `json:"leaderId"`
	MaxPlayers    int                    `json:"maxPlayers"`
	AnswerTimeSec int                    `json:"answerTimeSec"`
	PenaltySec    int                    `json:"penaltySec"`
	Colors        map[grid.Team]string   `json:"colors"`
	Roster        []RosterEntry          `json:"roster"`
	Teams         map[grid.Team][]string `json:"teams"`
	Game          GameSnapshot           `json:"game"`
	CreatedAt     time.Time              `json:"createdAt"`
}

// ClaimedPayload rides on cell-claimed events.
type ClaimedPayload struct {
	Cell   grid.Cell         `json:"cell"`
	Scores map[grid.Team]int `json:"scores"`
}

// FinishedPayload rides on game-finished events.
type FinishedPayload struct {
	Winner grid.Team         `json:"winner,omitempty"`
	Draw   bool              `json:"draw,omitempty"`
	Scores map[grid.Team]int `json:"scores"`
}
