package types

import (
	"time"

	"github.com/huroofgame/letters-arena-backend/internal/registry"
	"github.com/huroofgame/letters-arena-backend/internal/session"
)

// ClientMessage is the envelope for every client-initiated operation. Op
// decides which of the optional fields matter.
type ClientMessage struct {
	Op string `json:"op"`

	// register
	Credential string `json:"credential,omitempty"`
	Name       string `json:"name,omitempty"`

	// create
	RoomName      string            `json:"roomName,omitempty"`
	Visibility    string            `json:"visibility,omitempty"`
	MaxPlayers    int               `json:"maxPlayers,omitempty"`
	AnswerTimeSec int               `json:"answerTimeSec,omitempty"`
	PenaltySec    int               `json:"penaltySec,omitempty"`
	Colors        map[string]string `json:"colors,omitempty"`

	// join
	RoomID   string `json:"roomId,omitempty"`
	JoinCode string `json:"joinCode,omitempty"`

	// assign-team / claim-cell
	TargetID string `json:"targetId,omitempty"`
	Team     string `json:"team,omitempty"`
	CellID   string `json:"cellId,omitempty"`
}

// ServerMessage carries both acks (Type == "ack") and broadcast events
// (Type == event name, body in Payload).
type ServerMessage struct {
	Type      string                `json:"type"`
	Op        string                `json:"op,omitempty"`
	Success   bool                  `json:"success"`
	ErrorKind string                `json:"errorKind,omitempty"`
	Error     string                `json:"error,omitempty"`
	Player    *registry.Participant `json:"player,omitempty"`
	Room      *session.RoomSnapshot `json:"room,omitempty"`
	Game      *session.GameSnapshot `json:"game,omitempty"`
	Rooms     []RoomSummary         `json:"rooms,omitempty"`
	Payload   any                   `json:"payload,omitempty"`
}

// RoomSummary is the public listing entry for open rooms.
type RoomSummary struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	LeaderID   string             `json:"leaderId"`
	Players    int                `json:"players"`
	MaxPlayers int                `json:"maxPlayers"`
	Status     session.GameStatus `json:"status"`
	CreatedAt  time.Time          `json:"createdAt"`
}
