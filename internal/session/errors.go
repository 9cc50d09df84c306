package session

import (
	"errors"

	"github.com/huroofgame/letters-arena-backend/internal/grid"
	"github.com/huroofgame/letters-arena-backend/internal/registry"
)

var ErrSessionNotFound = errors.New("session not found")
var ErrSessionFull = errors.New("session is full")
var ErrGameInProgress = errors.New("game already in progress")
var ErrAlreadyJoined = errors.New("already joined")
var ErrNotInSession = errors.New("participant not in session")
var ErrNotLeader = errors.New("only the leader may do that")
var ErrNoTeam = errors.New("participant has no team")
var ErrInvalidTeam = errors.New("invalid team id")
var ErrBadJoinCode = errors.New("wrong join code")
var ErrAlreadyStarted = errors.New("game already started")
var ErrGameNotActive = errors.New("game is not active")
var ErrInsufficientTeams = errors.New("both teams need at least one player")

// Wire-level error taxonomy. Every sentinel the coordinator can surface maps
// to exactly one kind; clients branch on the kind, not the message.
const (
	KindNotFound     = "not-found"
	KindConflict     = "conflict"
	KindForbidden    = "forbidden"
	KindInvalidInput = "invalid-input"
	KindUpstream     = "upstream-unavailable"
)

func Kind(err error) string {
	switch {
	case errors.Is(err, ErrSessionNotFound),
		errors.Is(err, registry.ErrNotRegistered),
		errors.Is(err, grid.ErrUnknownCell):
		return KindNotFound

	case errors.Is(err, ErrSessionFull),
		errors.Is(err, ErrGameInProgress),
		errors.Is(err, ErrAlreadyJoined),
		errors.Is(err, ErrAlreadyStarted),
		errors.Is(err, ErrGameNotActive),
		errors.Is(err, ErrInsufficientTeams),
		errors.Is(err, grid.ErrAlreadyClaimed):
		return KindConflict

	case errors.Is(err, ErrNotLeader),
		errors.Is(err, ErrNotInSession),
		errors.Is(err, ErrNoTeam),
		errors.Is(err, ErrBadJoinCode):
		return KindForbidden

	case errors.Is(err, ErrInvalidTeam),
		errors.Is(err, grid.ErrInvalidDimensions),
		errors.Is(err, grid.ErrEmptyAlphabet),
		errors.Is(err, grid.ErrNotClaimable):
		return KindInvalidInput

	default:
		return KindUpstream
	}
}
