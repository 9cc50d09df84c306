package grid

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

var ErrInvalidDimensions = errors.New("grid needs at least 3 rows and 3 columns")
var ErrEmptyAlphabet = errors.New("letter alphabet is empty")
var ErrUnknownCell = errors.New("unknown cell")
var ErrNotClaimable = errors.New("edge cells cannot be claimed")
var ErrAlreadyClaimed = errors.New("cell already claimed")

type Team string

const (
	Team1 Team = "team1"
	Team2 Team = "team2"
)

func ParseTeam(s string) (Team, bool) {
	switch s {
	case "team1":
		return Team1, true
	case "team2":
		return Team2, true
	default:
		return "", false
	}
}

type CellKind string

const (
	KindInner CellKind = "inner"
	KindEdge  CellKind = "edge"
)

type Cell struct {
	ID        string     `json:"id"`
	Row       int        `json:"row"`
	Col       int        `json:"col"`
	Kind      CellKind   `json:"kind"`
	Letter    string     `json:"letter,omitempty"`
	Points    int        `json:"points,omitempty"`
	Owner     Team       `json:"owner,omitempty"`
	ClaimedBy string     `json:"claimedBy,omitempty"`
	ClaimedAt *time.Time `json:"claimedAt,omitempty"`
}

// Grid maps cell id ("row-col") to its cell. Values are plain structs so a
// shallow map copy is a full copy; every mutating operation returns a new map
// and leaves its input untouched.
type Grid map[string]Cell

func CellID(row, col int) string {
	return fmt.Sprintf("%d-%d", row, col)
}

// Generate builds a rows x cols grid. Cells on the border are inert edges;
// every interior cell gets one uniformly random letter from alphabet and is
// worth one point.
func Generate(rows, cols int, alphabet []string) (Grid, error) {
	if rows < 3 || cols < 3 {
		return nil, ErrInvalidDimensions
	}
	if len(alphabet) == 0 {
		return nil, ErrEmptyAlphabet
	}

	g := make(Grid, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			cell := Cell{
				ID:   CellID(r, c),
				Row:  r,
				Col:  c,
				Kind: KindEdge,
			}
			if r > 0 && r < rows-1 && c > 0 && c < cols-1 {
				cell.Kind = KindInner
				cell.Letter = randomLetter(alphabet)
				cell.Points = 1
			}
			g[cell.ID] = cell
		}
	}
	return g, nil
}

// Shuffle re-draws the letter of every unclaimed inner cell. Claimed cells
// and edge cells keep their state. Whether shuffling is allowed at all in the
// current game phase is the caller's call.
func Shuffle(g Grid, alphabet []string) (Grid, error) {
	if len(alphabet) == 0 {
		return nil, ErrEmptyAlphabet
	}
	out := make(Grid, len(g))
	for id, cell := range g {
		if cell.Kind == KindInner && cell.Owner == "" {
			cell.Letter = randomLetter(alphabet)
		}
		out[id] = cell
	}
	return out, nil
}

// ApplyClaim assigns cellID to team on behalf of participant. Claims are
// monotonic: once a cell has an owner it can never change hands, so replaying
// a claim against the resulting grid always fails with ErrAlreadyClaimed.
func ApplyClaim(g Grid, cellID string, team Team, participant string, now time.Time) (Grid, error) {
	cell, ok := g[cellID]
	if !ok {
		return nil, ErrUnknownCell
	}
	if cell.Kind != KindInner {
		return nil, ErrNotClaimable
	}
	if cell.Owner != "" {
		return nil, ErrAlreadyClaimed
	}

	out := make(Grid, len(g))
	for id, c := range g {
		out[id] = c
	}
	cell.Owner = team
	cell.ClaimedBy = participant
	cell.ClaimedAt = &now
	out[cellID] = cell
	return out, nil
}

type Outcome struct {
	Finished bool         `json:"finished"`
	Winner   Team         `json:"winner,omitempty"`
	Draw     bool         `json:"draw,omitempty"`
	Counts   map[Team]int `json:"counts"`
	Inner    int          `json:"inner"`
	Claimed  int          `json:"claimed"`
}

// EvaluateOutcome decides whether the game is over. A team that owns strictly
// more than half of all inner cells wins outright. If the board fills up
// without either side crossing that line, the larger holding wins; an exact
// split is a draw.
func EvaluateOutcome(g Grid) Outcome {
	out := Outcome{Counts: map[Team]int{Team1: 0, Team2: 0}}
	for _, cell := range g {
		if cell.Kind != KindInner {
			continue
		}
		out.Inner++
		if cell.Owner != "" {
			out.Claimed++
			out.Counts[cell.Owner]++
		}
	}

	for _, team := range []Team{Team1, Team2} {
		if out.Counts[team]*2 > out.Inner {
			out.Finished = true
			out.Winner = team
			return out
		}
	}

	if out.Claimed == out.Inner {
		out.Finished = true
		switch {
		case out.Counts[Team1] > out.Counts[Team2]:
			out.Winner = Team1
		case out.Counts[Team2] > out.Counts[Team1]:
			out.Winner = Team2
		default:
			out.Draw = true
		}
	}
	return out
}

var randomLetter = func(alphabet []string) string {
	return alphabet[rand.Intn(len(alphabet))]
}
