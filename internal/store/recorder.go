package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/huroofgame/letters-arena-backend/internal/grid"
)

type PlayerResult struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Team grid.Team `json:"team,omitempty"`
}

type MatchRecord struct {
	SessionID string
	Name      string
	Winner    grid.Team
	Draw      bool
	Scores    map[grid.Team]int
	Players   []PlayerResult
	StartedAt time.Time
	EndedAt   time.Time
}

type ClaimRecord struct {
	SessionID     string
	CellID        string
	Letter        string
	Team          grid.Team
	ParticipantID string
	ClaimedAt     time.Time
}

// Recorder persists finished matches and claim statistics. Callers treat it
// as fire-and-forget: in-memory session state is the source of truth during a
// live game and is never rolled back on a failed write.
type Recorder interface {
	RecordMatch(ctx context.Context, m MatchRecord) error
	RecordClaim(ctx context.Context, c ClaimRecord) error
}

// New returns a Postgres-backed recorder, or a no-op one when dsn is empty.
func New(ctx context.Context, dsn string, log *zap.Logger) (Recorder, error) {
	if dsn == "" {
		log.Info("no DATABASE_URL configured, match results will not be persisted")
		return Noop{}, nil
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Postgres{db: pool}, nil
}

type Postgres struct {
	db *pgxpool.Pool
}

func (p *Postgres) RecordMatch(ctx context.Context, m MatchRecord) error {
	playersJSON, err := json.Marshal(m.Players)
	if err != nil {
		return err
	}
	scoresJSON, err := json.Marshal(m.Scores)
	if err != nil {
		return err
	}

	_, err = p.db.Exec(ctx,
		`INSERT INTO matches (session_id, name, winner, draw, scores, players, started_at, ended_at)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)`,
		m.SessionID,
		m.Name,
		string(m.Winner),
		m.Draw,
		scoresJSON,
		playersJSON,
		m.StartedAt,
		m.EndedAt,
	)
	return err
}

func (p *Postgres) RecordClaim(ctx context.Context, c ClaimRecord) error {
	_, err := p.db.Exec(ctx,
		`INSERT INTO claims (session_id, cell_id, letter, team, participant_id, claimed_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.SessionID,
		c.CellID,
		c.Letter,
		string(c.Team),
		c.ParticipantID,
		c.ClaimedAt,
	)
	return err
}

func (p *Postgres) Close() {
	p.db.Close()
}

type Noop struct{}

func (Noop) RecordMatch(context.Context, MatchRecord) error { return nil }
func (Noop) RecordClaim(context.Context, ClaimRecord) error { return nil }
