// Package store keeps a history of finished games in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"scrappy/internal/controller"
	"scrappy/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id          TEXT PRIMARY KEY,
	difficulty  TEXT NOT NULL,
	level       INTEGER NOT NULL,
	outcome     TEXT NOT NULL,
	started_at  INTEGER NOT NULL,
	ended_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS games_ended_at ON games (ended_at);
`

// Game is one stored game.
type Game struct {
	ID string
	controller.GameRecord
}

// Duration is how long the game lasted.
func (g Game) Duration() time.Duration {
	return g.EndedAt.Sub(g.StartedAt)
}

type Store struct {
	db *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens or creates the game history at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordGame stores rec under a fresh ID.
func (s *Store) RecordGame(ctx context.Context, rec controller.GameRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !rec.Difficulty.Valid() {
		return fmt.Errorf("invalid difficulty %d", int(rec.Difficulty))
	}
	if rec.Outcome == "" {
		return fmt.Errorf("outcome is required")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO games (id, difficulty, level, outcome, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		rec.Difficulty.String(),
		rec.Level,
		string(rec.Outcome),
		toMillis(rec.StartedAt),
		toMillis(rec.EndedAt),
	)
	if err != nil {
		return fmt.Errorf("record game: %w", err)
	}
	return nil
}

// RecentGames returns up to n games, most recently finished first.
func (s *Store) RecentGames(ctx context.Context, n int) ([]Game, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, difficulty, level, outcome, started_at, ended_at
		 FROM games ORDER BY ended_at DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var games []Game
	for rows.Next() {
		var (
			g          Game
			difficulty string
			outcome    string
			started    int64
			ended      int64
		)
		if err := rows.Scan(&g.ID, &difficulty, &g.Level, &outcome, &started, &ended); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		d, ok := types.ParseDifficulty(difficulty)
		if !ok {
			return nil, fmt.Errorf("game %s: unknown difficulty %q", g.ID, difficulty)
		}
		g.Difficulty = d
		g.Outcome = types.Outcome(outcome)
		g.StartedAt = fromMillis(started)
		g.EndedAt = fromMillis(ended)
		games = append(games, g)
	}
	return games, rows.Err()
}

// Stats summarises the stored history.
type Stats struct {
	Played    int
	Won       int
	BestLevel map[types.Difficulty]int
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	st := Stats{BestLevel: make(map[types.Difficulty]int)}
	rows, err := s.db.QueryContext(ctx,
		`SELECT difficulty, COUNT(*), SUM(outcome = 'win'), MAX(level) FROM games GROUP BY difficulty`)
	if err != nil {
		return st, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			difficulty string
			played     int
			won        int
			best       int
		)
		if err := rows.Scan(&difficulty, &played, &won, &best); err != nil {
			return st, fmt.Errorf("scan stats: %w", err)
		}
		st.Played += played
		st.Won += won
		if d, ok := types.ParseDifficulty(difficulty); ok {
			st.BestLevel[d] = best
		}
	}
	return st, rows.Err()
}
