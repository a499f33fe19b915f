package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() { s.pool.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// --- Analyses ---

// Analysis is an archived report: one row per completed wallet analysis.
type Analysis struct {
	ID         int64           `json:"id"`
	Address    string          `json:"address"`
	Chain      string          `json:"chain"`
	Score      int             `json:"score"`
	Tier       string          `json:"tier"`
	Confidence string          `json:"confidence"`
	Payload    json.RawMessage `json:"payload"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (s *Store) SaveAnalysis(ctx context.Context, address, chain string, score int, tier, confidence string, payload []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO analyses (address, chain, score, tier, confidence, payload)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		address, chain, score, tier, confidence, payload)
	return err
}

// RecentAnalyses returns the most recently archived analyses, newest first.
func (s *Store) RecentAnalyses(ctx context.Context, limit int) ([]Analysis, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, address, chain, score, tier, confidence, payload, created_at
		FROM analyses
		ORDER BY created_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Analysis
	for rows.Next() {
		var a Analysis
		if err := rows.Scan(&a.ID, &a.Address, &a.Chain, &a.Score, &a.Tier, &a.Confidence, &a.Payload, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
