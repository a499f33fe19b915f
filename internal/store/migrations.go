package store

import "context"

const migrationSQL = `
CREATE TABLE IF NOT EXISTS analyses (
    id BIGSERIAL PRIMARY KEY,
    address TEXT NOT NULL,
    chain TEXT NOT NULL,
    score INT NOT NULL,
    tier TEXT NOT NULL,
    confidence TEXT NOT NULL DEFAULT 'full',
    payload JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_analyses_address_chain ON analyses (address, chain);
`

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, migrationSQL)
	return err
}
