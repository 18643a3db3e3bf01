package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rateAdjuster/internal/model"
	"rateAdjuster/internal/storage"
)

// Store provides Postgres persistence for the configuration change journal.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the config_changes table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS config_changes (
			id BIGSERIAL PRIMARY KEY,
			event TEXT NOT NULL,
			args TEXT[] NOT NULL,
			caller TEXT NOT NULL,
			ingested_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("create config_changes: %w", err)
	}
	return nil
}

// PutChanges inserts change records in a single batch.
func (s *Store) PutChanges(ctx context.Context, changes []model.ConfigChangeRecord) error {
	if len(changes) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, change := range changes {
		args := change.Args
		if args == nil {
			args = []string{}
		}
		batch.Queue(`
			INSERT INTO config_changes (event, args, caller, ingested_at)
			VALUES ($1, $2, $3, $4::timestamptz)
		`,
			change.Event,
			args,
			change.Caller,
			change.IngestedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range changes {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LatestChanges returns the most recent change records, newest first, with
// storage.DefaultLatestLimit standing in for a non-positive limit.
func (s *Store) LatestChanges(ctx context.Context, limit int) ([]model.ConfigChangeRecord, error) {
	if limit <= 0 {
		limit = storage.DefaultLatestLimit
	}
	rows, err := s.pool.Query(ctx, `
		SELECT event, args, caller, to_char(ingested_at AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS.US"Z"')
		FROM config_changes
		ORDER BY id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ConfigChangeRecord
	for rows.Next() {
		var rec model.ConfigChangeRecord
		if err := rows.Scan(&rec.Event, &rec.Args, &rec.Caller, &rec.IngestedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
