package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

// Postgres archives records in the game_analyses table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	p := &Postgres{db: db}
	if err := p.createTable(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create game_analyses table: %w", err)
	}
	return p, nil
}

func (p *Postgres) createTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS game_analyses (
			key        TEXT PRIMARY KEY,
			run_id     TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			title      TEXT NOT NULL,
			analysis   JSONB NOT NULL,
			warnings   JSONB
		);
		CREATE INDEX IF NOT EXISTS idx_game_analyses_created_at ON game_analyses(created_at DESC);
	`
	_, err := p.db.ExecContext(ctx, query)
	return err
}

func (p *Postgres) Get(ctx context.Context, key string) (*Record, error) {
	var (
		rec               Record
		analysis, warning []byte
	)
	err := p.db.QueryRowContext(ctx,
		`SELECT key, run_id, created_at, analysis, warnings FROM game_analyses WHERE key = $1`, key,
	).Scan(&rec.Key, &rec.RunID, &rec.CreatedAt, &analysis, &warning)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query analysis %s: %w", key, err)
	}
	if err := json.Unmarshal(analysis, &rec.Analysis); err != nil {
		return nil, fmt.Errorf("decode analysis %s: %w", key, err)
	}
	if len(warning) > 0 {
		if err := json.Unmarshal(warning, &rec.Warnings); err != nil {
			return nil, fmt.Errorf("decode warnings %s: %w", key, err)
		}
	}
	return &rec, nil
}

func (p *Postgres) Put(ctx context.Context, rec *Record) error {
	analysis, err := json.Marshal(rec.Analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}
	var warnings []byte
	if len(rec.Warnings) > 0 {
		if warnings, err = json.Marshal(rec.Warnings); err != nil {
			return fmt.Errorf("failed to marshal warnings: %w", err)
		}
	}
	title := ""
	if rec.Analysis != nil {
		title = rec.Analysis.Title
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO game_analyses (key, run_id, created_at, title, analysis, warnings)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (key) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			created_at = EXCLUDED.created_at,
			title = EXCLUDED.title,
			analysis = EXCLUDED.analysis,
			warnings = EXCLUDED.warnings`,
		rec.Key, rec.RunID, rec.CreatedAt, title, analysis, warnings)
	if err != nil {
		return fmt.Errorf("upsert analysis %s: %w", rec.Key, err)
	}
	return nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
