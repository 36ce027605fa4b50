package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nao1215/gravelscan/internal/model"
)

// DefaultPostgresBatch is the number of rows sent per batch.
const DefaultPostgresBatch = 200

const postgresSchema = `
CREATE TABLE IF NOT EXISTS gravel_listings (
	url TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	price NUMERIC(12,2) NOT NULL,
	location TEXT NOT NULL,
	date_added TEXT NOT NULL,
	brand TEXT,
	size TEXT,
	year INTEGER,
	details JSONB NOT NULL,
	first_seen TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_seen TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const postgresUpsert = `
INSERT INTO gravel_listings (url, title, price, location, date_added, brand, size, year, details, last_seen)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (url) DO UPDATE SET
	title = EXCLUDED.title,
	price = EXCLUDED.price,
	details = EXCLUDED.details,
	last_seen = EXCLUDED.last_seen`

// PostgresSink upserts listings into a PostgreSQL table.
type PostgresSink struct {
	pool  *pgxpool.Pool
	batch int
	now   func() time.Time
}

// PostgresOption configures a PostgresSink.
type PostgresOption func(*PostgresSink)

// WithPostgresBatch sets the number of rows per batch.
func WithPostgresBatch(n int) PostgresOption {
	return func(s *PostgresSink) {
		if n > 0 {
			s.batch = n
		}
	}
}

// OpenPostgres connects to dsn and creates the listings table if needed.
func OpenPostgres(ctx context.Context, dsn string, opts ...PostgresOption) (*PostgresSink, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres DSN: %w", err)
	}
	cfg.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create postgres table: %w", err)
	}

	s := &PostgresSink{pool: pool, batch: DefaultPostgresBatch, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name implements Sink.
func (s *PostgresSink) Name() string {
	return "postgres"
}

// Push upserts listings in batches and returns the number of rows affected.
func (s *PostgresSink) Push(ctx context.Context, listings []model.Listing) (int, error) {
	total := 0
	seen := s.now()
	for _, chunk := range chunks(listings, s.batch) {
		b := &pgx.Batch{}
		for i := range chunk {
			args, err := postgresArgs(&chunk[i], seen)
			if err != nil {
				return total, err
			}
			b.Queue(postgresUpsert, args...)
		}

		br := s.pool.SendBatch(ctx, b)
		for range chunk {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return total, fmt.Errorf("failed to upsert listing: %w", err)
			}
			total += int(tag.RowsAffected())
		}
		if err := br.Close(); err != nil {
			return total, fmt.Errorf("failed to finish batch: %w", err)
		}
	}
	return total, nil
}

// Close implements Sink.
func (s *PostgresSink) Close(context.Context) error {
	s.pool.Close()
	return nil
}

func postgresArgs(l *model.Listing, seen time.Time) ([]any, error) {
	details, err := json.Marshal(l.Details)
	if err != nil {
		return nil, fmt.Errorf("failed to encode details of %s: %w", l.URL, err)
	}
	return []any{
		l.URL, l.Title, l.Price, l.Location, l.DateAdded,
		l.Brand, l.Size, l.Year, details, seen,
	}, nil
}

// chunks splits listings into consecutive slices of at most size elements.
func chunks(listings []model.Listing, size int) [][]model.Listing {
	if size <= 0 {
		size = len(listings)
	}
	var out [][]model.Listing
	for i := 0; i < len(listings); i += size {
		out = append(out, listings[i:min(i+size, len(listings))])
	}
	return out
}
