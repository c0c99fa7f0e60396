// Package postgres persists token-usage rows to Postgres. Recording is
// best-effort: callers log and drop the error, a failed insert never
// fails the delivery it describes.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/claud0698/boulder-delivery-receipts/internal/common"
	"github.com/claud0698/boulder-delivery-receipts/internal/telemetry"
)

const schema = `
CREATE TABLE IF NOT EXISTS token_usage (
	id              BIGSERIAL PRIMARY KEY,
	sequence_number INTEGER,
	receipt_number  TEXT NOT NULL DEFAULT '',
	operation       TEXT NOT NULL,
	model           TEXT NOT NULL,
	prompt_tokens   INTEGER NOT NULL DEFAULT 0,
	output_tokens   INTEGER NOT NULL DEFAULT 0,
	total_tokens    INTEGER NOT NULL DEFAULT 0,
	recorded_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)
`

type Recorder struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Open creates a pgx pool and makes sure the usage table exists.
func Open(ctx context.Context, cfg common.TelemetryConfig, logger *slog.Logger) (*Recorder, error) {
	if cfg.DSN == "" {
		return nil, common.NewAppError("CONFIG_ERROR", "telemetry dsn is empty", common.ErrInvalidInput)
	}
	if logger == nil {
		logger = slog.Default()
	}

	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse telemetry dsn: %w", err)
	}
	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "boulder-delivery-receipts"

	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		return nil, fmt.Errorf("connect telemetry db: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply usage schema: %w", err)
	}
	logger.Info("telemetry.db.connected")
	return &Recorder{pool: pool, logger: logger}, nil
}

func (r *Recorder) Close() { r.pool.Close() }

func (r *Recorder) Record(ctx context.Context, rec telemetry.Record) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO token_usage (
			sequence_number, receipt_number, operation, model,
			prompt_tokens, output_tokens, total_tokens
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.SequenceNumber, rec.ReceiptNumber, rec.Operation, rec.Model,
		rec.PromptTokens, rec.OutputTokens, rec.TotalTokens,
	)
	if err != nil {
		return fmt.Errorf("insert token usage: %w", err)
	}
	return nil
}

func (r *Recorder) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

var _ telemetry.Recorder = (*Recorder)(nil)
