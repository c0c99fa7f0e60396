// Package sqlite backs the delivery ledger with a local SQLite file.
// Sequence numbers are allocated inside one transaction, so they stay
// strictly unique even with concurrent appenders.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/claud0698/boulder-delivery-receipts/constants"
	"github.com/claud0698/boulder-delivery-receipts/internal/common"
	"github.com/claud0698/boulder-delivery-receipts/internal/ledger"
)

const schema = `
CREATE TABLE IF NOT EXISTS deliveries (
	sequence_number     INTEGER PRIMARY KEY,
	date                TEXT NOT NULL,
	receipt_number      TEXT NOT NULL,
	time                TEXT NOT NULL,
	scale_number        TEXT NOT NULL,
	vehicle_number      TEXT NOT NULL,
	material_name       TEXT NOT NULL,
	category            TEXT NOT NULL,
	gross_weight        REAL NOT NULL,
	empty_weight        REAL NOT NULL,
	net_weight          REAL NOT NULL,
	status              TEXT NOT NULL,
	notes               TEXT NOT NULL DEFAULT '',
	image_locator       TEXT NOT NULL DEFAULT '',
	adjusted_confidence REAL NOT NULL DEFAULT 0,
	created_at          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_deliveries_date ON deliveries (date);
`

const insertSQL = `
INSERT INTO deliveries (
	sequence_number, date, receipt_number, time, scale_number,
	vehicle_number, material_name, category, gross_weight, empty_weight,
	net_weight, status, notes, image_locator, adjusted_confidence, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectCols = `
sequence_number, date, receipt_number, time, scale_number,
vehicle_number, material_name, category, gross_weight, empty_weight,
net_weight, status, notes, image_locator, adjusted_confidence, created_at
`

type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewStore(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, common.NewAppError("CONFIG_ERROR", "sqlite path is empty", common.ErrInvalidInput)
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// one writer at a time keeps SQLITE_BUSY out of the append path
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply ledger schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Append(ctx context.Context, rec *ledger.Record) (int, error) {
	seqs, err := s.AppendBatch(ctx, []*ledger.Record{rec})
	if err != nil {
		return 0, err
	}
	return seqs[0], nil
}

func (s *Store) AppendBatch(ctx context.Context, recs []*ledger.Record) ([]int, error) {
	if len(recs) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx: %w", common.ErrLedgerAppend, err)
	}
	defer tx.Rollback()

	var maxSeq sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(sequence_number) FROM deliveries`).Scan(&maxSeq); err != nil {
		return nil, fmt.Errorf("%w: read max sequence: %w", common.ErrLedgerAppend, err)
	}

	next := int(maxSeq.Int64) + 1
	seqs := make([]int, len(recs))
	for i, rec := range recs {
		seq := next + i
		_, err := tx.ExecContext(ctx, insertSQL,
			seq, rec.Date, rec.ReceiptNumber, rec.Time, rec.ScaleNumber,
			rec.VehicleNumber, rec.MaterialName, string(rec.Category),
			rec.GrossWeight, rec.EmptyWeight, rec.NetWeight,
			string(rec.Status), rec.Notes, rec.ImageLocator,
			rec.AdjustedConfidence, rec.CreatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: insert row %d: %w", common.ErrLedgerAppend, seq, err)
		}
		seqs[i] = seq
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %w", common.ErrLedgerAppend, err)
	}
	s.logger.Info("ledger.append_batch.ok", "rows", len(recs), "first_sequence", seqs[0])
	return seqs, nil
}

func (s *Store) Latest(ctx context.Context, n int) ([]*ledger.Record, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectCols+` FROM deliveries ORDER BY sequence_number DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query latest: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *Store) ByDate(ctx context.Context, date string) ([]*ledger.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectCols+` FROM deliveries WHERE date = ? ORDER BY sequence_number`, date)
	if err != nil {
		return nil, fmt.Errorf("query by date: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]*ledger.Record, error) {
	var out []*ledger.Record
	for rows.Next() {
		var rec ledger.Record
		var category, status, createdAt string
		err := rows.Scan(
			&rec.SequenceNumber, &rec.Date, &rec.ReceiptNumber, &rec.Time,
			&rec.ScaleNumber, &rec.VehicleNumber, &rec.MaterialName, &category,
			&rec.GrossWeight, &rec.EmptyWeight, &rec.NetWeight, &status,
			&rec.Notes, &rec.ImageLocator, &rec.AdjustedConfidence, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rec.Category = constants.Category(category)
		rec.Status = constants.DeliveryStatus(status)
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			rec.CreatedAt = ts
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

var _ ledger.Store = (*Store)(nil)
