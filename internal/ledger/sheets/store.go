// Package sheets backs the delivery ledger with a shared Google Sheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/claud0698/boulder-delivery-receipts/internal/common"
	"github.com/claud0698/boulder-delivery-receipts/internal/ledger"
	"github.com/claud0698/boulder-delivery-receipts/internal/retry"
)

const defaultTailWindow = 10

type Config struct {
	SpreadsheetID   string
	SheetName       string // defaults to "Pengiriman"
	CredentialsFile string // empty -> application default credentials
	TailWindow      int
}

// Store appends delivery rows to one sheet tab. Sequence allocation is
// read-then-write over the tail window with no cross-request mutual
// exclusion: two concurrent appends can read the same tail maximum and
// both write the same number. That duplicate-under-concurrency behavior
// is accepted here; the sqlite store is the strict alternative.
type Store struct {
	svc    *sheets.Service
	cfg    Config
	logger *slog.Logger
	policy retry.Policy
}

func NewStore(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.SpreadsheetID == "" {
		return nil, common.NewAppError("CONFIG_ERROR", "spreadsheet id is empty", common.ErrInvalidInput)
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Pengiriman"
	}
	if cfg.TailWindow <= 0 {
		cfg.TailWindow = defaultTailWindow
	}
	if logger == nil {
		logger = slog.Default()
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Store{svc: svc, cfg: cfg, logger: logger, policy: retry.Ledger(isTransient)}, nil
}

// Verify checks that the configured tab exists. The tab is created and
// formatted by hand, never by this service.
func (s *Store) Verify(ctx context.Context) error {
	meta, err := s.svc.Spreadsheets.Get(s.cfg.SpreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.cfg.SheetName {
			return nil
		}
	}
	return common.NewAppError("LEDGER_ERROR",
		fmt.Sprintf("sheet %q not found; create it manually with the ledger headers", s.cfg.SheetName),
		common.ErrNotFound)
}

func (s *Store) Append(ctx context.Context, rec *ledger.Record) (int, error) {
	var seq int
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		n, err := s.nextSequence(ctx)
		if err != nil {
			return err
		}
		row := *rec
		row.SequenceNumber = n
		if err := s.appendRows(ctx, [][]any{row.ToRow()}); err != nil {
			return err
		}
		seq = n
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", common.ErrLedgerAppend, err)
	}
	s.logger.Info("ledger.append.ok",
		"sequence", seq, "receipt_number", rec.ReceiptNumber,
		"material", rec.MaterialName, "net_weight", rec.NetWeight,
	)
	return seq, nil
}

// AppendBatch reads the tail once and writes all rows in one call, so the
// numbers within a batch are always contiguous. The race window against
// other writers shrinks to the single read-then-write, but does not close.
func (s *Store) AppendBatch(ctx context.Context, recs []*ledger.Record) ([]int, error) {
	if len(recs) == 0 {
		return nil, nil
	}
	var seqs []int
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		start, err := s.nextSequence(ctx)
		if err != nil {
			return err
		}
		rows := make([][]any, len(recs))
		assigned := make([]int, len(recs))
		for i, rec := range recs {
			row := *rec
			row.SequenceNumber = start + i
			rows[i] = row.ToRow()
			assigned[i] = row.SequenceNumber
		}
		if err := s.appendRows(ctx, rows); err != nil {
			return err
		}
		seqs = assigned
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrLedgerAppend, err)
	}
	s.logger.Info("ledger.append_batch.ok", "rows", len(recs), "first_sequence", seqs[0])
	return seqs, nil
}

func (s *Store) Latest(ctx context.Context, n int) ([]*ledger.Record, error) {
	if n <= 0 {
		return nil, nil
	}
	total, err := s.rowCount(ctx)
	if err != nil {
		return nil, err
	}
	if total <= 1 { // only header or empty
		return nil, nil
	}

	start := total - n + 1
	if start < 2 {
		start = 2
	}
	rng := fmt.Sprintf("%s!A%d:O%d", s.cfg.SheetName, start, total)
	resp, err := s.svc.Spreadsheets.Values.Get(s.cfg.SpreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read latest rows: %w", err)
	}

	// latest first
	out := make([]*ledger.Record, 0, len(resp.Values))
	for i := len(resp.Values) - 1; i >= 0; i-- {
		rec, err := ledger.FromRow(toStrings(resp.Values[i]))
		if err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) ByDate(ctx context.Context, date string) ([]*ledger.Record, error) {
	rng := fmt.Sprintf("%s!A2:O", s.cfg.SheetName)
	resp, err := s.svc.Spreadsheets.Values.Get(s.cfg.SpreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	var out []*ledger.Record
	for _, cells := range resp.Values {
		rec, err := ledger.FromRow(toStrings(cells))
		if err != nil {
			continue
		}
		if rec.Date == date {
			out = append(out, rec)
		}
	}
	return out, nil
}

// nextSequence reads only the tail of the sequence column, not the whole
// ledger, and proposes last parseable value + 1.
func (s *Store) nextSequence(ctx context.Context) (int, error) {
	total, err := s.rowCount(ctx)
	if err != nil {
		return 0, err
	}
	if total <= 1 {
		return 1, nil
	}

	start := total - s.cfg.TailWindow + 1
	if start < 2 {
		start = 2
	}
	rng := fmt.Sprintf("%s!A%d:A%d", s.cfg.SheetName, start, total)
	resp, err := s.svc.Spreadsheets.Values.Get(s.cfg.SpreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read tail window: %w", err)
	}

	tail := make([]string, 0, len(resp.Values))
	for _, cells := range resp.Values {
		row := toStrings(cells)
		if len(row) > 0 {
			tail = append(tail, row[0])
		}
	}
	return ledger.NextFromTail(tail), nil
}

func (s *Store) rowCount(ctx context.Context) (int, error) {
	meta, err := s.svc.Spreadsheets.Get(s.cfg.SpreadsheetID).
		Ranges(s.cfg.SheetName + "!A:A").
		Fields("sheets.data.rowMetadata").
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get row count: %w", err)
	}
	if len(meta.Sheets) == 0 || len(meta.Sheets[0].Data) == 0 {
		return 0, nil
	}
	return len(meta.Sheets[0].Data[0].RowMetadata), nil
}

func (s *Store) appendRows(ctx context.Context, rows [][]any) error {
	values := make([][]interface{}, len(rows))
	for i, r := range rows {
		values[i] = r
	}
	_, err := s.svc.Spreadsheets.Values.
		Append(s.cfg.SpreadsheetID, s.cfg.SheetName+"!A:O", &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append rows: %w", err)
	}
	return nil
}

func toStrings(cells []interface{}) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = fmt.Sprint(c)
	}
	return out
}

func isTransient(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == 429 || gerr.Code >= 500
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

var _ ledger.Store = (*Store)(nil)
