// Package export produces XLSX snapshots of the delivery ledger.
package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/claud0698/boulder-delivery-receipts/internal/ledger"
)

// Service is a tiny façade over the ledger store that produces XLSX bytes.
type Service struct {
	store  ledger.Store
	logger *slog.Logger
}

func NewService(store ledger.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// ExportDayXLSX returns a workbook with every delivery for one date
// (YYYY-MM-DD) plus a total row.
func (s *Service) ExportDayXLSX(ctx context.Context, date string) ([]byte, error) {
	recs, err := s.store.ByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	return s.build(fmt.Sprintf("Pengiriman %s", date), recs)
}

// ExportLatestXLSX returns a workbook with the most recent n deliveries,
// oldest first.
func (s *Service) ExportLatestXLSX(ctx context.Context, n int) ([]byte, error) {
	recs, err := s.store.Latest(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	// Latest returns newest first; the sheet reads better oldest first.
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	return s.build("Pengiriman", recs)
}

func (s *Service) build(sheet string, recs []*ledger.Record) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	if _, err := f.NewSheet(sheet); err != nil {
		return nil, err
	}
	if idx, _ := f.GetSheetIndex("Sheet1"); idx != -1 {
		_ = f.DeleteSheet("Sheet1")
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	for i, h := range ledger.Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		for col, v := range r.ToRow() {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	// total row under the net weight column
	totalLabel, _ := excelize.CoordinatesToCellName(10, row)
	totalCell, _ := excelize.CoordinatesToCellName(11, row)
	_ = f.SetCellValue(sheet, totalLabel, "Total")
	_ = f.SetCellValue(sheet, totalCell, ledger.TotalNetWeight(recs))

	_ = f.SetColWidth(sheet, "B", "B", 12) // date
	_ = f.SetColWidth(sheet, "G", "H", 18) // material, category
	_ = f.SetColWidth(sheet, "N", "N", 40) // proof link

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("export.xlsx.ok", "rows", len(recs), "bytes", buf.Len(), "took", time.Since(start))
	return buf.Bytes(), nil
}
