package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var (
	// ErrInvalidWorkbook means the body could not be opened as an xlsx file.
	ErrInvalidWorkbook = errors.New("invalid workbook")

	// ErrSheetNotFound means the requested sheet is not in the workbook.
	ErrSheetNotFound = errors.New("sheet not found")
)

// ImportStats counts the outcome of a workbook import.
type ImportStats struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ImportWorkbook reads fabric prices from an xlsx sheet. The first row is a
// header; data rows are code, fabric price per meter and an optional lining
// price per meter. Bad rows are skipped and logged. Every row gets the same
// effective date. An empty sheet name selects the first sheet.
func (s *Store) ImportWorkbook(ctx context.Context, r io.Reader, sheet string, effective time.Time) (ImportStats, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return ImportStats{}, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return ImportStats{}, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return ImportStats{}, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if effective.IsZero() {
		effective = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportStats{}, fmt.Errorf("begin import transaction: %w", err)
	}

	stats := ImportStats{}
	for i := 1; i < len(rows); i++ {
		rowNum := i + 1
		p, ok, err := parseRow(rows[i])
		if !ok {
			continue
		}
		if err != nil {
			stats.Skipped++
			s.log.Warn("skip catalog row", zap.String("sheet", sheet), zap.Int("row", rowNum), zap.Error(err))
			continue
		}
		p.EffectiveFrom = effective

		if _, err := s.insertFabric(ctx, tx, p); err != nil {
			if errors.Is(err, ErrInvalidCode) || errors.Is(err, ErrNegativePrice) {
				stats.Skipped++
				s.log.Warn("skip catalog row", zap.String("sheet", sheet), zap.Int("row", rowNum), zap.Error(err))
				continue
			}
			_ = tx.Rollback()
			return ImportStats{}, err
		}
		stats.Imported++
	}

	if err := tx.Commit(); err != nil {
		return ImportStats{}, fmt.Errorf("commit import transaction: %w", err)
	}

	s.log.Info("catalog import finished",
		zap.String("sheet", sheet),
		zap.Int("imported", stats.Imported),
		zap.Int("skipped", stats.Skipped),
	)
	return stats, nil
}

// parseRow reports ok=false for blank rows, which are ignored without counting.
func parseRow(row []string) (FabricPrice, bool, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	code := cell(0)
	if code == "" && cell(1) == "" && cell(2) == "" {
		return FabricPrice{}, false, nil
	}

	fabric, err := parsePrice(cell(1))
	if err != nil {
		return FabricPrice{}, true, fmt.Errorf("fabric price: %w", err)
	}
	p := FabricPrice{Code: code, FabricPricePerMeter: fabric}

	if raw := cell(2); raw != "" {
		lining, err := parsePrice(raw)
		if err != nil {
			return FabricPrice{}, true, fmt.Errorf("lining price: %w", err)
		}
		p.LiningPricePerMeter = decimal.NewNullDecimal(lining)
	}
	return p, true, nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer("$", "", "¥", "", ",", "").Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return decimal.Decimal{}, errors.New("empty price")
	}
	return decimal.NewFromString(cleaned)
}
