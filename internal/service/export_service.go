package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/ndewijer/stock-tracker/internal/api/request"
	"github.com/ndewijer/stock-tracker/internal/apperrors"
	"github.com/ndewijer/stock-tracker/internal/model"
	"github.com/ndewijer/stock-tracker/internal/repository"
)

const exportDateLayout = "2006-01-02 15:04"

var (
	holdingsHeader = []string{"Symbol", "Qty", "Avg Price"}
	historyHeader  = []string{"Date", "Type", "Symbol", "Qty", "Price", "Realized Gain"}
)

// Export is a rendered portfolio download.
type Export struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders a user's holdings and trade history as a download.
type ExportService struct {
	ledgerRepo *repository.LedgerRepository
}

// NewExportService creates a new ExportService with the provided dependencies.
func NewExportService(ledgerRepo *repository.LedgerRepository) *ExportService {
	return &ExportService{ledgerRepo: ledgerRepo}
}

// Export renders the user's portfolio in the requested format.
// Storage failures surface as ErrPersistenceFailure.
func (s *ExportService) Export(ctx context.Context, username string, format request.ExportFormat) (Export, error) {
	l, err := loadLedgerStrict(ctx, s.ledgerRepo, username)
	if err != nil {
		return Export{}, err
	}

	lots, history := l.Lots(), l.History()

	switch format {
	case request.ExportCSV:
		body, err := CSV(lots, history)
		if err != nil {
			return Export{}, err
		}
		return Export{Filename: "portfolio.csv", ContentType: "text/csv", Body: body}, nil
	case request.ExportXLSX:
		body, err := XLSX(lots, history)
		if err != nil {
			return Export{}, err
		}
		return Export{
			Filename:    "portfolio.xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Body:        body,
		}, nil
	default:
		return Export{}, fmt.Errorf("%w: unsupported export format %q", apperrors.ErrInvalidInput, format)
	}
}

func holdingRow(lot model.Lot) []string {
	return []string{lot.Symbol, formatNumber(lot.Quantity), formatNumber(lot.AverageCost)}
}

func historyRow(tx model.Transaction) []string {
	gain := "-"
	if tx.RealizedGain != nil {
		gain = strconv.FormatFloat(*tx.RealizedGain, 'f', 2, 64)
	}
	return []string{
		tx.Timestamp.Format(exportDateLayout),
		string(tx.Kind),
		tx.Symbol,
		formatNumber(tx.Quantity),
		formatNumber(tx.Price),
		gain,
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// CSV writes a holdings section followed by a blank row and the trade history.
func CSV(lots []model.Lot, history []model.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{{"--- CURRENT HOLDINGS ---"}, holdingsHeader}
	for _, lot := range lots {
		rows = append(rows, holdingRow(lot))
	}
	rows = append(rows, []string{}, []string{"--- TRANSACTION HISTORY ---"}, historyHeader)
	for _, tx := range history {
		rows = append(rows, historyRow(tx))
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write csv export: %w", err)
	}

	return buf.Bytes(), nil
}

// XLSX writes a workbook with a "Holdings" and a "History" sheet.
func XLSX(lots []model.Lot, history []model.Transaction) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("failed to close workbook", slog.String("op", "XLSX"), slog.String("err", err.Error()))
		}
	}()

	holdings := [][]string{holdingsHeader}
	for _, lot := range lots {
		holdings = append(holdings, holdingRow(lot))
	}
	if err := fillSheet(f, "Holdings", holdings); err != nil {
		return nil, err
	}

	trades := [][]string{historyHeader}
	for _, tx := range history {
		trades = append(trades, historyRow(tx))
	}
	if err := fillSheet(f, "History", trades); err != nil {
		return nil, err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		slog.Error("failed to delete default sheet", slog.String("op", "XLSX"), slog.String("err", err.Error()))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write xlsx export: %w", err)
	}

	return buf.Bytes(), nil
}

// fillSheet writes rows into a new sheet with a bold header row.
// Numeric cells are written as numbers so spreadsheets can sum them.
func fillSheet(f *excelize.File, sheet string, rows [][]string) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#cfe2f3"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}

			if n, perr := strconv.ParseFloat(value, 64); perr == nil && r > 0 && !math.IsInf(n, 0) && !math.IsNaN(n) {
				err = f.SetCellFloat(sheet, cell, n, -1, 64)
			} else {
				err = f.SetCellStr(sheet, cell, value)
			}
			if err != nil {
				return fmt.Errorf("failed to write cell %s!%s: %w", sheet, cell, err)
			}
		}
	}

	if len(rows) > 0 && len(rows[0]) > 0 {
		last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("failed to apply header style: %w", err)
		}
	}

	return nil
}
