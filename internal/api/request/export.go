package request

import (
	"fmt"
	"strings"
)

// ExportFormat is the file format of a portfolio export.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// ParseExportFormat validates the "format" query parameter.
// An empty value selects CSV.
func ParseExportFormat(formatParam string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(formatParam))); f {
	case "":
		return ExportCSV, nil
	case ExportCSV, ExportXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("invalid format: must be 'csv' or 'xlsx'")
	}
}
