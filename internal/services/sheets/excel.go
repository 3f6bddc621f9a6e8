// -----------------------------------------------------------------------
// Excel Writer - Local workbook output for offline runs and tests
// -----------------------------------------------------------------------

package sheets

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/xuri/excelize/v2"

	"github.com/ternarybob/folio/internal/interfaces"
)

// ExcelWriter implements SheetWriter against a local .xlsx workbook. The
// workbook is saved after every append so a crash never loses written rows.
type ExcelWriter struct {
	path   string
	file   *excelize.File
	mu     sync.Mutex
	logger arbor.ILogger
}

// Compile-time assertion
var _ interfaces.SheetWriter = (*ExcelWriter)(nil)

// NewExcelWriter opens the workbook at path, creating it when missing
func NewExcelWriter(path string, logger arbor.ILogger) (*ExcelWriter, error) {
	if path == "" {
		return nil, fmt.Errorf("sheets.excel_path is required in excel mode")
	}

	var file *excelize.File
	if _, err := os.Stat(path); err == nil {
		file, err = excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
		}
	} else {
		file = excelize.NewFile()
		if err := file.SaveAs(path); err != nil {
			return nil, fmt.Errorf("failed to create workbook %s: %w", path, err)
		}
	}

	logger.Info().Str("path", path).Msg("Excel workbook writer initialized")

	return &ExcelWriter{
		path:   path,
		file:   file,
		logger: logger,
	}, nil
}

// EnsureTab creates the worksheet when it does not exist yet
func (w *ExcelWriter) EnsureTab(ctx context.Context, tab string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	index, err := w.file.GetSheetIndex(tab)
	if err != nil {
		return fmt.Errorf("failed to look up worksheet %q: %w", tab, err)
	}
	if index >= 0 {
		return nil
	}

	if _, err := w.file.NewSheet(tab); err != nil {
		return fmt.Errorf("failed to create worksheet %q: %w", tab, err)
	}
	if err := w.file.Save(); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Info().Str("tab", tab).Msg("Created worksheet tab")
	return nil
}

// AppendRow writes one row after the last populated row of the tab
func (w *ExcelWriter) AppendRow(ctx context.Context, tab string, row []interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rows, err := w.file.GetRows(tab)
	if err != nil {
		return fmt.Errorf("failed to read worksheet %q: %w", tab, err)
	}

	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return fmt.Errorf("failed to compute append position: %w", err)
	}

	if err := w.file.SetSheetRow(tab, cell, &row); err != nil {
		return fmt.Errorf("failed to write row to %q: %w", tab, err)
	}
	if err := w.file.Save(); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Info().
		Str("tab", tab).
		Int("row", len(rows)+1).
		Msg("Appended row to workbook")

	return nil
}

// ListTabs returns the worksheet titles in workbook order
func (w *ExcelWriter) ListTabs(ctx context.Context) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.GetSheetList(), nil
}

// Close saves and closes the workbook
func (w *ExcelWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.file.Save(); err != nil {
		return fmt.Errorf("failed to save workbook on close: %w", err)
	}
	return w.file.Close()
}
