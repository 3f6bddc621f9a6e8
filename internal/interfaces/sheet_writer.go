package interfaces

import (
	"context"
)

// SheetWriter appends metadata rows to a spreadsheet. Implementations target
// the Google Sheets API or a local Excel workbook.
type SheetWriter interface {
	// EnsureTab creates the worksheet tab if it does not already exist.
	EnsureTab(ctx context.Context, tab string) error

	// AppendRow appends a single row to the named tab.
	AppendRow(ctx context.Context, tab string, row []interface{}) error

	// ListTabs returns the titles of all worksheet tabs.
	ListTabs(ctx context.Context) ([]string, error)

	// Close flushes any buffered state and releases resources.
	Close() error
}
