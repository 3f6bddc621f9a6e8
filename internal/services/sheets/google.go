// -----------------------------------------------------------------------
// Google Sheets Writer - Appends metadata rows via the Sheets API using
// service account credentials
// -----------------------------------------------------------------------

package sheets

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/interfaces"
)

// Dimensions for newly created worksheet tabs
const (
	newTabRows    = 1000
	newTabColumns = 20
)

// GoogleWriter implements SheetWriter against the Google Sheets API
type GoogleWriter struct {
	service *sheets.Service
	sheetID string
	logger  arbor.ILogger
}

// Compile-time assertion
var _ interfaces.SheetWriter = (*GoogleWriter)(nil)

// NewGoogleWriter creates a Sheets API writer authenticated with the
// configured service account key file.
func NewGoogleWriter(ctx context.Context, cfg *common.SheetsConfig, logger arbor.ILogger) (*GoogleWriter, error) {
	if cfg.SheetID == "" {
		return nil, fmt.Errorf("sheets.sheet_id is required in google mode")
	}

	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}

	logger.Info().
		Str("sheet_id", cfg.SheetID).
		Msg("Google Sheets writer initialized")

	return &GoogleWriter{
		service: service,
		sheetID: cfg.SheetID,
		logger:  logger,
	}, nil
}

// EnsureTab creates the worksheet tab when it does not exist yet
func (w *GoogleWriter) EnsureTab(ctx context.Context, tab string) error {
	tabs, err := w.ListTabs(ctx)
	if err != nil {
		return err
	}
	for _, title := range tabs {
		if title == tab {
			return nil
		}
	}

	request := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title: tab,
						GridProperties: &sheets.GridProperties{
							RowCount:    newTabRows,
							ColumnCount: newTabColumns,
						},
					},
				},
			},
		},
	}

	if _, err := w.service.Spreadsheets.BatchUpdate(w.sheetID, request).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to create worksheet %q: %w", tab, err)
	}

	w.logger.Info().Str("tab", tab).Msg("Created worksheet tab")
	return nil
}

// AppendRow appends one row after the last data row of the tab
func (w *GoogleWriter) AppendRow(ctx context.Context, tab string, row []interface{}) error {
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{row},
	}

	_, err := w.service.Spreadsheets.Values.
		Append(w.sheetID, fmt.Sprintf("%s!A1", tab), valueRange).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append row to %q: %w", tab, err)
	}

	w.logger.Info().
		Str("tab", tab).
		Int("columns", len(row)).
		Msg("Appended row to spreadsheet")

	return nil
}

// ListTabs returns the titles of all worksheet tabs in the spreadsheet
func (w *GoogleWriter) ListTabs(ctx context.Context) ([]string, error) {
	spreadsheet, err := w.service.Spreadsheets.Get(w.sheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet %s: %w", w.sheetID, err)
	}

	titles := make([]string, 0, len(spreadsheet.Sheets))
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil {
			titles = append(titles, sheet.Properties.Title)
		}
	}
	return titles, nil
}

// Close is a no-op for the API-backed writer
func (w *GoogleWriter) Close() error {
	return nil
}
