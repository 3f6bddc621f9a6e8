package sheets

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/interfaces"
)

// NewSheetWriter creates the writer selected by sheets.mode
func NewSheetWriter(ctx context.Context, cfg *common.SheetsConfig, logger arbor.ILogger) (interfaces.SheetWriter, error) {
	switch cfg.Mode {
	case "google":
		return NewGoogleWriter(ctx, cfg, logger)
	case "excel":
		return NewExcelWriter(cfg.ExcelPath, logger)
	default:
		return nil, fmt.Errorf("unsupported sheets mode: %s", cfg.Mode)
	}
}
