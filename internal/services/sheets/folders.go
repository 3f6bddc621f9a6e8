package sheets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/interfaces"
)

// EnsureFolders creates one input subfolder per worksheet tab so scans can
// be dropped into the folder matching their destination tab. Tab titles are
// sanitized for filesystem use.
func EnsureFolders(ctx context.Context, inputDir string, writer interfaces.SheetWriter, logger arbor.ILogger) error {
	tabs, err := writer.ListTabs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list worksheet tabs: %w", err)
	}

	for _, tab := range tabs {
		folder := filepath.Join(inputDir, common.SanitizeFolderName(tab))
		if err := os.MkdirAll(folder, 0o755); err != nil {
			return fmt.Errorf("failed to create input folder %s: %w", folder, err)
		}
		logger.Debug().Str("tab", tab).Str("folder", folder).Msg("Ensured input folder for tab")
	}

	logger.Info().
		Int("tab_count", len(tabs)).
		Str("input_dir", inputDir).
		Msg("Input folders synchronized with worksheet tabs")

	return nil
}
