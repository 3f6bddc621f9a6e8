package interfaces

import (
	"context"
)

// WatcherService monitors input directories for new PDF files and feeds
// them to the processing pipeline.
type WatcherService interface {
	// Start begins watching. It blocks until ctx is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop shuts the watcher down and releases filesystem handles.
	Stop() error
}
