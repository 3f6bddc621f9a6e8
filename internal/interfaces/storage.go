package interfaces

import (
	"context"

	"github.com/ternarybob/folio/internal/models"
)

// StorageManager provides access to all storage backends
type StorageManager interface {
	// DocumentStorage returns the processed-document ledger
	DocumentStorage() DocumentStorage

	// KeyValueStorage returns the key/value storage interface
	KeyValueStorage() KeyValueStorage

	// Close closes the underlying database
	Close() error
}

// DocumentStorage is the ledger of processed files. One record is kept per
// input file; records make reprocessing idempotent across runs.
type DocumentStorage interface {
	// SaveDocument inserts or updates a ledger record
	SaveDocument(ctx context.Context, doc *models.Document) error

	// GetDocument retrieves a record by ID
	GetDocument(ctx context.Context, id string) (*models.Document, error)

	// GetDocumentByHash retrieves a record by content hash, if any
	GetDocumentByHash(ctx context.Context, hash string) (*models.Document, error)

	// IsProcessed reports whether a file with the given content hash has
	// already been processed successfully.
	IsProcessed(ctx context.Context, hash string) (bool, error)

	// ListDocuments returns the most recent records, newest first
	ListDocuments(ctx context.Context, limit int) ([]*models.Document, error)

	// DeleteDocument removes a record by ID
	DeleteDocument(ctx context.Context, id string) error
}

// KeyValueStorage provides simple string key/value persistence,
// used for API key and setting resolution.
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	GetAll(ctx context.Context) (map[string]string, error)
}
