package models

import (
	"time"
)

// DocumentStatus represents the lifecycle state of a ledger record
type DocumentStatus string

const (
	// DocumentStatusPending indicates the file has been seen but not processed
	DocumentStatusPending DocumentStatus = "pending"
	// DocumentStatusProcessed indicates a row was appended to the spreadsheet
	DocumentStatusProcessed DocumentStatus = "processed"
	// DocumentStatusFailed indicates processing failed; the file is retried on rescan
	DocumentStatusFailed DocumentStatus = "failed"
)

// Document is the ledger record kept for every input file. Records are
// stored in Badger keyed by ID; ContentHash deduplicates reprocessing.
type Document struct {
	ID          string         `json:"id" badgerhold:"key"`
	Path        string         `json:"path"`
	Filename    string         `json:"filename"`
	Tab         string         `json:"tab"`
	FF          string         `json:"ff"`
	SizeBytes   int64          `json:"size_bytes"`
	ContentHash string         `json:"content_hash" badgerhold:"index"`
	Status      DocumentStatus `json:"status" badgerhold:"index"`
	Extractor   string         `json:"extractor,omitempty"` // Chain link that produced the metadata
	Metadata    Metadata       `json:"metadata"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	ProcessedAt time.Time      `json:"processed_at,omitempty"`
}

// Metadata holds the fields extracted from a scanned document.
// All fields are free text; absent values stay blank.
type Metadata struct {
	Title       string  `json:"title"`
	Date        string  `json:"date"`
	Volume      string  `json:"volume"`
	Issue       string  `json:"issue"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence,omitempty"` // OCR confidence; only set by the local extractor
}

// RowSourceLabel tags spreadsheet rows written by the pipeline
const RowSourceLabel = "AI Extracted"

// Row renders the spreadsheet row for this metadata:
// [FF#, Title, Date, Volume, Issue, Description, notes (blank), source tag].
func (m *Metadata) Row(ff string) []interface{} {
	return []interface{}{
		ff,
		m.Title,
		m.Date,
		m.Volume,
		m.Issue,
		m.Description,
		"", // Notes column, filled in by hand
		RowSourceLabel,
	}
}

// IsEmpty reports whether no field was extracted
func (m *Metadata) IsEmpty() bool {
	return m.Title == "" && m.Date == "" && m.Volume == "" && m.Issue == "" && m.Description == ""
}
