// Package prescription persists OCR-extracted prescription text.
//
// Records are append-only: they are written once when the user submits an
// extraction and are never mutated or deleted here.
package prescription

import (
	"context"
	"time"
)

// Record is a stored prescription as returned by a Store. The key is
// store-assigned and opaque to callers.
type Record struct {
	Key           string    `json:"key"`
	ExtractedText string    `json:"extracted_text"`
	UploadDate    time.Time `json:"upload_date"`
}

type Store interface {
	// Insert appends a record and returns the assigned key.
	Insert(ctx context.Context, extractedText string, uploadDate time.Time) (string, error)

	// ListAll returns every record ordered by upload date descending
	// (newest first).
	ListAll(ctx context.Context) ([]Record, error)
}

// Connector acquires a Store, verifying connectivity each time. Page flows
// that need persistence call Acquire fresh on entry; an error means the store
// is absent for that pass, never a crash.
type Connector interface {
	Acquire(ctx context.Context) (Store, error)
}
