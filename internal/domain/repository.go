package domain

import (
	"context"
	"errors"
)

// ErrRecordNotFound is returned when an operation targets a record id that
// does not exist in the store.
var ErrRecordNotFound = errors.New("crash record not found")

// RecordRepository defines the persistence surface of the ingestion engine.
// This abstracts away the specific implementation (a single-file SQLite
// store in production, a mock in tests).
type RecordRepository interface {
	// EnsureSchema creates the record table if absent and applies any
	// pending additive migrations. Idempotent; safe on every startup.
	EnsureSchema(ctx context.Context) error

	// Persist inserts every record whose FilePath is not already stored,
	// committing the batch in one transaction. It returns the store's total
	// row count after the commit and the records actually inserted.
	// Already-known paths are skipped silently; a per-record insert failure
	// skips that record without aborting the batch.
	Persist(ctx context.Context, records []CrashRecord) (total int64, added []CrashRecord, err error)

	// ListRecords returns every stored record. This is the read half of the
	// surface consumed by the external viewer.
	ListRecords(ctx context.Context) ([]CrashRecord, error)

	// UpdateNotation sets the notation of the record identified by id.
	// It is the only mutation exposed to the external viewer and returns
	// ErrRecordNotFound when id does not exist.
	UpdateNotation(ctx context.Context, id int64, notation string) error
}
