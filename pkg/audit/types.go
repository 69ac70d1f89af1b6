package audit

import (
	"context"
	"fmt"
	"time"
)

// DecisionRecord is one persisted admission decision.
type DecisionRecord struct {
	// ID uniquely identifies this record (UUID v4).
	ID string

	// RequestID is the request correlation ID, if the request carried one.
	RequestID string

	// ClientKey is the identity the decision was scoped to.
	ClientKey string

	// Decision is "admitted" or "denied".
	Decision string

	// Method and Path describe the gated request.
	Method string
	Path   string

	// CreatedAt is when the decision was made.
	CreatedAt time.Time
}

// QueryFilter narrows ListRecords results. Zero fields match everything.
type QueryFilter struct {
	// ClientKey filters to one client identity.
	ClientKey string

	// Decision filters to "admitted" or "denied".
	Decision string

	// Since filters to records created at or after this time.
	Since time.Time

	// Limit caps the number of returned records. 0 means no cap.
	Limit int
}

// Storage persists decision records. Implementations must be safe for
// concurrent use.
type Storage interface {
	// WriteRecord persists one record.
	WriteRecord(ctx context.Context, record *DecisionRecord) error

	// ListRecords returns records matching the filter, newest first.
	ListRecords(ctx context.Context, filter QueryFilter) ([]*DecisionRecord, error)

	// CountRecords returns the number of stored records.
	CountRecords(ctx context.Context) (int64, error)

	// DeleteOlderThan removes records created before the cutoff and returns
	// the number removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases storage resources.
	Close() error
}

// StorageError wraps a storage failure with the backend and operation that
// produced it.
type StorageError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("audit storage %s: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func newStorageError(backend, op string, err error) *StorageError {
	return &StorageError{Backend: backend, Op: op, Err: err}
}
