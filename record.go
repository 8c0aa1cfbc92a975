package harvest

import (
	"context"
	"time"
)

// Record is a value written into a named field of a named model by the
// persist strategy.
type Record struct {
	ID        string    `json:"id"`
	Model     string    `json:"model"`
	Field     string    `json:"field"`
	Value     string    `json:"value"`
	ValueHash string    `json:"valueHash"`
	StoredAt  time.Time `json:"storedAt"`
}

// Validate returns an error if the record contains invalid fields.
func (r *Record) Validate() error {
	if r.Model == "" {
		return Errorf(EINVALID, "record model required")
	}
	if r.Field == "" {
		return Errorf(EINVALID, "record field required")
	}
	return nil
}

// ModelSink stores extracted values into an external data store.
// The core does not know concrete model types.
type ModelSink interface {
	// Store writes value into field of model and returns the stored record.
	Store(ctx context.Context, model, field, value string) (*Record, error)
}

// RecordService represents a service for storing and querying records.
type RecordService interface {
	ModelSink

	// FindRecordByID retrieves a record by ID.
	// Returns ENOTFOUND if the record does not exist.
	FindRecordByID(ctx context.Context, id string) (*Record, error)

	// FindRecords retrieves records matching the filter, newest first.
	FindRecords(ctx context.Context, filter RecordFilter) ([]*Record, error)
}

// RecordFilter represents a filter for FindRecords.
type RecordFilter struct {
	Model *string `json:"model"`
	Field *string `json:"field"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
