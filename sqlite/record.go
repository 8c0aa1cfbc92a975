package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/harvest"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ harvest.RecordService = (*RecordService)(nil)

// RecordService implements harvest.RecordService using SQLite.
type RecordService struct {
	db *DB
}

// NewRecordService creates a new RecordService.
func NewRecordService(db *DB) *RecordService {
	return &RecordService{db: db}
}

// hashValue computes the xxHash of value as a hex string.
func hashValue(value string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(value))
}

// Store writes value into field of model.
func (s *RecordService) Store(ctx context.Context, model, field, value string) (*harvest.Record, error) {
	rec := &harvest.Record{
		Model: model,
		Field: field,
		Value: value,
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	rec.ID = uuid.New().String()
	rec.ValueHash = hashValue(value)
	rec.StoredAt = time.Now().UTC().Truncate(time.Second)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records (id, model, field, value, value_hash, stored_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Model, rec.Field, rec.Value, rec.ValueHash, rec.StoredAt.Format(time.RFC3339))
	if err != nil {
		return nil, harvest.WrapError(harvest.EINTERNAL, err, "storing %s.%s", model, field)
	}

	return rec, nil
}

// FindRecordByID retrieves a record by ID.
func (s *RecordService) FindRecordByID(ctx context.Context, id string) (*harvest.Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, `
		SELECT id, model, field, value, value_hash, stored_at
		FROM records
		WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, harvest.Errorf(harvest.ENOTFOUND, "record not found")
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// FindRecords retrieves records matching the filter, newest first.
func (s *RecordService) FindRecords(ctx context.Context, filter harvest.RecordFilter) ([]*harvest.Record, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, model, field, value, value_hash, stored_at FROM records WHERE 1=1")

	if filter.Model != nil {
		query.WriteString(" AND model = ?")
		args = append(args, *filter.Model)
	}
	if filter.Field != nil {
		query.WriteString(" AND field = ?")
		args = append(args, *filter.Field)
	}

	// rowid breaks ties between records stored within the same second.
	query.WriteString(" ORDER BY stored_at DESC, rowid DESC")

	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*harvest.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*harvest.Record, error) {
	var rec harvest.Record
	var storedAt string

	if err := row.Scan(&rec.ID, &rec.Model, &rec.Field, &rec.Value, &rec.ValueHash, &storedAt); err != nil {
		return nil, err
	}

	t, err := parseRFC3339(storedAt, "stored_at")
	if err != nil {
		return nil, err
	}
	rec.StoredAt = t

	return &rec, nil
}
