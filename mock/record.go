package mock

import (
	"context"

	"github.com/fwojciec/harvest"
)

var _ harvest.RecordService = (*RecordService)(nil)

// RecordService is a mock implementation of harvest.RecordService.
type RecordService struct {
	StoreFn          func(ctx context.Context, model, field, value string) (*harvest.Record, error)
	FindRecordByIDFn func(ctx context.Context, id string) (*harvest.Record, error)
	FindRecordsFn    func(ctx context.Context, filter harvest.RecordFilter) ([]*harvest.Record, error)
}

func (s *RecordService) Store(ctx context.Context, model, field, value string) (*harvest.Record, error) {
	return s.StoreFn(ctx, model, field, value)
}

func (s *RecordService) FindRecordByID(ctx context.Context, id string) (*harvest.Record, error) {
	return s.FindRecordByIDFn(ctx, id)
}

func (s *RecordService) FindRecords(ctx context.Context, filter harvest.RecordFilter) ([]*harvest.Record, error) {
	return s.FindRecordsFn(ctx, filter)
}
