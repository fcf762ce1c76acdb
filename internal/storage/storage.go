package storage

import (
	"context"
	"errors"

	"yieldScope/internal/model"
)

// Sink receives computed snapshot records.
type Sink interface {
	PutSnapshots(ctx context.Context, records []model.SnapshotRecord) error
}

// Multi writes to every sink and joins their errors.
type Multi []Sink

func (m Multi) PutSnapshots(ctx context.Context, records []model.SnapshotRecord) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.PutSnapshots(ctx, records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
