package sync

import (
	"context"

	"nbasync/ingestion/internal/store"
)

// Table is the slice of store behavior the sync engine consumes:
// filtered select, create, update. *store.Table satisfies it; tests
// substitute an in-memory fake.
type Table interface {
	Select(ctx context.Context, opts store.SelectOptions) ([]store.Record, error)
	Create(ctx context.Context, fields store.Fields) (store.Record, error)
	Update(ctx context.Context, id string, fields store.Fields) (store.Record, error)
}
