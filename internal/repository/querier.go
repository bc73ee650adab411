package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// batcher is satisfied by both *pgxpool.Pool and pgx.Tx, so batched writes
// can run standalone or inside a transaction.
type batcher interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// execBatch sends b and closes the results, returning the first error.
func execBatch(ctx context.Context, q batcher, b *pgx.Batch) error {
	if b.Len() == 0 {
		return nil
	}
	return q.SendBatch(ctx, b).Close()
}
