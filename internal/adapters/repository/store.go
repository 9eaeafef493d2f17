// Package repository holds the discovery directory: the ranked, in-memory
// view of every creator's current score.
package repository

import (
	"context"

	"github.com/okian/creatorscore/internal/domain/model"
	"github.com/okian/creatorscore/internal/domain/types"
)

// Store provides read/write access to the directory.
type Store interface {
	// Put stores the score for a creator, replacing any previous value.
	Put(ctx context.Context, score model.CreatorScore) error

	// Get returns the creator's current rank, score and breakdown.
	// Returns ErrNotFound if the creator is unknown.
	Get(ctx context.Context, creatorID string) (types.Entry, error)

	// TopN returns the top-N entries ordered by total desc, creator id asc.
	TopN(ctx context.Context, n int) ([]types.Entry, error)

	// Remove drops a creator. Returns false if it was not present.
	Remove(ctx context.Context, creatorID string) bool

	// Count returns the number of creators in the directory.
	Count(ctx context.Context) int

	// Aggregate summarises every stored total.
	Aggregate(ctx context.Context) types.Aggregate
}
