// Package types contains common types used across the application
package types

import (
	"cmp"
	"slices"
	"time"

	"github.com/okian/creatorscore/internal/domain/model"
)

// HistogramBuckets is the number of ten point wide buckets in Aggregate.
const HistogramBuckets = 10

// Entry represents a discovery directory entry
type Entry struct {
	Rank       int             `json:"rank"`
	CreatorID  string          `json:"creator_id"`
	Score      int             `json:"score"`
	Breakdown  model.Breakdown `json:"breakdown"`
	ComputedAt time.Time       `json:"computed_at"`
}

// Aggregate summarises every score held by the directory. Histogram[i]
// counts totals in [10*i, 10*i+9]; the last bucket also holds 100.
type Aggregate struct {
	Count     int                   `json:"count"`
	Mean      float64               `json:"mean"`
	Min       int                   `json:"min"`
	Max       int                   `json:"max"`
	Histogram [HistogramBuckets]int `json:"histogram"`
}

// Bucket returns the histogram bucket for a total.
func Bucket(total int) int {
	switch {
	case total <= 0:
		return 0
	case total >= 100:
		return HistogramBuckets - 1
	default:
		return total / 10
	}
}

// BatchItem is one creator in a batch scoring request.
type BatchItem struct {
	CreatorID string         `json:"creator_id" yaml:"creator_id"`
	Snapshot  model.Snapshot `json:"snapshot" yaml:"snapshot"`
}

// BatchResult is the breakdown computed for one BatchItem.
type BatchResult struct {
	CreatorID string          `json:"creator_id" yaml:"creator_id"`
	Breakdown model.Breakdown `json:"breakdown" yaml:"breakdown"`
}

// SortResults orders results for discovery: total desc, then creator id asc.
func SortResults(rs []BatchResult) {
	slices.SortStableFunc(rs, func(a, b BatchResult) int {
		if c := cmp.Compare(b.Breakdown.Total, a.Breakdown.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.CreatorID, b.CreatorID)
	})
}

// EnqueueStatus is the outcome of submitting a recompute job.
type EnqueueStatus string

// Enqueue outcomes.
const (
	EnqueueAccepted  EnqueueStatus = "accepted"
	EnqueueDuplicate EnqueueStatus = "duplicate"
	EnqueueRejected  EnqueueStatus = "rejected"
)

// Stats is the admin view of the running service.
type Stats struct {
	Started       bool      `json:"started"`
	WorkerCount   int       `json:"worker_count"`
	QueueLength   int       `json:"queue_length"`
	QueueCapacity int       `json:"queue_capacity"`
	DedupeEntries int64     `json:"dedupe_entries"`
	Directory     Aggregate `json:"directory"`
}
