package repository

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/creatorscore/internal/domain/model"
	"github.com/okian/creatorscore/internal/domain/types"
	"github.com/okian/creatorscore/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: total DESC, then creatorID ASC (deterministic). "less" means
// ranks earlier, so an in-order traversal yields the leaderboard from best
// to worst. Every node carries its subtree size which lets rank queries run
// in O(log n) expected time.

type node struct {
	id    string
	score int
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aID) should appear before (bScore, bID).
func less(aScore int, aID string, bScore int, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, fresh *node) *node {
	if n == nil {
		return fresh
	}
	if less(fresh.score, fresh.id, n.score, n.id) {
		n.left = insert(n.left, fresh)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, fresh)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score int) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	case less(score, id, n.score, n.id):
		n.left = deleteNode(n.left, id, score)
	default:
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// countAbove returns how many nodes hold a total strictly greater than score.
func countAbove(n *node, score int) int {
	count := 0
	for n != nil {
		if n.score > score {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectTopN appends up to limit ids in rank order.
func collectTopN(n *node, limit int, out *[]*node) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n)
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

var _ Store = (*TreapStore)(nil)

// TreapStore is the default Store. It is safe for concurrent use.
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]model.CreatorScore
	rng  *rand.Rand

	sum       int64
	histogram [types.HistogramBuckets]int
}

// NewTreapStore constructs a treap store with configuration options.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		byID: make(map[string]model.CreatorScore),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // treap balance, not security
	}
	metrics.UpdateDirectoryCreators(0)
	return s
}

// Put implements Store.Put with O(log n) expected time.
func (s *TreapStore) Put(_ context.Context, cs model.CreatorScore) error {
	start := time.Now()
	defer recordLatency("put", start)

	if cs.CreatorID == "" {
		return ErrInvalidCreator
	}
	score := cs.Breakdown.Total

	s.mu.Lock()
	if old, ok := s.byID[cs.CreatorID]; ok {
		s.root = deleteNode(s.root, cs.CreatorID, old.Breakdown.Total)
		s.account(old.Breakdown.Total, -1)
	}
	s.byID[cs.CreatorID] = cs
	s.root = insert(s.root, &node{id: cs.CreatorID, score: score, prio: s.rng.Uint64(), size: 1})
	s.account(score, 1)
	count := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateDirectoryCreators(count)
	return nil
}

// Get returns the creator's entry with its competition rank in O(log n).
func (s *TreapStore) Get(_ context.Context, creatorID string) (types.Entry, error) {
	start := time.Now()
	defer recordLatency("get", start)

	s.mu.RLock()
	defer s.mu.RUnlock()

	cs, ok := s.byID[creatorID]
	if !ok {
		return types.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, creatorID)
	}
	return entryOf(cs, 1+countAbove(s.root, cs.Breakdown.Total)), nil
}

// TopN returns the top n entries. Tied totals share a rank and the next
// distinct total skips the tied positions.
func (s *TreapStore) TopN(_ context.Context, n int) ([]types.Entry, error) {
	start := time.Now()
	defer recordLatency("top_n", start)

	if n < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]*node, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, &nodes)

	out := make([]types.Entry, len(nodes))
	for i, nd := range nodes {
		rank := i + 1
		if i > 0 && nodes[i-1].score == nd.score {
			rank = out[i-1].Rank
		}
		out[i] = entryOf(s.byID[nd.id], rank)
	}
	return out, nil
}

// Remove implements Store.Remove.
func (s *TreapStore) Remove(_ context.Context, creatorID string) bool {
	start := time.Now()
	defer recordLatency("remove", start)

	s.mu.Lock()
	old, ok := s.byID[creatorID]
	if ok {
		s.root = deleteNode(s.root, creatorID, old.Breakdown.Total)
		delete(s.byID, creatorID)
		s.account(old.Breakdown.Total, -1)
	}
	count := len(s.byID)
	s.mu.Unlock()

	if ok {
		metrics.UpdateDirectoryCreators(count)
	}
	return ok
}

// Count returns the total number of creators.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Aggregate implements Store.Aggregate. Min and max are read from the ends
// of the treap; sum and histogram are maintained on every write.
func (s *TreapStore) Aggregate(_ context.Context) types.Aggregate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agg := types.Aggregate{
		Count:     len(s.byID),
		Histogram: s.histogram,
	}
	if agg.Count == 0 {
		return agg
	}
	agg.Mean = float64(s.sum) / float64(agg.Count)

	hi := s.root
	for hi.left != nil {
		hi = hi.left
	}
	lo := s.root
	for lo.right != nil {
		lo = lo.right
	}
	agg.Max = hi.score
	agg.Min = lo.score
	return agg
}

// account adds delta occurrences of score to the running aggregates.
// Must be called with s.mu held.
func (s *TreapStore) account(score, delta int) {
	s.sum += int64(score * delta)
	s.histogram[types.Bucket(score)] += delta
}

func entryOf(cs model.CreatorScore, rank int) types.Entry {
	return types.Entry{
		Rank:       rank,
		CreatorID:  cs.CreatorID,
		Score:      cs.Breakdown.Total,
		Breakdown:  cs.Breakdown,
		ComputedAt: cs.ComputedAt,
	}
}

func recordLatency(op string, start time.Time) {
	metrics.RecordDirectoryLatency(op, float64(time.Since(start).Microseconds())/1000)
}
