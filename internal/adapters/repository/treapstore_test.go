package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/okian/creatorscore/internal/domain/model"
	"github.com/okian/creatorscore/internal/domain/types"
)

func score(id string, total int) model.CreatorScore {
	return model.CreatorScore{
		CreatorID:  id,
		Breakdown:  model.Breakdown{Total: total},
		ComputedAt: time.Unix(1_700_000_000, 0).UTC(),
	}
}

// checkInvariants verifies BST order, heap order on priorities and subtree sizes.
func checkInvariants(t *testing.T, n *node) int {
	t.Helper()
	if n == nil {
		return 0
	}
	if n.left != nil {
		if !less(n.left.score, n.left.id, n.score, n.id) {
			t.Fatalf("order violated at %s: left child %s", n.id, n.left.id)
		}
		if n.left.prio > n.prio {
			t.Fatalf("heap violated at %s", n.id)
		}
	}
	if n.right != nil {
		if !less(n.score, n.id, n.right.score, n.right.id) {
			t.Fatalf("order violated at %s: right child %s", n.id, n.right.id)
		}
		if n.right.prio > n.prio {
			t.Fatalf("heap violated at %s", n.id)
		}
	}
	size := 1 + checkInvariants(t, n.left) + checkInvariants(t, n.right)
	if size != n.size {
		t.Fatalf("size of %s = %d, want %d", n.id, n.size, size)
	}
	return size
}

func TestTreapStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(WithSeed(1))

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	cs := model.CreatorScore{
		CreatorID: "creator1",
		Breakdown: model.Breakdown{
			ProfilePoints:    20,
			EmailPoints:      10,
			ConnectionPoints: 29,
			Total:            59,
		},
		ComputedAt: time.Unix(1_700_000_000, 0).UTC(),
	}
	if err := store.Put(ctx, cs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count := store.Count(ctx); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	entry, err := store.Get(ctx, "creator1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Rank != 1 || entry.Score != 59 {
		t.Errorf("expected rank 1 score 59, got rank %d score %d", entry.Rank, entry.Score)
	}
	if entry.Breakdown != cs.Breakdown {
		t.Errorf("breakdown = %+v, want %+v", entry.Breakdown, cs.Breakdown)
	}
	if !entry.ComputedAt.Equal(cs.ComputedAt) {
		t.Errorf("computed_at = %v, want %v", entry.ComputedAt, cs.ComputedAt)
	}

	entries, err := store.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].CreatorID != "creator1" {
		t.Errorf("unexpected top entries: %+v", entries)
	}
}

func TestTreapStore_LatestWriteWins(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(WithSeed(2))

	_ = store.Put(ctx, score("a", 80))
	_ = store.Put(ctx, score("b", 60))

	// A lower score replaces the previous one.
	if err := store.Put(ctx, score("a", 40)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entry, err := store.Get(ctx, "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Score != 40 || entry.Rank != 2 {
		t.Errorf("expected score 40 rank 2, got score %d rank %d", entry.Score, entry.Rank)
	}
	if count := store.Count(ctx); count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}
	checkInvariants(t, store.root)
}

func TestTreapStore_CompetitionRanking(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(WithSeed(3))

	for id, total := range map[string]int{"d": 70, "a": 90, "c": 90, "b": 90, "e": 10} {
		_ = store.Put(ctx, score(id, total))
	}

	entries, err := store.TopN(ctx, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantIDs := []string{"a", "b", "c", "d", "e"}
	wantRanks := []int{1, 1, 1, 4, 5}
	for i, e := range entries {
		if e.CreatorID != wantIDs[i] || e.Rank != wantRanks[i] {
			t.Errorf("entry %d = (%s, %d), want (%s, %d)", i, e.CreatorID, e.Rank, wantIDs[i], wantRanks[i])
		}
	}

	for i, id := range wantIDs {
		e, err := store.Get(ctx, id)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if e.Rank != wantRanks[i] {
			t.Errorf("Get(%s).Rank = %d, want %d", id, e.Rank, wantRanks[i])
		}
	}

	// A limit that cuts through a tie still reports the shared rank.
	top2, _ := store.TopN(ctx, 2)
	if len(top2) != 2 || top2[1].Rank != 1 {
		t.Errorf("unexpected truncated result: %+v", top2)
	}
}

func TestTreapStore_Errors(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	for _, n := range []int{0, -1} {
		if _, err := store.TopN(ctx, n); !errors.Is(err, ErrInvalidLimit) {
			t.Errorf("TopN(%d): expected ErrInvalidLimit, got %v", n, err)
		}
	}
	if err := store.Put(ctx, score("", 10)); !errors.Is(err, ErrInvalidCreator) {
		t.Errorf("expected ErrInvalidCreator, got %v", err)
	}

	entries, err := store.TopN(ctx, 10)
	if err != nil || len(entries) != 0 {
		t.Errorf("expected empty result from empty store, got %v, %v", entries, err)
	}
}

func TestTreapStore_Remove(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(WithSeed(4))

	_ = store.Put(ctx, score("a", 90))
	_ = store.Put(ctx, score("b", 50))
	_ = store.Put(ctx, score("c", 10))

	if !store.Remove(ctx, "a") {
		t.Fatal("expected a to be removed")
	}
	if store.Remove(ctx, "a") {
		t.Error("second remove should report false")
	}
	if _, err := store.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after remove, got %v", err)
	}
	e, _ := store.Get(ctx, "b")
	if e.Rank != 1 {
		t.Errorf("expected b to move to rank 1, got %d", e.Rank)
	}
	if count := store.Count(ctx); count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}
	checkInvariants(t, store.root)
}

func TestTreapStore_Aggregate(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(WithSeed(5))

	if agg := store.Aggregate(ctx); agg != (types.Aggregate{}) {
		t.Errorf("expected zero aggregate, got %+v", agg)
	}

	for i, total := range []int{0, 9, 10, 59, 100, 100} {
		_ = store.Put(ctx, score(fmt.Sprintf("c%d", i), total))
	}
	agg := store.Aggregate(ctx)
	if agg.Count != 6 || agg.Min != 0 || agg.Max != 100 {
		t.Errorf("unexpected aggregate: %+v", agg)
	}
	if want := 278.0 / 6; agg.Mean != want {
		t.Errorf("mean = %v, want %v", agg.Mean, want)
	}
	want := [types.HistogramBuckets]int{2, 1, 0, 0, 0, 1, 0, 0, 0, 2}
	if agg.Histogram != want {
		t.Errorf("histogram = %v, want %v", agg.Histogram, want)
	}

	// Overwrites and removals keep the aggregate exact.
	_ = store.Put(ctx, score("c4", 55))
	store.Remove(ctx, "c5")
	agg = store.Aggregate(ctx)
	if agg.Count != 5 || agg.Max != 59 {
		t.Errorf("unexpected aggregate after updates: %+v", agg)
	}
	want = [types.HistogramBuckets]int{2, 1, 0, 0, 0, 2, 0, 0, 0, 0}
	if agg.Histogram != want {
		t.Errorf("histogram = %v, want %v", agg.Histogram, want)
	}
}

// TestTreapStore_MatchesReference compares a long random workload against a
// sorted slice.
func TestTreapStore_MatchesReference(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(WithSeed(6))
	r := rand.New(rand.NewPCG(6, 7))
	ref := map[string]int{}

	for i := 0; i < 5_000; i++ {
		id := fmt.Sprintf("creator-%03d", r.IntN(300))
		if r.IntN(5) == 0 {
			_, had := ref[id]
			if store.Remove(ctx, id) != had {
				t.Fatalf("remove(%s) disagreed with reference", id)
			}
			delete(ref, id)
			continue
		}
		total := r.IntN(101)
		_ = store.Put(ctx, score(id, total))
		ref[id] = total
	}
	checkInvariants(t, store.root)

	ids := make([]string, 0, len(ref))
	for id := range ref {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return less(ref[ids[i]], ids[i], ref[ids[j]], ids[j]) })

	all, err := store.TopN(ctx, len(ids)+10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != len(ids) {
		t.Fatalf("TopN returned %d entries, want %d", len(all), len(ids))
	}
	for i, id := range ids {
		higher := 0
		for _, other := range ref {
			if other > ref[id] {
				higher++
			}
		}
		if all[i].CreatorID != id || all[i].Rank != higher+1 {
			t.Fatalf("position %d = (%s, %d), want (%s, %d)", i, all[i].CreatorID, all[i].Rank, id, higher+1)
		}
		e, err := store.Get(ctx, id)
		if err != nil || e.Rank != higher+1 || e.Score != ref[id] {
			t.Fatalf("Get(%s) = %+v, %v", id, e, err)
		}
	}
}

func TestTreapStore_Concurrency(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()

	const writers = 8
	const perWriter = 200
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				id := fmt.Sprintf("w%d-%d", w, i)
				_ = store.Put(ctx, score(id, (w*perWriter+i)%101))
				_, _ = store.Get(ctx, id)
				_, _ = store.TopN(ctx, 5)
				_ = store.Aggregate(ctx)
			}
		}(w)
	}
	wg.Wait()

	if count := store.Count(ctx); count != writers*perWriter {
		t.Errorf("expected %d creators, got %d", writers*perWriter, count)
	}
	checkInvariants(t, store.root)
}

func BenchmarkTreapStore_Put(b *testing.B) {
	ctx := context.Background()
	store := NewTreapStore(WithSeed(1))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = store.Put(ctx, score(fmt.Sprintf("creator-%d", i%10_000), i%101))
	}
}

func BenchmarkTreapStore_Get(b *testing.B) {
	ctx := context.Background()
	store := NewTreapStore(WithSeed(1))
	for i := 0; i < 10_000; i++ {
		_ = store.Put(ctx, score(fmt.Sprintf("creator-%d", i), i%101))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.Get(ctx, fmt.Sprintf("creator-%d", i%10_000))
	}
}
