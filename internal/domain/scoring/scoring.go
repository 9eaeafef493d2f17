// Package scoring computes the 0-100 creator score from a snapshot.
//
// Four independent evaluators each award points within a fixed budget and
// the Engine sums them into a Breakdown. Every evaluator is total over its
// input: missing fields, negative follower counts and unknown platforms
// degrade to the minimum contribution instead of failing. There is no
// clock, randomness or shared state, so one Engine may be used from any
// number of goroutines.
package scoring

import (
	"math"

	"github.com/okian/creatorscore/internal/domain/model"
)

// Point budgets per component. They sum to MaxTotal.
const (
	MaxProfilePoints    = 20
	MaxEmailPoints      = 10
	MaxConnectionPoints = 50
	MaxAudiencePoints   = 20
	MaxTotal            = 100
)

// Component names used in breakdown rendering and metrics labels.
const (
	ComponentProfile     = "profile"
	ComponentEmail       = "email"
	ComponentConnections = "connections"
	ComponentAudience    = "audience"
)

// Evaluator awards points for one aspect of a snapshot.
type Evaluator interface {
	// Name is the component name, one of the Component constants.
	Name() string
	// Max is the upper bound of Evaluate.
	Max() int
	// Evaluate returns points in [0, Max()].
	Evaluate(s *model.Snapshot) int
}

// clamp bounds v into [lo, hi].
func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// roundClamp rounds half away from zero and bounds the result. NaN maps to lo.
func roundClamp(v float64, lo, hi int) int {
	if math.IsNaN(v) {
		return lo
	}
	r := math.Round(v)
	if r <= float64(lo) {
		return lo
	}
	if r >= float64(hi) {
		return hi
	}
	return int(r)
}

// distinctConnections returns one connection per supported platform keeping
// the largest follower count seen for it. The result does not depend on the
// input order.
func distinctConnections(conns []model.Connection) map[model.Platform]int64 {
	out := make(map[model.Platform]int64, len(conns))
	for _, c := range conns {
		if !c.Platform.Supported() {
			continue
		}
		f := c.Followers()
		if cur, ok := out[c.Platform]; !ok || f > cur {
			out[c.Platform] = f
		}
	}
	return out
}
