package scoring

import (
	"math"

	"github.com/okian/creatorscore/internal/domain/model"
)

// audiencePointsPerDecade is awarded for every factor of ten in reach.
const audiencePointsPerDecade = 5

// AudienceEvaluator scores combined follower reach on a log scale:
//
//	points = clamp(round(log10(totalFollowers) * 5), 0, 20)
//
// so 100 followers earn 10 points, 1,000 earn 15 and 10,000 or more earn the
// full 20. Each platform counts once, with its largest reported count.
type AudienceEvaluator struct{}

// Name implements Evaluator.
func (AudienceEvaluator) Name() string { return ComponentAudience }

// Max implements Evaluator.
func (AudienceEvaluator) Max() int { return MaxAudiencePoints }

// Evaluate implements Evaluator.
func (AudienceEvaluator) Evaluate(s *model.Snapshot) int {
	if s == nil {
		return 0
	}
	total := TotalFollowers(s.Connections)
	if total <= 0 {
		return 0
	}
	return roundClamp(math.Log10(total)*audiencePointsPerDecade, 0, MaxAudiencePoints)
}

// TotalFollowers sums follower counts over distinct supported platforms.
// Unknown and negative counts contribute zero. The sum is kept in float64 so
// that very large counts saturate precision instead of overflowing.
func TotalFollowers(conns []model.Connection) float64 {
	var total float64
	for _, f := range distinctConnections(conns) {
		total += float64(f)
	}
	return total
}
