package scoring

import "github.com/okian/creatorscore/internal/domain/model"

// ConnectionEvaluator rewards breadth of platform coverage. The connection
// budget is spread evenly over the supported platforms:
//
//	points = round(distinct / supported * 50)
//
// With seven platforms that is 7, 14, 21, 29, 36, 43 and 50 points for one
// through seven connections. Duplicate and unsupported platforms do not count.
type ConnectionEvaluator struct{}

// Name implements Evaluator.
func (ConnectionEvaluator) Name() string { return ComponentConnections }

// Max implements Evaluator.
func (ConnectionEvaluator) Max() int { return MaxConnectionPoints }

// Evaluate implements Evaluator.
func (ConnectionEvaluator) Evaluate(s *model.Snapshot) int {
	if s == nil {
		return 0
	}
	distinct := len(distinctConnections(s.Connections))
	if distinct == 0 {
		return 0
	}
	share := float64(distinct) / float64(model.SupportedPlatformCount()) * MaxConnectionPoints
	return roundClamp(share, 0, MaxConnectionPoints)
}
