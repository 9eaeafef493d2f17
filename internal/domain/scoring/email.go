package scoring

import "github.com/okian/creatorscore/internal/domain/model"

// EmailEvaluator awards the full email budget for a verified address and
// nothing otherwise.
type EmailEvaluator struct{}

// Name implements Evaluator.
func (EmailEvaluator) Name() string { return ComponentEmail }

// Max implements Evaluator.
func (EmailEvaluator) Max() int { return MaxEmailPoints }

// Evaluate implements Evaluator.
func (EmailEvaluator) Evaluate(s *model.Snapshot) int {
	if s == nil || !s.EmailVerified {
		return 0
	}
	return MaxEmailPoints
}
