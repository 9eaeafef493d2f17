package scoring

import (
	"strings"
	"unicode/utf8"

	"github.com/okian/creatorscore/internal/domain/model"
)

const (
	profileConditionPoints = MaxProfilePoints / 4
	// minBioLength is measured in characters of the trimmed bio.
	minBioLength = 10
)

// ProfileEvaluator scores profile completeness: display name, avatar, a bio
// of at least ten characters and a username are worth five points each.
type ProfileEvaluator struct{}

// Name implements Evaluator.
func (ProfileEvaluator) Name() string { return ComponentProfile }

// Max implements Evaluator.
func (ProfileEvaluator) Max() int { return MaxProfilePoints }

// Evaluate implements Evaluator.
func (ProfileEvaluator) Evaluate(s *model.Snapshot) int {
	if s == nil {
		return 0
	}
	points := 0
	if present(s.DisplayName) {
		points += profileConditionPoints
	}
	if present(s.AvatarURL) {
		points += profileConditionPoints
	}
	if s.Bio != nil && utf8.RuneCountInString(strings.TrimSpace(*s.Bio)) >= minBioLength {
		points += profileConditionPoints
	}
	if present(s.Username) {
		points += profileConditionPoints
	}
	return clamp(points, 0, MaxProfilePoints)
}

// present reports whether an optional field holds something other than blanks.
func present(v *string) bool {
	return v != nil && strings.TrimSpace(*v) != ""
}
