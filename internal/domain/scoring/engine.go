package scoring

import "github.com/okian/creatorscore/internal/domain/model"

// Engine aggregates the four evaluators into a Breakdown.
type Engine struct {
	profile     Evaluator
	email       Evaluator
	connections Evaluator
	audience    Evaluator
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithProfileEvaluator replaces the profile completeness evaluator.
func WithProfileEvaluator(e Evaluator) Option {
	return func(en *Engine) {
		if e != nil {
			en.profile = e
		}
	}
}

// WithEmailEvaluator replaces the email verification evaluator.
func WithEmailEvaluator(e Evaluator) Option {
	return func(en *Engine) {
		if e != nil {
			en.email = e
		}
	}
}

// WithConnectionEvaluator replaces the connection coverage evaluator.
func WithConnectionEvaluator(e Evaluator) Option {
	return func(en *Engine) {
		if e != nil {
			en.connections = e
		}
	}
}

// WithAudienceEvaluator replaces the audience reach evaluator.
func WithAudienceEvaluator(e Evaluator) Option {
	return func(en *Engine) {
		if e != nil {
			en.audience = e
		}
	}
}

// NewEngine creates an engine with the canonical evaluators.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		profile:     ProfileEvaluator{},
		email:       EmailEvaluator{},
		connections: ConnectionEvaluator{},
		audience:    AudienceEvaluator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = NewEngine() //nolint:gochecknoglobals // stateless default

// Compute scores s with the canonical evaluators.
func Compute(s model.Snapshot) model.Breakdown {
	return defaultEngine.Compute(s)
}

// Compute scores a snapshot. Each component is bounded by its own budget
// before summing, and the total is rounded and bounded to [0, 100] so no
// evaluator can push the result out of range.
func (e *Engine) Compute(s model.Snapshot) model.Breakdown { //nolint:gocritic // hugeParam: snapshots are passed by value to keep callers' copies untouched
	b := model.Breakdown{
		ProfilePoints:    bounded(e.profile, &s),
		EmailPoints:      bounded(e.email, &s),
		ConnectionPoints: bounded(e.connections, &s),
		AudiencePoints:   bounded(e.audience, &s),
	}
	sum := b.ProfilePoints + b.EmailPoints + b.ConnectionPoints + b.AudiencePoints
	b.Total = clamp(sum, 0, MaxTotal)
	return b
}

// Evaluators returns the evaluators in breakdown order.
func (e *Engine) Evaluators() []Evaluator {
	return []Evaluator{e.profile, e.email, e.connections, e.audience}
}

func bounded(ev Evaluator, s *model.Snapshot) int {
	return clamp(ev.Evaluate(s), 0, ev.Max())
}
