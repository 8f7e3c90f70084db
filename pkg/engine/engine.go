// Package engine validates one wizard page at a time. It walks the active
// fields of the page (expanding repeating items), applies required-ness and
// validator checks, then the cross-field rules whose fields the page declares,
// and returns a Verdict. Validation outcomes are data, never errors.
package engine

import (
	"errors"

	"go.uber.org/zap"

	"github.com/goliatone/go-intake/pkg/schema"
	"github.com/goliatone/go-intake/pkg/state"
	"github.com/goliatone/go-intake/pkg/validators"
	"github.com/goliatone/go-intake/pkg/visibility"
)

// Failure describes one failed check.
type Failure struct {
	// Label is the user-facing identifier ("Allocation Percentage (%) 2").
	Label string
	// Key addresses the answer ("beneficiaries[1].allocation"); empty for rules.
	Key string
	// Rule is the validator or rule id, or "required".
	Rule    string
	Message string
}

// RuleRequired marks presence failures.
const RuleRequired = "required"

// Verdict is the outcome of validating one page.
type Verdict struct {
	Valid    bool
	Failures []Failure
}

// FailingLabels returns the failure labels in discovery order.
func (v Verdict) FailingLabels() []string {
	labels := make([]string, 0, len(v.Failures))
	for _, failure := range v.Failures {
		labels = append(labels, failure.Label)
	}
	return labels
}

// Edits are uncommitted answers for the page being edited.
type Edits map[string]state.Value

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine evaluates page verdicts against a validator registry.
type Engine struct {
	registry *validators.Registry
	logger   *zap.Logger
}

// New builds an engine. A nil registry means validators.Default().
func New(registry *validators.Registry, opts ...Option) *Engine {
	if registry == nil {
		registry = validators.Default()
	}
	eng := &Engine{registry: registry, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(eng)
		}
	}
	return eng
}

// Registry exposes the validator registry in use.
func (e *Engine) Registry() *validators.Registry { return e.registry }

// Merge overlays edits on a copy of the snapshot. Edits naming unknown
// fields, or carrying the wrong variant, are dropped and logged.
func (e *Engine) Merge(snapshot *state.Store, edits Edits) *state.Store {
	merged := snapshot.Clone()
	for name, value := range edits {
		if err := merged.Set(name, value); err != nil {
			e.logger.Warn("dropping page edit", zap.String("field", name), zap.Error(err))
		}
	}
	return merged
}

// Validate checks the page against the snapshot with edits merged on top.
// The snapshot is not modified.
func (e *Engine) Validate(page schema.Page, snapshot *state.Store, edits Edits) Verdict {
	form := snapshot
	if len(edits) > 0 {
		form = e.Merge(snapshot, edits)
	}

	verdict := Verdict{Valid: true}
	fail := func(failure Failure) {
		verdict.Valid = false
		verdict.Failures = append(verdict.Failures, failure)
	}

	for _, active := range visibility.Resolve(page.Fields(), form) {
		field := active.Field
		if field.Required && active.Value.Empty() {
			fail(Failure{
				Label:   active.Label(),
				Key:     active.Key(),
				Rule:    RuleRequired,
				Message: "required",
			})
			continue
		}
		if field.Validator == "" || active.Value.Empty() {
			continue
		}
		if err := e.registry.Check(field.Validator, active.Value.Text(), form); err != nil {
			if errors.Is(err, validators.ErrPanicked) {
				e.logger.Error("validator failed closed",
					zap.String("page", page.Key),
					zap.String("field", active.Key()),
					zap.Error(err),
				)
			}
			fail(Failure{
				Label:   active.Label(),
				Key:     active.Key(),
				Rule:    field.Validator,
				Message: err.Error(),
			})
		}
	}

	names := page.Names()
	for _, rule := range e.registry.Rules() {
		if !appliesTo(rule, names) {
			continue
		}
		if err := e.registry.Check(rule.ID, "", form); err != nil {
			fail(Failure{
				Label:   rule.Label,
				Rule:    rule.ID,
				Message: err.Error(),
			})
		}
	}
	return verdict
}

func appliesTo(rule validators.Rule, names map[string]struct{}) bool {
	for _, field := range rule.Fields {
		if _, ok := names[field]; ok {
			return true
		}
	}
	return false
}
