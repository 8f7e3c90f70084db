package validators

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-intake/pkg/state"
	"github.com/goliatone/go-intake/pkg/visibility/expr"
)

var (
	// ErrInvalid wraps every validation failure.
	ErrInvalid = errors.New("invalid")
	// ErrPanicked marks a validator that panicked; the check counts as failed.
	ErrPanicked = errors.New("validator panicked")
)

// Form is the read-only view of the answers validators may consult.
// *state.Store satisfies it.
type Form interface {
	expr.Scope
	Get(name string) (state.Value, bool)
	Items(group string) []state.Item
}

// Validator checks one value, optionally against the rest of the form.
// Value-only validators ignore form.
type Validator interface {
	Validate(value string, form Form) error
}

// Func adapts a function into a Validator.
type Func func(value string, form Form) error

// Validate implements Validator.
func (f Func) Validate(value string, form Form) error { return f(value, form) }

// Rule is a cross-field invariant. It applies to a page declaring any of
// Fields and is registered as a validator under ID.
type Rule struct {
	ID     string
	Label  string
	Fields []string
}

// Factory builds validators for parameterised ids such as
// "iso_date>=pep_start". It reports ok=false for ids it does not handle.
type Factory func(id string) (Validator, bool)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger routes registry diagnostics to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock overrides the time source used by date validators.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// Registry maps validator ids to validators and holds the cross-field rules.
// Lookups are safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	validators map[string]Validator
	factories  []Factory
	rules      []Rule
	warned     map[string]struct{}
	logger     *zap.Logger
	now        func() time.Time
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	reg := &Registry{
		validators: make(map[string]Validator),
		warned:     make(map[string]struct{}),
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(reg)
		}
	}
	return reg
}

// Default returns a registry with every built-in validator and rule.
func Default(opts ...Option) *Registry {
	reg := NewRegistry(opts...)
	reg.registerBuiltins()
	reg.registerRules()
	return reg
}

// Register adds or replaces the validator for id.
func (r *Registry) Register(id string, v Validator) {
	id = strings.TrimSpace(id)
	if r == nil || id == "" || v == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validators[id] = v
}

// RegisterFactory adds a builder for parameterised ids.
func (r *Registry) RegisterFactory(f Factory) {
	if r == nil || f == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories = append(r.factories, f)
}

// RegisterRule adds a cross-field rule and its check.
func (r *Registry) RegisterRule(rule Rule, v Validator) {
	if r == nil || strings.TrimSpace(rule.ID) == "" || v == nil {
		return
	}
	r.Register(rule.ID, v)
	r.mu.Lock()
	defer r.mu.Unlock()
	for idx, existing := range r.rules {
		if existing.ID == rule.ID {
			r.rules[idx] = rule
			return
		}
	}
	r.rules = append(r.rules, rule)
}

// Lookup resolves id, consulting factories for parameterised ids.
func (r *Registry) Lookup(id string) (Validator, bool) {
	if r == nil {
		return nil, false
	}
	id = strings.TrimSpace(id)
	r.mu.RLock()
	v, ok := r.validators[id]
	factories := append([]Factory(nil), r.factories...)
	r.mu.RUnlock()
	if ok {
		return v, true
	}
	for _, factory := range factories {
		if built, ok := factory(id); ok {
			return built, true
		}
	}
	return nil, false
}

// Known reports whether id resolves. It matches schema.ValidatorKnown.
func (r *Registry) Known(id string) bool {
	_, ok := r.Lookup(id)
	return ok
}

// Names lists the registered static ids in lexical order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.validators))
	for name := range r.validators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Rules returns the cross-field rules in registration order.
func (r *Registry) Rules() []Rule {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Rule(nil), r.rules...)
}

// Check runs the validator registered under id. An unknown id is no
// constraint: it passes and is logged once as a catalog defect. A panicking
// validator fails the check.
func (r *Registry) Check(id, value string, form Form) (err error) {
	v, ok := r.Lookup(id)
	if !ok {
		r.warnUnknown(id)
		return nil
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			r.logger.Error("validator panicked",
				zap.String("validator", id),
				zap.Any("panic", recovered),
			)
			err = fmt.Errorf("%w: %s: %v", ErrPanicked, id, recovered)
		}
	}()
	return v.Validate(value, form)
}

// Now returns the registry clock reading.
func (r *Registry) Now() time.Time { return r.now() }

func (r *Registry) warnUnknown(id string) {
	r.mu.Lock()
	_, seen := r.warned[id]
	r.warned[id] = struct{}{}
	r.mu.Unlock()
	if !seen {
		r.logger.Warn("unknown validator id treated as no constraint", zap.String("validator", id))
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
