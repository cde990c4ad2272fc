package pattern

import (
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/domain"
	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/types"
)

// compiledPattern pairs a definition with its compiled matcher. Instances are
// immutable after registration and shared by snapshots.
type compiledPattern struct {
	def     Definition
	matcher *regexp.Regexp
	// seq is the registration order, used as the dedup tie-break.
	seq int
}

// Registry holds compiled detection rules and confidence factors, keyed by
// domain. Patterns and factors are owned by the registry instance; there is
// no package-level state, so tests and requests never couple through globals.
//
// Thread-safety: all methods are safe for concurrent use. Detection reads an
// immutable snapshot, so registration never blocks in-flight detection and a
// newly registered pattern is visible to the next Snapshot() call.
type Registry struct {
	mu       sync.RWMutex
	patterns []*compiledPattern
	byDomain map[string][]*compiledPattern
	byName   map[string]*compiledPattern
	factors  []Factor
	domains  domain.Registry
	logger   *slog.Logger
	nextSeq  int
}

// NewRegistry creates an empty pattern registry. The domain registry is
// consulted at registration time so a pattern can never produce a type its
// domain does not define. A nil logger defaults to slog.Default().
func NewRegistry(domains domain.Registry, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		byDomain: make(map[string][]*compiledPattern),
		byName:   make(map[string]*compiledPattern),
		domains:  domains,
		logger:   logger,
	}
}

// Register compiles and adds a pattern definition.
// A malformed matcher fails with PATTERN_COMPILE_FAILED here, at registration
// time, so a bad pattern cannot crash a live detection request. Registering an
// identical definition again is a no-op; changing an existing name is a conflict.
func (r *Registry) Register(def Definition) error {
	if err := r.validate(&def); err != nil {
		return err
	}

	matcher, err := regexp.Compile(def.Matcher)
	if err != nil {
		return types.WrapError(types.PATTERN_COMPILE_FAILED,
			fmt.Sprintf("pattern %q has a malformed matcher", def.Name), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byName[def.Name]; ok {
		if existing.def == def {
			return nil
		}
		return types.NewError(types.CONFLICT,
			fmt.Sprintf("pattern %q is already registered with a different definition", def.Name))
	}

	cp := &compiledPattern{def: def, matcher: matcher, seq: r.nextSeq}
	r.nextSeq++
	r.patterns = append(r.patterns, cp)
	r.byDomain[def.Domain] = append(r.byDomain[def.Domain], cp)
	r.byName[def.Name] = cp

	r.logger.Debug("registered pattern",
		"pattern", def.Name,
		"domain", def.Domain,
		"category", def.Category.String(),
		"produces", def.Produces)
	return nil
}

// RegisterFactor compiles and adds a confidence factor.
func (r *Registry) RegisterFactor(f Factor) error {
	if f.Name == "" {
		return types.NewError(types.VALIDATION_FAILED, "factor name is required")
	}
	if f.Trigger == "" {
		return types.NewError(types.VALIDATION_FAILED,
			fmt.Sprintf("factor %q must declare a trigger", f.Name))
	}

	compiled, err := regexp.Compile(f.Trigger)
	if err != nil {
		return types.WrapError(types.PATTERN_COMPILE_FAILED,
			fmt.Sprintf("factor %q has a malformed trigger", f.Name), err)
	}
	f.compiled = compiled

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.factors {
		if existing.Name == f.Name {
			if existing.Weight == f.Weight && existing.Trigger == f.Trigger && existing.Domain == f.Domain {
				return nil
			}
			return types.NewError(types.CONFLICT,
				fmt.Sprintf("factor %q is already registered with a different definition", f.Name))
		}
	}

	r.factors = append(r.factors, f)
	r.logger.Debug("registered confidence factor", "factor", f.Name, "weight", f.Weight)
	return nil
}

// EvictDomain removes every pattern and factor owned by a domain. Callers
// unregistering a domain evict its rules afterwards so a stale pattern can
// never produce a type that no longer exists.
func (r *Registry) EvictDomain(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := r.byDomain[name]
	if len(evicted) == 0 && !factorsReference(r.factors, name) {
		return
	}
	delete(r.byDomain, name)
	for _, cp := range evicted {
		delete(r.byName, cp.def.Name)
	}

	kept := r.patterns[:0]
	for _, cp := range r.patterns {
		if cp.def.Domain != name {
			kept = append(kept, cp)
		}
	}
	r.patterns = kept

	keptFactors := r.factors[:0]
	for _, f := range r.factors {
		if f.Domain != name {
			keptFactors = append(keptFactors, f)
		}
	}
	r.factors = keptFactors

	r.logger.Debug("evicted domain patterns", "domain", name, "patterns", len(evicted))
}

func factorsReference(factors []Factor, domain string) bool {
	for _, f := range factors {
		if f.Domain == domain {
			return true
		}
	}
	return false
}

// ByDomain returns the patterns registered for a domain, in registration order.
func (r *Registry) ByDomain(name string) []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	compiled := r.byDomain[name]
	defs := make([]Definition, 0, len(compiled))
	for _, cp := range compiled {
		defs = append(defs, cp.def)
	}
	return defs
}

// Factors returns the registered confidence factors.
func (r *Registry) Factors() []Factor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Factor, len(r.factors))
	copy(out, r.factors)
	return out
}

// Snapshot captures the current pattern and factor set for detection.
// The snapshot is immutable: registrations after this call do not affect it,
// so concurrent readers never observe a partially registered domain's rules.
type Snapshot struct {
	byDomain map[string][]*compiledPattern
	factors  []Factor
}

// Snapshot returns an immutable view of the registry.
func (r *Registry) Snapshot() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byDomain := make(map[string][]*compiledPattern, len(r.byDomain))
	for d, patterns := range r.byDomain {
		byDomain[d] = append([]*compiledPattern(nil), patterns...)
	}
	return &Snapshot{
		byDomain: byDomain,
		factors:  append([]Factor(nil), r.factors...),
	}
}

// validate checks a definition's structural fields against the domain registry.
func (r *Registry) validate(def *Definition) error {
	if def.Name == "" {
		return types.NewError(types.VALIDATION_FAILED, "pattern name is required")
	}
	if !def.Category.IsValid() {
		return types.NewError(types.VALIDATION_FAILED,
			fmt.Sprintf("pattern %q has invalid category %q", def.Name, def.Category))
	}
	if def.Matcher == "" {
		return types.NewError(types.VALIDATION_FAILED,
			fmt.Sprintf("pattern %q must declare a matcher", def.Name))
	}
	if def.BaseConfidence < 0 || def.BaseConfidence > 1 {
		return types.NewError(types.VALIDATION_FAILED,
			fmt.Sprintf("pattern %q base_confidence %v is outside [0,1]", def.Name, def.BaseConfidence))
	}
	if def.Domain == "" {
		return types.NewError(types.VALIDATION_FAILED,
			fmt.Sprintf("pattern %q must declare a domain", def.Name))
	}

	switch def.Category {
	case CategoryEntity:
		if def.Produces == "" {
			return types.NewError(types.VALIDATION_FAILED,
				fmt.Sprintf("entity pattern %q must declare what it produces", def.Name))
		}
		if r.domains != nil {
			if _, ok := r.domains.EntityType(def.Domain, def.Produces); !ok {
				return types.NewError(types.VALIDATION_FAILED,
					fmt.Sprintf("pattern %q produces entity type %q not registered for domain %q",
						def.Name, def.Produces, def.Domain))
			}
		}
	case CategoryRelationship:
		if def.Produces == "" || def.SourceType == "" || def.TargetType == "" {
			return types.NewError(types.VALIDATION_FAILED,
				fmt.Sprintf("relationship pattern %q must declare produces, source_type, and target_type", def.Name))
		}
		if r.domains != nil {
			if err := r.domains.ValidateRelationship(def.Domain, def.Produces, def.SourceType, def.TargetType); err != nil {
				return err
			}
		}
	case CategoryContext:
		// Context patterns produce nothing; Produces stays empty.
	}

	return nil
}
