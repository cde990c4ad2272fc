package domain

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/types"
)

// Registry provides runtime access to registered domains and their entity and
// relationship type definitions. Registration is rare relative to read volume,
// so the implementation favors cheap concurrent reads.
//
// Thread-safety: all methods are safe for concurrent use. Readers never
// observe a partially registered domain; a domain is visible either fully or
// not at all.
type Registry interface {
	// Register adds a domain to the registry.
	// Registering an identical definition again is a no-op success, so
	// hot-reloading a domain module never errors on restart. Registering the
	// same name with a different version or different type definitions fails
	// with DOMAIN_CONFLICT, as does claiming an entity or relationship type
	// name already owned by a different domain.
	Register(d Domain) error

	// Unregister removes a domain and releases its type-name ownership.
	// Returns NOT_FOUND if the domain is not registered.
	Unregister(name string) error

	// Domain returns a registered domain by name.
	Domain(name string) (*Domain, bool)

	// Domains returns the names of all registered domains.
	Domains() []string

	// EntityType returns the entity type definition for (domain, name).
	EntityType(domain, name string) (*EntityTypeDefinition, bool)

	// RelationshipType returns the relationship type definition for (domain, name).
	RelationshipType(domain, name string) (*RelationshipTypeDefinition, bool)

	// ValidateEntity checks that entityType is registered for domain and that
	// all required properties are present and non-nil. Unknown property keys
	// are rejected only when the type definition is declared closed.
	ValidateEntity(domain, entityType string, properties map[string]any) error

	// ValidateRelationship checks that relType is registered for domain and
	// that the source and target entity types satisfy the definition's
	// valid_source_types and valid_target_types constraints.
	ValidateRelationship(domain, relType, sourceType, targetType string) error
}

// registry is the default Registry implementation.
type registry struct {
	mu      sync.RWMutex
	domains map[string]*Domain

	// Type names are a global namespace: each name is owned by exactly one
	// domain. These indices also give O(1) definition lookup.
	entityOwner map[string]string
	relOwner    map[string]string

	logger *slog.Logger
}

// NewRegistry creates an empty domain registry.
// A nil logger defaults to slog.Default().
func NewRegistry(logger *slog.Logger) Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &registry{
		domains:     make(map[string]*Domain),
		entityOwner: make(map[string]string),
		relOwner:    make(map[string]string),
		logger:      logger,
	}
}

// Register adds a domain to the registry.
func (r *registry) Register(d Domain) error {
	if err := ValidateDefinition(&d); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.domains[d.Name]; ok {
		if existing.Equal(&d) {
			// Identical re-registration is a no-op success.
			r.logger.Debug("domain already registered", "domain", d.Name, "version", d.Version)
			return nil
		}
		return types.WrapError(types.DOMAIN_CONFLICT,
			fmt.Sprintf("domain %q is already registered with version %s", d.Name, existing.Version),
			nil)
	}

	// Check the global type namespace before mutating anything so a conflict
	// leaves the registry untouched.
	for _, et := range d.EntityTypes {
		if owner, ok := r.entityOwner[et.Name]; ok && owner != d.Name {
			return types.NewError(types.DOMAIN_CONFLICT,
				fmt.Sprintf("entity type %q is already owned by domain %q", et.Name, owner))
		}
	}
	for _, rt := range d.RelationshipTypes {
		if owner, ok := r.relOwner[rt.Name]; ok && owner != d.Name {
			return types.NewError(types.DOMAIN_CONFLICT,
				fmt.Sprintf("relationship type %q is already owned by domain %q", rt.Name, owner))
		}
	}

	stored := d // copy; callers keep no aliased reference into the registry
	r.domains[d.Name] = &stored
	for _, et := range d.EntityTypes {
		r.entityOwner[et.Name] = d.Name
	}
	for _, rt := range d.RelationshipTypes {
		r.relOwner[rt.Name] = d.Name
	}

	r.logger.Info("registered domain",
		"domain", d.Name,
		"version", d.Version,
		"entity_types", len(d.EntityTypes),
		"relationship_types", len(d.RelationshipTypes))
	return nil
}

// Unregister removes a domain and releases its type-name ownership.
func (r *registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.domains[name]
	if !ok {
		return types.NewError(types.NOT_FOUND, fmt.Sprintf("domain %q is not registered", name))
	}

	for _, et := range d.EntityTypes {
		delete(r.entityOwner, et.Name)
	}
	for _, rt := range d.RelationshipTypes {
		delete(r.relOwner, rt.Name)
	}
	delete(r.domains, name)

	r.logger.Info("unregistered domain", "domain", name)
	return nil
}

// Domain returns a registered domain by name.
func (r *registry) Domain(name string) (*Domain, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.domains[name]
	if !ok {
		return nil, false
	}
	// Return a copy to prevent external modification
	dCopy := *d
	return &dCopy, true
}

// Domains returns the names of all registered domains.
func (r *registry) Domains() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.domains))
	for name := range r.domains {
		names = append(names, name)
	}
	return names
}

// EntityType returns the entity type definition for (domain, name).
func (r *registry) EntityType(domain, name string) (*EntityTypeDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.domains[domain]
	if !ok {
		return nil, false
	}
	def, ok := d.EntityType(name)
	if !ok {
		return nil, false
	}
	defCopy := *def
	return &defCopy, true
}

// RelationshipType returns the relationship type definition for (domain, name).
func (r *registry) RelationshipType(domain, name string) (*RelationshipTypeDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.domains[domain]
	if !ok {
		return nil, false
	}
	def, ok := d.RelationshipType(name)
	if !ok {
		return nil, false
	}
	defCopy := *def
	return &defCopy, true
}

// ValidateEntity checks type registration and the required-property contract.
func (r *registry) ValidateEntity(domain, entityType string, properties map[string]any) error {
	def, ok := r.EntityType(domain, entityType)
	if !ok {
		return types.NewError(types.VALIDATION_FAILED,
			fmt.Sprintf("entity type %q is not registered for domain %q", entityType, domain))
	}

	for _, required := range def.RequiredProperties {
		value, present := properties[required]
		if !present || value == nil {
			return types.NewError(types.VALIDATION_FAILED,
				fmt.Sprintf("entity type %q requires property %q", entityType, required))
		}
	}

	if def.Closed {
		allowed := make(map[string]bool, len(def.RequiredProperties)+len(def.OptionalProperties))
		for _, p := range def.RequiredProperties {
			allowed[p] = true
		}
		for _, p := range def.OptionalProperties {
			allowed[p] = true
		}
		for key := range properties {
			if !allowed[key] {
				return types.NewError(types.VALIDATION_FAILED,
					fmt.Sprintf("entity type %q is closed and does not allow property %q", entityType, key))
			}
		}
	}

	return nil
}

// ValidateRelationship enforces the source/target type constraints.
func (r *registry) ValidateRelationship(domain, relType, sourceType, targetType string) error {
	def, ok := r.RelationshipType(domain, relType)
	if !ok {
		return types.NewError(types.VALIDATION_FAILED,
			fmt.Sprintf("relationship type %q is not registered for domain %q", relType, domain))
	}

	if !containsString(def.ValidSourceTypes, sourceType) {
		return types.NewError(types.VALIDATION_FAILED,
			fmt.Sprintf("relationship type %q does not accept source type %q", relType, sourceType))
	}
	if !containsString(def.ValidTargetTypes, targetType) {
		return types.NewError(types.VALIDATION_FAILED,
			fmt.Sprintf("relationship type %q does not accept target type %q", relType, targetType))
	}

	return nil
}

func containsString(s []string, v string) bool {
	for _, item := range s {
		if item == v {
			return true
		}
	}
	return false
}
