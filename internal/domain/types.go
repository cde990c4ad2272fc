// Package domain provides the YAML-driven domain registration system for the
// knowledge-graph engine. A domain is a named, versioned namespace owning a
// set of entity and relationship type definitions. Domains are registered at
// process start or on demand; newly registered domains become visible to
// in-flight callers the instant registration completes, with no process
// restart.
package domain

import "sort"

// Metadata contains descriptive information about a domain module.
type Metadata struct {
	Description string `yaml:"description"`
	Author      string `yaml:"author,omitempty"`
	UpdatedAt   string `yaml:"updated_at,omitempty"`
}

// EntityTypeDefinition defines an entity type owned by a domain.
// Definitions are immutable once registered; re-registering the same name
// with different constraints is a conflict.
type EntityTypeDefinition struct {
	Name               string   `yaml:"name"`
	Description        string   `yaml:"description,omitempty"`
	RequiredProperties []string `yaml:"required_properties"`
	OptionalProperties []string `yaml:"optional_properties,omitempty"`
	// Closed rejects unknown property keys at validation time.
	// The default is open: unknown keys are accepted.
	Closed bool `yaml:"closed,omitempty"`
}

// RelationshipTypeDefinition defines a relationship type owned by a domain.
// Source and target type constraints are enforced on every edge creation.
type RelationshipTypeDefinition struct {
	Name             string   `yaml:"name"`
	Description      string   `yaml:"description,omitempty"`
	ValidSourceTypes []string `yaml:"valid_source_types"`
	ValidTargetTypes []string `yaml:"valid_target_types"`
	Properties       []string `yaml:"properties,omitempty"`
}

// Domain is the unit of registration: a named, versioned namespace of entity
// and relationship type definitions.
type Domain struct {
	Name              string                       `yaml:"name"`
	Version           string                       `yaml:"version"`
	Metadata          Metadata                     `yaml:"metadata,omitempty"`
	EntityTypes       []EntityTypeDefinition       `yaml:"entity_types"`
	RelationshipTypes []RelationshipTypeDefinition `yaml:"relationship_types,omitempty"`
}

// DomainFile represents the structure of a domain module YAML file.
// A file may declare multiple domains.
type DomainFile struct {
	Domains []Domain `yaml:"domains"`
}

// EntityType returns the entity type definition with the given name, if present.
func (d *Domain) EntityType(name string) (*EntityTypeDefinition, bool) {
	for i := range d.EntityTypes {
		if d.EntityTypes[i].Name == name {
			return &d.EntityTypes[i], true
		}
	}
	return nil, false
}

// RelationshipType returns the relationship type definition with the given name, if present.
func (d *Domain) RelationshipType(name string) (*RelationshipTypeDefinition, bool) {
	for i := range d.RelationshipTypes {
		if d.RelationshipTypes[i].Name == name {
			return &d.RelationshipTypes[i], true
		}
	}
	return nil, false
}

// Equal reports whether two entity type definitions carry identical constraints.
// Used to make registration idempotent: same name + same definition is a no-op.
func (e EntityTypeDefinition) Equal(other EntityTypeDefinition) bool {
	return e.Name == other.Name &&
		e.Closed == other.Closed &&
		equalStringSets(e.RequiredProperties, other.RequiredProperties) &&
		equalStringSets(e.OptionalProperties, other.OptionalProperties)
}

// Equal reports whether two relationship type definitions carry identical constraints.
func (r RelationshipTypeDefinition) Equal(other RelationshipTypeDefinition) bool {
	return r.Name == other.Name &&
		equalStringSets(r.ValidSourceTypes, other.ValidSourceTypes) &&
		equalStringSets(r.ValidTargetTypes, other.ValidTargetTypes) &&
		equalStringSets(r.Properties, other.Properties)
}

// Equal reports whether two domains are structurally identical.
// Metadata is descriptive only and does not participate in equality.
func (d *Domain) Equal(other *Domain) bool {
	if d.Name != other.Name || d.Version != other.Version {
		return false
	}
	if len(d.EntityTypes) != len(other.EntityTypes) ||
		len(d.RelationshipTypes) != len(other.RelationshipTypes) {
		return false
	}
	for _, et := range d.EntityTypes {
		otherET, ok := other.EntityType(et.Name)
		if !ok || !et.Equal(*otherET) {
			return false
		}
	}
	for _, rt := range d.RelationshipTypes {
		otherRT, ok := other.RelationshipType(rt.Name)
		if !ok || !rt.Equal(*otherRT) {
			return false
		}
	}
	return true
}

// equalStringSets compares two string slices as sets, ignoring order and duplicates.
func equalStringSets(a, b []string) bool {
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	as = dedupSorted(as)
	bs = dedupSorted(bs)
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func dedupSorted(s []string) []string {
	out := s[:0]
	for i, v := range s {
		if i == 0 || s[i-1] != v {
			out = append(out, v)
		}
	}
	return out
}
