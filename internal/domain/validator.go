package domain

import (
	"fmt"
	"regexp"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/types"
)

// Domain, entity, and relationship type names share the same shape:
// lowercase snake_case, starting with a letter.
var nameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// versionRegex accepts semantic-version-ish strings ("1.0", "1.0.0", "2.1.3").
var versionRegex = regexp.MustCompile(`^\d+\.\d+(\.\d+)?$`)

// ValidateDefinition checks a domain definition for structural correctness
// before registration: well-formed names, a version, no duplicate type names
// within the domain, and relationship endpoint types that resolve to entity
// types declared by the same domain.
func ValidateDefinition(d *Domain) error {
	if d.Name == "" {
		return types.NewError(types.VALIDATION_FAILED, "domain name is required")
	}
	if !nameRegex.MatchString(d.Name) {
		return types.NewError(types.VALIDATION_FAILED,
			fmt.Sprintf("domain name %q must be lowercase snake_case", d.Name))
	}
	if d.Version == "" {
		return types.NewError(types.VALIDATION_FAILED,
			fmt.Sprintf("domain %q must declare a version", d.Name))
	}
	if !versionRegex.MatchString(d.Version) {
		return types.NewError(types.VALIDATION_FAILED,
			fmt.Sprintf("domain %q has malformed version %q", d.Name, d.Version))
	}
	if len(d.EntityTypes) == 0 {
		return types.NewError(types.VALIDATION_FAILED,
			fmt.Sprintf("domain %q must declare at least one entity type", d.Name))
	}

	entityNames := make(map[string]bool, len(d.EntityTypes))
	for _, et := range d.EntityTypes {
		if err := validateEntityType(d.Name, &et); err != nil {
			return err
		}
		if entityNames[et.Name] {
			return types.NewError(types.VALIDATION_FAILED,
				fmt.Sprintf("domain %q declares entity type %q more than once", d.Name, et.Name))
		}
		entityNames[et.Name] = true
	}

	relNames := make(map[string]bool, len(d.RelationshipTypes))
	for _, rt := range d.RelationshipTypes {
		if err := validateRelationshipType(d.Name, &rt, entityNames); err != nil {
			return err
		}
		if relNames[rt.Name] {
			return types.NewError(types.VALIDATION_FAILED,
				fmt.Sprintf("domain %q declares relationship type %q more than once", d.Name, rt.Name))
		}
		relNames[rt.Name] = true
	}

	return nil
}

func validateEntityType(domainName string, et *EntityTypeDefinition) error {
	if et.Name == "" {
		return types.NewError(types.VALIDATION_FAILED,
			fmt.Sprintf("domain %q declares an entity type with no name", domainName))
	}
	if !nameRegex.MatchString(et.Name) {
		return types.NewError(types.VALIDATION_FAILED,
			fmt.Sprintf("entity type %q must be lowercase snake_case", et.Name))
	}

	seen := make(map[string]bool, len(et.RequiredProperties))
	for _, p := range et.RequiredProperties {
		if p == "" {
			return types.NewError(types.VALIDATION_FAILED,
				fmt.Sprintf("entity type %q declares an empty required property", et.Name))
		}
		seen[p] = true
	}
	for _, p := range et.OptionalProperties {
		if seen[p] {
			return types.NewError(types.VALIDATION_FAILED,
				fmt.Sprintf("entity type %q declares property %q as both required and optional", et.Name, p))
		}
	}
	return nil
}

func validateRelationshipType(domainName string, rt *RelationshipTypeDefinition, entityNames map[string]bool) error {
	if rt.Name == "" {
		return types.NewError(types.VALIDATION_FAILED,
			fmt.Sprintf("domain %q declares a relationship type with no name", domainName))
	}
	if !nameRegex.MatchString(rt.Name) {
		return types.NewError(types.VALIDATION_FAILED,
			fmt.Sprintf("relationship type %q must be lowercase snake_case", rt.Name))
	}
	if len(rt.ValidSourceTypes) == 0 {
		return types.NewError(types.VALIDATION_FAILED,
			fmt.Sprintf("relationship type %q must declare valid_source_types", rt.Name))
	}
	if len(rt.ValidTargetTypes) == 0 {
		return types.NewError(types.VALIDATION_FAILED,
			fmt.Sprintf("relationship type %q must declare valid_target_types", rt.Name))
	}

	// Endpoint constraints must reference entity types declared by the same
	// domain; cross-domain relationships are expressed by registering the
	// relationship in the domain that owns both endpoint types.
	for _, src := range rt.ValidSourceTypes {
		if !entityNames[src] {
			return types.NewError(types.VALIDATION_FAILED,
				fmt.Sprintf("relationship type %q references unknown source entity type %q", rt.Name, src))
		}
	}
	for _, dst := range rt.ValidTargetTypes {
		if !entityNames[dst] {
			return types.NewError(types.VALIDATION_FAILED,
				fmt.Sprintf("relationship type %q references unknown target entity type %q", rt.Name, dst))
		}
	}
	return nil
}
