// Package pattern provides the pattern-detection and confidence-scoring
// pipeline that turns unstructured text into typed entity and relationship
// candidates. Detection is a pure function of (text, registry snapshot): it
// performs no I/O, so accuracy is unit-testable without a storage engine, and
// persistence of accepted candidates is entirely the caller's decision.
//
// Matchers are compiled with Go's regexp package (RE2). RE2 has no
// backtracking, so scan time stays proportional to pattern count times
// document length even on adversarial input.
package pattern

import (
	"fmt"
	"regexp"
)

// Category classifies what a pattern produces.
type Category string

const (
	// CategoryEntity patterns produce entity candidates.
	CategoryEntity Category = "ENTITY"
	// CategoryRelationship patterns produce relationship candidates between
	// two entity matches found in the same document.
	CategoryRelationship Category = "RELATIONSHIP"
	// CategoryContext patterns produce no candidates of their own; they mark
	// spans that confidence factors can key off.
	CategoryContext Category = "CONTEXT"
)

// String returns the string representation of Category.
func (c Category) String() string {
	return string(c)
}

// IsValid checks if the Category is a valid value.
func (c Category) IsValid() bool {
	switch c {
	case CategoryEntity, CategoryRelationship, CategoryContext:
		return true
	default:
		return false
	}
}

// Definition declares a detection rule: a text pattern that proposes a
// candidate entity or relationship of a registered type.
type Definition struct {
	Name     string   `yaml:"name"`
	Category Category `yaml:"category"`
	Domain   string   `yaml:"domain"`

	// Matcher is the regular expression source. It is compiled at
	// registration time; a malformed expression fails registration with
	// PATTERN_COMPILE_FAILED and can never reach a live detection call.
	Matcher string `yaml:"matcher"`

	// Produces names the entity or relationship type the pattern emits.
	Produces string `yaml:"produces"`

	// BaseConfidence is the pattern's confidence before contextual factors,
	// in [0, 1].
	BaseConfidence float64 `yaml:"base_confidence"`

	// Property names the property that receives the matched text for entity
	// patterns. Defaults to "name". Named capture groups in the matcher
	// override this: each group becomes a property keyed by the group name.
	Property string `yaml:"property,omitempty"`

	// SourceType and TargetType name the entity types a RELATIONSHIP pattern
	// connects. A relationship candidate is emitted only when the match set
	// contains at least one accepted entity match of each type.
	SourceType string `yaml:"source_type,omitempty"`
	TargetType string `yaml:"target_type,omitempty"`
}

// Factor is a contextual rule that adjusts a pattern's base confidence.
// The trigger is evaluated against a fixed-size character window around the
// match span; a triggered factor adds its weight (which may be negative),
// with the final score clamped to [0, 1].
type Factor struct {
	Name   string  `yaml:"name"`
	Weight float64 `yaml:"weight"`

	// Trigger is the regular expression evaluated against the context window.
	Trigger string `yaml:"trigger"`

	// Domain scopes the factor to patterns of one domain. Empty applies to all.
	Domain string `yaml:"domain,omitempty"`

	compiled *regexp.Regexp
}

// Span marks a half-open [Start, End) byte range in the scanned text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// String returns the span in "[start,end)" form.
func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// Overlaps reports whether two spans share at least one byte.
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

// ScoredMatch is one accepted detection candidate.
type ScoredMatch struct {
	Pattern    string         `json:"pattern"`
	Category   Category       `json:"category"`
	Type       string         `json:"type"`
	Domain     string         `json:"domain"`
	Span       Span           `json:"span"`
	Text       string         `json:"text"`
	Properties map[string]any `json:"properties"`
	Confidence float64        `json:"confidence"`

	// Source and Target are set on RELATIONSHIP matches: the entity matches
	// the relationship connects.
	Source *ScoredMatch `json:"source,omitempty"`
	Target *ScoredMatch `json:"target,omitempty"`
}

// PatternFile represents the structure of a pattern module YAML file.
type PatternFile struct {
	Patterns []Definition `yaml:"patterns"`
	Factors  []Factor     `yaml:"factors,omitempty"`
}
