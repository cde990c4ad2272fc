package pattern

import (
	"sort"
)

// Detect scans text with every active pattern whose domain is in the
// requested set and returns the accepted candidates:
//
//  1. Each pattern's matcher is run over the full text.
//  2. Each raw match is scored: base confidence plus every triggered
//     confidence factor, clamped to [0, 1].
//  3. Matches below minConfidence are discarded.
//  4. Overlapping matches producing the same type at the same span are
//     deduplicated, keeping the highest confidence (registration order breaks
//     ties).
//  5. Relationship patterns emit a candidate only when the accepted entity
//     set contains a match for both the source and target type; otherwise the
//     candidate is dropped, not retried.
//
// Detect performs no I/O and never fails outright: a low-confidence or
// endpoint-less candidate degrades to omission. Results are ordered by span
// start, then end, then produced type, so output is deterministic.
func (s *Snapshot) Detect(text string, domains []string, minConfidence float64) []ScoredMatch {
	var entityMatches []ScoredMatch
	var relationshipPatterns []relationshipHit

	for _, domainName := range domains {
		for _, cp := range s.byDomain[domainName] {
			factors := s.factorsFor(domainName)
			switch cp.def.Category {
			case CategoryEntity:
				entityMatches = append(entityMatches, s.matchEntity(cp, text, factors, minConfidence)...)
			case CategoryRelationship:
				relationshipPatterns = append(relationshipPatterns, s.matchRelationship(cp, text, factors, minConfidence)...)
			case CategoryContext:
				// Context patterns contribute through factors only.
			}
		}
	}

	entityMatches = dedupe(entityMatches)

	// Relationship candidates require both endpoints in the accepted set.
	byType := make(map[string]*ScoredMatch)
	for i := range entityMatches {
		m := &entityMatches[i]
		if existing, ok := byType[m.Type]; !ok || m.Confidence > existing.Confidence {
			byType[m.Type] = m
		}
	}

	var relationships []ScoredMatch
	for _, hit := range relationshipPatterns {
		source, okSrc := byType[hit.def.SourceType]
		target, okDst := byType[hit.def.TargetType]
		if !okSrc || !okDst {
			continue
		}
		m := hit.match
		m.Source = source
		m.Target = target
		relationships = append(relationships, m)
	}
	relationships = dedupe(relationships)

	out := append(entityMatches, relationships...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Span.Start != out[j].Span.Start {
			return out[i].Span.Start < out[j].Span.Start
		}
		if out[i].Span.End != out[j].Span.End {
			return out[i].Span.End < out[j].Span.End
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// relationshipHit is a scored relationship match waiting for endpoint resolution.
type relationshipHit struct {
	def   Definition
	match ScoredMatch
}

// matchEntity runs one entity pattern over the text.
func (s *Snapshot) matchEntity(cp *compiledPattern, text string, factors []Factor, minConfidence float64) []ScoredMatch {
	var out []ScoredMatch
	for _, loc := range cp.matcher.FindAllStringSubmatchIndex(text, -1) {
		span := Span{Start: loc[0], End: loc[1]}
		confidence := Score(cp.def.BaseConfidence, contextWindow(text, span), factors)
		if confidence < minConfidence {
			continue
		}

		out = append(out, ScoredMatch{
			Pattern:    cp.def.Name,
			Category:   CategoryEntity,
			Type:       cp.def.Produces,
			Domain:     cp.def.Domain,
			Span:       span,
			Text:       text[span.Start:span.End],
			Properties: extractProperties(cp, text, loc),
			Confidence: confidence,
		})
	}
	return out
}

// matchRelationship runs one relationship pattern over the text.
func (s *Snapshot) matchRelationship(cp *compiledPattern, text string, factors []Factor, minConfidence float64) []relationshipHit {
	var out []relationshipHit
	for _, loc := range cp.matcher.FindAllStringSubmatchIndex(text, -1) {
		span := Span{Start: loc[0], End: loc[1]}
		confidence := Score(cp.def.BaseConfidence, contextWindow(text, span), factors)
		if confidence < minConfidence {
			continue
		}

		out = append(out, relationshipHit{
			def: cp.def,
			match: ScoredMatch{
				Pattern:    cp.def.Name,
				Category:   CategoryRelationship,
				Type:       cp.def.Produces,
				Domain:     cp.def.Domain,
				Span:       span,
				Text:       text[span.Start:span.End],
				Properties: extractProperties(cp, text, loc),
				Confidence: confidence,
			},
		})
	}
	return out
}

// extractProperties builds the candidate's property map from the match.
// Named capture groups each become a property; otherwise the whole match text
// is assigned to the pattern's Property field (default "name").
func extractProperties(cp *compiledPattern, text string, loc []int) map[string]any {
	props := make(map[string]any)

	named := false
	for i, groupName := range cp.matcher.SubexpNames() {
		if groupName == "" || 2*i+1 >= len(loc) || loc[2*i] < 0 {
			continue
		}
		props[groupName] = text[loc[2*i]:loc[2*i+1]]
		named = true
	}

	if !named {
		key := cp.def.Property
		if key == "" {
			key = "name"
		}
		props[key] = text[loc[0]:loc[1]]
	}
	return props
}

// factorsFor returns the factors applicable to a domain: global factors plus
// factors scoped to that domain.
func (s *Snapshot) factorsFor(domainName string) []Factor {
	var out []Factor
	for _, f := range s.factors {
		if f.Domain == "" || f.Domain == domainName {
			out = append(out, f)
		}
	}
	return out
}

// dedupe collapses matches producing the same type at the identical span,
// keeping the highest confidence. Input order (registration then text order)
// breaks ties, so the first-registered pattern's match wins an exact tie.
func dedupe(matches []ScoredMatch) []ScoredMatch {
	type key struct {
		typ  string
		span Span
	}
	best := make(map[key]int)
	var out []ScoredMatch
	for _, m := range matches {
		k := key{typ: m.Type, span: m.Span}
		if idx, ok := best[k]; ok {
			if m.Confidence > out[idx].Confidence {
				out[idx] = m
			}
			continue
		}
		best[k] = len(out)
		out = append(out, m)
	}
	return out
}
