package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/domain"
)

// securityFixture builds a registry with the builtin security domain and
// builtin pattern set loaded.
func securityFixture(t *testing.T) *Registry {
	t.Helper()

	domains := domain.NewRegistry(nil)
	require.NoError(t, domain.RegisterBuiltin(domains))

	reg := NewRegistry(domains, nil)
	require.NoError(t, LoadBuiltin(reg))
	return reg
}

func TestDetect_CVEReference(t *testing.T) {
	reg := securityFixture(t)

	matches := reg.Snapshot().Detect("CVE-2021-44228 is critical", []string{"security"}, 0.5)

	require.Len(t, matches, 1)
	m := matches[0]
	assert.Equal(t, "vulnerability", m.Type)
	assert.Equal(t, "security", m.Domain)
	assert.Equal(t, "CVE-2021-44228", m.Properties["name"])
	// severity_context triggers on "critical" and boosts the base 0.95.
	assert.GreaterOrEqual(t, m.Confidence, 0.95)
	assert.LessOrEqual(t, m.Confidence, 1.0)
}

func TestDetect_MinConfidenceFiltersMatches(t *testing.T) {
	reg := securityFixture(t)
	text := "the host app.example.com responded" // hostname base confidence 0.60

	require.NotEmpty(t, reg.Snapshot().Detect(text, []string{"security"}, 0.5))
	assert.Empty(t, reg.Snapshot().Detect(text, []string{"security"}, 0.9))
}

func TestDetect_NegativeFactorLowersConfidence(t *testing.T) {
	reg := securityFixture(t)

	boosted := reg.Snapshot().Detect("CVE-2024-1234 is critical", []string{"security"}, 0.0)
	dampened := reg.Snapshot().Detect("CVE-2024-1234 was patched", []string{"security"}, 0.0)

	require.Len(t, boosted, 1)
	require.Len(t, dampened, 1)
	assert.Greater(t, boosted[0].Confidence, dampened[0].Confidence)
	// 0.95 - 0.30 from negation_context.
	assert.InDelta(t, 0.65, dampened[0].Confidence, 1e-9)
}

func TestDetect_ConfidenceAlwaysWithinBounds(t *testing.T) {
	reg := securityFixture(t)

	texts := []string{
		"CVE-2021-44228 is critical and actively exploited",
		"CVE-2021-44228 was patched, false positive, not vulnerable",
		"192.168.0.1 resolves to nothing",
	}
	for _, text := range texts {
		for _, m := range reg.Snapshot().Detect(text, []string{"security"}, 0.0) {
			assert.GreaterOrEqual(t, m.Confidence, 0.0, "text %q match %q", text, m.Pattern)
			assert.LessOrEqual(t, m.Confidence, 1.0, "text %q match %q", text, m.Pattern)
		}
	}
}

func TestDetect_RelationshipRequiresBothEndpoints(t *testing.T) {
	reg := securityFixture(t)

	// Both endpoints present: vulnerability + hostname.
	withBoth := reg.Snapshot().Detect(
		"CVE-2021-44228 affects logging.example.com", []string{"security"}, 0.5)
	var rels []ScoredMatch
	for _, m := range withBoth {
		if m.Category == CategoryRelationship {
			rels = append(rels, m)
		}
	}
	require.Len(t, rels, 1)
	assert.Equal(t, "affects", rels[0].Type)
	require.NotNil(t, rels[0].Source)
	require.NotNil(t, rels[0].Target)
	assert.Equal(t, "vulnerability", rels[0].Source.Type)
	assert.Equal(t, "hostname", rels[0].Target.Type)

	// Target endpoint absent: relationship candidate is dropped, not retried.
	withoutTarget := reg.Snapshot().Detect("CVE-2021-44228 affects the fleet", []string{"security"}, 0.5)
	for _, m := range withoutTarget {
		assert.NotEqual(t, CategoryRelationship, m.Category)
	}
}

func TestDetect_DeduplicatesSameTypeSameSpan(t *testing.T) {
	domains := domain.NewRegistry(nil)
	require.NoError(t, domains.Register(domain.Domain{
		Name:        "dedup",
		Version:     "1.0",
		EntityTypes: []domain.EntityTypeDefinition{{Name: "token", RequiredProperties: []string{"name"}}},
	}))

	reg := NewRegistry(domains, nil)
	require.NoError(t, reg.Register(Definition{
		Name: "low", Category: CategoryEntity, Domain: "dedup",
		Matcher: `tok-\d+`, Produces: "token", BaseConfidence: 0.4,
	}))
	require.NoError(t, reg.Register(Definition{
		Name: "high", Category: CategoryEntity, Domain: "dedup",
		Matcher: `tok-\d+`, Produces: "token", BaseConfidence: 0.9,
	}))

	matches := reg.Snapshot().Detect("found tok-17 here", []string{"dedup"}, 0.0)
	require.Len(t, matches, 1)
	assert.Equal(t, "high", matches[0].Pattern)
	assert.InDelta(t, 0.9, matches[0].Confidence, 1e-9)
}

func TestDetect_IgnoresOtherDomains(t *testing.T) {
	reg := securityFixture(t)

	assert.Empty(t, reg.Snapshot().Detect("CVE-2021-44228", []string{"inventory"}, 0.0))
	assert.Empty(t, reg.Snapshot().Detect("CVE-2021-44228", nil, 0.0))
}

func TestDetect_NamedCaptureGroupsBecomeProperties(t *testing.T) {
	domains := domain.NewRegistry(nil)
	require.NoError(t, domains.Register(domain.Domain{
		Name:    "net",
		Version: "1.0",
		EntityTypes: []domain.EntityTypeDefinition{
			{Name: "endpoint", RequiredProperties: []string{"host", "port"}},
		},
	}))

	reg := NewRegistry(domains, nil)
	require.NoError(t, reg.Register(Definition{
		Name:           "endpoint_ref",
		Category:       CategoryEntity,
		Domain:         "net",
		Matcher:        `(?P<host>[a-z.]+):(?P<port>\d+)`,
		Produces:       "endpoint",
		BaseConfidence: 0.8,
	}))

	matches := reg.Snapshot().Detect("listening on db.internal:5432 now", []string{"net"}, 0.5)
	require.Len(t, matches, 1)
	assert.Equal(t, "db.internal", matches[0].Properties["host"])
	assert.Equal(t, "5432", matches[0].Properties["port"])
}

func TestDetect_SnapshotIsolation(t *testing.T) {
	reg := securityFixture(t)
	snap := reg.Snapshot()

	// A pattern registered after the snapshot must not affect it, but must be
	// visible to the next snapshot without any restart.
	require.NoError(t, reg.Register(Definition{
		Name:           "cwe_reference",
		Category:       CategoryEntity,
		Domain:         "security",
		Matcher:        `CWE-\d+`,
		Produces:       "vulnerability",
		BaseConfidence: 0.9,
	}))

	assert.Empty(t, snap.Detect("CWE-79", []string{"security"}, 0.5))
	assert.Len(t, reg.Snapshot().Detect("CWE-79", []string{"security"}, 0.5), 1)
}

func TestDetect_DeterministicOutput(t *testing.T) {
	reg := securityFixture(t)
	text := "CVE-2020-1472 affects dc01.corp.example.com which resolves to 10.0.0.5, contact soc@example.com"

	first := reg.Snapshot().Detect(text, []string{"security"}, 0.3)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, reg.Snapshot().Detect(text, []string{"security"}, 0.3))
	}
}
