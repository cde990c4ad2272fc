package domain

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/types"
)

func testDomain() Domain {
	return Domain{
		Name:    "security",
		Version: "1.0",
		EntityTypes: []EntityTypeDefinition{
			{Name: "vulnerability", RequiredProperties: []string{"name"}, OptionalProperties: []string{"severity"}},
			{Name: "hostname", RequiredProperties: []string{"name"}},
		},
		RelationshipTypes: []RelationshipTypeDefinition{
			{
				Name:             "affects",
				ValidSourceTypes: []string{"vulnerability"},
				ValidTargetTypes: []string{"hostname"},
			},
		},
	}
}

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry(nil)

	require.NoError(t, reg.Register(testDomain()))

	d, ok := reg.Domain("security")
	require.True(t, ok)
	assert.Equal(t, "1.0", d.Version)
	assert.Len(t, d.EntityTypes, 2)
}

func TestRegistry_Register_IdempotentForIdenticalDefinition(t *testing.T) {
	reg := NewRegistry(nil)

	require.NoError(t, reg.Register(testDomain()))
	require.NoError(t, reg.Register(testDomain()))

	assert.Len(t, reg.Domains(), 1)
}

func TestRegistry_Register_ConflictOnDifferentVersion(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(testDomain()))

	changed := testDomain()
	changed.Version = "2.0"

	err := reg.Register(changed)
	require.Error(t, err)
	assert.Equal(t, types.DOMAIN_CONFLICT, types.CodeOf(err))

	// The original registration must be unaffected.
	d, ok := reg.Domain("security")
	require.True(t, ok)
	assert.Equal(t, "1.0", d.Version)
}

func TestRegistry_Register_ConflictOnChangedConstraints(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(testDomain()))

	changed := testDomain()
	changed.EntityTypes[0].RequiredProperties = []string{"name", "cve_id"}

	err := reg.Register(changed)
	require.Error(t, err)
	assert.Equal(t, types.DOMAIN_CONFLICT, types.CodeOf(err))
}

func TestRegistry_Register_ConflictOnTypeNameOwnedByOtherDomain(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(testDomain()))

	other := Domain{
		Name:    "inventory",
		Version: "1.0",
		EntityTypes: []EntityTypeDefinition{
			// "hostname" is already owned by the security domain.
			{Name: "hostname", RequiredProperties: []string{"fqdn"}},
		},
	}

	err := reg.Register(other)
	require.Error(t, err)
	assert.Equal(t, types.DOMAIN_CONFLICT, types.CodeOf(err))
	assert.NotContains(t, reg.Domains(), "inventory")
}

func TestRegistry_Unregister(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(testDomain()))

	require.NoError(t, reg.Unregister("security"))
	_, ok := reg.Domain("security")
	assert.False(t, ok)

	// Type names are released, so another domain may claim them.
	other := Domain{
		Name:        "inventory",
		Version:     "1.0",
		EntityTypes: []EntityTypeDefinition{{Name: "hostname", RequiredProperties: []string{"fqdn"}}},
	}
	assert.NoError(t, reg.Register(other))
}

func TestRegistry_Unregister_NotFound(t *testing.T) {
	reg := NewRegistry(nil)

	err := reg.Unregister("missing")
	require.Error(t, err)
	assert.Equal(t, types.NOT_FOUND, types.CodeOf(err))
}

func TestRegistry_ValidateEntity(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(testDomain()))

	tests := []struct {
		name       string
		entityType string
		properties map[string]any
		wantErr    bool
	}{
		{
			name:       "all required present",
			entityType: "vulnerability",
			properties: map[string]any{"name": "CVE-2021-44228"},
			wantErr:    false,
		},
		{
			name:       "unknown keys allowed on open types",
			entityType: "vulnerability",
			properties: map[string]any{"name": "CVE-2021-44228", "exploit_available": true},
			wantErr:    false,
		},
		{
			name:       "missing required property",
			entityType: "vulnerability",
			properties: map[string]any{"severity": "critical"},
			wantErr:    true,
		},
		{
			name:       "nil required property",
			entityType: "vulnerability",
			properties: map[string]any{"name": nil},
			wantErr:    true,
		},
		{
			name:       "unregistered type",
			entityType: "malware_sample",
			properties: map[string]any{"name": "x"},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.ValidateEntity("security", tt.entityType, tt.properties)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, types.VALIDATION_FAILED, types.CodeOf(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRegistry_ValidateEntity_ClosedTypeRejectsUnknownKeys(t *testing.T) {
	reg := NewRegistry(nil)
	d := Domain{
		Name:    "audit",
		Version: "1.0",
		EntityTypes: []EntityTypeDefinition{
			{
				Name:               "audit_event",
				RequiredProperties: []string{"action"},
				OptionalProperties: []string{"actor"},
				Closed:             true,
			},
		},
	}
	require.NoError(t, reg.Register(d))

	assert.NoError(t, reg.ValidateEntity("audit", "audit_event", map[string]any{"action": "login", "actor": "svc"}))

	err := reg.ValidateEntity("audit", "audit_event", map[string]any{"action": "login", "extra": 1})
	require.Error(t, err)
	assert.Equal(t, types.VALIDATION_FAILED, types.CodeOf(err))
}

func TestRegistry_ValidateRelationship(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(testDomain()))

	assert.NoError(t, reg.ValidateRelationship("security", "affects", "vulnerability", "hostname"))

	err := reg.ValidateRelationship("security", "affects", "hostname", "vulnerability")
	require.Error(t, err)
	assert.Equal(t, types.VALIDATION_FAILED, types.CodeOf(err))

	err = reg.ValidateRelationship("security", "resolves_to", "hostname", "hostname")
	require.Error(t, err)
	assert.Equal(t, types.VALIDATION_FAILED, types.CodeOf(err))
}

func TestRegistry_ConcurrentReadersDuringRegistration(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(testDomain()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				// Readers must always see the security domain fully registered.
				require.NoError(t, reg.ValidateEntity("security", "vulnerability",
					map[string]any{"name": "CVE-2024-0001"}))
			}
		}()
	}

	for i := 0; i < 20; i++ {
		d := Domain{
			Name:        fmt.Sprintf("extra_%d", i),
			Version:     "1.0",
			EntityTypes: []EntityTypeDefinition{{Name: fmt.Sprintf("extra_type_%d", i), RequiredProperties: []string{"name"}}},
		}
		require.NoError(t, reg.Register(d))
	}
	wg.Wait()
}

func TestValidateDefinition_RejectsMalformedDomains(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Domain)
	}{
		{"empty name", func(d *Domain) { d.Name = "" }},
		{"uppercase name", func(d *Domain) { d.Name = "Security" }},
		{"missing version", func(d *Domain) { d.Version = "" }},
		{"malformed version", func(d *Domain) { d.Version = "v1" }},
		{"no entity types", func(d *Domain) { d.EntityTypes = nil }},
		{"duplicate entity type", func(d *Domain) {
			d.EntityTypes = append(d.EntityTypes, d.EntityTypes[0])
		}},
		{"relationship references unknown source", func(d *Domain) {
			d.RelationshipTypes[0].ValidSourceTypes = []string{"ghost"}
		}},
		{"relationship references unknown target", func(d *Domain) {
			d.RelationshipTypes[0].ValidTargetTypes = []string{"ghost"}
		}},
		{"property both required and optional", func(d *Domain) {
			d.EntityTypes[0].OptionalProperties = []string{"name"}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testDomain()
			tt.mutate(&d)
			err := ValidateDefinition(&d)
			require.Error(t, err)
			assert.Equal(t, types.VALIDATION_FAILED, types.CodeOf(err))
		})
	}
}

func TestDomain_Equal_IgnoresOrderingAndMetadata(t *testing.T) {
	a := testDomain()
	b := testDomain()
	b.Metadata.Description = "different metadata"
	b.EntityTypes[0], b.EntityTypes[1] = b.EntityTypes[1], b.EntityTypes[0]

	assert.True(t, a.Equal(&b))
}

func TestRegistry_RegisterErrorIsUnwrappable(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(testDomain()))

	changed := testDomain()
	changed.Version = "9.9"
	err := reg.Register(changed)

	var platformErr *types.PlatformError
	require.True(t, errors.As(err, &platformErr))
	assert.False(t, platformErr.Retryable)
}
