package domain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_LoadBuiltin(t *testing.T) {
	domains, err := NewLoader().LoadBuiltin()
	require.NoError(t, err)
	require.NotEmpty(t, domains)

	var security *Domain
	for i := range domains {
		if domains[i].Name == "security" {
			security = &domains[i]
		}
	}
	require.NotNil(t, security, "builtin modules must include the security domain")

	vuln, ok := security.EntityType("vulnerability")
	require.True(t, ok)
	assert.Contains(t, vuln.RequiredProperties, "name")

	affects, ok := security.RelationshipType("affects")
	require.True(t, ok)
	assert.Contains(t, affects.ValidSourceTypes, "vulnerability")
}

func TestLoader_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "devtools.yaml")
	content := `
domains:
  - name: devtools
    version: "1.0"
    entity_types:
      - name: issue
        required_properties: [title]
      - name: commit
        required_properties: [sha]
    relationship_types:
      - name: implements
        valid_source_types: [issue]
        valid_target_types: [commit]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	domains, err := NewLoader().LoadFile(path)
	require.NoError(t, err)
	require.Len(t, domains, 1)
	assert.Equal(t, "devtools", domains[0].Name)

	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(domains[0]))
	assert.NoError(t, reg.ValidateRelationship("devtools", "implements", "issue", "commit"))
}

func TestLoader_LoadFile_RejectsMalformedModule(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"not yaml", "{{{"},
		{"no domains", "domains: []"},
		{"invalid definition", `
domains:
  - name: broken
    version: "1.0"
    entity_types: []
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := NewLoader().LoadFile(path)
			assert.Error(t, err)
		})
	}
}

func TestRegisterBuiltin(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, RegisterBuiltin(reg))
	assert.Contains(t, reg.Domains(), "security")

	// Startup registration must be idempotent.
	require.NoError(t, RegisterBuiltin(reg))
}
