package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthStatusPredicates(t *testing.T) {
	h := Healthy("connected")
	assert.True(t, h.IsHealthy())
	assert.False(t, h.IsDegraded())
	assert.False(t, h.IsUnhealthy())
	assert.False(t, h.CheckedAt.IsZero())

	assert.True(t, Degraded("shadow backend down").IsDegraded())
	assert.True(t, Unhealthy("not connected").IsUnhealthy())
}

func TestHealthStatusJSON(t *testing.T) {
	data, err := json.Marshal(Unhealthy("driver not connected"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"state":"unhealthy"`)
	assert.Contains(t, string(data), `"message":"driver not connected"`)
}
