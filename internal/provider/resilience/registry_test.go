package resilience_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segmentscout/segmentscout/internal/provider/resilience"
)

func TestRegistry_RegisterAndHealth(t *testing.T) {
	registry := resilience.NewRegistry()
	client := resilience.NewClient(resilience.DefaultClientConfig("strava"))

	registry.Register("strava", client)
	assert.Equal(t, 1, registry.ProviderCount())

	health := registry.GetHealth("strava")
	require.NotNil(t, health)
	assert.Equal(t, "strava", health.Name)
	assert.True(t, health.IsHealthy())
	assert.Nil(t, health.LastSuccessAt)
	assert.Nil(t, health.LastFailureAt)
}

func TestRegistry_UnknownProvider(t *testing.T) {
	registry := resilience.NewRegistry()
	assert.Nil(t, registry.GetHealth("nope"))
}

func TestRegistry_RecordsOutcomes(t *testing.T) {
	registry := resilience.NewRegistry()
	client := resilience.NewClient(resilience.DefaultClientConfig("strava"))
	registry.Register("strava", client)

	registry.RecordSuccess("strava")
	health := registry.GetHealth("strava")
	require.NotNil(t, health)
	assert.NotNil(t, health.LastSuccessAt)

	registry.RecordFailure("strava", errors.New("token expired"))
	health = registry.GetHealth("strava")
	require.NotNil(t, health)
	assert.NotNil(t, health.LastFailureAt)
	assert.Equal(t, "token expired", health.LastError)
}

func TestRegistry_GetAllHealth(t *testing.T) {
	registry := resilience.NewRegistry()
	registry.Register("strava", resilience.NewClient(resilience.DefaultClientConfig("strava")))
	registry.Register("oauth", resilience.NewClient(resilience.DefaultClientConfig("oauth")))

	all := registry.GetAllHealth()
	assert.Len(t, all, 2)

	registry.Unregister("oauth")
	assert.Equal(t, 1, registry.ProviderCount())
}
