package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segmentscout/segmentscout/internal/auth"
)

func TestStateIssuer_RoundTrip(t *testing.T) {
	issuer := auth.NewStateIssuer(auth.StateConfig{SigningKey: "test-key"})

	state, expiresAt, err := issuer.Issue()
	require.NoError(t, err)
	require.NotEmpty(t, state)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), expiresAt, time.Minute)

	assert.NoError(t, issuer.Verify(state))
}

func TestStateIssuer_RejectsForeignKey(t *testing.T) {
	issuer := auth.NewStateIssuer(auth.StateConfig{SigningKey: "key-a"})
	other := auth.NewStateIssuer(auth.StateConfig{SigningKey: "key-b"})

	state, _, err := issuer.Issue()
	require.NoError(t, err)

	assert.ErrorIs(t, other.Verify(state), auth.ErrInvalidState)
}

func TestStateIssuer_RejectsGarbage(t *testing.T) {
	issuer := auth.NewStateIssuer(auth.StateConfig{SigningKey: "test-key"})

	assert.ErrorIs(t, issuer.Verify(""), auth.ErrInvalidState)
	assert.ErrorIs(t, issuer.Verify("not.a.jwt"), auth.ErrInvalidState)
}

func TestStateIssuer_RejectsExpired(t *testing.T) {
	issuer := auth.NewStateIssuer(auth.StateConfig{
		SigningKey: "test-key",
		TTL:        -time.Minute, // already expired at issue time
	})

	state, _, err := issuer.Issue()
	require.NoError(t, err)

	assert.ErrorIs(t, issuer.Verify(state), auth.ErrInvalidState)
}
