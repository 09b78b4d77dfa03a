package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyAcceptsValidToken(t *testing.T) {
	v := NewJWTVerifier("test-secret", "pong-platform")
	tok, err := IssueForTests("test-secret", "pong-platform", "player-1", "Alice")
	require.NoError(t, err)

	id, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "player-1", id.PlayerID)
	assert.Equal(t, "Alice", id.Username)
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	v := NewJWTVerifier("test-secret", "pong-platform")
	tok, err := IssueForTests("wrong-secret", "pong-platform", "player-1", "Alice")
	require.NoError(t, err)

	_, err = v.Verify(tok)
	require.Error(t, err)
}

func TestVerifyRejectsEmptyToken(t *testing.T) {
	v := NewJWTVerifier("test-secret", "pong-platform")
	_, err := v.Verify("")
	require.Error(t, err)
}

func TestVerifyRejectsIssuerMismatch(t *testing.T) {
	v := NewJWTVerifier("test-secret", "pong-platform")
	tok, err := IssueForTests("test-secret", "someone-else", "player-1", "Alice")
	require.NoError(t, err)

	_, err = v.Verify(tok)
	require.Error(t, err)
}
