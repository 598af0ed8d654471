package csrf_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storygraph-backend/internal/csrf"
)

func TestStore_IssueAndValidate(t *testing.T) {
	s := csrf.NewStore(16, time.Minute)

	token, err := s.Issue("session-a")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.True(t, s.Validate("session-a", token))
	assert.False(t, s.Validate("session-a", "forged"))
	assert.False(t, s.Validate("session-b", token), "tokens are bound to their session")
	assert.False(t, s.Validate("", token))
	assert.False(t, s.Validate("session-a", ""))
}

func TestStore_ReissueReplacesToken(t *testing.T) {
	s := csrf.NewStore(16, time.Minute)

	first, err := s.Issue("session-a")
	require.NoError(t, err)
	second, err := s.Issue("session-a")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	assert.False(t, s.Validate("session-a", first), "a re-issue must invalidate the old token")
	assert.True(t, s.Validate("session-a", second))
	assert.Equal(t, 1, s.Len())
}

func TestStore_TokensExpire(t *testing.T) {
	s := csrf.NewStore(16, 20*time.Millisecond)

	token, err := s.Issue("session-a")
	require.NoError(t, err)
	require.True(t, s.Validate("session-a", token))

	time.Sleep(60 * time.Millisecond)
	assert.False(t, s.Validate("session-a", token))
}

func TestStore_BoundedSessions(t *testing.T) {
	s := csrf.NewStore(2, time.Minute)

	_, err := s.Issue("session-a")
	require.NoError(t, err)
	_, err = s.Issue("session-b")
	require.NoError(t, err)
	_, err = s.Issue("session-c")
	require.NoError(t, err)

	assert.Equal(t, 2, s.Len(), "the oldest session is evicted at capacity")
}

func TestStore_Revoke(t *testing.T) {
	s := csrf.NewStore(16, time.Minute)

	token, err := s.Issue("session-a")
	require.NoError(t, err)
	s.Revoke("session-a")

	assert.False(t, s.Validate("session-a", token))
	assert.Zero(t, s.Len())
}
