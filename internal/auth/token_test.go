package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager(t *testing.T) {
	manager := NewTokenManager("test-secret", 30)

	t.Run("round trips org scope and role", func(t *testing.T) {
		token, expiresAt, err := manager.GenerateToken("reporting-service", "org-1", RoleService)

		require.NoError(t, err)
		assert.True(t, expiresAt.After(time.Now()))

		claims, err := manager.ParseToken(token)

		require.NoError(t, err)
		assert.Equal(t, "reporting-service", claims.Subject)
		assert.Equal(t, "org-1", claims.OrgID)
		assert.Equal(t, RoleService, claims.Role)
	})

	t.Run("rejects tokens signed with another secret", func(t *testing.T) {
		other := NewTokenManager("other-secret", 30)
		token, _, err := other.GenerateToken("svc", "org-1", RoleAdmin)
		require.NoError(t, err)

		_, err = manager.ParseToken(token)

		assert.Error(t, err)
	})

	t.Run("rejects garbage tokens", func(t *testing.T) {
		_, err := manager.ParseToken("not-a-token")

		assert.Error(t, err)
	})
}
