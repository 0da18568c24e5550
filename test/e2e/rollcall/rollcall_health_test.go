package rollcall_test

import (
	"testing"

	"github.com/aussiebroadwan/rollcall/pkg/rollcallsdk"
	"github.com/stretchr/testify/require"
)

func TestHealthEndpoints(t *testing.T) {
	baseURL, cleanup := setupRollcallContainer(t, nil)
	defer cleanup()

	client := rollcallsdk.NewSDKClient(baseURL)

	t.Run("liveness", func(t *testing.T) {
		health, err := client.GetLiveness(t.Context())
		require.NoError(t, err)
		require.Equal(t, "ok", health.Status)
		require.NotEmpty(t, health.Version)
	})

	t.Run("readiness", func(t *testing.T) {
		health, err := client.GetReadiness(t.Context())
		require.NoError(t, err)
		require.Equal(t, "ok", health.Status)
		require.NotNil(t, health.Checks)
		require.Equal(t, "ok", health.Checks.Database)
		require.Equal(t, "ok", health.Checks.Verifier)
	})

	t.Run("unauthenticated requests are rejected", func(t *testing.T) {
		session := client.NewSession(rollcallsdk.StaticToken("not-a-jwt"))
		_, err := session.CanWriteTag(t.Context())
		assertAPIError(t, err, 401, rollcallsdk.ErrorCodeUnauthorized)
	})
}
