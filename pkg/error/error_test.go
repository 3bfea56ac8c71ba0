package error

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestClassification(t *testing.T) {
	t.Run("Wrapped errors keep their class", func(t *testing.T) {
		err := errors.Wrap(NewValidationError("unknown connector kind '%s'", "foo"), "building descriptor")
		require.True(t, IsValidationError(err))
		require.False(t, IsClusterError(err))
		require.Contains(t, err.Error(), "unknown connector kind 'foo'")
	})

	t.Run("Cluster error unwraps to cause", func(t *testing.T) {
		cause := fmt.Errorf("connection refused")
		err := NewClusterError(cause, "create namespace")
		require.True(t, IsClusterError(err))
		require.ErrorIs(t, err, cause)
	})

	t.Run("Deployment error carries installer output", func(t *testing.T) {
		err := &DeploymentError{Release: "trino", Namespace: "trino-org", Output: "Error: chart not found\n", Cause: fmt.Errorf("exit status 1")}
		require.True(t, IsDeploymentError(err))
		require.Equal(t, "deployment of release 'trino' into namespace 'trino-org' failed: exit status 1 (output: Error: chart not found)", err.Error())
	})

	t.Run("Not found and unauthorized", func(t *testing.T) {
		require.True(t, IsNotFoundError(NewNotFoundError("catalog", "clickhouse")))
		require.True(t, IsUnauthorizedError(&UnauthorizedError{Message: "tenant identity missing"}))
		require.True(t, IsConfigurationError(NewConfigurationError(nil, "KUBECONFIG_BASE64 not set")))
	})
}
