package test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIntegration(t *testing.T) {
	defer func() {
		require.NoError(t, DisableIntegrationTests())
	}()

	require.NoError(t, os.Setenv(EnvIntegrationTests, "false"))
	require.False(t, RunIntegrationTests())

	require.NoError(t, os.Setenv(EnvIntegrationTests, "0"))
	require.False(t, RunIntegrationTests())

	require.NoError(t, os.Setenv(EnvIntegrationTests, "foo"))
	require.False(t, RunIntegrationTests())

	require.NoError(t, os.Setenv(EnvIntegrationTests, "trUe"))
	require.True(t, RunIntegrationTests())

	require.NoError(t, os.Setenv(EnvIntegrationTests, "1"))
	require.True(t, RunIntegrationTests())

	require.NoError(t, DisableIntegrationTests())
	require.False(t, RunIntegrationTests())

	require.NoError(t, EnableIntegrationTests())
	require.True(t, RunIntegrationTests())
}

type recordingSkipper struct {
	skipped bool
}

func (s *recordingSkipper) Skipf(string, ...interface{}) {
	s.skipped = true
}

func TestIntegrationTestSkip(t *testing.T) {
	require.NoError(t, DisableIntegrationTests())
	s := &recordingSkipper{}
	IntegrationTest(s)
	require.True(t, s.skipped)

	require.NoError(t, EnableIntegrationTests())
	defer func() {
		require.NoError(t, DisableIntegrationTests())
	}()
	s = &recordingSkipper{}
	IntegrationTest(s)
	require.False(t, s.skipped)
}
