package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/republic-chain/proof-of-stake/config"
)

func TestApplyNodeIDTestOverridesDerivesDistinctBootstrapPeers(t *testing.T) {
	cfg := config.Default()
	cfg.Network.Port = 9002

	applyNodeIDTestOverrides(cfg, 2)

	require.Equal(t, "127.0.0.1", cfg.Network.ListenAddress)
	require.Equal(t, []string{
		"/ip4/127.0.0.1/tcp/9000",
		"/ip4/127.0.0.1/tcp/9001",
	}, cfg.Network.BootstrapNodes)
}

func TestApplyNodeIDTestOverridesFallsBackWhenPortBelowNodeID(t *testing.T) {
	cfg := config.Default()
	cfg.Network.Port = 1

	applyNodeIDTestOverrides(cfg, 2)

	require.Equal(t, []string{
		"/ip4/127.0.0.1/tcp/9000",
		"/ip4/127.0.0.1/tcp/9001",
	}, cfg.Network.BootstrapNodes)
}

func TestWrapStartupPreservesNilAndCause(t *testing.T) {
	require.NoError(t, wrapStartup(nil))

	cause := errors.New("boom")
	wrapped := wrapStartup(cause)

	var se *startupError
	require.True(t, errors.As(wrapped, &se))
	require.ErrorIs(t, wrapped, cause)
}
