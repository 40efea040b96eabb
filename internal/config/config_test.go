package config_test

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-console/debugctl/internal/config"
)

func newCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "serve"}
	config.BindFlags(cmd)
	return cmd
}

func TestResolve_Defaults(t *testing.T) {
	cmd := newCmd()
	cfg, err := config.Resolve(cmd, nil)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 0, cfg.MetricsPort)
}

func TestResolve_FlagOverridesDefault(t *testing.T) {
	cmd := newCmd()
	require.NoError(t, cmd.Flags().Set("log-level", "debug"))
	cfg, err := config.Resolve(cmd, nil)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestResolve_EnvAppliesWhenFlagUnset(t *testing.T) {
	t.Setenv("DEBUGCTL_METRICS_PORT", "9100")
	cmd := newCmd()
	cfg, err := config.Resolve(cmd, nil)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.MetricsPort)
}

func TestResolve_FlagWinsOverEnv(t *testing.T) {
	t.Setenv("DEBUGCTL_LOG_LEVEL", "warn")
	cmd := newCmd()
	require.NoError(t, cmd.Flags().Set("log-level", "error"))
	cfg, err := config.Resolve(cmd, nil)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
}
