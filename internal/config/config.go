// Package config implements the CLI/config layer: flags, environment, and
// an optional config file resolved through spf13/viper, with flag values
// taking precedence over environment variables which take precedence
// over file-based config.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "debugctl"

// Config is the fully resolved process configuration for `debugctl serve`.
type Config struct {
	LogLevel           string
	MetricsPort        int // 0 disables the loopback /healthz + /metrics listener
	BreakpointSpecFile string
}

// Default returns the zero-config baseline: info logging,
// metrics disabled, no breakpoint-spec file.
func Default() Config {
	return Config{LogLevel: "info", MetricsPort: 0}
}

// BindFlags registers the serve command's flags with their defaults.
func BindFlags(cmd *cobra.Command) {
	def := Default()
	cmd.Flags().String("log-level", def.LogLevel, "log level: debug, info, warn, error")
	cmd.Flags().Int("metrics-port", def.MetricsPort, "loopback port for /healthz and /metrics (0 disables)")
	cmd.Flags().String("breakpoint-spec-file", def.BreakpointSpecFile, "path to a JSON breakpoint-spec file applied at connect time")
}

// Resolve applies flag > env > file > default precedence and returns the
// final Config. v is an already-constructed viper instance so callers can
// point it at a config file before calling Resolve; a nil v gets a fresh
// instance reading only flags and environment.
func Resolve(cmd *cobra.Command, v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if err := reconcileEnv(cmd, v); err != nil {
		return Config{}, err
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return Config{}, err
	}

	return Config{
		LogLevel:           v.GetString("log-level"),
		MetricsPort:        v.GetInt("metrics-port"),
		BreakpointSpecFile: v.GetString("breakpoint-spec-file"),
	}, nil
}

// reconcileEnv: any flag not explicitly set on the command line but
// present in the environment is pulled in before viper's own binding takes
// over, so an env var can satisfy a flag that a config file also sets
// (flag > env > file).
func reconcileEnv(cmd *cobra.Command, v *viper.Viper) error {
	var errs []string
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		name := strings.ReplaceAll(f.Name, "-", "_")
		if !f.Changed && v.IsSet(name) {
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", v.Get(name))); err != nil {
				errs = append(errs, err.Error())
			}
		}
	})
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("error mapping environment variables to flags: %s", strings.Join(errs, "; "))
}
