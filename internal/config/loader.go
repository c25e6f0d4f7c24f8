package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tbckr/dnsbench/internal/appdir"
)

// EnvPrefix prefixes environment variable overrides, e.g. DNSBENCH_PROBES.
const EnvPrefix = "DNSBENCH"

// DefaultConfigPath returns the OS-appropriate default config file path.
func DefaultConfigPath() (string, error) {
	dir, err := appdir.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load resolves the configuration for flags, which must have been set up with
// RegisterFlags and parsed. The config file is created (0600) if missing.
func Load(flags *pflag.FlagSet) (*Config, error) {
	cfgFile, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	if cfgFile == "" {
		if cfgFile, err = DefaultConfigPath(); err != nil {
			return nil, err
		}
	}
	if err := appdir.EnsureFile(cfgFile); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(cfgFile)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(NormalizeKey(f.Name), f)
	})
	if bindErr != nil {
		return nil, fmt.Errorf("binding flags: %w", bindErr)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", cfgFile, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.ConfigFile = cfgFile
	return &cfg, nil
}
