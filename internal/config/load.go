package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Load reads the configuration file at path over base. Keys missing from
// the file keep their base value.
func Load(path string, base FileConfig) (FileConfig, error) {
	cfg := base
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return base, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// ParseArgs builds the configuration for a command: defaults, then the file
// named by --config, then the remaining flags. Extra flags can be bound
// through extra before parsing.
func ParseArgs(name string, args []string, workDir string, extra func(*pflag.FlagSet)) (FileConfig, error) {
	cfg := Default(workDir)

	// Only --config matters here; everything else is parsed below once the
	// file has supplied the defaults.
	pre := pflag.NewFlagSet(name, pflag.ContinueOnError)
	pre.ParseErrorsWhitelist.UnknownFlags = true
	pre.SetOutput(io.Discard)
	pre.Usage = func() {}
	path := pre.String("config", "", "")
	if err := pre.Parse(args); err != nil && !errors.Is(err, pflag.ErrHelp) {
		return cfg, err
	}
	if *path != "" {
		var err error
		if cfg, err = Load(*path, cfg); err != nil {
			return cfg, err
		}
	}

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", *path, "YAML configuration file")
	cfg.bind(fs)
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *FileConfig) bind(fs *pflag.FlagSet) {
	fs.StringVar(&c.Control.Address, "control", c.Control.Address, "control port, host:port or unix:/path")
	fs.StringVar(&c.Control.Password, "control-password", c.Control.Password, "control port password")
	fs.StringVar(&c.Control.CookieFile, "control-cookie", c.Control.CookieFile, "control auth cookie file (default: advertised by the daemon)")
	fs.DurationVar(&c.Control.Timeout, "control-timeout", c.Control.Timeout, "control connection and authentication timeout")

	fs.IntVarP(&c.Onion.Port, "port", "p", c.Onion.Port, "public onion port, 0 for random")
	fs.StringVar(&c.Onion.KeyFile, "key-file", c.Onion.KeyFile, "where the service key is kept")
	fs.BoolVar(&c.Onion.CacheKey, "cache-key", c.Onion.CacheKey, "persist the service key and reuse it")
	fs.StringVar(&c.Onion.ServiceDir, "service-dir", c.Onion.ServiceDir, "service directory for daemons without ADD_ONION")
	fs.StringSliceVar(&c.Onion.LegacyMarkers, "legacy-version", c.Onion.LegacyMarkers, "version substrings that select the service-directory dialect")
	fs.DurationVar(&c.Onion.ReadyTimeout, "ready-timeout", c.Onion.ReadyTimeout, "give up if the service is not published in time")

	fs.StringVar(&c.Log.Level, "log-level", c.Log.Level, "debug, info, warn or error")
	fs.StringVar(&c.Log.File, "log-file", c.Log.File, "also write logs to this rotating file")

	fs.BoolVar(&c.Probe.Enabled, "probe-socks", c.Probe.Enabled, "probe the published address through the SOCKS port")
	fs.StringVar(&c.Probe.SocksAddress, "socks", c.Probe.SocksAddress, "daemon SOCKS port used by --probe-socks")
	fs.DurationVar(&c.Probe.Timeout, "probe-timeout", c.Probe.Timeout, "how long to keep probing")
}
