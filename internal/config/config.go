// Package config holds the file configuration for the onion service
// binaries and the command-line overrides layered on top of it.
package config

import (
	"path/filepath"
	"time"

	vo "ikedadada/go-onionctl/internal/domain/value_object"
	"ikedadada/go-onionctl/internal/infrastructure/logging"
	infraSvc "ikedadada/go-onionctl/internal/infrastructure/service"
	"ikedadada/go-onionctl/internal/usecase/service"
)

// CurrentVersion is the only configuration schema version understood.
const CurrentVersion = 1

// FileConfig is the YAML configuration file.
type FileConfig struct {
	Version int            `yaml:"version"`
	Control ControlSection `yaml:"control"`
	Onion   OnionSection   `yaml:"onion"`
	Log     LogSection     `yaml:"log"`
	Probe   ProbeSection   `yaml:"probe"`
}

// ControlSection locates and authenticates the daemon's control port.
type ControlSection struct {
	Address    string        `yaml:"address"` // host:port or unix:/path
	Password   string        `yaml:"password"`
	CookieFile string        `yaml:"cookie_file"`
	Timeout    time.Duration `yaml:"timeout"`
}

// OnionSection describes the service to publish.
type OnionSection struct {
	Port          int           `yaml:"port"` // 0 picks a random public port
	KeyFile       string        `yaml:"key_file"`
	CacheKey      bool          `yaml:"cache_key"`
	ServiceDir    string        `yaml:"service_dir"`
	LegacyMarkers []string      `yaml:"legacy_markers"`
	ReadyTimeout  time.Duration `yaml:"ready_timeout"`
}

type LogSection struct {
	Level     string `yaml:"level"`
	File      string `yaml:"file"`
	MaxSizeKB int64  `yaml:"max_size_kb"`
	MaxRolls  int    `yaml:"max_rolls"`
	Compress  bool   `yaml:"compress"`
}

// ProbeSection configures the optional reachability check through SOCKS.
type ProbeSection struct {
	Enabled      bool          `yaml:"enabled"`
	SocksAddress string        `yaml:"socks_address"`
	Timeout      time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when no file is given. Key
// material lives in workDir.
func Default(workDir string) FileConfig {
	return FileConfig{
		Version: CurrentVersion,
		Control: ControlSection{
			Address: "127.0.0.1:9051",
			Timeout: 10 * time.Second,
		},
		Onion: OnionSection{
			KeyFile:       filepath.Join(workDir, vo.DefaultKeyFileName),
			CacheKey:      true,
			ServiceDir:    filepath.Join(workDir, vo.DefaultServiceDirName),
			LegacyMarkers: append([]string(nil), service.DefaultLegacyMarkers...),
			ReadyTimeout:  3 * time.Minute,
		},
		Log: LogSection{Level: "info"},
		Probe: ProbeSection{
			SocksAddress: "127.0.0.1:9050",
			Timeout:      2 * time.Minute,
		},
	}
}

// ToOnionOptions converts the onion section for the attachment use case.
func (c FileConfig) ToOnionOptions() vo.OnionOptions {
	return vo.OnionOptions{
		RequestedPort:    c.Onion.Port,
		KeyRef:           vo.KeyRefFromPath(c.Onion.KeyFile),
		CacheKeyMaterial: c.Onion.CacheKey,
		ServiceDir:       c.Onion.ServiceDir,
	}
}

func (c FileConfig) ControlAuth() infraSvc.ControlAuth {
	return infraSvc.ControlAuth{Password: c.Control.Password, CookieFile: c.Control.CookieFile}
}

func (c FileConfig) LogOptions() logging.Options {
	return logging.Options{
		Level:     c.Log.Level,
		File:      c.Log.File,
		MaxSizeKB: c.Log.MaxSizeKB,
		MaxRolls:  c.Log.MaxRolls,
		Compress:  c.Log.Compress,
	}
}
