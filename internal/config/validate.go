package config

import (
	"errors"
	"fmt"

	"ikedadada/go-onionctl/internal/infrastructure/util"
)

var logLevels = []string{"debug", "info", "warn", "warning", "error"}

// Validate reports every invalid field at once.
func (c FileConfig) Validate() error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	if c.Version != CurrentVersion {
		add(util.ValidationError{Field: "version", Message: fmt.Sprintf("unsupported version %d", c.Version)})
	}
	add(util.ValidateControlAddress(c.Control.Address, "control.address"))
	add(util.ValidatePositiveDuration(c.Control.Timeout, "control.timeout"))

	add(util.ValidateRange(c.Onion.Port, 0, 65535, "onion.port"))
	add(util.ValidateRequired(c.Onion.KeyFile, "onion.key_file"))
	add(util.ValidateRequired(c.Onion.ServiceDir, "onion.service_dir"))
	add(util.ValidatePositiveDuration(c.Onion.ReadyTimeout, "onion.ready_timeout"))

	if c.Log.Level != "" {
		add(util.ValidateOneOf(c.Log.Level, logLevels, "log.level"))
	}
	if c.Probe.Enabled {
		add(util.ValidateEndpoint(c.Probe.SocksAddress, "probe.socks_address"))
		add(util.ValidatePositiveDuration(c.Probe.Timeout, "probe.timeout"))
	}
	return errors.Join(errs...)
}
