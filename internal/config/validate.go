package config

import (
	"fmt"
	"net"
	"strings"

	"git.home.luguber.info/inful/appshell/internal/foundation/errors"
)

// Validate checks the configuration for values the launcher cannot start with.
func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return errors.ValidationError("host cannot be empty").
			WithContext("field", "server.host").Build()
	}
	if ip := net.ParseIP(c.Server.Host); ip == nil {
		// Not an IP, check if it's a valid hostname
		if !isValidHostname(c.Server.Host) {
			return errors.ValidationError("host must be a valid IP address or hostname").
				WithContext("field", "server.host").
				WithContext("value", c.Server.Host).Build()
		}
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.ValidationError("port must be between 1 and 65535").
			WithContext("field", "server.port").
			WithContext("value", c.Server.Port).Build()
	}

	if strings.TrimSpace(c.Assets.Dir) == "" {
		return errors.ValidationError("asset directory cannot be empty").
			WithContext("field", "assets.dir").Build()
	}

	if c.Window.Width < 0 || c.Window.Height < 0 {
		return errors.ValidationError("window dimensions must be positive").
			WithContext("field", "window").
			WithContext("value", fmt.Sprintf("%dx%d", c.Window.Width, c.Window.Height)).Build()
	}

	if c.Launch.MaxWait <= 0 {
		return errors.ValidationError("max_wait must be positive").
			WithContext("field", "launch.max_wait").Build()
	}
	if c.Launch.PollInterval <= 0 {
		return errors.ValidationError("poll_interval must be positive").
			WithContext("field", "launch.poll_interval").Build()
	}
	if c.Launch.PollInterval > c.Launch.MaxWait {
		return errors.ValidationError("poll_interval cannot exceed max_wait").
			WithContext("field", "launch.poll_interval").Build()
	}
	if c.Launch.ShutdownGrace <= 0 {
		return errors.ValidationError("shutdown_grace must be positive").
			WithContext("field", "launch.shutdown_grace").Build()
	}
	if c.Launch.WatchdogInterval <= 0 {
		return errors.ValidationError("watchdog_interval must be positive").
			WithContext("field", "launch.watchdog_interval").Build()
	}

	return nil
}

// isValidHostname checks if a string is a valid hostname
func isValidHostname(hostname string) bool {
	if hostname == "" || len(hostname) > 253 {
		return false
	}

	// Check each label
	labels := strings.Split(hostname, ".")
	for _, label := range labels {
		if label == "" || len(label) > 63 {
			return false
		}

		// Basic character validation
		for i, c := range label {
			if !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') &&
				!(c >= '0' && c <= '9') && c != '-' {
				return false
			}

			// Cannot start or end with hyphen
			if (i == 0 || i == len(label)-1) && c == '-' {
				return false
			}
		}
	}

	return true
}
