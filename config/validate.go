package config

import (
	"fmt"
	"strings"
)

// Validate checks structural invariants that YAML/env loading can't catch
// on its own: port range, and that every backend record resolves cleanly
// (valid type, required api_key_env present and its env var set, tier in
// range). It does not mutate cfg — resolution happens again, for real, when
// the registry is built from cfg.Backends.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "server.http_port must be between 1 and 65535")
	}

	seen := make(map[string]bool, len(c.Backends))
	for _, b := range c.Backends {
		if seen[b.Name] {
			errs = append(errs, fmt.Sprintf("duplicate backend name %q", b.Name))
		}
		seen[b.Name] = true

		if _, _, err := b.Resolve(); err != nil {
			errs = append(errs, err.Error())
		}

		if b.RequestsPerSecond < 0 {
			errs = append(errs, fmt.Sprintf("backend %q has negative requests_per_second", b.Name))
		}
		if b.Burst < 0 {
			errs = append(errs, fmt.Sprintf("backend %q has negative burst", b.Name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
