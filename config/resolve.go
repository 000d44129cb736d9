package config

import (
	"fmt"
	"os"

	"github.com/nexusrouter/nexus/core"
	"github.com/nexusrouter/nexus/health"
)

// Resolve validates b and converts it into a *core.Backend plus the
// resolved API key (read from the environment variable named by
// APIKeyEnv, empty string when none is configured). Defaults are applied
// here rather than at YAML-parse time, so a record loaded from either the
// file or a future non-YAML source goes through the same rules.
func (b BackendConfig) Resolve() (*core.Backend, string, error) {
	if b.Name == "" {
		return nil, "", fmt.Errorf("config: backend record missing required field %q", "name")
	}
	if b.URL == "" {
		return nil, "", fmt.Errorf("config: backend %q missing required field %q", b.Name, "url")
	}

	typ := core.BackendType(b.Type)
	if !typ.Valid() {
		return nil, "", fmt.Errorf("config: backend %q has unrecognized type %q", b.Name, b.Type)
	}

	var apiKey string
	switch typ {
	case core.BackendOpenAI, core.BackendAnthropic, core.BackendGoogle:
		if b.APIKeyEnv == "" {
			return nil, "", fmt.Errorf("config: backend %q of type %q requires api_key_env", b.Name, b.Type)
		}
	}
	if b.APIKeyEnv != "" {
		apiKey = os.Getenv(b.APIKeyEnv)
		if apiKey == "" {
			return nil, "", fmt.Errorf("config: backend %q: environment variable %q referenced by api_key_env is unset", b.Name, b.APIKeyEnv)
		}
	}

	backend := core.NewBackend(b.Name, b.Name, b.URL, typ)

	if b.Priority != 0 {
		backend.Priority = b.Priority
	} else {
		backend.Priority = defaultPriority
	}

	if b.Tier != 0 {
		if b.Tier < 1 || b.Tier > 5 {
			return nil, "", fmt.Errorf("config: backend %q has tier %d outside the valid range 1..5", b.Name, b.Tier)
		}
		backend.Tier = b.Tier
	} else {
		backend.Tier = defaultTier
	}

	if b.Zone != "" {
		zone := core.PrivacyZone(b.Zone)
		if zone != core.ZoneRestricted && zone != core.ZoneOpen {
			return nil, "", fmt.Errorf("config: backend %q has unrecognized zone %q", b.Name, b.Zone)
		}
		backend.Zone = zone
	}

	return backend, apiKey, nil
}

// ToHealthConfig converts the declarative health block into the shape the
// checker package consumes.
func (h HealthConfig) ToHealthConfig() health.Config {
	return health.Config{
		Enabled:           h.Enabled,
		IntervalSeconds:   h.IntervalSeconds,
		TimeoutSeconds:    h.TimeoutSeconds,
		FailureThreshold:  h.FailureThreshold,
		RecoveryThreshold: h.RecoveryThreshold,
	}
}
