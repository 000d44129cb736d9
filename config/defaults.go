package config

import "time"

// DefaultConfig returns the configuration Loader starts from before the
// YAML file and environment overrides are applied.
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Backends:  nil,
		Health:    DefaultHealthConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig returns Nexus's default HTTP listener tuning.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
	}
}

// DefaultHealthConfig returns the health-checker defaults: 30s interval,
// 5s per-probe timeout, 3 consecutive failures to mark unhealthy, 2
// consecutive successes to recover.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		Enabled:           true,
		IntervalSeconds:   30,
		TimeoutSeconds:    5,
		FailureThreshold:  3,
		RecoveryThreshold: 2,
	}
}

// DefaultLogConfig returns Nexus's default logging configuration.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:        "info",
		Format:       "json",
		OutputPaths:  []string{"stdout"},
		EnableCaller: true,
	}
}

// DefaultTelemetryConfig returns telemetry defaults: disabled, so a fresh
// deployment never dials an OTLP collector that doesn't exist yet.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "nexus",
		SampleRate:   0.1,
	}
}

// defaultPriority and defaultTier are applied by BackendConfig.Resolve when
// the YAML record leaves the field at its zero value.
const (
	defaultPriority = 50
	defaultTier     = 3
)
