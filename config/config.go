package config

import "time"

// Config is Nexus's complete declarative configuration, loaded by a Loader
// and consumed at startup to populate the registry and wire the health
// checker, logger, and telemetry providers.
type Config struct {
	Server    ServerConfig    `yaml:"server" env:"SERVER"`
	Backends  []BackendConfig `yaml:"backends" env:"-"`
	Health    HealthConfig    `yaml:"health" env:"HEALTH"`
	Log       LogConfig       `yaml:"log" env:"LOG"`
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig holds HTTP listener settings. cmd/nexusd starts no HTTP
// listener: of these fields it uses only ShutdownTimeout, and Validate
// checks HTTPPort's range.
type ServerConfig struct {
	HTTPPort        int           `yaml:"http_port" env:"HTTP_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// BackendConfig is one declared backend record. Env overrides are not
// supported per-backend (the list has no stable index to address via an
// env var prefix) — backends come from the YAML file only;
// Loader still applies Server/Health/Log/Telemetry env overrides.
type BackendConfig struct {
	Name              string  `yaml:"name"`
	URL               string  `yaml:"url"`
	Type              string  `yaml:"type"`
	Priority          int     `yaml:"priority"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	Zone              string  `yaml:"zone"`
	Tier              int     `yaml:"tier"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// HealthConfig mirrors health.Config field-for-field; ToHealthConfig (in
// resolve.go) converts between them. Declared as its own type here, rather
// than embedding health.Config directly, so the yaml/env struct tags live
// next to the other Config blocks instead of inside the health package.
type HealthConfig struct {
	Enabled           bool `yaml:"enabled" env:"ENABLED"`
	IntervalSeconds   int  `yaml:"interval_seconds" env:"INTERVAL_SECONDS"`
	TimeoutSeconds    int  `yaml:"timeout_seconds" env:"TIMEOUT_SECONDS"`
	FailureThreshold  int  `yaml:"failure_threshold" env:"FAILURE_THRESHOLD"`
	RecoveryThreshold int  `yaml:"recovery_threshold" env:"RECOVERY_THRESHOLD"`
}

// LogConfig controls the zap logger built at startup.
type LogConfig struct {
	Level        string   `yaml:"level" env:"LEVEL"`
	Format       string   `yaml:"format" env:"FORMAT"`
	OutputPaths  []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	EnableCaller bool     `yaml:"enable_caller" env:"ENABLE_CALLER"`
}

// TelemetryConfig matches the shape internal/telemetry.Init expects.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" env:"ENABLED"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	ServiceName  string  `yaml:"service_name" env:"SERVICE_NAME"`
	SampleRate   float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}
