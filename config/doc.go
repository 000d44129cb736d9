// Package config loads Nexus's declarative configuration: the backend
// fleet, health checker tuning, logging, and telemetry. A Builder-style
// Loader applies defaults, then an optional YAML file, then
// reflection-driven environment variable overrides.
package config
