// Package tlsutil provides centralized, hardened TLS configuration for every
// outbound HTTP client Nexus opens against a local or cloud backend
// (TLS 1.2+, AEAD-only cipher suites).
package tlsutil
