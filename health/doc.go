// Package health runs the background loop that keeps the registry's health
// status, models, and latency up to date: a single ticker-driven task that
// staggers per-backend probes within a cycle, applies a threshold state
// machine to avoid flapping on transient failures, and exits cleanly on
// cancellation.
package health
