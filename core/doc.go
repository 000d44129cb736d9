// Package core holds the data model shared by every other package in the
// backend lifecycle core: backends, models, agent profiles, token counts,
// pricing, routing metadata, and the typed error taxonomy that the registry,
// health checker, and agents all speak.
package core
