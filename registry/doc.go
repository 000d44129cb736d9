// Package registry is the single source of truth for which backends exist
// and their current runtime state: two independent concurrent maps — one
// for Backend records, one for Agent handles — keyed by backend id, so a
// read on one key never blocks a read or write on another.
package registry
