// Package proto implements the Transparent Protocol: response metadata
// that exposes routing decisions as headers without mutating the
// OpenAI-compatible body, plus the three canonical Actionable 503
// constructors surfaced when no backend can serve a request.
package proto
