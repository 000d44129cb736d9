package proto

import (
	"encoding/json"
	"net/http"
)

// ErrorDetail is the OpenAI-format error object.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// Context carries machine-readable retry hints. The pointer fields use
// omitempty so a field whose value would be null is omitted entirely —
// never serialized as JSON null. AvailableBackends is always present; the
// constructors serialize an empty list as [].
type Context struct {
	RequiredTier        *int     `json:"required_tier,omitempty"`
	AvailableBackends   []string `json:"available_backends"`
	ETASeconds          *float64 `json:"eta_seconds,omitempty"`
	PrivacyZoneRequired *string  `json:"privacy_zone_required,omitempty"`
}

// ServiceUnavailable is the Actionable 503 body: an OpenAI-format error
// plus a context sibling object.
type ServiceUnavailable struct {
	Error   ErrorDetail `json:"error"`
	Context Context     `json:"context"`
}

const serviceUnavailableMessage = "no backend is currently able to serve this request"

// TierUnavailable builds the Actionable 503 for "no healthy backend meets
// the requested capability tier".
func TierUnavailable(requiredTier int, availableBackends []string) ServiceUnavailable {
	if availableBackends == nil {
		availableBackends = []string{}
	}
	return ServiceUnavailable{
		Error: ErrorDetail{Message: serviceUnavailableMessage, Type: "service_unavailable", Code: "service_unavailable"},
		Context: Context{
			RequiredTier:      &requiredTier,
			AvailableBackends: availableBackends,
		},
	}
}

// PrivacyZoneUnavailable builds the Actionable 503 for "no healthy backend
// is in the required privacy zone".
func PrivacyZoneUnavailable(requiredZone string, availableBackends []string) ServiceUnavailable {
	if availableBackends == nil {
		availableBackends = []string{}
	}
	return ServiceUnavailable{
		Error: ErrorDetail{Message: serviceUnavailableMessage, Type: "service_unavailable", Code: "service_unavailable"},
		Context: Context{
			PrivacyZoneRequired: &requiredZone,
			AvailableBackends:   availableBackends,
		},
	}
}

// AllBackendsDown builds the Actionable 503 for "every registered backend
// is unhealthy". etaSeconds is nil when no estimate is available.
func AllBackendsDown(etaSeconds *float64) ServiceUnavailable {
	return ServiceUnavailable{
		Error: ErrorDetail{Message: serviceUnavailableMessage, Type: "service_unavailable", Code: "service_unavailable"},
		Context: Context{
			AvailableBackends: []string{},
			ETASeconds:        etaSeconds,
		},
	}
}

// WriteServiceUnavailable encodes body as the HTTP 503 response. Content-Type
// and nosniff are set before the status line, and an encode failure is
// silently dropped since the status line is already committed.
func WriteServiceUnavailable(w http.ResponseWriter, body ServiceUnavailable) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusServiceUnavailable)
	_ = json.NewEncoder(w).Encode(body)
}
