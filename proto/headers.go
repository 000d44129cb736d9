package proto

import (
	"fmt"
	"net/http"

	"github.com/nexusrouter/nexus/core"
)

const (
	HeaderBackend       = "x-nexus-backend"
	HeaderBackendType   = "x-nexus-backend-type"
	HeaderRouteReason   = "x-nexus-route-reason"
	HeaderPrivacyZone   = "x-nexus-privacy-zone"
	HeaderCostEstimated = "x-nexus-cost-estimated"
)

// InjectHeaders writes the Transparent Protocol headers onto w for a
// successfully routed request: all five when result.CostEstimated is set,
// and all but x-nexus-cost-estimated when it is nil. It must be called before the first byte of
// the body (or the first SSE chunk) is written, since header.Set after
// WriteHeader has no effect.
func InjectHeaders(w http.ResponseWriter, b *core.Backend, result core.RoutingResult) {
	h := w.Header()
	h.Set(HeaderBackend, b.ID)
	h.Set(HeaderBackendType, string(b.Type.Class()))
	h.Set(HeaderRouteReason, string(result.RouteReason))
	h.Set(HeaderPrivacyZone, string(b.Zone))
	if result.CostEstimated != nil {
		h.Set(HeaderCostEstimated, fmt.Sprintf("%.4f", *result.CostEstimated))
	}
}
