package proto

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nexusrouter/nexus/core"
)

func TestInjectHeaders_AllFiveSet(t *testing.T) {
	b := core.NewBackend("b1", "local-vllm", "http://localhost:8000", core.BackendVLLM)
	cost := 0.0123
	w := httptest.NewRecorder()

	InjectHeaders(w, b, core.RoutingResult{RouteReason: core.ReasonCapabilityMatch, CostEstimated: &cost})

	assert.Equal(t, "b1", w.Header().Get(HeaderBackend))
	assert.Equal(t, "local", w.Header().Get(HeaderBackendType))
	assert.Equal(t, "capability-match", w.Header().Get(HeaderRouteReason))
	assert.Equal(t, "restricted", w.Header().Get(HeaderPrivacyZone))
	assert.Equal(t, "0.0123", w.Header().Get(HeaderCostEstimated))
}

func TestInjectHeaders_OmitsCostWhenUnknown(t *testing.T) {
	b := core.NewBackend("b1", "openai", "https://api.openai.com", core.BackendOpenAI)
	w := httptest.NewRecorder()

	InjectHeaders(w, b, core.RoutingResult{RouteReason: core.ReasonFailover})

	assert.Equal(t, "cloud", w.Header().Get(HeaderBackendType))
	assert.Equal(t, "", w.Header().Get(HeaderCostEstimated))
}
