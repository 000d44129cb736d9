package health

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nexusrouter/nexus/agent"
	"github.com/nexusrouter/nexus/core"
	"github.com/nexusrouter/nexus/registry"
)

// fakeAgent is a scriptable agent.Agent used only by health checker tests.
type fakeAgent struct {
	id string

	mu           sync.Mutex
	healthResult agent.HealthStatus
	healthErr    error
	models       []core.Model
	modelsErr    error
	calls        atomic.Int64
}

func (f *fakeAgent) ID() string                { return f.id }
func (f *fakeAgent) Name() string              { return f.id }
func (f *fakeAgent) Profile() core.AgentProfile { return core.AgentProfile{} }

func (f *fakeAgent) HealthCheck(ctx context.Context) (agent.HealthStatus, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.healthResult, f.healthErr
}

func (f *fakeAgent) ListModels(ctx context.Context) ([]core.Model, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.models, f.modelsErr
}

func (f *fakeAgent) ChatCompletion(ctx context.Context, req *agent.ChatRequest, h http.Header) (*agent.ChatResponse, error) {
	return nil, nil
}
func (f *fakeAgent) ChatCompletionStream(ctx context.Context, req *agent.ChatRequest, h http.Header) (<-chan agent.StreamChunk, error) {
	return nil, nil
}
func (f *fakeAgent) CountTokens(model, text string) core.TokenCount {
	return core.HeuristicFromLength(len(text))
}

func (f *fakeAgent) setHealthy(latencyMs float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.healthResult = agent.HealthStatus{Healthy: true, LatencyMs: latencyMs}
	f.healthErr = nil
}

func (f *fakeAgent) setUnhealthy(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.healthErr = err
}

func newTestChecker(t *testing.T, cfg Config) (*Checker, *registry.Registry, *fakeAgent) {
	t.Helper()
	reg := registry.New()
	b := core.NewBackend("ollama-1", "ollama-1", "http://localhost:11434", core.BackendOllama)
	a := &fakeAgent{id: "ollama-1"}
	require.NoError(t, reg.Register(b, a))

	c := NewChecker(reg, cfg, zaptest.NewLogger(t))
	return c, reg, a
}

func TestChecker_FirstTick_PopulatesHealthyAndModels(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IntervalSeconds = 30 // irrelevant: first cycle runs immediately

	c, reg, a := newTestChecker(t, cfg)
	a.setHealthy(12.5)
	a.models = []core.Model{core.NewModel("llama3:70b"), core.NewModel("mistral:7b")}

	c.checkAll(context.Background(), true)

	b, _ := reg.Get("ollama-1")
	assert.Equal(t, core.StatusHealthy, b.Status())
	assert.Len(t, b.Models(), 2)
	assert.Greater(t, b.AvgLatencyMs(), 0.0)
}

func TestChecker_ParseFailurePreservesModels(t *testing.T) {
	cfg := cfgForTest()
	c, reg, a := newTestChecker(t, cfg)
	a.setHealthy(5)
	a.models = []core.Model{core.NewModel("llama3:70b")}
	c.checkOne(context.Background(), "ollama-1")

	// Next check: health still ok, but model listing fails to parse.
	a.modelsErr = assertErr{"malformed json"}
	c.checkOne(context.Background(), "ollama-1")

	b, _ := reg.Get("ollama-1")
	require.Len(t, b.Models(), 1)
	assert.Equal(t, "llama3:70b", b.Models()[0].ID)
	assert.Equal(t, core.StatusHealthy, b.Status())
}

type assertErr struct{ msg string }

func (e assertErr) Error() string { return e.msg }

func TestChecker_TransitionToUnhealthy_EmitsChangeEvent(t *testing.T) {
	cfg := cfgForTest()
	c, reg, a := newTestChecker(t, cfg)
	a.setHealthy(5)
	c.checkOne(context.Background(), "ollama-1") // Unknown -> Healthy

	subID, events := c.Subscribe(8)
	defer c.Unsubscribe(subID)

	a.setUnhealthy(assertErr{"connection refused"})
	c.checkOne(context.Background(), "ollama-1")
	c.checkOne(context.Background(), "ollama-1")
	c.checkOne(context.Background(), "ollama-1") // 3rd consecutive failure -> Unhealthy

	b, _ := reg.Get("ollama-1")
	assert.Equal(t, core.StatusUnhealthy, b.Status())

	select {
	case evt := <-events:
		assert.Equal(t, "ollama-1", evt.BackendID)
	case <-time.After(time.Second):
		t.Fatal("expected at least one broadcast event")
	}
}

func TestChecker_StartStop_NoGoroutineLeakAfterStop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IntervalSeconds = 1
	c, _, a := newTestChecker(t, cfg)
	a.setHealthy(1)

	c.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	c.Stop()

	callsAtStop := a.calls.Load()
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, callsAtStop, a.calls.Load(), "no probes should happen after Stop returns")
}

func TestChecker_Disabled_NeverStarts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	c, _, a := newTestChecker(t, cfg)
	a.setHealthy(1)

	c.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(0), a.calls.Load())
}
