package health

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nexusrouter/nexus/agent"
	"github.com/nexusrouter/nexus/core"
	"github.com/nexusrouter/nexus/registry"
)

// Checker is the single background task that keeps the registry's status,
// models, and latency fields current: a ticker loop racing a cancellation
// signal, with per-backend bookkeeping (core.BackendHealthState) private
// to the checker.
type Checker struct {
	reg    *registry.Registry
	cfg    Config
	logger *zap.Logger
	tracer trace.Tracer

	broadcast *broadcaster

	stateMu sync.Mutex
	state   map[string]*core.BackendHealthState

	cancel  context.CancelFunc
	eg      *errgroup.Group
	started bool
}

// NewChecker constructs a Checker bound to reg. It does not start the
// background loop; call Start for that.
func NewChecker(reg *registry.Registry, cfg Config, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{
		reg:       reg,
		cfg:       cfg,
		logger:    logger.With(zap.String("component", "health_checker")),
		tracer:    otel.Tracer("github.com/nexusrouter/nexus/health"),
		broadcast: newBroadcaster(),
		state:     make(map[string]*core.BackendHealthState),
	}
}

// Subscribe registers a listener for BackendChangeEvent notifications. The
// returned channel must eventually be drained or Unsubscribed to avoid
// leaking the subscription; sends to it are non-blocking and drop on a
// full buffer.
func (c *Checker) Subscribe(buffer int) (id string, ch <-chan BackendChangeEvent) {
	return c.broadcast.Subscribe(buffer)
}

// Unsubscribe removes a subscription created by Subscribe.
func (c *Checker) Unsubscribe(id string) {
	c.broadcast.Unsubscribe(id)
}

// Start launches the background loop. If cfg.Enabled is false, Start
// returns immediately without launching anything — backends remain
// Unknown indefinitely.
func (c *Checker) Start(ctx context.Context) {
	if !c.cfg.Enabled || c.started {
		return
	}
	c.started = true

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	eg, egCtx := errgroup.WithContext(runCtx)
	c.eg = eg
	eg.Go(func() error {
		c.run(egCtx)
		return nil
	})
}

// Stop signals cancellation and waits for the in-flight probe (bounded by
// timeout_seconds) to finish before returning. No background tasks remain
// after Stop returns.
func (c *Checker) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	if c.eg != nil {
		_ = c.eg.Wait()
	}
}

func (c *Checker) run(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.interval())
	defer ticker.Stop()

	// First cycle runs immediately, with no stagger, to populate initial
	// state quickly.
	c.checkAll(ctx, true)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAll(ctx, false)
			// A cycle that overran the interval leaves one tick pending in
			// ticker.C; drop it so the next cycle waits for a fresh tick
			// rather than running back-to-back.
			select {
			case <-ticker.C:
			default:
			}
		}
	}
}

// checkAll probes every currently registered backend, sequentially,
// staggered by a delay between consecutive backends (unless first is true).
func (c *Checker) checkAll(ctx context.Context, first bool) {
	ids := c.reg.ListIDs()
	stagger := c.cfg.stagger(len(ids))

	for i, id := range ids {
		if ctx.Err() != nil {
			return
		}
		if !first && i > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(stagger):
			}
		}
		c.checkOne(ctx, id)
	}
}

// checkOne probes a single backend and applies the threshold state
// machine. The probe is bounded by timeout_seconds only: it runs on a
// context detached from ctx's cancellation and deadline, so cancelling ctx
// lets an in-flight probe finish rather than aborting it.
func (c *Checker) checkOne(ctx context.Context, id string) {
	b, ok := c.reg.Get(id)
	if !ok {
		return // raced a Deregister between ListIDs and here
	}
	a, ok := c.reg.GetAgent(id)
	if !ok {
		return
	}

	probeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.timeout())
	probeCtx, span := c.tracer.Start(probeCtx, "nexus.health.probe",
		trace.WithAttributes(
			attribute.String("backend.id", id),
			attribute.String("backend.type", string(b.Type)),
		))
	result := c.probe(probeCtx, a)
	span.End()
	cancel()

	c.stateMu.Lock()
	st, ok := c.state[id]
	if !ok {
		st = &core.BackendHealthState{LastStatus: core.StatusUnknown}
		c.state[id] = st
	}
	newStatus, changed := transition(st, result, c.cfg)
	st.LastCheckTime = time.Now()
	if result.Success && result.ModelsParsed {
		st.LastModels = result.Models
	}
	c.stateMu.Unlock()

	c.applyResult(id, b, result, newStatus, changed)
}

// probe performs the actual liveness check and model discovery through the
// agent, translating the outcome into a core.HealthCheckResult. Parse
// failures during model discovery do not fail the probe — they mark
// ModelsParsed=false so the caller preserves the last known model list.
func (c *Checker) probe(ctx context.Context, a agent.Agent) core.HealthCheckResult {
	status, err := a.HealthCheck(ctx)
	if err != nil {
		return classifyProbeError(err)
	}
	if !status.Healthy {
		return core.FailureResult(core.ErrConnectionFailed, 0, "agent reported unhealthy")
	}

	models, err := a.ListModels(ctx)
	if err != nil {
		// The backend is reachable (HealthCheck succeeded) but its model
		// list didn't parse; preserve the previous list.
		return core.SuccessNoModels(status.LatencyMs)
	}
	return core.SuccessResult(status.LatencyMs, models)
}

func classifyProbeError(err error) core.HealthCheckResult {
	class := core.ErrConnectionFailed
	httpStatus := 0
	if code, ok := core.GetErrorCode(err); ok {
		switch code {
		case core.ErrCodeTimeout:
			class = core.ErrTimeout
		case core.ErrCodeDNS:
			class = core.ErrDNSError
		case core.ErrCodeTLS:
			class = core.ErrTLSError
		case core.ErrCodeHTTPError:
			class = core.ErrHTTPError
		case core.ErrCodeTranslation:
			class = core.ErrParseError
		}
	}
	var ae *core.AgentError
	if errors.As(err, &ae) {
		httpStatus = ae.HTTPStatus
	}
	return core.FailureResult(class, httpStatus, err.Error())
}

type probeOutcome struct {
	healthy   bool
	latencyMs float64
	errClass  core.HealthCheckErrorClass
}

// applyResult writes the probe's outcome into the registry, emits metrics,
// logs, and broadcasts a change event.
func (c *Checker) applyResult(id string, b *core.Backend, result core.HealthCheckResult, newStatus core.Status, changed bool) {
	outcome := probeOutcome{healthy: result.Success}
	if result.Success {
		outcome.latencyMs = result.LatencyMs
	} else {
		outcome.errClass = result.Err.Class
	}
	observeProbe(id, string(b.Type), outcome)

	if result.Success {
		c.logger.Debug("backend health check ok",
			zap.String("backend_id", id), zap.String("backend_type", string(b.Type)),
			zap.Float64("latency_ms", result.LatencyMs))
		b.UpdateLatency(result.LatencyMs)
		if result.ModelsParsed {
			b.ReplaceModels(result.Models)
		} else {
			c.logger.Warn("backend health check response did not parse, preserving last known models",
				zap.String("backend_id", id))
		}
	} else {
		c.logger.Warn("backend health check failed",
			zap.String("backend_id", id), zap.String("backend_type", string(b.Type)),
			zap.String("error_class", string(result.Err.Class)), zap.String("error", result.Err.Message))
	}

	var errMsg string
	if !result.Success {
		errMsg = result.Err.Message
	}
	b.SetStatus(newStatus, errMsg, time.Now())

	if changed {
		c.logger.Info("backend status changed",
			zap.String("backend_id", id), zap.String("status", string(newStatus)))
	}

	c.broadcast.publish(BackendChangeEvent{
		BackendID: id,
		Status:    newStatus,
		Models:    b.Models(),
		LatencyMs: b.AvgLatencyMs(),
		At:        time.Now(),
	})
}
