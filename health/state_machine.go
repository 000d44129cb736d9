package health

import "github.com/nexusrouter/nexus/core"

// transition applies one observation (success/failure) to state under the
// consecutive-failure/consecutive-success threshold state machine,
// mutating state in place and returning the resulting status and whether
// it differs from the status state held before the call (i.e. whether
// this is a loggable transition).
//
// Draining is never entered or exited by this function — it is purely
// informational and set out-of-band (e.g. by an operator action external
// to this core); once a backend is Draining, observations still update the
// counters but never move it out of Draining automatically.
func transition(state *core.BackendHealthState, result core.HealthCheckResult, cfg Config) (newStatus core.Status, changed bool) {
	prev := state.LastStatus
	if prev == "" {
		prev = core.StatusUnknown
	}

	if prev == core.StatusDraining {
		// Still tracked for visibility, but never auto-exits Draining.
		if result.Success {
			state.ConsecutiveSuccesses++
			state.ConsecutiveFailures = 0
		} else {
			state.ConsecutiveFailures++
			state.ConsecutiveSuccesses = 0
		}
		state.LastStatus = core.StatusDraining
		return core.StatusDraining, false
	}

	next := prev

	switch prev {
	case core.StatusUnknown:
		if result.Success {
			state.ConsecutiveSuccesses = 1
			state.ConsecutiveFailures = 0
			next = core.StatusHealthy
		} else {
			state.ConsecutiveFailures = 1
			state.ConsecutiveSuccesses = 0
			next = core.StatusUnhealthy
		}

	case core.StatusHealthy:
		if result.Success {
			state.ConsecutiveFailures = 0
			state.ConsecutiveSuccesses++
			next = core.StatusHealthy
		} else {
			state.ConsecutiveSuccesses = 0
			state.ConsecutiveFailures++
			if state.ConsecutiveFailures >= cfg.FailureThreshold {
				next = core.StatusUnhealthy
			}
		}

	case core.StatusUnhealthy:
		if result.Success {
			state.ConsecutiveFailures = 0
			state.ConsecutiveSuccesses++
			if state.ConsecutiveSuccesses >= cfg.RecoveryThreshold {
				next = core.StatusHealthy
				state.ConsecutiveFailures = 0
			}
		} else {
			state.ConsecutiveSuccesses = 0
			state.ConsecutiveFailures++
			next = core.StatusUnhealthy
		}
	}

	state.LastStatus = next
	return next, next != prev
}
