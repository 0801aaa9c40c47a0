// Package monitor implements a generic polling monitor: given a status
// probe, it yields statuses over time, enforces the execution-status
// transition DAG, and terminates on timeout or a terminal status.
package monitor

import (
	"context"
	"time"

	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgeerrors"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgetypes"
)

// Options bounds one monitor run.
type Options struct {
	Timeout      time.Duration
	PollInterval time.Duration
}

// WithDefaults fills zero fields with this package's defaults (60s timeout,
// 5s poll interval).
func (o Options) WithDefaults() Options {
	if o.Timeout == 0 {
		o.Timeout = 60 * time.Second
	}
	if o.PollInterval == 0 {
		o.PollInterval = 5 * time.Second
	}
	return o
}

// Probe reads the current status for whatever operation the caller bound
// it to. It must be safe to call repeatedly and cheaply (a single read,
// not a wait).
type Probe func(ctx context.Context) (bridgetypes.ExecutionStatus, error)

// Event is one value yielded on the channel Run returns: either a new
// status (key-distinct from the previous yield) or a terminal error
// (Timeout, or InvariantViolation on a DAG violation). After an error
// event the channel is closed; no further events follow.
type Event struct {
	Status bridgetypes.ExecutionStatus
	Err    error
}

// transitions is the execution-status DAG: every non-terminal status may
// additionally self-loop or move to Failed/Expired; those two universal
// edges are checked separately in Run rather than repeated in this table.
var transitions = map[bridgetypes.StatusKind][]bridgetypes.StatusKind{
	bridgetypes.StatusUnknown:           {bridgetypes.StatusInitiated},
	bridgetypes.StatusInitiated:         {bridgetypes.StatusFinalizedOnSource, bridgetypes.StatusExecutable},
	bridgetypes.StatusFinalizedOnSource: {bridgetypes.StatusProven, bridgetypes.StatusExecutable},
	bridgetypes.StatusProven:            {bridgetypes.StatusExecutable},
	bridgetypes.StatusExecutable:        {bridgetypes.StatusExecuting, bridgetypes.StatusExecuted},
	bridgetypes.StatusExecuting:         {bridgetypes.StatusExecuted},
}

func isAllowedTransition(from, to bridgetypes.StatusKind) bool {
	if from == to {
		return true
	}
	if to == bridgetypes.StatusFailed || to == bridgetypes.StatusExpired {
		return !isTerminalKind(from)
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func isTerminalKind(kind bridgetypes.StatusKind) bool {
	switch kind {
	case bridgetypes.StatusExecuted, bridgetypes.StatusFailed, bridgetypes.StatusExpired:
		return true
	default:
		return false
	}
}

// Run starts a fresh probe loop and returns a channel of Events. Calling
// Run again (even for the same logical operation) starts an independent
// loop — nothing in this package retains state across calls. The channel
// is closed once a terminal status, a DAG violation, a timeout, or ctx
// cancellation ends the run.
func Run(ctx context.Context, probe Probe, opts Options) <-chan Event {
	opts = opts.WithDefaults()
	out := make(chan Event)

	go func() {
		defer close(out)

		deadline := time.Now().Add(opts.Timeout)
		var lastKind bridgetypes.StatusKind
		var lastKey string
		haveLast := false

		for {
			status, err := probe(ctx)
			if err != nil {
				select {
				case out <- Event{Err: err}:
				case <-ctx.Done():
				}
				return
			}

			key := status.Key()
			if !haveLast || key != lastKey {
				if haveLast && !isAllowedTransition(lastKind, status.Kind) {
					violation := bridgeerrors.Newf(bridgeerrors.CodeInvariantViolated, bridgeerrors.StageMonitor,
						"illegal status transition %s -> %s", lastKind, status.Kind)
					select {
					case out <- Event{Err: violation}:
					case <-ctx.Done():
					}
					return
				}

				select {
				case out <- Event{Status: status}:
				case <-ctx.Done():
					return
				}
				lastKind = status.Kind
				lastKey = key
				haveLast = true

				if status.Terminal() {
					return
				}
			}

			if time.Now().After(deadline) {
				timeoutErr := bridgeerrors.New(bridgeerrors.CodeTimeout, bridgeerrors.StageMonitor, "monitor exceeded timeout")
				select {
				case out <- Event{Err: timeoutErr}:
				case <-ctx.Done():
				}
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(opts.PollInterval):
			}
		}
	}()

	return out
}
