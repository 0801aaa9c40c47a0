package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgeerrors"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgetypes"
)

func drain(t *testing.T, ch <-chan Event, timeout time.Duration) []Event {
	t.Helper()
	var events []Event
	deadline := time.After(timeout)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-deadline:
			t.Fatal("timed out draining monitor channel")
		}
	}
}

func TestRunYieldsEachStatusOnceAndStopsAtTerminal(t *testing.T) {
	r := require.New(t)

	sequence := []bridgetypes.ExecutionStatus{
		bridgetypes.UnknownStatus(time.Now()),
		bridgetypes.InitiatedStatus(time.Now(), "0xabc"),
		bridgetypes.ExecutableStatus(time.Now()),
		bridgetypes.ExecutedStatus(time.Now(), "0xdef"),
	}
	i := 0
	probe := func(ctx context.Context) (bridgetypes.ExecutionStatus, error) {
		if i >= len(sequence) {
			return sequence[len(sequence)-1], nil
		}
		s := sequence[i]
		i++
		return s, nil
	}

	ch := Run(context.Background(), probe, Options{Timeout: time.Second, PollInterval: time.Millisecond})
	events := drain(t, ch, 2*time.Second)

	r.Len(events, len(sequence))
	for idx, ev := range events {
		r.NoError(ev.Err)
		r.Equal(sequence[idx].Kind, ev.Status.Kind)
	}
}

func TestRunEmitsInvariantViolationOnIllegalTransition(t *testing.T) {
	r := require.New(t)

	sequence := []bridgetypes.ExecutionStatus{
		bridgetypes.UnknownStatus(time.Now()),
		bridgetypes.ExecutedStatus(time.Now(), "0xabc"),
	}
	i := 0
	probe := func(ctx context.Context) (bridgetypes.ExecutionStatus, error) {
		s := sequence[min(i, len(sequence)-1)]
		i++
		return s, nil
	}

	ch := Run(context.Background(), probe, Options{Timeout: time.Second, PollInterval: time.Millisecond})
	events := drain(t, ch, 2*time.Second)

	r.NotEmpty(events)
	last := events[len(events)-1]
	r.Error(last.Err)
	code, ok := bridgeerrors.CodeOf(last.Err)
	r.True(ok)
	r.Equal(bridgeerrors.CodeInvariantViolated, code)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func TestRunTimesOutWhenStatusNeverReachesTerminal(t *testing.T) {
	r := require.New(t)

	probe := func(ctx context.Context) (bridgetypes.ExecutionStatus, error) {
		return bridgetypes.ExecutableStatus(time.Now()), nil
	}

	ch := Run(context.Background(), probe, Options{Timeout: 20 * time.Millisecond, PollInterval: 5 * time.Millisecond})
	events := drain(t, ch, 2*time.Second)

	r.NotEmpty(events)
	last := events[len(events)-1]
	r.Error(last.Err)
	code, ok := bridgeerrors.CodeOf(last.Err)
	r.True(ok)
	r.Equal(bridgeerrors.CodeTimeout, code)
}

func TestRunStopsOnProbeError(t *testing.T) {
	r := require.New(t)

	boom := errors.New("boom")
	probe := func(ctx context.Context) (bridgetypes.ExecutionStatus, error) {
		return bridgetypes.ExecutionStatus{}, boom
	}

	ch := Run(context.Background(), probe, Options{Timeout: time.Second, PollInterval: time.Millisecond})
	events := drain(t, ch, 2*time.Second)

	r.Len(events, 1)
	r.ErrorIs(events[0].Err, boom)
}

func TestIsAllowedTransitionUniversalFailureEdge(t *testing.T) {
	r := require.New(t)

	r.True(isAllowedTransition(bridgetypes.StatusExecutable, bridgetypes.StatusFailed))
	r.True(isAllowedTransition(bridgetypes.StatusInitiated, bridgetypes.StatusExpired))
	r.False(isAllowedTransition(bridgetypes.StatusExecuted, bridgetypes.StatusFailed), "terminal states may not transition further")
}

func TestOptionsWithDefaults(t *testing.T) {
	r := require.New(t)

	opts := Options{}.WithDefaults()
	r.Equal(60*time.Second, opts.Timeout)
	r.Equal(5*time.Second, opts.PollInterval)

	custom := Options{Timeout: time.Minute, PollInterval: time.Second}.WithDefaults()
	r.Equal(time.Minute, custom.Timeout)
	r.Equal(time.Second, custom.PollInterval)
}
