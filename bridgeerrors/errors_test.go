package bridgeerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewFillsDefaultOutcome(t *testing.T) {
	r := require.New(t)

	err := New(CodeTimeout, StageMonitor, "gave up waiting")
	r.Equal(OutcomeRetry, err.Outcome)
	r.Equal(CodeTimeout, err.Code)
	r.Equal(StageMonitor, err.Stage)
}

func TestWithRouteAndChainAreChainable(t *testing.T) {
	r := require.New(t)

	err := New(CodeConfigError, StageInitiate, "bad config").WithRoute("solana:mainnet->eip155:1").WithChain("eip155:1")
	r.Equal("solana:mainnet->eip155:1", err.Route)
	r.Equal("eip155:1", err.Chain)
}

func TestWrapPreservesCauseForUnwrap(t *testing.T) {
	r := require.New(t)

	cause := errors.New("rpc dial refused")
	err := New(CodeRpcError, StageExecute, "submit tx").Wrap(cause)

	r.ErrorIs(err, cause)
	r.Contains(err.Error(), "rpc dial refused")
}

func TestIsMatchesWrappedBridgeError(t *testing.T) {
	r := require.New(t)

	inner := New(CodeAlreadyExecuted, StageExecute, "already ran")
	outer := fmt.Errorf("outer context: %w", inner)

	r.True(Is(outer, CodeAlreadyExecuted))
	r.False(Is(outer, CodeTimeout))
	r.False(Is(errors.New("plain error"), CodeTimeout))
}

func TestCodeOfExtractsWrappedCode(t *testing.T) {
	r := require.New(t)

	inner := New(CodeNotProven, StageExecute, "not yet")
	outer := fmt.Errorf("wrapped: %w", inner)

	code, ok := CodeOf(outer)
	r.True(ok)
	r.Equal(CodeNotProven, code)

	_, ok = CodeOf(errors.New("plain"))
	r.False(ok)
}
