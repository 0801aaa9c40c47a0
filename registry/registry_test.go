package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgeerrors"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgetypes"
)

type fakeAdapter struct{}

func (fakeAdapter) Capabilities() bridgetypes.RouteCapabilities { return bridgetypes.RouteCapabilities{} }
func (fakeAdapter) Initiate(ctx context.Context, req bridgetypes.BridgeRequest) (bridgetypes.MessageRef, error) {
	return bridgetypes.MessageRef{}, nil
}
func (fakeAdapter) Prove(ctx context.Context, ref bridgetypes.MessageRef) (bridgetypes.MessageRef, error) {
	return bridgetypes.MessageRef{}, nil
}
func (fakeAdapter) Execute(ctx context.Context, ref bridgetypes.MessageRef) (bridgetypes.MessageRef, error) {
	return bridgetypes.MessageRef{}, nil
}
func (fakeAdapter) Status(ctx context.Context, ref bridgetypes.MessageRef) (bridgetypes.ExecutionStatus, error) {
	return bridgetypes.ExecutionStatus{}, nil
}

const (
	hubEVM  bridgetypes.ChainId = "eip155:1"
	svmMain bridgetypes.ChainId = "solana:mainnet"
	otherEVM bridgetypes.ChainId = "eip155:137"
)

func TestRegisterAcceptsRouteTouchingHub(t *testing.T) {
	r := require.New(t)

	g := New(hubEVM)
	err := g.Register(bridgetypes.BridgeRoute{SourceChain: svmMain, DestinationChain: hubEVM}, fakeAdapter{})
	r.NoError(err)

	adapter, err := g.Resolve(bridgetypes.BridgeRoute{SourceChain: svmMain, DestinationChain: hubEVM})
	r.NoError(err)
	r.NotNil(adapter)
}

func TestRegisterRejectsRouteNotTouchingHub(t *testing.T) {
	r := require.New(t)

	g := New(hubEVM)
	err := g.Register(bridgetypes.BridgeRoute{SourceChain: svmMain, DestinationChain: otherEVM}, fakeAdapter{})
	r.Error(err)
	code, ok := bridgeerrors.CodeOf(err)
	r.True(ok)
	r.Equal(bridgeerrors.CodeUnsupportedRoute, code)
}

func TestRegisterRejectsIdenticalSourceAndDestination(t *testing.T) {
	r := require.New(t)

	g := New(hubEVM)
	err := g.Register(bridgetypes.BridgeRoute{SourceChain: hubEVM, DestinationChain: hubEVM}, fakeAdapter{})
	r.Error(err)
	code, ok := bridgeerrors.CodeOf(err)
	r.True(ok)
	r.Equal(bridgeerrors.CodeUnsupportedRoute, code)
}

func TestRegisterRejectsDuplicateRoute(t *testing.T) {
	r := require.New(t)

	g := New(hubEVM)
	route := bridgetypes.BridgeRoute{SourceChain: svmMain, DestinationChain: hubEVM}
	r.NoError(g.Register(route, fakeAdapter{}))

	err := g.Register(route, fakeAdapter{})
	r.Error(err)
	code, ok := bridgeerrors.CodeOf(err)
	r.True(ok)
	r.Equal(bridgeerrors.CodeConfigError, code)
}

func TestChainsListsHubAndEveryConnectedSpoke(t *testing.T) {
	r := require.New(t)

	g := New(hubEVM)
	r.NoError(g.Register(bridgetypes.BridgeRoute{SourceChain: svmMain, DestinationChain: hubEVM}, fakeAdapter{}))
	r.NoError(g.Register(bridgetypes.BridgeRoute{SourceChain: hubEVM, DestinationChain: otherEVM}, fakeAdapter{}))

	chains := g.Chains()
	r.Len(chains, 3)
	r.Contains(chains, hubEVM)
	r.Contains(chains, svmMain)
	r.Contains(chains, otherEVM)
}

func TestResolveUnregisteredRouteFails(t *testing.T) {
	r := require.New(t)

	g := New(hubEVM)
	_, err := g.Resolve(bridgetypes.BridgeRoute{SourceChain: svmMain, DestinationChain: hubEVM})
	r.Error(err)
	code, ok := bridgeerrors.CodeOf(err)
	r.True(ok)
	r.Equal(bridgeerrors.CodeUnsupportedRoute, code)
}

func TestRoutesListsAllRegistered(t *testing.T) {
	r := require.New(t)

	g := New(hubEVM)
	routeA := bridgetypes.BridgeRoute{SourceChain: svmMain, DestinationChain: hubEVM}
	r.NoError(g.Register(routeA, fakeAdapter{}))

	keys := g.Routes()
	r.Len(keys, 1)
	r.Equal(routeA.Key(), keys[0])
}
