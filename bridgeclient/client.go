// Package bridgeclient is the SDK's public entry point: a thin dispatcher
// that resolves a BridgeRoute to its route.Adapter through a registry and
// drives initiate/prove/execute/status/monitor against it.
package bridgeclient

import (
	"context"
	"math/big"

	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgeerrors"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgetypes"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/logging"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/monitor"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/registry"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/route"
)

// Config configures a new BridgeClient.
type Config struct {
	Registry       *registry.Registry
	DefaultRelay   bridgetypes.RelayOptions
	MonitorOptions monitor.Options
	Logger         logging.Logger
}

// BridgeClient is the chain-agnostic facade every caller of this SDK
// drives: one client, any number of registered routes.
type BridgeClient struct {
	registry     *registry.Registry
	defaultRelay bridgetypes.RelayOptions
	monitorOpts  monitor.Options
	log          logging.Logger
}

// New builds a BridgeClient around an already-populated Registry.
func New(cfg Config) *BridgeClient {
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	log = log.With("bridgeclient")

	defaultRelay := cfg.DefaultRelay
	if defaultRelay.Mode == "" {
		defaultRelay = bridgetypes.DefaultRelayOptions()
	}

	return &BridgeClient{
		registry:     cfg.Registry,
		defaultRelay: defaultRelay,
		monitorOpts:  cfg.MonitorOptions.WithDefaults(),
		log:          log,
	}
}

// RequestOption customizes a BridgeRequest built by Transfer or Call.
type RequestOption func(*bridgetypes.BridgeRequest)

// WithIdempotencyKey seeds the request's per-message salt deterministically.
func WithIdempotencyKey(key string) RequestOption {
	return func(r *bridgetypes.BridgeRequest) { r.IdempotencyKey = key }
}

// WithRelay overrides the client's default relay options for one request.
func WithRelay(relay bridgetypes.RelayOptions) RequestOption {
	return func(r *bridgetypes.BridgeRequest) { r.Relay = relay }
}

// WithMetadata attaches route-specific hints (e.g. svmevm's "remoteToken",
// evmsvm's "remoteMint"/"svmRemainingAccounts") a particular route needs.
func WithMetadata(metadata map[string]string) RequestOption {
	return func(r *bridgetypes.BridgeRequest) { r.Metadata = metadata }
}

// Transfer builds and initiates an asset transfer over route.
func (c *BridgeClient) Transfer(ctx context.Context, chainRoute bridgetypes.BridgeRoute, asset bridgetypes.AssetRef, amount *big.Int, recipient string, opts ...RequestOption) (bridgetypes.MessageRef, error) {
	req := bridgetypes.BridgeRequest{
		Route:  chainRoute,
		Action: bridgetypes.NewTransferAction(asset, amount, recipient, nil),
		Relay:  c.defaultRelay,
	}
	for _, opt := range opts {
		opt(&req)
	}
	return c.Request(ctx, req)
}

// TransferHuman is Transfer for callers holding a human-decimal amount
// (e.g. "1.5") rather than a wire-exact integer, converting it at
// decimals precision via bridgetypes.ParseDecimalAmount before dispatch.
func (c *BridgeClient) TransferHuman(ctx context.Context, chainRoute bridgetypes.BridgeRoute, asset bridgetypes.AssetRef, humanAmount string, decimals int32, recipient string, opts ...RequestOption) (bridgetypes.MessageRef, error) {
	amount, err := bridgetypes.ParseDecimalAmount(humanAmount, decimals)
	if err != nil {
		return bridgetypes.MessageRef{}, bridgeerrors.New(bridgeerrors.CodeConfigError, bridgeerrors.StageInitiate, "parse human transfer amount").Wrap(err)
	}
	return c.Transfer(ctx, chainRoute, asset, amount, recipient, opts...)
}

// Call builds and initiates an arbitrary destination-side call over route.
func (c *BridgeClient) Call(ctx context.Context, chainRoute bridgetypes.BridgeRoute, to string, value *big.Int, data []byte, callType bridgetypes.CallType, opts ...RequestOption) (bridgetypes.MessageRef, error) {
	req := bridgetypes.BridgeRequest{
		Route:  chainRoute,
		Action: bridgetypes.NewCallAction(to, value, data, callType),
		Relay:  c.defaultRelay,
	}
	for _, opt := range opts {
		opt(&req)
	}
	return c.Request(ctx, req)
}

// Request initiates an already-built BridgeRequest, for callers building a
// nested-call action Transfer/Call cannot express directly.
func (c *BridgeClient) Request(ctx context.Context, req bridgetypes.BridgeRequest) (bridgetypes.MessageRef, error) {
	adapter, err := c.registry.Resolve(req.Route)
	if err != nil {
		return bridgetypes.MessageRef{}, err
	}
	c.log.Debug("initiate", logging.Fields{"route": req.Route.Key()})
	ref, err := adapter.Initiate(ctx, req)
	if err != nil {
		c.log.Error("initiate failed", err, logging.Fields{"route": req.Route.Key()})
		return bridgetypes.MessageRef{}, err
	}
	return ref, nil
}

// Prove submits (or idempotently confirms) ref's destination-side proof.
// Returns UnsupportedStep if the route has no prove step.
func (c *BridgeClient) Prove(ctx context.Context, ref bridgetypes.MessageRef) (bridgetypes.MessageRef, error) {
	adapter, err := c.registry.Resolve(ref.Route)
	if err != nil {
		return bridgetypes.MessageRef{}, err
	}
	if !adapter.Capabilities().Prove {
		return bridgetypes.MessageRef{}, bridgeerrors.New(bridgeerrors.CodeUnsupportedStep, bridgeerrors.StageProve, "route has no prove step").WithRoute(ref.Route.Key())
	}
	return adapter.Prove(ctx, ref)
}

// Execute drives destination-side execution for ref.
func (c *BridgeClient) Execute(ctx context.Context, ref bridgetypes.MessageRef) (bridgetypes.MessageRef, error) {
	adapter, err := c.registry.Resolve(ref.Route)
	if err != nil {
		return bridgetypes.MessageRef{}, err
	}
	return adapter.Execute(ctx, ref)
}

// Status reads the current ExecutionStatus for ref without blocking.
func (c *BridgeClient) Status(ctx context.Context, ref bridgetypes.MessageRef) (bridgetypes.ExecutionStatus, error) {
	adapter, err := c.registry.Resolve(ref.Route)
	if err != nil {
		return bridgetypes.ExecutionStatus{}, err
	}
	return adapter.Status(ctx, ref)
}

// Monitor starts a polling monitor over ref's status, using the client's
// default monitor options unless override is given.
func (c *BridgeClient) Monitor(ctx context.Context, ref bridgetypes.MessageRef, override *monitor.Options) (<-chan monitor.Event, error) {
	adapter, err := c.registry.Resolve(ref.Route)
	if err != nil {
		return nil, err
	}
	opts := c.monitorOpts
	if override != nil {
		opts = override.WithDefaults()
	}
	probe := func(ctx context.Context) (bridgetypes.ExecutionStatus, error) {
		return adapter.Status(ctx, ref)
	}
	return monitor.Run(ctx, probe, opts), nil
}

// ResolveRoute exposes the underlying route.Adapter for route, for callers
// that need direct access beyond this facade (e.g. capability checks
// before building a request).
func (c *BridgeClient) ResolveRoute(chainRoute bridgetypes.BridgeRoute) (route.Adapter, error) {
	return c.registry.Resolve(chainRoute)
}

// Capabilities reports what route supports.
func (c *BridgeClient) Capabilities(chainRoute bridgetypes.BridgeRoute) (bridgetypes.RouteCapabilities, error) {
	adapter, err := c.registry.Resolve(chainRoute)
	if err != nil {
		return bridgetypes.RouteCapabilities{}, err
	}
	return adapter.Capabilities(), nil
}
