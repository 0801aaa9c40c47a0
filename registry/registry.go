// Package registry holds the route-adapter registry enforcing the
// hub-and-spoke invariant: every registered route must have one endpoint
// on the configured hub EVM chain.
package registry

import (
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgeerrors"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgetypes"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/route"
)

// Registry maps BridgeRoute keys to the route.Adapter that handles them.
type Registry struct {
	hubChain bridgetypes.ChainId
	adapters map[string]route.Adapter
	chains   map[bridgetypes.ChainId]struct{}
}

// New builds an empty Registry pinned to hubChain — the one EVM chain id
// every registered route must touch.
func New(hubChain bridgetypes.ChainId) *Registry {
	return &Registry{
		hubChain: hubChain,
		adapters: make(map[string]route.Adapter),
		chains:   make(map[bridgetypes.ChainId]struct{}),
	}
}

// Register adds an adapter for route r. It rejects routes that do not
// touch the hub chain (UnsupportedRoute) and duplicate registration of the
// same route key with ConfigError.
func (g *Registry) Register(r bridgetypes.BridgeRoute, adapter route.Adapter) error {
	if r.SourceChain != g.hubChain && r.DestinationChain != g.hubChain {
		return bridgeerrors.Newf(bridgeerrors.CodeUnsupportedRoute, bridgeerrors.StageInitiate,
			"route %s touches neither endpoint the configured hub chain %s", r, g.hubChain).WithRoute(r.Key())
	}
	if r.SourceChain == r.DestinationChain {
		return bridgeerrors.Newf(bridgeerrors.CodeUnsupportedRoute, bridgeerrors.StageInitiate,
			"route %s has identical source and destination chains", r).WithRoute(r.Key())
	}

	if _, exists := g.adapters[r.Key()]; exists {
		return bridgeerrors.Newf(bridgeerrors.CodeConfigError, bridgeerrors.StageInitiate, "route %s already registered", r).WithRoute(r.Key())
	}

	g.adapters[r.Key()] = adapter
	g.chains[r.SourceChain] = struct{}{}
	g.chains[r.DestinationChain] = struct{}{}
	return nil
}

// Resolve looks up the adapter for r, returning UnsupportedRoute if none
// is registered.
func (g *Registry) Resolve(r bridgetypes.BridgeRoute) (route.Adapter, error) {
	adapter, ok := g.adapters[r.Key()]
	if !ok {
		return nil, bridgeerrors.Newf(bridgeerrors.CodeUnsupportedRoute, bridgeerrors.StageInitiate, "no adapter registered for route %s", r).WithRoute(r.Key())
	}
	return adapter, nil
}

// Routes returns every registered route key, for diagnostics.
func (g *Registry) Routes() []string {
	keys := make([]string, 0, len(g.adapters))
	for k := range g.adapters {
		keys = append(keys, k)
	}
	return keys
}

// Chains returns every chain id touched by at least one registered route
// (the hub plus every connected spoke), for diagnostics.
func (g *Registry) Chains() []bridgetypes.ChainId {
	ids := make([]bridgetypes.ChainId, 0, len(g.chains))
	for id := range g.chains {
		ids = append(ids, id)
	}
	return ids
}
