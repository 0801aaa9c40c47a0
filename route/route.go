// Package route defines the contract every directional route adapter
// (route/svmevm, route/evmsvm) implements.
package route

import (
	"context"

	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgetypes"
)

// Adapter is one direction's bridge logic: how to initiate, (optionally)
// prove, execute, and read status for a BridgeRequest on this route.
// Registered one per (source, destination) chain pair by registry.Registry.
type Adapter interface {
	// Capabilities reports what this route supports, so callers and the
	// bridge client can skip steps that do not apply.
	Capabilities() bridgetypes.RouteCapabilities

	// Initiate dispatches req to the appropriate source-engine operation
	// and returns the resulting MessageRef.
	Initiate(ctx context.Context, req bridgetypes.BridgeRequest) (bridgetypes.MessageRef, error)

	// Prove submits (or idempotently confirms) the destination-side proof
	// for ref. Returns UnsupportedStep if Capabilities().Prove is false.
	Prove(ctx context.Context, ref bridgetypes.MessageRef) (bridgetypes.MessageRef, error)

	// Execute drives destination-side execution for ref.
	Execute(ctx context.Context, ref bridgetypes.MessageRef) (bridgetypes.MessageRef, error)

	// Status reads the current ExecutionStatus for ref without blocking.
	Status(ctx context.Context, ref bridgetypes.MessageRef) (bridgetypes.ExecutionStatus, error)
}
