// Package svmevm implements the SVM→EVM route adapter: an SVM-originated
// message that a relayer (or, absent one, the caller) carries through to
// EVM execution.
package svmevm

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgeerrors"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgetypes"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/chain/svmchain"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/engine/svmengine"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/identity"
)

// RemoteTokenKey is the BridgeRequest.Metadata key a registered-token
// transfer must carry: the 0x-hex EVM token address the SVM mint being
// sent is bridged to. BridgeRequest has no dedicated field for a
// destination token mapping distinct from the asset being sent, so this
// route borrows Metadata for it.
const RemoteTokenKey = "remoteToken"

// sourceEngine is the subset of *svmengine.Engine this route dispatches to
// for SVM-side initiation, narrowed to an interface so scenario tests can
// drive Adapter against a fake instead of a live RPC-backed engine.
type sourceEngine interface {
	FetchOutgoingMessage(ctx context.Context, pda svmchain.PublicKey) (identity.OutgoingMessage, error)
	BridgeNative(ctx context.Context, to svmchain.PublicKey, amount uint64, nestedCall []byte, opts svmengine.SendOptions) (svmengine.OutgoingResult, error)
	BridgeToken(ctx context.Context, to, mint svmchain.PublicKey, remoteToken [32]byte, amount uint64, opts svmengine.SendOptions) (svmengine.OutgoingResult, error)
	BridgeWrapped(ctx context.Context, to, mint svmchain.PublicKey, amount uint64, opts svmengine.SendOptions) (svmengine.OutgoingResult, error)
	BridgeCall(ctx context.Context, to [32]byte, value uint64, data []byte, callType uint8, opts svmengine.SendOptions) (svmengine.OutgoingResult, error)
}

// destinationEngine is the subset of *evmengine.Engine this route needs
// for EVM-side execution and status reads.
type destinationEngine interface {
	ExecuteMessage(ctx context.Context, msg identity.OutgoingMessage, gasLimit *uint64) (common.Hash, error)
	ReadSuccessOrFailure(ctx context.Context, outerHash [32]byte) (succeeded, failed bool, err error)
}

// Adapter is the SVM→EVM route.Adapter.
type Adapter struct {
	route        bridgetypes.BridgeRoute
	svm          sourceEngine
	evm          destinationEngine
	evmHasSigner bool
}

// New builds the SVM→EVM adapter for route. evmHasSigner reports whether
// the EVM engine's adapter holds a private key, which gates
// RouteCapabilities.ManualExecute. svmEngine/evmEngine are typically
// *svmengine.Engine/*evmengine.Engine, narrowed here to the methods this
// route actually calls.
func New(route bridgetypes.BridgeRoute, svmEngine sourceEngine, evmEngine destinationEngine, evmHasSigner bool) *Adapter {
	return &Adapter{route: route, svm: svmEngine, evm: evmEngine, evmHasSigner: evmHasSigner}
}

// Capabilities reports auto-relay execution with an optional manual
// fallback, and no separate prove step — SVM→EVM identity is entirely
// locally derivable, so there is nothing to submit for proof.
func (a *Adapter) Capabilities() bridgetypes.RouteCapabilities {
	return bridgetypes.RouteCapabilities{
		Steps:         []bridgetypes.Step{bridgetypes.StepInitiate, bridgetypes.StepExecute, bridgetypes.StepMonitor},
		AutoRelay:     true,
		ManualExecute: a.evmHasSigner,
		Prove:         false,
	}
}

// Initiate dispatches req to the matching svmengine operation and derives
// the destination-side outer hash up front, since it requires no further
// chain observation once the outgoing message account exists.
func (a *Adapter) Initiate(ctx context.Context, req bridgetypes.BridgeRequest) (bridgetypes.MessageRef, error) {
	if !req.Route.SourceChain.IsSVM() || !req.Route.DestinationChain.IsEVM() {
		return bridgetypes.MessageRef{}, bridgeerrors.Newf(bridgeerrors.CodeUnsupportedRoute, bridgeerrors.StageInitiate,
			"svmevm adapter cannot handle route %s", req.Route).WithRoute(req.Route.Key())
	}

	opts := svmengine.SendOptions{
		PayForRelay:    req.Relay.Mode == bridgetypes.RelayAuto,
		IdempotencyKey: req.IdempotencyKey,
	}
	if req.Relay.GasLimit != nil {
		opts.GasLimit = *req.Relay.GasLimit
	}

	result, err := a.send(ctx, req, opts)
	if err != nil {
		return bridgetypes.MessageRef{}, err
	}

	msg, err := a.svm.FetchOutgoingMessage(ctx, result.OutgoingMessagePda)
	if err != nil {
		return bridgetypes.MessageRef{}, err
	}
	_, _, outer, err := identity.DeriveOuterHash(msg)
	if err != nil {
		return bridgetypes.MessageRef{}, err
	}

	ref := bridgetypes.MessageRef{
		Route: req.Route,
		Source: bridgetypes.MessageEndpointRef{
			Chain: req.Route.SourceChain,
			Id:    bridgetypes.NewMessageId(bridgetypes.SchemeSvmOutgoingMessagePda, result.OutgoingMessagePda.String()),
		},
		Destination: &bridgetypes.MessageEndpointRef{
			Chain: req.Route.DestinationChain,
			Id:    bridgetypes.NewMessageId(bridgetypes.SchemeEvmBridgeOuterHash, hexPrefixed(outer[:])),
		},
	}
	return ref.WithDerived("signature", result.Signature), nil
}

func (a *Adapter) send(ctx context.Context, req bridgetypes.BridgeRequest, opts svmengine.SendOptions) (svmengine.OutgoingResult, error) {
	action := req.Action
	switch {
	case action.IsTransfer() && action.Asset.IsNative():
		to, err := addressTo32(action.Recipient)
		if err != nil {
			return svmengine.OutgoingResult{}, err
		}
		var nested []byte
		if action.HasNestedCall() {
			nested, err = encodeNestedCall(*action.NestedCall)
			if err != nil {
				return svmengine.OutgoingResult{}, err
			}
		}
		return a.svm.BridgeNative(ctx, to, action.Amount.Uint64(), nested, opts)

	case action.IsTransfer() && action.Asset.Kind == bridgetypes.AssetToken:
		remoteTokenHex, ok := req.Metadata[RemoteTokenKey]
		if !ok {
			return svmengine.OutgoingResult{}, bridgeerrors.New(bridgeerrors.CodeConfigError, bridgeerrors.StageInitiate,
				"token transfer requires metadata[\"remoteToken\"]")
		}
		mint, err := svmchain.DecodePublicKey(action.Asset.Address)
		if err != nil {
			return svmengine.OutgoingResult{}, bridgeerrors.New(bridgeerrors.CodeConfigError, bridgeerrors.StageInitiate, "decode asset mint").Wrap(err)
		}
		to, err := addressTo32(action.Recipient)
		if err != nil {
			return svmengine.OutgoingResult{}, err
		}
		remoteToken, err := addressToFixed(remoteTokenHex)
		if err != nil {
			return svmengine.OutgoingResult{}, err
		}
		return a.svm.BridgeToken(ctx, to, mint, remoteToken, action.Amount.Uint64(), opts)

	case action.IsTransfer() && action.Asset.Kind == bridgetypes.AssetWrapped:
		mint, err := svmchain.DecodePublicKey(action.Asset.Address)
		if err != nil {
			return svmengine.OutgoingResult{}, bridgeerrors.New(bridgeerrors.CodeConfigError, bridgeerrors.StageInitiate, "decode wrapped mint").Wrap(err)
		}
		to, err := addressTo32(action.Recipient)
		if err != nil {
			return svmengine.OutgoingResult{}, err
		}
		return a.svm.BridgeWrapped(ctx, to, mint, action.Amount.Uint64(), opts)

	case action.IsCall():
		to, err := addressToFixed(action.To)
		if err != nil {
			return svmengine.OutgoingResult{}, err
		}
		return a.svm.BridgeCall(ctx, to, action.Value.Uint64(), action.Data, uint8(action.CallType), opts)

	default:
		return svmengine.OutgoingResult{}, bridgeerrors.Newf(bridgeerrors.CodeUnsupportedAction, bridgeerrors.StageInitiate,
			"svmevm adapter cannot handle action kind %s / asset kind %s", action.Kind, action.Asset.Kind)
	}
}

// Prove always returns an UnsupportedStep error for this route:
// Capabilities().Prove is false.
func (a *Adapter) Prove(ctx context.Context, ref bridgetypes.MessageRef) (bridgetypes.MessageRef, error) {
	return bridgetypes.MessageRef{}, bridgeerrors.New(bridgeerrors.CodeUnsupportedStep, bridgeerrors.StageProve, "svmevm route has no prove step").WithRoute(ref.Route.Key())
}

// Execute drives EVM-side execution for ref. Requires ref.Destination to
// carry the outer hash computed at Initiate time; re-fetches the outgoing
// message from SVM to rebuild the identity.OutgoingMessage ExecuteMessage
// needs.
func (a *Adapter) Execute(ctx context.Context, ref bridgetypes.MessageRef) (bridgetypes.MessageRef, error) {
	if ref.Destination == nil || ref.Destination.Id.Scheme != bridgetypes.SchemeEvmBridgeOuterHash {
		return bridgetypes.MessageRef{}, bridgeerrors.New(bridgeerrors.CodeConfigError, bridgeerrors.StageExecute,
			"svmevm Execute requires a destination outer hash").WithRoute(ref.Route.Key())
	}
	if ref.Source.Id.Scheme != bridgetypes.SchemeSvmOutgoingMessagePda {
		return bridgetypes.MessageRef{}, bridgeerrors.New(bridgeerrors.CodeConfigError, bridgeerrors.StageExecute,
			"svmevm Execute requires an outgoing message PDA source").WithRoute(ref.Route.Key())
	}

	pda, err := svmchain.DecodePublicKey(ref.Source.Id.Value)
	if err != nil {
		return bridgetypes.MessageRef{}, bridgeerrors.New(bridgeerrors.CodeConfigError, bridgeerrors.StageExecute, "decode outgoing message pda").Wrap(err)
	}
	msg, err := a.svm.FetchOutgoingMessage(ctx, pda)
	if err != nil {
		return bridgetypes.MessageRef{}, err
	}

	txHash, err := a.evm.ExecuteMessage(ctx, msg, nil)
	if err != nil {
		return bridgetypes.MessageRef{}, err
	}

	return ref.WithDerived("executionTx", txHash.Hex()), nil
}

// Status reads successes/failures for the outer hash and maps them onto
// the generic ExecutionStatus variants this route is capable of
// producing: it has no separate FinalizedOnSource/Proven phase, so status
// is always Executed, Failed, or, while neither is recorded, Executable
// when ref carries the source transaction signature Initiate stores and
// Initiated otherwise. Validator approval is not read here.
func (a *Adapter) Status(ctx context.Context, ref bridgetypes.MessageRef) (bridgetypes.ExecutionStatus, error) {
	if ref.Destination == nil || ref.Destination.Id.Scheme != bridgetypes.SchemeEvmBridgeOuterHash {
		return bridgetypes.ExecutionStatus{}, bridgeerrors.New(bridgeerrors.CodeConfigError, bridgeerrors.StageMonitor,
			"svmevm Status requires a destination outer hash").WithRoute(ref.Route.Key())
	}
	outerHash, err := decodeHash32(ref.Destination.Id.Value)
	if err != nil {
		return bridgetypes.ExecutionStatus{}, bridgeerrors.New(bridgeerrors.CodeConfigError, bridgeerrors.StageMonitor, "decode outer hash").Wrap(err)
	}

	succeeded, failed, err := a.evm.ReadSuccessOrFailure(ctx, outerHash)
	if err != nil {
		return bridgetypes.ExecutionStatus{}, err
	}
	now := time.Now()
	switch {
	case succeeded:
		if executionTx, ok := ref.DerivedValue("executionTx"); ok {
			return bridgetypes.ExecutedStatus(now, executionTx), nil
		}
		return bridgetypes.ExecutedStatus(now, ""), nil
	case failed:
		return bridgetypes.FailedStatus(now, "destination recorded permanent failure", ""), nil
	default:
		if sig, ok := ref.DerivedValue("signature"); ok && sig != "" {
			return bridgetypes.ExecutableStatus(now), nil
		}
		return bridgetypes.InitiatedStatus(now, ""), nil
	}
}
