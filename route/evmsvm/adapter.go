// Package evmsvm implements the EVM→SVM route adapter: an EVM-originated
// message that always needs an explicit prove step and, absent a
// registered relayer, manual execution on SVM.
package evmsvm

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgeerrors"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgetypes"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/chain/svmchain"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/engine/evmengine"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/engine/svmengine"
)

// RemoteMintKey is the BridgeRequest.Metadata key a token transfer must
// carry: the base58 SVM mint the EVM-side localToken is bridged to.
const RemoteMintKey = "remoteMint"

// RemainingAccountsKey is the BridgeRequest.Metadata key that carries the
// SVM accounts ExecuteIncomingMessage needs beyond the fixed set (payer,
// incoming-message PDA, CPI authority): recipient token accounts, vaults,
// any nested-call program and its accounts. The bridge client has no
// generic way to derive these from an opaque on-chain payload, so the
// caller supplies them once at Initiate time and this route threads them
// through MessageRef.Derived to Execute. Format: comma-separated
// "base58Pubkey:signer:writable" entries, e.g. "Abc...:0:1,Def...:0:0".
const RemainingAccountsKey = "svmRemainingAccounts"

// sourceEngine is the subset of *evmengine.Engine this route dispatches to
// for EVM-side initiation and proving, narrowed to an interface so
// scenario tests can drive Adapter against a fake instead of a live
// ethclient-backed engine.
type sourceEngine interface {
	BridgeToken(ctx context.Context, transfer evmengine.Transfer, ixs []evmengine.Ix, value *big.Int) (common.Hash, error)
	BridgeCall(ctx context.Context, ixs []evmengine.Ix, value *big.Int) (common.Hash, error)
	DecodeInitiated(ctx context.Context, txHash common.Hash) (evmengine.MessageInitiated, error)
	GenerateProof(ctx context.Context, txHash common.Hash, destinationRecordedBlock uint64) (evmengine.MessageInitiated, [][32]byte, error)
}

// destinationEngine is the subset of *svmengine.Engine this route needs
// for SVM-side proving, execution, and status reads.
type destinationEngine interface {
	LatestDestinationBlockNumber(ctx context.Context) (uint64, error)
	ProveIncomingMessage(ctx context.Context, event svmengine.IncomingEvent, proof [][32]byte, blockNumber uint64, signerPath string) (svmengine.ProveResult, error)
	ExecuteIncomingMessage(ctx context.Context, messageHash [32]byte, remaining []svmengine.RemainingAccount, signerPath string) (string, error)
	IncomingMessageState(ctx context.Context, messageHash [32]byte) (pda svmchain.PublicKey, executed bool, exists bool, err error)
}

// Adapter is the EVM→SVM route.Adapter.
type Adapter struct {
	route bridgetypes.BridgeRoute
	evm   sourceEngine
	svm   destinationEngine
}

// New builds the EVM→SVM adapter for route. evmEngine/svmEngine are
// typically *evmengine.Engine/*svmengine.Engine, narrowed here to the
// methods this route actually calls.
func New(route bridgetypes.BridgeRoute, evmEngine sourceEngine, svmEngine destinationEngine) *Adapter {
	return &Adapter{route: route, evm: evmEngine, svm: svmEngine}
}

// Capabilities reports a mandatory prove step and manual execution: this
// direction has no analogue to SVM→EVM's locally-derivable outer hash, so
// a relayer (or the caller) must submit both proof and execution.
func (a *Adapter) Capabilities() bridgetypes.RouteCapabilities {
	return bridgetypes.RouteCapabilities{
		Steps:         []bridgetypes.Step{bridgetypes.StepInitiate, bridgetypes.StepProve, bridgetypes.StepExecute, bridgetypes.StepMonitor},
		AutoRelay:     false,
		ManualExecute: true,
		Prove:         true,
	}
}

// Initiate submits the EVM-side bridgeToken/bridgeCall transaction and
// decodes the emitted MessageInitiated log to learn the protocol message
// hash immediately, without waiting for a proof.
func (a *Adapter) Initiate(ctx context.Context, req bridgetypes.BridgeRequest) (bridgetypes.MessageRef, error) {
	if !req.Route.SourceChain.IsEVM() || !req.Route.DestinationChain.IsSVM() {
		return bridgetypes.MessageRef{}, bridgeerrors.Newf(bridgeerrors.CodeUnsupportedRoute, bridgeerrors.StageInitiate,
			"evmsvm adapter cannot handle route %s", req.Route).WithRoute(req.Route.Key())
	}

	txHash, err := a.send(ctx, req)
	if err != nil {
		return bridgetypes.MessageRef{}, err
	}

	initiated, err := a.evm.DecodeInitiated(ctx, txHash)
	if err != nil {
		return bridgetypes.MessageRef{}, err
	}

	ref := bridgetypes.MessageRef{
		Route: req.Route,
		Source: bridgetypes.MessageEndpointRef{
			Chain: req.Route.SourceChain,
			Id:    bridgetypes.NewMessageId(bridgetypes.SchemeEvmMessageHash, hexPrefixed(initiated.MessageHash[:])),
		},
	}
	ref = ref.WithDerived("txHash", txHash.Hex())
	ref = ref.WithDerived("nonce", uint64ToString(initiated.Nonce))
	if remaining, ok := req.Metadata[RemainingAccountsKey]; ok {
		ref = ref.WithDerived(RemainingAccountsKey, remaining)
	}
	return ref, nil
}

func (a *Adapter) send(ctx context.Context, req bridgetypes.BridgeRequest) (common.Hash, error) {
	action := req.Action
	switch {
	case action.IsTransfer() && action.Asset.Kind == bridgetypes.AssetToken:
		remoteMintBase58, ok := req.Metadata[RemoteMintKey]
		if !ok {
			return common.Hash{}, bridgeerrors.New(bridgeerrors.CodeConfigError, bridgeerrors.StageInitiate,
				"token transfer requires metadata[\"remoteMint\"]")
		}
		remoteMint, err := svmchain.DecodePublicKey(remoteMintBase58)
		if err != nil {
			return common.Hash{}, bridgeerrors.New(bridgeerrors.CodeConfigError, bridgeerrors.StageInitiate, "decode remote mint").Wrap(err)
		}
		to, err := svmchain.DecodePublicKey(action.Recipient)
		if err != nil {
			return common.Hash{}, bridgeerrors.New(bridgeerrors.CodeConfigError, bridgeerrors.StageInitiate, "decode SVM recipient").Wrap(err)
		}
		if !action.Amount.IsUint64() {
			return common.Hash{}, bridgeerrors.New(bridgeerrors.CodeInvariantViolated, bridgeerrors.StageInitiate, "transfer amount exceeds uint64 range")
		}
		transfer := evmengine.Transfer{
			LocalToken:  common.HexToAddress(action.Asset.Address),
			RemoteToken: [32]byte(remoteMint),
			To:          [32]byte(to),
			Amount:      action.Amount.Uint64(),
		}
		ixs, err := nestedIxs(action.NestedCall)
		if err != nil {
			return common.Hash{}, err
		}
		return a.evm.BridgeToken(ctx, transfer, ixs, big.NewInt(0))

	case action.IsCall():
		to, err := svmchain.DecodePublicKey(action.To)
		if err != nil {
			return common.Hash{}, bridgeerrors.New(bridgeerrors.CodeConfigError, bridgeerrors.StageInitiate, "decode SVM call target").Wrap(err)
		}
		value := action.Value
		if value == nil {
			value = big.NewInt(0)
		}
		ix := evmengine.Ix{Target: firstBytes20(to), Value: big.NewInt(0), Data: action.Data}
		return a.evm.BridgeCall(ctx, []evmengine.Ix{ix}, value)

	default:
		return common.Hash{}, bridgeerrors.Newf(bridgeerrors.CodeUnsupportedAction, bridgeerrors.StageInitiate,
			"evmsvm adapter cannot handle action kind %s / asset kind %s", action.Kind, action.Asset.Kind)
	}
}

func nestedIxs(nested *bridgetypes.BridgeAction) ([]evmengine.Ix, error) {
	if nested == nil {
		return nil, nil
	}
	to, err := svmchain.DecodePublicKey(nested.To)
	if err != nil {
		return nil, bridgeerrors.New(bridgeerrors.CodeConfigError, bridgeerrors.StageInitiate, "decode nested call target").Wrap(err)
	}
	value := nested.Value
	if value == nil {
		value = big.NewInt(0)
	}
	return []evmengine.Ix{{Target: firstBytes20(to), Value: value, Data: nested.Data}}, nil
}

// Prove submits (idempotently) the Merkle proof for this message once the
// SVM-recorded EVM block height covers it.
func (a *Adapter) Prove(ctx context.Context, ref bridgetypes.MessageRef) (bridgetypes.MessageRef, error) {
	txHashHex, ok := ref.DerivedValue("txHash")
	if !ok {
		return bridgetypes.MessageRef{}, bridgeerrors.New(bridgeerrors.CodeConfigError, bridgeerrors.StageProve,
			"evmsvm Prove requires a derived EVM tx hash from Initiate").WithRoute(ref.Route.Key())
	}
	txHash := common.HexToHash(txHashHex)

	destinationBlock, err := a.svm.LatestDestinationBlockNumber(ctx)
	if err != nil {
		return bridgetypes.MessageRef{}, err
	}
	initiated, proof, err := a.evm.GenerateProof(ctx, txHash, destinationBlock)
	if err != nil {
		return bridgetypes.MessageRef{}, err
	}

	event := svmengine.IncomingEvent{
		MessageHash: initiated.MessageHash,
		MmrRoot:     initiated.MmrRoot,
		Nonce:       initiated.Nonce,
		Sender:      initiated.Sender,
		Ty:          initiated.Ty,
		Data:        initiated.Data,
	}
	result, err := a.svm.ProveIncomingMessage(ctx, event, proof, initiated.BlockNumber, "")
	if err != nil {
		return bridgetypes.MessageRef{}, err
	}

	out := ref
	if result.Signature != "" {
		out = out.WithDerived("proveTx", result.Signature)
	}
	return out, nil
}

// Execute drives SVM-side execution. Requires ref.Source to carry the
// protocol message hash, and (unless already proven with no execution
// pending) the remaining-accounts hint from Initiate/Metadata.
func (a *Adapter) Execute(ctx context.Context, ref bridgetypes.MessageRef) (bridgetypes.MessageRef, error) {
	if ref.Source.Id.Scheme != bridgetypes.SchemeEvmMessageHash {
		return bridgetypes.MessageRef{}, bridgeerrors.New(bridgeerrors.CodeConfigError, bridgeerrors.StageExecute,
			"evmsvm Execute requires an EVM message hash source").WithRoute(ref.Route.Key())
	}
	messageHash, err := decodeHash32(ref.Source.Id.Value)
	if err != nil {
		return bridgetypes.MessageRef{}, bridgeerrors.New(bridgeerrors.CodeConfigError, bridgeerrors.StageExecute, "decode message hash").Wrap(err)
	}

	remainingRaw, _ := ref.DerivedValue(RemainingAccountsKey)
	remaining, err := parseRemainingAccounts(remainingRaw)
	if err != nil {
		return bridgetypes.MessageRef{}, err
	}

	sig, err := a.svm.ExecuteIncomingMessage(ctx, messageHash, remaining, "")
	if err != nil {
		return bridgetypes.MessageRef{}, err
	}
	return ref.WithDerived("executionTx", sig), nil
}

// Status derives status from whether the incoming-message PDA exists yet
// (Initiated) and, once it does, whether it is marked executed.
func (a *Adapter) Status(ctx context.Context, ref bridgetypes.MessageRef) (bridgetypes.ExecutionStatus, error) {
	if ref.Source.Id.Scheme != bridgetypes.SchemeEvmMessageHash {
		return bridgetypes.ExecutionStatus{}, bridgeerrors.New(bridgeerrors.CodeConfigError, bridgeerrors.StageMonitor,
			"evmsvm Status requires an EVM message hash source").WithRoute(ref.Route.Key())
	}
	messageHash, err := decodeHash32(ref.Source.Id.Value)
	if err != nil {
		return bridgetypes.ExecutionStatus{}, bridgeerrors.New(bridgeerrors.CodeConfigError, bridgeerrors.StageMonitor, "decode message hash").Wrap(err)
	}

	_, executed, exists, err := a.svm.IncomingMessageState(ctx, messageHash)
	if err != nil {
		return bridgetypes.ExecutionStatus{}, err
	}

	now := time.Now()
	switch {
	case !exists:
		if txHash, ok := ref.DerivedValue("txHash"); ok {
			return bridgetypes.InitiatedStatus(now, txHash), nil
		}
		return bridgetypes.UnknownStatus(now), nil
	case executed:
		executionTx, _ := ref.DerivedValue("executionTx")
		return bridgetypes.ExecutedStatus(now, executionTx), nil
	default:
		if proveTx, ok := ref.DerivedValue("proveTx"); ok {
			return bridgetypes.ProvenStatus(now, proveTx), nil
		}
		return bridgetypes.ExecutableStatus(now), nil
	}
}
