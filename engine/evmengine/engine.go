// Package evmengine implements the EVM source engine: the operations that
// submit EVM-originated bridge transactions, generate SVM-side proofs, and
// drive SVM→EVM terminal execution.
package evmengine

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgeerrors"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/chain/evmchain"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/identity"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/logging"
)

// Options configures the EVM engine's timing defaults for
// approval-polling behavior.
type Options struct {
	// ApprovalPollIntervalMs is the starting interval waitForApproval
	// polls at before backoff growth.
	ApprovalPollIntervalMs uint64
	// ApprovalBackoffCapMs bounds how large the poll interval may grow to,
	// configurable rather than hardcoded (defaults to 30s).
	ApprovalBackoffCapMs uint64
	// ApprovalTimeoutMs bounds the overall waitForApproval wait.
	ApprovalTimeoutMs uint64
}

func (o Options) withDefaults() Options {
	if o.ApprovalPollIntervalMs == 0 {
		o.ApprovalPollIntervalMs = 5_000
	}
	if o.ApprovalBackoffCapMs == 0 {
		o.ApprovalBackoffCapMs = 30_000
	}
	if o.ApprovalTimeoutMs == 0 {
		o.ApprovalTimeoutMs = 60_000
	}
	return o
}

// Config configures a new Engine.
type Config struct {
	Adapter           *evmchain.Adapter
	BridgeContract    common.Address
	BridgeValidator   common.Address
	Multicall3Address common.Address
	Options           Options
	Logger            logging.Logger
}

// Engine is the EVM source engine.
type Engine struct {
	adapter           *evmchain.Adapter
	bridgeContract    common.Address
	bridgeValidator   common.Address
	multicall3Address common.Address
	opts              Options
	log               logging.Logger
}

// New builds an Engine.
func New(cfg Config) *Engine {
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	log = log.With("evmengine")
	return &Engine{
		adapter:           cfg.Adapter,
		bridgeContract:    cfg.BridgeContract,
		bridgeValidator:   cfg.BridgeValidator,
		multicall3Address: cfg.Multicall3Address,
		opts:              cfg.Options.withDefaults(),
		log:               log,
	}
}

// BridgeCall forwards an instruction batch to SVM with no token transfer.
func (e *Engine) BridgeCall(ctx context.Context, ixs []Ix, value *big.Int) (common.Hash, error) {
	data, err := packBridgeCall(ixs)
	if err != nil {
		return common.Hash{}, bridgeerrors.New(bridgeerrors.CodeInvariantViolated, bridgeerrors.StageInitiate, "pack bridgeCall").Wrap(err)
	}
	return e.adapter.WriteContract(ctx, evmchain.WriteRequest{To: e.bridgeContract, Data: data, Value: value})
}

// BridgeToken submits a token transfer, optionally with an attached
// instruction batch to run after crediting on SVM.
func (e *Engine) BridgeToken(ctx context.Context, transfer Transfer, ixs []Ix, value *big.Int) (common.Hash, error) {
	data, err := packBridgeToken(transfer, ixs)
	if err != nil {
		return common.Hash{}, bridgeerrors.New(bridgeerrors.CodeInvariantViolated, bridgeerrors.StageInitiate, "pack bridgeToken").Wrap(err)
	}
	return e.adapter.WriteContract(ctx, evmchain.WriteRequest{To: e.bridgeContract, Data: data, Value: value})
}

// GenerateProof reads the transaction receipt for txHash, locates the sole
// MessageInitiated log, asserts the destination-recorded height is at
// least as new as the log's block, and reads the bridge contract's Merkle
// proof for that message's nonce at that block.
func (e *Engine) GenerateProof(ctx context.Context, txHash common.Hash, destinationRecordedBlock uint64) (MessageInitiated, [][32]byte, error) {
	receipt, err := e.adapter.TransactionReceipt(ctx, txHash)
	if err != nil {
		return MessageInitiated{}, nil, err
	}
	initiated, err := decodeInitiatedFromReceipt(receipt, e.bridgeContract)
	if err != nil {
		return MessageInitiated{}, nil, err
	}

	if destinationRecordedBlock < initiated.BlockNumber {
		return MessageInitiated{}, nil, bridgeerrors.Newf(bridgeerrors.CodeNotFinal, bridgeerrors.StageProve,
			"destination recorded height %d behind source log block %d", destinationRecordedBlock, initiated.BlockNumber)
	}

	proofInput, err := packGenerateProof(initiated.Nonce)
	if err != nil {
		return MessageInitiated{}, nil, bridgeerrors.New(bridgeerrors.CodeInvariantViolated, bridgeerrors.StageProve, "pack generateProof").Wrap(err)
	}
	blockArg := new(big.Int).SetUint64(initiated.BlockNumber)
	out, err := e.adapter.ReadContract(ctx, e.bridgeContract, proofInput, blockArg)
	if err != nil {
		return MessageInitiated{}, nil, err
	}
	proof, err := unpackBytes32Array(out, "generateProof")
	if err != nil {
		return MessageInitiated{}, nil, bridgeerrors.New(bridgeerrors.CodeInvariantViolated, bridgeerrors.StageProve, "unpack generateProof").Wrap(err)
	}
	return initiated, proof, nil
}

// DecodeInitiated reads txHash's receipt and decodes its MessageInitiated
// log without checking destination finality, for callers (the EVM→SVM
// route adapter's Initiate) that need the message shape immediately after
// submission, before any proof step runs.
func (e *Engine) DecodeInitiated(ctx context.Context, txHash common.Hash) (MessageInitiated, error) {
	receipt, err := e.adapter.TransactionReceipt(ctx, txHash)
	if err != nil {
		return MessageInitiated{}, err
	}
	return decodeInitiatedFromReceipt(receipt, e.bridgeContract)
}

// EstimateGasForCall is a thin pass-through to the adapter's gas estimator.
func (e *Engine) EstimateGasForCall(ctx context.Context, to common.Address, data []byte, value *big.Int) (uint64, error) {
	var from common.Address
	if e.adapter.HasSigner() {
		from = e.adapter.Address()
	}
	return e.adapter.EstimateGas(ctx, from, to, data, value)
}

// ExecuteMessage builds the EVM-side IncomingMessage for an SVM-originated
// outgoing message, computes its outer hash, and drives the
// successes/failures/getMessageHash/relayMessages sequence.
func (e *Engine) ExecuteMessage(ctx context.Context, msg identity.OutgoingMessage, gasLimit *uint64) (common.Hash, error) {
	ty, _, outerHash, err := identity.DeriveOuterHash(msg)
	if err != nil {
		return common.Hash{}, err
	}
	_, payloadData, err := identity.EncodePayload(msg.Action)
	if err != nil {
		return common.Hash{}, err
	}
	incoming := IncomingMessage{Nonce: msg.Nonce, Sender: msg.Sender, Ty: uint8(ty), Data: payloadData}

	successesInput, err := packSuccesses(outerHash)
	if err != nil {
		return common.Hash{}, err
	}
	failuresInput, err := packFailures(outerHash)
	if err != nil {
		return common.Hash{}, err
	}
	hashInput, err := packGetMessageHash(incoming)
	if err != nil {
		return common.Hash{}, err
	}

	results, err := e.adapter.Multicall(ctx, e.multicall3Address, []evmchain.Call{
		{Target: e.bridgeContract, Data: successesInput},
		{Target: e.bridgeContract, Data: failuresInput},
		{Target: e.bridgeContract, Data: hashInput},
	})
	if err != nil {
		return common.Hash{}, err
	}

	succeeded, err := unpackBool(results[0], "successes", false)
	if err != nil {
		return common.Hash{}, bridgeerrors.New(bridgeerrors.CodeInvariantViolated, bridgeerrors.StageExecute, "unpack successes").Wrap(err)
	}
	if succeeded {
		// Already executed: idempotent no-op, return the outer hash as a
		// virtual transaction identifier.
		return common.Hash(outerHash), nil
	}

	failed, err := unpackBool(results[1], "failures", false)
	if err != nil {
		return common.Hash{}, bridgeerrors.New(bridgeerrors.CodeInvariantViolated, bridgeerrors.StageExecute, "unpack failures").Wrap(err)
	}
	if failed {
		return common.Hash{}, bridgeerrors.New(bridgeerrors.CodeMessageFailed, bridgeerrors.StageExecute, "destination recorded permanent failure")
	}

	reportedHash, err := unpackBytes32(results[2], "getMessageHash")
	if err != nil {
		return common.Hash{}, bridgeerrors.New(bridgeerrors.CodeInvariantViolated, bridgeerrors.StageExecute, "unpack getMessageHash").Wrap(err)
	}
	if reportedHash != outerHash {
		return common.Hash{}, bridgeerrors.New(bridgeerrors.CodeInvariantViolated, bridgeerrors.StageExecute, "getMessageHash does not match locally derived outer hash")
	}

	if err := e.waitForApproval(ctx, outerHash); err != nil {
		return common.Hash{}, err
	}

	relayInput, err := packRelayMessages([]IncomingMessage{incoming})
	if err != nil {
		return common.Hash{}, bridgeerrors.New(bridgeerrors.CodeInvariantViolated, bridgeerrors.StageExecute, "pack relayMessages").Wrap(err)
	}
	req := evmchain.WriteRequest{To: e.bridgeContract, Data: relayInput}
	if gasLimit != nil {
		req.GasLimit = *gasLimit
	}
	return e.adapter.WriteContract(ctx, req)
}

// waitForApproval polls the bridge validator's validMessages(outerHash)
// with exponential backoff: starts at ApprovalPollIntervalMs, grows ×1.5,
// caps at ApprovalBackoffCapMs, bounded by ApprovalTimeoutMs overall.
func (e *Engine) waitForApproval(ctx context.Context, outerHash [32]byte) error {
	input, err := packValidMessages(outerHash)
	if err != nil {
		return bridgeerrors.New(bridgeerrors.CodeInvariantViolated, bridgeerrors.StageExecute, "pack validMessages").Wrap(err)
	}

	deadline := time.Now().Add(time.Duration(e.opts.ApprovalTimeoutMs) * time.Millisecond)
	interval := time.Duration(e.opts.ApprovalPollIntervalMs) * time.Millisecond
	backoffCap := time.Duration(e.opts.ApprovalBackoffCapMs) * time.Millisecond

	for {
		out, err := e.adapter.ReadContract(ctx, e.bridgeValidator, input, nil)
		if err != nil {
			return err
		}
		approved, err := unpackBool(out, "validMessages", true)
		if err != nil {
			return bridgeerrors.New(bridgeerrors.CodeInvariantViolated, bridgeerrors.StageExecute, "unpack validMessages").Wrap(err)
		}
		if approved {
			return nil
		}
		if time.Now().After(deadline) {
			return bridgeerrors.New(bridgeerrors.CodeTimeout, bridgeerrors.StageExecute, "waitForApproval exceeded timeout")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
		interval = time.Duration(float64(interval) * 1.5)
		if interval > backoffCap {
			interval = backoffCap
		}
	}
}

// MonitorExecution repeatedly polls successes(outerHash) until true,
// firing Timeout on expiry. Route adapters typically drive this through
// the shared monitor package instead of calling it directly, but it is
// exposed here as the raw probe.
func (e *Engine) MonitorExecution(ctx context.Context, outerHash [32]byte, timeout, pollInterval time.Duration) error {
	deadline := time.Now().Add(timeout)
	input, err := packSuccesses(outerHash)
	if err != nil {
		return err
	}
	for {
		out, err := e.adapter.ReadContract(ctx, e.bridgeContract, input, nil)
		if err != nil {
			return err
		}
		done, err := unpackBool(out, "successes", false)
		if err != nil {
			return bridgeerrors.New(bridgeerrors.CodeInvariantViolated, bridgeerrors.StageMonitor, "unpack successes").Wrap(err)
		}
		if done {
			return nil
		}
		if time.Now().After(deadline) {
			return bridgeerrors.New(bridgeerrors.CodeTimeout, bridgeerrors.StageMonitor, "monitorExecution exceeded timeout")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// ReadSuccessOrFailure reads successes/failures for outerHash in one
// multicall, used by the SVM→EVM route adapter's status probe.
func (e *Engine) ReadSuccessOrFailure(ctx context.Context, outerHash [32]byte) (succeeded, failed bool, err error) {
	successesInput, err := packSuccesses(outerHash)
	if err != nil {
		return false, false, err
	}
	failuresInput, err := packFailures(outerHash)
	if err != nil {
		return false, false, err
	}
	results, err := e.adapter.Multicall(ctx, e.multicall3Address, []evmchain.Call{
		{Target: e.bridgeContract, Data: successesInput},
		{Target: e.bridgeContract, Data: failuresInput},
	})
	if err != nil {
		return false, false, err
	}
	succeeded, err = unpackBool(results[0], "successes", false)
	if err != nil {
		return false, false, err
	}
	failed, err = unpackBool(results[1], "failures", false)
	if err != nil {
		return false, false, err
	}
	return succeeded, failed, nil
}
