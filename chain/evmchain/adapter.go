// Package evmchain implements the EVM chain adapter: read helpers backed
// by ethclient, and, when a signer is configured, write helpers that
// submit signed transactions. Grounded on
// other_examples/Pay-Chain-pay-chain.backend__onchain_adapter_usecase.go's
// ethclient.Client + accounts/abi + accounts/abi/bind usage.
package evmchain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/Cogwheel-Validator/spectra-bridge-sdk/chain"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgeerrors"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/logging"
)

// WalletMode discriminates whether the adapter can submit transactions.
type WalletMode string

const (
	WalletNone       WalletMode = "none"
	WalletPrivateKey WalletMode = "private_key"
)

// Config configures a new Adapter.
type Config struct {
	ChainId    string // CAIP-2 id, e.g. "eip155:8453"
	RpcURL     string
	PrivateKey string // optional hex private key, no "0x" prefix required
	Logger     logging.Logger
}

// Adapter is the EVM chain adapter.
type Adapter struct {
	chainId    string
	client     *ethclient.Client
	log        logging.Logger
	walletMode WalletMode
	privKey    *ecdsa.PrivateKey
	address    common.Address
	chainIdBig *big.Int
}

// Dial connects to the configured RPC endpoint and, if a private key is
// present, derives the signer address.
func Dial(ctx context.Context, cfg Config) (*Adapter, error) {
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	log = log.With("evmchain")

	client, err := ethclient.DialContext(ctx, cfg.RpcURL)
	if err != nil {
		return nil, bridgeerrors.New(bridgeerrors.CodeRpcError, bridgeerrors.StageInitiate, "dial evm rpc").
			WithChain(cfg.ChainId).Wrap(err)
	}

	a := &Adapter{chainId: cfg.ChainId, client: client, log: log, walletMode: WalletNone}

	if cfg.PrivateKey != "" {
		pk, err := crypto.HexToECDSA(cfg.PrivateKey)
		if err != nil {
			return nil, bridgeerrors.New(bridgeerrors.CodeConfigError, bridgeerrors.StageInitiate, "invalid evm private key").
				WithChain(cfg.ChainId).Wrap(err)
		}
		a.privKey = pk
		a.address = crypto.PubkeyToAddress(pk.PublicKey)
		a.walletMode = WalletPrivateKey
	}

	netId, err := client.ChainID(ctx)
	if err != nil {
		log.Warn("could not read chain id from rpc; using configured id only", logging.Fields{"error": err.Error()})
	} else {
		a.chainIdBig = netId
	}

	return a, nil
}

func (a *Adapter) Kind() chain.Kind    { return chain.KindEVM }
func (a *Adapter) HasSigner() bool     { return a.walletMode == WalletPrivateKey }
func (a *Adapter) Address() common.Address { return a.address }

func (a *Adapter) Ping(ctx context.Context) error {
	_, err := a.client.BlockNumber(ctx)
	if err != nil {
		return bridgeerrors.New(bridgeerrors.CodeRpcError, bridgeerrors.StageMonitor, "evm ping failed").
			WithChain(a.chainId).Wrap(err)
	}
	return nil
}

// BlockNumber reads the chain's latest block number.
func (a *Adapter) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := a.client.BlockNumber(ctx)
	if err != nil {
		return 0, bridgeerrors.New(bridgeerrors.CodeRpcError, bridgeerrors.StageMonitor, "read block number").
			WithChain(a.chainId).Wrap(err)
	}
	return n, nil
}

// TransactionReceipt reads a transaction receipt by hash.
func (a *Adapter) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	r, err := a.client.TransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, bridgeerrors.New(bridgeerrors.CodeRpcError, bridgeerrors.StageProve, "read transaction receipt").
			WithChain(a.chainId).Wrap(err)
	}
	return r, nil
}

// ReadContract performs a generic eth_call against a contract, optionally
// at a specific block number (nil means "latest").
func (a *Adapter) ReadContract(ctx context.Context, to common.Address, data []byte, blockNumber *big.Int) ([]byte, error) {
	out, err := a.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, blockNumber)
	if err != nil {
		return nil, bridgeerrors.New(bridgeerrors.CodeRpcError, bridgeerrors.StageExecute, "read contract call").
			WithChain(a.chainId).Wrap(err)
	}
	return out, nil
}

// Call is one read in a Multicall batch.
type Call struct {
	Target common.Address
	Data   []byte
}

// Multicall batches reads through Multicall3's aggregate3 with
// allowFailure=false for every call, giving all-success-or-fail semantics:
// if any call reverts, the whole multicall reverts and Multicall returns
// an error rather than partial results.
func (a *Adapter) Multicall(ctx context.Context, multicall3Address common.Address, calls []Call) ([][]byte, error) {
	multicallABI := mustMulticall3ABI()

	type aggregate3Call struct {
		Target       common.Address
		AllowFailure bool
		CallData     []byte
	}
	packedCalls := make([]aggregate3Call, len(calls))
	for i, c := range calls {
		packedCalls[i] = aggregate3Call{Target: c.Target, AllowFailure: false, CallData: c.Data}
	}

	input, err := multicallABI.Pack("aggregate3", packedCalls)
	if err != nil {
		return nil, bridgeerrors.New(bridgeerrors.CodeInvariantViolated, bridgeerrors.StageExecute, "pack multicall aggregate3").Wrap(err)
	}

	out, err := a.ReadContract(ctx, multicall3Address, input, nil)
	if err != nil {
		return nil, err
	}

	results, err := multicallABI.Unpack("aggregate3", out)
	if err != nil {
		return nil, bridgeerrors.New(bridgeerrors.CodeInvariantViolated, bridgeerrors.StageExecute, "unpack multicall aggregate3").Wrap(err)
	}

	// go-ethereum's abi.Unpack returns the anonymous struct slice type
	// declared by the ABI, which cannot be named here directly; decode it
	// through a small type-switch helper instead.
	decoded, err := decodeAggregate3Results(results[0])
	if err != nil {
		return nil, bridgeerrors.New(bridgeerrors.CodeInvariantViolated, bridgeerrors.StageExecute, "decode multicall results").Wrap(err)
	}

	returnData := make([][]byte, len(decoded))
	for i, r := range decoded {
		if !r.Success {
			return nil, bridgeerrors.Newf(bridgeerrors.CodeExecutionReverted, bridgeerrors.StageExecute, "multicall entry %d reverted", i)
		}
		returnData[i] = r.ReturnData
	}
	return returnData, nil
}

type aggregate3Result struct {
	Success    bool
	ReturnData []byte
}

func decodeAggregate3Results(v any) ([]aggregate3Result, error) {
	rv, ok := v.([]struct {
		Success    bool
		ReturnData []byte
	})
	if ok {
		out := make([]aggregate3Result, len(rv))
		for i, e := range rv {
			out[i] = aggregate3Result{Success: e.Success, ReturnData: e.ReturnData}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unexpected aggregate3 return shape %T", v)
}

// WriteRequest describes a contract-call transaction to submit.
type WriteRequest struct {
	To       common.Address
	Data     []byte
	Value    *big.Int
	GasLimit uint64 // 0 means "estimate"
}

// WriteContract signs and submits a transaction. It is only usable when
// the adapter was configured with a private key.
func (a *Adapter) WriteContract(ctx context.Context, req WriteRequest) (common.Hash, error) {
	if a.walletMode != WalletPrivateKey {
		return common.Hash{}, bridgeerrors.New(bridgeerrors.CodeConfigError, bridgeerrors.StageExecute, "evm adapter has no signer configured").
			WithChain(a.chainId)
	}

	nonce, err := a.client.PendingNonceAt(ctx, a.address)
	if err != nil {
		return common.Hash{}, bridgeerrors.New(bridgeerrors.CodeRpcError, bridgeerrors.StageExecute, "read pending nonce").WithChain(a.chainId).Wrap(err)
	}

	gasTip, err := a.client.SuggestGasTipCap(ctx)
	if err != nil {
		gasTip = big.NewInt(1_500_000_000) // 1.5 gwei fallback
	}
	head, err := a.client.HeaderByNumber(ctx, nil)
	var gasFeeCap *big.Int
	if err == nil && head.BaseFee != nil {
		gasFeeCap = new(big.Int).Add(new(big.Int).Mul(head.BaseFee, big.NewInt(2)), gasTip)
	} else {
		gasFeeCap = new(big.Int).Add(gasTip, big.NewInt(20_000_000_000))
	}

	value := req.Value
	if value == nil {
		value = big.NewInt(0)
	}

	gasLimit := req.GasLimit
	if gasLimit == 0 {
		estimated, err := a.EstimateGas(ctx, a.address, req.To, req.Data, value)
		if err != nil {
			return common.Hash{}, err
		}
		gasLimit = estimated
	}

	chainID := a.chainIdBig
	if chainID == nil {
		return common.Hash{}, bridgeerrors.New(bridgeerrors.CodeConfigError, bridgeerrors.StageExecute, "evm chain id unavailable").WithChain(a.chainId)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: gasTip,
		GasFeeCap: gasFeeCap,
		Gas:       gasLimit,
		To:        &req.To,
		Value:     value,
		Data:      req.Data,
	})

	signer := types.LatestSignerForChainID(chainID)
	signedTx, err := types.SignTx(tx, signer, a.privKey)
	if err != nil {
		return common.Hash{}, bridgeerrors.New(bridgeerrors.CodeInvariantViolated, bridgeerrors.StageExecute, "sign transaction").Wrap(err)
	}

	if err := a.client.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, bridgeerrors.New(bridgeerrors.CodeRpcError, bridgeerrors.StageExecute, "send transaction").WithChain(a.chainId).Wrap(err)
	}

	a.log.Info("submitted evm transaction", logging.Fields{"tx": signedTx.Hash().Hex(), "to": req.To.Hex()})
	return signedTx.Hash(), nil
}

// EstimateGas estimates gas for a call, falling back to a conservative
// default when the node's estimate errors (a revert-shaped estimate error
// commonly occurs for destination calls whose preconditions only exist
// once the relay has run).
func (a *Adapter) EstimateGas(ctx context.Context, from, to common.Address, data []byte, value *big.Int) (uint64, error) {
	est, err := a.client.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Data: data, Value: value})
	if err != nil {
		const fallbackGasLimit = 300_000
		a.log.Warn("gas estimation failed, using fallback", logging.Fields{"error": err.Error(), "fallback": fallbackGasLimit})
		return fallbackGasLimit, nil
	}
	return est, nil
}

// TransactOpts builds a *bind.TransactOpts for callers that want to drive
// a generated contract binding directly instead of using WriteContract.
func (a *Adapter) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if a.walletMode != WalletPrivateKey {
		return nil, bridgeerrors.New(bridgeerrors.CodeConfigError, bridgeerrors.StageExecute, "evm adapter has no signer configured")
	}
	if a.chainIdBig == nil {
		return nil, bridgeerrors.New(bridgeerrors.CodeConfigError, bridgeerrors.StageExecute, "evm chain id unavailable")
	}
	return bind.NewKeyedTransactorWithChainID(a.privKey, a.chainIdBig)
}

var multicall3ABIJSON = `[
	{"inputs":[{"components":[{"internalType":"address","name":"target","type":"address"},{"internalType":"bool","name":"allowFailure","type":"bool"},{"internalType":"bytes","name":"callData","type":"bytes"}],"internalType":"struct Multicall3.Call3[]","name":"calls","type":"tuple[]"}],
	 "name":"aggregate3",
	 "outputs":[{"components":[{"internalType":"bool","name":"success","type":"bool"},{"internalType":"bytes","name":"returnData","type":"bytes"}],"internalType":"struct Multicall3.Result[]","name":"returnData","type":"tuple[]"}],
	 "stateMutability":"payable","type":"function"}
]`

var cachedMulticall3ABI *abi.ABI

func mustMulticall3ABI() abi.ABI {
	if cachedMulticall3ABI != nil {
		return *cachedMulticall3ABI
	}
	parsed, err := abi.JSON(strings.NewReader(multicall3ABIJSON))
	if err != nil {
		panic(fmt.Sprintf("invalid multicall3 abi literal: %v", err))
	}
	cachedMulticall3ABI = &parsed
	return parsed
}
