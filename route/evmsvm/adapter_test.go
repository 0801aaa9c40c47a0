package evmsvm

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgeerrors"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgetypes"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/chain/svmchain"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/engine/evmengine"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/engine/svmengine"
)

// systemProgram is a well-known all-zero SVM pubkey (base58 of 32 zero
// bytes), used throughout as a placeholder mint/recipient.
const systemProgram = "11111111111111111111111111111111"

// fakeEVMSource satisfies sourceEngine. Only BridgeToken/DecodeInitiated/
// GenerateProof are exercised by the scenarios below.
type fakeEVMSource struct {
	txHash       common.Hash
	tokenErr     error
	initiated    evmengine.MessageInitiated
	initiatedErr error
	proof        [][32]byte
	proofErr     error
}

func (f *fakeEVMSource) BridgeToken(ctx context.Context, transfer evmengine.Transfer, ixs []evmengine.Ix, value *big.Int) (common.Hash, error) {
	if f.tokenErr != nil {
		return common.Hash{}, f.tokenErr
	}
	return f.txHash, nil
}

func (f *fakeEVMSource) BridgeCall(ctx context.Context, ixs []evmengine.Ix, value *big.Int) (common.Hash, error) {
	return common.Hash{}, bridgeerrors.New(bridgeerrors.CodeUnsupportedAction, bridgeerrors.StageInitiate, "BridgeCall not exercised by this scenario")
}

func (f *fakeEVMSource) DecodeInitiated(ctx context.Context, txHash common.Hash) (evmengine.MessageInitiated, error) {
	return f.initiated, f.initiatedErr
}

func (f *fakeEVMSource) GenerateProof(ctx context.Context, txHash common.Hash, destinationRecordedBlock uint64) (evmengine.MessageInitiated, [][32]byte, error) {
	return f.initiated, f.proof, f.proofErr
}

// fakeSVMDestination satisfies destinationEngine.
type fakeSVMDestination struct {
	destBlock        uint64
	proveResult      svmengine.ProveResult
	proveErr         error
	execSig          string
	execErr          error
	incomingExecuted bool
	incomingExists   bool
	incomingErr      error
}

func (f *fakeSVMDestination) LatestDestinationBlockNumber(ctx context.Context) (uint64, error) {
	return f.destBlock, nil
}

func (f *fakeSVMDestination) ProveIncomingMessage(ctx context.Context, event svmengine.IncomingEvent, proof [][32]byte, blockNumber uint64, signerPath string) (svmengine.ProveResult, error) {
	return f.proveResult, f.proveErr
}

func (f *fakeSVMDestination) ExecuteIncomingMessage(ctx context.Context, messageHash [32]byte, remaining []svmengine.RemainingAccount, signerPath string) (string, error) {
	if f.execErr != nil {
		return "", f.execErr
	}
	return f.execSig, nil
}

func (f *fakeSVMDestination) IncomingMessageState(ctx context.Context, messageHash [32]byte) (svmchain.PublicKey, bool, bool, error) {
	return svmchain.PublicKey{}, f.incomingExecuted, f.incomingExists, f.incomingErr
}

func testRoute() bridgetypes.BridgeRoute {
	return bridgetypes.BridgeRoute{SourceChain: "eip155:8453", DestinationChain: "solana:mainnet"}
}

func tokenTransferRequest(route bridgetypes.BridgeRoute) bridgetypes.BridgeRequest {
	return bridgetypes.BridgeRequest{
		Route:    route,
		Action:   bridgetypes.NewTransferAction(bridgetypes.NewTokenAsset("0x0000000000000000000000000000000000000001"), big.NewInt(42), systemProgram, nil),
		Metadata: map[string]string{RemoteMintKey: systemProgram},
	}
}

// TestTokenTransferProveThenExecute drives scenario 3: an EVM-originated
// token transfer through Initiate, Prove, and Execute, then asserts a
// second Execute against an already-executed message propagates the
// engine's error unchanged.
func TestTokenTransferProveThenExecute(t *testing.T) {
	r := require.New(t)

	route := testRoute()
	messageHash := [32]byte{0xaa}
	initiated := evmengine.MessageInitiated{MessageHash: messageHash, Nonce: 3, BlockNumber: 100}

	evm := &fakeEVMSource{
		txHash:    common.HexToHash("0x01"),
		initiated: initiated,
		proof:     [][32]byte{{0x01}},
	}
	svm := &fakeSVMDestination{
		proveResult: svmengine.ProveResult{Signature: "prove-sig", MessageHash: messageHash},
		execSig:     "exec-sig",
	}
	a := New(route, evm, svm)

	ref, err := a.Initiate(context.Background(), tokenTransferRequest(route))
	r.NoError(err)
	r.Equal(bridgetypes.SchemeEvmMessageHash, ref.Source.Id.Scheme)
	txHashDerived, ok := ref.DerivedValue("txHash")
	r.True(ok)
	r.Equal(evm.txHash.Hex(), txHashDerived)

	proven, err := a.Prove(context.Background(), ref)
	r.NoError(err)
	proveTx, ok := proven.DerivedValue("proveTx")
	r.True(ok)
	r.Equal("prove-sig", proveTx)

	executed, err := a.Execute(context.Background(), proven)
	r.NoError(err)
	execTx, ok := executed.DerivedValue("executionTx")
	r.True(ok)
	r.Equal("exec-sig", execTx)

	svm.execErr = bridgeerrors.New(bridgeerrors.CodeAlreadyExecuted, bridgeerrors.StageExecute, "incoming message already executed")
	_, err = a.Execute(context.Background(), executed)
	r.Error(err)
	code, ok := bridgeerrors.CodeOf(err)
	r.True(ok)
	r.Equal(bridgeerrors.CodeAlreadyExecuted, code)
}

// TestInitiateErrors is a table of the ways a request can fail at
// Initiate, the missing destination-mint mapping among them.
func TestInitiateErrors(t *testing.T) {
	route := testRoute()

	cases := []struct {
		name     string
		req      bridgetypes.BridgeRequest
		wantCode bridgeerrors.Code
	}{
		{
			name: "token transfer missing remoteMint metadata",
			req: bridgetypes.BridgeRequest{
				Route:  route,
				Action: bridgetypes.NewTransferAction(bridgetypes.NewTokenAsset("0x0000000000000000000000000000000000000001"), big.NewInt(1), systemProgram, nil),
			},
			wantCode: bridgeerrors.CodeConfigError,
		},
		{
			name: "route direction mismatch",
			req: bridgetypes.BridgeRequest{
				Route:  bridgetypes.BridgeRoute{SourceChain: "solana:mainnet", DestinationChain: "eip155:8453"},
				Action: bridgetypes.NewTransferAction(bridgetypes.NewTokenAsset("0x0000000000000000000000000000000000000001"), big.NewInt(1), systemProgram, nil),
			},
			wantCode: bridgeerrors.CodeUnsupportedRoute,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := require.New(t)
			a := New(route, &fakeEVMSource{}, &fakeSVMDestination{})
			_, err := a.Initiate(context.Background(), tc.req)
			r.Error(err)
			code, ok := bridgeerrors.CodeOf(err)
			r.True(ok)
			r.Equal(tc.wantCode, code)
		})
	}
}

func TestStatusTransitionsFromInitiatedToExecuted(t *testing.T) {
	r := require.New(t)

	route := testRoute()
	messageHash := [32]byte{0xbb}
	ref := bridgetypes.MessageRef{
		Route:  route,
		Source: bridgetypes.MessageEndpointRef{Chain: route.SourceChain, Id: bridgetypes.NewMessageId(bridgetypes.SchemeEvmMessageHash, hexPrefixed(messageHash[:]))},
	}
	ref = ref.WithDerived("txHash", "0x01")

	svm := &fakeSVMDestination{incomingExists: false}
	a := New(route, &fakeEVMSource{}, svm)

	status, err := a.Status(context.Background(), ref)
	r.NoError(err)
	r.Equal(bridgetypes.StatusInitiated, status.Kind)

	svm.incomingExists = true
	svm.incomingExecuted = true
	status, err = a.Status(context.Background(), ref)
	r.NoError(err)
	r.Equal(bridgetypes.StatusExecuted, status.Kind)
}
