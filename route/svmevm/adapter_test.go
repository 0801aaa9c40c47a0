package svmevm

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgeerrors"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgetypes"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/chain/svmchain"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/engine/svmengine"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/identity"
)

// systemProgram is a well-known all-zero SVM pubkey (base58 of 32 zero
// bytes), used throughout as a placeholder mint/recipient/sender.
const systemProgram = "11111111111111111111111111111111"

func repeatHex(pair string, n int) string { return strings.Repeat(pair, n) }

var recipientHex = "0x" + repeatHex("aa", 20)

// fakeSVMSource satisfies sourceEngine. Only BridgeNative/BridgeToken are
// exercised by the scenarios below; the unused methods return errors so a
// test accidentally depending on them fails loudly.
type fakeSVMSource struct {
	pda        svmchain.PublicKey
	signature  string
	nativeErr  error
	tokenErr   error
	msg        identity.OutgoingMessage
	msgErr     error
	lastNative svmengine.SendOptions
}

func (f *fakeSVMSource) FetchOutgoingMessage(ctx context.Context, pda svmchain.PublicKey) (identity.OutgoingMessage, error) {
	return f.msg, f.msgErr
}

func (f *fakeSVMSource) BridgeNative(ctx context.Context, to svmchain.PublicKey, amount uint64, nestedCall []byte, opts svmengine.SendOptions) (svmengine.OutgoingResult, error) {
	f.lastNative = opts
	if f.nativeErr != nil {
		return svmengine.OutgoingResult{}, f.nativeErr
	}
	return svmengine.OutgoingResult{OutgoingMessagePda: f.pda, Signature: f.signature}, nil
}

func (f *fakeSVMSource) BridgeToken(ctx context.Context, to, mint svmchain.PublicKey, remoteToken [32]byte, amount uint64, opts svmengine.SendOptions) (svmengine.OutgoingResult, error) {
	if f.tokenErr != nil {
		return svmengine.OutgoingResult{}, f.tokenErr
	}
	return svmengine.OutgoingResult{OutgoingMessagePda: f.pda, Signature: f.signature}, nil
}

func (f *fakeSVMSource) BridgeWrapped(ctx context.Context, to, mint svmchain.PublicKey, amount uint64, opts svmengine.SendOptions) (svmengine.OutgoingResult, error) {
	return svmengine.OutgoingResult{}, bridgeerrors.New(bridgeerrors.CodeUnsupportedAction, bridgeerrors.StageInitiate, "BridgeWrapped not exercised by this scenario")
}

func (f *fakeSVMSource) BridgeCall(ctx context.Context, to [32]byte, value uint64, data []byte, callType uint8, opts svmengine.SendOptions) (svmengine.OutgoingResult, error) {
	return svmengine.OutgoingResult{}, bridgeerrors.New(bridgeerrors.CodeUnsupportedAction, bridgeerrors.StageInitiate, "BridgeCall not exercised by this scenario")
}

// fakeEVMDestination satisfies destinationEngine.
type fakeEVMDestination struct {
	execTxHash common.Hash
	execErr    error
	succeeded  bool
	failed     bool
	statusErr  error
}

func (f *fakeEVMDestination) ExecuteMessage(ctx context.Context, msg identity.OutgoingMessage, gasLimit *uint64) (common.Hash, error) {
	return f.execTxHash, f.execErr
}

func (f *fakeEVMDestination) ReadSuccessOrFailure(ctx context.Context, outerHash [32]byte) (bool, bool, error) {
	return f.succeeded, f.failed, f.statusErr
}

func testRoute() bridgetypes.BridgeRoute {
	return bridgetypes.BridgeRoute{SourceChain: "solana:mainnet", DestinationChain: "eip155:8453"}
}

func nativeTransferRequest(route bridgetypes.BridgeRoute) bridgetypes.BridgeRequest {
	return bridgetypes.BridgeRequest{
		Route:  route,
		Action: bridgetypes.NewTransferAction(bridgetypes.NewNativeAsset(), big.NewInt(1_000_000), recipientHex, nil),
		Relay:  bridgetypes.DefaultRelayOptions(),
	}
}

// TestNativeTransferAutoRelayReachesExecuted drives scenario 1: an
// SVM-originated native transfer with auto relay, Initiate through Status
// observing the destination-side success.
func TestNativeTransferAutoRelayReachesExecuted(t *testing.T) {
	r := require.New(t)

	route := testRoute()
	pda := svmchain.PublicKey{0x01}
	svm := &fakeSVMSource{
		pda:       pda,
		signature: "sig-native-1",
		msg:       identity.OutgoingMessage{Nonce: 1, Sender: [32]byte{0x02}, Action: nativeTransferRequest(route).Action, ProgramId: pda},
	}
	evm := &fakeEVMDestination{}
	a := New(route, svm, evm, true)

	ref, err := a.Initiate(context.Background(), nativeTransferRequest(route))
	r.NoError(err)
	r.Equal(bridgetypes.SchemeSvmOutgoingMessagePda, ref.Source.Id.Scheme)
	r.Equal(pda.String(), ref.Source.Id.Value)
	r.NotNil(ref.Destination)
	r.Equal(bridgetypes.SchemeEvmBridgeOuterHash, ref.Destination.Id.Scheme)
	sig, ok := ref.DerivedValue("signature")
	r.True(ok)
	r.Equal("sig-native-1", sig)
	r.True(svm.lastNative.PayForRelay, "auto relay must set PayForRelay")

	evm.succeeded = true
	evm.execTxHash = common.HexToHash("0xbeef")
	status, err := a.Status(context.Background(), ref)
	r.NoError(err)
	r.Equal(bridgetypes.StatusExecuted, status.Kind)
}

// TestInitiateErrors is a table of the ways a request can fail at
// Initiate, scenario 2 (missing destination-token mapping) among them.
func TestInitiateErrors(t *testing.T) {
	route := testRoute()

	cases := []struct {
		name     string
		req      bridgetypes.BridgeRequest
		wantCode bridgeerrors.Code
	}{
		{
			name: "token transfer missing remoteToken metadata",
			req: bridgetypes.BridgeRequest{
				Route:  route,
				Action: bridgetypes.NewTransferAction(bridgetypes.NewTokenAsset(systemProgram), big.NewInt(1), recipientHex, nil),
			},
			wantCode: bridgeerrors.CodeConfigError,
		},
		{
			name: "route direction mismatch",
			req: bridgetypes.BridgeRequest{
				Route:  bridgetypes.BridgeRoute{SourceChain: "eip155:8453", DestinationChain: "solana:mainnet"},
				Action: bridgetypes.NewTransferAction(bridgetypes.NewNativeAsset(), big.NewInt(1), recipientHex, nil),
			},
			wantCode: bridgeerrors.CodeUnsupportedRoute,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := require.New(t)
			a := New(route, &fakeSVMSource{}, &fakeEVMDestination{}, true)
			_, err := a.Initiate(context.Background(), tc.req)
			r.Error(err)
			code, ok := bridgeerrors.CodeOf(err)
			r.True(ok)
			r.Equal(tc.wantCode, code)
		})
	}
}

// TestInitiateIsIdempotentForSameKey drives scenario 4: submitting the same
// request twice under the same idempotency key must thread that key
// through to the engine unchanged, and (since the underlying engine derives
// the outgoing PDA deterministically from it) resolve to the same message
// ref both times.
func TestInitiateIsIdempotentForSameKey(t *testing.T) {
	r := require.New(t)

	route := testRoute()
	pda := svmchain.PublicKey{0x03}
	svm := &fakeSVMSource{
		pda:       pda,
		signature: "sig-idempotent",
		msg:       identity.OutgoingMessage{Nonce: 5, Sender: [32]byte{0x04}, Action: nativeTransferRequest(route).Action, ProgramId: pda},
	}
	a := New(route, svm, &fakeEVMDestination{}, true)

	req := nativeTransferRequest(route)
	req.IdempotencyKey = "retry-key-1"

	first, err := a.Initiate(context.Background(), req)
	r.NoError(err)
	r.Equal("retry-key-1", svm.lastNative.IdempotencyKey)

	second, err := a.Initiate(context.Background(), req)
	r.NoError(err)
	r.Equal("retry-key-1", svm.lastNative.IdempotencyKey)

	r.Equal(first.Source.Id, second.Source.Id, "same idempotency key must resolve to the same outgoing PDA")
}

func TestProveIsUnsupported(t *testing.T) {
	r := require.New(t)

	a := New(testRoute(), &fakeSVMSource{}, &fakeEVMDestination{}, true)
	_, err := a.Prove(context.Background(), bridgetypes.MessageRef{Route: testRoute()})
	r.Error(err)
	code, ok := bridgeerrors.CodeOf(err)
	r.True(ok)
	r.Equal(bridgeerrors.CodeUnsupportedStep, code)
}

func TestStatusBeforeExecutionIsExecutableOnceSigned(t *testing.T) {
	r := require.New(t)

	route := testRoute()
	ref := bridgetypes.MessageRef{
		Route:       route,
		Source:      bridgetypes.MessageEndpointRef{Chain: route.SourceChain, Id: bridgetypes.NewMessageId(bridgetypes.SchemeSvmOutgoingMessagePda, systemProgram)},
		Destination: &bridgetypes.MessageEndpointRef{Chain: route.DestinationChain, Id: bridgetypes.NewMessageId(bridgetypes.SchemeEvmBridgeOuterHash, "0x"+repeatHex("00", 32))},
	}
	ref = ref.WithDerived("signature", "sig-pending")

	a := New(route, &fakeSVMSource{}, &fakeEVMDestination{}, true)
	status, err := a.Status(context.Background(), ref)
	r.NoError(err)
	r.Equal(bridgetypes.StatusExecutable, status.Kind)
}
