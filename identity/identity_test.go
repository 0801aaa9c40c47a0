package identity

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgetypes"
)

func repeatHex(pair string, n int) string { return strings.Repeat(pair, n) }

func TestEncodePayloadDeterministic(t *testing.T) {
	r := require.New(t)

	action := bridgetypes.NewTransferAction(
		bridgetypes.NewTokenAsset("0x"+repeatHex("02", 32)),
		big.NewInt(1_000_000),
		"0x"+repeatHex("01", 20),
		nil,
	)

	ty1, data1, err := EncodePayload(action)
	r.NoError(err)
	ty2, data2, err := EncodePayload(action)
	r.NoError(err)

	r.Equal(ty1, ty2)
	r.Equal(data1, data2)
	r.Equal(PayloadTransfer, ty1)
}

func TestDeriveOuterHashIsDeterministicAndSenderSensitive(t *testing.T) {
	r := require.New(t)

	action := bridgetypes.NewCallAction("0x00000000000000000000000000000000001111", big.NewInt(0), []byte("hello"), bridgetypes.CallTypeDefault)
	msgA := OutgoingMessage{Nonce: 1, Sender: [32]byte{1}, Action: action, ProgramId: [32]byte{9}}
	msgB := OutgoingMessage{Nonce: 1, Sender: [32]byte{2}, Action: action, ProgramId: [32]byte{9}}

	_, _, outerA1, err := DeriveOuterHash(msgA)
	r.NoError(err)
	_, _, outerA2, err := DeriveOuterHash(msgA)
	r.NoError(err)
	_, _, outerB, err := DeriveOuterHash(msgB)
	r.NoError(err)

	r.Equal(outerA1, outerA2, "identical input must hash identically")
	r.NotEqual(outerA1, outerB, "different sender must change the outer hash")
}

func TestDeriveOuterHashNonceSensitive(t *testing.T) {
	r := require.New(t)

	action := bridgetypes.NewCallAction("0x00000000000000000000000000000000001111", big.NewInt(0), nil, bridgetypes.CallTypeDefault)
	base := OutgoingMessage{Nonce: 1, Sender: [32]byte{1}, Action: action, ProgramId: [32]byte{9}}
	bumped := base
	bumped.Nonce = 2

	_, _, outerBase, err := DeriveOuterHash(base)
	r.NoError(err)
	_, _, outerBumped, err := DeriveOuterHash(bumped)
	r.NoError(err)

	r.NotEqual(outerBase, outerBumped)
}

func TestPadLeft32TruncatesFromTheLeft(t *testing.T) {
	r := require.New(t)

	long := make([]byte, 40)
	for i := range long {
		long[i] = byte(i)
	}
	out := PadLeft32(long)
	r.Equal(long[8:], out[:])
}

func TestPadRight32AndFirstBytes20RoundTrip(t *testing.T) {
	r := require.New(t)

	var addr common.Address
	for i := range addr {
		addr[i] = byte(i + 1)
	}
	padded := PadRight32(addr)
	recovered := FirstBytes20(padded)
	r.Equal(addr[:], recovered[:])
}

func TestHexTo32RejectsOversizedInput(t *testing.T) {
	r := require.New(t)

	tooLong := "0x" + repeatHex("ff", 33) // 33 bytes, exceeds the 32-byte limit
	_, err := hexTo32(tooLong)
	r.Error(err)
}

func TestEncodePayloadRejectsNeitherTransferNorCall(t *testing.T) {
	r := require.New(t)

	var empty bridgetypes.BridgeAction
	_, _, err := EncodePayload(empty)
	r.Error(err)
}
