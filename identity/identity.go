// Package identity derives the canonical cross-chain message identifiers
// (inner hash, outer hash) and encodes the on-wire payload for each
// message variant. It is pure: no I/O, no chain adapters imported, so
// every function here is a deterministic hash test vector.
//
// Convention: every chain-scoped string this package touches (asset
// addresses, recipients, call targets) must already be a 0x-hex string by
// the time it reaches here — 20 bytes for a native EVM address, up to 32
// bytes for an SVM-side pubkey/mint re-encoded as hex. Converting from an
// SVM adapter's base58 form is the source engine's job (svmengine's
// stored-action decoder hex-encodes every 32-byte field it reads), keeping this package
// free of any chain-family-specific codec.
package identity

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"

	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgeerrors"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgetypes"
)

// PayloadType is the ty discriminant carried alongside the ABI-encoded
// payload bytes.
type PayloadType uint8

const (
	PayloadCall             PayloadType = 0
	PayloadTransfer         PayloadType = 1
	PayloadTransferWithCall PayloadType = 2
)

// OutgoingMessage is the decoded content of an SVM "outgoing message"
// account, the input to DeriveOuterHash/InnerHash/OuterHash.
type OutgoingMessage struct {
	Nonce     uint64
	Sender    [32]byte
	Action    bridgetypes.BridgeAction
	ProgramId [32]byte // the outgoing message PDA itself
}

// keccak256 hashes data with the legacy Keccak-256 construction (the hash
// used throughout Ethereum, distinct from standardized SHA3-256).
func keccak256(data []byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// FirstBytes20 truncates a 32-byte SVM-side value to an EVM address by
// taking its first 20 bytes.
func FirstBytes20(b [32]byte) common.Address {
	var addr common.Address
	copy(addr[:], b[:20])
	return addr
}

// PadRight32 right-pads a 20-byte EVM address to 32 bytes, so that
// bytes20(to) recovers it again on the EVM side.
func PadRight32(addr common.Address) [32]byte {
	var out [32]byte
	copy(out[:], addr[:])
	return out
}

// PadLeft32 left-pads b to 32 bytes, used when a hex-decoded value is
// shorter than the 32 bytes a field requires.
func PadLeft32(b []byte) [32]byte {
	var out [32]byte
	if len(b) >= 32 {
		copy(out[:], b[len(b)-32:])
		return out
	}
	copy(out[32-len(b):], b)
	return out
}

var (
	typUint8   abi.Type
	typUint64  abi.Type
	typUint128 abi.Type
	typAddress abi.Type
	typBytes   abi.Type
	typBytes32 abi.Type
)

func init() {
	var err error
	if typUint8, err = abi.NewType("uint8", "", nil); err != nil {
		panic(err)
	}
	if typUint64, err = abi.NewType("uint64", "", nil); err != nil {
		panic(err)
	}
	if typUint128, err = abi.NewType("uint128", "", nil); err != nil {
		panic(err)
	}
	if typAddress, err = abi.NewType("address", "", nil); err != nil {
		panic(err)
	}
	if typBytes, err = abi.NewType("bytes", "", nil); err != nil {
		panic(err)
	}
	if typBytes32, err = abi.NewType("bytes32", "", nil); err != nil {
		panic(err)
	}
}

func pack(args abi.Arguments, values ...any) ([]byte, error) {
	packed, err := args.Pack(values...)
	if err != nil {
		return nil, bridgeerrors.New(bridgeerrors.CodeInvariantViolated, bridgeerrors.StageInitiate, "abi encode identity payload").Wrap(err)
	}
	return packed, nil
}

// hexTo32 decodes a 0x-hex string and pads/validates it to 32 bytes.
func hexTo32(s string) ([32]byte, error) {
	raw := common.FromHex(s)
	if s != "" && s != "0x" && len(raw) == 0 {
		return [32]byte{}, bridgeerrors.Newf(bridgeerrors.CodeInvariantViolated, bridgeerrors.StageInitiate, "value %q is not valid hex", s)
	}
	if len(raw) > 32 {
		return [32]byte{}, bridgeerrors.Newf(bridgeerrors.CodeInvariantViolated, bridgeerrors.StageInitiate, "value %q exceeds 32 bytes", s)
	}
	return PadLeft32(raw), nil
}

// hexToAddress decodes a 0x-hex EVM address, validating via hexTo32 first
// so both a 20-byte native address (taken as is, left-padded if shorter)
// and a 32-byte SVM-side value (truncated to its first 20 bytes) are
// accepted.
func hexToAddress(s string) (common.Address, error) {
	full, err := hexTo32(s)
	if err != nil {
		return common.Address{}, err
	}
	if raw := common.FromHex(s); len(raw) <= common.AddressLength {
		return common.BytesToAddress(raw), nil
	}
	return FirstBytes20(full), nil
}

// encodeCallTuple packs (uint8 callType, address to, uint128 value, bytes data).
func encodeCallTuple(call bridgetypes.BridgeAction) ([]byte, error) {
	to, err := hexToAddress(call.To)
	if err != nil {
		return nil, err
	}
	value := call.Value
	if value == nil {
		value = big.NewInt(0)
	}
	args := abi.Arguments{{Type: typUint8}, {Type: typAddress}, {Type: typUint128}, {Type: typBytes}}
	return pack(args, uint8(call.CallType), to, value, call.Data)
}

// encodeTransferTuple packs (address localToken, bytes32 remoteToken,
// bytes32 to, uint64 remoteAmount) for the Transfer payload variant.
func encodeTransferTuple(transfer bridgetypes.BridgeAction) ([]byte, error) {
	remoteToken, err := hexTo32(transfer.Asset.Address)
	if err != nil {
		return nil, err
	}
	localToken := FirstBytes20(remoteToken)

	destAddr, err := hexToAddress(transfer.Recipient)
	if err != nil {
		return nil, err
	}
	to := PadRight32(destAddr)

	amount := transfer.Amount
	if amount == nil {
		amount = big.NewInt(0)
	}
	if !amount.IsUint64() {
		return nil, bridgeerrors.New(bridgeerrors.CodeInvariantViolated, bridgeerrors.StageInitiate, "transfer amount exceeds uint64 range for remote encoding")
	}

	args := abi.Arguments{{Type: typAddress}, {Type: typBytes32}, {Type: typBytes32}, {Type: typUint64}}
	return pack(args, localToken, remoteToken, to, amount.Uint64())
}

// EncodePayload deterministically encodes a BridgeAction into its (ty,
// data) payload pair.
func EncodePayload(action bridgetypes.BridgeAction) (PayloadType, []byte, error) {
	switch {
	case action.IsCall():
		data, err := encodeCallTuple(action)
		if err != nil {
			return 0, nil, err
		}
		return PayloadCall, data, nil

	case action.IsTransfer() && !action.HasNestedCall():
		data, err := encodeTransferTuple(action)
		if err != nil {
			return 0, nil, err
		}
		return PayloadTransfer, data, nil

	case action.IsTransfer() && action.HasNestedCall():
		transferData, err := encodeTransferTuple(action)
		if err != nil {
			return 0, nil, err
		}
		callData, err := encodeCallTuple(*action.NestedCall)
		if err != nil {
			return 0, nil, err
		}
		args := abi.Arguments{{Type: typBytes}, {Type: typBytes}}
		data, err := pack(args, transferData, callData)
		if err != nil {
			return 0, nil, err
		}
		return PayloadTransferWithCall, data, nil

	default:
		return 0, nil, bridgeerrors.New(bridgeerrors.CodeInvariantViolated, bridgeerrors.StageInitiate, "action is neither Transfer nor Call")
	}
}

// InnerHash computes keccak256(abi_encode(bytes32 sender, uint8 ty, bytes data)).
func InnerHash(sender [32]byte, ty PayloadType, data []byte) ([32]byte, error) {
	args := abi.Arguments{{Type: typBytes32}, {Type: typUint8}, {Type: typBytes}}
	packed, err := pack(args, sender, uint8(ty), data)
	if err != nil {
		return [32]byte{}, err
	}
	return keccak256(packed), nil
}

// OuterHash computes keccak256(abi_encode(uint64 nonce, bytes32
// outgoingMessagePubkey, bytes32 innerHash)).
func OuterHash(nonce uint64, outgoingMessagePubkey [32]byte, innerHash [32]byte) ([32]byte, error) {
	args := abi.Arguments{{Type: typUint64}, {Type: typBytes32}, {Type: typBytes32}}
	packed, err := pack(args, nonce, outgoingMessagePubkey, innerHash)
	if err != nil {
		return [32]byte{}, err
	}
	return keccak256(packed), nil
}

// DeriveOuterHash runs the full encode-then-hash pipeline for an
// SVM-originated outgoing message, producing the identifier the EVM-side
// bridge contract's getMessageHash returns for the relayed message and
// keys its successes/failures records by.
func DeriveOuterHash(msg OutgoingMessage) (ty PayloadType, inner [32]byte, outer [32]byte, err error) {
	ty, data, err := EncodePayload(msg.Action)
	if err != nil {
		return 0, [32]byte{}, [32]byte{}, err
	}
	inner, err = InnerHash(msg.Sender, ty, data)
	if err != nil {
		return 0, [32]byte{}, [32]byte{}, err
	}
	outer, err = OuterHash(msg.Nonce, msg.ProgramId, inner)
	if err != nil {
		return 0, [32]byte{}, [32]byte{}, err
	}
	return ty, inner, outer, nil
}
