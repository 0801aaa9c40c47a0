package svmengine

import (
	"encoding/binary"
	"encoding/hex"
	"math/big"

	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgeerrors"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgetypes"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/chain/svmchain"
)

// Instruction op codes. No IDL was retrieved for the bridge/relayer
// programs, so this engine assumes a one-byte discriminator followed by
// borsh-style little-endian fields — isolated here so a generated IDL
// client can later replace just this file.
const (
	opBridgeNative      byte = 0
	opBridgeToken       byte = 1
	opBridgeWrapped     byte = 2
	opBridgeCall        byte = 3
	opWrapTokenMetadata byte = 4
	opProveIncoming     byte = 5
	opExecuteIncoming   byte = 6
	opPayForRelay       byte = 7
	opRelayIncoming     byte = 8
)

func putString(buf []byte, s string) []byte {
	var lenBytes [4]byte
	binary.LittleEndian.PutUint32(lenBytes[:], uint32(len(s)))
	buf = append(buf, lenBytes[:]...)
	return append(buf, s...)
}

func putU64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func putU8(buf []byte, v uint8) []byte { return append(buf, v) }

func putBytesWithLen(buf []byte, b []byte) []byte {
	var lenBytes [4]byte
	binary.LittleEndian.PutUint32(lenBytes[:], uint32(len(b)))
	buf = append(buf, lenBytes[:]...)
	return append(buf, b...)
}

func putPubkey(buf []byte, pk svmchain.PublicKey) []byte {
	return append(buf, pk[:]...)
}

// encodeBridgeNative builds the instruction data for a native-asset send:
// op || to(32) || amount(u64) || payForRelay(1) || gasLimit(u64,
// optional, 0 meaning absent) || nestedCallPresent(1). BridgeNative
// appends the encoded nested call after the flag.
func encodeBridgeNative(to svmchain.PublicKey, amount uint64, payForRelay bool, gasLimit uint64, nestedCallPresent bool) []byte {
	buf := []byte{opBridgeNative}
	buf = putPubkey(buf, to)
	buf = putU64(buf, amount)
	buf = putU8(buf, boolToByte(payForRelay))
	buf = putU64(buf, gasLimit)
	buf = putU8(buf, boolToByte(nestedCallPresent))
	return buf
}

func encodeBridgeToken(to, mint svmchain.PublicKey, remoteToken [32]byte, amount uint64, payForRelay bool, gasLimit uint64) []byte {
	buf := []byte{opBridgeToken}
	buf = putPubkey(buf, to)
	buf = putPubkey(buf, mint)
	buf = append(buf, remoteToken[:]...)
	buf = putU64(buf, amount)
	buf = putU8(buf, boolToByte(payForRelay))
	buf = putU64(buf, gasLimit)
	return buf
}

func encodeBridgeWrapped(to, mint svmchain.PublicKey, amount uint64, payForRelay bool, gasLimit uint64) []byte {
	buf := []byte{opBridgeWrapped}
	buf = putPubkey(buf, to)
	buf = putPubkey(buf, mint)
	buf = putU64(buf, amount)
	buf = putU8(buf, boolToByte(payForRelay))
	buf = putU64(buf, gasLimit)
	return buf
}

func encodeBridgeCall(to [32]byte, value uint64, data []byte, callType uint8, payForRelay bool, gasLimit uint64) []byte {
	buf := []byte{opBridgeCall}
	buf = append(buf, to[:]...)
	buf = putU64(buf, value)
	buf = putBytesWithLen(buf, data)
	buf = putU8(buf, callType)
	buf = putU8(buf, boolToByte(payForRelay))
	buf = putU64(buf, gasLimit)
	return buf
}

func encodeWrapTokenMetadata(remoteToken [32]byte, name, symbol string, decimals uint8, scalerExponent int8) []byte {
	buf := []byte{opWrapTokenMetadata}
	buf = append(buf, remoteToken[:]...)
	buf = putString(buf, name)
	buf = putString(buf, symbol)
	buf = putU8(buf, decimals)
	buf = putU8(buf, uint8(scalerExponent))
	return buf
}

func encodeProveIncoming(messageHash [32]byte, proof [][32]byte, blockNumber uint64) []byte {
	buf := []byte{opProveIncoming}
	buf = append(buf, messageHash[:]...)
	buf = putU64(buf, uint64(len(proof)))
	for _, p := range proof {
		buf = append(buf, p[:]...)
	}
	buf = putU64(buf, blockNumber)
	return buf
}

func encodeExecuteIncoming(messageHash [32]byte) []byte {
	buf := []byte{opExecuteIncoming}
	return append(buf, messageHash[:]...)
}

func encodePayForRelay(salt [32]byte, relayer svmchain.PublicKey) []byte {
	buf := []byte{opPayForRelay}
	buf = append(buf, salt[:]...)
	buf = putPubkey(buf, relayer)
	return buf
}

func boolToByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func hexPrefixed(b []byte) string { return "0x" + hex.EncodeToString(b) }

func newBigFromUint64(v uint64) *big.Int { return new(big.Int).SetUint64(v) }

// decodeStoredAction decodes the raw (pre-ABI) tagged message an outgoing
// message account carries, using the same reader-cursor discipline the
// rest of this file's encoders assume. actionKind 0 = Transfer (optionally
// with a nested call), 1 = Call.
func decodeStoredAction(buf []byte) (bridgetypes.BridgeAction, error) {
	r := &byteReader{buf: buf}
	kind, err := r.u8()
	if err != nil {
		return bridgetypes.BridgeAction{}, err
	}

	switch kind {
	case 0:
		return decodeStoredTransfer(r)
	case 1:
		call, err := decodeStoredCall(r)
		if err != nil {
			return bridgetypes.BridgeAction{}, err
		}
		return call, nil
	default:
		return bridgetypes.BridgeAction{}, bridgeerrors.Newf(bridgeerrors.CodeInvariantViolated, bridgeerrors.StageInitiate, "unknown stored action kind %d", kind)
	}
}

func decodeStoredTransfer(r *byteReader) (bridgetypes.BridgeAction, error) {
	assetKindByte, err := r.u8()
	if err != nil {
		return bridgetypes.BridgeAction{}, err
	}
	assetAddr, err := r.bytes(32)
	if err != nil {
		return bridgetypes.BridgeAction{}, err
	}
	amount, err := r.u64()
	if err != nil {
		return bridgetypes.BridgeAction{}, err
	}
	recipient, err := r.bytes(32)
	if err != nil {
		return bridgetypes.BridgeAction{}, err
	}
	nestedPresent, err := r.u8()
	if err != nil {
		return bridgetypes.BridgeAction{}, err
	}

	var asset bridgetypes.AssetRef
	switch assetKindByte {
	case 0:
		asset = bridgetypes.NewNativeAsset()
	case 1:
		asset = bridgetypes.NewTokenAsset(hexPrefixed(assetAddr))
	case 2:
		asset = bridgetypes.NewWrappedAsset(hexPrefixed(assetAddr))
	default:
		return bridgetypes.BridgeAction{}, bridgeerrors.Newf(bridgeerrors.CodeInvariantViolated, bridgeerrors.StageInitiate, "unknown stored asset kind %d", assetKindByte)
	}

	var nested *bridgetypes.BridgeAction
	if nestedPresent == 1 {
		nestedCall, err := decodeStoredCall(r)
		if err != nil {
			return bridgetypes.BridgeAction{}, err
		}
		nested = &nestedCall
	}

	action := bridgetypes.NewTransferAction(asset, newBigFromUint64(amount), hexPrefixed(recipient), nested)
	return action, nil
}

func decodeStoredCall(r *byteReader) (bridgetypes.BridgeAction, error) {
	to, err := r.bytes(32)
	if err != nil {
		return bridgetypes.BridgeAction{}, err
	}
	value, err := r.u64()
	if err != nil {
		return bridgetypes.BridgeAction{}, err
	}
	data, err := r.bytesWithLen()
	if err != nil {
		return bridgetypes.BridgeAction{}, err
	}
	callType, err := r.u8()
	if err != nil {
		return bridgetypes.BridgeAction{}, err
	}
	return bridgetypes.NewCallAction(hexPrefixed(to), newBigFromUint64(value), data, bridgetypes.CallType(callType)), nil
}

// byteReader is a minimal cursor over a borsh-style little-endian buffer,
// used only for decoding stored actions back out of account data.
type byteReader struct {
	buf []byte
	pos int
}

func (r *byteReader) need(n int) error {
	if r.pos+n > len(r.buf) {
		return bridgeerrors.New(bridgeerrors.CodeInvariantViolated, bridgeerrors.StageInitiate, "stored action buffer truncated")
	}
	return nil
}

func (r *byteReader) u8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *byteReader) u64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos : r.pos+8])
	r.pos += 8
	return v, nil
}

func (r *byteReader) bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	v := r.buf[r.pos : r.pos+n]
	r.pos += n
	return v, nil
}

func (r *byteReader) bytesWithLen() ([]byte, error) {
	length, err := r.u32()
	if err != nil {
		return nil, err
	}
	return r.bytes(int(length))
}

func (r *byteReader) u32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}
