package svmevm

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgeerrors"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgetypes"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/chain/svmchain"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/identity"
)

// addressTo32 right-pads a 20-byte EVM hex address into the 32-byte
// representation the SVM program's account layout uses for destination
// addresses, mirroring identity.PadRight32's byte32-address convention.
func addressTo32(hexAddr string) (svmchain.PublicKey, error) {
	if !common.IsHexAddress(hexAddr) {
		return svmchain.PublicKey{}, bridgeerrors.Newf(bridgeerrors.CodeConfigError, bridgeerrors.StageInitiate, "invalid EVM address %q", hexAddr)
	}
	return svmchain.PublicKey(identity.PadRight32(common.HexToAddress(hexAddr))), nil
}

func addressToFixed(hexAddr string) ([32]byte, error) {
	pk, err := addressTo32(hexAddr)
	return [32]byte(pk), err
}

func hexPrefixed(b []byte) string { return "0x" + hex.EncodeToString(b) }

func decodeHash32(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return out, err
	}
	if len(b) != 32 {
		return out, bridgeerrors.Newf(bridgeerrors.CodeConfigError, bridgeerrors.StageMonitor, "expected 32-byte hash, got %d bytes", len(b))
	}
	copy(out[:], b)
	return out, nil
}

// encodeNestedCall mirrors instructions.go's decodeStoredCall reading
// order (to(32) || value(u64) || dataLen(u32) || data || callType(1)), so
// a nested call attached to a native transfer decodes correctly once
// stored on-chain.
func encodeNestedCall(call bridgetypes.BridgeAction) ([]byte, error) {
	to, err := addressTo32(call.To)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, 32+8+4+len(call.Data)+1)
	buf = append(buf, to[:]...)

	var valueBytes [8]byte
	binary.LittleEndian.PutUint64(valueBytes[:], call.Value.Uint64())
	buf = append(buf, valueBytes[:]...)

	var lenBytes [4]byte
	binary.LittleEndian.PutUint32(lenBytes[:], uint32(len(call.Data)))
	buf = append(buf, lenBytes[:]...)
	buf = append(buf, call.Data...)
	buf = append(buf, byte(call.CallType))
	return buf, nil
}
