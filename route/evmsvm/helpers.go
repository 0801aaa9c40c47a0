package evmsvm

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgeerrors"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/chain/svmchain"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/engine/svmengine"
)

func hexPrefixed(b []byte) string { return "0x" + hex.EncodeToString(b) }

func uint64ToString(v uint64) string { return strconv.FormatUint(v, 10) }

// firstBytes20 truncates an SVM pubkey to fit the EVM bridge contract's
// address-shaped Ix.Target field, mirroring identity.FirstBytes20's
// 32-to-20-byte truncation convention.
func firstBytes20(pk svmchain.PublicKey) common.Address {
	var addr common.Address
	copy(addr[:], pk[:20])
	return addr
}

func decodeHash32(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return out, err
	}
	if len(b) != 32 {
		return out, bridgeerrors.Newf(bridgeerrors.CodeConfigError, bridgeerrors.StageExecute, "expected 32-byte hash, got %d bytes", len(b))
	}
	copy(out[:], b)
	return out, nil
}

// parseRemainingAccounts decodes the "base58Pubkey:signer:writable" CSV
// format documented on RemainingAccountsKey. An empty string yields a nil
// slice: ExecuteIncomingMessage's fixed account set covers a bare,
// no-transfer message.
func parseRemainingAccounts(raw string) ([]svmengine.RemainingAccount, error) {
	if raw == "" {
		return nil, nil
	}
	entries := strings.Split(raw, ",")
	out := make([]svmengine.RemainingAccount, 0, len(entries))
	for _, entry := range entries {
		fields := strings.Split(entry, ":")
		if len(fields) != 3 {
			return nil, bridgeerrors.Newf(bridgeerrors.CodeConfigError, bridgeerrors.StageExecute, "malformed remaining account entry %q", entry)
		}
		pubkey, err := svmchain.DecodePublicKey(fields[0])
		if err != nil {
			return nil, bridgeerrors.Newf(bridgeerrors.CodeConfigError, bridgeerrors.StageExecute, "remaining account %q: %v", fields[0], err)
		}
		out = append(out, svmengine.RemainingAccount{
			Pubkey:     pubkey,
			IsSigner:   fields[1] == "1",
			IsWritable: fields[2] == "1",
		})
	}
	return out, nil
}
