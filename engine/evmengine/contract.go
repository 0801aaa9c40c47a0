package evmengine

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgeerrors"
)

// bridgeABIJSON declares the subset of the EVM bridge contract's surface
// this engine calls (reads, the bridgeCall/bridgeToken/relayMessages
// writes, and the MessageInitiated event).
// Ix is this SDK's minimal shape for an outbound SVM-bound instruction
// batch entry (target + value + opaque data); no bridge-contract IDL was
// retrieved, so this mirrors the generic call shape identity.EncodePayload
// already assumes for ty=0 (Call) payloads.
var bridgeABIJSON = `[
	{"inputs":[],"name":"BRIDGE_VALIDATOR","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"bytes32","name":"","type":"bytes32"}],"name":"successes","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"bytes32","name":"","type":"bytes32"}],"name":"failures","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"components":[{"internalType":"uint64","name":"nonce","type":"uint64"},{"internalType":"bytes32","name":"sender","type":"bytes32"},{"internalType":"uint8","name":"ty","type":"uint8"},{"internalType":"bytes","name":"data","type":"bytes"}],"internalType":"struct IncomingMessage","name":"message","type":"tuple"}],"name":"getMessageHash","outputs":[{"internalType":"bytes32","name":"","type":"bytes32"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"uint64","name":"nonce","type":"uint64"}],"name":"generateProof","outputs":[{"internalType":"bytes32[]","name":"","type":"bytes32[]"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"components":[{"internalType":"address","name":"target","type":"address"},{"internalType":"uint256","name":"value","type":"uint256"},{"internalType":"bytes","name":"data","type":"bytes"}],"internalType":"struct Ix[]","name":"ixs","type":"tuple[]"}],"name":"bridgeCall","outputs":[],"stateMutability":"payable","type":"function"},
	{"inputs":[{"components":[{"internalType":"address","name":"localToken","type":"address"},{"internalType":"bytes32","name":"remoteToken","type":"bytes32"},{"internalType":"bytes32","name":"to","type":"bytes32"},{"internalType":"uint64","name":"amount","type":"uint64"}],"internalType":"struct Transfer","name":"transfer","type":"tuple"},{"components":[{"internalType":"address","name":"target","type":"address"},{"internalType":"uint256","name":"value","type":"uint256"},{"internalType":"bytes","name":"data","type":"bytes"}],"internalType":"struct Ix[]","name":"ixs","type":"tuple[]"}],"name":"bridgeToken","outputs":[],"stateMutability":"payable","type":"function"},
	{"inputs":[{"components":[{"internalType":"uint64","name":"nonce","type":"uint64"},{"internalType":"bytes32","name":"sender","type":"bytes32"},{"internalType":"uint8","name":"ty","type":"uint8"},{"internalType":"bytes","name":"data","type":"bytes"}],"internalType":"struct IncomingMessage[]","name":"messages","type":"tuple[]"}],"name":"relayMessages","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"anonymous":false,"inputs":[{"indexed":false,"internalType":"bytes32","name":"messageHash","type":"bytes32"},{"indexed":false,"internalType":"bytes32","name":"mmrRoot","type":"bytes32"},{"components":[{"internalType":"uint64","name":"nonce","type":"uint64"},{"internalType":"bytes32","name":"sender","type":"bytes32"},{"internalType":"uint8","name":"ty","type":"uint8"},{"internalType":"bytes","name":"data","type":"bytes"}],"indexed":false,"internalType":"struct Message","name":"message","type":"tuple"}],"name":"MessageInitiated","type":"event"}
]`

// validatorABIJSON declares the bridge validator's read surface.
var validatorABIJSON = `[
	{"inputs":[{"internalType":"bytes32","name":"","type":"bytes32"}],"name":"validMessages","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"view","type":"function"}
]`

var cachedBridgeABI *abi.ABI
var cachedValidatorABI *abi.ABI

func mustBridgeABI() abi.ABI {
	if cachedBridgeABI != nil {
		return *cachedBridgeABI
	}
	parsed, err := abi.JSON(strings.NewReader(bridgeABIJSON))
	if err != nil {
		panic(fmt.Sprintf("invalid bridge abi literal: %v", err))
	}
	cachedBridgeABI = &parsed
	return parsed
}

func mustValidatorABI() abi.ABI {
	if cachedValidatorABI != nil {
		return *cachedValidatorABI
	}
	parsed, err := abi.JSON(strings.NewReader(validatorABIJSON))
	if err != nil {
		panic(fmt.Sprintf("invalid bridge validator abi literal: %v", err))
	}
	cachedValidatorABI = &parsed
	return parsed
}

// IncomingMessage mirrors the EVM bridge contract's IncomingMessage tuple.
type IncomingMessage struct {
	Nonce  uint64
	Sender [32]byte
	Ty     uint8
	Data   []byte
}

// Transfer mirrors the EVM bridge contract's Transfer tuple.
type Transfer struct {
	LocalToken  common.Address
	RemoteToken [32]byte
	To          [32]byte
	Amount      uint64
}

// Ix mirrors the EVM bridge contract's generic outbound instruction shape.
type Ix struct {
	Target common.Address
	Value  *big.Int
	Data   []byte
}

// MessageInitiated mirrors the decoded MessageInitiated log.
type MessageInitiated struct {
	MessageHash [32]byte
	MmrRoot     [32]byte
	Nonce       uint64
	Sender      [32]byte
	Ty          uint8
	Data        []byte
	BlockNumber uint64
	TxHash      common.Hash
}

func packBridgeCall(ixs []Ix) ([]byte, error) {
	return mustBridgeABI().Pack("bridgeCall", ixs)
}

func packBridgeToken(transfer Transfer, ixs []Ix) ([]byte, error) {
	return mustBridgeABI().Pack("bridgeToken", transfer, ixs)
}

func packRelayMessages(msgs []IncomingMessage) ([]byte, error) {
	return mustBridgeABI().Pack("relayMessages", msgs)
}

func packGetMessageHash(msg IncomingMessage) ([]byte, error) {
	return mustBridgeABI().Pack("getMessageHash", msg)
}

func packSuccesses(hash [32]byte) ([]byte, error) { return mustBridgeABI().Pack("successes", hash) }
func packFailures(hash [32]byte) ([]byte, error)  { return mustBridgeABI().Pack("failures", hash) }
func packGenerateProof(nonce uint64) ([]byte, error) {
	return mustBridgeABI().Pack("generateProof", nonce)
}
func packValidMessages(hash [32]byte) ([]byte, error) {
	return mustValidatorABI().Pack("validMessages", hash)
}

func unpackBool(out []byte, method string, useValidator bool) (bool, error) {
	a := mustBridgeABI()
	if useValidator {
		a = mustValidatorABI()
	}
	vals, err := a.Unpack(method, out)
	if err != nil {
		return false, err
	}
	b, ok := vals[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected %s return shape %T", method, vals[0])
	}
	return b, nil
}

func unpackBytes32(out []byte, method string) ([32]byte, error) {
	vals, err := mustBridgeABI().Unpack(method, out)
	if err != nil {
		return [32]byte{}, err
	}
	b, ok := vals[0].([32]byte)
	if !ok {
		return [32]byte{}, fmt.Errorf("unexpected %s return shape %T", method, vals[0])
	}
	return b, nil
}

func unpackBytes32Array(out []byte, method string) ([][32]byte, error) {
	vals, err := mustBridgeABI().Unpack(method, out)
	if err != nil {
		return nil, err
	}
	b, ok := vals[0].([][32]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected %s return shape %T", method, vals[0])
	}
	return b, nil
}

func (m *MessageInitiated) decodeFromLog(log eventLog) error {
	a := mustBridgeABI()
	event, ok := a.Events["MessageInitiated"]
	if !ok {
		return fmt.Errorf("bridge abi missing MessageInitiated event")
	}
	var decoded struct {
		MessageHash [32]byte
		MmrRoot     [32]byte
		Message     IncomingMessage
	}
	if err := a.UnpackIntoInterface(&decoded, event.Name, log.Data); err != nil {
		return err
	}
	m.MessageHash = decoded.MessageHash
	m.MmrRoot = decoded.MmrRoot
	m.Nonce = decoded.Message.Nonce
	m.Sender = decoded.Message.Sender
	m.Ty = decoded.Message.Ty
	m.Data = decoded.Message.Data
	m.BlockNumber = log.BlockNumber
	m.TxHash = log.TxHash
	return nil
}

// eventLog is the minimal subset of types.Log that decodeFromLog reads.
type eventLog struct {
	Data        []byte
	BlockNumber uint64
	TxHash      common.Hash
}

// decodeInitiatedFromReceipt locates the sole MessageInitiated log emitted
// by bridgeContract in receipt and decodes it. Shared by GenerateProof
// (which additionally checks finality) and the EVM→SVM route adapter's
// Initiate (which needs the message shape immediately, before any proof
// is generated).
func decodeInitiatedFromReceipt(receipt *types.Receipt, bridgeContract common.Address) (MessageInitiated, error) {
	event := mustBridgeABI().Events["MessageInitiated"]
	var matches []eventLog
	for _, log := range receipt.Logs {
		if log.Address != bridgeContract {
			continue
		}
		if len(log.Topics) == 0 || log.Topics[0] != event.ID {
			continue
		}
		matches = append(matches, eventLog{Data: log.Data, BlockNumber: log.BlockNumber, TxHash: log.TxHash})
	}
	if len(matches) != 1 {
		return MessageInitiated{}, bridgeerrors.Newf(bridgeerrors.CodeProofNotAvailable, bridgeerrors.StageProve, "expected exactly one MessageInitiated log, found %d", len(matches))
	}
	var initiated MessageInitiated
	if err := initiated.decodeFromLog(matches[0]); err != nil {
		return MessageInitiated{}, bridgeerrors.New(bridgeerrors.CodeProofNotAvailable, bridgeerrors.StageProve, "decode MessageInitiated log").Wrap(err)
	}
	return initiated, nil
}
