package bridgetypes

import "math/big"

// ActionKind discriminates the BridgeAction tagged union.
type ActionKind string

const (
	ActionTransfer ActionKind = "transfer"
	ActionCall     ActionKind = "call"
)

// CallType mirrors the on-chain call-type discriminant carried through to
// the destination's arbitrary-call execution path.
type CallType uint8

const (
	CallTypeDefault CallType = 0
)

// BridgeAction is the tagged union of things a BridgeRequest can ask the
// bridge to do on the destination chain.
type BridgeAction struct {
	Kind ActionKind

	// Transfer fields.
	Asset     AssetRef
	Amount    *big.Int
	Recipient string
	// NestedCall, when non-nil, means "after crediting funds on the
	// destination, perform this call". Its Kind must be ActionCall.
	NestedCall *BridgeAction

	// Call fields.
	To       string
	Value    *big.Int
	Data     []byte
	CallType CallType
}

// NewTransferAction builds the Transfer variant.
func NewTransferAction(asset AssetRef, amount *big.Int, recipient string, nestedCall *BridgeAction) BridgeAction {
	return BridgeAction{
		Kind:       ActionTransfer,
		Asset:      asset,
		Amount:     amount,
		Recipient:  recipient,
		NestedCall: nestedCall,
	}
}

// NewCallAction builds the Call variant.
func NewCallAction(to string, value *big.Int, data []byte, callType CallType) BridgeAction {
	return BridgeAction{
		Kind:     ActionCall,
		To:       to,
		Value:    value,
		Data:     data,
		CallType: callType,
	}
}

// IsTransfer reports whether this is the Transfer variant.
func (a BridgeAction) IsTransfer() bool { return a.Kind == ActionTransfer }

// IsCall reports whether this is the Call variant.
func (a BridgeAction) IsCall() bool { return a.Kind == ActionCall }

// HasNestedCall reports whether a Transfer carries a nested call.
func (a BridgeAction) HasNestedCall() bool { return a.NestedCall != nil }
