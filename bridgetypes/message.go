package bridgetypes

// MessageScheme discriminates the MessageId tagged union over identity
// schemes. Each scheme's Value format is documented alongside it.
type MessageScheme string

const (
	// SchemeSvmOutgoingMessagePda: base58 program-derived address on SVM.
	SchemeSvmOutgoingMessagePda MessageScheme = "svm:outgoingMessagePda"
	// SchemeSvmIncomingMessagePda: base58 PDA on SVM.
	SchemeSvmIncomingMessagePda MessageScheme = "svm:incomingMessagePda"
	// SchemeEvmTxHash: 0x-hex transaction hash.
	SchemeEvmTxHash MessageScheme = "evm:txHash"
	// SchemeEvmMessageHash: 0x-hex protocol-defined inner hash.
	SchemeEvmMessageHash MessageScheme = "evm:messageHash"
	// SchemeEvmBridgeOuterHash: 0x-hex protocol-defined outer hash.
	SchemeEvmBridgeOuterHash MessageScheme = "evm:bridgeOuterHash"
)

// MessageId identifies a message under one of the schemes above.
type MessageId struct {
	Scheme MessageScheme
	Value  string
}

// NewMessageId constructs a MessageId for the given scheme.
func NewMessageId(scheme MessageScheme, value string) MessageId {
	return MessageId{Scheme: scheme, Value: value}
}

// MessageEndpointRef pins a MessageId to the chain it was observed/derived
// on.
type MessageEndpointRef struct {
	Chain ChainId
	Id    MessageId
}

// MessageRef is the durable handle a BridgeOperation is identified by for
// every subsequent prove/execute/status/monitor call. Source is always
// populated; Destination may be precomputed at initiation time when the
// identifier is derivable without further chain observation (e.g.
// SVM->EVM's outer hash). Derived carries route-specific lookup hints
// (EVM tx hash, nonce, gas limit, ...).
type MessageRef struct {
	Route       BridgeRoute
	Source      MessageEndpointRef
	Destination *MessageEndpointRef
	Derived     map[string]string
}

// DerivedValue looks up a hint in Derived, returning ("", false) if absent
// or if Derived is nil.
func (m MessageRef) DerivedValue(key string) (string, bool) {
	if m.Derived == nil {
		return "", false
	}
	v, ok := m.Derived[key]
	return v, ok
}

// WithDerived returns a copy of m with key=value merged into Derived.
func (m MessageRef) WithDerived(key, value string) MessageRef {
	out := m
	out.Derived = make(map[string]string, len(m.Derived)+1)
	for k, v := range m.Derived {
		out.Derived[k] = v
	}
	out.Derived[key] = value
	return out
}
