// Package chain defines the contract shared by every chain-specific
// adapter (chain/evmchain, chain/svmchain): a Kind discriminator and a
// health-check method. The adapters themselves are thin wrappers around
// RPC/signer material — all decoding and business logic live one layer up
// in the source engines.
package chain

import "context"

// Kind discriminates which chain family an adapter talks to.
type Kind string

const (
	KindEVM Kind = "evm"
	KindSVM Kind = "svm"
)

// Adapter is the minimal contract every chain adapter satisfies. The route
// registry and bridge client do not use it; they work with route adapters.
type Adapter interface {
	// Kind reports which chain family this adapter serves.
	Kind() Kind
	// Ping performs a cheap read (e.g. a block-number/blockhash read) to
	// verify the adapter's RPC endpoint is reachable. It is optional for
	// callers to invoke; nothing in the core depends on it succeeding.
	Ping(ctx context.Context) error
	// HasSigner reports whether this adapter was configured with signing
	// material and can therefore submit write transactions.
	HasSigner() bool
}
