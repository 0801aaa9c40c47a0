package bridgetypes

// AssetKind discriminates the AssetRef tagged union.
type AssetKind string

const (
	AssetNative  AssetKind = "native"
	AssetToken   AssetKind = "token"
	AssetWrapped AssetKind = "wrapped"
)

// AssetRef references an asset on a particular chain. Address is
// chain-scoped: an EVM hex address for AssetToken/AssetWrapped on an EVM
// chain, a base58 mint for AssetToken/AssetWrapped on an SVM chain. It is
// empty (and ignored) for AssetNative.
type AssetRef struct {
	Kind    AssetKind
	Address string
}

// NewNativeAsset builds the native-asset variant.
func NewNativeAsset() AssetRef {
	return AssetRef{Kind: AssetNative}
}

// NewTokenAsset builds the fungible-token variant for the given address.
func NewTokenAsset(address string) AssetRef {
	return AssetRef{Kind: AssetToken, Address: address}
}

// NewWrappedAsset builds the wrapped-token variant for the given address.
func NewWrappedAsset(address string) AssetRef {
	return AssetRef{Kind: AssetWrapped, Address: address}
}

// IsNative reports whether this is the native-asset variant.
func (a AssetRef) IsNative() bool { return a.Kind == AssetNative }
