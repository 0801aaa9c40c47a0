package bridgetypes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithDerivedIsImmutable(t *testing.T) {
	r := require.New(t)

	base := MessageRef{Route: BridgeRoute{SourceChain: "solana:mainnet", DestinationChain: "eip155:1"}}
	withA := base.WithDerived("a", "1")
	withB := withA.WithDerived("b", "2")

	_, baseHasA := base.DerivedValue("a")
	r.False(baseHasA, "WithDerived must not mutate the receiver")

	v, ok := withA.DerivedValue("a")
	r.True(ok)
	r.Equal("1", v)
	_, withAHasB := withA.DerivedValue("b")
	r.False(withAHasB, "later WithDerived calls must not leak back into earlier refs")

	v, ok = withB.DerivedValue("a")
	r.True(ok)
	r.Equal("1", v)
	v, ok = withB.DerivedValue("b")
	r.True(ok)
	r.Equal("2", v)
}

func TestDerivedValueOnNilMap(t *testing.T) {
	r := require.New(t)

	var ref MessageRef
	_, ok := ref.DerivedValue("anything")
	r.False(ok)
}
