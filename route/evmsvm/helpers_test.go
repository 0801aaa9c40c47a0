package evmsvm

import (
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"
)

func TestFirstBytes20Truncates(t *testing.T) {
	r := require.New(t)

	var pk [32]byte
	for i := range pk {
		pk[i] = byte(i + 1)
	}
	addr := firstBytes20(pk)
	r.Equal(pk[:20], addr[:])
}

func TestDecodeHash32RoundTrip(t *testing.T) {
	r := require.New(t)

	var want [32]byte
	for i := range want {
		want[i] = byte(i)
	}
	got, err := decodeHash32(hexPrefixed(want[:]))
	r.NoError(err)
	r.Equal(want, got)
}

func TestDecodeHash32RejectsWrongLength(t *testing.T) {
	r := require.New(t)

	_, err := decodeHash32("0xabcd")
	r.Error(err)
}

func TestParseRemainingAccountsEmptyStringYieldsNil(t *testing.T) {
	r := require.New(t)

	out, err := parseRemainingAccounts("")
	r.NoError(err)
	r.Nil(out)
}

func TestParseRemainingAccountsParsesEntries(t *testing.T) {
	r := require.New(t)

	var raw1, raw2 [32]byte
	raw1[0], raw2[0] = 1, 2
	pk1 := base58.Encode(raw1[:])
	pk2 := base58.Encode(raw2[:])

	out, err := parseRemainingAccounts(pk1 + ":1:0," + pk2 + ":0:1")
	r.NoError(err)
	r.Len(out, 2)

	r.True(out[0].IsSigner)
	r.False(out[0].IsWritable)
	r.False(out[1].IsSigner)
	r.True(out[1].IsWritable)
}

func TestParseRemainingAccountsRejectsMalformedEntry(t *testing.T) {
	r := require.New(t)

	_, err := parseRemainingAccounts("not-enough-fields")
	r.Error(err)
}
