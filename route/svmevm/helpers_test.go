package svmevm

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgetypes"
)

func TestAddressTo32RejectsInvalidHex(t *testing.T) {
	r := require.New(t)

	_, err := addressTo32("not-an-address")
	r.Error(err)
}

func TestAddressTo32PadsToRightAndFixedRoundTrips(t *testing.T) {
	r := require.New(t)

	const hexAddr = "0x00000000000000000000000000000000000000aa"
	pk, err := addressTo32(hexAddr)
	r.NoError(err)
	r.Equal(byte(0xaa), pk[19], "address bytes occupy the low 20 bytes")
	r.Equal(byte(0), pk[20], "bytes beyond the address are zero-padded")

	fixed, err := addressToFixed(hexAddr)
	r.NoError(err)
	r.Equal([32]byte(pk), fixed)
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

	_, err := decodeHash32("0x1234")
	r.Error(err)
}

func TestEncodeNestedCallLayout(t *testing.T) {
	r := require.New(t)

	call := bridgetypes.NewCallAction("0x00000000000000000000000000000000000000aa", big.NewInt(7), []byte("payload"), bridgetypes.CallTypeDefault)
	buf, err := encodeNestedCall(call)
	r.NoError(err)

	// to(32) || value(u64 LE) || dataLen(u32 LE) || data || callType(1)
	r.Len(buf, 32+8+4+len("payload")+1)
	r.Equal(byte(7), buf[32], "value is little-endian encoded")
	r.Equal(byte(len("payload")), buf[32+8], "data length is little-endian encoded")
	r.Equal([]byte("payload"), buf[32+8+4:32+8+4+len("payload")])
	r.Equal(byte(bridgetypes.CallTypeDefault), buf[len(buf)-1])
}
