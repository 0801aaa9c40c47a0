package bridgetypes

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDecimalAmountScalesByDecimals(t *testing.T) {
	r := require.New(t)

	got, err := ParseDecimalAmount("1.5", 6)
	r.NoError(err)
	r.Equal(big.NewInt(1_500_000), got)
}

func TestParseDecimalAmountRejectsGarbage(t *testing.T) {
	r := require.New(t)

	_, err := ParseDecimalAmount("not-a-number", 6)
	r.Error(err)
}

func TestParseDecimalAmountZeroDecimals(t *testing.T) {
	r := require.New(t)

	got, err := ParseDecimalAmount("42", 0)
	r.NoError(err)
	r.Equal(big.NewInt(42), got)
}
