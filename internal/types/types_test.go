package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountIDHexRoundTrip(t *testing.T) {
	hexStr := strings.Repeat("AB", 20)
	id, err := AccountIDFromHex(hexStr)
	require.NoError(t, err)
	assert.Equal(t, hexStr, id.String())
	assert.False(t, id.IsSentinel())
}

func TestAccountIDSentinel(t *testing.T) {
	var id AccountID
	assert.True(t, id.IsSentinel())
	assert.Equal(t, strings.Repeat("00", 20), id.String())
}

func TestAccountIDFromHexInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"short", "ABCD"},
		{"long", strings.Repeat("AB", 21)},
		{"not hex", strings.Repeat("ZZ", 20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AccountIDFromHex(tt.input)
			assert.ErrorIs(t, err, ErrInvalidAccountID)
		})
	}
}

func TestAssetIDSymbolRoundTrip(t *testing.T) {
	for _, sym := range []string{"XRP", "BTC", "BTCUSD", "ETH-PERP"} {
		t.Run(sym, func(t *testing.T) {
			id, err := AssetIDFromString(sym)
			require.NoError(t, err)
			assert.Equal(t, sym, id.String())
		})
	}
}

func TestAssetIDHexRoundTrip(t *testing.T) {
	hexStr := "0102030405060708090A0B0C0D0E0F1011121314"
	id, err := AssetIDFromString(hexStr)
	require.NoError(t, err)
	assert.Equal(t, hexStr, id.String())
}

func TestAssetIDFromStringInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"too long", "ABCDEFGHIJKLMNOP"},
		{"non printable", "FOO\x01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AssetIDFromString(tt.input)
			assert.ErrorIs(t, err, ErrInvalidAssetID)
		})
	}
}

func TestAssetIDZeroValue(t *testing.T) {
	var id AssetID
	assert.Equal(t, strings.Repeat("00", 20), id.String())
}
