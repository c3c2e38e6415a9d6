// Package types defines the primitive identifiers shared across the price
// registry: account identities and opaque asset handles.
package types

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// AccountID is a fixed-width account identifier. The zero value is the
// sentinel "unset" address used to detect the uninitialized registry state.
type AccountID [20]byte

// SentinelAccount is the distinguished "no owner" value.
var SentinelAccount = AccountID{}

// ErrInvalidAccountID is returned when an account string cannot be decoded.
var ErrInvalidAccountID = errors.New("invalid account id")

// IsSentinel reports whether the account is the unset sentinel value.
func (a AccountID) IsSentinel() bool {
	return a == SentinelAccount
}

// String returns the uppercase hex representation of the account.
func (a AccountID) String() string {
	return strings.ToUpper(hex.EncodeToString(a[:]))
}

// AccountIDFromHex decodes a 40-character hex string into an AccountID.
func AccountIDFromHex(s string) (AccountID, error) {
	var id AccountID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("%w: %v", ErrInvalidAccountID, err)
	}
	if len(b) != len(id) {
		return id, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAccountID, len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

// AssetID is an opaque fixed-width asset handle. Short symbolic codes
// (up to 15 bytes of ASCII) are stored left-padded with zero bytes; anything
// else round-trips as 40-character hex.
type AssetID [20]byte

// ErrInvalidAssetID is returned when an asset string cannot be decoded.
var ErrInvalidAssetID = errors.New("invalid asset id")

// String returns the symbolic code when the asset is a short ASCII symbol,
// otherwise the uppercase hex representation.
func (a AssetID) String() string {
	// Symbolic assets keep their code in the trailing bytes with a zero
	// prefix, mirroring how short currency codes are packed on the wire.
	zeroPrefix := 0
	for zeroPrefix < len(a) && a[zeroPrefix] == 0 {
		zeroPrefix++
	}
	if zeroPrefix == len(a) {
		return strings.ToUpper(hex.EncodeToString(a[:]))
	}
	tail := a[zeroPrefix:]
	if zeroPrefix >= 5 && isPrintableASCII(tail) {
		return string(tail)
	}
	return strings.ToUpper(hex.EncodeToString(a[:]))
}

// AssetIDFromString parses either a short symbolic code ("XRP", "BTCUSD")
// or a 40-character hex string.
func AssetIDFromString(s string) (AssetID, error) {
	var id AssetID
	if s == "" {
		return id, fmt.Errorf("%w: empty string", ErrInvalidAssetID)
	}
	if len(s) == 40 {
		b, err := hex.DecodeString(s)
		if err == nil {
			copy(id[:], b)
			return id, nil
		}
	}
	if len(s) > 15 {
		return id, fmt.Errorf("%w: symbol too long: %q", ErrInvalidAssetID, s)
	}
	if !isPrintableASCII([]byte(s)) {
		return id, fmt.Errorf("%w: non-printable symbol: %q", ErrInvalidAssetID, s)
	}
	copy(id[len(id)-len(s):], s)
	return id, nil
}

func isPrintableASCII(b []byte) bool {
	for _, c := range b {
		if c < 0x21 || c > 0x7e {
			return false
		}
	}
	return true
}
