package registry

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pricereg/priceregd/internal/types"
)

// CallerKind distinguishes the shapes a resolved caller identity can take.
type CallerKind int

const (
	// CallerAddress is an externally-owned account identity.
	CallerAddress CallerKind = iota
	// CallerContract is a contract-shaped identity. Contract callers can
	// never own the registry; write operations abort for them.
	CallerContract
)

// String returns the string representation of the caller kind.
func (k CallerKind) String() string {
	switch k {
	case CallerAddress:
		return "address"
	case CallerContract:
		return "contract"
	default:
		return fmt.Sprintf("CallerKind(%d)", int(k))
	}
}

// Caller is the tagged identity variant produced by the host environment's
// identity resolver. The registry never constructs callers itself.
type Caller struct {
	kind     CallerKind
	address  types.AccountID
	contract [32]byte
}

// AddressCaller wraps an account identity.
func AddressCaller(addr types.AccountID) Caller {
	return Caller{kind: CallerAddress, address: addr}
}

// ContractCaller wraps a contract-shaped identity handle.
func ContractCaller(id [32]byte) Caller {
	return Caller{kind: CallerContract, contract: id}
}

// Kind returns the shape of this identity.
func (c Caller) Kind() CallerKind {
	return c.kind
}

// Address returns the account identity and true when the caller is
// address-shaped.
func (c Caller) Address() (types.AccountID, bool) {
	if c.kind != CallerAddress {
		return types.AccountID{}, false
	}
	return c.address, true
}

// String returns a printable form of the identity.
func (c Caller) String() string {
	switch c.kind {
	case CallerAddress:
		return c.address.String()
	case CallerContract:
		return "contract:" + strings.ToUpper(hex.EncodeToString(c.contract[:]))
	default:
		return "unknown"
	}
}
