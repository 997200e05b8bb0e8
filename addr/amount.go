package addr

import (
	"strings"

	"github.com/holiman/uint256"

	"github.com/walletcore/allowance-scanner/scanerr"
)

// U256 is the typed newtype wrapping a 256-bit allowance amount. It exists
// so an amount can never be compared or added as a raw hex string.
type U256 struct {
	v *uint256.Int
}

// ZeroU256 is the zero allowance amount, equivalent to a revoked approval.
var ZeroU256 = U256{v: uint256.NewInt(0)}

// HexToU256 decodes a "0x"-prefixed hex string (as found in an Approval log's
// data field) into a U256. A missing "0x" prefix is a decode failure, not an
// implicit bare-hex value.
func HexToU256(hexStr string) (U256, error) {
	if !strings.HasPrefix(hexStr, "0x") && !strings.HasPrefix(hexStr, "0X") {
		return U256{}, scanerr.New(scanerr.Decode, "addr.HexToU256", errMissingPrefix(hexStr))
	}
	// Log data is a zero-padded 32-byte word; uint256.FromHex rejects leading
	// zeros, so strip them before decoding.
	s := strings.TrimLeft(hexStr[2:], "0")
	if s == "" {
		s = "0"
	}
	v, err := uint256.FromHex("0x" + s)
	if err != nil {
		return U256{}, scanerr.New(scanerr.Decode, "addr.HexToU256", err)
	}
	return U256{v: v}, nil
}

type errMissingPrefix string

func (e errMissingPrefix) Error() string {
	return "missing 0x prefix: " + string(e)
}

// U256ToHex renders the amount back to "0x"-prefixed hex, no leading zeros
// beyond a single required digit.
func U256ToHex(a U256) string {
	if a.v == nil {
		return "0x0"
	}
	return a.v.Hex()
}

// IsZero reports whether the amount is zero, the threshold spec.md uses to
// decide whether an allowance entry should be erased rather than kept.
func (a U256) IsZero() bool {
	return a.v == nil || a.v.IsZero()
}

// Cmp compares two amounts the way uint256.Int.Cmp does.
func (a U256) Cmp(b U256) int {
	av, bv := a.v, b.v
	if av == nil {
		av = uint256.NewInt(0)
	}
	if bv == nil {
		bv = uint256.NewInt(0)
	}
	return av.Cmp(bv)
}

func (a U256) String() string {
	return U256ToHex(a)
}
