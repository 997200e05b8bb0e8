// Package addr implements AddressCodec: conversions between the 20-byte
// contract-address form, the 32-byte topic-padded form used inside event
// logs and the allowance cache, and EIP-55 checksum casing.
//
// No arithmetic is ever performed on a hex string directly — every decoded
// value is converted to a typed newtype (Address20, Address32Padded, U256)
// first, per the source's design notes on avoiding implicit string-typed
// addresses and amounts.
package addr

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Address20 is the canonical 20-byte EVM address form, "0x"-prefixed hex.
type Address20 string

// Address32Padded is the 32-byte zero-left-padded form used inside event
// topics and persisted in the allowance cache.
type Address32Padded string

// EqualFold reports whether two Address32Padded values are the same address
// ignoring hex-digit case, per spec.md's case-insensitive equality rule.
func (a Address32Padded) EqualFold(b Address32Padded) bool {
	return strings.EqualFold(string(a), string(b))
}

// EqualFold reports case-insensitive equality for Address20.
func (a Address20) EqualFold(b Address20) bool {
	return strings.EqualFold(string(a), string(b))
}

// PadToTopic left-pads a 20-byte hex address with 12 zero bytes to produce
// the 32-byte topic-encoded form. Case is preserved bit-for-bit; downstream
// comparisons must use EqualFold.
func PadToTopic(a Address20) (Address32Padded, error) {
	s := string(a)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "", fmt.Errorf("addr: PadToTopic: missing 0x prefix: %q", s)
	}
	body := s[2:]
	if len(body) != 40 {
		return "", fmt.Errorf("addr: PadToTopic: expected 40 hex chars, got %d", len(body))
	}
	if _, err := hex.DecodeString(body); err != nil {
		return "", fmt.Errorf("addr: PadToTopic: %w", err)
	}
	return Address32Padded("0x" + strings.Repeat("0", 24) + body), nil
}

// UnpadFromTopic strips the 12 leading zero bytes off a 32-byte padded
// address, returning the 20-byte form. It does not validate that the
// stripped bytes were actually zero (callers that care should check).
func UnpadFromTopic(a Address32Padded) (Address20, error) {
	s := string(a)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "", fmt.Errorf("addr: UnpadFromTopic: missing 0x prefix: %q", s)
	}
	body := s[2:]
	if len(body) != 64 {
		return "", fmt.Errorf("addr: UnpadFromTopic: expected 64 hex chars, got %d", len(body))
	}
	return Address20("0x" + body[24:]), nil
}

// ToChecksum applies standard EIP-55 checksum casing to a 20-byte address.
func ToChecksum(a Address20) (Address20, error) {
	s := string(a)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "", fmt.Errorf("addr: ToChecksum: missing 0x prefix: %q", s)
	}
	body := strings.ToLower(s[2:])
	if len(body) != 40 {
		return "", fmt.Errorf("addr: ToChecksum: expected 40 hex chars, got %d", len(body))
	}
	if _, err := hex.DecodeString(body); err != nil {
		return "", fmt.Errorf("addr: ToChecksum: %w", err)
	}

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(body))
	digest := h.Sum(nil)

	out := make([]byte, 40)
	for i := 0; i < 40; i++ {
		c := body[i]
		if c < 'a' || c > 'f' {
			out[i] = c
			continue
		}
		// nibble i of the digest, high nibble first.
		var nibble byte
		if i%2 == 0 {
			nibble = digest[i/2] >> 4
		} else {
			nibble = digest[i/2] & 0x0f
		}
		if nibble >= 8 {
			out[i] = c - 'a' + 'A'
		} else {
			out[i] = c
		}
	}
	return Address20("0x" + string(out)), nil
}
