// Package topichash computes the Keccak-256 event-signature hash used to
// recognize ERC-20 Approval logs on the wire, the same way consensus/equa
// hashes its sentinel domain data once at package init and reuses the
// result as a constant.
package topichash

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// approvalSignature is the canonical ERC-20 event signature this scanner
// watches for; "Approval(address,address,uint256)".
const approvalSignature = "Approval(address,address,uint256)"

// ApprovalTopic is the first topic of every ERC-20 Approval log, computed
// once at init time and compared case-insensitively against whatever an RPC
// node returns for topics[0].
var ApprovalTopic string

func init() {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(approvalSignature))
	ApprovalTopic = "0x" + hex.EncodeToString(h.Sum(nil))
}

// IsApproval reports whether topic0 (as returned by eth_getLogs, case
// insensitive) names the ERC-20 Approval event.
func IsApproval(topic0 string) bool {
	return strings.EqualFold(topic0, ApprovalTopic)
}
