package topichash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApprovalTopicShape(t *testing.T) {
	require.True(t, strings.HasPrefix(ApprovalTopic, "0x"))
	require.Len(t, ApprovalTopic, 66)
}

func TestIsApprovalCaseInsensitive(t *testing.T) {
	require.True(t, IsApproval(ApprovalTopic))
	require.True(t, IsApproval(strings.ToUpper(ApprovalTopic)))
	require.False(t, IsApproval("0xdeadbeef"))
}
