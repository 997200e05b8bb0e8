package addr

import (
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/require"
)

func TestPadToTopicAndBack(t *testing.T) {
	in := Address20("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	padded, err := PadToTopic(in)
	require.NoError(t, err)
	require.Len(t, string(padded), 66)

	back, err := UnpadFromTopic(padded)
	require.NoError(t, err)
	require.True(t, back.EqualFold(in))
}

func TestPadToTopicRejectsMalformed(t *testing.T) {
	cases := []Address20{
		"5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1Be",
		"0xZZAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
	}
	for _, c := range cases {
		_, err := PadToTopic(c)
		require.Error(t, err)
	}
}

func TestToChecksumKnownVector(t *testing.T) {
	// Well-known EIP-55 test vector.
	got, err := ToChecksum(Address20("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"))
	require.NoError(t, err)
	require.Equal(t, Address20("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"), got)
}

func TestPadToTopicFuzzNeverPanics(t *testing.T) {
	f := fuzz.New().NilChance(0)
	for i := 0; i < 200; i++ {
		var s string
		f.Fuzz(&s)
		require.NotPanics(t, func() {
			if padded, err := PadToTopic(Address20(s)); err == nil {
				require.Len(t, string(padded), 66)
			}
		})
	}
}

func TestEqualFoldCaseInsensitive(t *testing.T) {
	a := Address32Padded("0x0000000000000000000000005aaeb6053f3e94c9b9a09f33669435e7ef1beaed"[:66])
	b := Address32Padded("0x0000000000000000000000005AAEB6053F3E94C9B9A09F33669435E7EF1BEAED"[:66])
	require.True(t, a.EqualFold(b))
}
