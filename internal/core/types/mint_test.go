package types_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/arbcore/internal/core/types"
)

func TestMintFromEVMAddressRejectsInvalidInput(t *testing.T) {
	_, err := types.MintFromEVMAddress("not-an-address")
	require.Error(t, err)
}

func TestMintFromEVMAddressLeftPadsInto32Bytes(t *testing.T) {
	m, err := types.MintFromEVMAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	require.NoError(t, err)
	assert.True(t, m[0] == 0 && m[11] == 0, "the upper 12 bytes must be zero-padding ahead of the 20-byte address")
	assert.False(t, m.IsZero())
}

func TestMintFromHexAcceptsWideSVMPubkey(t *testing.T) {
	hex32 := "ab" + strings.Repeat("00", 31)
	m, err := types.MintFromHex("0x" + hex32)
	require.NoError(t, err)
	assert.Equal(t, byte(0xab), m[0])
}

func TestMintFromHexRejectsOversizedInput(t *testing.T) {
	long := make([]byte, 66)
	for i := range long {
		long[i] = '0'
	}
	_, err := types.MintFromHex(string(long))
	require.Error(t, err)
}
