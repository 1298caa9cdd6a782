package utils

import (
	"testing"

	"cryptex-node/types"

	"github.com/stretchr/testify/require"
)

func TestNormalizeAddress(t *testing.T) {
	require.Equal(t, "0xabcdef", NormalizeAddress(" 0xABCdef "))
	require.True(t, SameAddress("0xAAA", "0xaaa"))
	require.False(t, SameAddress("0xAAA", "0xBBB"))
}

func TestZeroAddress(t *testing.T) {
	require.True(t, IsZeroAddress(types.ZeroAddress))
	require.True(t, IsZeroAddress("0x0000000000000000000000000000000000000000"))
	require.False(t, IsZeroAddress("0x00000000000000000000000000000000000000aa"))
}

func TestIsValidAddress(t *testing.T) {
	require.True(t, IsValidAddress("0x627306090abaB3A6e1400e9345bC60c78a8BEf57"))
	require.False(t, IsValidAddress("627306090abaB3A6e1400e9345bC60c78a8BEf57"))
	require.False(t, IsValidAddress("0x1234"))
}
