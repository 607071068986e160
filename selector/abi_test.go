package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunctionSelector(t *testing.T) {
	fn := FunctionABI{
		Type: "function",
		Name: "isEligible",
		Inputs: []FunctionABIInput{
			{Type: "address"},
		},
	}
	sel, err := FunctionSelector(fn)
	require.NoError(t, err)
	assert.Len(t, sel, 10) // "0x" + 8 hex chars
	assert.Equal(t, "0x", sel[:2])
}

func TestFunctionSelector_RejectsNonFunction(t *testing.T) {
	_, err := FunctionSelector(FunctionABI{Type: "event", Name: "Transfer"})
	assert.Error(t, err)
}

func TestFunctionSelector_RejectsMissingName(t *testing.T) {
	_, err := FunctionSelector(FunctionABI{Type: "function"})
	assert.Error(t, err)
}

func TestHasExactlyOneAddressInput(t *testing.T) {
	assert.True(t, HasExactlyOneAddressInput(FunctionABI{Inputs: []FunctionABIInput{{Type: "address"}}}))
	assert.False(t, HasExactlyOneAddressInput(FunctionABI{Inputs: []FunctionABIInput{{Type: "address"}, {Type: "uint256"}}}))
	assert.False(t, HasExactlyOneAddressInput(FunctionABI{Inputs: []FunctionABIInput{{Type: "uint256"}}}))
}

func TestDecodeAddress(t *testing.T) {
	// 32-byte left-padded address, matching a typical eth_call result.
	result := "0x000000000000000000000000d8da6bf26964af9d7eed9e03e53415d37aa96045"
	addr, err := DecodeAddress(result)
	require.NoError(t, err)
	assert.Equal(t, "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045", addr)
}

func TestDecodeAddress_RejectsShortResult(t *testing.T) {
	_, err := DecodeAddress("0x1234")
	assert.Error(t, err)
}

func TestDecodeTimestamp(t *testing.T) {
	ts, err := DecodeTimestamp("0x0000000000000000000000000000000000000000000000000000000065a00000")
	require.NoError(t, err)
	assert.Positive(t, ts)
}

func TestDecodeTimestamp_ZeroIsValidNotSet(t *testing.T) {
	ts, err := DecodeTimestamp("0x0000000000000000000000000000000000000000000000000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, int64(0), ts)
}

func TestDecodeTimestamp_RejectsGarbage(t *testing.T) {
	// A value far beyond GarbageTimestampThreshold, e.g. a packed struct or hash.
	_, err := DecodeTimestamp("0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	assert.Error(t, err)
}

func TestDecodeTimestamp_RejectsMalformed(t *testing.T) {
	_, err := DecodeTimestamp("not-hex")
	assert.Error(t, err)
}

func TestIsCodeEmpty(t *testing.T) {
	assert.True(t, IsCodeEmpty("0x"))
	assert.True(t, IsCodeEmpty("0x000000"))
	assert.False(t, IsCodeEmpty("0x6080604052"))
	assert.False(t, IsCodeEmpty(""))
}
