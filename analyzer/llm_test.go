package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLLMTimeField_Nil(t *testing.T) {
	field := ParseLLMTimeField(nil)
	assert.Nil(t, field.GetterABI)
	assert.Nil(t, field.Timestamp)
}

func TestParseLLMTimeField_Float64Timestamp(t *testing.T) {
	field := ParseLLMTimeField(float64(1735689600))
	require.NotNil(t, field.Timestamp)
	assert.Equal(t, int64(1735689600), *field.Timestamp)
	assert.Nil(t, field.GetterABI)
}

func TestParseLLMTimeField_MapBecomesGetterABI(t *testing.T) {
	value := map[string]interface{}{"type": "function", "name": "claimEndTime"}
	field := ParseLLMTimeField(value)
	require.NotNil(t, field.GetterABI)
	assert.Contains(t, *field.GetterABI, "claimEndTime")
	assert.Nil(t, field.Timestamp)
}

func TestParseLLMTimeField_StringInteger(t *testing.T) {
	field := ParseLLMTimeField("1735689600")
	require.NotNil(t, field.Timestamp)
	assert.Equal(t, int64(1735689600), *field.Timestamp)
}

func TestParseLLMTimeField_StringJSON(t *testing.T) {
	field := ParseLLMTimeField(`{"type":"function","name":"claimEndTime"}`)
	require.NotNil(t, field.GetterABI)
	assert.Equal(t, `{"type":"function","name":"claimEndTime"}`, *field.GetterABI)
}

func TestParseLLMTimeField_UnparseableString(t *testing.T) {
	field := ParseLLMTimeField("not a number or json")
	assert.Nil(t, field.GetterABI)
	assert.Nil(t, field.Timestamp)
}

func TestFlattenSourceCode_SingleFile(t *testing.T) {
	out := FlattenSourceCode(`{"source":"contract Foo {}"}`)
	assert.Equal(t, "contract Foo {}", out)
}

func TestFlattenSourceCode_MultiFile(t *testing.T) {
	out := FlattenSourceCode(`{"sources":{"Foo.sol":{"content":"contract Foo {}"}}}`)
	assert.Contains(t, out, "Foo.sol")
	assert.Contains(t, out, "contract Foo {}")
}

func TestFlattenSourceCode_UnparseableFallsBackToRaw(t *testing.T) {
	out := FlattenSourceCode("not json at all")
	assert.Equal(t, "not json at all", out)
}
