package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeSourceCode_DoubleBraced(t *testing.T) {
	out, err := canonicalizeSourceCode(`{{"language":"Solidity","sources":{}}}`)
	require.NoError(t, err)
	assert.Equal(t, `{"language":"Solidity","sources":{}}`, out)
}

func TestCanonicalizeSourceCode_DoubleBracedInvalidJSON(t *testing.T) {
	_, err := canonicalizeSourceCode(`{{not valid json}}`)
	assert.Error(t, err)
}

func TestCanonicalizeSourceCode_PlainObject(t *testing.T) {
	out, err := canonicalizeSourceCode(`{"source":"contract Foo {}"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"source":"contract Foo {}"}`, out)
}

func TestCanonicalizeSourceCode_PlainObjectInvalidJSON(t *testing.T) {
	_, err := canonicalizeSourceCode(`{not valid json`)
	assert.Error(t, err)
}

func TestCanonicalizeSourceCode_RawSourceWrapped(t *testing.T) {
	out, err := canonicalizeSourceCode("contract Foo { function bar() public {} }")
	require.NoError(t, err)
	assert.Contains(t, out, `"source"`)
	assert.Contains(t, out, "contract Foo")
}
