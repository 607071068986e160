package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransient_WrapsAndIsDetected(t *testing.T) {
	base := errors.New("timeout")
	wrapped := Transient(base, "request failed")
	assert.True(t, IsTransient(wrapped))
	assert.False(t, IsStructural(wrapped))
}

func TestStructural_WrapsAndIsDetected(t *testing.T) {
	base := errors.New("bad shape")
	wrapped := Structural(base, "payload does not match schema")
	assert.True(t, IsStructural(wrapped))
	assert.False(t, IsTransient(wrapped))
}

func TestIsUnsupportedCapability(t *testing.T) {
	assert.True(t, IsUnsupportedCapability(ErrUnsupportedCapability))
	assert.False(t, IsUnsupportedCapability(errors.New("something else")))
}

func TestIsPathTraversal(t *testing.T) {
	assert.True(t, IsPathTraversal(ErrPathTraversal))
	assert.False(t, IsPathTraversal(ErrTransient))
}

func TestIsNotAirdrop(t *testing.T) {
	assert.True(t, IsNotAirdrop(ErrNotAirdrop))
	assert.False(t, IsNotAirdrop(ErrStructural))
}
