package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEligibleForAgentDisplay(t *testing.T) {
	assert.False(t, IsEligibleForAgentDisplay(1))
	assert.False(t, IsEligibleForAgentDisplay(2))
	assert.False(t, IsEligibleForAgentDisplay(3))
	assert.True(t, IsEligibleForAgentDisplay(0))
	assert.True(t, IsEligibleForAgentDisplay(4))
	assert.True(t, IsEligibleForAgentDisplay(5))
}

func TestNormalizeTokenAmount(t *testing.T) {
	assert.Equal(t, 1.5, NormalizeTokenAmount(1500000000000000000, 18))
	assert.Equal(t, 100.0, NormalizeTokenAmount(100, 0))
	assert.Equal(t, 1.23, NormalizeTokenAmount(123, 2))
}
