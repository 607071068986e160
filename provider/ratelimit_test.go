package provider

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGate_FirstCallDoesNotBlock(t *testing.T) {
	g := NewGate(50 * time.Millisecond)
	start := time.Now()
	g.Wait()
	assert.Less(t, time.Since(start), 20*time.Millisecond)
}

func TestGate_EnforcesMinimumDelay(t *testing.T) {
	g := NewGate(30 * time.Millisecond)
	g.Wait()
	start := time.Now()
	g.Wait()
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
}

func TestGate_ZeroDelayNeverBlocks(t *testing.T) {
	g := NewGate(0)
	g.Wait()
	start := time.Now()
	g.Wait()
	assert.Less(t, time.Since(start), 20*time.Millisecond)
}
