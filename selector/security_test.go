package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSecurityStatus_KnownCodes(t *testing.T) {
	assert.Equal(t, "The token's source code has not been audited", FormatSecurityStatus(0))
	assert.Equal(t, "Contract code did not compile", FormatSecurityStatus(1))
	assert.Equal(t, "Suspicious", FormatSecurityStatus(2))
	assert.Equal(t, "Unsafe", FormatSecurityStatus(3))
	assert.Equal(t, "Caution", FormatSecurityStatus(4))
	assert.Equal(t, "Verified Safe", FormatSecurityStatus(5))
}

func TestFormatSecurityStatus_UnknownCode(t *testing.T) {
	assert.Equal(t, "Unknown", FormatSecurityStatus(6))
	assert.Equal(t, "Unknown", FormatSecurityStatus(-1))
}
