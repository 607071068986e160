package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordFilter_CheckABI_Match(t *testing.T) {
	f := NewKeywordFilter([]string{"claim", "airdrop"})
	abiJSON := `[{"name":"claimTokens","type":"function"},{"name":"balanceOf","type":"function"}]`
	assert.True(t, f.CheckABI(abiJSON))
}

func TestKeywordFilter_CheckABI_CaseInsensitive(t *testing.T) {
	f := NewKeywordFilter([]string{"merkle"})
	abiJSON := `[{"name":"verifyMerkleProof","type":"function"}]`
	assert.True(t, f.CheckABI(abiJSON))
}

func TestKeywordFilter_CheckABI_NoMatch(t *testing.T) {
	f := NewKeywordFilter([]string{"claim", "airdrop"})
	abiJSON := `[{"name":"transfer","type":"function"},{"name":"approve","type":"function"}]`
	assert.False(t, f.CheckABI(abiJSON))
}

func TestKeywordFilter_CheckABI_EmptyInput(t *testing.T) {
	f := NewKeywordFilter([]string{"claim"})
	assert.False(t, f.CheckABI(""))
}

func TestKeywordFilter_CheckABI_MalformedJSON(t *testing.T) {
	f := NewKeywordFilter([]string{"claim"})
	assert.False(t, f.CheckABI("not json"))
}
