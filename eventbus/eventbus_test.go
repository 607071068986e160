package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoopPublisher_NeverErrors(t *testing.T) {
	var p Publisher = NoopPublisher{}
	err := p.PublishAirdropDiscovered(AirdropDiscovered{
		ChainID:         1,
		ContractAddress: "0xabc",
		TokenTicker:     "TOK",
	})
	assert.NoError(t, err)
}
