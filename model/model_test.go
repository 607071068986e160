package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllModels_ReturnsEveryTable(t *testing.T) {
	all := AllModels()
	assert.Len(t, all, 6)
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "evm_network", Network{}.TableName())
	assert.Equal(t, "evm_block", Block{}.TableName())
	assert.Equal(t, "evm_block_create_contract_transaction", BlockCreateContractTransaction{}.TableName())
	assert.Equal(t, "evm_contract", Contract{}.TableName())
	assert.Equal(t, "evm_contract_source", ContractSource{}.TableName())
	assert.Equal(t, "evm_airdrop_eligibility_contract", EligibilityContract{}.TableName())
}
