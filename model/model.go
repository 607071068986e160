// Package model defines the gorm-tagged row types backing spec.md §3's six
// tables. processing_status and active_status are mutated only through
// repository methods; nothing outside repository/ writes them directly.
package model

import "time"

// Processing status values shared by every table that has one.
const (
	StatusPending    = 0
	StatusInProgress = 1
	StatusDone       = 2
)

// Active status values shared by evm_network and evm_airdrop_eligibility_contract.
const (
	Inactive = 0
	Active   = 1
)

// Network is one row of evm_network: per-chain configuration and the
// NetworkScanner discovery cursor.
type Network struct {
	ChainID                   uint64    `gorm:"primary_key;column:chain_id"`
	ActiveStatus              int       `gorm:"column:active_status"`
	ProcessingStatus          int       `gorm:"column:processing_status"`
	LastDiscoveredBlockNumber uint64    `gorm:"column:last_discovered_block_number"`
	FinalityDepth             uint64    `gorm:"column:finality_depth"`
	DiscoveredAt              time.Time `gorm:"column:discovered_at"`
}

func (Network) TableName() string { return "evm_network" }

// Block is one row of evm_block: a block discovered on a chain, pending
// BlockScanner's create-contract-transaction extraction.
type Block struct {
	ID                uint64 `gorm:"primary_key"`
	EVMNetworkChainID uint64 `gorm:"column:evm_network_chain_id;unique_index:idx_network_block"`
	BlockNumber       uint64 `gorm:"column:block_number;unique_index:idx_network_block"`
	BlockHash         string `gorm:"column:block_hash"`
	ProcessingStatus  int    `gorm:"column:processing_status"`
}

func (Block) TableName() string { return "evm_block" }

// BlockCreateContractTransaction is one row of
// evm_block_create_contract_transaction: a transaction that created a
// contract, pending TxScanner's receipt/source lookup.
type BlockCreateContractTransaction struct {
	ID                uint64 `gorm:"primary_key"`
	EVMBlockID        uint64 `gorm:"column:evm_block_id"`
	EVMNetworkChainID uint64 `gorm:"column:evm_network_chain_id;unique_index:idx_network_tx"`
	TransactionHash   string `gorm:"column:transaction_hash;unique_index:idx_network_tx"`
	ProcessingStatus  int    `gorm:"column:processing_status"`
}

func (BlockCreateContractTransaction) TableName() string {
	return "evm_block_create_contract_transaction"
}

// Source-verification status values for evm_contract.source_code_verified_status.
const (
	SourceUnverified = 0
	SourceVerified   = 1
)

// Contract is one row of evm_contract: a deployed contract discovered by
// TxScanner, carrying only the receipt-derived facts (address, whether its
// source is verified). Source text and ABI live in ContractSource.
type Contract struct {
	ID                       uint64 `gorm:"primary_key"`
	EVMNetworkChainID        uint64 `gorm:"column:evm_network_chain_id;unique_index:idx_network_contract"`
	ContractAddress          string `gorm:"column:contract_address;unique_index:idx_network_contract"`
	SourceCodeVerifiedStatus int    `gorm:"column:source_code_verified_status"`
	ProcessingStatus         int    `gorm:"column:processing_status"`
}

func (Contract) TableName() string { return "evm_contract" }

// Security analysis status values for ContractSource.SecurityAnalysisStatus,
// matching the static analyzer's 5-level classification (spec.md §4.7):
// 1=compile failure, 2=medium finding, 3=high finding, 4=low finding, 5=clean.
const (
	SecurityCompileFailure = 1
	SecurityMedium         = 2
	SecurityHigh           = 3
	SecurityLow            = 4
	SecurityClean          = 5
)

// ContractSource is one row of evm_contract_source: verified source code
// and ABI for a contract, pending SourceScanner's classification pipeline.
type ContractSource struct {
	ID                     uint64 `gorm:"primary_key"`
	EVMContractID          uint64 `gorm:"column:evm_contract_id;unique_index:idx_contract_source"`
	EVMNetworkChainID      uint64 `gorm:"column:evm_network_chain_id"`
	ContractAddress        string `gorm:"column:contract_address"`
	ContractName           string `gorm:"column:contract_name"`
	SourceCode             string `gorm:"column:source_code;type:longtext"`
	ABI                    string `gorm:"column:abi;type:longtext"`
	ProcessingStatus       int    `gorm:"column:processing_status"`
	SecurityAnalysisStatus int    `gorm:"column:security_analysis_status"`
	SecurityAnalysisReport string `gorm:"column:security_analysis_report;type:longtext"`
}

func (ContractSource) TableName() string { return "evm_contract_source" }

// Token analysis status values for EligibilityContract.TokenAnalysisStatus.
// The agent's read contract filters on NOT IN (1,2,3) — preserved verbatim
// from the original (spec.md §9 open question 2); 0=unaudited/unknown,
// 1..5 mirror the static-analyzer classification applied to the token.
const (
	TokenStatusUnaudited = 0
)

// EligibilityContract is one row of evm_airdrop_eligibility_contract: a
// contract SourceScanner confirmed is an airdrop, with everything the
// out-of-scope agent needs to check wallet eligibility. After creation,
// DateScanner mutates claim_start/end_timestamp, the getter ABI columns, and
// active_status; TokenScanner mutates token_analysis_status,
// token_security_report, and active_status.
type EligibilityContract struct {
	ID                    uint64  `gorm:"primary_key"`
	EVMContractSourceID   uint64  `gorm:"column:evm_contract_source_id;unique_index:idx_eligibility_source"`
	ChainID               uint64  `gorm:"column:chain_id"`
	ContractAddress       string  `gorm:"column:contract_address"`
	EligibilityFunctionABI string `gorm:"column:eligibility_function_abi;type:text;not null"`
	GetTokenFunctionABI   string  `gorm:"column:get_token_function_abi;type:text"`
	ClaimStartGetterABI   *string `gorm:"column:claim_start_getter_abi;type:text"`
	ClaimEndGetterABI     *string `gorm:"column:claim_end_getter_abi;type:text"`
	ClaimStartTimestamp   *int64  `gorm:"column:claim_start_timestamp"`
	ClaimEndTimestamp     *int64  `gorm:"column:claim_end_timestamp"`
	TokenAddress          string  `gorm:"column:token_address"`
	TokenTicker           string  `gorm:"column:token_ticker"`
	TokenDecimals         int     `gorm:"column:token_decimals"`
	TokenAnalysisStatus   int     `gorm:"column:token_analysis_status"`
	TokenSecurityReport   string  `gorm:"column:token_security_report;type:longtext"`
	ActiveStatus          int     `gorm:"column:active_status"`
}

func (EligibilityContract) TableName() string { return "evm_airdrop_eligibility_contract" }

// AllModels lists every table for storage.AutoMigrate.
func AllModels() []interface{} {
	return []interface{}{
		&Network{},
		&Block{},
		&BlockCreateContractTransaction{},
		&Contract{},
		&ContractSource{},
		&EligibilityContract{},
	}
}
