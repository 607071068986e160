package repository

import (
	"github.com/jinzhu/gorm"

	"github.com/airdropindexer/evmscan/model"
)

// TransactionRepository backs TxScanner (spec.md §4.3), grounded on
// original_source/src/db_class/repositories/evm_transaction_scanner_repository.py
// (same lease/mark/insert shape as BlockRepository, applied to
// evm_block_create_contract_transaction → evm_contract/evm_contract_source).
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) LeaseUnprocessed(tx *gorm.DB, batchSize int) ([]model.BlockCreateContractTransaction, error) {
	var rows []model.BlockCreateContractTransaction
	err := tx.Set("gorm:query_option", "FOR UPDATE SKIP LOCKED").
		Where("processing_status = ?", model.StatusPending).
		Limit(batchSize).
		Find(&rows).Error
	return rows, err
}

func (r *TransactionRepository) MarkInProgress(tx *gorm.DB, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Model(&model.BlockCreateContractTransaction{}).Where("id IN (?)", ids).
		Update("processing_status", model.StatusInProgress).Error
}

func (r *TransactionRepository) MarkCompleted(tx *gorm.DB, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Model(&model.BlockCreateContractTransaction{}).Where("id IN (?)", ids).
		Update("processing_status", model.StatusDone).Error
}

func (r *TransactionRepository) Requeue(tx *gorm.DB, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Model(&model.BlockCreateContractTransaction{}).Where("id IN (?)", ids).
		Update("processing_status", model.StatusPending).Error
}

// SaveContractAndSource persists a verified contract and its source in one
// transaction: inserts evm_contract (already done, status=2 — no further
// SourceScanner work applies to this row), inserts evm_contract_source
// (processing_status=0, pending classification), and marks the originating
// transaction completed. Grounded exactly on
// evm_transaction_scanner_repository.py's save_contract_and_source.
func (r *TransactionRepository) SaveContractAndSource(tx *gorm.DB, txID, chainID uint64, address, contractName, sourceCode, abi string) error {
	contract := model.Contract{
		EVMNetworkChainID:        chainID,
		ContractAddress:          address,
		SourceCodeVerifiedStatus: model.SourceVerified,
		ProcessingStatus:         model.StatusDone,
	}
	if err := tx.Create(&contract).Error; err != nil {
		return err
	}

	source := model.ContractSource{
		EVMContractID:     contract.ID,
		EVMNetworkChainID: chainID,
		ContractAddress:   address,
		ContractName:      contractName,
		SourceCode:        sourceCode,
		ABI:               abi,
		ProcessingStatus:  model.StatusPending,
	}
	if err := tx.Create(&source).Error; err != nil {
		return err
	}

	return tx.Model(&model.BlockCreateContractTransaction{}).Where("id = ?", txID).
		Update("processing_status", model.StatusDone).Error
}

// SaveUnverifiedContract persists a contract with no verified source — it
// never enters evm_contract_source and SourceScanner never sees it.
// Grounded on the same file's save_unverified_contract.
func (r *TransactionRepository) SaveUnverifiedContract(tx *gorm.DB, txID, chainID uint64, address string) error {
	contract := model.Contract{
		EVMNetworkChainID:        chainID,
		ContractAddress:          address,
		SourceCodeVerifiedStatus: model.SourceUnverified,
		ProcessingStatus:         model.StatusDone,
	}
	if err := tx.Create(&contract).Error; err != nil {
		return err
	}

	return tx.Model(&model.BlockCreateContractTransaction{}).Where("id = ?", txID).
		Update("processing_status", model.StatusDone).Error
}
