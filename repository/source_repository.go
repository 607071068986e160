package repository

import (
	"github.com/jinzhu/gorm"

	"github.com/airdropindexer/evmscan/model"
)

// SourceRepository backs SourceScanner (spec.md §4.4), grounded on
// original_source/src/db_class/repositories/evm_contract_source_scanner_repository.py.
type SourceRepository struct {
	db *gorm.DB
}

func NewSourceRepository(db *gorm.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

func (r *SourceRepository) LeaseUnprocessed(tx *gorm.DB, batchSize int) ([]model.ContractSource, error) {
	var rows []model.ContractSource
	err := tx.Set("gorm:query_option", "FOR UPDATE SKIP LOCKED").
		Where("processing_status = ?", model.StatusPending).
		Limit(batchSize).
		Find(&rows).Error
	return rows, err
}

func (r *SourceRepository) MarkInProgress(tx *gorm.DB, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Model(&model.ContractSource{}).Where("id IN (?)", ids).
		Update("processing_status", model.StatusInProgress).Error
}

// MarkClassified records the static-analyzer's 5-level verdict and flips
// the row to done — used both for contracts that pass on to the LLM stage
// and for contracts that are rejected outright (spec.md §4.7).
func (r *SourceRepository) MarkClassified(tx *gorm.DB, id uint64, status int, report string) error {
	return tx.Model(&model.ContractSource{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"processing_status":        model.StatusDone,
			"security_analysis_status": status,
			"security_analysis_report": report,
		}).Error
}

// MarkCompleted flips a single source row to done after its analysis
// pipeline reaches a terminal outcome (rejected at any filter stage, or
// promoted to an eligibility contract).
func (r *SourceRepository) MarkCompleted(tx *gorm.DB, id uint64) error {
	return tx.Model(&model.ContractSource{}).Where("id = ?", id).
		Update("processing_status", model.StatusDone).Error
}

func (r *SourceRepository) Requeue(tx *gorm.DB, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Model(&model.ContractSource{}).Where("id IN (?)", ids).
		Update("processing_status", model.StatusPending).Error
}

// InsertEligibilityIgnore persists a confirmed airdrop contract, relying on
// the (evm_contract_source_id) unique index so a source row is promoted at
// most once.
func (r *SourceRepository) InsertEligibilityIgnore(tx *gorm.DB, e *model.EligibilityContract) error {
	return tx.Set("gorm:insert_option", "IGNORE").Create(e).Error
}
