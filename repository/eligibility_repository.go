package repository

import (
	"github.com/jinzhu/gorm"

	"github.com/airdropindexer/evmscan/model"
)

// EligibilityRepository backs DateScanner's four-step reconciliation
// (spec.md §4.5), grounded on
// original_source/src/db_class/repositories/evm_contract_date_scanner_repository.py.
type EligibilityRepository struct {
	db *gorm.DB
}

func NewEligibilityRepository(db *gorm.DB) *EligibilityRepository {
	return &EligibilityRepository{db: db}
}

// DeactivateExpired is reconciliation step 1: a single SQL statement that
// flips active_status 1→0 for every row whose claim window already closed.
// Its own short transaction, independent of the fan-out steps below.
func (r *EligibilityRepository) DeactivateExpired(tx *gorm.DB) (int64, error) {
	res := tx.Model(&model.EligibilityContract{}).
		Where("active_status = ? AND claim_end_timestamp IS NOT NULL AND claim_end_timestamp <= ?", model.Active, now().Unix()).
		Update("active_status", model.Inactive)
	return res.RowsAffected, res.Error
}

// ContractsForCodeCheck is reconciliation step 2: active contracts whose
// claim window end is still unknown, leased for an eth_getCode liveness
// check.
func (r *EligibilityRepository) ContractsForCodeCheck(tx *gorm.DB, batchSize int) ([]model.EligibilityContract, error) {
	var rows []model.EligibilityContract
	err := tx.Set("gorm:query_option", "FOR UPDATE SKIP LOCKED").
		Where("active_status = ? AND claim_end_timestamp IS NULL", model.Active).
		Limit(batchSize).
		Find(&rows).Error
	return rows, err
}

// ContractsForClaimEndCheck is reconciliation step 3: contracts with a
// known getter ABI but no resolved end timestamp yet.
func (r *EligibilityRepository) ContractsForClaimEndCheck(tx *gorm.DB, batchSize int) ([]model.EligibilityContract, error) {
	var rows []model.EligibilityContract
	err := tx.Set("gorm:query_option", "FOR UPDATE SKIP LOCKED").
		Where("active_status = ? AND claim_end_timestamp IS NULL AND claim_end_getter_abi IS NOT NULL", model.Active).
		Limit(batchSize).
		Find(&rows).Error
	return rows, err
}

// ContractsForClaimStartCheck is reconciliation step 4, symmetric to step 3.
func (r *EligibilityRepository) ContractsForClaimStartCheck(tx *gorm.DB, batchSize int) ([]model.EligibilityContract, error) {
	var rows []model.EligibilityContract
	err := tx.Set("gorm:query_option", "FOR UPDATE SKIP LOCKED").
		Where("active_status = ? AND claim_start_timestamp IS NULL AND claim_start_getter_abi IS NOT NULL", model.Active).
		Limit(batchSize).
		Find(&rows).Error
	return rows, err
}

// DeactivateBatch flips active_status 1→0 for destroyed-contract rows found
// during the code-check fan-out.
func (r *EligibilityRepository) DeactivateBatch(tx *gorm.DB, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Model(&model.EligibilityContract{}).Where("id IN (?)", ids).
		Update("active_status", model.Inactive).Error
}

// UpdateClaimStartTimestamp records a resolved claim-start time.
func (r *EligibilityRepository) UpdateClaimStartTimestamp(tx *gorm.DB, id uint64, ts int64) error {
	return tx.Model(&model.EligibilityContract{}).Where("id = ?", id).
		Update("claim_start_timestamp", ts).Error
}

// InvalidateClaimStartABI nulls the getter ABI after a garbage-timestamp
// response, stopping further retries against a bad getter
// (spec.md §7, "invalid-ABI-from-LLM" style terminal handling applied here
// to a bad on-chain getter instead).
func (r *EligibilityRepository) InvalidateClaimStartABI(tx *gorm.DB, id uint64) error {
	return tx.Model(&model.EligibilityContract{}).Where("id = ?", id).
		Update("claim_start_getter_abi", nil).Error
}

// UpdateClaimEndTimestamp records a resolved claim-end time and, in the
// same statement, whether the contract should be deactivated because that
// end time has already passed.
func (r *EligibilityRepository) UpdateClaimEndTimestamp(tx *gorm.DB, id uint64, ts int64, activeStatus int) error {
	return tx.Model(&model.EligibilityContract{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"claim_end_timestamp": ts,
			"active_status":       activeStatus,
		}).Error
}

// InvalidateClaimEndABI is the end-timestamp symmetric case of
// InvalidateClaimStartABI.
func (r *EligibilityRepository) InvalidateClaimEndABI(tx *gorm.DB, id uint64) error {
	return tx.Model(&model.EligibilityContract{}).Where("id = ?", id).
		Update("claim_end_getter_abi", nil).Error
}
