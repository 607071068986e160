package repository

import (
	"github.com/jinzhu/gorm"

	"github.com/airdropindexer/evmscan/model"
)

// TokenRepository backs TokenScanner (SPEC_FULL.md §7 supplemented feature:
// airdrop token contract security analysis), grounded on
// original_source/src/db_class/repositories/evm_token_scanner_repository.py.
type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// LeaseUnverifiedTokens selects active eligibility contracts whose token
// address is known but whose token contract has not yet been security
// analyzed.
func (r *TokenRepository) LeaseUnverifiedTokens(tx *gorm.DB, batchSize int) ([]model.EligibilityContract, error) {
	var rows []model.EligibilityContract
	err := tx.Set("gorm:query_option", "FOR UPDATE SKIP LOCKED").
		Where("active_status = ? AND token_analysis_status = ? AND token_address IS NOT NULL AND token_address <> ''",
			model.Active, model.TokenStatusUnaudited).
		Limit(batchSize).
		Find(&rows).Error
	return rows, err
}

// UpdateTokenAnalysisStatus records the token contract's static-analysis
// verdict and, per the original, deactivates the eligibility row outright
// if the token contract itself failed to compile or carries a
// medium/high-severity finding (security statuses 1-3).
func (r *TokenRepository) UpdateTokenAnalysisStatus(tx *gorm.DB, id uint64, securityStatus int, reportJSON string) error {
	activeStatus := model.Active
	if securityStatus == model.SecurityCompileFailure || securityStatus == model.SecurityMedium || securityStatus == model.SecurityHigh {
		activeStatus = model.Inactive
	}
	return tx.Model(&model.EligibilityContract{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"token_analysis_status": securityStatus,
			"token_security_report": reportJSON,
			"active_status":         activeStatus,
		}).Error
}
