package repository

import (
	"github.com/jinzhu/gorm"

	"github.com/airdropindexer/evmscan/model"
)

// BlockRepository backs BlockScanner (spec.md §4.2), grounded on
// original_source/src/db_class/repositories/evm_block_scanner_repository.py.
type BlockRepository struct {
	db *gorm.DB
}

func NewBlockRepository(db *gorm.DB) *BlockRepository {
	return &BlockRepository{db: db}
}

// LeaseUnprocessed selects and row-locks up to batchSize pending blocks
// within tx, using FOR UPDATE SKIP LOCKED so concurrent scanner instances
// never contend for the same row (spec.md §5).
func (r *BlockRepository) LeaseUnprocessed(tx *gorm.DB, batchSize int) ([]model.Block, error) {
	var blocks []model.Block
	err := tx.Set("gorm:query_option", "FOR UPDATE SKIP LOCKED").
		Where("processing_status = ?", model.StatusPending).
		Limit(batchSize).
		Find(&blocks).Error
	return blocks, err
}

// MarkInProgress flips a leased batch's status 0→1.
func (r *BlockRepository) MarkInProgress(tx *gorm.DB, blockIDs []uint64) error {
	if len(blockIDs) == 0 {
		return nil
	}
	return tx.Model(&model.Block{}).Where("id IN (?)", blockIDs).
		Update("processing_status", model.StatusInProgress).Error
}

// MarkCompleted flips a batch's status to done (2) — terminal, never
// re-queued (spec.md §3 invariant 4).
func (r *BlockRepository) MarkCompleted(tx *gorm.DB, blockIDs []uint64) error {
	if len(blockIDs) == 0 {
		return nil
	}
	return tx.Model(&model.Block{}).Where("id IN (?)", blockIDs).
		Update("processing_status", model.StatusDone).Error
}

// Requeue flips a batch's status back to pending (0) on cancellation or
// processing failure (spec.md §3 invariant 4's 0→1→0 path).
func (r *BlockRepository) Requeue(tx *gorm.DB, blockIDs []uint64) error {
	if len(blockIDs) == 0 {
		return nil
	}
	return tx.Model(&model.Block{}).Where("id IN (?)", blockIDs).
		Update("processing_status", model.StatusPending).Error
}

// InsertCreateContractTxsIgnore bulk-inserts newly discovered
// contract-creation transactions, relying on the (chain_id, transaction_hash)
// unique index for insert-ignore semantics.
func (r *BlockRepository) InsertCreateContractTxsIgnore(tx *gorm.DB, txs []model.BlockCreateContractTransaction) error {
	if len(txs) == 0 {
		return nil
	}
	for i := range txs {
		if err := tx.Set("gorm:insert_option", "IGNORE").Create(&txs[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
