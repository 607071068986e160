package repository

import (
	"github.com/jinzhu/gorm"

	"github.com/airdropindexer/evmscan/model"
)

// NetworkRepository backs NetworkScanner (spec.md §4.1), grounded on
// original_source/src/db_class/repositories/evm_scanner_repository.py.
type NetworkRepository struct {
	db *gorm.DB
}

func NewNetworkRepository(db *gorm.DB) *NetworkRepository {
	return &NetworkRepository{db: db}
}

// ActiveIdleNetworks returns every network with active_status=1 and
// processing_status=0 — the set NetworkScanner is free to claim this cycle.
func (r *NetworkRepository) ActiveIdleNetworks() ([]model.Network, error) {
	var networks []model.Network
	err := r.db.Where("active_status = ? AND processing_status = ?", model.Active, model.StatusPending).
		Find(&networks).Error
	return networks, err
}

// StartProcessing claims chainID by flipping processing_status 0→1.
// NetworkScanner commits this in its own short transaction; the flag, not a
// held row lock, marks the network as claimed until FinishProcessing.
func (r *NetworkRepository) StartProcessing(tx *gorm.DB, chainID uint64) error {
	return tx.Model(&model.Network{}).Where("chain_id = ?", chainID).
		Update("processing_status", model.StatusInProgress).Error
}

// FinishProcessing releases chainID's lock (processing_status 1→0) without
// touching last_discovered_block_number — that is advanced separately by
// AdvanceLastDiscoveredBlock so the two updates can be composed atomically
// with the batch insert in the same transaction.
func (r *NetworkRepository) FinishProcessing(tx *gorm.DB, chainID uint64) error {
	return tx.Model(&model.Network{}).Where("chain_id = ?", chainID).
		Updates(map[string]interface{}{
			"processing_status": model.StatusPending,
			"discovered_at":     now(),
		}).Error
}

// AdvanceLastDiscoveredBlock bumps the per-network cursor. Invariant 1
// (spec.md §3) requires this value be monotonically non-decreasing; callers
// must never pass a value lower than the network's current cursor.
func (r *NetworkRepository) AdvanceLastDiscoveredBlock(tx *gorm.DB, chainID uint64, lastBlock uint64) error {
	return tx.Model(&model.Network{}).Where("chain_id = ?", chainID).
		Updates(map[string]interface{}{
			"last_discovered_block_number": lastBlock,
			"discovered_at":                now(),
		}).Error
}

// InsertBlocksIgnore bulk-inserts newly discovered blocks, relying on the
// (chain_id, block_number) unique index for insert-ignore semantics
// (spec.md §3 invariant 3).
func (r *NetworkRepository) InsertBlocksIgnore(tx *gorm.DB, blocks []model.Block) error {
	if len(blocks) == 0 {
		return nil
	}
	for i := range blocks {
		if err := tx.Set("gorm:insert_option", "IGNORE").Create(&blocks[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
