// Package repository encapsulates every SQL statement against the
// relational store, the same separation-of-concerns the teacher's
// datasync/chaindatafetcher/common.Repository interface draws between
// scanner logic and persistence. Only these types mutate processing_status
// and active_status columns (spec.md §3 "Ownership").
package repository

import (
	"time"

	"github.com/jinzhu/gorm"
)

// WithTx runs fn inside a single gorm transaction, rolling back on error or
// panic. Scanners run each batch's repository calls through this so a
// batch either commits completely or leaves no partial state —
// spec.md §5's "per-batch transactions, not one giant transaction".
func WithTx(db *gorm.DB, fn func(tx *gorm.DB) error) (err error) {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()
	if err = fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// now is a var (not a direct time.Now() call) so tests can freeze it.
var now = time.Now
