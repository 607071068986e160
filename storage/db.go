// Package storage bootstraps the gorm connection pool every repository
// shares, bounded per spec.md §5 ("DB pool bounded min 1 / max 10").
package storage

import (
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/go-sql-driver/mysql"

	"github.com/airdropindexer/evmscan/config"
	"github.com/airdropindexer/evmscan/log"
	"github.com/airdropindexer/evmscan/model"
)

var logger = log.NewModuleLogger(log.Storage)

// Open connects to the relational store described by cfg, bounds the pool,
// and runs AutoMigrate over every model — this repository's schema
// bootstrap, not a migration runner (spec.md Non-goals: no schema
// migrations).
func Open(cfg config.DBConfig) (*gorm.DB, error) {
	db, err := gorm.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, err
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 1
	}
	db.DB().SetMaxOpenConns(maxOpen)
	db.DB().SetMaxIdleConns(maxIdle)
	if cfg.ConnMaxLife > 0 {
		db.DB().SetConnMaxLifetime(cfg.ConnMaxLife)
	} else {
		db.DB().SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.AutoMigrate(model.AllModels()...).Error; err != nil {
		return nil, err
	}
	logger.Info("database ready", "max_open_conns", maxOpen, "max_idle_conns", maxIdle)
	return db, nil
}
