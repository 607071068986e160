// Copyright 2018 The go-klaytn Authors
// This file is part of the go-klaytn library.
//
// The go-klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-klaytn library. If not, see <http://www.gnu.org/licenses/>.

// Package main is the airdrop indexer's entrypoint, adapted from
// cmd/kcn/main.go's Before/After-hook and Prometheus-exporter-bridge shape
// onto a single cobra root command (cmd/kcn used gopkg.in/urfave/cli.v1;
// DESIGN.md records why this repo uses spf13/cobra instead).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/airdropindexer/evmscan/config"
	"github.com/airdropindexer/evmscan/locator"
	"github.com/airdropindexer/evmscan/log"
	"github.com/airdropindexer/evmscan/metrics"
)

var logger = log.NewModuleLogger(log.CmdIndexer)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "airdropindexer",
		Short: "EVM airdrop discovery and eligibility indexer",
		RunE:  run,
	}
	return cmd
}

// run is this process's single Action: load configuration, build every
// singleton via locator.New, start the Prometheus listener (the Before
// hook's job in cmd/kcn), start every scanner loop, then block until
// SIGINT/SIGTERM before draining every loop (the After hook's job).
func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Scanner gauges register only if metrics.Enabled is already set when
	// locator.New constructs the scanners.
	metrics.Enabled = cfg.Metrics.Enabled

	loc, err := locator.New(cfg)
	if err != nil {
		return fmt.Errorf("build locator: %w", err)
	}

	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.StartPrometheusExporter(cfg.Metrics.Addr, 5*time.Second); err != nil {
				logger.Error("prometheus exporter stopped", "err", err)
			}
		}()
		logger.Info("prometheus exporter started", "addr", cfg.Metrics.Addr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loc.Scheduler.Start(ctx)
	logger.Info("airdrop indexer started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received, draining scanner loops...")
	cancel()
	loc.Scheduler.Stop()
	logger.Info("airdrop indexer stopped")
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
