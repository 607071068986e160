package scanner

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jinzhu/gorm"

	"github.com/airdropindexer/evmscan/log"
	"github.com/airdropindexer/evmscan/metrics"
	"github.com/airdropindexer/evmscan/model"
	"github.com/airdropindexer/evmscan/provider"
	"github.com/airdropindexer/evmscan/repository"
	"github.com/airdropindexer/evmscan/selector"
)

var dateLogger = log.NewModuleLogger(log.DateScanner)

// DateScanner reconciles active eligibility contracts against on-chain
// reality (spec.md §4.5), grounded on
// original_source/src/contract_indexer/evm_contract_date_scanner.py's four
// sequential steps. Steps 2-4 release their DB connection before fanning
// out API calls and reacquire only to commit — SPEC_FULL.md §13 Open
// Question Decision 1: a transaction must never sit open across an
// external HTTP call.
type DateScanner struct {
	db        *gorm.DB
	repo      *repository.EligibilityRepository
	client    provider.BlockchainClient
	gauges    *metrics.ScannerGauges
	batchSize int
}

func NewDateScanner(db *gorm.DB, repo *repository.EligibilityRepository, client provider.BlockchainClient, batchSize int) *DateScanner {
	return &DateScanner{
		db:        db,
		repo:      repo,
		client:    client,
		gauges:    metrics.NewScannerGauges("date_scanner"),
		batchSize: batchSize,
	}
}

func (s *DateScanner) Run(ctx context.Context) {
	dateLogger.Info("date scanner run started")

	// Step 1: single SQL statement, its own short transaction.
	if err := s.deactivateExpired(); err != nil {
		dateLogger.Error("failed to deactivate expired contracts (step 1)", "err", err)
		s.gauges.Errors.Inc(1)
	}

	// Step 2: eth_getCode liveness check.
	s.deactivateDestroyedContracts(ctx)

	// Step 3: claim_end_timestamp resolution.
	s.processClaimTimestampCheck(ctx, claimEndCheck{repo: s.repo})

	// Step 4: claim_start_timestamp resolution, symmetric to step 3.
	s.processClaimTimestampCheck(ctx, claimStartCheck{repo: s.repo})

	dateLogger.Info("date scanner run finished")
}

func (s *DateScanner) deactivateExpired() error {
	return repository.WithTx(s.db, func(tx *gorm.DB) error {
		n, err := s.repo.DeactivateExpired(tx)
		if err != nil {
			return err
		}
		if n > 0 {
			dateLogger.Info("deactivated expired airdrop contracts", "count", n)
		}
		return nil
	})
}

// deactivateDestroyedContracts is step 2: lease candidates, close the
// connection, run every eth_getCode concurrently, then reacquire a fresh
// transaction only to write the verdict.
func (s *DateScanner) deactivateDestroyedContracts(ctx context.Context) {
	var candidates []model.EligibilityContract
	err := repository.WithTx(s.db, func(tx *gorm.DB) error {
		rows, err := s.repo.ContractsForCodeCheck(tx, s.batchSize)
		if err != nil {
			return err
		}
		candidates = rows
		return nil
	})
	if err != nil {
		dateLogger.Error("failed to lease contracts for eth_getCode check", "err", err)
		return
	}
	if len(candidates) == 0 {
		dateLogger.Debug("no contracts found for eth_getCode check")
		return
	}
	dateLogger.Info("checking eth_getCode for contracts", "count", len(candidates))

	codeResults := make([]string, len(candidates))
	errs := make([]error, len(candidates))
	var wg sync.WaitGroup
	for i, c := range candidates {
		wg.Add(1)
		go func(i int, c model.EligibilityContract) {
			defer wg.Done()
			codeResults[i], errs[i] = s.client.EthGetCode(ctx, c.ChainID, c.ContractAddress)
		}(i, c)
	}
	wg.Wait()

	var deadIDs []uint64
	for i, c := range candidates {
		if errs[i] != nil {
			dateLogger.Error("api error checking eth_getCode", "id", c.ID, "err", errs[i])
			continue
		}
		if selector.IsCodeEmpty(codeResults[i]) {
			dateLogger.Info("contract is destroyed, deactivating", "id", c.ID, "code_result", codeResults[i])
			deadIDs = append(deadIDs, c.ID)
		}
	}

	if len(deadIDs) == 0 {
		return
	}
	dateLogger.Info("deactivating destroyed contracts", "count", len(deadIDs))
	if err := repository.WithTx(s.db, func(tx *gorm.DB) error {
		return s.repo.DeactivateBatch(tx, deadIDs)
	}); err != nil {
		dateLogger.Error("failed to commit deactivated contracts", "err", err)
	}
}

// claimTimestampCheck abstracts the one difference between step 3 and
// step 4: which getter ABI column drives the fan-out and how a resolved
// timestamp is written back.
type claimTimestampCheck interface {
	name() string
	lease(tx *gorm.DB, batchSize int) ([]model.EligibilityContract, error)
	getterABI(c model.EligibilityContract) *string
	invalidate(tx *gorm.DB, id uint64) error
	apply(tx *gorm.DB, id uint64, timestamp int64) error
}

type claimEndCheck struct{ repo *repository.EligibilityRepository }

func (claimEndCheck) name() string { return "claim_end" }
func (c claimEndCheck) lease(tx *gorm.DB, batchSize int) ([]model.EligibilityContract, error) {
	return c.repo.ContractsForClaimEndCheck(tx, batchSize)
}
func (claimEndCheck) getterABI(c model.EligibilityContract) *string { return c.ClaimEndGetterABI }
func (c claimEndCheck) invalidate(tx *gorm.DB, id uint64) error {
	return c.repo.InvalidateClaimEndABI(tx, id)
}
func (c claimEndCheck) apply(tx *gorm.DB, id uint64, timestamp int64) error {
	activeStatus := model.Active
	if timestamp <= time.Now().Unix() {
		activeStatus = model.Inactive
		dateLogger.Info("contract is now inactive", "id", id, "claim_end_timestamp", timestamp)
	}
	return c.repo.UpdateClaimEndTimestamp(tx, id, timestamp, activeStatus)
}

type claimStartCheck struct{ repo *repository.EligibilityRepository }

func (claimStartCheck) name() string { return "claim_start" }
func (c claimStartCheck) lease(tx *gorm.DB, batchSize int) ([]model.EligibilityContract, error) {
	return c.repo.ContractsForClaimStartCheck(tx, batchSize)
}
func (claimStartCheck) getterABI(c model.EligibilityContract) *string { return c.ClaimStartGetterABI }
func (c claimStartCheck) invalidate(tx *gorm.DB, id uint64) error {
	return c.repo.InvalidateClaimStartABI(tx, id)
}
func (c claimStartCheck) apply(tx *gorm.DB, id uint64, timestamp int64) error {
	return c.repo.UpdateClaimStartTimestamp(tx, id, timestamp)
}

// processClaimTimestampCheck is the shared body of steps 3 and 4: lease a
// batch, compute selectors (invalidating rows with an unparseable ABI or no
// selector inline against the lease transaction, mirroring the original's
// "this loop is safe, it only makes sequential DB calls" comment), release
// the connection, fan out eth_call, then reacquire to write results.
func (s *DateScanner) processClaimTimestampCheck(ctx context.Context, check claimTimestampCheck) {
	type callTarget struct {
		contract model.EligibilityContract
		selector string
	}
	var targets []callTarget

	err := repository.WithTx(s.db, func(tx *gorm.DB) error {
		candidates, err := check.lease(tx, s.batchSize)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			dateLogger.Debug("no contracts found for check", "check", check.name())
			return nil
		}
		dateLogger.Info("checking contracts", "check", check.name(), "count", len(candidates))

		for _, c := range candidates {
			abiJSON := check.getterABI(c)
			if abiJSON == nil {
				continue
			}
			var fn selector.FunctionABI
			if err := json.Unmarshal([]byte(*abiJSON), &fn); err != nil {
				if err := check.invalidate(tx, c.ID); err != nil {
					return err
				}
				continue
			}
			sel, err := selector.FunctionSelector(fn)
			if err != nil {
				if err := check.invalidate(tx, c.ID); err != nil {
					return err
				}
				continue
			}
			targets = append(targets, callTarget{contract: c, selector: sel})
		}
		return nil
	})
	if err != nil {
		dateLogger.Error("failed to process check batch", "check", check.name(), "err", err)
		return
	}
	if len(targets) == 0 {
		return
	}

	results := make([]string, len(targets))
	errs := make([]error, len(targets))
	var wg sync.WaitGroup
	for i, t := range targets {
		wg.Add(1)
		go func(i int, t callTarget) {
			defer wg.Done()
			results[i], errs[i] = s.client.EthCall(ctx, t.contract.ChainID, t.contract.ContractAddress, t.selector)
		}(i, t)
	}
	wg.Wait()

	if err := repository.WithTx(s.db, func(tx *gorm.DB) error {
		for i, t := range targets {
			id := t.contract.ID
			if errs[i] != nil {
				dateLogger.Error("api error checking contract", "check", check.name(), "id", id, "err", errs[i])
				continue
			}
			timestamp, err := selector.DecodeTimestamp(results[i])
			if err != nil || timestamp == 0 {
				dateLogger.Warn("invalid timestamp returned, invalidating abi", "check", check.name(), "id", id, "result", results[i])
				if err := check.invalidate(tx, id); err != nil {
					return err
				}
				continue
			}
			dateLogger.Info("found valid timestamp", "check", check.name(), "id", id, "timestamp", timestamp)
			if err := check.apply(tx, id, timestamp); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		dateLogger.Error("failed to commit check batch", "check", check.name(), "err", err)
	}
}
