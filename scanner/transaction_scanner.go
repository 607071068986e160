package scanner

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"

	"github.com/airdropindexer/evmscan/log"
	"github.com/airdropindexer/evmscan/metrics"
	"github.com/airdropindexer/evmscan/model"
	"github.com/airdropindexer/evmscan/provider"
	"github.com/airdropindexer/evmscan/repository"
)

var txLogger = log.NewModuleLogger(log.TxScanner)

// TxScanner resolves contract-creation transactions into verified or
// unverified contract rows (spec.md §4.3), grounded on
// original_source/src/contract_indexer/evm_transaction_scanner.py: receipt
// and source lookups run concurrently across the batch, but each
// transaction's own DB writes happen sequentially against the shared batch
// transaction, and any per-transaction canonicalization error aborts the
// whole batch.
type TxScanner struct {
	db        *gorm.DB
	repo      *repository.TransactionRepository
	client    provider.BlockchainClient
	gauges    *metrics.ScannerGauges
	batchSize int
}

func NewTxScanner(db *gorm.DB, repo *repository.TransactionRepository, client provider.BlockchainClient, batchSize int) *TxScanner {
	return &TxScanner{
		db:        db,
		repo:      repo,
		client:    client,
		gauges:    metrics.NewScannerGauges("tx_scanner"),
		batchSize: batchSize,
	}
}

// txFetch is what the concurrent receipt/source lookups resolve into,
// before any DB write happens.
type txFetch struct {
	row     model.BlockCreateContractTransaction
	receipt *provider.Receipt
	source  *provider.ContractSource
	err     error
}

func (s *TxScanner) Run(ctx context.Context) {
	err := repository.WithTx(s.db, func(tx *gorm.DB) error {
		rows, err := s.repo.LeaseUnprocessed(tx, s.batchSize)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			txLogger.Info("no unprocessed contract transactions found")
			return nil
		}

		ids := make([]uint64, len(rows))
		for i, row := range rows {
			ids[i] = row.ID
		}
		if err := s.repo.MarkInProgress(tx, ids); err != nil {
			return err
		}

		txLogger.Info("processing transactions", "count", len(rows))

		fetches := s.fetchAll(ctx, rows)
		for _, f := range fetches {
			if err := s.applyFetch(tx, f); err != nil {
				return err
			}
		}

		txLogger.Info("successfully processed batch", "count", len(rows))
		s.gauges.ObserveRun(0, int64(len(rows)))
		return nil
	})

	if err != nil {
		txLogger.Error("failed to process transaction batch, transaction rolled back", "err", err)
		s.gauges.Errors.Inc(1)
	}
}

// fetchAll resolves every row's receipt and (if it names a contract address)
// verified source concurrently, before any of the rows' results are written;
// the batch transaction stays open while these calls run.
func (s *TxScanner) fetchAll(ctx context.Context, rows []model.BlockCreateContractTransaction) []txFetch {
	results := make([]txFetch, len(rows))
	var wg sync.WaitGroup
	for i, row := range rows {
		wg.Add(1)
		go func(i int, row model.BlockCreateContractTransaction) {
			defer wg.Done()
			results[i] = s.fetchOne(ctx, row)
		}(i, row)
	}
	wg.Wait()
	return results
}

func (s *TxScanner) fetchOne(ctx context.Context, row model.BlockCreateContractTransaction) txFetch {
	f := txFetch{row: row}

	receipt, err := s.client.TransactionReceipt(ctx, row.EVMNetworkChainID, row.TransactionHash)
	if err != nil {
		f.err = err
		return f
	}
	f.receipt = receipt
	if receipt == nil || receipt.ContractAddress == "" {
		return f
	}

	source, err := s.client.ContractSource(ctx, row.EVMNetworkChainID, receipt.ContractAddress)
	if err != nil {
		f.err = err
		return f
	}
	f.source = source
	return f
}

// applyFetch performs one row's DB writes against the shared batch
// transaction, following evm_transaction_scanner.py's _process_transaction.
func (s *TxScanner) applyFetch(tx *gorm.DB, f txFetch) error {
	row := f.row

	if f.err != nil {
		txLogger.Error("api error resolving transaction, aborting batch", "tx_id", row.ID, "err", f.err)
		return f.err
	}

	if f.receipt == nil || f.receipt.ContractAddress == "" {
		txLogger.Warn("could not find contractAddress for transaction, marking failed", "tx_hash", row.TransactionHash)
		return s.repo.MarkCompleted(tx, []uint64{row.ID})
	}
	address := f.receipt.ContractAddress

	if f.source == nil {
		txLogger.Warn("getsourcecode returned no data", "address", address)
		return s.repo.SaveUnverifiedContract(tx, row.ID, row.EVMNetworkChainID, address)
	}

	cleaned := strings.TrimSpace(f.source.RawSourceCode)
	isVerified := cleaned != ""
	if !isVerified {
		txLogger.Info("found unverified contract", "address", address, "tx_id", row.ID)
		return s.repo.SaveUnverifiedContract(tx, row.ID, row.EVMNetworkChainID, address)
	}

	txLogger.Info("found verified contract", "address", address, "tx_id", row.ID)
	sourceToSave, err := canonicalizeSourceCode(cleaned)
	if err != nil {
		txLogger.Error("invalid multi-file json for verified contract, aborting batch", "address", address, "err", err)
		return err
	}

	return s.repo.SaveContractAndSource(tx, row.ID, row.EVMNetworkChainID, address, f.source.ContractName, sourceToSave, f.source.ABI)
}

// canonicalizeSourceCode reduces the three shapes Etherscan-family APIs
// return source code in down to one canonical JSON envelope, grounded
// exactly on evm_transaction_scanner.py's three-branch logic:
//  1. Etherscan's {{...}}-double-braced multi-file format: strip one layer
//     of braces and require the inner text to parse as JSON.
//  2. A plain {...} JSON object: required to parse as-is.
//  3. Anything else: single-file source, wrapped as {"source": <raw>}.
//
// A string that starts with a brace but fails to parse is a structural
// error — it aborts the whole batch rather than silently falling through
// to the single-file branch, matching the original's raised ValueError.
func canonicalizeSourceCode(cleaned string) (string, error) {
	if strings.HasPrefix(cleaned, "{{") && strings.HasSuffix(cleaned, "}}") {
		inner := cleaned[1 : len(cleaned)-1]
		var probe interface{}
		if err := json.Unmarshal([]byte(inner), &probe); err != nil {
			return "", errors.Wrap(err, "invalid json inside etherscan {{...}} format")
		}
		return inner, nil
	}

	if strings.HasPrefix(cleaned, "{") {
		var probe interface{}
		if err := json.Unmarshal([]byte(cleaned), &probe); err != nil {
			return "", errors.Wrap(err, "invalid json detected (starts with '{')")
		}
		return cleaned, nil
	}

	wrapped, err := json.Marshal(map[string]string{"source": cleaned})
	if err != nil {
		return "", err
	}
	return string(wrapped), nil
}
