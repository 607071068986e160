package scanner

import (
	"context"
	"sync"

	"github.com/jinzhu/gorm"

	"github.com/airdropindexer/evmscan/log"
	"github.com/airdropindexer/evmscan/metrics"
	"github.com/airdropindexer/evmscan/model"
	"github.com/airdropindexer/evmscan/provider"
	"github.com/airdropindexer/evmscan/repository"
)

var blockLogger = log.NewModuleLogger(log.BlockScanner)

// BlockScanner extracts contract-creation transactions out of a batch of
// discovered blocks (spec.md §4.2), grounded on
// original_source/src/contract_indexer/evm_block_scanner.py: block fetches
// run concurrently, but the whole batch's DB effects commit or roll back
// together, and a single bad API fetch fails the entire batch (unlike
// NetworkScanner, which tolerates a skipped block).
type BlockScanner struct {
	db        *gorm.DB
	repo      *repository.BlockRepository
	client    provider.BlockchainClient
	gauges    *metrics.ScannerGauges
	batchSize int
}

func NewBlockScanner(db *gorm.DB, repo *repository.BlockRepository, client provider.BlockchainClient, batchSize int) *BlockScanner {
	return &BlockScanner{
		db:        db,
		repo:      repo,
		client:    client,
		gauges:    metrics.NewScannerGauges("block_scanner"),
		batchSize: batchSize,
	}
}

// fetchResult pairs a leased block with the outcome of fetching its data.
type fetchResult struct {
	block model.Block
	data  *provider.Block
	err   error
}

// Run leases one batch of pending blocks and processes it inside a single
// transaction. No unprocessed blocks is a quiet no-op.
func (s *BlockScanner) Run(ctx context.Context) {
	err := repository.WithTx(s.db, func(tx *gorm.DB) error {
		blocks, err := s.repo.LeaseUnprocessed(tx, s.batchSize)
		if err != nil {
			return err
		}
		if len(blocks) == 0 {
			blockLogger.Info("no unprocessed blocks found")
			return nil
		}

		blockIDs := make([]uint64, len(blocks))
		for i, b := range blocks {
			blockIDs[i] = b.ID
		}
		if err := s.repo.MarkInProgress(tx, blockIDs); err != nil {
			return err
		}

		blockLogger.Info("processing blocks", "count", len(blocks))

		// Fetch every block's data concurrently; the first fetch error aborts
		// the whole batch and rolls back the transaction, mirroring the
		// original's asyncio.gather(return_exceptions=True) + re-raise.
		results := make([]fetchResult, len(blocks))
		var wg sync.WaitGroup
		for i, b := range blocks {
			wg.Add(1)
			go func(i int, b model.Block) {
				defer wg.Done()
				data, err := s.client.BlockByNumber(ctx, b.EVMNetworkChainID, b.BlockNumber)
				results[i] = fetchResult{block: b, data: data, err: err}
			}(i, b)
		}
		wg.Wait()

		var contractTxs []model.BlockCreateContractTransaction
		for _, res := range results {
			if res.err != nil {
				blockLogger.Error("api error processing block, aborting batch", "block_id", res.block.ID, "err", res.err)
				return res.err
			}
			if res.data == nil || len(res.data.Transactions) == 0 {
				blockLogger.Warn("no data or transactions found via api, marking completed", "block_id", res.block.ID)
				continue
			}
			for _, tx := range res.data.Transactions {
				if !tx.IsContractCreation || tx.Hash == "" {
					continue
				}
				contractTxs = append(contractTxs, model.BlockCreateContractTransaction{
					EVMBlockID:        res.block.ID,
					EVMNetworkChainID: res.block.EVMNetworkChainID,
					TransactionHash:   tx.Hash,
				})
			}
		}

		if len(contractTxs) > 0 {
			blockLogger.Info("found contract creation transactions in batch", "count", len(contractTxs))
			if err := s.repo.InsertCreateContractTxsIgnore(tx, contractTxs); err != nil {
				return err
			}
		}

		if err := s.repo.MarkCompleted(tx, blockIDs); err != nil {
			return err
		}

		s.gauges.ObserveRun(0, int64(len(blocks)))
		blockLogger.Info("successfully processed batch", "count", len(blocks))
		return nil
	})

	if err != nil {
		blockLogger.Error("failed to process block batch, transaction rolled back", "err", err)
		s.gauges.Errors.Inc(1)
	}
}
