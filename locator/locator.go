// Package locator builds every singleton this process needs exactly once
// at startup and hands them out by reference, grounded on
// original_source/src/services.py's module-level construction ("This file
// acts as a Service Locator. It creates SINGLE INSTANCES of all shared
// services. Any other file in the application can import this file and
// access already configured clients or repositories."). Unlike the
// original, this is an explicit struct built by New rather than
// import-time module globals — SPEC_FULL.md §13 Open Question Decision 4
// rejects package-level globals in favor of an explicit, testable
// constructor.
package locator

import (
	"time"

	"github.com/jinzhu/gorm"

	"github.com/airdropindexer/evmscan/analyzer"
	"github.com/airdropindexer/evmscan/common"
	"github.com/airdropindexer/evmscan/config"
	"github.com/airdropindexer/evmscan/eventbus"
	"github.com/airdropindexer/evmscan/provider"
	"github.com/airdropindexer/evmscan/repository"
	"github.com/airdropindexer/evmscan/scanner"
	"github.com/airdropindexer/evmscan/storage"
)

// Locator holds every shared singleton: the DB pool, repositories,
// provider clients, analyzers, the event publisher, and the six
// constructed scanner stages.
type Locator struct {
	DB *gorm.DB

	NetworkRepo     *repository.NetworkRepository
	BlockRepo       *repository.BlockRepository
	TransactionRepo *repository.TransactionRepository
	SourceRepo      *repository.SourceRepository
	EligibilityRepo *repository.EligibilityRepository
	TokenRepo       *repository.TokenRepository

	EtherscanClient *provider.EtherscanClient
	MoralisClient   *provider.MoralisClient
	LLMClient       *provider.LLMClient

	KeywordFilter  *analyzer.KeywordFilter
	StaticAnalyzer *analyzer.StaticAnalyzer
	LLMAnalyzer    *analyzer.LLMSemanticAnalyzer

	Publisher eventbus.Publisher

	NetworkScanner     *scanner.NetworkScanner
	BlockScanner       *scanner.BlockScanner
	TxScanner          *scanner.TxScanner
	SourceScanner      *scanner.SourceScanner
	DateScanner        *scanner.DateScanner
	TokenScanner       *scanner.TokenScanner
	Scheduler          *scanner.Scheduler
}

// New wires every component from cfg in this order: the DB pool, then rate
// gates (shared or one-per-client, per cfg.Scanners.APIParallelMode), then
// repositories, then provider clients bound to their gates, then analyzers,
// then the publisher, and finally the scanners themselves.
func New(cfg *config.Config) (*Locator, error) {
	db, err := storage.Open(cfg.DB)
	if err != nil {
		return nil, err
	}

	// --- Scanner rate gates ---
	// Parallel mode: each of the five Etherscan clients gets its own gate, so
	// their requests are spaced independently. Shared mode (default): every
	// client shares one gate, so the start of every request is spaced
	// through a single queue — mirrors services.py's
	// lock_evm_scanner/lock_block_scanner/.../single_global_lock switch.
	ethDelay := time.Duration(cfg.Eth.DelaySeconds * float64(time.Second))
	var ethGateNetwork, ethGateBlock, ethGateTx, ethGateDate, ethGateToken *provider.Gate
	if cfg.Scanners.APIParallelMode {
		ethGateNetwork = provider.NewGate(ethDelay)
		ethGateBlock = provider.NewGate(ethDelay)
		ethGateTx = provider.NewGate(ethDelay)
		ethGateDate = provider.NewGate(ethDelay)
		ethGateToken = provider.NewGate(ethDelay)
	} else {
		shared := provider.NewGate(ethDelay)
		ethGateNetwork, ethGateBlock, ethGateTx, ethGateDate, ethGateToken = shared, shared, shared, shared, shared
	}
	moralisGate := provider.NewGate(time.Duration(cfg.Moralis.DelaySeconds * float64(time.Second)))
	llmGate := provider.NewGate(0)

	// --- Repositories, all sharing db ---
	networkRepo := repository.NewNetworkRepository(db)
	blockRepo := repository.NewBlockRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	sourceRepo := repository.NewSourceRepository(db)
	eligibilityRepo := repository.NewEligibilityRepository(db)
	tokenRepo := repository.NewTokenRepository(db)

	// --- Provider clients ---
	// One EtherscanClient per scanner stage (each bound to its own or the
	// shared gate above), matching services.py's api_client_evm /
	// api_client_block / api_client_tx / api_client_date_scanner /
	// api_client_get_token pattern — they are the same capability
	// implementation, just separately rate-limited per call site.
	networkClient := provider.NewEtherscanClient(cfg.Eth.BaseURL, cfg.Eth.APIKey, time.Duration(cfg.Eth.TimeoutSec)*time.Second, ethGateNetwork)
	blockClient := provider.NewEtherscanClient(cfg.Eth.BaseURL, cfg.Eth.APIKey, time.Duration(cfg.Eth.TimeoutSec)*time.Second, ethGateBlock)
	txClient := provider.NewEtherscanClient(cfg.Eth.BaseURL, cfg.Eth.APIKey, time.Duration(cfg.Eth.TimeoutSec)*time.Second, ethGateTx)
	dateClient := provider.NewEtherscanClient(cfg.Eth.BaseURL, cfg.Eth.APIKey, time.Duration(cfg.Eth.TimeoutSec)*time.Second, ethGateDate)
	tokenClient := provider.NewEtherscanClient(cfg.Eth.BaseURL, cfg.Eth.APIKey, time.Duration(cfg.Eth.TimeoutSec)*time.Second, ethGateToken)

	tokenMetadataCache, err := common.NewTokenMetadataCache(1024)
	if err != nil {
		return nil, err
	}
	moralisClient := provider.NewMoralisClient(cfg.Moralis.BaseURL, cfg.Moralis.APIKey, time.Duration(cfg.Moralis.TimeoutSec)*time.Second, moralisGate, tokenMetadataCache)
	llmClient := provider.NewLLMClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout, llmGate)

	// --- Analyzers ---
	keywordFilter := analyzer.NewKeywordFilter(cfg.Analyzer.Keywords)
	staticAnalyzer := analyzer.NewStaticAnalyzer(cfg.Analyzer.BinaryPath, cfg.Analyzer.WorkDir, cfg.Analyzer.Timeout)
	llmAnalyzer := analyzer.NewLLMSemanticAnalyzer(llmClient)

	// --- Event publisher ---
	var publisher eventbus.Publisher = eventbus.NoopPublisher{}
	if cfg.Kafka.Enabled {
		kafkaPublisher, err := eventbus.NewKafkaPublisher(cfg.Kafka)
		if err != nil {
			return nil, err
		}
		publisher = kafkaPublisher
	}

	// --- Scanners ---
	networkScanner := scanner.NewNetworkScanner(db, networkRepo, networkClient, cfg.Scanners.FinalityDepth, uint64(cfg.Scanners.BatchSize), uint64(cfg.Scanners.BatchSize))
	blockScanner := scanner.NewBlockScanner(db, blockRepo, blockClient, cfg.Scanners.BatchSize)
	txScanner := scanner.NewTxScanner(db, transactionRepo, txClient, cfg.Scanners.BatchSize)
	sourceScanner := scanner.NewSourceScanner(db, sourceRepo, keywordFilter, staticAnalyzer, llmAnalyzer, tokenClient, moralisClient, publisher, cfg.Scanners.BatchSize)
	dateScanner := scanner.NewDateScanner(db, eligibilityRepo, dateClient, cfg.Scanners.BatchSize)
	tokenScanner := scanner.NewTokenScanner(db, tokenRepo, tokenClient, staticAnalyzer, cfg.Scanners.BatchSize)

	scheduler := scanner.NewScheduler(
		scanner.NewLoop("network_scanner", networkScanner, cfg.Scanners.NetworkInterval),
		scanner.NewLoop("block_scanner", blockScanner, cfg.Scanners.BlockInterval),
		scanner.NewLoop("tx_scanner", txScanner, cfg.Scanners.TransactionInterval),
		scanner.NewLoop("source_scanner", sourceScanner, cfg.Scanners.SourceInterval),
		scanner.NewLoop("date_scanner", dateScanner, cfg.Scanners.DateInterval),
		scanner.NewLoop("token_scanner", tokenScanner, cfg.Scanners.TokenInterval),
	)

	return &Locator{
		DB:              db,
		NetworkRepo:     networkRepo,
		BlockRepo:       blockRepo,
		TransactionRepo: transactionRepo,
		SourceRepo:      sourceRepo,
		EligibilityRepo: eligibilityRepo,
		TokenRepo:       tokenRepo,
		EtherscanClient: networkClient,
		MoralisClient:   moralisClient,
		LLMClient:       llmClient,
		KeywordFilter:   keywordFilter,
		StaticAnalyzer:  staticAnalyzer,
		LLMAnalyzer:     llmAnalyzer,
		Publisher:       publisher,
		NetworkScanner:  networkScanner,
		BlockScanner:    blockScanner,
		TxScanner:       txScanner,
		SourceScanner:   sourceScanner,
		DateScanner:     dateScanner,
		TokenScanner:    tokenScanner,
		Scheduler:       scheduler,
	}, nil
}
