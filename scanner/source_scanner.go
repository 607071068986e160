package scanner

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jinzhu/gorm"

	"github.com/airdropindexer/evmscan/analyzer"
	"github.com/airdropindexer/evmscan/eventbus"
	"github.com/airdropindexer/evmscan/log"
	"github.com/airdropindexer/evmscan/metrics"
	"github.com/airdropindexer/evmscan/model"
	"github.com/airdropindexer/evmscan/provider"
	"github.com/airdropindexer/evmscan/repository"
	"github.com/airdropindexer/evmscan/selector"
)

var sourceLogger = log.NewModuleLogger(log.SourceScanner)

// tokenMetadataProviderName tags every metadata report persisted to
// token_security_report, matching evm_contract_source_scanner_repository.py's
// "TokenMetadataProvider(Moralis)" string exactly.
const tokenMetadataProviderName = "TokenMetadataProvider(Moralis)"

// SourceScanner runs the 3-filter classification pipeline over verified
// contract source (spec.md §4.4), grounded on
// original_source/src/contract_indexer/evm_contract_source_scanner.py's
// 5-stage per-source analysis, wired to this repo's analyzer/selector
// packages.
type SourceScanner struct {
	db            *gorm.DB
	repo          *repository.SourceRepository
	keywordFilter *analyzer.KeywordFilter
	staticAnalyzer *analyzer.StaticAnalyzer
	llmAnalyzer   *analyzer.LLMSemanticAnalyzer
	ethCallClient provider.BlockchainClient // resolves get_token_function_abi via EthCall
	tokenClient   provider.BlockchainClient // resolves TokenMetadata (Moralis-shaped)
	publisher     eventbus.Publisher
	gauges        *metrics.ScannerGauges
	batchSize     int
}

func NewSourceScanner(
	db *gorm.DB,
	repo *repository.SourceRepository,
	keywordFilter *analyzer.KeywordFilter,
	staticAnalyzer *analyzer.StaticAnalyzer,
	llmAnalyzer *analyzer.LLMSemanticAnalyzer,
	ethCallClient provider.BlockchainClient,
	tokenClient provider.BlockchainClient,
	publisher eventbus.Publisher,
	batchSize int,
) *SourceScanner {
	return &SourceScanner{
		db:             db,
		repo:           repo,
		keywordFilter:  keywordFilter,
		staticAnalyzer: staticAnalyzer,
		llmAnalyzer:    llmAnalyzer,
		ethCallClient:  ethCallClient,
		tokenClient:    tokenClient,
		publisher:      publisher,
		gauges:         metrics.NewScannerGauges("source_scanner"),
		batchSize:      batchSize,
	}
}

func (s *SourceScanner) Run(ctx context.Context) {
	err := repository.WithTx(s.db, func(tx *gorm.DB) error {
		rows, err := s.repo.LeaseUnprocessed(tx, s.batchSize)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			sourceLogger.Info("no new contract sources found for analysis")
			return nil
		}

		ids := make([]uint64, len(rows))
		for i, row := range rows {
			ids[i] = row.ID
		}
		if err := s.repo.MarkInProgress(tx, ids); err != nil {
			return err
		}

		sourceLogger.Info("processing contract sources", "count", len(rows))
		for _, row := range rows {
			if err := s.processSource(ctx, tx, row); err != nil {
				return err
			}
		}

		s.gauges.ObserveRun(0, int64(len(rows)))
		sourceLogger.Info("successfully processed batch", "count", len(rows))
		return nil
	})

	if err != nil {
		sourceLogger.Error("failed to process source batch, transaction rolled back", "err", err)
		s.gauges.Errors.Inc(1)
	}
}

// processSource runs one contract source through all five analysis stages.
// Every terminal outcome — rejected by a filter, or promoted to an
// eligibility contract — leaves the row done.
func (s *SourceScanner) processSource(ctx context.Context, tx *gorm.DB, row model.ContractSource) error {
	sourceLogger.Debug("analyzing source", "source_id", row.ID, "address", row.ContractAddress)

	// Stage 1: ABI keyword whitelist.
	if !s.keywordFilter.CheckABI(row.ABI) {
		sourceLogger.Info("filtered out by abi whitelist", "source_id", row.ID)
		return s.repo.MarkCompleted(tx, row.ID)
	}

	// Stage 2: static analysis.
	report, err := s.staticAnalyzer.AnalyzeSourceCode(ctx, row.SourceCode)
	if err != nil {
		sourceLogger.Error("static analyzer returned no report, aborting batch", "source_id", row.ID, "err", err)
		return err
	}
	securityStatus, reportJSON := analyzer.ClassifySourceReport(report)
	if err := s.repo.MarkClassified(tx, row.ID, securityStatus, reportJSON); err != nil {
		return err
	}

	// Stage 3: LLM semantic analysis, only for Low/Clean findings.
	if securityStatus != model.SecurityLow && securityStatus != model.SecurityClean {
		sourceLogger.Info("skipping llm analysis due to static analysis status", "source_id", row.ID, "status", securityStatus)
		return s.repo.MarkCompleted(tx, row.ID)
	}

	analysis, err := s.llmAnalyzer.AnalyzeContract(ctx, row.SourceCode, row.ABI)
	if err != nil {
		sourceLogger.Error("llm analysis failed, aborting batch", "source_id", row.ID, "err", err)
		return err
	}
	if analysis == nil {
		sourceLogger.Info("llm analysis determined this is not a valid airdrop contract", "source_id", row.ID)
		return s.repo.MarkCompleted(tx, row.ID)
	}
	var eligibilityFn selector.FunctionABI
	if err := json.Unmarshal(analysis.EligibilityFunctionABI, &eligibilityFn); err != nil || !selector.HasExactlyOneAddressInput(eligibilityFn) {
		sourceLogger.Warn("eligibility_function_abi does not take exactly one address input, not an airdrop", "source_id", row.ID)
		return s.repo.MarkCompleted(tx, row.ID)
	}

	// Stage 4: resolve the token address via eth_call if the LLM gave us a
	// getter instead of a literal address.
	tokenAddress := analysis.TokenAddress
	if tokenAddress == "" && analysis.GetTokenFunctionABI != nil {
		tokenAddress = s.resolveTokenAddress(ctx, row, analysis.GetTokenFunctionABI)
	}

	// Stage 5: token metadata.
	var metadata *provider.TokenMetadata
	if tokenAddress != "" {
		sourceLogger.Debug("fetching token metadata", "source_id", row.ID, "token_address", tokenAddress)
		metadata, err = s.tokenClient.TokenMetadata(ctx, row.EVMNetworkChainID, tokenAddress)
		if err != nil {
			sourceLogger.Warn("token metadata lookup failed", "source_id", row.ID, "err", err)
			metadata = nil
		}
	} else {
		sourceLogger.Warn("skipping token metadata fetch because token_address is missing", "source_id", row.ID)
	}

	sourceLogger.Info("success: found airdrop contract, saving", "source_id", row.ID)
	eligibility, tokenTicker := s.buildEligibilityContract(row, analysis, tokenAddress, metadata)
	if err := s.repo.InsertEligibilityIgnore(tx, eligibility); err != nil {
		sourceLogger.Error("failed to insert eligibility contract", "source_id", row.ID, "err", err)
		return err
	}
	if err := s.repo.MarkCompleted(tx, row.ID); err != nil {
		return err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishAirdropDiscovered(eventbus.AirdropDiscovered{
			ChainID:         eligibility.ChainID,
			ContractAddress: eligibility.ContractAddress,
			TokenTicker:     tokenTicker,
		}); err != nil {
			sourceLogger.Warn("failed to publish airdrop discovered event", "source_id", row.ID, "err", err)
		}
	}
	return nil
}

// resolveTokenAddress mirrors evm_contract_source_scanner.py's eth_call
// fallback: compute the getter's selector, call it, and decode the result
// as an address. Any failure along the way is non-fatal — the pipeline
// proceeds without a resolved token address, matching the original's
// warning-and-continue behavior.
func (s *SourceScanner) resolveTokenAddress(ctx context.Context, row model.ContractSource, getTokenFunctionABI interface{}) string {
	field := analyzer.ParseLLMTimeField(getTokenFunctionABI)
	if field.GetterABI == nil {
		sourceLogger.Warn("get_token_function_abi was not a function abi", "source_id", row.ID)
		return ""
	}

	var fn selector.FunctionABI
	if err := json.Unmarshal([]byte(*field.GetterABI), &fn); err != nil {
		sourceLogger.Warn("failed to parse get_token_function_abi", "source_id", row.ID, "err", err)
		return ""
	}

	sel, err := selector.FunctionSelector(fn)
	if err != nil {
		sourceLogger.Warn("failed to generate selector for get_token_function_abi", "source_id", row.ID, "err", err)
		return ""
	}

	result, err := s.ethCallClient.EthCall(ctx, row.EVMNetworkChainID, row.ContractAddress, sel)
	if err != nil || result == "" {
		sourceLogger.Warn("eth_call for get_token_function failed or returned empty", "source_id", row.ID, "err", err)
		return ""
	}

	addr, err := selector.DecodeAddress(result)
	if err != nil {
		sourceLogger.Warn("failed to decode address from eth_call result", "source_id", row.ID, "result", result)
		return ""
	}
	sourceLogger.Info("obtained token address via eth_call", "source_id", row.ID, "token_address", addr)
	return addr
}

// buildEligibilityContract performs the save_airdrop_contract merge exactly:
// decimals default to 18 on missing/unparseable metadata, a single metadata
// report tagged with tokenMetadataProviderName, possible_spam forces
// active_status=0 and token_analysis_status=2 ("unsafe"), and a claim end
// already in the past at insert time deactivates the row too. Grounded on
// evm_contract_source_scanner_repository.py's save_airdrop_contract.
func (s *SourceScanner) buildEligibilityContract(row model.ContractSource, analysis *analyzer.AirdropAnalysis, tokenAddress string, metadata *provider.TokenMetadata) (*model.EligibilityContract, string) {
	startField := analyzer.ParseLLMTimeField(analysis.ClaimStartField)
	endField := analyzer.ParseLLMTimeField(analysis.ClaimEndField)
	getTokenField := analyzer.ParseLLMTimeField(analysis.GetTokenFunctionABI)

	tokenAnalysisStatus := model.TokenStatusUnaudited
	activeStatus := model.Active

	tokenTicker := analysis.TokenTicker
	tokenDecimals := 18
	if analysis.TokenDecimals != nil {
		tokenDecimals = *analysis.TokenDecimals
	}

	var securityReports []map[string]interface{}
	if metadata != nil {
		if tokenTicker == "" {
			tokenTicker = metadata.Symbol
		}
		if analysis.TokenDecimals == nil {
			tokenDecimals = metadata.Decimals
		}

		report := map[string]interface{}{
			"security_score":    metadata.SecurityScore,
			"possible_spam":     metadata.PossibleSpam,
			"verified_contract": metadata.VerifiedContract,
			"provider":          tokenMetadataProviderName,
		}
		securityReports = append(securityReports, report)

		if metadata.PossibleSpam {
			activeStatus = model.Inactive
			tokenAnalysisStatus = model.SecurityMedium
			sourceLogger.Warn("contract marked inactive due to possible_spam from metadata provider", "source_id", row.ID)
		}
	}
	reportJSON, _ := json.Marshal(securityReports)

	var endTS *int64
	if endField.Timestamp != nil {
		endTS = endField.Timestamp
		if activeStatus == model.Active && *endTS < time.Now().Unix() {
			activeStatus = model.Inactive
		}
	}

	eligibility := &model.EligibilityContract{
		EVMContractSourceID:    row.ID,
		ChainID:                row.EVMNetworkChainID,
		ContractAddress:        row.ContractAddress,
		EligibilityFunctionABI: string(analysis.EligibilityFunctionABI),
		ClaimStartGetterABI:    startField.GetterABI,
		ClaimEndGetterABI:      endField.GetterABI,
		ClaimStartTimestamp:    startField.Timestamp,
		ClaimEndTimestamp:      endTS,
		TokenAddress:           tokenAddress,
		TokenTicker:            tokenTicker,
		TokenDecimals:          tokenDecimals,
		TokenAnalysisStatus:    tokenAnalysisStatus,
		TokenSecurityReport:    string(reportJSON),
		ActiveStatus:           activeStatus,
	}
	if getTokenField.GetterABI != nil {
		eligibility.GetTokenFunctionABI = *getTokenField.GetterABI
	}
	return eligibility, tokenTicker
}
