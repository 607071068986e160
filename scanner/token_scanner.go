package scanner

import (
	"context"
	"encoding/json"

	"github.com/jinzhu/gorm"

	"github.com/airdropindexer/evmscan/analyzer"
	"github.com/airdropindexer/evmscan/log"
	"github.com/airdropindexer/evmscan/metrics"
	"github.com/airdropindexer/evmscan/model"
	"github.com/airdropindexer/evmscan/provider"
	"github.com/airdropindexer/evmscan/repository"
)

var tokenLogger = log.NewModuleLogger(log.TokenScanner)

// slitherReportProvider tags every static-analysis entry this scanner
// appends to token_security_report, matching
// evm_token_scanner.py's `"provider": "Slither"` literal.
const slitherReportProvider = "Slither"

// TokenScanner runs static analysis against the airdrop TOKEN contract's own
// source (distinct from SourceScanner, which analyzes the airdrop/claim
// contract), a supplemented feature grounded on
// original_source/src/contract_indexer/evm_token_scanner.py +
// evm_token_scanner_repository.py. Unverified token source is left pending
// for retry rather than marked terminal, matching the original: a token
// that is not yet verified on the block explorer may become verified later.
type TokenScanner struct {
	db             *gorm.DB
	repo           *repository.TokenRepository
	client         provider.BlockchainClient
	staticAnalyzer *analyzer.StaticAnalyzer
	gauges         *metrics.ScannerGauges
	batchSize      int
}

func NewTokenScanner(db *gorm.DB, repo *repository.TokenRepository, client provider.BlockchainClient, staticAnalyzer *analyzer.StaticAnalyzer, batchSize int) *TokenScanner {
	return &TokenScanner{
		db:             db,
		repo:           repo,
		client:         client,
		staticAnalyzer: staticAnalyzer,
		gauges:         metrics.NewScannerGauges("token_scanner"),
		batchSize:      batchSize,
	}
}

// tokenFetch carries one row's fetched source code alongside its fetch
// error, the same shape transaction_scanner.go uses to separate the
// concurrent fetch phase from sequential DB writes.
type tokenFetch struct {
	row    model.EligibilityContract
	source *provider.ContractSource
	err    error
}

func (s *TokenScanner) Run(ctx context.Context) {
	err := repository.WithTx(s.db, func(tx *gorm.DB) error {
		rows, err := s.repo.LeaseUnverifiedTokens(tx, s.batchSize)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			tokenLogger.Debug("no unverified tokens found for analysis")
			return nil
		}
		tokenLogger.Info("analyzing token contracts", "count", len(rows))

		fetches := s.fetchAll(ctx, rows)
		for _, f := range fetches {
			if err := s.applyFetch(ctx, tx, f); err != nil {
				return err
			}
		}

		s.gauges.ObserveRun(0, int64(len(rows)))
		return nil
	})

	if err != nil {
		tokenLogger.Error("failed to process token batch, transaction rolled back", "err", err)
		s.gauges.Errors.Inc(1)
	}
}

func (s *TokenScanner) fetchAll(ctx context.Context, rows []model.EligibilityContract) []tokenFetch {
	results := make([]tokenFetch, len(rows))
	done := make(chan struct{}, len(rows))
	for i, row := range rows {
		i, row := i, row
		go func() {
			defer func() { done <- struct{}{} }()
			source, err := s.client.ContractSource(ctx, row.ChainID, row.TokenAddress)
			results[i] = tokenFetch{row: row, source: source, err: err}
		}()
	}
	for range rows {
		<-done
	}
	return results
}

// applyFetch mirrors _process_token: an API error or an unverified token is
// logged and left pending (no status column touched, retried next run);
// verified source is canonicalized, statically analyzed, and appended to
// the existing token_security_report array before the row is finalized.
func (s *TokenScanner) applyFetch(ctx context.Context, tx *gorm.DB, f tokenFetch) error {
	if f.err != nil {
		tokenLogger.Error("failed to fetch token contract source", "id", f.row.ID, "token_address", f.row.TokenAddress, "err", f.err)
		return nil
	}
	if f.source == nil || !f.source.Verified || f.source.RawSourceCode == "" {
		tokenLogger.Warn("token contract source not verified, leaving pending", "id", f.row.ID, "token_address", f.row.TokenAddress)
		return nil
	}

	canonical, err := canonicalizeSourceCode(f.source.RawSourceCode)
	if err != nil {
		tokenLogger.Error("failed to canonicalize token source, aborting batch", "id", f.row.ID, "err", err)
		return err
	}

	report, err := s.staticAnalyzer.AnalyzeSourceCode(ctx, canonical)
	if err != nil {
		tokenLogger.Error("static analyzer returned no report, aborting batch", "id", f.row.ID, "err", err)
		return err
	}
	securityStatus, _ := analyzer.ClassifySourceReport(report)

	var existing []interface{}
	if f.row.TokenSecurityReport != "" {
		if err := json.Unmarshal([]byte(f.row.TokenSecurityReport), &existing); err != nil {
			existing = nil
		}
	}
	existing = append(existing, map[string]interface{}{
		"success":  report.Success,
		"results":  report.Results,
		"error":    report.Error,
		"provider": slitherReportProvider,
	})
	reportJSON, err := json.Marshal(existing)
	if err != nil {
		return err
	}

	tokenLogger.Info("token static analysis complete", "id", f.row.ID, "status", securityStatus)
	return s.repo.UpdateTokenAnalysisStatus(tx, f.row.ID, securityStatus, string(reportJSON))
}
