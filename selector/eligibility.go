package selector

// TokenAnalysisExcludedStatuses are the token_analysis_status values the
// agent's read contract excludes (spec.md §9 open question 2, preserved
// verbatim rather than reinterpreted): 1=compile failure, 2=medium finding,
// 3=high finding. Grounded on
// original_source/src/agent/contract_repository.py's
// "token_analysis_status NOT IN (1,2,3)" filter.
var TokenAnalysisExcludedStatuses = map[int]bool{1: true, 2: true, 3: true}

// IsEligibleForAgentDisplay reports whether a row's token_analysis_status
// passes the agent's filter. This repository does not implement the
// agent's HTTP surface (out of scope, spec.md Non-goals), but the filter's
// semantics are shared, testable logic this package is the natural owner
// of.
func IsEligibleForAgentDisplay(tokenAnalysisStatus int) bool {
	return !TokenAnalysisExcludedStatuses[tokenAnalysisStatus]
}

// NormalizeTokenAmount divides a raw uint256 balance by 10^decimals,
// mirroring the agent's eligibility amount formatting
// (original_source/src/agent/eligibility_api.py).
func NormalizeTokenAmount(raw float64, decimals int) float64 {
	divisor := 1.0
	for i := 0; i < decimals; i++ {
		divisor *= 10
	}
	return raw / divisor
}
