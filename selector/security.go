package selector

// SecurityStatusText maps a token_analysis_status code to the text the
// out-of-scope agent's read contract displays to a wallet holder, grounded
// on original_source/src/agent/eligibility_api.py's format_security_status.
// The original has a missing comma after key 1 — a syntax defect, not an
// intentional design point (SPEC_FULL.md §13 decision 3) — reproduced here
// with the comma present and all six entries intact.
var SecurityStatusText = map[int]string{
	0: "The token's source code has not been audited",
	1: "Contract code did not compile",
	2: "Suspicious",
	3: "Unsafe",
	4: "Caution",
	5: "Verified Safe",
}

// FormatSecurityStatus returns the text for code, or "Unknown" for any code
// outside the 0-5 range.
func FormatSecurityStatus(code int) string {
	if text, ok := SecurityStatusText[code]; ok {
		return text
	}
	return "Unknown"
}
