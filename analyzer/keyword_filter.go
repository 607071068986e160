// Package analyzer implements the 3-filter classification pipeline
// SourceScanner runs over a verified contract's ABI and source
// (spec.md §4.4): keyword filter → static analyzer → LLM semantic analysis.
package analyzer

import (
	"encoding/json"
	"strings"

	"github.com/airdropindexer/evmscan/log"
)

var keywordLogger = log.NewModuleLogger(log.Analyzer)

// KeywordFilter is the fast first-pass ABI check, grounded on
// original_source/src/utils/abi_filter.py.
type KeywordFilter struct {
	keywords []string
}

// NewKeywordFilter builds a filter over keywords, matched case-insensitively
// as substrings of each ABI item's name.
func NewKeywordFilter(keywords []string) *KeywordFilter {
	lower := make([]string, len(keywords))
	for i, k := range keywords {
		lower[i] = strings.ToLower(k)
	}
	return &KeywordFilter{keywords: lower}
}

type abiItem struct {
	Name string `json:"name"`
}

// CheckABI reports whether any ABI item's name contains one of the filter's
// keywords. A malformed or non-array ABI is treated as a non-match, not an
// error — the original logs a warning and returns false rather than
// aborting the batch.
func (f *KeywordFilter) CheckABI(abiJSON string) bool {
	if abiJSON == "" {
		return false
	}
	var items []abiItem
	if err := json.Unmarshal([]byte(abiJSON), &items); err != nil {
		keywordLogger.Warn("failed to decode abi json", "err", err)
		return false
	}
	for _, item := range items {
		if item.Name == "" {
			continue
		}
		name := strings.ToLower(item.Name)
		for _, kw := range f.keywords {
			if strings.Contains(name, kw) {
				keywordLogger.Info("keyword filter hit", "item", name, "keyword", kw)
				return true
			}
		}
	}
	return false
}
