package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/airdropindexer/evmscan/provider"
)

var llmAnalyzerLogger = keywordLogger

// systemPrompt instructs the model to respond with strict JSON describing
// airdrop eligibility logic, or {} if the contract has none. The exact
// prompt wording is a collaborator concern (spec.md §1 Non-goals); only the
// response contract below is load-bearing for this pipeline.
const systemPrompt = `You analyze a smart contract's source and ABI and decide whether it implements an airdrop claim. Respond with a single JSON object only. If the contract is not an airdrop, respond with {}. Otherwise include "eligibility_function_abi" (a function ABI entry with exactly one address input used to check a wallet's eligibility), and optionally "get_token_function_abi", "claim_start_getter_abi"/"claim_start_timestamp", and "claim_end_getter_abi"/"claim_end_timestamp".`

// LLMSemanticAnalyzer runs the third classification-pipeline stage:
// semantic analysis of a contract's source and ABI, grounded on
// original_source/src/utils/llm_airdrop_analyzer.py.
type LLMSemanticAnalyzer struct {
	client *provider.LLMClient
}

func NewLLMSemanticAnalyzer(client *provider.LLMClient) *LLMSemanticAnalyzer {
	return &LLMSemanticAnalyzer{client: client}
}

// sourceEnvelope mirrors the two JSON shapes contract source is stored in.
type sourceEnvelope struct {
	Source  string                `json:"source"`
	Sources map[string]sourceFile `json:"sources"`
}

// FlattenSourceCode concatenates a multi-file {"sources": {...}} envelope
// into one string the LLM can read, or returns the raw single-file source
// for {"source": ...}. An envelope that fails to parse as JSON is sent as
// raw text, mirroring the original's fallback.
func FlattenSourceCode(sourceCodeJSON string) string {
	var env sourceEnvelope
	if err := json.Unmarshal([]byte(sourceCodeJSON), &env); err != nil {
		llmAnalyzerLogger.Warn("failed to parse source_code json for llm, sending raw")
		return sourceCodeJSON
	}
	if env.Source != "" {
		return env.Source
	}
	if len(env.Sources) > 0 {
		out := ""
		for path, content := range env.Sources {
			out += fmt.Sprintf("// --- File: %s ---\n\n%s\n\n", path, content.Content)
		}
		return out
	}
	llmAnalyzerLogger.Warn("unknown source_code structure for llm, sending raw")
	return sourceCodeJSON
}

// AirdropAnalysis is the validated, strict-JSON response shape the LLM must
// return for a contract to be classified as an airdrop. EligibilityFunctionABI
// is the one field whose presence is mandatory. ClaimStartField/ClaimEndField
// hold whatever raw JSON value the model returned for those keys — each is
// one of: an integer (a hardcoded timestamp), a JSON object or a JSON
// string of one (a getter function ABI), or absent/unparseable — resolved
// by ParseLLMTimeField.
type AirdropAnalysis struct {
	EligibilityFunctionABI json.RawMessage `json:"eligibility_function_abi"`
	GetTokenFunctionABI    interface{}     `json:"get_token_function_abi,omitempty"`
	ClaimStartField        interface{}     `json:"claim_start_getter_abi,omitempty"`
	ClaimEndField          interface{}     `json:"claim_end_getter_abi,omitempty"`
	TokenAddress           string          `json:"token_address,omitempty"`
	TokenTicker            string          `json:"token_ticker,omitempty"`
	TokenDecimals          *int            `json:"token_decimals,omitempty"`
}

// TimeField is the resolved sum type for a claim_start/claim_end LLM field:
// exactly one of GetterABI or Timestamp is set, or both are unset if the
// field was absent or unparseable.
type TimeField struct {
	GetterABI *string
	Timestamp *int64
}

// ParseLLMTimeField resolves the claim_start_getter_abi/claim_end_getter_abi
// sum type, grounded on
// original_source/src/db_class/repositories/evm_contract_source_scanner_repository.py's
// _parse_llm_time_field: an int/float becomes a timestamp; a JSON object
// becomes a getter ABI (re-marshaled to a canonical string); a string is
// tried first as an integer, then as a JSON object; anything else resolves
// to neither.
func ParseLLMTimeField(value interface{}) TimeField {
	switch v := value.(type) {
	case nil:
		return TimeField{}
	case float64:
		ts := int64(v)
		return TimeField{Timestamp: &ts}
	case map[string]interface{}:
		raw, err := json.Marshal(v)
		if err != nil {
			return TimeField{}
		}
		s := string(raw)
		return TimeField{GetterABI: &s}
	case string:
		if asInt, err := strconv.ParseInt(v, 10, 64); err == nil {
			return TimeField{Timestamp: &asInt}
		}
		var probe map[string]interface{}
		if err := json.Unmarshal([]byte(v), &probe); err == nil && probe != nil {
			s := v
			return TimeField{GetterABI: &s}
		}
		return TimeField{}
	default:
		return TimeField{}
	}
}

// AnalyzeContract runs the full LLM analysis cycle: flatten source, build
// the chat payload, query the model, and validate the strict-JSON response.
// Returns (nil, nil) for the terminal "not an airdrop" classification (an
// empty {} response, or a response missing eligibility_function_abi) —
// that is success with no artifact, not a failure (spec.md §7).
func (a *LLMSemanticAnalyzer) AnalyzeContract(ctx context.Context, sourceCodeJSON, abiJSON string) (*AirdropAnalysis, error) {
	flat := FlattenSourceCode(sourceCodeJSON)
	userContent := fmt.Sprintf(
		"Here is the smart contract source code:\n```solidity\n%s\n```\n\n"+
			"Here is the smart contract ABI:\n```json\n%s\n```\n\n"+
			"Analyze the contract based on your instructions and provide ONLY the JSON response.",
		flat, abiJSON,
	)

	content, err := a.client.Query(ctx, []provider.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userContent},
	})
	if err != nil {
		return nil, err
	}
	if content == "" {
		llmAnalyzerLogger.Warn("llm client returned an empty response")
		return nil, nil
	}

	return validateLLMResponse(content)
}

func validateLLMResponse(responseStr string) (*AirdropAnalysis, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(responseStr), &raw); err != nil {
		llmAnalyzerLogger.Warn("llm response was not valid json")
		return nil, nil
	}
	if len(raw) == 0 {
		llmAnalyzerLogger.Info("llm returned an empty json object; contract is not an airdrop")
		return nil, nil
	}
	if _, ok := raw["eligibility_function_abi"]; !ok {
		llmAnalyzerLogger.Warn("llm response missing required key eligibility_function_abi")
		return nil, nil
	}

	var analysis AirdropAnalysis
	if err := json.Unmarshal([]byte(responseStr), &analysis); err != nil {
		llmAnalyzerLogger.Warn("llm response did not match expected shape", "err", err)
		return nil, nil
	}
	llmAnalyzerLogger.Info("llm validation successful; found eligibility function")
	return &analysis, nil
}
