// Package selector computes ABI function selectors and decodes eth_call
// results, grounded on original_source/src/utils/contract_utils.py.
package selector

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// FunctionABI is the subset of a JSON ABI function entry this package needs.
type FunctionABI struct {
	Type   string            `json:"type"`
	Name   string            `json:"name"`
	Inputs []FunctionABIInput `json:"inputs"`
}

type FunctionABIInput struct {
	Type string `json:"type"`
}

// GarbageTimestampThreshold rejects decoded timestamps beyond this value
// (2286-11-20 UTC) as obvious non-dates — a hash or packed value misread as a
// uint256 — mirroring contract_utils.py's 10_000_000_000 heuristic exactly.
const GarbageTimestampThreshold = 10_000_000_000

// FunctionSelector returns the 0x-prefixed 4-byte selector for fn, computed
// as keccak256("name(type1,type2,...)")[:4].
func FunctionSelector(fn FunctionABI) (string, error) {
	if fn.Type != "function" {
		return "", fmt.Errorf("abi item is not a function: %q", fn.Type)
	}
	if fn.Name == "" {
		return "", fmt.Errorf("function abi missing name")
	}
	types := make([]string, 0, len(fn.Inputs))
	for _, in := range fn.Inputs {
		if in.Type == "" {
			return "", fmt.Errorf("invalid input item in abi")
		}
		types = append(types, in.Type)
	}
	signature := fmt.Sprintf("%s(%s)", fn.Name, strings.Join(types, ","))
	sum := crypto.Keccak256([]byte(signature))
	return "0x" + hex.EncodeToString(sum[:4]), nil
}

// HasExactlyOneAddressInput reports whether fn takes exactly one `address`
// input — the eligibility read-contract requirement (spec.md §6): every
// confirmed eligibility_function_abi must have this shape.
func HasExactlyOneAddressInput(fn FunctionABI) bool {
	return len(fn.Inputs) == 1 && fn.Inputs[0].Type == "address"
}

// DecodeAddress decodes a single `address` ABI-encoded eth_call result.
func DecodeAddress(result string) (string, error) {
	if len(result) < 66 || !strings.HasPrefix(result, "0x") {
		return "", fmt.Errorf("invalid eth_call result for address decoding: %q", result)
	}
	raw, err := hex.DecodeString(result[2:])
	if err != nil {
		return "", fmt.Errorf("decode hex result: %w", err)
	}
	args := abi.Arguments{{Type: mustType("address")}}
	values, err := args.Unpack(raw)
	if err != nil || len(values) == 0 {
		return "", fmt.Errorf("decode address from eth_call result %q: %w", result, err)
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return "", fmt.Errorf("decoded value is not an address")
	}
	return addr.Hex(), nil
}

// DecodeTimestamp decodes a uint256 eth_call result as a unix timestamp.
// Returns (0, nil) for an empty/zero result (a valid "not set" answer), and
// an error if the result is garbage beyond GarbageTimestampThreshold —
// callers use that error to null out the getter ABI instead of retrying
// forever (spec.md §4.5 reconciliation step 3/4).
func DecodeTimestamp(result string) (int64, error) {
	if result == "" || !strings.HasPrefix(result, "0x") {
		return 0, fmt.Errorf("invalid eth_call result for timestamp decoding: %q", result)
	}
	hexDigits := result[2:]
	if hexDigits == "" {
		hexDigits = "0"
	}
	ts, err := strconv.ParseUint(hexDigits, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("decode timestamp from hex result %q: %w", result, err)
	}
	if ts == 0 {
		return 0, nil
	}
	if ts > GarbageTimestampThreshold {
		return 0, fmt.Errorf("decoded timestamp %d exceeds garbage threshold", ts)
	}
	return int64(ts), nil
}

// IsCodeEmpty reports whether an eth_getCode result indicates a destroyed
// contract or EOA: "0x", or any all-zero hex payload. An empty/unparseable
// non-"0x" result is treated as NOT empty — the safer assumption, so the
// caller retries next cycle instead of prematurely deactivating a live
// contract.
func IsCodeEmpty(codeResult string) bool {
	if codeResult == "" {
		return false
	}
	if codeResult == "0x" {
		return true
	}
	hexDigits := strings.TrimPrefix(codeResult, "0x")
	n, err := strconv.ParseUint(hexDigits, 16, 64)
	if err != nil {
		// A very long code payload overflows uint64 — that's real code.
		for _, r := range hexDigits {
			if r != '0' {
				return false
			}
		}
		return true
	}
	return n == 0
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}
