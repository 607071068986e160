// Package provider defines the single blockchain-client capability surface
// every scanner depends on, plus the HTTP-backed implementations of it
// (spec.md §4.6), grounded on
// original_source/src/providers/api_client_interface.py.
package provider

import (
	"context"
)

// BlockchainClient is the capability surface the scanners call through.
// Not every implementation supports every method — callers that hit an
// unsupported capability get common.ErrUnsupportedCapability, mirroring the
// original's MoralisAPIClient NotImplementedError stubs.
type BlockchainClient interface {
	LatestBlockNumber(ctx context.Context, chainID uint64) (uint64, error)
	BlockByNumber(ctx context.Context, chainID uint64, number uint64) (*Block, error)
	TransactionReceipt(ctx context.Context, chainID uint64, txHash string) (*Receipt, error)
	ContractSource(ctx context.Context, chainID uint64, address string) (*ContractSource, error)
	EthCall(ctx context.Context, chainID uint64, to string, data string) (string, error)
	EthGetCode(ctx context.Context, chainID uint64, address string) (string, error)
	TokenMetadata(ctx context.Context, chainID uint64, tokenAddress string) (*TokenMetadata, error)
}

// Block is the subset of block data this pipeline needs: enough of each
// transaction to let BlockScanner pick out contract-creation transactions
// (those with a nil "to" field) without a second round-trip.
type Block struct {
	Number       uint64
	Hash         string
	Transactions []BlockTransaction
}

// BlockTransaction is one transaction within a fetched block.
type BlockTransaction struct {
	Hash               string
	IsContractCreation bool // true when the transaction's "to" field is null
}

// Receipt carries what TxScanner needs to decide a transaction created a
// contract.
type Receipt struct {
	TransactionHash string
	ContractAddress string // empty if this tx did not create a contract
	Status          bool
}

// ContractSource is the verified-source response shape. RawSourceCode
// preserves whichever JSON envelope the provider returned (Etherscan's
// {{...}}-wrapped multi-file format, a plain {...} JSON object, or a raw
// single-file string) so selector/analyzer code can canonicalize it per
// spec.md §4.3/§4.4.
type ContractSource struct {
	ContractName   string
	RawSourceCode  string
	ABI            string
	Verified       bool
}

// TokenMetadata is the Moralis-style token metadata response shape.
type TokenMetadata struct {
	Symbol           string
	Decimals         int
	SecurityScore    *int
	PossibleSpam     bool
	VerifiedContract bool
}
