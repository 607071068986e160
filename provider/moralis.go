package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/airdropindexer/evmscan/common"
	"github.com/airdropindexer/evmscan/log"
)

var moralisLogger = log.NewModuleLogger(log.ProviderMoralis)

// MoralisClient implements only the TokenMetadata capability; every other
// BlockchainClient method returns common.ErrUnsupportedCapability, mirroring
// original_source/src/providers/moralis_api_client.py's NotImplementedError
// stubs verbatim.
type MoralisClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	gate    *Gate
	cache   common.Cache
}

// NewMoralisClient builds a client rate-limited by gate and backed by an
// LRU cache for repeat metadata lookups (SPEC_FULL.md §7 supplemented
// feature 1).
func NewMoralisClient(baseURL, apiKey string, timeout time.Duration, gate *Gate, cache common.Cache) *MoralisClient {
	return &MoralisClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		gate:    gate,
		cache:   cache,
	}
}

func chainIDToMoralisHex(chainID uint64) string {
	return fmt.Sprintf("0x%x", chainID)
}

func (c *MoralisClient) TokenMetadata(ctx context.Context, chainID uint64, tokenAddress string) (*TokenMetadata, error) {
	key := common.TokenMetadataKey{ChainID: chainID, Address: tokenAddress}
	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			if md, ok := v.(*TokenMetadata); ok {
				return md, nil
			}
		}
	}

	c.gate.Wait()

	params := url.Values{
		"chain":      {chainIDToMoralisHex(chainID)},
		"addresses[0]": {tokenAddress},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/erc20/metadata?"+params.Encode(), nil)
	if err != nil {
		return nil, common.Structural(err, "build moralis request")
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, common.Transient(err, "moralis request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, common.Transient(fmt.Errorf("moralis http %d", resp.StatusCode), "moralis api error")
	}

	var results []struct {
		Symbol                        string `json:"symbol"`
		Decimals                      *int   `json:"decimals"`
		VerifiedContractSecurityScore *int   `json:"verified_contract_security_score"`
		PossibleSpam                  bool   `json:"possible_spam"`
		VerifiedContract              bool   `json:"verified_contract"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, common.Transient(err, "decode moralis response")
	}
	if len(results) == 0 || results[0].Symbol == "" || results[0].Decimals == nil {
		moralisLogger.Warn("moralis metadata missing symbol or decimals", "token", tokenAddress)
		return nil, common.Structural(fmt.Errorf("incomplete metadata"), "moralis metadata missing fields")
	}

	md := &TokenMetadata{
		Symbol:           results[0].Symbol,
		Decimals:         *results[0].Decimals,
		SecurityScore:    results[0].VerifiedContractSecurityScore,
		PossibleSpam:     results[0].PossibleSpam,
		VerifiedContract: results[0].VerifiedContract,
	}
	if c.cache != nil {
		c.cache.Add(key, md)
	}
	return md, nil
}

func (c *MoralisClient) LatestBlockNumber(ctx context.Context, chainID uint64) (uint64, error) {
	return 0, common.ErrUnsupportedCapability
}

func (c *MoralisClient) BlockByNumber(ctx context.Context, chainID uint64, number uint64) (*Block, error) {
	return nil, common.ErrUnsupportedCapability
}

func (c *MoralisClient) TransactionReceipt(ctx context.Context, chainID uint64, txHash string) (*Receipt, error) {
	return nil, common.ErrUnsupportedCapability
}

func (c *MoralisClient) ContractSource(ctx context.Context, chainID uint64, address string) (*ContractSource, error) {
	return nil, common.ErrUnsupportedCapability
}

func (c *MoralisClient) EthCall(ctx context.Context, chainID uint64, to string, data string) (string, error) {
	return "", common.ErrUnsupportedCapability
}

func (c *MoralisClient) EthGetCode(ctx context.Context, chainID uint64, address string) (string, error) {
	return "", common.ErrUnsupportedCapability
}
