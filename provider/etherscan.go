package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/airdropindexer/evmscan/common"
	"github.com/airdropindexer/evmscan/log"
)

var etherscanLogger = log.NewModuleLogger(log.ProviderEth)

// EtherscanClient implements BlockchainClient against an Etherscan
// v2-compatible multi-chain API, grounded on
// original_source/src/providers/etherscan_api_client.py. It does not
// implement TokenMetadata (Etherscan's v2 surface has no metadata
// endpoint equivalent to Moralis's) — callers get
// common.ErrUnsupportedCapability, mirroring the original's
// capability-missing pattern in MoralisAPIClient applied here in reverse.
type EtherscanClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	gate    *Gate
}

// NewEtherscanClient builds a client rate-limited by gate (shared or
// per-instance, per locator.go's SCANNERS_API_PARALLEL_MODE decision).
func NewEtherscanClient(baseURL, apiKey string, timeout time.Duration, gate *Gate) *EtherscanClient {
	return &EtherscanClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		gate:    gate,
	}
}

type etherscanEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func (c *EtherscanClient) request(ctx context.Context, params url.Values) (json.RawMessage, error) {
	c.gate.Wait()

	params.Set("apikey", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, common.Structural(err, "build etherscan request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, common.Transient(err, "etherscan request failed")
	}
	defer resp.Body.Close()

	var env etherscanEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, common.Transient(err, "decode etherscan response")
	}
	if env.Status == "0" {
		etherscanLogger.Warn("etherscan api error", "message", env.Message)
		return nil, common.Transient(fmt.Errorf("%s", env.Message), "etherscan api error")
	}
	if len(env.Result) == 0 {
		return nil, common.Structural(fmt.Errorf("missing result field"), "etherscan response missing result")
	}
	return env.Result, nil
}

func (c *EtherscanClient) LatestBlockNumber(ctx context.Context, chainID uint64) (uint64, error) {
	params := url.Values{
		"chainid": {strconv.FormatUint(chainID, 10)},
		"module":  {"proxy"},
		"action":  {"eth_blockNumber"},
	}
	raw, err := c.request(ctx, params)
	if err != nil {
		return 0, err
	}
	var hexResult string
	if err := json.Unmarshal(raw, &hexResult); err != nil {
		return 0, common.Structural(err, "decode block number")
	}
	n, err := strconv.ParseUint(trimHexPrefix(hexResult), 16, 64)
	if err != nil {
		return 0, common.Structural(err, "parse block number")
	}
	return n, nil
}

func (c *EtherscanClient) BlockByNumber(ctx context.Context, chainID uint64, number uint64) (*Block, error) {
	params := url.Values{
		"chainid": {strconv.FormatUint(chainID, 10)},
		"module":  {"proxy"},
		"action":  {"eth_getBlockByNumber"},
		"tag":     {"0x" + strconv.FormatUint(number, 16)},
		"boolean": {"true"},
	}
	raw, err := c.request(ctx, params)
	if err != nil {
		return nil, err
	}
	var body struct {
		Hash         string `json:"hash"`
		Transactions []struct {
			Hash string  `json:"hash"`
			To   *string `json:"to"`
		} `json:"transactions"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, common.Structural(err, "decode block body")
	}
	block := &Block{Number: number, Hash: body.Hash}
	for _, tx := range body.Transactions {
		block.Transactions = append(block.Transactions, BlockTransaction{
			Hash:               tx.Hash,
			IsContractCreation: tx.To == nil,
		})
	}
	return block, nil
}

func (c *EtherscanClient) TransactionReceipt(ctx context.Context, chainID uint64, txHash string) (*Receipt, error) {
	params := url.Values{
		"chainid": {strconv.FormatUint(chainID, 10)},
		"module":  {"proxy"},
		"action":  {"eth_getTransactionReceipt"},
		"txhash":  {txHash},
	}
	raw, err := c.request(ctx, params)
	if err != nil {
		return nil, err
	}
	var body struct {
		TransactionHash string `json:"transactionHash"`
		ContractAddress string `json:"contractAddress"`
		Status          string `json:"status"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, common.Structural(err, "decode receipt")
	}
	return &Receipt{
		TransactionHash: body.TransactionHash,
		ContractAddress: body.ContractAddress,
		Status:          body.Status == "0x1",
	}, nil
}

func (c *EtherscanClient) ContractSource(ctx context.Context, chainID uint64, address string) (*ContractSource, error) {
	params := url.Values{
		"chainid": {strconv.FormatUint(chainID, 10)},
		"module":  {"contract"},
		"action":  {"getsourcecode"},
		"address": {address},
	}
	raw, err := c.request(ctx, params)
	if err != nil {
		return nil, err
	}
	var results []struct {
		ContractName string `json:"ContractName"`
		SourceCode   string `json:"SourceCode"`
		ABI          string `json:"ABI"`
	}
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, common.Structural(err, "decode source list")
	}
	if len(results) == 0 {
		return nil, nil
	}
	r := results[0]
	return &ContractSource{
		ContractName:  r.ContractName,
		RawSourceCode: r.SourceCode,
		ABI:           r.ABI,
		Verified:      r.SourceCode != "" && r.ABI != "" && r.ABI != "Contract source code not verified",
	}, nil
}

func (c *EtherscanClient) EthCall(ctx context.Context, chainID uint64, to string, data string) (string, error) {
	params := url.Values{
		"chainid": {strconv.FormatUint(chainID, 10)},
		"module":  {"proxy"},
		"action":  {"eth_call"},
		"to":      {to},
		"data":    {data},
		"tag":     {"latest"},
	}
	raw, err := c.request(ctx, params)
	if err != nil {
		return "", err
	}
	var result string
	if err := json.Unmarshal(raw, &result); err != nil || len(result) <= 2 {
		return "", common.Structural(fmt.Errorf("invalid eth_call result"), "eth_call result")
	}
	return result, nil
}

func (c *EtherscanClient) EthGetCode(ctx context.Context, chainID uint64, address string) (string, error) {
	params := url.Values{
		"chainid": {strconv.FormatUint(chainID, 10)},
		"module":  {"proxy"},
		"action":  {"eth_getCode"},
		"address": {address},
		"tag":     {"latest"},
	}
	raw, err := c.request(ctx, params)
	if err != nil {
		return "", err
	}
	var result string
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", common.Structural(err, "decode eth_getCode result")
	}
	return result, nil
}

func (c *EtherscanClient) TokenMetadata(ctx context.Context, chainID uint64, tokenAddress string) (*TokenMetadata, error) {
	return nil, common.ErrUnsupportedCapability
}

func trimHexPrefix(s string) string {
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
