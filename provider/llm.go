package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/airdropindexer/evmscan/common"
	"github.com/airdropindexer/evmscan/log"
)

var llmLogger = log.NewModuleLogger(log.ProviderLLM)

// LLMClient is an OpenAI-compatible chat completion client used by
// analyzer/llm.go for semantic airdrop-logic analysis, grounded on
// original_source/src/providers/openai_compatible_api_client.py.
type LLMClient struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
	gate    *Gate
}

func NewLLMClient(baseURL, apiKey, model string, timeout time.Duration, gate *Gate) *LLMClient {
	return &LLMClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: timeout},
		gate:    gate,
	}
}

// ChatMessage is one entry of the "messages" array sent to the chat
// completion endpoint.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []ChatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Query posts messages to the chat completion endpoint forcing a JSON
// object response, and returns the assistant's raw content string.
func (c *LLMClient) Query(ctx context.Context, messages []ChatMessage) (string, error) {
	c.gate.Wait()

	body := chatRequest{
		Model:          c.model,
		Messages:       messages,
		ResponseFormat: map[string]string{"type": "json_object"},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", common.Structural(err, "marshal llm payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", common.Structural(err, "build llm request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", common.Transient(err, "llm request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", common.Transient(fmt.Errorf("llm http %d", resp.StatusCode), "llm api error")
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", common.Transient(err, "decode llm response")
	}
	if len(parsed.Choices) == 0 {
		llmLogger.Warn("llm response missing choices")
		return "", common.Structural(fmt.Errorf("invalid llm response structure"), "llm response shape")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
