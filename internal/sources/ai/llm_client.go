package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"seniorguard/internal/config"
	"seniorguard/internal/domain/models"
	"seniorguard/pkg/logger"
)

const (
	openAIChatURL   = "https://api.openai.com/v1/chat/completions"
	claudeMessages  = "https://api.anthropic.com/v1/messages"
	llmClientSource = "llm"
)

// LLMClient provides access to large language model APIs
type LLMClient struct {
	httpClient *http.Client
	logger     *logger.Logger
	config     config.LLMConfig
}

// NewLLMClient creates a new LLM client
func NewLLMClient(cfg config.LLMConfig, log *logger.Logger) *LLMClient {
	if cfg.Provider == "" {
		cfg.Provider = "openai"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 500
	}
	if cfg.Model == "" {
		if cfg.Provider == "claude" {
			cfg.Model = "claude-3-5-haiku-latest"
		} else {
			cfg.Model = "gpt-4o-mini"
		}
	}
	if cfg.APIURL == "" {
		if cfg.Provider == "claude" {
			cfg.APIURL = claudeMessages
		} else {
			cfg.APIURL = openAIChatURL
		}
	}

	return &LLMClient{
		httpClient: &http.Client{},
		logger:     log.WithComponent("llm-client"),
		config:     cfg,
	}
}

// Configured reports whether the client has a credential
func (c *LLMClient) Configured() bool {
	return c.config.Configured()
}

// Model returns the model name sent with every request
func (c *LLMClient) Model() string {
	return c.config.Model
}

// Timeout returns the configured per-call bound
func (c *LLMClient) Timeout() time.Duration {
	return c.config.Timeout
}

// Chat sends a single-turn conversation and returns the assistant text
func (c *LLMClient) Chat(ctx context.Context, system, prompt string) (string, error) {
	if !c.Configured() {
		return "", models.ErrNotConfigured
	}

	switch c.config.Provider {
	case "claude":
		return c.callClaude(ctx, system, prompt)
	case "openai":
		return c.callOpenAI(ctx, system, prompt)
	default:
		return "", fmt.Errorf("unsupported LLM provider %q: %w", c.config.Provider, models.ErrNotConfigured)
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// callOpenAI makes a request to the OpenAI chat completions API
func (c *LLMClient) callOpenAI(ctx context.Context, system, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":       c.config.Model,
		"max_tokens":  c.config.MaxTokens,
		"temperature": c.config.Temperature,
		"messages": []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
	}

	body, err := c.post(ctx, reqBody, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	})
	if err != nil {
		return "", err
	}

	var openAIResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &openAIResp); err != nil {
		return "", c.malformed(err)
	}
	if len(openAIResp.Choices) == 0 {
		return "", c.malformed(fmt.Errorf("no choices in response"))
	}
	return openAIResp.Choices[0].Message.Content, nil
}

// callClaude makes a request to the Anthropic messages API
func (c *LLMClient) callClaude(ctx context.Context, system, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":       c.config.Model,
		"max_tokens":  c.config.MaxTokens,
		"temperature": c.config.Temperature,
		"system":      system,
		"messages":    []chatMessage{{Role: "user", Content: prompt}},
	}

	body, err := c.post(ctx, reqBody, func(req *http.Request) {
		req.Header.Set("x-api-key", c.config.APIKey)
		req.Header.Set("anthropic-version", "2023-06-01")
	})
	if err != nil {
		return "", err
	}

	var claudeResp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &claudeResp); err != nil {
		return "", c.malformed(err)
	}

	var sb strings.Builder
	for _, part := range claudeResp.Content {
		if part.Type == "text" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

func (c *LLMClient) post(ctx context.Context, payload any, auth func(*http.Request)) ([]byte, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.APIURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	auth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, models.NewTransientError(llmClientSource, 0, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.NewTransientError(llmClientSource, resp.StatusCode, "failed to read body", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, models.NewTransientError(llmClientSource, resp.StatusCode, "unexpected status", nil)
	}
	return body, nil
}

func (c *LLMClient) malformed(err error) error {
	return &models.ProviderError{
		Kind:       models.ErrorKindMalformedResponse,
		Source:     llmClientSource,
		Message:    "failed to decode completion envelope",
		Underlying: err,
	}
}

// extractJSON strips markdown fences and surrounding prose from a model reply
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end > start {
		content = content[start : end+1]
	}
	return content
}
