package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"
)

const (
	DefaultChatEndpoint   = "https://api.siliconflow.cn/v1/chat/completions"
	DefaultChatModel      = "Qwen/Qwen2.5-72B-Instruct"
	DefaultAnthropicModel = "claude-sonnet-4-5"

	temperature = 0.7
)

// Provider sends one prompt pair to a text-generation service and returns the raw reply.
type Provider interface {
	Name() string
	Complete(ctx context.Context, system, user string, maxTokens int) (string, error)
}

// ChatProvider talks to any OpenAI-compatible chat completions endpoint.
type ChatProvider struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ Provider = (*ChatProvider)(nil)

func NewChatProvider(endpoint, model, apiKey string, httpClient *http.Client) *ChatProvider {
	if endpoint == "" {
		endpoint = DefaultChatEndpoint
	}
	if model == "" {
		model = DefaultChatModel
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &ChatProvider{endpoint: endpoint, model: model, apiKey: apiKey, httpClient: httpClient}
}

func (p *ChatProvider) Name() string { return "chat" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (p *ChatProvider) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("chat provider misconfigured: missing API key")
	}

	body, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call chat endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("chat endpoint error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}

	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("chat endpoint returned an empty response")
	}

	return decoded.Choices[0].Message.Content, nil
}

// AnthropicProvider uses the Anthropic messages API through llmkit.
type AnthropicProvider struct {
	model  string
	apiKey string
	prompt func(system, user string, settings types.RequestSettings) (string, error)
}

var _ Provider = (*AnthropicProvider)(nil)

func NewAnthropicProvider(model, apiKey string) *AnthropicProvider {
	if model == "" {
		model = DefaultAnthropicModel
	}
	return &AnthropicProvider{
		model:  model,
		apiKey: apiKey,
		prompt: func(system, user string, settings types.RequestSettings) (string, error) {
			response, err := anthropic.PromptWithSettings(system, user, "", apiKey, settings)
			if err != nil {
				return "", err
			}
			if len(response.Content) == 0 {
				return "", fmt.Errorf("no content in anthropic response")
			}
			return response.Content[0].Text, nil
		},
	}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

type anthropicResult struct {
	text string
	err  error
}

// Complete runs the blocking llmkit call in a goroutine so the context deadline is honoured.
// An abandoned call finishes in the background and its result is dropped.
func (p *AnthropicProvider) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("anthropic provider misconfigured: missing API key")
	}

	settings := types.RequestSettings{
		Model:       p.model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	done := make(chan anthropicResult, 1)
	go func() {
		text, err := p.prompt(system, user, settings)
		if err != nil {
			err = fmt.Errorf("anthropic request failed: %w", err)
		}
		done <- anthropicResult{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case result := <-done:
		return result.text, result.err
	}
}
