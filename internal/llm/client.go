// Package llm is the boundary to the code-generation service: a prompt
// goes in, free-form text comes out. Everything else in the pipeline
// treats the service as opaque.
package llm

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// APIKeyEnv is consulted when no key is configured explicitly.
const APIKeyEnv = "OPENAI_API_KEY"

// Config selects the model and endpoint. Credentials are passed in, never
// read from package state.
type Config struct {
	APIKey      string // falls back to $OPENAI_API_KEY
	BaseURL     string // optional, for OpenAI-compatible endpoints
	Model       string // default gpt-4
	MaxTokens   int    // default 700
	Temperature float64
}

// FixRequest carries everything the model needs to propose a remediation.
type FixRequest struct {
	Descriptor  string // "threat (CWE)" from the taxonomy
	Snippet     string // bounded window around the offending line
	LineText    string // the offending line, verbatim
	FileContext string // optional whole-file context
}

// Client wraps the chat-completion API.
type Client struct {
	api         *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// New builds a client, resolving the API key from the environment when
// cfg.APIKey is empty.
func New(cfg Config) (*Client, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv(APIKeyEnv)
	}
	if key == "" {
		return nil, errors.New("llm: no API key configured (set " + APIKeyEnv + ")")
	}
	oc := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 700
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 0.3
	}
	return &Client{
		api:         openai.NewClientWithConfig(oc),
		model:       model,
		maxTokens:   maxTokens,
		temperature: float32(temperature),
	}, nil
}

// SuggestFix asks the model for a remediation of one evidence item.
func (c *Client) SuggestFix(ctx context.Context, req FixRequest) (string, error) {
	prompt := fmt.Sprintf(fixPromptFormat, req.Descriptor, req.Snippet, req.LineText)
	if req.FileContext != "" {
		prompt += fmt.Sprintf(fileContextFormat, req.FileContext)
	}
	return c.chat(ctx, fixSystemPrompt, prompt)
}

// GenerateTask asks the model for a hardened FreeRTOS task skeleton guided
// by the built-in threat model.
func (c *Client) GenerateTask(ctx context.Context) (string, error) {
	return c.chat(ctx, taskSystemPrompt, taskPrompt)
}

func (c *Client) chat(ctx context.Context, system, user string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}
