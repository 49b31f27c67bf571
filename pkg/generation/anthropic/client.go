// Package anthropic provides a text generator backed by the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	DefaultModel       = "claude-3-5-haiku-latest"
	DefaultMaxTokens   = 150
	DefaultTemperature = 0.7
)

// Config holds the client settings.
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Options     []option.RequestOption
}

// Client implements generation.Generator.
type Client struct {
	client      anthropic.Client
	model       anthropic.Model
	maxTokens   int64
	temperature float64
}

// NewClient creates an Anthropic generator.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}

	opts := append([]option.RequestOption{option.WithAPIKey(cfg.APIKey)}, cfg.Options...)

	return &Client{
		client:      anthropic.NewClient(opts...),
		model:       anthropic.Model(cfg.Model),
		maxTokens:   int64(cfg.MaxTokens),
		temperature: cfg.Temperature,
	}, nil
}

// Generate sends prompt as a single user message and concatenates the text blocks of the reply.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(c.temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("Anthropic messages request failed: %w", err)
	}

	if resp == nil || len(resp.Content) == 0 {
		return "", errors.New("empty response from Anthropic")
	}

	var builder strings.Builder

	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "text" {
			builder.WriteString(block.AsText().Text)
		}
	}

	text := strings.TrimSpace(builder.String())
	if text == "" {
		return "", errors.New("empty response from Anthropic")
	}

	return text, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return string(c.model)
}
