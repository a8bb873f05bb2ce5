package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	domai "github.com/bryanwahyu/docsense/internal/domain/ai"
	"github.com/bryanwahyu/docsense/internal/infra/ai/prompt"
)

const defaultMaxTokens = 4096

// Client adapts the OpenAI chat completion API to the Oracle port. A fresh
// API client is built per call so credential changes in settings take effect
// immediately.
type Client struct{}

func NewClient() *Client { return &Client{} }

func (c *Client) Classify(ctx context.Context, cred domai.Credential, doc domai.Document) (string, error) {
	return c.complete(ctx, cred, prompt.GetSystemPrompt(), prompt.GetUserPrompt(doc))
}

func (c *Client) Probe(ctx context.Context, cred domai.Credential) error {
	probe := cred
	probe.MaxTokens = 50
	_, err := c.complete(ctx, probe, "", prompt.GetProbePrompt())
	return err
}

func (c *Client) complete(ctx context.Context, cred domai.Credential, system, user string) (string, error) {
	model := cred.Model
	if model == "" {
		model = "gpt-4o-2024-08-06"
	}
	maxTokens := cred.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	var messages []openai.ChatCompletionMessage
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleSystem, Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser, Content: user,
	})

	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := openai.NewClient(cred.APIKey).CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyErr(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", domai.ErrUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}

// classifyErr folds provider errors into the domain sentinels so callers can
// tell a bad credential from a service fault.
func classifyErr(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	switch status {
	case 401, 403:
		return fmt.Errorf("%w: %v", domai.ErrAuthentication, err)
	case 429:
		return fmt.Errorf("%w: %v", domai.ErrQuotaExceeded, err)
	default:
		return fmt.Errorf("%w: %v", domai.ErrUnavailable, err)
	}
}
