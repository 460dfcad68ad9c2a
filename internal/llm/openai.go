package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/tamo2918/voicord/internal/errdefs"
)

// OpenAIClient wraps the OpenAI chat completions API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (c *OpenAIClient) Name() string { return "openai" }

// Available issues a minimal models lookup to verify the key and model.
func (c *OpenAIClient) Available(ctx context.Context) (bool, string) {
	if _, err := c.client.GetModel(ctx, c.model); err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusNotFound {
			return false, "model " + c.model + " is not available for this API key"
		}
		return false, "openai is not reachable: " + err.Error()
	}
	return true, ""
}

func (c *OpenAIClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.3,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", classifyOpenAIErr(err)
	}
	if len(resp.Choices) == 0 {
		return "", errdefs.New(errdefs.CodeBackendError, "openai returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func classifyOpenAIErr(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusNotFound:
			return errdefs.Wrap(err, errdefs.CodeBackendUnavailable, "openai request rejected")
		}
		return errdefs.Wrap(err, errdefs.CodeBackendError, "openai request failed")
	}
	return errdefs.Wrap(err, errdefs.CodeBackendUnavailable, "openai is not reachable")
}
