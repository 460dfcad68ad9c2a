package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tamo2918/voicord/internal/errdefs"
	"github.com/tamo2918/voicord/internal/resilience"
)

// OllamaClient talks to a local Ollama server over its native HTTP API.
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOllamaClient creates a client for the given host, e.g. "http://localhost:11434".
func NewOllamaClient(baseURL, model string) *OllamaClient {
	return &OllamaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: 300 * time.Second, // first call loads the model into VRAM
		},
	}
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the Ollama /api/chat request body.
type chatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  map[string]any  `json:"options,omitempty"`
}

// chatResponse is the Ollama /api/chat response.
type chatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func (c *OllamaClient) Name() string { return "ollama" }

// Available checks that the server responds and the configured model is pulled.
func (c *OllamaClient) Available(ctx context.Context) (bool, string) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/tags", nil)
	if err != nil {
		return false, err.Error()
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Sprintf("ollama is not reachable at %s", c.baseURL)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Sprintf("ollama responded with status %d", resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return false, "failed to decode ollama model list"
	}
	for _, m := range tags.Models {
		if m.Name == c.model || strings.TrimSuffix(m.Name, ":latest") == c.model {
			return true, ""
		}
	}
	return false, fmt.Sprintf("model %q is not installed, run: ollama pull %s", c.model, c.model)
}

// Generate sends a system instruction and a user prompt to /api/chat.
func (c *OllamaClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	body := chatRequest{
		Model: c.model,
		Messages: []ollamaMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Stream: false,
		Options: map[string]any{
			"temperature": 0.3,
			"top_p":       0.9,
		},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", errdefs.Wrap(err, errdefs.CodeBackendError, "marshal ollama request")
	}

	var result chatResponse
	err = resilience.Do(ctx, resilience.DefaultConfig(), resilience.IsTransient, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/chat", bytes.NewReader(jsonBody))
		if err != nil {
			return errdefs.Wrap(err, errdefs.CodeBackendError, "build ollama request")
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return errdefs.Wrapf(err, errdefs.CodeBackendUnavailable, "ollama is not reachable at %s", c.baseURL)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			bodyBytes, _ := io.ReadAll(resp.Body)
			if resp.StatusCode == http.StatusNotFound && strings.Contains(string(bodyBytes), "not found") {
				return errdefs.Newf(errdefs.CodeBackendUnavailable,
					"model %q is not installed, run: ollama pull %s", c.model, c.model)
			}
			return errdefs.Newf(errdefs.CodeBackendError, "ollama status %d: %s", resp.StatusCode, string(bodyBytes))
		}

		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return errdefs.Wrap(err, errdefs.CodeBackendError, "decode ollama response")
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(result.Message.Content), nil
}
