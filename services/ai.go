package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// TextGenerator produces a completion for a prompt. The chat and quiz
// handlers consume it as an opaque function.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// AIClient talks to an OpenAI-compatible chat-completions endpoint.
type AIClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewAIClientFromEnv() *AIClient {
	baseURL := os.Getenv("AI_API_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1/chat/completions"
	}
	model := os.Getenv("AI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &AIClient{
		baseURL: baseURL,
		apiKey:  os.Getenv("AI_API_KEY"),
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *AIClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatCompletionRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("encode AI request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build AI request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call AI endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read AI response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("[AI] Endpoint returned %d: %s", resp.StatusCode, truncate(string(body), 200))
		return "", fmt.Errorf("AI endpoint returned status %d", resp.StatusCode)
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode AI response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("AI endpoint error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("AI endpoint returned no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
