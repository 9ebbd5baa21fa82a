package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// promptInvoker is the surface the name generator and the judge depend on,
// so tests can swap in a scripted fake.
type promptInvoker interface {
	Invoke(ctx context.Context, prompt string, temperature float64) (string, error)
}

// AIClient sends a single prompt to the configured text-generation provider
// and returns the raw reply text. It is stateless and never retries; retry
// policy belongs to the callers.
type AIClient struct {
	Provider string
	APIKey   string
	Endpoint string // overrides the provider default, used by tests
	HTTP     *http.Client
}

// NewAIClient returns a client for the given provider and key.
func NewAIClient(provider, apiKey string) *AIClient {
	return &AIClient{
		Provider: provider,
		APIKey:   apiKey,
		HTTP:     &http.Client{},
	}
}

// Invoke sends prompt to the provider and extracts the reply text.
// Each call gets its own 15s deadline; on expiry the in-flight request is
// cancelled and ErrTimeout is returned.
func (c *AIClient) Invoke(ctx context.Context, prompt string, temperature float64) (string, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return "", ErrNoAPIKey
	}

	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	req, err := c.buildRequest(ctx, prompt, temperature)
	if err != nil {
		return "", err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", mapStatusError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return extractReplyText(c.Provider, body)
}

// buildRequest assembles the provider-specific HTTP request. Adding a
// provider means adding a case here and in extractReplyText.
func (c *AIClient) buildRequest(ctx context.Context, prompt string, temperature float64) (*http.Request, error) {
	apiKey := strings.TrimSpace(c.APIKey)

	switch c.Provider {
	case ProviderZhipu:
		payload := map[string]any{
			"model":       ZhipuModel,
			"messages":    []map[string]string{{"role": "user", "content": prompt}},
			"temperature": temperature,
			"max_tokens":  MaxReplyTokens,
		}
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		endpoint := c.Endpoint
		if endpoint == "" {
			endpoint = ZhipuEndpoint
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+apiKey)
		return req, nil

	case ProviderGemini:
		payload := map[string]any{
			"contents": []map[string]any{
				{"parts": []map[string]string{{"text": prompt}}},
			},
			"generationConfig": map[string]any{
				"temperature":     temperature,
				"maxOutputTokens": MaxReplyTokens,
			},
		}
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		endpoint := c.Endpoint
		if endpoint == "" {
			endpoint = GeminiEndpoint
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?key="+apiKey, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil

	default:
		return nil, fmt.Errorf("unknown ai provider: %q", c.Provider)
	}
}

// mapStatusError converts a failing HTTP status into a typed error.
func mapStatusError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuthFailure
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 100))
	return &UpstreamError{Status: resp.StatusCode, Body: string(excerpt)}
}

// zhipuReply mirrors the chat-completions response shape.
type zhipuReply struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// geminiReply mirrors the generateContent response shape.
type geminiReply struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// extractReplyText pulls the reply string out of a provider response body.
// A missing field path, or one holding nothing but whitespace, is reported as
// ErrMalformedResponse; JSON with an absent content field decodes to "" and
// must not pass for a reply.
func extractReplyText(provider string, body []byte) (string, error) {
	var text string
	switch provider {
	case ProviderZhipu:
		var reply zhipuReply
		if err := json.Unmarshal(body, &reply); err != nil {
			return "", ErrMalformedResponse
		}
		if len(reply.Choices) == 0 {
			return "", ErrMalformedResponse
		}
		text = reply.Choices[0].Message.Content
	case ProviderGemini:
		var reply geminiReply
		if err := json.Unmarshal(body, &reply); err != nil {
			return "", ErrMalformedResponse
		}
		if len(reply.Candidates) == 0 || len(reply.Candidates[0].Content.Parts) == 0 {
			return "", ErrMalformedResponse
		}
		text = reply.Candidates[0].Content.Parts[0].Text
	default:
		return "", fmt.Errorf("unknown ai provider: %q", provider)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrMalformedResponse
	}
	return text, nil
}
