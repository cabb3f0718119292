package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jhoicas/quote-builder/internal/application/ports"
	"github.com/jhoicas/quote-builder/internal/domain"
)

// Compile-time check that AnthropicExtractor implements Extractor.
var _ ports.Extractor = (*AnthropicExtractor)(nil)

const (
	anthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"

	// maxResponseBytes bounds how much of a provider response is read.
	maxResponseBytes = 4 << 20
)

// AnthropicExtractor sends sources to the Anthropic Messages API over net/http.
type AnthropicExtractor struct {
	apiKey     string
	model      string
	maxTokens  int
	baseURL    string
	httpClient *http.Client
}

// NewAnthropicExtractor builds the adapter. With an empty apiKey every call fails with
// domain.ErrProviderNotConfigured instead of reaching the network.
func NewAnthropicExtractor(apiKey, model string, timeout time.Duration) *AnthropicExtractor {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &AnthropicExtractor{
		apiKey:     apiKey,
		model:      model,
		maxTokens:  8192,
		baseURL:    anthropicBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithBaseURL points the adapter at another endpoint (proxies, tests).
func (e *AnthropicExtractor) WithBaseURL(u string) *AnthropicExtractor {
	e.baseURL = strings.TrimRight(u, "/")
	return e
}

// ── Messages API wire types ───────────────────────────────────────────────────

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

type anthropicBlock struct {
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

type anthropicSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// ── Port implementation ───────────────────────────────────────────────────────

// Extract sends one source and returns the model's text untouched.
func (e *AnthropicExtractor) Extract(ctx context.Context, src ports.Source) (string, error) {
	if e.apiKey == "" {
		return "", fmt.Errorf("AI: ANTHROPIC_API_KEY: %w", domain.ErrProviderNotConfigured)
	}
	kind, mime, err := classify(src)
	if err != nil {
		return "", err
	}

	blocks := make([]anthropicBlock, 0, 2)
	switch kind {
	case kindPDF:
		blocks = append(blocks, anthropicBlock{Type: "document", Source: &anthropicSource{
			Type: "base64", MediaType: mime, Data: base64.StdEncoding.EncodeToString(src.Content),
		}})
	case kindImage:
		blocks = append(blocks, anthropicBlock{Type: "image", Source: &anthropicSource{
			Type: "base64", MediaType: mime, Data: base64.StdEncoding.EncodeToString(src.Content),
		}})
	}
	blocks = append(blocks, anthropicBlock{Type: "text", Text: userText(src, kind)})

	payload := anthropicRequest{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		System:    extractionPrompt,
		Messages:  []anthropicMessage{{Role: "user", Content: blocks}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("AI: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("AI: build HTTP request: %w", err)
	}
	req.Header.Set("x-api-key", e.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("AI: timeout or cancellation: %w", ctx.Err())
		}
		return "", fmt.Errorf("AI: HTTP call failed: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("AI: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp anthropicResponse
		if jsonErr := json.Unmarshal(rawBody, &errResp); jsonErr == nil && errResp.Error != nil {
			return "", fmt.Errorf("AI: Anthropic error (%s): %s", errResp.Error.Type, errResp.Error.Message)
		}
		return "", fmt.Errorf("AI: Anthropic HTTP %d", resp.StatusCode)
	}

	var anthResp anthropicResponse
	if err := json.Unmarshal(rawBody, &anthResp); err != nil {
		return "", fmt.Errorf("AI: decode Anthropic response: %w", err)
	}

	var sb strings.Builder
	for _, c := range anthResp.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("AI: Anthropic returned no text (stop_reason %q)", anthResp.StopReason)
	}
	return sb.String(), nil
}
