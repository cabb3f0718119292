package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jhoicas/quote-builder/internal/application/ports"
	"github.com/jhoicas/quote-builder/internal/domain"
)

// Compile-time check that GeminiExtractor implements Extractor.
var _ ports.Extractor = (*GeminiExtractor)(nil)

const geminiBaseURL = "https://generativelanguage.googleapis.com"

// GeminiExtractor sends sources to the Gemini generateContent REST API.
// responseMimeType=application/json asks the model for bare JSON, but the text is still
// returned untouched and left to the normalizer.
type GeminiExtractor struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGeminiExtractor builds the adapter. model is usually "gemini-1.5-flash".
func NewGeminiExtractor(apiKey, model string, timeout time.Duration) *GeminiExtractor {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &GeminiExtractor{
		apiKey:     apiKey,
		model:      model,
		baseURL:    geminiBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithBaseURL points the adapter at another endpoint (proxies, tests).
func (e *GeminiExtractor) WithBaseURL(u string) *GeminiExtractor {
	e.baseURL = strings.TrimRight(u, "/")
	return e
}

// ── Gemini wire types ─────────────────────────────────────────────────────────

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  genConfig       `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type genConfig struct {
	ResponseMIMEType string  `json:"responseMimeType"`
	Temperature      float32 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ── Port implementation ───────────────────────────────────────────────────────

// Extract sends one source and returns the model's text untouched.
func (e *GeminiExtractor) Extract(ctx context.Context, src ports.Source) (string, error) {
	if e.apiKey == "" {
		return "", fmt.Errorf("AI: GEMINI_API_KEY: %w", domain.ErrProviderNotConfigured)
	}
	kind, mime, err := classify(src)
	if err != nil {
		return "", err
	}

	parts := make([]geminiPart, 0, 2)
	if kind != kindText {
		parts = append(parts, geminiPart{InlineData: &inlineData{
			MIMEType: mime,
			Data:     base64.StdEncoding.EncodeToString(src.Content),
		}})
	}
	parts = append(parts, geminiPart{Text: userText(src, kind)})

	payload := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: extractionPrompt}}},
		Contents:          []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: genConfig{
			ResponseMIMEType: "application/json",
			Temperature:      0.1,
			MaxOutputTokens:  8192,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("AI: encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		e.baseURL, url.PathEscape(e.model), url.QueryEscape(e.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("AI: build HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("AI: timeout or cancellation: %w", ctx.Err())
		}
		// url.Error carries the request URL, which includes the key.
		return "", fmt.Errorf("AI: Gemini HTTP call failed")
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("AI: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp geminiResponse
		if jsonErr := json.Unmarshal(rawBody, &errResp); jsonErr == nil && errResp.Error != nil {
			return "", fmt.Errorf("AI: Gemini error %d: %s", errResp.Error.Code, errResp.Error.Message)
		}
		return "", fmt.Errorf("AI: Gemini HTTP %d", resp.StatusCode)
	}

	var gemResp geminiResponse
	if err := json.Unmarshal(rawBody, &gemResp); err != nil {
		return "", fmt.Errorf("AI: decode Gemini response: %w", err)
	}
	if len(gemResp.Candidates) == 0 {
		return "", fmt.Errorf("AI: Gemini returned no candidates")
	}

	var sb strings.Builder
	for _, p := range gemResp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("AI: Gemini returned no text (finishReason %q)", gemResp.Candidates[0].FinishReason)
	}
	return sb.String(), nil
}
