package fashion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gbguki/modelcutAI/internal/domain"
	"github.com/gbguki/modelcutAI/internal/infra"
)

// ErrMissingAPIKey indicates that the Gemini client was configured without credentials.
var ErrMissingAPIKey = errors.New("gemini: api key is required")

// Options controls how the Gemini image client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// GeminiClient calls the Gemini generateContent API with the source images
// inlined and decodes the first image candidate from the response.
type GeminiClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiTool struct {
	GoogleSearch *struct{} `json:"googleSearch,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type geminiGenerateContentRequest struct {
	Contents         []geminiContent         `json:"contents"`
	Tools            []geminiTool            `json:"tools,omitempty"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiGroundingWeb struct {
	URI   string `json:"uri,omitempty"`
	Title string `json:"title,omitempty"`
}

type geminiGroundingChunk struct {
	Web *geminiGroundingWeb `json:"web,omitempty"`
}

type geminiGroundingMetadata struct {
	GroundingChunks []geminiGroundingChunk `json:"groundingChunks,omitempty"`
}

type geminiCandidate struct {
	Content           geminiContent            `json:"content"`
	FinishReason      string                   `json:"finishReason,omitempty"`
	GroundingMetadata *geminiGroundingMetadata `json:"groundingMetadata,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewGeminiClient constructs a client with sane defaults. Callers may provide
// a nil HTTP client; a reusable one with a generous timeout will be created,
// image composition runs routinely take tens of seconds.
func NewGeminiClient(opts Options) (*GeminiClient, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash-image"
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &GeminiClient{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: client,
		logger:     logger,
	}, nil
}

// Model returns the configured Gemini model identifier.
func (c *GeminiClient) Model() string {
	return c.model
}

// Generate runs one composition request and returns the first image candidate
// as a data URI, along with any text commentary and grounding sources.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (*Result, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	parts := []geminiPart{{Text: buildPrompt(req)}}
	source := req.BaseImage
	if req.PreviousImage != nil {
		source = *req.PreviousImage
	}
	parts = append(parts, inlinePart(source))
	for _, product := range req.ProductImages {
		parts = append(parts, inlinePart(product))
	}

	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		Tools:    []geminiTool{{GoogleSearch: &struct{}{}}},
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
		},
	}

	var response geminiGenerateContentResponse
	path := fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.model))
	if err := c.invoke(ctx, path, payload, &response); err != nil {
		return nil, err
	}

	result := decodeResult(response)
	if result == nil {
		return nil, fmt.Errorf("gemini: no image in response")
	}

	c.logger.Debug().
		Str("model", c.model).
		Int("products", len(req.ProductImages)).
		Bool("grounded", len(result.Grounding) > 0).
		Msg("gemini: composed image")
	return result, nil
}

func (c *GeminiClient) invoke(ctx context.Context, path string, payload any, out any) error {
	endpoint := c.baseURL + path
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("gemini: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gemini: create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gemini: invoke: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr geminiErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("gemini status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		data, _ := io.ReadAll(resp.Body)
		if len(data) > 0 {
			return fmt.Errorf("gemini status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return fmt.Errorf("gemini status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gemini: decode response: %w", err)
	}
	return nil
}

func decodeResult(response geminiGenerateContentResponse) *Result {
	for _, candidate := range response.Candidates {
		var result Result
		for _, part := range candidate.Content.Parts {
			switch {
			case part.InlineData != nil && part.InlineData.Data != "":
				if result.ImageURL != "" {
					continue
				}
				mimeType := part.InlineData.MimeType
				if mimeType == "" {
					mimeType = "image/png"
				}
				result.ImageURL = fmt.Sprintf("data:%s;base64,%s", mimeType, part.InlineData.Data)
			case part.Text != "":
				if result.Summary != "" {
					result.Summary += "\n"
				}
				result.Summary += part.Text
			}
		}
		if result.ImageURL == "" {
			continue
		}
		if candidate.GroundingMetadata != nil {
			for _, chunk := range candidate.GroundingMetadata.GroundingChunks {
				if chunk.Web == nil {
					continue
				}
				result.Grounding = append(result.Grounding, domain.GroundingChunk{
					Web: &domain.GroundingWeb{URI: chunk.Web.URI, Title: chunk.Web.Title},
				})
			}
		}
		return &result
	}
	return nil
}

func buildPrompt(req Request) string {
	var b strings.Builder
	prompt := strings.TrimSpace(req.Prompt)
	if prompt != "" {
		b.WriteString(prompt)
	}
	if req.PreviousImage != nil {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Refine the provided composed image, keeping the model and products consistent.")
	} else if b.Len() == 0 {
		b.WriteString("Dress the model in the first image with the products shown in the following images.")
	}
	if req.AspectRatio.Valid() {
		b.WriteString("\nAspect ratio: ")
		b.WriteString(string(req.AspectRatio))
	}
	return b.String()
}

func inlinePart(img InputImage) geminiPart {
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}
	return geminiPart{InlineData: &geminiInlineData{MimeType: mimeType, Data: img.Data}}
}

var _ Generator = (*GeminiClient)(nil)
