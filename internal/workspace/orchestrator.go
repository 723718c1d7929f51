package workspace

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gbguki/modelcutAI/internal/domain"
	"github.com/gbguki/modelcutAI/internal/imagehost"
	"github.com/gbguki/modelcutAI/internal/providers/fashion"
)

// ImageFetcher downloads a hosted image and returns its bare base64 payload
// and mime type. The generator only accepts inline data, so images that live
// behind URLs (loaded workspaces, persisted history) are pulled back in
// before a generation run.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (data, mimeType string, err error)
}

// HTTPFetcher fetches hosted images over plain HTTP.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher builds a fetcher; a nil client gets a 60s-timeout default.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", fmt.Errorf("fetch image: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", "", fmt.Errorf("fetch image %s: status %d", url, resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("fetch image: %w", err)
	}
	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(raw)
	}
	return base64.StdEncoding.EncodeToString(raw), mimeType, nil
}

// Generate runs one composition request and appends the result to history.
// Validation happens before any external call; a collaborator failure leaves
// history untouched and its message surfaces verbatim.
func (c *Controller) Generate(ctx context.Context, prompt string, aspect domain.AspectRatio) (State, *domain.GenerationResult, error) {
	if aspect == "" {
		aspect = domain.AspectSquare
	}
	if !aspect.Valid() {
		return State{}, nil, domain.Validationf("unsupported aspect ratio %q", aspect)
	}

	c.mu.Lock()
	if c.state.InFlight {
		c.mu.Unlock()
		return State{}, nil, domain.Busyf("another save or generation is in flight")
	}
	ws := c.state.Workspace
	if ws.BaseImage == nil {
		c.mu.Unlock()
		return State{}, nil, domain.Validationf("base image is required")
	}
	if len(ws.ProductImages) == 0 {
		c.mu.Unlock()
		return State{}, nil, domain.Validationf("at least one product image is required")
	}
	base := *ws.BaseImage
	products := cloneRefs(ws.ProductImages)
	var previousURL string
	if ws.ValidIndex() && ws.ActiveVersionIndex >= 0 {
		previousURL = ws.History[ws.ActiveVersionIndex].ImageURL
	}
	c.state.InFlight = true
	c.mu.Unlock()

	result, err := c.runGeneration(ctx, base, products, previousURL, prompt, aspect)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.InFlight = false
	if err != nil {
		return State{}, nil, err
	}
	c.state = withResult(c.state, *result)
	c.logger.Info().Str("result_id", result.ID).Str("aspect", string(aspect)).Msg("workspace: generated result")
	return cloneState(c.state), result, nil
}

func (c *Controller) runGeneration(ctx context.Context, base domain.ImageRef, products []domain.ImageRef, previousURL, prompt string, aspect domain.AspectRatio) (*domain.GenerationResult, error) {
	req := fashion.Request{Prompt: prompt, AspectRatio: aspect}

	input, err := c.inputImage(ctx, base)
	if err != nil {
		return nil, err
	}
	req.BaseImage = input
	for _, product := range products {
		input, err := c.inputImage(ctx, product)
		if err != nil {
			return nil, err
		}
		req.ProductImages = append(req.ProductImages, input)
	}
	if previousURL != "" {
		previous, err := c.inputFromURL(ctx, previousURL)
		if err != nil {
			return nil, err
		}
		req.PreviousImage = &previous
	}

	out, err := c.generator.Generate(ctx, req)
	if err != nil {
		return nil, domain.Generationf("%v", err)
	}

	return &domain.GenerationResult{
		ID:          c.newID(),
		ImageURL:    out.ImageURL,
		Summary:     out.Summary,
		Prompt:      prompt,
		Timestamp:   c.now().UnixMilli(),
		AspectRatio: aspect,
		Grounding:   out.Grounding,
	}, nil
}

func (c *Controller) inputImage(ctx context.Context, ref domain.ImageRef) (fashion.InputImage, error) {
	if ref.InlineData != "" {
		mimeType := ref.MIMEType
		if mimeType == "" {
			mimeType = "image/png"
		}
		return fashion.InputImage{MIMEType: mimeType, Data: imagehost.StripEncodingPrefix(ref.InlineData)}, nil
	}
	if ref.URL == "" {
		return fashion.InputImage{}, domain.Validationf("image %s has no payload", ref.ID)
	}
	return c.inputFromURL(ctx, ref.URL)
}

func (c *Controller) inputFromURL(ctx context.Context, url string) (fashion.InputImage, error) {
	if domain.IsInlineURL(url) {
		return fashion.InputImage{
			MIMEType: dataURIMimeType(url),
			Data:     imagehost.StripEncodingPrefix(url),
		}, nil
	}
	data, mimeType, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return fashion.InputImage{}, domain.Generationf("%v", err)
	}
	return fashion.InputImage{MIMEType: mimeType, Data: data}, nil
}

func dataURIMimeType(url string) string {
	rest := strings.TrimPrefix(url, "data:")
	if idx := strings.IndexAny(rest, ";,"); idx >= 0 {
		rest = rest[:idx]
	}
	if rest == "" {
		return "image/png"
	}
	return rest
}
