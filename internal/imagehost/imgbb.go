package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gbguki/modelcutAI/internal/infra"
)

// ErrMissingAPIKey indicates that the ImgBB client was configured without credentials.
var ErrMissingAPIKey = errors.New("imgbb: api key is required")

// ImgBBOptions configures the ImgBB upload client.
type ImgBBOptions struct {
	APIKey         string
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// ImgBBClient uploads base64 image payloads to the ImgBB hosting API.
type ImgBBClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

type imgbbResponse struct {
	Success bool `json:"success"`
	Data    struct {
		DisplayURL string `json:"display_url"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
	Status int `json:"status"`
}

// NewImgBBClient constructs a client with sane defaults and injected dependencies.
func NewImgBBClient(opts ImgBBOptions) (*ImgBBClient, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.imgbb.com"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &ImgBBClient{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// HasCredentials reports whether the client can perform remote calls.
func (c *ImgBBClient) HasCredentials() bool {
	return c.apiKey != ""
}

// Upload submits the encoded payload as a multipart form and returns the
// hosted display URL.
func (c *ImgBBClient) Upload(ctx context.Context, name, payload string) (string, error) {
	if !c.HasCredentials() {
		return "", ErrMissingAPIKey
	}
	if strings.TrimSpace(payload) == "" {
		return "", errors.New("imgbb: empty payload")
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("key", c.apiKey); err != nil {
		return "", fmt.Errorf("imgbb: build form: %w", err)
	}
	if err := form.WriteField("image", payload); err != nil {
		return "", fmt.Errorf("imgbb: build form: %w", err)
	}
	if name != "" {
		if err := form.WriteField("name", name); err != nil {
			return "", fmt.Errorf("imgbb: build form: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("imgbb: build form: %w", err)
	}

	endpoint := c.baseURL + "/1/upload"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("imgbb: build request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("imgbb: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("imgbb: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("imgbb: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded imgbbResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("imgbb: decode response: %w", err)
	}
	if !decoded.Success {
		if decoded.Error != nil && decoded.Error.Message != "" {
			return "", fmt.Errorf("imgbb: %s", decoded.Error.Message)
		}
		return "", errors.New("imgbb: upload rejected")
	}
	if decoded.Data.DisplayURL == "" {
		return "", errors.New("imgbb: empty display url")
	}

	c.logger.Debug().
		Str("name", name).
		Str("url", decoded.Data.DisplayURL).
		Msg("imgbb: uploaded image")
	return decoded.Data.DisplayURL, nil
}

var _ Host = (*ImgBBClient)(nil)
