package imagehost

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/gbguki/modelcutAI/internal/infra"
)

// MinIOOptions configures the self-hosted object storage backend.
type MinIOOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL overrides the base URL used for hosted links, for setups where
	// the bucket sits behind a CDN or reverse proxy. Empty means the endpoint
	// itself is reachable by clients.
	PublicURL string
	Logger    *infra.Logger
}

// MinIOHost stores image payloads as objects in a MinIO bucket and hands out
// direct links to them. The bucket must allow anonymous reads.
type MinIOHost struct {
	client    *minio.Client
	bucket    string
	publicURL string
	logger    *infra.Logger
}

// NewMinIOHost connects to the object store described by opts.
func NewMinIOHost(opts MinIOOptions) (*MinIOHost, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("minio: endpoint is required")
	}
	if opts.Bucket == "" {
		return nil, fmt.Errorf("minio: bucket is required")
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: connect %s: %w", opts.Endpoint, err)
	}

	publicURL := strings.TrimRight(opts.PublicURL, "/")
	if publicURL == "" {
		scheme := "http"
		if opts.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s", scheme, opts.Endpoint)
	}

	return &MinIOHost{
		client:    client,
		bucket:    opts.Bucket,
		publicURL: publicURL,
		logger:    opts.Logger,
	}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (h *MinIOHost) EnsureBucket(ctx context.Context) error {
	exists, err := h.client.BucketExists(ctx, h.bucket)
	if err != nil {
		return fmt.Errorf("minio: check bucket %s: %w", h.bucket, err)
	}
	if exists {
		return nil
	}
	if err := h.client.MakeBucket(ctx, h.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("minio: create bucket %s: %w", h.bucket, err)
	}
	if h.logger != nil {
		h.logger.Info().Str("bucket", h.bucket).Msg("minio: bucket created")
	}
	return nil
}

// Upload decodes the base64 payload, stores it under the given name and
// returns the public link to the object.
func (h *MinIOHost) Upload(ctx context.Context, name, payload string) (string, error) {
	if strings.TrimSpace(payload) == "" {
		return "", fmt.Errorf("minio: empty payload")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("minio: decode payload: %w", err)
	}

	contentType := http.DetectContentType(data)
	object := objectName(name, contentType)

	_, err = h.client.PutObject(ctx, h.bucket, object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("minio: put object %s: %w", object, err)
	}

	url := fmt.Sprintf("%s/%s/%s", h.publicURL, h.bucket, object)
	if h.logger != nil {
		h.logger.Debug().Str("object", object).Str("url", url).Msg("minio: uploaded image")
	}
	return url, nil
}

func objectName(name, contentType string) string {
	if name == "" {
		name = "image"
	}
	switch contentType {
	case "image/png":
		return name + ".png"
	case "image/jpeg":
		return name + ".jpg"
	case "image/webp":
		return name + ".webp"
	case "image/gif":
		return name + ".gif"
	}
	return name
}

var _ Host = (*MinIOHost)(nil)
