package workspace

import (
	"context"
	"fmt"
	"time"

	"github.com/gbguki/modelcutAI/internal/domain"
	"github.com/gbguki/modelcutAI/internal/imagehost"
)

// Externalizer turns inline image payloads into durably hosted URLs. It
// operates on copies; callers' in-memory state is never touched on failure.
type Externalizer struct {
	host imagehost.Host
	now  func() time.Time
}

// NewExternalizer wires the externalizer to the configured image host.
func NewExternalizer(host imagehost.Host) *Externalizer {
	return &Externalizer{host: host, now: time.Now}
}

// Externalize returns a store-ready copy of ref: already-hosted references
// pass through with only the transient local handle stripped; inline payloads
// are uploaded under "<prefix>_<millis>" and replaced by the hosted URL.
// Inline data takes priority over a data-URI url when both are present. A
// reference carrying neither payload is a caller bug and fails validation.
func (e *Externalizer) Externalize(ctx context.Context, ref domain.ImageRef, prefix string) (domain.ImageRef, error) {
	out := ref
	out.SourceHandle = ""

	if !ref.Inline() {
		if !ref.Hosted() {
			return domain.ImageRef{}, domain.Validationf("image %s has no payload to externalize", ref.ID)
		}
		return out, nil
	}

	payload := ref.InlineData
	if payload == "" {
		payload = ref.URL
	}
	url, err := e.upload(ctx, payload, prefix)
	if err != nil {
		return domain.ImageRef{}, err
	}
	out.URL = url
	out.InlineData = ""
	return out, nil
}

// ExternalizeURL uploads a bare data-URI string and returns its hosted URL.
// Non-inline URLs pass through unchanged, so re-serializing already persisted
// history entries performs no second upload.
func (e *Externalizer) ExternalizeURL(ctx context.Context, url, prefix string) (string, error) {
	if !domain.IsInlineURL(url) {
		return url, nil
	}
	return e.upload(ctx, url, prefix)
}

func (e *Externalizer) upload(ctx context.Context, payload, prefix string) (string, error) {
	name := fmt.Sprintf("%s_%d", prefix, e.now().UnixMilli())
	url, err := e.host.Upload(ctx, name, imagehost.StripEncodingPrefix(payload))
	if err != nil {
		return "", domain.Uploadf("%v", err)
	}
	return url, nil
}
