package domain

import "strings"

// MaxProductImages caps the number of product images attached to a workspace.
const MaxProductImages = 4

// inlineMarker prefixes data-URI payloads that still need externalization.
const inlineMarker = "data:"

// AspectRatio enumerates the output shapes supported by the editor.
type AspectRatio string

const (
	AspectSquare   AspectRatio = "1:1"
	AspectPortrait AspectRatio = "4:5"
	AspectMobile   AspectRatio = "9:16"
)

// Valid reports whether the aspect ratio is one of the supported presets.
func (a AspectRatio) Valid() bool {
	switch a {
	case AspectSquare, AspectPortrait, AspectMobile:
		return true
	}
	return false
}

// ImageRef points at a single image. At any moment exactly one of URL or
// InlineData is the authoritative payload: a hosted URL, a data-URI still
// awaiting externalization, or raw base64 in InlineData. SourceHandle is a
// transient reference to the local file picker and never leaves the process.
type ImageRef struct {
	ID           string `json:"id"`
	URL          string `json:"url,omitempty"`
	Name         string `json:"name,omitempty"`
	MIMEType     string `json:"mimeType,omitempty"`
	InlineData   string `json:"inlineData,omitempty"`
	SourceHandle string `json:"-"`
}

// Inline reports whether the reference still carries an inline payload that
// must be uploaded before the reference can be persisted.
func (r ImageRef) Inline() bool {
	return r.InlineData != "" || strings.HasPrefix(r.URL, inlineMarker)
}

// Hosted reports whether the reference already points at an external URL.
func (r ImageRef) Hosted() bool {
	return r.URL != "" && !strings.HasPrefix(r.URL, inlineMarker)
}

// IsInlineURL reports whether a raw URL string is a data-URI payload.
func IsInlineURL(url string) bool {
	return strings.HasPrefix(url, inlineMarker)
}

// GroundingWeb is a single web source attached to a generation result.
type GroundingWeb struct {
	URI   string `json:"uri,omitempty"`
	Title string `json:"title,omitempty"`
}

// GroundingChunk carries provenance metadata returned by the generator.
type GroundingChunk struct {
	Web *GroundingWeb `json:"web,omitempty"`
}

// GenerationResult is one immutable entry in a workspace's history.
type GenerationResult struct {
	ID          string           `json:"id"`
	ImageURL    string           `json:"imageUrl"`
	Summary     string           `json:"summary,omitempty"`
	Prompt      string           `json:"prompt"`
	Timestamp   int64            `json:"timestamp"`
	AspectRatio AspectRatio      `json:"aspectRatio"`
	Grounding   []GroundingChunk `json:"grounding,omitempty"`
}

// Workspace is a named, owned snapshot of the editor: base image, product
// images and the append-only generation history. Timestamps are epoch
// milliseconds; the store gateway normalizes them on every read.
type Workspace struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	Owner              string             `json:"owner"`
	BaseImage          *ImageRef          `json:"baseImage"`
	ProductImages      []ImageRef         `json:"productImages"`
	History            []GenerationResult `json:"history"`
	ActiveVersionIndex int                `json:"activeVersionIndex"`
	LastUpdated        int64              `json:"lastUpdated"`
	CreatedAt          int64              `json:"createdAt"`
}

// HasContent reports whether there is anything worth saving.
func (w *Workspace) HasContent() bool {
	return w.BaseImage != nil || len(w.History) > 0
}

// ValidIndex reports whether ActiveVersionIndex satisfies the history
// invariant: a valid index into History, or -1 iff History is empty.
func (w *Workspace) ValidIndex() bool {
	if len(w.History) == 0 {
		return w.ActiveVersionIndex == -1
	}
	return w.ActiveVersionIndex >= 0 && w.ActiveVersionIndex < len(w.History)
}

// Normalize repairs fields that may be missing or malformed in a record
// loaded from the store: nil slices become empty and an out-of-range
// version index collapses to the invariant-preserving default.
func (w *Workspace) Normalize() {
	if w.ProductImages == nil {
		w.ProductImages = []ImageRef{}
	}
	if w.History == nil {
		w.History = []GenerationResult{}
	}
	if !w.ValidIndex() {
		if len(w.History) == 0 {
			w.ActiveVersionIndex = -1
		} else {
			w.ActiveVersionIndex = len(w.History) - 1
		}
	}
}
