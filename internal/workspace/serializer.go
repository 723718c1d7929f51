package workspace

import (
	"context"
	"fmt"

	"github.com/gbguki/modelcutAI/internal/domain"
	"github.com/gbguki/modelcutAI/internal/store"
)

// Phase labels one step of the save pipeline.
type Phase string

const (
	PhaseUploadingBase     Phase = "uploading_base"
	PhaseUploadingProducts Phase = "uploading_products"
	PhaseUploadingHistory  Phase = "uploading_history"
	PhasePersisting        Phase = "persisting"
	PhaseRefreshingCatalog Phase = "refreshing_catalog"
)

// Progress is one save-pipeline progress event. Index and Total are only
// meaningful during the history phase, counting items one-based.
type Progress struct {
	Phase Phase `json:"phase"`
	Index int   `json:"index,omitempty"`
	Total int   `json:"total,omitempty"`
}

// ProgressFunc consumes progress events. It is called synchronously between
// pipeline steps and must not block.
type ProgressFunc func(Progress)

// Serializer walks a workspace's image-bearing fields in a fixed order and
// externalizes every inline payload, producing a store-ready document.
// Uploads run strictly sequentially so progress stays monotonic and the host
// never sees concurrent load from one save. Any failure aborts the whole
// operation; images uploaded by earlier steps stay hosted, which is safe
// because re-serializing hosted URLs is a no-op.
type Serializer struct {
	ext *Externalizer
}

// NewSerializer builds a serializer over the given externalizer.
func NewSerializer(ext *Externalizer) *Serializer {
	return &Serializer{ext: ext}
}

// Serialize externalizes base image, product images and history in order and
// assembles the document. report may be nil.
func (s *Serializer) Serialize(ctx context.Context, ws domain.Workspace, report ProgressFunc) (*store.Document, error) {
	if report == nil {
		report = func(Progress) {}
	}

	doc := &store.Document{
		LocalID:            ws.ID,
		Name:               ws.Name,
		Owner:              ws.Owner,
		ProductImages:      []domain.ImageRef{},
		History:            []domain.GenerationResult{},
		ActiveVersionIndex: ws.ActiveVersionIndex,
	}

	// Phase events fire before each step regardless of how much work the
	// step turns out to have.
	report(Progress{Phase: PhaseUploadingBase})
	if ws.BaseImage != nil {
		base, err := s.ext.Externalize(ctx, *ws.BaseImage, "base")
		if err != nil {
			return nil, err
		}
		doc.BaseImage = &base
	}

	report(Progress{Phase: PhaseUploadingProducts})
	for i, product := range ws.ProductImages {
		ref, err := s.ext.Externalize(ctx, product, fmt.Sprintf("product_%d", i))
		if err != nil {
			return nil, err
		}
		doc.ProductImages = append(doc.ProductImages, ref)
	}

	total := len(ws.History)
	for i, result := range ws.History {
		report(Progress{Phase: PhaseUploadingHistory, Index: i + 1, Total: total})
		url, err := s.ext.ExternalizeURL(ctx, result.ImageURL, fmt.Sprintf("result_%d", i))
		if err != nil {
			return nil, err
		}
		result.ImageURL = url
		doc.History = append(doc.History, result)
	}

	return doc, nil
}
