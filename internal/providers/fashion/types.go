package fashion

import (
	"context"

	"github.com/gbguki/modelcutAI/internal/domain"
)

// InputImage is one source image handed to the generator: bare base64
// payload plus its mime type.
type InputImage struct {
	MIMEType string
	Data     string
}

// Request describes a single composition run: the model photo, the product
// shots to dress it with, the styling prompt and the output shape. When
// PreviousImage is set the run refines that version instead of starting from
// the base image.
type Request struct {
	BaseImage     InputImage
	ProductImages []InputImage
	PreviousImage *InputImage
	Prompt        string
	AspectRatio   domain.AspectRatio
}

// Result is the generator's output: the composed image as a data URI,
// optional commentary from the model, and web provenance when the model
// consulted external sources.
type Result struct {
	ImageURL  string
	Summary   string
	Grounding []domain.GroundingChunk
}

// Generator produces composed fashion images.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}
