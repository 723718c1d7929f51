package store

import (
	"context"
	"encoding/json"

	"github.com/gbguki/modelcutAI/internal/domain"
)

// Document is the store-ready form of a workspace: every image field is a
// hosted URL, inline payloads and local handles are gone. Timestamps are
// owned by the store and never part of the document body.
type Document struct {
	LocalID            string                    `json:"id"`
	Name               string                    `json:"name"`
	Owner              string                    `json:"owner"`
	BaseImage          *domain.ImageRef          `json:"baseImage"`
	ProductImages      []domain.ImageRef         `json:"productImages"`
	History            []domain.GenerationResult `json:"history"`
	ActiveVersionIndex int                       `json:"activeVersionIndex"`
}

// Fields flattens the document into the partial-update shape accepted by
// Gateway.Update.
func (d *Document) Fields() (map[string]any, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// Gateway is the remote document store for workspace snapshots. Create
// assigns a store identifier distinct from the workspace's local one; List
// returns workspaces ordered by last update, newest first, with timestamps
// normalized to epoch milliseconds; Update merges the given fields into the
// existing record and refreshes its last-updated instant. Callers must not
// assume partial application when any operation fails.
type Gateway interface {
	Create(ctx context.Context, doc *Document) (string, error)
	List(ctx context.Context) ([]domain.Workspace, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}
