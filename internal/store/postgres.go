package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/gbguki/modelcutAI/internal/domain"
	"github.com/gbguki/modelcutAI/internal/infra"
	"github.com/gbguki/modelcutAI/internal/sqlinline"
)

// ProjectStorePG implements Gateway on top of a PostgreSQL "projects"
// collection: one JSONB document per workspace plus store-native timestamps.
type ProjectStorePG struct {
	sql    infra.SQLExecutor
	logger zerolog.Logger
	now    func() time.Time
}

// NewProjectStore constructs the gateway over the given SQL executor.
func NewProjectStore(sql infra.SQLExecutor, logger zerolog.Logger) *ProjectStorePG {
	return &ProjectStorePG{sql: sql, logger: logger, now: time.Now}
}

// EnsureSchema creates the projects table when it does not exist yet.
func (s *ProjectStorePG) EnsureSchema(ctx context.Context) error {
	if _, err := s.sql.Exec(ctx, sqlinline.QEnsureProjectsTable); err != nil {
		return domain.Storef("ensure projects table: %v", err)
	}
	return nil
}

// Create inserts a new document and returns the store-assigned identifier.
func (s *ProjectStorePG) Create(ctx context.Context, doc *Document) (string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", domain.Storef("encode project document: %v", err)
	}
	var id string
	if err := s.sql.QueryRow(ctx, sqlinline.QInsertProject, raw).Scan(&id); err != nil {
		return "", domain.Storef("create project: %v", err)
	}
	s.logger.Info().Str("project_id", id).Msg("store: project created")
	return id, nil
}

// List returns all stored workspaces ordered by last update, newest first.
// Missing or malformed timestamps normalize to the current time; a record
// whose document body cannot be decoded is skipped rather than failing the
// whole listing.
func (s *ProjectStorePG) List(ctx context.Context) ([]domain.Workspace, error) {
	rows, err := s.sql.Query(ctx, sqlinline.QListProjects)
	if err != nil {
		return nil, domain.Storef("list projects: %v", err)
	}
	defer rows.Close()

	var out []domain.Workspace
	for rows.Next() {
		var id string
		var raw []byte
		var lastUpdated, createdAt *time.Time
		if err := rows.Scan(&id, &raw, &lastUpdated, &createdAt); err != nil {
			return nil, domain.Storef("scan project: %v", err)
		}
		var ws domain.Workspace
		if err := json.Unmarshal(raw, &ws); err != nil {
			s.logger.Warn().Err(err).Str("project_id", id).Msg("store: skipping undecodable project document")
			continue
		}
		// The store identifier wins over whatever local id the document carries.
		ws.ID = id
		ws.LastUpdated = s.normalize(lastUpdated)
		ws.CreatedAt = s.normalize(createdAt)
		ws.Normalize()
		out = append(out, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Storef("list projects: %v", err)
	}
	return out, nil
}

// Update merges the given fields into the stored document and refreshes its
// last-updated instant. The creation instant is left untouched.
func (s *ProjectStorePG) Update(ctx context.Context, id string, fields map[string]any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return domain.Storef("encode project fields: %v", err)
	}
	tag, err := s.sql.Exec(ctx, sqlinline.QMergeProject, id, raw)
	if err != nil {
		return domain.Storef("update project %s: %v", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Storef("project %s not found", id)
	}
	s.logger.Info().Str("project_id", id).Msg("store: project updated")
	return nil
}

// Delete removes the document. Externally hosted images referenced by it are
// left in place; the host offers no delete API on its free tier.
func (s *ProjectStorePG) Delete(ctx context.Context, id string) error {
	if _, err := s.sql.Exec(ctx, sqlinline.QDeleteProject, id); err != nil {
		return domain.Storef("delete project %s: %v", id, err)
	}
	s.logger.Info().Str("project_id", id).Msg("store: project deleted")
	return nil
}

func (s *ProjectStorePG) normalize(t *time.Time) int64 {
	if t == nil || t.IsZero() {
		return s.now().UnixMilli()
	}
	return t.UnixMilli()
}

var _ Gateway = (*ProjectStorePG)(nil)
