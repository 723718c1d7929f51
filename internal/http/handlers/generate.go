package handlers

import (
	"net/http"

	"github.com/gbguki/modelcutAI/internal/domain"
	"github.com/gbguki/modelcutAI/internal/workspace"
)

type generateResponse struct {
	State  workspace.State          `json:"state"`
	Result *domain.GenerationResult `json:"result"`
}

// Generate runs one composition request. On success the new result is
// appended to history and returned so the UI can advance to it and clear the
// prompt box.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt      string             `json:"prompt"`
		AspectRatio domain.AspectRatio `json:"aspectRatio"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	state, result, err := a.Control.Generate(r.Context(), req.Prompt, req.AspectRatio)
	if err != nil {
		a.error(w, err)
		return
	}
	a.json(w, http.StatusOK, generateResponse{State: state, Result: result})
}
