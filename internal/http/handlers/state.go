package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gbguki/modelcutAI/internal/domain"
	"github.com/gbguki/modelcutAI/internal/i18n"
	"github.com/gbguki/modelcutAI/internal/middleware"
	"github.com/gbguki/modelcutAI/internal/workspace"
)

type stateResponse struct {
	State           workspace.State `json:"state"`
	ProgressMessage string          `json:"progressMessage,omitempty"`
}

func (a *App) stateResponse(r *http.Request, state workspace.State) stateResponse {
	resp := stateResponse{State: state}
	if state.LastProgress != nil {
		locale := middleware.LocaleFromContext(r.Context())
		p := state.LastProgress
		resp.ProgressMessage = i18n.PhaseMessage(locale, string(p.Phase), p.Index, p.Total)
	}
	return resp
}

// GetState returns the full controller snapshot, including the dirty and
// in-flight flags and the last save-pipeline progress event.
func (a *App) GetState(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.stateResponse(r, a.Control.Snapshot()))
}

// SetBaseImage replaces the base image from the request body.
func (a *App) SetBaseImage(w http.ResponseWriter, r *http.Request) {
	var ref domain.ImageRef
	if !a.decode(w, r, &ref) {
		return
	}
	state, err := a.Control.SetBaseImage(ref)
	if err != nil {
		a.error(w, err)
		return
	}
	a.json(w, http.StatusOK, a.stateResponse(r, state))
}

// ClearBaseImage removes the base image.
func (a *App) ClearBaseImage(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.stateResponse(r, a.Control.ClearBaseImage()))
}

// AddProductImage appends a product image.
func (a *App) AddProductImage(w http.ResponseWriter, r *http.Request) {
	var ref domain.ImageRef
	if !a.decode(w, r, &ref) {
		return
	}
	state, err := a.Control.AddProductImage(ref)
	if err != nil {
		a.error(w, err)
		return
	}
	a.json(w, http.StatusOK, a.stateResponse(r, state))
}

// RemoveProductImage drops the product image at the path index.
func (a *App) RemoveProductImage(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		a.error(w, domain.Validationf("invalid product image index"))
		return
	}
	state, err := a.Control.RemoveProductImage(index)
	if err != nil {
		a.error(w, err)
		return
	}
	a.json(w, http.StatusOK, a.stateResponse(r, state))
}

// SelectVersion moves the active version pointer.
func (a *App) SelectVersion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index int `json:"index"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	state, err := a.Control.SelectVersion(req.Index)
	if err != nil {
		a.error(w, err)
		return
	}
	a.json(w, http.StatusOK, a.stateResponse(r, state))
}
