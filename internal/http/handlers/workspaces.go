package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gbguki/modelcutAI/internal/domain"
	"github.com/gbguki/modelcutAI/internal/workspace"
)

type actionResponse struct {
	State                workspace.State `json:"state"`
	ConfirmationRequired bool            `json:"confirmationRequired,omitempty"`
}

// ListWorkspaces re-lists the store and returns the fresh catalog, newest
// first.
func (a *App) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	state, err := a.Control.RefreshCatalog(r.Context())
	if err != nil {
		a.error(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"workspaces": state.Catalog})
}

// SaveWorkspace serializes the editor content and creates a new store
// record.
func (a *App) SaveWorkspace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	state, err := a.Control.SaveNew(r.Context(), req.Name)
	if err != nil {
		a.error(w, err)
		return
	}
	a.json(w, http.StatusCreated, actionResponse{State: state})
}

// LoadWorkspace replaces the editor content with a stored record. With
// unsaved changes present the load is deferred until confirmed.
func (a *App) LoadWorkspace(w http.ResponseWriter, r *http.Request) {
	state, deferred, err := a.Control.LoadWorkspace(chi.URLParam(r, "id"))
	if err != nil {
		a.error(w, err)
		return
	}
	a.json(w, http.StatusOK, actionResponse{State: state, ConfirmationRequired: deferred})
}

// UpdateWorkspace re-serializes the loaded workspace over its store record.
// The path id must be the loaded one.
func (a *App) UpdateWorkspace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if current := a.Control.Snapshot().CurrentWorkspaceID; current != id {
		a.error(w, domain.Validationf("workspace %s is not the loaded workspace", id))
		return
	}
	state, err := a.Control.UpdateCurrent(r.Context())
	if err != nil {
		a.error(w, err)
		return
	}
	a.json(w, http.StatusOK, actionResponse{State: state})
}

// DeleteWorkspace removes a store record; the editor content survives when
// it was the loaded one.
func (a *App) DeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	state, err := a.Control.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.error(w, err)
		return
	}
	a.json(w, http.StatusOK, actionResponse{State: state})
}

// NewProject resets the editor; deferred when unsaved changes are present.
func (a *App) NewProject(w http.ResponseWriter, r *http.Request) {
	state, deferred := a.Control.NewProject()
	a.json(w, http.StatusOK, actionResponse{State: state, ConfirmationRequired: deferred})
}

// Confirm resolves the pending action: discard=true executes it, false
// cancels it.
func (a *App) Confirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Discard bool `json:"discard"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	state, err := a.Control.Confirm(req.Discard)
	if err != nil {
		a.error(w, err)
		return
	}
	a.json(w, http.StatusOK, actionResponse{State: state})
}
