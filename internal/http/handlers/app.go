package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gbguki/modelcutAI/internal/domain"
	"github.com/gbguki/modelcutAI/internal/identity"
	"github.com/gbguki/modelcutAI/internal/infra"
	"github.com/gbguki/modelcutAI/internal/workspace"
)

type App struct {
	Config  *infra.Config
	Logger  infra.Logger
	Control *workspace.Controller
	Profile *identity.Store
}

func NewApp(cfg *infra.Config, logger infra.Logger, control *workspace.Controller, profile *identity.Store) *App {
	return &App{Config: cfg, Logger: logger, Control: control, Profile: profile}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// error maps the failure taxonomy to HTTP codes. Messages surface verbatim;
// the UI shows them next to the control that triggered the action.
func (a *App) error(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, domain.ErrBusy):
		code = http.StatusConflict
	case errors.Is(err, domain.ErrUpload), errors.Is(err, domain.ErrStore), errors.Is(err, domain.ErrGeneration):
		code = http.StatusBadGateway
	}
	a.json(w, code, map[string]string{"error": err.Error()})
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		a.error(w, domain.Validationf("invalid request body: %v", err))
		return false
	}
	return true
}
