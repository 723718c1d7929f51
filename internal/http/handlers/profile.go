package handlers

import (
	"net/http"

	"github.com/gbguki/modelcutAI/internal/i18n"
	"github.com/gbguki/modelcutAI/internal/middleware"
)

type profileResponse struct {
	Name       string `json:"name,omitempty"`
	Registered bool   `json:"registered"`
	Prompt     string `json:"prompt,omitempty"`
}

// GetProfile reports the registered display name. While unregistered the
// response carries the localized registration prompt for the UI to show.
func (a *App) GetProfile(w http.ResponseWriter, r *http.Request) {
	resp := profileResponse{
		Name:       a.Profile.UserName(),
		Registered: a.Profile.Registered(),
	}
	if !resp.Registered {
		resp.Prompt = i18n.T(middleware.LocaleFromContext(r.Context()), "register.prompt")
	}
	a.json(w, http.StatusOK, resp)
}

// RegisterProfile stores the display name and makes it the owner for
// subsequent saves.
func (a *App) RegisterProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	profile, err := a.Profile.Register(req.Name)
	if err != nil {
		a.error(w, err)
		return
	}
	a.Control.SetOwner(profile.Name)
	a.json(w, http.StatusOK, profileResponse{Name: profile.Name, Registered: true})
}
