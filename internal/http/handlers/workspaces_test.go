package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gbguki/modelcutAI/internal/domain"
	"github.com/gbguki/modelcutAI/internal/http/handlers"
	"github.com/gbguki/modelcutAI/internal/http/httpapi"
	"github.com/gbguki/modelcutAI/internal/identity"
	"github.com/gbguki/modelcutAI/internal/infra"
	"github.com/gbguki/modelcutAI/internal/providers/fashion"
	"github.com/gbguki/modelcutAI/internal/store"
	"github.com/gbguki/modelcutAI/internal/workspace"
)

type hostStub struct{}

func (hostStub) Upload(_ context.Context, name, _ string) (string, error) {
	return "https://img.example/" + name, nil
}

type gatewayStub struct {
	catalog []domain.Workspace
}

func (g *gatewayStub) Create(context.Context, *store.Document) (string, error) {
	return "store-1", nil
}
func (g *gatewayStub) List(context.Context) ([]domain.Workspace, error) { return g.catalog, nil }
func (g *gatewayStub) Update(context.Context, string, map[string]any) error {
	return nil
}
func (g *gatewayStub) Delete(context.Context, string) error { return nil }

type generatorStub struct{}

func (generatorStub) Generate(context.Context, fashion.Request) (*fashion.Result, error) {
	return &fashion.Result{ImageURL: "data:image/png;base64,T1VU"}, nil
}

type fetcherStub struct{}

func (fetcherStub) Fetch(context.Context, string) (string, string, error) {
	return "RkVUQ0hFRA==", "image/png", nil
}

func newTestServer(t *testing.T) (*httptest.Server, *gatewayStub) {
	t.Helper()
	gateway := &gatewayStub{}
	logger := zerolog.New(io.Discard)
	control := workspace.NewController(
		workspace.NewSerializer(workspace.NewExternalizer(hostStub{})),
		gateway, generatorStub{}, fetcherStub{}, "지민", logger,
	)
	profile, err := identity.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("identity store: %v", err)
	}
	cfg := &infra.Config{
		AllowedOrigins: []string{"http://localhost:5173"},
		DefaultLocale:  "ko",
	}
	app := handlers.NewApp(cfg, logger, control, profile)
	server := httptest.NewServer(httpapi.NewRouter(app, nil))
	t.Cleanup(server.Close)
	return server, gateway
}

func call(t *testing.T, method, url string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	decoded := map[string]any{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil && err != io.EOF {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, decoded
}

func TestHealth(t *testing.T) {
	server, _ := newTestServer(t)
	code, body := call(t, http.MethodGet, server.URL+"/v1/healthz", nil)
	if code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("health = %d %v", code, body)
	}
}

func TestStateLifecycle(t *testing.T) {
	server, _ := newTestServer(t)

	code, body := call(t, http.MethodGet, server.URL+"/v1/state", nil)
	if code != http.StatusOK {
		t.Fatalf("get state = %d %v", code, body)
	}
	state := body["state"].(map[string]any)
	ws := state["workspace"].(map[string]any)
	if ws["activeVersionIndex"].(float64) != -1 {
		t.Fatalf("fresh state index = %v, want -1", ws["activeVersionIndex"])
	}
	if state["dirty"].(bool) {
		t.Fatalf("fresh state must be clean")
	}

	code, body = call(t, http.MethodPut, server.URL+"/v1/state/base-image", map[string]any{
		"id": "base-1", "inlineData": "QkFTRQ==", "mimeType": "image/png",
	})
	if code != http.StatusOK {
		t.Fatalf("set base image = %d %v", code, body)
	}
	state = body["state"].(map[string]any)
	if !state["dirty"].(bool) {
		t.Fatalf("setting the base image must mark the workspace dirty")
	}
}

func TestGenerateValidationMapsTo422(t *testing.T) {
	server, _ := newTestServer(t)
	code, body := call(t, http.MethodPost, server.URL+"/v1/generate", map[string]any{
		"prompt": "look", "aspectRatio": "1:1",
	})
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("generate without images = %d %v", code, body)
	}
	if msg := body["error"].(string); !strings.Contains(msg, "base image") {
		t.Fatalf("error = %q", msg)
	}
}

func TestSaveWithoutContentMapsTo422(t *testing.T) {
	server, _ := newTestServer(t)
	code, body := call(t, http.MethodPost, server.URL+"/v1/workspaces", map[string]any{"name": "빈 작업"})
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("save = %d %v", code, body)
	}
	if body["error"] != "no content to save" {
		t.Fatalf("error = %v", body["error"])
	}
}

func TestDirtyNewProjectConfirmFlow(t *testing.T) {
	server, _ := newTestServer(t)

	code, _ := call(t, http.MethodPut, server.URL+"/v1/state/base-image", map[string]any{
		"id": "base-1", "inlineData": "QkFTRQ==",
	})
	if code != http.StatusOK {
		t.Fatalf("set base image = %d", code)
	}

	code, body := call(t, http.MethodPost, server.URL+"/v1/workspaces/new", nil)
	if code != http.StatusOK || body["confirmationRequired"] != true {
		t.Fatalf("new project on dirty state = %d %v", code, body)
	}

	code, body = call(t, http.MethodPost, server.URL+"/v1/confirm", map[string]any{"discard": true})
	if code != http.StatusOK {
		t.Fatalf("confirm = %d %v", code, body)
	}
	state := body["state"].(map[string]any)
	ws := state["workspace"].(map[string]any)
	if ws["baseImage"] != nil {
		t.Fatalf("discard should reset the base image, got %v", ws["baseImage"])
	}
	if state["dirty"].(bool) {
		t.Fatalf("discard should clear the dirty flag")
	}
}

func TestProfileRegistration(t *testing.T) {
	server, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/v1/profile", nil)
	req.Header.Set("X-Locale", "ko")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if body["registered"] != false || body["prompt"] == "" {
		t.Fatalf("unregistered profile = %v", body)
	}

	code, body := call(t, http.MethodPost, server.URL+"/v1/profile", map[string]any{"name": "지민"})
	if code != http.StatusOK || body["name"] != "지민" {
		t.Fatalf("register = %d %v", code, body)
	}
}
