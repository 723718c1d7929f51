package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
)

func TestStripEncodingPrefix(t *testing.T) {
	if got := StripEncodingPrefix("data:image/png;base64,AAAA"); got != "AAAA" {
		t.Fatalf("stripped = %q, want AAAA", got)
	}
	if got := StripEncodingPrefix("AAAA"); got != "AAAA" {
		t.Fatalf("bare payload = %q, want AAAA", got)
	}
}

func TestImgBBUploadSendsMultipartForm(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	client, err := NewImgBBClient(ImgBBOptions{
		APIKey:     "test-key",
		HTTPClient: &http.Client{Transport: transport},
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	transport.setJSONResponse("/1/upload", map[string]any{
		"success": true,
		"status":  200,
		"data":    map[string]any{"display_url": "https://i.ibb.co/abc/base.png"},
	})

	url, err := client.Upload(context.Background(), "base_1700000000000", "AAAA")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "https://i.ibb.co/abc/base.png" {
		t.Fatalf("url = %q, want display_url from response", url)
	}
	if transport.lastBody == nil {
		t.Fatalf("expected request body to be captured")
	}

	fields := parseMultipart(t, transport.lastContentType, transport.lastBody)
	if fields["key"] != "test-key" {
		t.Fatalf("key field = %q, want test-key", fields["key"])
	}
	if fields["image"] != "AAAA" {
		t.Fatalf("image field = %q, want AAAA", fields["image"])
	}
	if fields["name"] != "base_1700000000000" {
		t.Fatalf("name field = %q, want base_1700000000000", fields["name"])
	}
}

func TestImgBBUploadSurfacesAPIError(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	client, err := NewImgBBClient(ImgBBOptions{
		APIKey:     "test-key",
		HTTPClient: &http.Client{Transport: transport},
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	transport.setJSONResponse("/1/upload", map[string]any{
		"success": false,
		"status":  400,
		"error":   map[string]any{"message": "Invalid API key"},
	})

	_, err = client.Upload(context.Background(), "base", "AAAA")
	if err == nil {
		t.Fatalf("expected error from rejected upload")
	}
	if !strings.Contains(err.Error(), "Invalid API key") {
		t.Fatalf("error = %q, want the API message preserved", err)
	}
}

func TestImgBBUploadRequiresAPIKey(t *testing.T) {
	client, err := NewImgBBClient(ImgBBOptions{})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.HasCredentials() {
		t.Fatalf("client without key should not report credentials")
	}
	if _, err := client.Upload(context.Background(), "n", "AAAA"); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
}

func TestImgBBUploadRejectsHTTPFailure(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.responses["/1/upload"] = responseStub{
		status: http.StatusBadGateway,
		body:   []byte("upstream unavailable"),
	}
	client, err := NewImgBBClient(ImgBBOptions{
		APIKey:     "test-key",
		HTTPClient: &http.Client{Transport: transport},
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Upload(context.Background(), "n", "AAAA")
	if err == nil || !strings.Contains(err.Error(), "status 502") {
		t.Fatalf("err = %v, want status 502 mentioned", err)
	}
}

func parseMultipart(t *testing.T, contentType string, body []byte) map[string]string {
	t.Helper()
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		t.Fatalf("parse content type: %v", err)
	}
	reader := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	fields := map[string]string{}
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read part: %v", err)
		}
		value, err := io.ReadAll(part)
		if err != nil {
			t.Fatalf("read part body: %v", err)
		}
		fields[part.FormName()] = string(value)
	}
	return fields
}

type captureTransport struct {
	responses       map[string]responseStub
	lastBody        []byte
	lastContentType string
}

type responseStub struct {
	status int
	header http.Header
	body   []byte
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		c.lastBody = body
		c.lastContentType = req.Header.Get("Content-Type")
	}
	if stub, ok := c.responses[req.URL.Path]; ok {
		return stub.toResponse(), nil
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(strings.NewReader("not found")),
	}, nil
}

func (c *captureTransport) setJSONResponse(path string, payload any) {
	body, _ := json.Marshal(payload)
	c.responses[path] = responseStub{
		status: http.StatusOK,
		header: http.Header{"Content-Type": []string{"application/json"}},
		body:   body,
	}
}

func (s responseStub) toResponse() *http.Response {
	header := http.Header{}
	for k, values := range s.header {
		cloned := make([]string, len(values))
		copy(cloned, values)
		header[k] = cloned
	}
	return &http.Response{
		StatusCode: s.status,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(s.body)),
	}
}
