package pkgrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shandysiswandi/compressdash/internal/pkg/pkgerror"
)

type staticID string

func (s staticID) Generate() string { return string(s) }

type csvAttachment struct{}

func (csvAttachment) Render(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/csv")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("a,b\n"))
}

func TestRouterRendererBypassesEnvelope(t *testing.T) {
	r := NewRouter(staticID("cid-1"))
	r.GET("/file", func(ctx context.Context, _ *http.Request) (any, error) {
		return csvAttachment{}, nil
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/file", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/csv" {
		t.Fatalf("expected text/csv, got %q", got)
	}
	if rec.Body.String() != "a,b\n" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestRouterUpstreamErrorWithoutMessage(t *testing.T) {
	r := NewRouter(staticID("cid-1"))
	r.GET("/fail", func(ctx context.Context, _ *http.Request) (any, error) {
		return nil, pkgerror.NewService("")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["message"] != http.StatusText(http.StatusBadGateway) {
		t.Fatalf("unexpected message %v", body["message"])
	}
}
