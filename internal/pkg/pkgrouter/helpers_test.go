package pkgrouter

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

func TestMaskHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Set("Authorization", "secret")
	headers.Set("X-Api-Key", "k")
	headers.Set("Ngrok-Skip-Browser-Warning", "69420")

	got := maskHeaders(headers)
	if got.Get("Authorization") != masked || got.Get("X-Api-Key") != masked {
		t.Fatalf("expected credentials masked, got %v", got)
	}
	if got.Get("Ngrok-Skip-Browser-Warning") != "69420" {
		t.Fatalf("expected plain header kept, got %q", got.Get("Ngrok-Skip-Browser-Warning"))
	}
	if headers.Get("Authorization") != "secret" {
		t.Fatalf("expected original headers unchanged")
	}
}

func TestMaskDataNested(t *testing.T) {
	input := map[string]any{
		"token":    "t",
		"filename": "a.csv",
		"items":    []any{map[string]any{"api_key": "k", "id": "1"}},
	}

	want := map[string]any{
		"token":    masked,
		"filename": "a.csv",
		"items":    []any{map[string]any{"api_key": masked, "id": "1"}},
	}
	if got := maskData(input); !reflect.DeepEqual(got, want) {
		t.Fatalf("maskData = %#v", got)
	}
}

func TestDescribeBody(t *testing.T) {
	tests := []struct {
		name      string
		body      []byte
		truncated bool
		want      any
	}{
		{"empty", nil, false, nil},
		{"json masked", []byte(`{"token":"x","q":"csv"}`), false, map[string]any{"token": masked, "q": "csv"}},
		{"text", []byte("hello"), false, "hello"},
		{"binary", []byte{0xff, 0xfe}, false, "<binary body omitted>"},
		{"truncated", []byte("hel"), true, map[string]any{"body": "hel", "truncated": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describeBody(tt.body, tt.truncated); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("describeBody = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestRequestBodyLeavesBodyReadable(t *testing.T) {
	payload := strings.Repeat("a", maxLoggedBodyBytes+10)
	req := httptest.NewRequest(http.MethodPost, "/refresh", strings.NewReader(payload))

	logged, ok := requestBody(req).(map[string]any)
	if !ok || logged["truncated"] != true {
		t.Fatalf("expected truncated description, got %#v", logged)
	}

	rest, err := io.ReadAll(req.Body)
	if err != nil || string(rest) != payload {
		t.Fatalf("body not restored: %d bytes, err %v", len(rest), err)
	}
}

func TestRequestBodySkipsMultipart(t *testing.T) {
	body := "--xyz\r\nContent-Disposition: form-data; name=\"file\"\r\n\r\na,b\r\n--xyz--\r\n"
	req := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(body))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")

	if got := requestBody(req); !strings.HasPrefix(got.(string), "<multipart upload") {
		t.Fatalf("requestBody = %v", got)
	}

	rest, _ := io.ReadAll(req.Body)
	if string(rest) != body {
		t.Fatalf("multipart body was consumed")
	}
}

func TestStatusRecorderSkipsAttachments(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	rec.Header().Set("Content-Disposition", `attachment; filename="decompressed_a.csv"`)
	_, _ = rec.Write([]byte("a,b\n1,2\n"))

	if rec.status != http.StatusOK || rec.body.Len() != 0 {
		t.Fatalf("status %d, captured %d bytes", rec.status, rec.body.Len())
	}
	if got := rec.loggedBody().(string); !strings.Contains(got, "8 bytes") {
		t.Fatalf("loggedBody = %q", got)
	}
}

func TestStatusRecorderCapsCapture(t *testing.T) {
	inner := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: inner}
	_, _ = rec.Write(bytes.Repeat([]byte("x"), maxLoggedBodyBytes+5))

	if !rec.capped || rec.body.Len() != maxLoggedBodyBytes {
		t.Fatalf("capped=%v len=%d", rec.capped, rec.body.Len())
	}
	if inner.Body.Len() != maxLoggedBodyBytes+5 {
		t.Fatalf("client received %d bytes", inner.Body.Len())
	}
}
