package pkgrouter

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
)

const maxLoggedBodyBytes = 64 * 1024

const masked = "***"

// keys whose values never reach the logs, in headers or JSON bodies. The
// remote.headers setting may carry an api key for the compression service.
//
//nolint:gochecknoglobals // read-only lookup table
var sensitiveKeys = map[string]struct{}{
	"authorization": {},
	"cookie":        {},
	"set-cookie":    {},
	"x-api-key":     {},
	"api_key":       {},
	"token":         {},
}

func isSensitive(key string) bool {
	_, ok := sensitiveKeys[strings.ToLower(key)]
	return ok
}

func maskHeaders(headers http.Header) http.Header {
	result := headers.Clone()
	for key := range result {
		if isSensitive(key) {
			result.Set(key, masked)
		}
	}
	return result
}

func maskData(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if isSensitive(k) {
				out[k] = masked
				continue
			}
			out[k] = maskData(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = maskData(inner)
		}
		return out
	default:
		return v
	}
}

// describeBody renders a captured body for the log line.
func describeBody(body []byte, truncated bool) any {
	if len(body) == 0 {
		return nil
	}

	var out any
	switch {
	case json.Valid(body):
		var decoded any
		_ = json.Unmarshal(body, &decoded)
		out = maskData(decoded)
	case !utf8.Valid(body):
		return "<binary body omitted>"
	default:
		out = string(body)
	}

	if truncated {
		return map[string]any{"body": out, "truncated": true}
	}
	return out
}

// requestBody peeks at most maxLoggedBodyBytes of the request and puts them
// back in front of the unread rest. Uploads are not read at all so a large
// file is streamed to the handler untouched.
func requestBody(r *http.Request) any {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	if strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/") {
		return fmt.Sprintf("<multipart upload, %d bytes>", r.ContentLength)
	}

	head, err := io.ReadAll(io.LimitReader(r.Body, maxLoggedBodyBytes+1))
	r.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(head), r.Body), Closer: r.Body}
	if err != nil {
		return "<unreadable body>"
	}

	if len(head) > maxLoggedBodyBytes {
		return describeBody(head[:maxLoggedBodyBytes], true)
	}
	return describeBody(head, false)
}

type readCloser struct {
	io.Reader
	io.Closer
}

// statusRecorder keeps the status, the byte count and the start of the body.
// Attachments (CSV downloads) are counted but not captured.
type statusRecorder struct {
	http.ResponseWriter
	status     int
	bytes      int
	body       bytes.Buffer
	capped     bool
	attachment string
}

func (w *statusRecorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
		if cd := w.Header().Get("Content-Disposition"); strings.HasPrefix(cd, "attachment") {
			w.attachment = cd
		}
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}

	if w.attachment == "" && !w.capped {
		room := maxLoggedBodyBytes - w.body.Len()
		if len(p) > room {
			w.body.Write(p[:room])
			w.capped = true
		} else {
			w.body.Write(p)
		}
	}

	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func (w *statusRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

//nolint:err113 // dynamic error
func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	return h.Hijack()
}

func (w *statusRecorder) loggedBody() any {
	if w.attachment != "" {
		return fmt.Sprintf("<%s, %d bytes>", w.attachment, w.bytes)
	}
	return describeBody(w.body.Bytes(), w.capped)
}

func matchedRoutePath(r *http.Request) string {
	if pattern := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); pattern != "" {
		return pattern
	}
	return r.URL.Path
}

func middlewareLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := matchedRoutePath(r)
		start := time.Now()

		slog.InfoContext(r.Context(), "request received",
			"method", r.Method,
			"route", route,
			"path", r.URL.Path,
			"query", r.URL.RawQuery,
			"params", routeParams(r.Context()),
			"headers", maskHeaders(r.Header),
			"body", requestBody(r),
		)

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}

		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}

		slog.Log(r.Context(), level, "response sent",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", rec.bytes,
			"latency_ms", time.Since(start).Milliseconds(),
			"body", rec.loggedBody(),
		)
	})
}
