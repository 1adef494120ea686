// Package remote talks to the compression service over HTTP.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shandysiswandi/compressdash/internal/compression/entity"
	"github.com/shandysiswandi/compressdash/internal/pkg/pkgerror"
	"github.com/shandysiswandi/compressdash/internal/pkg/pkglog"
)

const (
	defaultTimeout = 5 * time.Minute
	maxErrorBody   = 64 * 1024
)

// ProgressFunc receives transfer progress. Implementations must be cheap: it
// is called from the goroutine that feeds the request body.
type ProgressFunc func(sent, total int64)

type Config struct {
	BaseURL string
	Timeout time.Duration
	// Headers are sent with every request.
	Headers map[string]string
	// MaxUploadBytes rejects larger files locally; 0 disables the check.
	MaxUploadBytes int64
	HTTPClient     *http.Client
}

// Client is the HTTP client of the compression service.
type Client struct {
	baseURL        *url.URL
	headers        map[string]string
	maxUploadBytes int64
	hc             *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		k = strings.TrimSpace(k)
		if k != "" {
			headers[k] = strings.TrimSpace(v)
		}
	}

	return &Client{
		baseURL:        base,
		headers:        headers,
		maxUploadBytes: cfg.MaxUploadBytes,
		hc:             hc,
	}, nil
}

// Compress uploads file as the multipart field "file" and waits for the result.
// progress may be nil.
func (c *Client) Compress(ctx context.Context, file entity.File, progress ProgressFunc) (entity.CompressResult, error) {
	if file.Open == nil {
		return entity.CompressResult{}, pkgerror.NewInvalidInput(errors.New("file is not readable"))
	}
	if c.maxUploadBytes > 0 && file.Size > c.maxUploadBytes {
		return entity.CompressResult{}, pkgerror.NewInvalidInput(fmt.Errorf("file exceeds %d bytes", c.maxUploadBytes))
	}

	src, err := file.Open()
	if err != nil {
		return entity.CompressResult{}, pkgerror.NewInvalidInput(fmt.Errorf("open file: %w", err))
	}

	pr, pw := io.Pipe()
	defer pr.Close()
	mw := multipart.NewWriter(pw)

	go func() {
		defer src.Close()

		part, err := mw.CreateFormFile("file", file.Name)
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}

		body := &countingReader{r: src, total: file.Size, progress: progress}
		if _, err := io.Copy(part, body); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		body.finish()

		if err := mw.Close(); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.Close()
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "/compress", pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		return entity.CompressResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out compressResponse
	if err := c.doJSON(req, &out); err != nil {
		_ = pr.CloseWithError(err)
		return entity.CompressResult{}, err
	}

	rec, err := out.toRecord()
	if err != nil {
		return entity.CompressResult{}, pkgerror.NewServer(fmt.Errorf("decode compress response: %w", err))
	}

	return entity.CompressResult{Record: rec, Message: out.Message}, nil
}

// ListFiles fetches every record known to the service. Malformed entries are
// skipped and logged rather than failing the whole listing.
func (c *Client) ListFiles(ctx context.Context) ([]entity.CompressionRecord, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/list-files", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	var out listResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}

	records := make([]entity.CompressionRecord, 0, len(out.Files))
	for i, w := range out.Files {
		rec, err := w.toRecord()
		if err != nil {
			slog.WarnContext(ctx, "skip malformed record", "index", i, "error", err)
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// Decompress downloads the decompressed payload of record id.
func (c *Client) Decompress(ctx context.Context, id string) ([]byte, string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/decompress/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, "", pkgerror.NewTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, "", errorFromResponse(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", pkgerror.NewTransport(err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/csv"
	}

	return data, contentType, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	u := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, pkgerror.NewServer(err)
	}

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if cid, ok := pkglog.CorrelationID(ctx); ok {
		req.Header.Set("X-Correlation-ID", cid)
	}

	return req, nil
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.hc.Do(req)
	if err != nil {
		return pkgerror.NewTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return errorFromResponse(resp)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return pkgerror.NewServer(fmt.Errorf("decode %s response: %w", req.URL.Path, err))
	}

	return nil
}

// errorFromResponse surfaces the service's {"error": "..."} payload verbatim.
// Without one the caller falls back to its generic message.
func errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload errorResponse
	if err := json.Unmarshal(body, &payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		return pkgerror.NewService(strings.TrimSpace(payload.Error))
	}

	return pkgerror.NewService("")
}

type countingReader struct {
	r        io.Reader
	sent     int64
	total    int64
	progress ProgressFunc
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.sent += int64(n)
		if cr.progress != nil && cr.sent < cr.total {
			cr.progress(cr.sent, cr.total)
		}
	}
	return n, err
}

// finish reports the final notification once the whole file went out.
func (cr *countingReader) finish() {
	if cr.progress == nil {
		return
	}
	total := cr.total
	if total < cr.sent {
		total = cr.sent
	}
	cr.progress(cr.sent, total)
}
