package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 64 * 1024
)

// HTTPClient talks to the ShareLite server. JSON calls are bounded by the
// configured timeout; uploads and downloads only by the caller's context.
type HTTPClient struct {
	baseURL string
	hc      *http.Client
	timeout time.Duration
	log     zerolog.Logger
}

type Option func(*HTTPClient)

func WithHTTPClient(hc *http.Client) Option { return func(c *HTTPClient) { c.hc = hc } }

func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(l zerolog.Logger) Option { return func(c *HTTPClient) { c.log = l } }

func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{},
		timeout: defaultTimeout,
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *HTTPClient) BaseURL() string { return c.baseURL }

// NewSession asks the server for a fresh session code.
func (c *HTTPClient) NewSession(ctx context.Context) (*SessionInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodPost, "/api/session/new", nil, "")
	if err != nil {
		return nil, err
	}
	var out SessionInfo
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	if !out.OK || out.SessionID == "" {
		return nil, notOK(out.Error)
	}
	return &out, nil
}

// EndSession tells the server the session is finished. The response body
// is ignored; only transport and status failures are reported.
func (c *HTTPClient) EndSession(ctx context.Context, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodPost, "/api/session/end/"+url.PathEscape(sessionID), nil, "")
	if err != nil {
		return err
	}
	defer drain(resp)
	if resp.StatusCode/100 != 2 {
		return statusError(resp)
	}
	return nil
}

// ListFiles returns the files currently held in the session.
func (c *HTTPClient) ListFiles(ctx context.Context, sessionID string) ([]FileDescriptor, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodGet, "/api/files/"+url.PathEscape(sessionID), nil, "")
	if err != nil {
		return nil, err
	}
	var out listResponse
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	if !out.OK {
		return nil, notOK(out.Error)
	}
	if out.Files == nil {
		out.Files = []FileDescriptor{}
	}
	return out.Files, nil
}

// Upload streams files as one multipart request, repeating the "files"
// field. onProgress receives bytes of file content written and their total.
func (c *HTTPClient) Upload(ctx context.Context, sessionID string, files []UploadFile, onProgress func(sent, total int64)) ([]FileDescriptor, error) {
	if len(files) == 0 {
		return nil, errors.New("no files to upload")
	}
	var total int64
	for _, f := range files {
		total += f.Size
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	var sent int64

	go func() {
		pw.CloseWithError(writeParts(mw, files, func(n int64) {
			sent += n
			if onProgress != nil {
				onProgress(sent, total)
			}
		}))
	}()

	resp, err := c.do(ctx, http.MethodPost, "/api/upload/"+url.PathEscape(sessionID), pr, mw.FormDataContentType())
	// unblock the writer if the request died before reading the whole body
	pr.CloseWithError(io.ErrClosedPipe)
	if err != nil {
		return nil, err
	}
	var out uploadResponse
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	if !out.OK {
		return nil, notOK(out.Error)
	}
	return out.Uploaded, nil
}

func writeParts(mw *multipart.Writer, files []UploadFile, onChunk func(int64)) error {
	for _, f := range files {
		part, err := mw.CreateFormFile("files", f.Name)
		if err != nil {
			return err
		}
		src, err := os.Open(f.Path)
		if err != nil {
			return fmt.Errorf("open %s: %w", f.Name, err)
		}
		var last int64
		cw := &countingWriter{w: part, onWrite: func(n int64) {
			onChunk(n - last)
			last = n
		}}
		_, err = io.CopyBuffer(cw, src, make([]byte, 64*1024))
		src.Close()
		if err != nil {
			return fmt.Errorf("read %s: %w", f.Name, err)
		}
	}
	return mw.Close()
}

// Download is an open file stream. Size is -1 when the server sent no
// Content-Length. The caller must Close Body.
type Download struct {
	Body io.ReadCloser
	Size int64
}

// Download opens the byte stream of one file.
func (c *HTTPClient) Download(ctx context.Context, sessionID, fileID string) (*Download, error) {
	path := "/download/" + url.PathEscape(sessionID) + "/" + url.PathEscape(fileID)
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		defer drain(resp)
		return nil, statusError(resp)
	}
	return &Download{Body: resp.Body, Size: resp.ContentLength}, nil
}

// QRCode fetches a PNG encoding text. size is clamped to the server's
// accepted range.
func (c *HTTPClient) QRCode(ctx context.Context, text string, size int) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if size < 128 {
		size = 128
	}
	if size > 1024 {
		size = 1024
	}
	q := url.Values{"text": {text}, "size": {strconv.Itoa(size)}}
	resp, err := c.do(ctx, http.MethodGet, "/api/qr.png?"+q.Encode(), nil, "")
	if err != nil {
		return nil, err
	}
	defer drain(resp)
	if resp.StatusCode/100 != 2 {
		return nil, statusError(resp)
	}
	return io.ReadAll(resp.Body)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		c.log.Debug().Str("req_id", reqID).Str("method", method).Str("path", path).Err(err).Msg("request failed")
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	c.log.Debug().Str("req_id", reqID).Str("method", method).Str("path", path).
		Int("status", resp.StatusCode).Dur("duration", time.Since(start)).Msg("request")
	return resp, nil
}

func decodeJSON(resp *http.Response, v any) error {
	defer drain(resp)
	if resp.StatusCode/100 != 2 {
		return statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrNotOK, err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var er errorResponse
	msg := ""
	if json.Unmarshal(data, &er) == nil && er.Error != "" {
		msg = er.Error
	} else {
		msg = http.StatusText(resp.StatusCode)
	}
	return &StatusError{Code: resp.StatusCode, Message: msg}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
}
