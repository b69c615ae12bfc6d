package network

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, h http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL + "/")
}

func TestNewSession_OK(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/session/new", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		writeJSON(w, 200, map[string]any{"ok": true, "session_id": "AB12CD", "ips": []string{"127.0.0.1"}})
	})

	info, err := c.NewSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AB12CD", info.SessionID)
	assert.Equal(t, []string{"127.0.0.1"}, info.IPs)
}

func TestNewSession_NotOK(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"ok": false, "error": "busy"})
	})

	_, err := c.NewSession(context.Background())
	require.ErrorIs(t, err, ErrNotOK)
	assert.Contains(t, err.Error(), "busy")
}

func TestNewSession_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPClient(url).NewSession(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestListFiles(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/files/AB12CD", r.URL.Path)
		writeJSON(w, 200, map[string]any{"ok": true, "files": []map[string]any{{"id": "f1", "name": "a.txt", "size": 10}}})
	})

	files, err := c.ListFiles(context.Background(), "AB12CD")
	require.NoError(t, err)
	assert.Equal(t, []FileDescriptor{{ID: "f1", Name: "a.txt", Size: 10}}, files)
}

func TestListFiles_StatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 404, map[string]any{"ok": false, "error": "Not found"})
	})

	_, err := c.ListFiles(context.Background(), "ZZZZZZ")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 404, se.Code)
	assert.Equal(t, "Not found", se.Message)
}

func TestListFiles_EmptyIsNotNil(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"ok": true})
	})
	files, err := c.ListFiles(context.Background(), "AB12CD")
	require.NoError(t, err)
	assert.NotNil(t, files)
	assert.Empty(t, files)
}

func TestEndSession(t *testing.T) {
	var gotPath, gotMethod string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.EndSession(context.Background(), "AB12CD"))
	assert.Equal(t, "/api/session/end/AB12CD", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)
}

func writeTemp(t *testing.T, name, content string) UploadFile {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return UploadFile{Name: name, Path: p, Size: int64(len(content))}
}

func TestUpload_MultipartAndProgress(t *testing.T) {
	received := map[string]string{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/upload/AB12CD", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		var out []map[string]any
		for _, fh := range r.MultipartForm.File["files"] {
			f, err := fh.Open()
			require.NoError(t, err)
			b, _ := io.ReadAll(f)
			f.Close()
			received[fh.Filename] = string(b)
			out = append(out, map[string]any{"id": "id-" + fh.Filename, "name": fh.Filename, "size": len(b)})
		}
		writeJSON(w, 200, map[string]any{"ok": true, "uploaded": out})
	})

	a := writeTemp(t, "a.txt", "hello")
	b := writeTemp(t, "b.bin", strings.Repeat("x", 200*1024))

	var mu sync.Mutex
	var sents []int64
	var lastTotal int64
	uploaded, err := c.Upload(context.Background(), "AB12CD", []UploadFile{a, b}, func(sent, total int64) {
		mu.Lock()
		sents = append(sents, sent)
		lastTotal = total
		mu.Unlock()
	})
	require.NoError(t, err)
	require.Len(t, uploaded, 2)
	assert.Equal(t, "hello", received["a.txt"])
	assert.Len(t, received["b.bin"], 200*1024)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, a.Size+b.Size, lastTotal)
	require.NotEmpty(t, sents)
	assert.Equal(t, a.Size+b.Size, sents[len(sents)-1])
	for i := 1; i < len(sents); i++ {
		assert.GreaterOrEqual(t, sents[i], sents[i-1])
	}
}

func TestUpload_ServerRejects(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		writeJSON(w, 413, map[string]any{"ok": false, "error": "File too large. Max 10 bytes."})
	})

	_, err := c.Upload(context.Background(), "AB12CD", []UploadFile{writeTemp(t, "a.txt", "0123456789abc")}, nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 413, se.Code)
	assert.Equal(t, "http 413: File too large. Max 10 bytes.", err.Error())
}

func TestUpload_MissingLocalFile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, err := io.Copy(io.Discard, r.Body)
		if err != nil {
			return
		}
		writeJSON(w, 400, map[string]any{"ok": false, "error": "No files part in request"})
	})

	_, err := c.Upload(context.Background(), "AB12CD", []UploadFile{{Name: "gone.txt", Path: "/nonexistent/gone.txt", Size: 3}}, nil)
	require.Error(t, err)
}

func TestUpload_NoFiles(t *testing.T) {
	c := NewHTTPClient("http://127.0.0.1:1")
	_, err := c.Upload(context.Background(), "AB12CD", nil, nil)
	require.Error(t, err)
}

func TestDownload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/download/AB12CD/f1", r.URL.Path)
		w.Header().Set("Content-Length", "5")
		_, _ = w.Write([]byte("hello"))
	})

	d, err := c.Download(context.Background(), "AB12CD", "f1")
	require.NoError(t, err)
	defer d.Body.Close()
	assert.Equal(t, int64(5), d.Size)
	b, err := io.ReadAll(d.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestDownload_UnknownLength(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fl := w.(http.Flusher)
		_, _ = w.Write([]byte("chunk-1"))
		fl.Flush()
		_, _ = w.Write([]byte("chunk-2"))
	})

	d, err := c.Download(context.Background(), "AB12CD", "f1")
	require.NoError(t, err)
	defer d.Body.Close()
	assert.Equal(t, int64(-1), d.Size)
}

func TestDownload_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 404, map[string]any{"ok": false, "error": "File already downloaded or missing"})
	})

	_, err := c.Download(context.Background(), "AB12CD", "f1")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 404, se.Code)
}

func TestQRCode_ClampsSize(t *testing.T) {
	var gotSize, gotText string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotSize, gotText = r.URL.Query().Get("size"), r.URL.Query().Get("text")
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("\x89PNG"))
	})

	png, err := c.QRCode(context.Background(), "http://10.0.0.2:5000/receiver?session=AB12CD", 5000)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(png))
	assert.Equal(t, "1024", gotSize)
	assert.Equal(t, "http://10.0.0.2:5000/receiver?session=AB12CD", gotText)
}

func TestDo_ContextCanceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Download(ctx, "AB12CD", "f1")
	require.True(t, errors.Is(err, context.Canceled), "got %v", err)
}
