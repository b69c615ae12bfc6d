package receiver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"sharelite/client/internal/history"
	"sharelite/client/internal/logger"
	"sharelite/network"

	"github.com/google/uuid"
)

const (
	copyBufSize   = 64 * 1024
	tempPrefix    = ".sharelite-"
	tempSuffix    = ".part"
	maxNameSuffix = 1000
)

// DownloadOne streams one file into the download directory and returns the
// saved path. Bytes land in a temporary file first; it is renamed to name
// (or name_N when taken) only after the stream completed and removed on any
// failure.
func (c *Controller) DownloadOne(ctx context.Context, id, name string, onProgress func(network.Progress)) (string, error) {
	session := c.SessionID()
	if session == "" {
		return "", ErrNoSession
	}
	path, size, err := c.fetch(ctx, session, id, name, network.NewMeter(onProgress))
	c.hist.Record(history.Download, session, name, size, err)
	if err != nil {
		logger.Errorf("Download %s from %s failed: %v", name, session, err)
		return "", err
	}
	logger.Infof("Saved %s to %s", name, path)
	return path, nil
}

func (c *Controller) fetch(ctx context.Context, session, id, name string, meter *network.Meter) (string, int64, error) {
	dl, err := c.api.Download(ctx, session, id)
	if err != nil {
		return "", 0, err
	}
	defer dl.Body.Close()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", 0, err
	}
	tmp, err := os.CreateTemp(c.dir, tempPrefix+uuid.NewString()[:8]+"-*"+tempSuffix)
	if err != nil {
		return "", 0, err
	}
	tmpPath := tmp.Name()
	keep := false
	defer func() {
		if !keep {
			_ = os.Remove(tmpPath)
		}
	}()

	meter.Report(network.NewProgress(name, 0, dl.Size))
	done, err := copyWithProgress(ctx, tmp, dl.Body, func(n int64) {
		meter.Report(network.NewProgress(name, n, dl.Size))
	})
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", done, err
	}
	if dl.Size >= 0 && done != dl.Size {
		return "", done, fmt.Errorf("%s: received %d of %d bytes", name, done, dl.Size)
	}

	dest, err := availableName(c.dir, name)
	if err != nil {
		return "", done, err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return "", done, err
	}
	keep = true
	meter.Report(network.Completed(name, done))
	return dest, done, nil
}

func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, onProgress func(int64)) (int64, error) {
	buf := make([]byte, copyBufSize)
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return total, werr
			}
			total += int64(n)
			onProgress(total)
		}
		if errors.Is(rerr, io.EOF) {
			return total, nil
		}
		if rerr != nil {
			return total, rerr
		}
	}
}

// availableName picks dir/name, or dir/base_N.ext when that exists. Server
// supplied names are reduced to their last path element.
func availableName(dir, name string) (string, error) {
	name = safeName(name)
	candidate := filepath.Join(dir, name)
	if _, err := os.Lstat(candidate); errors.Is(err, os.ErrNotExist) {
		return candidate, nil
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; i < maxNameSuffix; i++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, i, ext))
		if _, err := os.Lstat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free file name for %s in %s", name, dir)
}

func safeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.FromSlash(name))
	switch name {
	case "", ".", "..", string(filepath.Separator):
		return "download"
	}
	return name
}

// DownloadSelected saves every selected file in list order, one at a
// time, stopping at the first failure. The list is refreshed afterwards
// either way since downloads may remove files on the server.
func (c *Controller) DownloadSelected(ctx context.Context, onProgress func(network.Progress)) ([]string, error) {
	c.mu.Lock()
	if c.session == "" {
		c.mu.Unlock()
		return nil, ErrNoSession
	}
	if c.downloading {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	queue := c.selectedLocked()
	if len(queue) == 0 {
		c.mu.Unlock()
		return nil, ErrNothingSelected
	}
	c.downloading = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.downloading = false
		c.mu.Unlock()
	}()

	var saved []string
	var dlErr error
	for _, f := range queue {
		path, err := c.DownloadOne(ctx, f.ID, f.Name, onProgress)
		if err != nil {
			dlErr = fmt.Errorf("%s: %w", f.Name, err)
			break
		}
		saved = append(saved, path)
	}

	if _, err := c.Refresh(context.WithoutCancel(ctx)); err != nil && dlErr == nil {
		return saved, err
	}
	return saved, dlErr
}

// Downloading reports whether a batch is running.
func (c *Controller) Downloading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.downloading
}
