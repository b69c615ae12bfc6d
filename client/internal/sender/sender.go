// Package sender drives the sending side: it opens a session, queues local
// files, checks them against the size ceiling and uploads them in one
// multipart request.
package sender

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"sharelite/client/internal/history"
	"sharelite/client/internal/logger"
	"sharelite/network"
)

var (
	ErrNoSession      = errors.New("no active session")
	ErrNothingPending = errors.New("no files selected")
	ErrFileTooLarge   = errors.New("file exceeds maximum size")
	ErrBusy           = errors.New("upload already in progress")
)

// API is the part of the server contract the sender uses.
type API interface {
	network.SessionEnder
	NewSession(ctx context.Context) (*network.SessionInfo, error)
	Upload(ctx context.Context, sessionID string, files []network.UploadFile, onProgress func(sent, total int64)) ([]network.FileDescriptor, error)
	QRCode(ctx context.Context, text string, size int) ([]byte, error)
}

type Options struct {
	// BaseURL is the resolved server address used for share links.
	BaseURL       string
	MaxFileSize   int64
	History       *history.Recorder
	BeaconTimeout time.Duration
}

// PendingFile is one queued local file.
type PendingFile struct {
	Name     string
	Path     string
	Size     int64
	Oversize bool
}

// Selection is a snapshot of the pending queue.
type Selection struct {
	Files    []PendingFile
	Total    int64
	Rejected []string
}

type Controller struct {
	api     API
	baseURL string
	maxSize int64
	hist    *history.Recorder
	beacon  *network.Beacon

	mu        sync.Mutex
	session   string
	ips       []string
	pending   []PendingFile
	uploading bool
}

func New(api API, opts Options) *Controller {
	return &Controller{
		api:     api,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		maxSize: opts.MaxFileSize,
		hist:    opts.History,
		beacon:  network.NewBeacon(api, opts.BeaconTimeout, logger.L),
	}
}

// CreateSession asks the server for a new session. Any previous session is
// forgotten first, so a failure leaves the controller without one.
func (c *Controller) CreateSession(ctx context.Context) (string, error) {
	c.mu.Lock()
	c.session, c.ips = "", nil
	c.mu.Unlock()

	info, err := c.api.NewSession(ctx)
	if err != nil {
		logger.Warnf("Create session failed: %v", err)
		return "", err
	}
	code := strings.ToUpper(strings.TrimSpace(info.SessionID))
	if code == "" {
		return "", fmt.Errorf("%w: empty session id", network.ErrNotOK)
	}

	c.mu.Lock()
	c.session = code
	c.ips = append([]string(nil), info.IPs...)
	c.mu.Unlock()
	logger.Infof("Session %s created, %d address(es)", code, len(info.IPs))
	return code, nil
}

func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// ReachableURLs renders every server-reported address with the scheme and
// port of the configured base URL.
func (c *Controller) ReachableURLs() []string {
	c.mu.Lock()
	ips := append([]string(nil), c.ips...)
	c.mu.Unlock()

	scheme, port := "http", ""
	if u, err := url.Parse(c.baseURL); err == nil && u.Host != "" {
		if u.Scheme != "" {
			scheme = u.Scheme
		}
		port = u.Port()
	}
	out := make([]string, 0, len(ips))
	for _, ip := range ips {
		host := ip
		if port != "" {
			host = net.JoinHostPort(ip, port)
		} else if strings.Contains(ip, ":") {
			host = "[" + ip + "]"
		}
		out = append(out, scheme+"://"+host)
	}
	return out
}

// ShareLink is the receiver URL with the code prefilled, or "" without a
// session.
func (c *Controller) ShareLink() string {
	id := c.SessionID()
	if id == "" {
		return ""
	}
	return c.baseURL + "/receiver?session=" + url.QueryEscape(id)
}

// SelectFiles replaces the queue with paths. Any unusable path rejects the
// whole call and keeps the previous queue.
func (c *Controller) SelectFiles(paths []string) (Selection, error) {
	files, err := c.stat(paths)
	if err != nil {
		return c.Pending(), err
	}
	c.mu.Lock()
	c.pending = dedupe(nil, files)
	c.mu.Unlock()
	return c.Pending(), nil
}

// AddFiles appends paths not already queued.
func (c *Controller) AddFiles(paths []string) (Selection, error) {
	files, err := c.stat(paths)
	if err != nil {
		return c.Pending(), err
	}
	c.mu.Lock()
	c.pending = dedupe(c.pending, files)
	c.mu.Unlock()
	return c.Pending(), nil
}

func (c *Controller) Clear() {
	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()
}

func (c *Controller) Pending() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectionLocked()
}

func (c *Controller) selectionLocked() Selection {
	sel := Selection{Files: append([]PendingFile(nil), c.pending...)}
	for _, f := range c.pending {
		sel.Total += f.Size
		if f.Oversize {
			sel.Rejected = append(sel.Rejected, f.Name)
		}
	}
	return sel
}

// CanUpload reports whether Upload would pass validation.
func (c *Controller) CanUpload() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validateLocked() == nil
}

func (c *Controller) validateLocked() error {
	if c.session == "" {
		return ErrNoSession
	}
	if len(c.pending) == 0 {
		return ErrNothingPending
	}
	if rej := c.selectionLocked().Rejected; len(rej) > 0 {
		return fmt.Errorf("%w: %s", ErrFileTooLarge, strings.Join(rej, ", "))
	}
	return nil
}

// Upload sends the whole queue in one request. onProgress receives
// monotonic percentages over file bytes. On success the uploaded files
// leave the queue and the server's accepted list is returned.
func (c *Controller) Upload(ctx context.Context, onProgress func(network.Progress)) ([]network.FileDescriptor, error) {
	c.mu.Lock()
	if c.uploading {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	if err := c.validateLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	session := c.session
	batch := append([]PendingFile(nil), c.pending...)
	c.uploading = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.uploading = false
		c.mu.Unlock()
	}()

	files := make([]network.UploadFile, 0, len(batch))
	for _, f := range batch {
		files = append(files, network.UploadFile{Name: f.Name, Path: f.Path, Size: f.Size})
	}
	label := fmt.Sprintf("%d file(s)", len(files))
	meter := network.NewMeter(onProgress)
	meter.Report(network.NewProgress(label, 0, sumSize(files)))

	uploaded, err := c.api.Upload(ctx, session, files, func(sent, total int64) {
		meter.Report(network.NewProgress(label, sent, total))
	})
	for _, f := range batch {
		c.hist.Record(history.Upload, session, f.Name, f.Size, err)
	}
	if err != nil {
		logger.Errorf("Upload to %s failed: %v", session, err)
		return nil, err
	}
	meter.Report(network.Completed(label, sumSize(files)))

	c.mu.Lock()
	c.pending = without(c.pending, batch)
	c.mu.Unlock()
	logger.Infof("Uploaded %d file(s) to %s", len(uploaded), session)
	return uploaded, nil
}

// FetchQR returns a PNG of the share link.
func (c *Controller) FetchQR(ctx context.Context, size int) ([]byte, error) {
	link := c.ShareLink()
	if link == "" {
		return nil, ErrNoSession
	}
	return c.api.QRCode(ctx, link, size)
}

// EndSessionBestEffort fires the exit notice once; later calls are no-ops.
func (c *Controller) EndSessionBestEffort() bool {
	return c.beacon.Fire(c.SessionID())
}

func (c *Controller) Beacon() *network.Beacon { return c.beacon }

func (c *Controller) stat(paths []string) ([]PendingFile, error) {
	out := make([]PendingFile, 0, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", p, err)
		}
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("%s is not a regular file", p)
		}
		out = append(out, PendingFile{
			Name:     filepath.Base(abs),
			Path:     abs,
			Size:     info.Size(),
			Oversize: c.maxSize > 0 && info.Size() > c.maxSize,
		})
	}
	return out, nil
}

func dedupe(base, add []PendingFile) []PendingFile {
	seen := make(map[string]struct{}, len(base)+len(add))
	out := make([]PendingFile, 0, len(base)+len(add))
	for _, list := range [][]PendingFile{base, add} {
		for _, f := range list {
			if _, ok := seen[f.Path]; ok {
				continue
			}
			seen[f.Path] = struct{}{}
			out = append(out, f)
		}
	}
	return out
}

func without(list, drop []PendingFile) []PendingFile {
	gone := make(map[string]struct{}, len(drop))
	for _, f := range drop {
		gone[f.Path] = struct{}{}
	}
	var out []PendingFile
	for _, f := range list {
		if _, ok := gone[f.Path]; !ok {
			out = append(out, f)
		}
	}
	return out
}

func sumSize(files []network.UploadFile) int64 {
	var n int64
	for _, f := range files {
		n += f.Size
	}
	return n
}
