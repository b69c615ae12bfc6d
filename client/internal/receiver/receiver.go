// Package receiver drives the receiving side: joining a session by code,
// listing its files, keeping the selection in step with the list and
// saving selected files one after another.
package receiver

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"sharelite/client/internal/history"
	"sharelite/client/internal/logger"
	"sharelite/network"
)

const (
	codeMaxLen           = 6
	leaveTimeout         = 5 * time.Second
	defaultBeaconTimeout = 3 * time.Second
)

var (
	ErrEmptyCode       = errors.New("session code is empty")
	ErrNoSession       = errors.New("not connected to a session")
	ErrNothingSelected = errors.New("no files selected")
	ErrUnknownFile     = errors.New("file is not in the current list")
	ErrBusy            = errors.New("download already in progress")
)

// API is the part of the server contract the receiver uses.
type API interface {
	network.SessionEnder
	ListFiles(ctx context.Context, sessionID string) ([]network.FileDescriptor, error)
	Download(ctx context.Context, sessionID, fileID string) (*network.Download, error)
}

type State int

const (
	StateJoin State = iota
	StateActive
)

func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "join"
}

type Options struct {
	DownloadDir   string
	StrictCodes   bool
	History       *history.Recorder
	BeaconTimeout time.Duration
}

type Controller struct {
	api    API
	dir    string
	strict bool
	hist   *history.Recorder
	beacon *network.Beacon

	mu       sync.Mutex
	session  string
	files    []network.FileDescriptor
	selected map[string]struct{}
	// gen numbers refresh requests; applied is the newest one whose
	// result is on screen. Older results arriving late are dropped.
	gen         uint64
	applied     uint64
	downloading bool
}

func New(api API, opts Options) *Controller {
	dir := opts.DownloadDir
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	timeout := opts.BeaconTimeout
	if timeout <= 0 {
		timeout = defaultBeaconTimeout
	}
	return &Controller{
		api:      api,
		dir:      dir,
		strict:   opts.StrictCodes,
		hist:     opts.History,
		beacon:   network.NewBeacon(api, timeout, logger.L),
		selected: map[string]struct{}{},
	}
}

// NormalizeSessionCode trims and uppercases input. In strict mode only
// A-Z and 0-9 survive and the result is at most six characters long.
func NormalizeSessionCode(input string, strict bool) string {
	s := strings.ToUpper(strings.TrimSpace(input))
	if !strict {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == codeMaxLen {
				break
			}
		}
	}
	return b.String()
}

// Normalize applies the controller's configured strictness.
func (c *Controller) Normalize(input string) string {
	return NormalizeSessionCode(input, c.strict)
}

// Connect joins the session named by code and loads its file list. An
// empty code fails without contacting the server. A later Connect wins
// over an earlier one still in flight.
func (c *Controller) Connect(ctx context.Context, code string) ([]network.FileDescriptor, error) {
	id := c.Normalize(code)
	if id == "" {
		return nil, ErrEmptyCode
	}
	c.mu.Lock()
	c.session = id
	c.files = nil
	c.selected = map[string]struct{}{}
	c.applied = c.gen
	c.mu.Unlock()
	logger.Infof("Joined session %s", id)
	return c.Refresh(ctx)
}

// Refresh reloads the file list. Without a session it does nothing. A
// failed fetch empties the list and returns the error. The selection is
// pruned to ids still listed.
func (c *Controller) Refresh(ctx context.Context) ([]network.FileDescriptor, error) {
	c.mu.Lock()
	session := c.session
	if session == "" {
		c.mu.Unlock()
		return nil, nil
	}
	c.gen++
	my := c.gen
	c.mu.Unlock()

	files, err := c.api.ListFiles(ctx, session)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != session || my <= c.applied {
		logger.Debugf("Dropping stale file list for %s (request %d, applied %d)", session, my, c.applied)
		return c.filesLocked(), nil
	}
	c.applied = my
	if err != nil {
		logger.Warnf("List files for %s failed: %v", session, err)
		files = nil
	}
	c.files = append([]network.FileDescriptor(nil), files...)
	c.pruneLocked()
	return c.filesLocked(), err
}

func (c *Controller) pruneLocked() {
	keep := make(map[string]struct{}, len(c.selected))
	for _, f := range c.files {
		if _, ok := c.selected[f.ID]; ok {
			keep[f.ID] = struct{}{}
		}
	}
	c.selected = keep
}

func (c *Controller) filesLocked() []network.FileDescriptor {
	return append([]network.FileDescriptor{}, c.files...)
}

func (c *Controller) Files() []network.FileDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filesLocked()
}

func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Controller) State() State {
	if c.SessionID() == "" {
		return StateJoin
	}
	return StateActive
}

// ToggleSelection flips id in the selection and returns whether it is now
// selected. Ids outside the current list are refused.
func (c *Controller) ToggleSelection(id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.lookupLocked(id); !ok {
		return false, ErrUnknownFile
	}
	if _, ok := c.selected[id]; ok {
		delete(c.selected, id)
		return false, nil
	}
	c.selected[id] = struct{}{}
	return true, nil
}

func (c *Controller) IsSelected(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.selected[id]
	return ok
}

// Selected returns the selected files in list order.
func (c *Controller) Selected() []network.FileDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedLocked()
}

func (c *Controller) selectedLocked() []network.FileDescriptor {
	var out []network.FileDescriptor
	for _, f := range c.files {
		if _, ok := c.selected[f.ID]; ok {
			out = append(out, f)
		}
	}
	return out
}

func (c *Controller) CanDownload() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.selected) > 0
}

func (c *Controller) lookupLocked(id string) (network.FileDescriptor, bool) {
	for _, f := range c.files {
		if f.ID == id {
			return f, true
		}
	}
	return network.FileDescriptor{}, false
}

// LeaveSession tells the server the session is over and returns to the
// join state. A failed notice is logged only.
func (c *Controller) LeaveSession(ctx context.Context) {
	c.mu.Lock()
	session := c.session
	c.session = ""
	c.files = nil
	c.selected = map[string]struct{}{}
	c.applied = c.gen
	c.mu.Unlock()
	if session == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, leaveTimeout)
	defer cancel()
	if err := c.api.EndSession(ctx, session); err != nil {
		logger.Warnf("End session %s failed: %v", session, err)
		return
	}
	logger.Infof("Left session %s", session)
}

// EndSessionBestEffort fires the exit notice once; later calls are no-ops.
func (c *Controller) EndSessionBestEffort() bool {
	return c.beacon.Fire(c.SessionID())
}

func (c *Controller) Beacon() *network.Beacon { return c.beacon }
