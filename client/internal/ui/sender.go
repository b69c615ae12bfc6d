package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"sharelite/client/internal/format"
	"sharelite/client/internal/sender"
	"sharelite/network"
)

const qrSize = 512

type sessionCreatedMsg struct {
	Code string
	Err  error
}

type uploadDoneMsg struct {
	Files []network.FileDescriptor
	Err   error
}

type qrSavedMsg struct {
	Path string
	Err  error
}

// DropMsg reports a file that landed in the drop folder.
type DropMsg struct {
	Path string
}

type SenderModel struct {
	ctl    *sender.Controller
	pump   *Pump
	styles Styles
	help   help.Model

	Input  textinput.Model
	Typing bool

	busy     bool
	prog     progress.Model
	spin     spinner.Model
	current  network.Progress
	seq      int
	resetIn  time.Duration
	qrDir    string
	maxSize  int64
	Status   string
	Err      error
	uploaded int
}

func NewSenderModel(ctl *sender.Controller, pump *Pump, st Styles, maxSize int64, qrDir string, resetDelay time.Duration) SenderModel {
	ti := textinput.New()
	ti.Placeholder = "paths to share (drag files here, space separated)"
	ti.Prompt = "Add: "
	ti.CharLimit = 4096
	ti.Width = 60

	return SenderModel{
		ctl:     ctl,
		pump:    pump,
		styles:  st,
		help:    help.New(),
		Input:   ti,
		prog:    progress.New(progress.WithSolidFill(string(st.Accent))),
		spin:    spinner.New(spinner.WithSpinner(spinner.Dot)),
		resetIn: resetDelay,
		qrDir:   qrDir,
		maxSize: maxSize,
	}
}

// Init creates a session when the page opens without one.
func (m SenderModel) Init() tea.Cmd {
	if m.ctl.SessionID() != "" {
		return nil
	}
	return m.createSessionCmd()
}

func (m *SenderModel) SetStyles(st Styles) {
	m.styles = st
	m.prog = progress.New(progress.WithSolidFill(string(st.Accent)))
}

func (m SenderModel) createSessionCmd() tea.Cmd {
	ctl := m.ctl
	return func() tea.Msg {
		code, err := ctl.CreateSession(context.Background())
		return sessionCreatedMsg{Code: code, Err: err}
	}
}

func (m SenderModel) uploadCmd() tea.Cmd {
	ctl, pump := m.ctl, m.pump
	return func() tea.Msg {
		files, err := ctl.Upload(context.Background(), pump.Progress(pageSender))
		return uploadDoneMsg{Files: files, Err: err}
	}
}

func (m SenderModel) saveQRCmd() tea.Cmd {
	ctl, dir := m.ctl, m.qrDir
	return func() tea.Msg {
		png, err := ctl.FetchQR(context.Background(), qrSize)
		if err != nil {
			return qrSavedMsg{Err: err}
		}
		if dir == "" {
			dir = "."
		}
		path := filepath.Join(dir, "sharelite-"+ctl.SessionID()+".png")
		if err := os.WriteFile(path, png, 0o644); err != nil {
			return qrSavedMsg{Err: err}
		}
		return qrSavedMsg{Path: path}
	}
}

func (m SenderModel) Update(msg tea.Msg) (SenderModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.prog.Width = min(msg.Width-8, 60)
		m.Input.Width = min(msg.Width-12, 80)

	case tea.KeyMsg:
		if m.Typing {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)

	case sessionCreatedMsg:
		if msg.Err != nil {
			m.Err = fmt.Errorf("create session: %w", msg.Err)
			m.Status = ""
			return m, nil
		}
		m.Err = nil
		m.Status = "Session ready"

	case DropMsg:
		if _, err := m.ctl.AddFiles([]string{msg.Path}); err != nil {
			m.Err = err
			return m, nil
		}
		m.Status = "Added " + filepath.Base(msg.Path) + " from drop folder"

	case progressMsg:
		if msg.From == pageSender && m.busy {
			m.current = msg.Progress
		}

	case uploadDoneMsg:
		m.busy = false
		m.seq++
		if msg.Err != nil {
			m.Err = msg.Err
			m.Status = ""
			m.current = network.Progress{}
			return m, nil
		}
		m.Err = nil
		m.uploaded += len(msg.Files)
		m.current = network.NewProgress(m.current.Label, 1, 1)
		m.Status = fmt.Sprintf("Uploaded %d file(s)", len(msg.Files))
		return m, resetAfter(pageSender, m.seq, m.resetIn)

	case resetProgressMsg:
		if msg.Page == pageSender && msg.Seq == m.seq && !m.busy {
			m.current = network.Progress{}
		}

	case qrSavedMsg:
		if msg.Err != nil {
			m.Err = fmt.Errorf("save QR: %w", msg.Err)
			return m, nil
		}
		m.Err = nil
		m.Status = "QR code saved to " + msg.Path

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m SenderModel) updateInput(msg tea.KeyMsg) (SenderModel, tea.Cmd) {
	switch {
	case key.Matches(msg, senderKeyMap.Cancel):
		m.Typing = false
		m.Input.Blur()
		m.Input.Reset()
		return m, nil
	case key.Matches(msg, senderKeyMap.Submit):
		paths, err := SplitPaths(m.Input.Value())
		m.Typing = false
		m.Input.Blur()
		m.Input.Reset()
		if err != nil {
			m.Err = err
			return m, nil
		}
		if len(paths) == 0 {
			return m, nil
		}
		sel, err := m.ctl.SelectFiles(paths)
		if err != nil {
			m.Err = err
			return m, nil
		}
		m.Err = nil
		m.Status = fmt.Sprintf("%d file(s) pending, %s", len(sel.Files), format.FormatBytes(sel.Total))
		return m, nil
	}
	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

func (m SenderModel) updateKeys(msg tea.KeyMsg) (SenderModel, tea.Cmd) {
	switch {
	case key.Matches(msg, senderKeyMap.Add):
		m.Typing = true
		cmd := m.Input.Focus()
		return m, cmd
	case key.Matches(msg, senderKeyMap.Clear):
		if m.busy {
			return m, nil
		}
		m.ctl.Clear()
		m.Err = nil
		m.Status = "Selection cleared"
	case key.Matches(msg, senderKeyMap.Upload):
		if m.busy {
			return m, nil
		}
		if !m.ctl.CanUpload() {
			_, err := m.ctl.Upload(context.Background(), nil)
			m.Err = err
			return m, nil
		}
		m.busy = true
		m.Err = nil
		m.Status = "Uploading…"
		m.current = network.Progress{}
		return m, tea.Batch(m.uploadCmd(), m.spin.Tick)
	case key.Matches(msg, senderKeyMap.New):
		if m.busy {
			return m, nil
		}
		m.Status = "Creating session…"
		return m, m.createSessionCmd()
	case key.Matches(msg, senderKeyMap.SaveQR):
		return m, m.saveQRCmd()
	}
	return m, nil
}

func (m SenderModel) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("ShareLite · Send") + "\n\n")

	if code := m.ctl.SessionID(); code != "" {
		b.WriteString("Session code\n" + m.styles.Code.Render(code) + "\n")
		if link := m.ctl.ShareLink(); link != "" {
			b.WriteString(m.styles.Blurred.Render("Receiver link: ") + link + "\n")
		}
		if urls := m.ctl.ReachableURLs(); len(urls) > 0 {
			b.WriteString(m.styles.Blurred.Render("Reachable at: ") + strings.Join(urls, "  ") + "\n")
		}
	} else {
		b.WriteString(m.styles.Blurred.Render("No session yet, press n to create one") + "\n")
	}
	b.WriteString("\n")

	sel := m.ctl.Pending()
	if len(sel.Files) == 0 {
		b.WriteString(m.styles.Blurred.Render("No files selected. Press a to choose files.") + "\n")
	} else {
		for _, f := range sel.Files {
			line := format.FileIcon(f.Name) + " " + format.FileLabel(f.Name, f.Size)
			if f.Oversize {
				line = m.styles.Rejected.Render(line)
			}
			b.WriteString("  " + line + "\n")
		}
		b.WriteString(m.styles.Blurred.Render(fmt.Sprintf("  %d file(s), %s total", len(sel.Files), format.FormatBytes(sel.Total))) + "\n")
	}
	if len(sel.Rejected) > 0 {
		b.WriteString(m.styles.Error.Render(fmt.Sprintf("Too large (max %s): %s",
			format.FormatBytes(m.maxSize), strings.Join(sel.Rejected, ", "))) + "\n")
	}

	if m.Typing {
		b.WriteString("\n" + m.Input.View() + "\n")
	}

	b.WriteString("\n" + renderProgress(m.prog, m.spin, m.current, m.busy) + "\n")

	if m.Err != nil {
		b.WriteString(m.styles.Error.Render(m.Err.Error()) + "\n")
	} else if m.Status != "" {
		b.WriteString(m.styles.Status.Render(m.Status) + "\n")
	}

	upload := "upload disabled"
	if m.ctl.CanUpload() {
		upload = "ready to upload"
	}
	b.WriteString(m.styles.Blurred.Render(upload) + "\n\n")
	b.WriteString(m.help.View(senderKeyMap))
	return m.styles.Doc.Render(b.String())
}
