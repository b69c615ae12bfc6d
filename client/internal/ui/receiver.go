package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sharelite/client/internal/format"
	"sharelite/client/internal/receiver"
	"sharelite/network"
)

type filesLoadedMsg struct {
	Files []network.FileDescriptor
	Err   error
}

type downloadDoneMsg struct {
	Saved []string
	Err   error
}

type leftMsg struct{}

type ReceiverModel struct {
	ctl    *receiver.Controller
	pump   *Pump
	styles Styles
	help   help.Model

	Input   textinput.Model
	Files   table.Model
	Preview viewport.Model
	rows    []network.FileDescriptor

	busy    bool
	prog    progress.Model
	spin    spinner.Model
	current network.Progress
	seq     int
	resetIn time.Duration
	Status  string
	Err     error
	width   int
}

func NewReceiverModel(ctl *receiver.Controller, pump *Pump, st Styles, resetDelay time.Duration) ReceiverModel {
	ti := textinput.New()
	ti.Placeholder = "AB12CD"
	ti.Prompt = "Session code: "
	ti.CharLimit = 32
	ti.Width = 12
	ti.Focus()

	km := table.DefaultKeyMap()
	// space and d/u are page keys here
	km.PageDown = key.NewBinding(key.WithKeys("pgdown"))
	km.HalfPageDown = key.NewBinding(key.WithKeys("ctrl+d"))
	km.HalfPageUp = key.NewBinding(key.WithKeys("ctrl+u"))

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "", Width: 3},
			{Title: "", Width: 2},
			{Title: "File", Width: 44},
			{Title: "", Width: 10},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
		table.WithKeyMap(km),
	)
	t.SetStyles(st.Table)

	vp := viewport.New(36, 8)
	vp.Style = lipgloss.NewStyle().PaddingLeft(1)

	return ReceiverModel{
		ctl:     ctl,
		pump:    pump,
		styles:  st,
		help:    help.New(),
		Input:   ti,
		Files:   t,
		Preview: vp,
		prog:    progress.New(progress.WithSolidFill(string(st.Accent))),
		spin:    spinner.New(spinner.WithSpinner(spinner.Dot)),
		resetIn: resetDelay,
	}
}

func (m *ReceiverModel) SetStyles(st Styles) {
	m.styles = st
	m.Files.SetStyles(st.Table)
	m.prog = progress.New(progress.WithSolidFill(string(st.Accent)))
}

// Prefill puts code into the join input and connects right away.
func (m *ReceiverModel) Prefill(code string) tea.Cmd {
	m.Input.SetValue(m.ctl.Normalize(code))
	return m.connectCmd(code)
}

// Joined reports whether the page shows a session rather than the join form.
func (m ReceiverModel) Joined() bool {
	return m.ctl.State() == receiver.StateActive
}

func (m ReceiverModel) Typing() bool { return !m.Joined() }

func (m ReceiverModel) connectCmd(code string) tea.Cmd {
	ctl := m.ctl
	return func() tea.Msg {
		files, err := ctl.Connect(context.Background(), code)
		return filesLoadedMsg{Files: files, Err: err}
	}
}

func (m ReceiverModel) refreshCmd() tea.Cmd {
	ctl := m.ctl
	return func() tea.Msg {
		files, err := ctl.Refresh(context.Background())
		return filesLoadedMsg{Files: files, Err: err}
	}
}

func (m ReceiverModel) downloadSelectedCmd() tea.Cmd {
	ctl, pump := m.ctl, m.pump
	return func() tea.Msg {
		saved, err := ctl.DownloadSelected(context.Background(), pump.Progress(pageReceiver))
		return downloadDoneMsg{Saved: saved, Err: err}
	}
}

func (m ReceiverModel) downloadOneCmd(f network.FileDescriptor) tea.Cmd {
	ctl, pump := m.ctl, m.pump
	return func() tea.Msg {
		path, err := ctl.DownloadOne(context.Background(), f.ID, f.Name, pump.Progress(pageReceiver))
		var saved []string
		if err == nil {
			saved = []string{path}
		}
		if _, rerr := ctl.Refresh(context.Background()); err == nil && rerr != nil {
			err = rerr
		}
		return downloadDoneMsg{Saved: saved, Err: err}
	}
}

func (m ReceiverModel) leaveCmd() tea.Cmd {
	ctl := m.ctl
	return func() tea.Msg {
		ctl.LeaveSession(context.Background())
		return leftMsg{}
	}
}

func (m ReceiverModel) Update(msg tea.Msg) (ReceiverModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.Files.SetHeight(max(msg.Height-16, 4))
		m.Preview.Width = max(msg.Width-70, 24)
		m.prog.Width = min(msg.Width-8, 60)

	case tea.KeyMsg:
		if !m.Joined() {
			return m.updateJoin(msg)
		}
		return m.updateActive(msg)

	case filesLoadedMsg:
		m.setRows(m.ctl.Files())
		if msg.Err != nil {
			m.Err = msg.Err
		} else if !m.busy {
			m.Err = nil
			m.Status = fmt.Sprintf("%d file(s) in session %s", len(m.rows), m.ctl.SessionID())
		}
		if m.Joined() {
			m.Input.Blur()
		}

	case progressMsg:
		if msg.From == pageReceiver && m.busy {
			m.current = msg.Progress
		}

	case downloadDoneMsg:
		m.busy = false
		m.seq++
		m.setRows(m.ctl.Files())
		if msg.Err != nil {
			m.Err = msg.Err
			m.Status = ""
		} else {
			m.Err = nil
			m.Status = savedStatus(msg.Saved)
			m.current = network.NewProgress(m.current.Label, 1, 1)
		}
		return m, resetAfter(pageReceiver, m.seq, m.resetIn)

	case resetProgressMsg:
		if msg.Page == pageReceiver && msg.Seq == m.seq && !m.busy {
			m.current = network.Progress{}
		}

	case leftMsg:
		m.rows = nil
		m.Files.SetRows(nil)
		m.Preview.SetContent("")
		m.Input.Reset()
		m.Err = nil
		m.Status = "Left the session"
		cmd := m.Input.Focus()
		return m, cmd

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

func (m ReceiverModel) updateJoin(msg tea.KeyMsg) (ReceiverModel, tea.Cmd) {
	if key.Matches(msg, receiverKeyMap.Connect) {
		code := m.Input.Value()
		if m.ctl.Normalize(code) == "" {
			m.Err = receiver.ErrEmptyCode
			return m, nil
		}
		m.Input.SetValue(m.ctl.Normalize(code))
		m.Err = nil
		m.Status = "Connecting…"
		return m, m.connectCmd(code)
	}
	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

func (m ReceiverModel) updateActive(msg tea.KeyMsg) (ReceiverModel, tea.Cmd) {
	switch {
	case key.Matches(msg, receiverKeyMap.Toggle):
		if f, ok := m.focused(); ok {
			if _, err := m.ctl.ToggleSelection(f.ID); err != nil {
				m.Err = err
			}
			m.setRows(m.rows)
		}
		return m, nil
	case key.Matches(msg, receiverKeyMap.Download):
		if m.busy {
			return m, nil
		}
		if !m.ctl.CanDownload() {
			m.Err = receiver.ErrNothingSelected
			return m, nil
		}
		return m.startTransfer(m.downloadSelectedCmd())
	case key.Matches(msg, receiverKeyMap.DownloadOne):
		if m.busy {
			return m, nil
		}
		f, ok := m.focused()
		if !ok {
			return m, nil
		}
		return m.startTransfer(m.downloadOneCmd(f))
	case key.Matches(msg, receiverKeyMap.Refresh):
		m.Status = "Refreshing…"
		return m, m.refreshCmd()
	case key.Matches(msg, receiverKeyMap.Leave):
		if m.busy {
			return m, nil
		}
		return m, m.leaveCmd()
	}

	var cmd tea.Cmd
	m.Files, cmd = m.Files.Update(msg)
	m.updatePreview()
	return m, cmd
}

func (m ReceiverModel) startTransfer(cmd tea.Cmd) (ReceiverModel, tea.Cmd) {
	m.busy = true
	m.Err = nil
	m.Status = "Downloading…"
	m.current = network.Progress{}
	return m, tea.Batch(cmd, m.spin.Tick)
}

func (m ReceiverModel) focused() (network.FileDescriptor, bool) {
	i := m.Files.Cursor()
	if i < 0 || i >= len(m.rows) {
		return network.FileDescriptor{}, false
	}
	return m.rows[i], true
}

func (m *ReceiverModel) setRows(files []network.FileDescriptor) {
	m.rows = files
	rows := make([]table.Row, 0, len(files))
	for _, f := range files {
		check := "[ ]"
		if m.ctl.IsSelected(f.ID) {
			check = "[x]"
		}
		state := ""
		if f.Downloaded {
			state = "taken"
		}
		rows = append(rows, table.Row{check, format.FileIcon(f.Name), format.FileLabel(f.Name, f.Size), state})
	}
	m.Files.SetRows(rows)
	if c := m.Files.Cursor(); c >= len(rows) {
		m.Files.SetCursor(max(len(rows)-1, 0))
	}
	m.updatePreview()
}

func (m *ReceiverModel) updatePreview() {
	f, ok := m.focused()
	if !ok {
		m.Preview.SetContent(m.styles.Blurred.Render("No file focused"))
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", format.FileIcon(f.Name), f.Name)
	fmt.Fprintf(&b, "Size:  %s (%d bytes)\n", format.FormatBytes(f.Size), f.Size)
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Name)), ".")
	if ext == "" {
		ext = "none"
	}
	fmt.Fprintf(&b, "Type:  %s\n", ext)
	fmt.Fprintf(&b, "ID:    %s\n", f.ID)
	if m.ctl.IsSelected(f.ID) {
		b.WriteString("\nselected for download")
	}
	m.Preview.SetContent(b.String())
}

func (m ReceiverModel) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("ShareLite · Receive") + "\n\n")

	if !m.Joined() {
		b.WriteString(m.Input.View() + "\n\n")
		if m.Err != nil {
			b.WriteString(m.styles.Error.Render(m.Err.Error()) + "\n\n")
		} else if m.Status != "" {
			b.WriteString(m.styles.Status.Render(m.Status) + "\n\n")
		}
		b.WriteString(m.help.View(joinHelp{}))
		return m.styles.Doc.Render(b.String())
	}

	b.WriteString("Session " + m.styles.Code.Render(m.ctl.SessionID()) + "\n")
	var list string
	if len(m.rows) == 0 {
		list = m.styles.Blurred.Render("No files yet. Press r to refresh.")
	} else {
		list = m.Files.View()
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list, "  ", m.styles.Pane.Render(m.Preview.View())) + "\n")

	selected := m.ctl.Selected()
	var total int64
	for _, f := range selected {
		total += f.Size
	}
	b.WriteString(m.styles.Blurred.Render(fmt.Sprintf("%d selected, %s", len(selected), format.FormatBytes(total))) + "\n\n")
	b.WriteString(renderProgress(m.prog, m.spin, m.current, m.busy) + "\n")

	if m.Err != nil {
		b.WriteString(m.styles.Error.Render(m.Err.Error()) + "\n")
	} else if m.Status != "" {
		b.WriteString(m.styles.Status.Render(m.Status) + "\n")
	}
	b.WriteString("\n" + m.help.View(receiverKeyMap))
	return m.styles.Doc.Render(b.String())
}

func savedStatus(saved []string) string {
	switch len(saved) {
	case 0:
		return "Nothing saved"
	case 1:
		return "Saved " + saved[0]
	}
	return fmt.Sprintf("Saved %d files to %s", len(saved), filepath.Dir(saved[0]))
}
