package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"sharelite/client/internal/format"
	"sharelite/client/internal/logger"
	"sharelite/client/internal/prefs"
	"sharelite/client/internal/receiver"
	"sharelite/client/internal/sender"
	"sharelite/network"
)

type page int

const (
	pageHome page = iota
	pageSender
	pageReceiver
)

// resetProgressMsg clears a finished progress bar unless a newer transfer
// started since.
type resetProgressMsg struct {
	Page page
	Seq  int
}

func resetAfter(p page, seq int, d time.Duration) tea.Cmd {
	if d <= 0 {
		return func() tea.Msg { return resetProgressMsg{Page: p, Seq: seq} }
	}
	return tea.Tick(d, func(time.Time) tea.Msg { return resetProgressMsg{Page: p, Seq: seq} })
}

type Options struct {
	Sender      *sender.Controller
	Receiver    *receiver.Controller
	Prefs       *prefs.Store
	Pump        *Pump
	MaxFileSize int64
	// QRDir is where the sender page writes QR images.
	QRDir      string
	ResetDelay time.Duration
	// Start is "send", "recv" or empty for the home page.
	Start string
	// Prefill is a session code to join at start.
	Prefill string
}

type RootModel struct {
	Page     page
	Home     HomeModel
	Sender   SenderModel
	Receiver ReceiverModel
	Quitting bool

	pump     *Pump
	prefs    *prefs.Store
	styles   Styles
	sendCtl  *sender.Controller
	recvCtl  *receiver.Controller
	startCmd tea.Cmd
}

func NewRootModel(opts Options) RootModel {
	pump := opts.Pump
	if pump == nil {
		pump = NewPump()
	}
	store := opts.Prefs
	if store == nil {
		store = prefs.New(nil, "")
	}
	st := StylesFor(store.Theme())

	m := RootModel{
		Page:     pageHome,
		Home:     NewHomeModel(st),
		Sender:   NewSenderModel(opts.Sender, pump, st, opts.MaxFileSize, opts.QRDir, opts.ResetDelay),
		Receiver: NewReceiverModel(opts.Receiver, pump, st, opts.ResetDelay),
		pump:     pump,
		prefs:    store,
		styles:   st,
		sendCtl:  opts.Sender,
		recvCtl:  opts.Receiver,
	}

	switch {
	case opts.Prefill != "":
		m.Page = pageReceiver
		m.startCmd = m.Receiver.Prefill(opts.Prefill)
	case opts.Start == "send":
		m.Page = pageSender
		m.startCmd = m.Sender.Init()
	case opts.Start == "recv":
		m.Page = pageReceiver
	}
	return m
}

func (m RootModel) Init() tea.Cmd {
	return tea.Batch(m.pump.WaitForMsg, m.startCmd)
}

// Theme is the active palette name.
func (m RootModel) Theme() string { return m.styles.Name }

func (m RootModel) typing() bool {
	switch m.Page {
	case pageSender:
		return m.Sender.Typing
	case pageReceiver:
		return m.Receiver.Typing()
	}
	return false
}

func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Sender, _ = m.Sender.Update(msg)
		m.Receiver, _ = m.Receiver.Update(msg)
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m.quit()
		}
		if m.typing() {
			if m.Page == pageReceiver && key.Matches(msg, global.Back) {
				m.Page = pageHome
				return m, nil
			}
			return m.routeToPage(msg)
		}
		switch {
		case key.Matches(msg, global.Quit):
			return m.quit()
		case key.Matches(msg, global.Theme):
			m.toggleTheme()
			return m, nil
		case key.Matches(msg, global.Back) && m.Page != pageHome:
			m.Page = pageHome
			return m, nil
		}
		return m.routeToPage(msg)

	case pumpedMsg:
		next, cmd := m.Update(msg.Msg)
		return next, tea.Batch(cmd, m.pump.WaitForMsg)

	case openPageMsg:
		m.Page = msg.Page
		switch msg.Page {
		case pageSender:
			return m, m.Sender.Init()
		case pageReceiver:
			if !m.Receiver.Joined() {
				cmd := m.Receiver.Input.Focus()
				return m, cmd
			}
		}
		return m, nil

	case sessionCreatedMsg, uploadDoneMsg, qrSavedMsg, DropMsg:
		var cmd tea.Cmd
		m.Sender, cmd = m.Sender.Update(msg)
		return m, cmd

	case filesLoadedMsg, downloadDoneMsg, leftMsg:
		var cmd tea.Cmd
		m.Receiver, cmd = m.Receiver.Update(msg)
		return m, cmd

	case progressMsg, resetProgressMsg, spinner.TickMsg:
		var c1, c2 tea.Cmd
		m.Sender, c1 = m.Sender.Update(msg)
		m.Receiver, c2 = m.Receiver.Update(msg)
		return m, tea.Batch(c1, c2)
	}
	return m.routeToPage(msg)
}

func (m RootModel) routeToPage(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.Page {
	case pageHome:
		m.Home, cmd = m.Home.Update(msg)
	case pageSender:
		m.Sender, cmd = m.Sender.Update(msg)
	case pageReceiver:
		m.Receiver, cmd = m.Receiver.Update(msg)
	}
	return m, cmd
}

func (m *RootModel) toggleTheme() {
	next, err := m.prefs.ToggleTheme()
	if err != nil {
		logger.Warnf("Save theme failed: %v", err)
	}
	m.styles = StylesFor(next)
	m.Home.styles = m.styles
	m.Sender.SetStyles(m.styles)
	m.Receiver.SetStyles(m.styles)
}

// quit fires both exit notices without waiting for them.
func (m RootModel) quit() (tea.Model, tea.Cmd) {
	m.Quitting = true
	if m.sendCtl != nil {
		m.sendCtl.EndSessionBestEffort()
	}
	if m.recvCtl != nil {
		m.recvCtl.EndSessionBestEffort()
	}
	return m, tea.Quit
}

func (m RootModel) View() string {
	if m.Quitting {
		return "Bye!\n"
	}
	switch m.Page {
	case pageSender:
		return m.Sender.View()
	case pageReceiver:
		return m.Receiver.View()
	}
	return m.styles.Doc.Render(m.Home.View())
}

func renderProgress(bar progress.Model, spin spinner.Model, p network.Progress, busy bool) string {
	if !busy && p.Label == "" && p.Percent == 0 {
		return ""
	}
	if busy && !p.Known {
		return fmt.Sprintf("%s %s  %s received", spin.View(), p.Label, format.FormatBytes(p.Done))
	}
	return bar.ViewAs(p.Percent/100) + "  " + p.Label
}
