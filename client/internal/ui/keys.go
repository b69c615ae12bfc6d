package ui

import "github.com/charmbracelet/bubbles/key"

type globalKeys struct {
	Quit  key.Binding
	Theme key.Binding
	Back  key.Binding
}

var global = globalKeys{
	Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Theme: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
	Back:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
}

type homeKeys struct {
	Up     key.Binding
	Down   key.Binding
	Choose key.Binding
	Send   key.Binding
	Recv   key.Binding
}

var homeKeyMap = homeKeys{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Choose: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Send:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "send")),
	Recv:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "receive")),
}

func (k homeKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Recv, k.Choose, global.Theme, global.Quit}
}

func (k homeKeys) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

type senderKeys struct {
	Add    key.Binding
	Upload key.Binding
	Clear  key.Binding
	New    key.Binding
	SaveQR key.Binding
	Submit key.Binding
	Cancel key.Binding
}

var senderKeyMap = senderKeys{
	Add:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select files")),
	Upload: key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upload")),
	Clear:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
	New:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new session")),
	SaveQR: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "save QR")),
	Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
}

func (k senderKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Upload, k.Clear, k.New, k.SaveQR, global.Theme, global.Back, global.Quit}
}

func (k senderKeys) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

type receiverKeys struct {
	Toggle      key.Binding
	Download    key.Binding
	DownloadOne key.Binding
	Refresh     key.Binding
	Leave       key.Binding
	Connect     key.Binding
}

var receiverKeyMap = receiverKeys{
	Toggle:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
	Download:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "download selected")),
	DownloadOne: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "download")),
	Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Leave:       key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "leave")),
	Connect:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "connect")),
}

func (k receiverKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Download, k.DownloadOne, k.Refresh, k.Leave, global.Theme, global.Quit}
}

func (k receiverKeys) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

// joinHelp is shown while the code input has focus.
type joinHelp struct{}

func (joinHelp) ShortHelp() []key.Binding {
	return []key.Binding{receiverKeyMap.Connect, global.Back}
}

func (joinHelp) FullHelp() [][]key.Binding { return [][]key.Binding{joinHelp{}.ShortHelp()} }
