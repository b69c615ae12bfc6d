package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// openPageMsg asks the root to switch pages.
type openPageMsg struct {
	Page page
}

type HomeModel struct {
	Cursor int
	styles Styles
	help   help.Model
}

var homeChoices = []struct {
	page  page
	label string
	desc  string
}{
	{pageSender, "Send files", "create a session and upload files to it"},
	{pageReceiver, "Receive files", "join a session by code and download"},
}

func NewHomeModel(st Styles) HomeModel {
	return HomeModel{styles: st, help: help.New()}
}

func (m HomeModel) Update(msg tea.Msg) (HomeModel, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(km, homeKeyMap.Up):
		if m.Cursor > 0 {
			m.Cursor--
		}
	case key.Matches(km, homeKeyMap.Down):
		if m.Cursor < len(homeChoices)-1 {
			m.Cursor++
		}
	case key.Matches(km, homeKeyMap.Send):
		return m, openPage(pageSender)
	case key.Matches(km, homeKeyMap.Recv):
		return m, openPage(pageReceiver)
	case key.Matches(km, homeKeyMap.Choose):
		return m, openPage(homeChoices[m.Cursor].page)
	}
	return m, nil
}

func openPage(p page) tea.Cmd {
	return func() tea.Msg { return openPageMsg{Page: p} }
}

func (m HomeModel) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("ShareLite") + "\n\n")
	for i, c := range homeChoices {
		line := "  " + c.label + "  " + m.styles.Blurred.Render(c.desc)
		if i == m.Cursor {
			line = m.styles.Focused.Render("> "+c.label) + "  " + m.styles.Blurred.Render(c.desc)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n" + m.help.View(homeKeyMap))
	return b.String()
}
