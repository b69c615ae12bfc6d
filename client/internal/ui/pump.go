package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"sharelite/network"
)

const pumpSize = 64

// Pump carries messages produced off the event loop (transfer progress,
// drop folder arrivals) back into it. The root model keeps one WaitForMsg
// outstanding at all times.
type Pump struct {
	ch chan tea.Msg
}

func NewPump() *Pump {
	return &Pump{ch: make(chan tea.Msg, pumpSize)}
}

// Progress returns a callback that enqueues snapshots tagged with the page
// running the transfer. Snapshots are dropped rather than stall a transfer
// when the loop is behind; the next one supersedes them.
func (p *Pump) Progress(from page) func(network.Progress) {
	return func(pr network.Progress) {
		select {
		case p.ch <- progressMsg{From: from, Progress: pr}:
		default:
		}
	}
}

// Send enqueues msg, blocking until there is room.
func (p *Pump) Send(msg tea.Msg) {
	p.ch <- msg
}

// WaitForMsg is a tea.Cmd that waits for the next pumped message.
func (p *Pump) WaitForMsg() tea.Msg {
	return pumpedMsg{Msg: <-p.ch}
}

// pumpedMsg marks a message delivered by the pump so the root knows to
// re-arm WaitForMsg exactly once per delivery.
type pumpedMsg struct {
	Msg tea.Msg
}

type progressMsg struct {
	From page
	network.Progress
}
