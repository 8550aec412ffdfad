// Package tui provides the Bubble Tea integration: the frame loop, key
// mapping, the world renderer, and the menu/lobby/race/results flow. It is
// the only package that talks to the terminal; game and session logic stay
// free of Bubble Tea.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg is sent to trigger a simulation tick.
type TickMsg time.Time

// tickCmd returns a Bubble Tea command that sends tick messages at the
// specified rate.
func tickCmd(tickRate int) tea.Cmd {
	interval := time.Second / time.Duration(tickRate)
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
