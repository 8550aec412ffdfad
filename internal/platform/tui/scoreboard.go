package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/flaprace/internal/core"
	"github.com/vovakirdan/flaprace/internal/storage"
)

// ScoreboardModel shows the local leaderboard as a scrollable table.
type ScoreboardModel struct {
	tbl        table.Model
	width      int
	height     int
	loadErr    error
	backToMenu bool
	quitting   bool
}

// NewScoreboardModel loads the leaderboard and builds the table.
func NewScoreboardModel(store *storage.Store, rt core.RuntimeConfig) ScoreboardModel {
	columns := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Player", Width: 20},
		{Title: "Best", Width: 8},
	}

	var rows []table.Row
	var loadErr error
	if store != nil {
		entries, err := store.TopPlayers(20)
		if err != nil {
			loadErr = err
		}
		for i, e := range entries {
			rows = append(rows, table.Row{
				fmt.Sprintf("%d", i+1),
				e.DisplayName,
				fmt.Sprintf("%d", e.BestScore),
			})
		}
	}

	tbl := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(core.Min(len(rows)+1, rt.ScreenH-6)),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).Foreground(lipgloss.Color("11"))
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("14"))
	tbl.SetStyles(styles)

	return ScoreboardModel{
		tbl:     tbl,
		width:   rt.ScreenW,
		height:  rt.ScreenH,
		loadErr: loadErr,
	}
}

// Init is a no-op.
func (m ScoreboardModel) Init() tea.Cmd {
	return nil
}

// Update handles table navigation and dismissal.
func (m ScoreboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "esc", "b", "enter":
			m.backToMenu = true
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.tbl, cmd = m.tbl.Update(msg)
	return m, cmd
}

// View renders the table.
func (m ScoreboardModel) View() string {
	if m.quitting {
		return ""
	}

	body := menuTitleStyle.Render("LEADERBOARD") + "\n\n"
	if m.loadErr != nil {
		body += errorStyle.Render("could not load scores")
	} else if len(m.tbl.Rows()) == 0 {
		body += menuItemStyle.Render("no scores yet - go fly!")
	} else {
		body += m.tbl.View()
	}
	body += "\n\n" + menuFooterStyle.Render("esc back  q quit")

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}

// BackToMenu reports whether the user dismissed the scoreboard.
func (m ScoreboardModel) BackToMenu() bool {
	return m.backToMenu
}

// IsQuitting reports whether the user asked to exit entirely.
func (m ScoreboardModel) IsQuitting() bool {
	return m.quitting
}
