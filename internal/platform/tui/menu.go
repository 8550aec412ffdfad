package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/flaprace/internal/core"
	"github.com/vovakirdan/flaprace/internal/identity"
	"github.com/vovakirdan/flaprace/internal/theme"
)

// MenuChoice identifies a main menu entry.
type MenuChoice int

const (
	MenuChoiceNone MenuChoice = iota
	MenuChoiceSolo
	MenuChoiceRace
	MenuChoiceScores
	MenuChoiceQuit
)

type menuItem struct {
	choice MenuChoice
	label  string
}

var menuItems = []menuItem{
	{MenuChoiceSolo, "Solo Flight"},
	{MenuChoiceRace, "Multiplayer Race"},
	{MenuChoiceScores, "Leaderboard"},
	{MenuChoiceQuit, "Quit"},
}

var (
	menuTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	menuCursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	menuItemStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	menuFooterStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	menuSelectedTheme = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// Renamer persists a display name change. Nil when the name is fixed by the
// transport, as it is for SSH logins.
type Renamer interface {
	SetDisplayName(name string) error
}

// MenuModel is the main menu: game mode selection, theme cycling, and
// display name editing when a Renamer is available.
type MenuModel struct {
	cursor    int
	themeIdx  int
	themes    []theme.Info
	width     int
	height    int
	keyMapper *KeyMapper

	user        identity.User
	renamer     Renamer
	editingName bool
	nameInput   textinput.Model

	selected MenuChoice
	quitting bool
}

// NewMenuModel creates the main menu.
func NewMenuModel(rt core.RuntimeConfig, user identity.User, renamer Renamer) MenuModel {
	ti := textinput.New()
	ti.Placeholder = user.DisplayName
	ti.CharLimit = 16
	ti.Width = 18

	return MenuModel{
		themes:    theme.List(),
		width:     rt.ScreenW,
		height:    rt.ScreenH,
		keyMapper: NewKeyMapper(),
		user:      user,
		renamer:   renamer,
		nameInput: ti,
	}
}

// Init is a no-op; the menu waits for input.
func (m MenuModel) Init() tea.Cmd {
	return nil
}

// Update handles menu navigation.
func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.editingName {
			return m.handleNameKey(msg)
		}
		if msg.String() == "t" && len(m.themes) > 0 {
			m.themeIdx = (m.themeIdx + 1) % len(m.themes)
			return m, nil
		}
		if msg.String() == "n" && m.renamer != nil {
			m.editingName = true
			m.nameInput.SetValue(m.user.DisplayName)
			return m, m.nameInput.Focus()
		}
		switch m.keyMapper.MapKeyToMenuAction(msg) {
		case MenuActionQuit:
			m.quitting = true
			return m, tea.Quit
		case MenuActionUp:
			if m.cursor > 0 {
				m.cursor--
			}
		case MenuActionDown:
			if m.cursor < len(menuItems)-1 {
				m.cursor++
			}
		case MenuActionSelect:
			m.selected = menuItems[m.cursor].choice
			if m.selected == MenuChoiceQuit {
				m.quitting = true
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m MenuModel) handleNameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editingName = false
		return m, nil
	case "enter":
		name := strings.TrimSpace(m.nameInput.Value())
		if name != "" && name != m.user.DisplayName {
			if err := m.renamer.SetDisplayName(name); err == nil {
				m.user.DisplayName = name
			}
		}
		m.editingName = false
		return m, nil
	}

	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

// View renders the menu.
func (m MenuModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(menuTitleStyle.Render("F L A P R A C E"))
	sb.WriteString("\n\n")

	for i, item := range menuItems {
		if i == m.cursor {
			sb.WriteString(menuCursorStyle.Render("> " + item.label))
		} else {
			sb.WriteString(menuItemStyle.Render("  " + item.label))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(menuSelectedTheme.Render(fmt.Sprintf("Theme: %s", m.ThemeID())))
	sb.WriteString("\n")
	if m.editingName {
		sb.WriteString("Name: " + m.nameInput.View())
	} else {
		sb.WriteString(menuItemStyle.Render(fmt.Sprintf("Player: %s", m.user.DisplayName)))
	}
	sb.WriteString("\n\n")
	if m.editingName {
		sb.WriteString(menuFooterStyle.Render("enter save  esc cancel"))
	} else if m.renamer != nil {
		sb.WriteString(menuFooterStyle.Render("↑/↓ move  enter select  t theme  n name  q quit"))
	} else {
		sb.WriteString(menuFooterStyle.Render("↑/↓ move  enter select  t theme  q quit"))
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, sb.String())
}

// Selected returns the chosen entry, MenuChoiceNone while still browsing.
func (m MenuModel) Selected() MenuChoice {
	return m.selected
}

// ClearSelection resets the selection after the session model consumed it.
func (m *MenuModel) ClearSelection() {
	m.selected = MenuChoiceNone
}

// CurrentUser returns the identity, including any name edit made here.
func (m MenuModel) CurrentUser() identity.User {
	return m.user
}

// ThemeID returns the currently cycled theme.
func (m MenuModel) ThemeID() string {
	if len(m.themes) == 0 {
		return theme.DefaultID
	}
	return m.themes[m.themeIdx].ID
}

// IsQuitting reports whether the user chose to exit.
func (m MenuModel) IsQuitting() bool {
	return m.quitting
}
