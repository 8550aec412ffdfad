package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/flaprace/internal/config"
	"github.com/vovakirdan/flaprace/internal/core"
	"github.com/vovakirdan/flaprace/internal/identity"
	"github.com/vovakirdan/flaprace/internal/storage"
	"github.com/vovakirdan/flaprace/internal/store"
)

// AppModel manages the full session flow: menu -> solo/race/scores -> menu.
// It is the top-level model for both the local CLI and SSH sessions.
type AppModel struct {
	repo    store.Repository
	cfg     config.RaceConfig
	rt      core.RuntimeConfig
	scores  *storage.Store
	user    identity.User
	renamer Renamer
	logger  *log.Logger

	menu  MenuModel
	child tea.Model
	mode  MenuChoice

	quitting bool
}

// NewAppModel creates the session model. renamer may be nil when the display
// name is fixed by the transport.
func NewAppModel(repo store.Repository, cfg config.RaceConfig, rt core.RuntimeConfig, scores *storage.Store, user identity.User, renamer Renamer, logger *log.Logger) AppModel {
	if logger == nil {
		logger = log.Default()
	}
	return AppModel{
		repo:    repo,
		cfg:     cfg,
		rt:      rt,
		scores:  scores,
		user:    user,
		renamer: renamer,
		logger:  logger,
		menu:    NewMenuModel(rt, user, renamer),
	}
}

// Init initializes the menu.
func (m AppModel) Init() tea.Cmd {
	return m.menu.Init()
}

// Update routes messages to the active child or the menu.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.rt.ScreenW = wsm.Width
		m.rt.ScreenH = wsm.Height
	}

	if m.mode != MenuChoiceNone && m.child != nil {
		return m.updateChild(msg)
	}
	return m.updateMenu(msg)
}

func (m AppModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	newMenu, cmd := m.menu.Update(msg)
	if menuModel, ok := newMenu.(MenuModel); ok {
		m.menu = menuModel
	}
	m.user = m.menu.CurrentUser()

	if m.menu.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.menu.Selected() {
	case MenuChoiceSolo:
		m.mode = MenuChoiceSolo
		m.child = NewSoloModel(m.cfg, m.rt, m.scores, m.user, m.menu.ThemeID(), 0)
		m.menu.ClearSelection()
		return m, m.child.Init()
	case MenuChoiceRace:
		m.mode = MenuChoiceRace
		m.child = NewRaceFlowModel(m.repo, m.cfg, m.rt, m.scores, m.user, m.menu.ThemeID(), m.logger)
		m.menu.ClearSelection()
		return m, m.child.Init()
	case MenuChoiceScores:
		m.mode = MenuChoiceScores
		m.child = NewScoreboardModel(m.scores, m.rt)
		m.menu.ClearSelection()
		return m, m.child.Init()
	}

	return m, cmd
}

func (m AppModel) updateChild(msg tea.Msg) (tea.Model, tea.Cmd) {
	child, cmd := m.child.Update(msg)
	m.child = child

	type childState interface {
		IsQuitting() bool
		BackToMenu() bool
	}
	if cs, ok := child.(childState); ok {
		if cs.IsQuitting() {
			m.quitting = true
			return m, tea.Quit
		}
		if cs.BackToMenu() {
			m.mode = MenuChoiceNone
			m.child = nil
			m.menu = NewMenuModel(m.rt, m.user, m.renamer)
			return m, m.menu.Init()
		}
	}

	return m, cmd
}

// View renders the active child or the menu.
func (m AppModel) View() string {
	if m.quitting {
		return ""
	}
	if m.mode != MenuChoiceNone && m.child != nil {
		return m.child.View()
	}
	return m.menu.View()
}

// Run starts the local Bubble Tea program.
func Run(repo store.Repository, cfg config.RaceConfig, rt core.RuntimeConfig, scores *storage.Store, user identity.User, renamer Renamer, logger *log.Logger) error {
	model := NewAppModel(repo, cfg, rt, scores, user, renamer, logger)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// soloOnlyModel runs a solo round with no menu behind it, so a back action
// exits the program.
type soloOnlyModel struct {
	SoloModel
}

func (m soloOnlyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	inner, cmd := m.SoloModel.Update(msg)
	if sm, ok := inner.(SoloModel); ok {
		m.SoloModel = sm
	}
	if m.BackToMenu() {
		return m, tea.Quit
	}
	return m, cmd
}

// RunSolo starts a single-player round directly, skipping the menu.
func RunSolo(cfg config.RaceConfig, rt core.RuntimeConfig, scores *storage.Store, user identity.User, themeID string, seed int32) error {
	model := soloOnlyModel{NewSoloModel(cfg, rt, scores, user, themeID, seed)}
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
