package tui

import (
	"fmt"
	"math/rand/v2"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/flaprace/internal/config"
	"github.com/vovakirdan/flaprace/internal/core"
	"github.com/vovakirdan/flaprace/internal/game"
	"github.com/vovakirdan/flaprace/internal/identity"
	"github.com/vovakirdan/flaprace/internal/storage"
	"github.com/vovakirdan/flaprace/internal/theme"
)

// SoloModel runs a single-player round.
type SoloModel struct {
	game   *game.Solo
	screen *core.Screen
	store  *storage.Store
	user   identity.User
	cfg    config.RaceConfig
	rt     core.RuntimeConfig
	th     theme.Theme

	frame      core.InputFrame
	keyMapper  *KeyMapper
	lastTick   time.Time
	scoreSaved bool
	quitting   bool
	backToMenu bool
}

// NewSoloModel creates the solo model. A zero seed picks a random one.
func NewSoloModel(cfg config.RaceConfig, rt core.RuntimeConfig, store *storage.Store, user identity.User, themeID string, seed int32) SoloModel {
	if seed == 0 {
		seed = rand.Int32()
	}
	return SoloModel{
		game:      game.NewSolo(cfg, seed),
		screen:    core.NewScreen(rt.ScreenW, rt.ScreenH),
		store:     store,
		user:      user,
		cfg:       cfg,
		rt:        rt,
		th:        theme.Get(themeID),
		frame:     core.NewInputFrame(),
		keyMapper: NewKeyMapper(),
	}
}

// Init starts the tick loop.
func (m SoloModel) Init() tea.Cmd {
	return tickCmd(m.rt.TickRate)
}

// Update handles messages.
func (m SoloModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.keyMapper.MapKeyToFrame(msg, &m.frame) {
			m.quitting = true
			return m, tea.Quit
		}
		if m.frame.Has(core.ActionBack) && m.game.Over() {
			m.backToMenu = true
			return m, nil
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.rt.ScreenW = msg.Width
		m.rt.ScreenH = msg.Height
		m.screen.Resize(msg.Width, msg.Height)
		return m, nil

	case TickMsg:
		return m.handleTick()
	}
	return m, nil
}

func (m SoloModel) handleTick() (tea.Model, tea.Cmd) {
	if m.frame.Has(core.ActionRestart) && m.game.Over() {
		m.game.Reset(rand.Int32())
		m.scoreSaved = false
		m.frame.Clear()
		return m, tickCmd(m.rt.TickRate)
	}

	dt := 1.0 / float64(m.rt.TickRate)
	m.game.Step(dt, m.frame.Has(core.ActionFlap))

	if m.game.Over() && !m.scoreSaved {
		if m.store != nil && m.game.Score() > 0 {
			// Best-effort saves; the round is over either way.
			m.store.SaveSoloScore(m.th.ID, m.game.Score())
			m.store.SubmitBest(m.user.ID, m.user.DisplayName, m.game.Score())
		}
		m.scoreSaved = true
	}

	m.frame.Clear()
	return m, tickCmd(m.rt.TickRate)
}

// View renders the round.
func (m SoloModel) View() string {
	if m.quitting {
		return ""
	}

	m.screen.Clear()
	v := newWorldView(m.cfg.Course, m.th, m.rt.ScreenW, m.rt.ScreenH)

	bird := m.game.Bird()
	v.draw(m.screen, m.game.Course().Pipes(), []birdSprite{{
		X:        bird.X,
		Y:        bird.Y,
		Rotation: bird.Rotation,
		WingUp:   bird.WingUp,
		Dead:     m.game.Over(),
		Color:    m.th.BirdColor,
	}})

	m.screen.DrawTextColored(2, 0, fmt.Sprintf("Score: %d", m.game.Score()), core.ColorBrightWhite)
	if m.game.Over() {
		m.screen.DrawTextCentered(m.rt.ScreenH/2-1, "GAME OVER")
		m.screen.DrawTextCentered(m.rt.ScreenH/2, fmt.Sprintf("Score: %d", m.game.Score()))
		m.screen.DrawTextCentered(m.rt.ScreenH/2+1, "[r] retry  [esc] menu  [q] quit")
	}

	return RenderScreen(m.screen)
}

// IsQuitting reports whether the user asked to exit entirely.
func (m SoloModel) IsQuitting() bool {
	return m.quitting
}

// BackToMenu reports whether the user asked to return to the menu.
func (m SoloModel) BackToMenu() bool {
	return m.backToMenu
}
