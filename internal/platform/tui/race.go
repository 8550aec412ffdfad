package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/flaprace/internal/config"
	"github.com/vovakirdan/flaprace/internal/core"
	"github.com/vovakirdan/flaprace/internal/identity"
	"github.com/vovakirdan/flaprace/internal/lobby"
	"github.com/vovakirdan/flaprace/internal/session"
	"github.com/vovakirdan/flaprace/internal/storage"
	"github.com/vovakirdan/flaprace/internal/store"
	"github.com/vovakirdan/flaprace/internal/theme"
)

type racePhase int

const (
	phaseModeSelect racePhase = iota
	phaseCodeEntry
	phaseLobby
	phaseCountdown
	phaseRacing
	phaseResults
)

// Store event messages delivered through the Bubble Tea loop. Each carries
// the subscription it came from: an event may arrive after its session was
// torn down and replaced, and acting on it would wreck the replacement.
type (
	metaEventMsg struct {
		sub *store.Subscription[store.MetaEvent]
		evt store.MetaEvent
	}
	playersEventMsg struct {
		sub *store.Subscription[store.PlayersEvent]
		evt store.PlayersEvent
	}
	subClosedMsg struct{}

	lobbyCreatedMsg struct {
		code string
		err  error
	}
	lobbyJoinedMsg struct {
		err error
	}
)

// RaceFlowModel drives the full multiplayer flow: create/join, waiting room,
// countdown, race, results, rematch.
type RaceFlowModel struct {
	repo    store.Repository
	lob     *lobby.Session
	race    *session.Race
	cfg     config.RaceConfig
	rt      core.RuntimeConfig
	scores  *storage.Store
	user    identity.User
	logger  *log.Logger
	screen  *core.Screen
	ctx     context.Context
	themeID string

	phase     racePhase
	cursor    int
	codeInput textinput.Model
	errMsg    string

	meta    store.LobbyMeta
	players map[string]store.PlayerRecord

	metaSub    *store.Subscription[store.MetaEvent]
	playersSub *store.Subscription[store.PlayersEvent]

	keyMapper  *KeyMapper
	resultSave bool
	quitting   bool
	backToMenu bool
}

// NewRaceFlowModel creates the multiplayer flow model.
func NewRaceFlowModel(repo store.Repository, cfg config.RaceConfig, rt core.RuntimeConfig, scores *storage.Store, user identity.User, themeID string, logger *log.Logger) RaceFlowModel {
	ti := textinput.New()
	ti.Placeholder = "ABC234"
	ti.CharLimit = lobby.CodeLength
	ti.Width = lobby.CodeLength + 2

	if logger == nil {
		logger = log.Default()
	}

	return RaceFlowModel{
		repo:      repo,
		lob:       lobby.NewSession(repo, user, lobby.WithCustomization(theme.CustomizationFor(user.ID))),
		cfg:       cfg,
		rt:        rt,
		scores:    scores,
		user:      user,
		logger:    logger,
		screen:    core.NewScreen(rt.ScreenW, rt.ScreenH),
		ctx:       context.Background(),
		themeID:   themeID,
		codeInput: ti,
		players:   make(map[string]store.PlayerRecord),
		keyMapper: NewKeyMapper(),
	}
}

// Init is a no-op; the flow starts at mode selection.
func (m RaceFlowModel) Init() tea.Cmd {
	return nil
}

// waitMeta forwards the next metadata event into the program loop.
func waitMeta(sub *store.Subscription[store.MetaEvent]) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-sub.C
		if !ok {
			return subClosedMsg{}
		}
		return metaEventMsg{sub: sub, evt: evt}
	}
}

func waitPlayers(sub *store.Subscription[store.PlayersEvent]) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-sub.C
		if !ok {
			return subClosedMsg{}
		}
		return playersEventMsg{sub: sub, evt: evt}
	}
}

// Update handles messages.
func (m RaceFlowModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.rt.ScreenW = msg.Width
		m.rt.ScreenH = msg.Height
		m.screen.Resize(msg.Width, msg.Height)
		return m, nil

	case lobbyCreatedMsg:
		if msg.err != nil {
			m.errMsg = admissionError(msg.err)
			return m, nil
		}
		return m.enterLobby()

	case lobbyJoinedMsg:
		if msg.err != nil {
			m.errMsg = admissionError(msg.err)
			return m, nil
		}
		return m.enterLobby()

	case metaEventMsg:
		if msg.sub != m.metaSub {
			return m, nil
		}
		return m.handleMeta(msg.evt)

	case playersEventMsg:
		if msg.sub != m.playersSub {
			return m, nil
		}
		m.players = msg.evt.Players
		if m.race != nil {
			m.race.HandlePlayers(msg.evt)
		}
		return m, waitPlayers(m.playersSub)

	case subClosedMsg:
		return m, nil

	case TickMsg:
		return m.handleTick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m RaceFlowModel) enterLobby() (tea.Model, tea.Cmd) {
	m.phase = phaseLobby
	m.errMsg = ""
	m.metaSub = m.lob.WatchMeta()
	m.playersSub = m.lob.WatchPlayers()
	return m, tea.Batch(waitMeta(m.metaSub), waitPlayers(m.playersSub))
}

func (m RaceFlowModel) handleMeta(evt store.MetaEvent) (tea.Model, tea.Cmd) {
	if evt.Deleted {
		m.teardown()
		m.resetSession()
		m.phase = phaseModeSelect
		m.errMsg = "lobby closed"
		return m, nil
	}
	m.meta = evt.Meta

	switch evt.Meta.Status {
	case store.StatusCountdown:
		if m.phase == phaseLobby {
			return m.beginCountdown()
		}
	case store.StatusWaiting:
		// Rematch reset landed: back to the waiting room. Every member
		// scrubs its own record here, so the previous match's death and
		// score never leak into the next one.
		if m.phase == phaseResults {
			m.disposeRace()
			m.phase = phaseLobby
			lob, ctx, logger := m.lob, m.ctx, m.logger
			reset := func() tea.Msg {
				if err := lob.ResetForRematch(ctx); err != nil {
					logger.Warn("rematch reset failed", "err", err)
				}
				return nil
			}
			return m, tea.Batch(reset, waitMeta(m.metaSub))
		}
	case store.StatusFinished:
		if m.phase == phaseRacing {
			m.phase = phaseResults
			m.saveResults()
		}
	}
	return m, waitMeta(m.metaSub)
}

func (m RaceFlowModel) beginCountdown() (tea.Model, tea.Cmd) {
	m.race = session.NewRace(m.cfg, m.lob, m.meta, session.WithLogger(m.logger))
	m.race.InitRemotePlayers(m.players)
	m.phase = phaseCountdown

	// Push one state snapshot immediately; its echoed store timestamp is the
	// single sample the shared-clock calibration uses.
	bird := m.race.LocalBird()
	snap := store.StateSnapshot{Y: bird.Y, Velocity: bird.Velocity, Rotation: bird.Rotation}
	calibrate := func() tea.Msg {
		if err := m.lob.ReportState(m.ctx, snap); err != nil {
			m.logger.Warn("calibration push failed", "err", err)
		}
		return nil
	}

	return m, tea.Batch(calibrate, waitMeta(m.metaSub), tickCmd(m.rt.TickRate))
}

func (m RaceFlowModel) handleTick() (tea.Model, tea.Cmd) {
	switch m.phase {
	case phaseCountdown:
		if m.race.Begun() {
			m.phase = phaseRacing
			if m.isHost() {
				go func() {
					if err := m.lob.SetPlaying(m.ctx); err != nil {
						m.logger.Warn("set playing failed", "err", err)
					}
				}()
			}
		}
		return m, tickCmd(m.rt.TickRate)

	case phaseRacing:
		dt := 1.0 / float64(m.rt.TickRate)
		m.race.Tick(m.ctx, dt)

		if m.race.Ended() {
			m.phase = phaseResults
			m.saveResults()
			if m.isHost() {
				go func() {
					if err := m.lob.Finish(m.ctx); err != nil {
						m.logger.Warn("finish failed", "err", err)
					}
				}()
			}
		}
		return m, tickCmd(m.rt.TickRate)
	}
	return m, nil
}

func (m *RaceFlowModel) saveResults() {
	if m.scores == nil || m.resultSave {
		return
	}
	m.resultSave = true

	placements := m.race.Placements()
	results := make([]storage.RaceResult, 0, len(placements))
	for _, p := range placements {
		results = append(results, storage.RaceResult{
			LobbyCode:   m.lob.Code(),
			ThemeID:     m.meta.ThemeID,
			PlayerID:    p.UID,
			DisplayName: p.DisplayName,
			Score:       p.Score,
			Rank:        p.Rank,
			Survived:    p.Alive,
		})
	}
	if err := m.scores.SaveRaceResults(results); err != nil {
		m.logger.Warn("race results not saved", "err", err)
	}
	if err := m.scores.SubmitBest(m.user.ID, m.user.DisplayName, m.race.LocalScore()); err != nil {
		m.logger.Warn("best score not saved", "err", err)
	}
}

func (m RaceFlowModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.leaveAndClose()
		m.quitting = true
		return m, tea.Quit
	}

	switch m.phase {
	case phaseModeSelect:
		return m.handleModeSelectKey(msg)
	case phaseCodeEntry:
		return m.handleCodeEntryKey(msg)
	case phaseLobby:
		return m.handleLobbyKey(msg)
	case phaseRacing, phaseCountdown:
		switch msg.String() {
		case " ", "up", "w":
			if m.phase == phaseRacing {
				m.race.Flap(m.ctx)
			}
		case "q":
			m.leaveAndClose()
			m.quitting = true
			return m, tea.Quit
		}
	case phaseResults:
		return m.handleResultsKey(msg)
	}
	return m, nil
}

func (m RaceFlowModel) handleModeSelectKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.keyMapper.MapKeyToMenuAction(msg) {
	case MenuActionQuit, MenuActionBack:
		m.backToMenu = true
		return m, nil
	case MenuActionUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case MenuActionDown:
		if m.cursor < 1 {
			m.cursor++
		}
	case MenuActionSelect:
		m.errMsg = ""
		if m.cursor == 0 {
			lob, themeID, ctx := m.lob, m.themeID, m.ctx
			return m, func() tea.Msg {
				code, err := lob.Create(ctx, themeID)
				return lobbyCreatedMsg{code: code, err: err}
			}
		}
		m.phase = phaseCodeEntry
		m.codeInput.SetValue("")
		return m, m.codeInput.Focus()
	}
	return m, nil
}

func (m RaceFlowModel) handleCodeEntryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.phase = phaseModeSelect
		m.errMsg = ""
		return m, nil
	case "enter":
		code := m.codeInput.Value()
		lob, ctx := m.lob, m.ctx
		return m, func() tea.Msg {
			return lobbyJoinedMsg{err: lob.Join(ctx, code)}
		}
	}

	var cmd tea.Cmd
	m.codeInput, cmd = m.codeInput.Update(msg)
	return m, cmd
}

func (m RaceFlowModel) handleLobbyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "b":
		m.leaveAndClose()
		m.resetSession()
		m.phase = phaseModeSelect
		return m, nil
	case "q":
		m.leaveAndClose()
		m.quitting = true
		return m, tea.Quit
	case "s":
		if m.isHost() && len(m.players) >= 2 {
			lob, ctx, logger := m.lob, m.ctx, m.logger
			return m, func() tea.Msg {
				if err := lob.Start(ctx); err != nil {
					logger.Warn("start failed", "err", err)
				}
				return nil
			}
		}
	case "t":
		if m.isHost() {
			next := nextThemeID(m.meta.ThemeID)
			lob, ctx, logger := m.lob, m.ctx, m.logger
			return m, func() tea.Msg {
				if err := lob.SetTheme(ctx, next); err != nil {
					logger.Warn("theme change failed", "err", err)
				}
				return nil
			}
		}
	}
	return m, nil
}

func (m RaceFlowModel) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		lob, ctx, host, logger := m.lob, m.ctx, m.isHost(), m.logger
		m.resultSave = false
		return m, func() tea.Msg {
			if err := lob.ResetForRematch(ctx); err != nil {
				logger.Warn("rematch reset failed", "err", err)
				return nil
			}
			if host {
				if err := lob.ResetLobbyForRematch(ctx); err != nil {
					logger.Warn("lobby rematch reset failed", "err", err)
				}
			}
			return nil
		}
	case "esc", "b":
		m.leaveAndClose()
		m.backToMenu = true
		return m, nil
	case "q":
		m.leaveAndClose()
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *RaceFlowModel) isHost() bool {
	return m.meta.HostID == m.user.ID
}

func (m *RaceFlowModel) disposeRace() {
	if m.race != nil {
		m.race.Cleanup()
		m.race = nil
	}
	m.resultSave = false
}

// resetSession replaces a closed lobby session with a fresh one, so the next
// create/join owns live subscriptions.
func (m *RaceFlowModel) resetSession() {
	m.lob = lobby.NewSession(m.repo, m.user, lobby.WithCustomization(theme.CustomizationFor(m.user.ID)))
}

func (m *RaceFlowModel) teardown() {
	m.disposeRace()
	m.lob.Close()
	m.metaSub = nil
	m.playersSub = nil
	m.players = map[string]store.PlayerRecord{}
	m.meta = store.LobbyMeta{}
}

func (m *RaceFlowModel) leaveAndClose() {
	if m.lob.Code() != "" {
		if err := m.lob.Leave(m.ctx); err != nil {
			m.logger.Debug("leave failed", "err", err)
		}
	}
	m.teardown()
}

// admissionError renders admission failures as the inline form errors the
// user sees.
func admissionError(err error) string {
	switch err {
	case lobby.ErrBadCode:
		return "that code doesn't look right"
	case lobby.ErrLobbyNotFound:
		return "no lobby with that code"
	case lobby.ErrLobbyFull:
		return "lobby is full"
	case lobby.ErrLobbyStarted:
		return "race already started"
	case lobby.ErrCreateFailed:
		return "could not create a lobby, try again"
	}
	return fmt.Sprintf("something went wrong: %v", err)
}

func nextThemeID(current string) string {
	infos := theme.List()
	for i, info := range infos {
		if info.ID == current {
			return infos[(i+1)%len(infos)].ID
		}
	}
	return theme.DefaultID
}

// View renders the current phase.
func (m RaceFlowModel) View() string {
	if m.quitting {
		return ""
	}

	switch m.phase {
	case phaseModeSelect:
		return m.viewModeSelect()
	case phaseCodeEntry:
		return m.viewCodeEntry()
	case phaseLobby:
		return m.viewLobby()
	case phaseCountdown, phaseRacing:
		return m.viewRace()
	case phaseResults:
		return m.viewResults()
	}
	return ""
}

func (m RaceFlowModel) viewModeSelect() string {
	var sb strings.Builder
	sb.WriteString(menuTitleStyle.Render("MULTIPLAYER RACE"))
	sb.WriteString("\n\n")
	for i, label := range []string{"Create lobby", "Join with code"} {
		if i == m.cursor {
			sb.WriteString(menuCursorStyle.Render("> " + label))
		} else {
			sb.WriteString(menuItemStyle.Render("  " + label))
		}
		sb.WriteString("\n")
	}
	if m.errMsg != "" {
		sb.WriteString("\n" + errorStyle.Render(m.errMsg))
	}
	sb.WriteString("\n\n")
	sb.WriteString(menuFooterStyle.Render("enter select  esc back"))
	return lipgloss.Place(m.rt.ScreenW, m.rt.ScreenH, lipgloss.Center, lipgloss.Center, sb.String())
}

func (m RaceFlowModel) viewCodeEntry() string {
	var sb strings.Builder
	sb.WriteString(menuTitleStyle.Render("JOIN LOBBY"))
	sb.WriteString("\n\n")
	sb.WriteString("Code: " + m.codeInput.View())
	if m.errMsg != "" {
		sb.WriteString("\n\n" + errorStyle.Render(m.errMsg))
	}
	sb.WriteString("\n\n")
	sb.WriteString(menuFooterStyle.Render("enter join  esc back"))
	return lipgloss.Place(m.rt.ScreenW, m.rt.ScreenH, lipgloss.Center, lipgloss.Center, sb.String())
}

func (m RaceFlowModel) viewLobby() string {
	th := theme.Get(m.meta.ThemeID)

	var sb strings.Builder
	sb.WriteString(menuTitleStyle.Render("LOBBY  " + m.lob.Code()))
	sb.WriteString("\n\n")
	sb.WriteString(menuItemStyle.Render(fmt.Sprintf("Theme: %s", th.Title)))
	sb.WriteString("\n\n")

	uids := make([]string, 0, len(m.players))
	for uid := range m.players {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	for _, uid := range uids {
		rec := m.players[uid]
		line := "  " + rec.DisplayName
		if uid == m.meta.HostID {
			line += "  (host)"
		}
		if !rec.Connected {
			line += "  [disconnected]"
		}
		sb.WriteString(menuItemStyle.Render(line))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	if m.isHost() {
		if len(m.players) >= 2 {
			sb.WriteString(menuFooterStyle.Render("s start  t theme  esc leave"))
		} else {
			sb.WriteString(menuFooterStyle.Render("waiting for players...  t theme  esc leave"))
		}
	} else {
		sb.WriteString(menuFooterStyle.Render("waiting for the host to start  esc leave"))
	}
	return lipgloss.Place(m.rt.ScreenW, m.rt.ScreenH, lipgloss.Center, lipgloss.Center, sb.String())
}

func (m RaceFlowModel) viewRace() string {
	th := theme.Get(m.meta.ThemeID)
	m.screen.Clear()
	v := newWorldView(m.cfg.Course, th, m.rt.ScreenW, m.rt.ScreenH)

	sprites := make([]birdSprite, 0, 8)
	for _, rp := range m.race.Remotes() {
		if !rp.Connected && !rp.Alive {
			continue
		}
		sprites = append(sprites, birdSprite{
			X:        rp.Bird.X,
			Y:        rp.Bird.Y,
			Rotation: rp.Bird.Rotation,
			WingUp:   rp.Bird.WingUp,
			Dead:     !rp.Alive,
			Color:    theme.BirdColorOf(rp.Customization, th),
			Hat:      theme.HatRuneOf(rp.Customization),
			Label:    rp.DisplayName,
		})
	}
	local := m.race.LocalBird()
	sprites = append(sprites, birdSprite{
		X:        local.X,
		Y:        local.Y,
		Rotation: local.Rotation,
		WingUp:   local.WingUp,
		Dead:     !m.race.LocalAlive(),
		Color:    theme.BirdColorOf(theme.CustomizationFor(m.user.ID), th),
	})

	v.draw(m.screen, m.race.Course().Pipes(), sprites)

	m.screen.DrawTextColored(2, 0, fmt.Sprintf("Score: %d", m.race.LocalScore()), core.ColorBrightWhite)
	m.screen.DrawTextColored(m.rt.ScreenW-14, 0, fmt.Sprintf("Alive: %d", len(m.race.AlivePlayers())), core.ColorBrightWhite)

	if m.phase == phaseCountdown {
		remaining := m.race.CountdownRemaining()
		text := fmt.Sprintf("Starting in %d...", remaining)
		if remaining == 0 {
			text = "GO!"
		}
		m.screen.DrawTextCentered(m.rt.ScreenH/2, text)
	} else if !m.race.LocalAlive() {
		m.screen.DrawTextCentered(1, "crashed - spectating")
	}

	return RenderScreen(m.screen)
}

func (m RaceFlowModel) viewResults() string {
	var sb strings.Builder
	sb.WriteString(menuTitleStyle.Render("RACE RESULTS"))
	sb.WriteString("\n\n")

	for _, p := range m.race.Placements() {
		marker := "  "
		if p.UID == m.user.ID {
			marker = "» "
		}
		status := ""
		if p.Alive {
			status = "  (survived)"
		}
		sb.WriteString(menuItemStyle.Render(fmt.Sprintf("%s%d. %-16s %3d%s", marker, p.Rank, p.DisplayName, p.Score, status)))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(menuFooterStyle.Render("r rematch  esc menu  q quit"))
	return lipgloss.Place(m.rt.ScreenW, m.rt.ScreenH, lipgloss.Center, lipgloss.Center, sb.String())
}

// IsQuitting reports whether the user asked to exit entirely.
func (m RaceFlowModel) IsQuitting() bool {
	return m.quitting
}

// BackToMenu reports whether the user asked to return to the menu.
func (m RaceFlowModel) BackToMenu() bool {
	return m.backToMenu
}

var errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
