// Package lobby implements the client-side lobby protocol: code generation,
// admission, host transfer, lifecycle transitions, and the per-player report
// calls the race loop uses. All cross-client state lives in the replicated
// store; a Session only tracks which lobby it is in and the subscriptions it
// owns, so tearing the Session down deterministically silences every
// listener.
package lobby

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"

	"github.com/vovakirdan/flaprace/internal/identity"
	"github.com/vovakirdan/flaprace/internal/store"
)

// Alphabet is the join-code symbol set. No I, L, O, 0, or 1, so codes read
// unambiguously over voice chat.
const Alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// CodeLength is the fixed join-code length.
const CodeLength = 6

// createRetries bounds collision retries before Create gives up.
const createRetries = 5

var (
	// ErrBadCode means the code is malformed (wrong length or symbol).
	ErrBadCode = errors.New("lobby: malformed join code")

	// ErrLobbyNotFound means the code names no live lobby.
	ErrLobbyNotFound = errors.New("lobby: not found")

	// ErrLobbyFull means the lobby already has the maximum player count.
	ErrLobbyFull = errors.New("lobby: full")

	// ErrLobbyStarted means the lobby is past waiting and closed to joins.
	ErrLobbyStarted = errors.New("lobby: already started")

	// ErrCreateFailed means code generation kept colliding.
	ErrCreateFailed = errors.New("lobby: could not allocate a code")

	// ErrNotInLobby means the session has no current lobby.
	ErrNotInLobby = errors.New("lobby: not in a lobby")
)

// MaxPlayers caps lobby membership.
const MaxPlayers = 8

type cancelable interface{ Cancel() }

// Session is one client's handle on the lobby protocol. Not safe for
// concurrent mutation; the single-threaded orchestrator owns it.
type Session struct {
	repo store.Repository
	user identity.User

	connID string
	code   string
	custom store.Customization

	flapSeq int

	newCode func() string
	newSeed func() int32

	mu     sync.Mutex
	subs   []cancelable
	closed bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithConnID names the connection for disconnect arming. Defaults to the
// user id, which is right for one connection per player.
func WithConnID(id string) SessionOption {
	return func(s *Session) { s.connID = id }
}

// WithCustomization sets the cosmetic payload attached to the player record
// on join.
func WithCustomization(c store.Customization) SessionOption {
	return func(s *Session) { s.custom = c }
}

// WithCodeSource overrides join-code generation (collision tests).
func WithCodeSource(fn func() string) SessionOption {
	return func(s *Session) { s.newCode = fn }
}

// WithSeedSource overrides match seed generation (determinism tests).
func WithSeedSource(fn func() int32) SessionOption {
	return func(s *Session) { s.newSeed = fn }
}

// NewSession creates a session for one player.
func NewSession(repo store.Repository, user identity.User, opts ...SessionOption) *Session {
	s := &Session{
		repo:    repo,
		user:    user,
		connID:  user.ID,
		newCode: randomCode,
		newSeed: rand.Int32,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Code returns the current lobby code, empty when not in a lobby.
func (s *Session) Code() string {
	return s.code
}

// User returns the player this session acts for.
func (s *Session) User() identity.User {
	return s.user
}

// Create allocates a lobby, claims a fresh code (retrying on collision up to
// the bound), and joins the creator as host.
func (s *Session) Create(ctx context.Context, themeID string) (string, error) {
	for attempt := 0; attempt < createRetries; attempt++ {
		code := s.newCode()
		err := s.repo.CreateLobby(ctx, code, store.LobbyMeta{
			HostID:  s.user.ID,
			ThemeID: themeID,
			Status:  store.StatusWaiting,
			Seed:    s.newSeed(),
		})
		if errors.Is(err, store.ErrLobbyExists) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("lobby: create: %w", err)
		}
		if err := s.enter(ctx, code); err != nil {
			return "", err
		}
		return code, nil
	}
	return "", ErrCreateFailed
}

// Join validates the code and admission rules, then enters the lobby.
// The capacity check is read-then-write without a transaction; concurrent
// joins against a near-full lobby can over-admit, which is accepted.
func (s *Session) Join(ctx context.Context, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !validCode(code) {
		return ErrBadCode
	}

	meta, err := s.repo.Meta(ctx, code)
	if errors.Is(err, store.ErrLobbyNotFound) {
		return ErrLobbyNotFound
	}
	if err != nil {
		return fmt.Errorf("lobby: join: %w", err)
	}
	if meta.Status != store.StatusWaiting {
		return ErrLobbyStarted
	}

	players, err := s.repo.Players(ctx, code)
	if err != nil {
		return fmt.Errorf("lobby: join: %w", err)
	}
	if len(players) >= MaxPlayers {
		return ErrLobbyFull
	}

	return s.enter(ctx, code)
}

func (s *Session) enter(ctx context.Context, code string) error {
	rec := store.PlayerRecord{
		DisplayName:   s.user.DisplayName,
		Customization: s.custom,
		Alive:         true,
		Connected:     true,
	}
	if err := s.repo.PutPlayer(ctx, code, s.user.ID, rec); err != nil {
		return fmt.Errorf("lobby: register player: %w", err)
	}
	s.repo.ArmDisconnect(s.connID, code, s.user.ID)
	s.code = code
	s.flapSeq = 0
	return nil
}

// Leave removes the player. The last player out deletes the lobby; a leaving
// host hands the lobby to the lowest remaining uid so every client picks the
// same successor without coordination.
func (s *Session) Leave(ctx context.Context) error {
	if s.code == "" {
		return ErrNotInLobby
	}
	code := s.code
	s.code = ""
	s.repo.DisarmDisconnect(s.connID)

	if err := s.repo.RemovePlayer(ctx, code, s.user.ID); err != nil {
		if errors.Is(err, store.ErrLobbyNotFound) || errors.Is(err, store.ErrPlayerNotFound) {
			return nil
		}
		return fmt.Errorf("lobby: leave: %w", err)
	}

	players, err := s.repo.Players(ctx, code)
	if err != nil {
		return nil // lobby raced away, nothing left to clean
	}
	if len(players) == 0 {
		_ = s.repo.DeleteLobby(ctx, code)
		return nil
	}

	meta, err := s.repo.Meta(ctx, code)
	if err != nil {
		return nil
	}
	if meta.HostID == s.user.ID {
		uids := make([]string, 0, len(players))
		for uid := range players {
			uids = append(uids, uid)
		}
		sort.Strings(uids)
		next := uids[0]
		if err := s.repo.PatchMeta(ctx, code, store.MetaPatch{HostID: &next}); err != nil {
			return fmt.Errorf("lobby: transfer host: %w", err)
		}
	}
	return nil
}

// SetTheme changes the lobby's course theme. Host-only by convention; the
// store does not enforce it.
func (s *Session) SetTheme(ctx context.Context, themeID string) error {
	if s.code == "" {
		return ErrNotInLobby
	}
	return s.patchMeta(ctx, store.MetaPatch{ThemeID: &themeID})
}

// Start transitions waiting → countdown and stamps the store-assigned start
// time every client schedules against.
func (s *Session) Start(ctx context.Context) error {
	if s.code == "" {
		return ErrNotInLobby
	}
	status := store.StatusCountdown
	return s.patchMeta(ctx, store.MetaPatch{Status: &status, StampStartTime: true})
}

// SetPlaying transitions countdown → playing.
func (s *Session) SetPlaying(ctx context.Context) error {
	if s.code == "" {
		return ErrNotInLobby
	}
	status := store.StatusPlaying
	return s.patchMeta(ctx, store.MetaPatch{Status: &status})
}

// Finish transitions playing → finished.
func (s *Session) Finish(ctx context.Context) error {
	if s.code == "" {
		return ErrNotInLobby
	}
	status := store.StatusFinished
	return s.patchMeta(ctx, store.MetaPatch{Status: &status})
}

// ResetForRematch clears this player's per-match state: alive, score, flap
// sequence, kinematics, server stamp, and flap log. The stamp must go too,
// or the next match's clock calibration would latch onto an echo from the
// previous one.
func (s *Session) ResetForRematch(ctx context.Context) error {
	if s.code == "" {
		return ErrNotInLobby
	}
	alive := true
	score := 0
	seq := 0
	patch := store.PlayerPatch{Alive: &alive, Score: &score, FlapSeq: &seq, ResetState: true}
	if err := s.repo.PatchPlayer(ctx, s.code, s.user.ID, patch); err != nil {
		return fmt.Errorf("lobby: rematch reset: %w", err)
	}
	if err := s.repo.ClearFlaps(ctx, s.code, s.user.ID); err != nil {
		return fmt.Errorf("lobby: clear flaps: %w", err)
	}
	s.flapSeq = 0
	return nil
}

// ResetLobbyForRematch returns the lobby to waiting with a fresh seed.
// Host-only by convention.
func (s *Session) ResetLobbyForRematch(ctx context.Context) error {
	if s.code == "" {
		return ErrNotInLobby
	}
	meta, err := s.repo.Meta(ctx, s.code)
	if err != nil {
		return fmt.Errorf("lobby: rematch: %w", err)
	}
	seed := s.newSeed()
	for seed == meta.Seed {
		seed = s.newSeed()
	}
	status := store.StatusWaiting
	return s.patchMeta(ctx, store.MetaPatch{
		Status:         &status,
		Seed:           &seed,
		ClearStartTime: true,
	})
}

func (s *Session) patchMeta(ctx context.Context, patch store.MetaPatch) error {
	if err := s.repo.PatchMeta(ctx, s.code, patch); err != nil {
		return fmt.Errorf("lobby: patch meta: %w", err)
	}
	return nil
}

// WatchMeta subscribes to lobby metadata changes. The subscription is owned
// by the session and canceled on Close.
func (s *Session) WatchMeta() *store.Subscription[store.MetaEvent] {
	sub := s.repo.WatchMeta(s.code)
	s.track(sub)
	return sub
}

// WatchPlayers subscribes to full player-set changes.
func (s *Session) WatchPlayers() *store.Subscription[store.PlayersEvent] {
	sub := s.repo.WatchPlayers(s.code)
	s.track(sub)
	return sub
}

// WatchFlaps subscribes to one remote player's flap log.
func (s *Session) WatchFlaps(uid string) *store.Subscription[store.FlapDelivery] {
	sub := s.repo.WatchFlaps(s.code, uid)
	s.track(sub)
	return sub
}

// ReportFlap publishes one flap: bumps the sequence counter and appends to
// the log. Fire-and-forget from the caller's perspective; a failed append is
// tolerated.
func (s *Session) ReportFlap(ctx context.Context, offsetMillis int64) error {
	if s.code == "" {
		return ErrNotInLobby
	}
	s.flapSeq++
	seq := s.flapSeq
	if err := s.repo.PatchPlayer(ctx, s.code, s.user.ID, store.PlayerPatch{FlapSeq: &seq}); err != nil {
		return fmt.Errorf("lobby: report flap: %w", err)
	}
	if _, err := s.repo.AppendFlap(ctx, s.code, s.user.ID, store.FlapEvent{OffsetMillis: offsetMillis}); err != nil {
		return fmt.Errorf("lobby: report flap: %w", err)
	}
	return nil
}

// ReportState publishes a state snapshot. The store stamps the timestamp.
func (s *Session) ReportState(ctx context.Context, snap store.StateSnapshot) error {
	if s.code == "" {
		return ErrNotInLobby
	}
	if err := s.repo.PushState(ctx, s.code, s.user.ID, snap); err != nil {
		return fmt.Errorf("lobby: report state: %w", err)
	}
	return nil
}

// ReportCrash marks this player dead and freezes the final score in the same
// write, so remote placements never rank a crash against a stale throttled
// push. Position stays as last pushed.
func (s *Session) ReportCrash(ctx context.Context, score int) error {
	if s.code == "" {
		return ErrNotInLobby
	}
	alive := false
	if err := s.repo.PatchPlayer(ctx, s.code, s.user.ID, store.PlayerPatch{Alive: &alive, Score: &score}); err != nil {
		return fmt.Errorf("lobby: report crash: %w", err)
	}
	return nil
}

func (s *Session) track(sub cancelable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		sub.Cancel()
		return
	}
	s.subs = append(s.subs, sub)
}

// Close cancels every subscription the session opened. Idempotent. After
// Close no listener owned by this session fires again.
func (s *Session) Close() {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.closed = true
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
}

func validCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(Alphabet, r) {
			return false
		}
	}
	return true
}

func randomCode() string {
	var b [CodeLength]byte
	for i := range b {
		b[i] = Alphabet[rand.IntN(len(Alphabet))]
	}
	return string(b[:])
}
