// Package session runs one multiplayer race on a client: locally predicted
// physics for the own bird, buffered interpolation for remote birds, shared
// countdown scheduling, race-end detection, and final placements. All remote
// data arrives through the lobby's store subscriptions; nothing here blocks
// on the network inside the frame loop.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/flaprace/internal/config"
	"github.com/vovakirdan/flaprace/internal/course"
	"github.com/vovakirdan/flaprace/internal/game"
	"github.com/vovakirdan/flaprace/internal/lobby"
	"github.com/vovakirdan/flaprace/internal/store"
)

// RemotePlayer is another client's bird as this client sees it: the latest
// lobby record plus the interpolation buffer driving its on-screen motion.
type RemotePlayer struct {
	UID           string
	DisplayName   string
	Customization store.Customization

	Bird      *game.Bird
	Alive     bool
	Connected bool
	Score     int

	buffer *snapshotBuffer
}

// Race is one client's view of a running match.
type Race struct {
	mu sync.Mutex

	cfg    config.RaceConfig
	lob    *lobby.Session
	meta   store.LobbyMeta
	logger *log.Logger

	course     *course.Course
	local      *game.Bird
	localScore int
	localAlive bool
	crashSent  bool

	remotes map[string]*RemotePlayer

	// offset = localNow - storeNow, calibrated once from the local player's
	// first echoed timestamp. Later echoes are ignored; recalibrating on
	// every echo would jitter the shared clock.
	offset    int64
	offsetSet bool

	lastPush int64
	now      func() int64

	subs []interface{ Cancel() }
}

// RaceOption configures a Race.
type RaceOption func(*Race)

// WithNow overrides the local clock (milliseconds). Tests use this.
func WithNow(now func() int64) RaceOption {
	return func(r *Race) { r.now = now }
}

// WithLogger overrides the race logger.
func WithLogger(logger *log.Logger) RaceOption {
	return func(r *Race) { r.logger = logger }
}

// NewRace builds the match view from the lobby metadata observed at
// countdown. The course is seeded from the shared seed, so every client
// generates the identical obstacle stream locally.
func NewRace(cfg config.RaceConfig, lob *lobby.Session, meta store.LobbyMeta, opts ...RaceOption) *Race {
	r := &Race{
		cfg:        cfg,
		lob:        lob,
		meta:       meta,
		logger:     log.Default(),
		course:     course.New(cfg.Course, meta.Seed),
		local:      game.NewBird(cfg, cfg.Course.BirdX, cfg.Course.WorldH/2),
		localAlive: true,
		remotes:    make(map[string]*RemotePlayer),
		now:        func() int64 { return time.Now().UnixMilli() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// InitRemotePlayers registers every other player from the roster observed at
// match start and subscribes to their flap logs.
func (r *Race) InitRemotePlayers(players map[string]store.PlayerRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	localID := r.lob.User().ID
	for uid, rec := range players {
		if uid == localID {
			continue
		}
		r.addRemoteLocked(uid, rec)
	}
}

// callers hold r.mu
func (r *Race) addRemoteLocked(uid string, rec store.PlayerRecord) {
	rp := &RemotePlayer{
		UID:           uid,
		DisplayName:   rec.DisplayName,
		Customization: rec.Customization,
		Bird:          game.NewBird(r.cfg, r.cfg.Course.BirdX, r.cfg.Course.WorldH/2),
		Alive:         rec.Alive,
		Connected:     rec.Connected,
		Score:         rec.Score,
		buffer:        newSnapshotBuffer(r.cfg.Net.SnapshotBufferCap),
	}
	r.remotes[uid] = rp

	sub := r.lob.WatchFlaps(uid)
	r.subs = append(r.subs, sub)
	go func() {
		for d := range sub.C {
			r.HandleFlap(uid, d.Event)
		}
	}()
}

// HandlePlayers folds a player-set change into the race: calibrates the
// shared clock from the local echo, updates remote records, and buffers
// remote snapshots.
func (r *Race) HandlePlayers(evt store.PlayersEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	localID := r.lob.User().ID

	if !r.offsetSet {
		if rec, ok := evt.Players[localID]; ok && rec.Timestamp != 0 {
			r.offset = r.now() - rec.Timestamp
			r.offsetSet = true
		}
	}

	for uid, rec := range evt.Players {
		if uid == localID {
			continue
		}
		rp, ok := r.remotes[uid]
		if !ok {
			r.addRemoteLocked(uid, rec)
			rp = r.remotes[uid]
		}
		rp.DisplayName = rec.DisplayName
		rp.Customization = rec.Customization
		rp.Alive = rec.Alive
		rp.Connected = rec.Connected
		rp.Score = rec.Score
		if rec.Timestamp != 0 {
			rp.buffer.insert(snapshot{
				atMillis: rec.Timestamp,
				y:        rec.Y,
				velocity: rec.Velocity,
				rotation: rec.Rotation,
			})
		}
	}

	// A uid gone from the set left the lobby mid-race: drop its bird.
	for uid := range r.remotes {
		if _, ok := evt.Players[uid]; !ok {
			delete(r.remotes, uid)
		}
	}
}

// HandleFlap applies a remote flap as an immediate impulse, so the wing snap
// shows up ahead of the next interpolated snapshot.
func (r *Race) HandleFlap(uid string, evt store.FlapEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rp, ok := r.remotes[uid]; ok {
		rp.Bird.Flap()
	}
}

// Flap applies the local jump immediately, then publishes it. The publish is
// fire-and-forget; a lost flap is superseded by the next state push.
func (r *Race) Flap(ctx context.Context) {
	r.mu.Lock()
	if !r.localAlive {
		r.mu.Unlock()
		return
	}
	r.local.Flap()
	offset := r.sharedNowLocked() - r.meta.StartTime
	r.mu.Unlock()

	go func() {
		if err := r.lob.ReportFlap(ctx, offset); err != nil {
			r.logger.Debug("flap report dropped", "err", err)
		}
	}()
}

// Tick advances the race by dt seconds: local prediction, course scroll,
// collision, remote interpolation, and the throttled state push.
func (r *Race) Tick(ctx context.Context, dt float64) {
	r.mu.Lock()

	passed := r.course.Advance(dt, r.cfg.Course.BirdX)

	crashed := false
	var crashScore int
	if r.localAlive {
		r.local.Update(dt)
		r.localScore += passed
		if r.collidedLocked() {
			r.localAlive = false
			crashed = !r.crashSent
			r.crashSent = true
			// A pipe passed on the crash tick would otherwise never
			// replicate: the throttled push below is gated on being alive.
			crashScore = r.localScore
		}
	}

	renderTime := r.sharedNowLocked() - int64(r.cfg.Net.InterpDelayMillis)
	for _, rp := range r.remotes {
		if s, ok := rp.buffer.at(renderTime); ok {
			rp.Bird.SetKinematics(s.y, s.velocity, s.rotation)
		} else {
			// Nothing buffered yet: run plain physics so the bird moves
			// instead of hanging in the air.
			rp.Bird.Update(dt)
		}
	}

	pushDue := r.localAlive && r.now()-r.lastPush >= int64(r.cfg.Net.PushIntervalMillis)
	var snap store.StateSnapshot
	if pushDue {
		r.lastPush = r.now()
		snap = store.StateSnapshot{
			Y:        r.local.Y,
			Velocity: r.local.Velocity,
			Rotation: r.local.Rotation,
			Score:    r.localScore,
		}
	}
	r.mu.Unlock()

	if crashed {
		go func() {
			if err := r.lob.ReportCrash(ctx, crashScore); err != nil {
				r.logger.Warn("crash report failed", "err", err)
			}
		}()
	}
	if pushDue {
		go func() {
			if err := r.lob.ReportState(ctx, snap); err != nil {
				r.logger.Debug("state push dropped", "err", err)
			}
		}()
	}
}

// callers hold r.mu
func (r *Race) collidedLocked() bool {
	hb := r.local.Hitbox()
	if hb.Y+hb.H >= r.cfg.Course.WorldH-r.cfg.Course.GroundHeight {
		return true
	}
	if hb.Y <= 0 {
		return true
	}
	return r.course.Collides(hb)
}

func (r *Race) sharedNowLocked() int64 {
	return r.now() - r.offset
}

// CountdownRemaining returns the whole seconds left on the shared countdown,
// clamped at zero.
func (r *Race) CountdownRemaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := r.sharedNowLocked() - r.meta.StartTime
	remaining := r.cfg.Net.CountdownSeconds - int(elapsed/1000)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// Begun reports whether play should start: the countdown plus the grace
// window has elapsed on the shared clock. Every client crosses this
// threshold within the clock-calibration skew of the others.
func (r *Race) Begun() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	graceMillis := int64(r.cfg.Net.CountdownSeconds)*1000 + int64(r.cfg.Net.StartGraceMillis)
	return r.sharedNowLocked()-r.meta.StartTime >= graceMillis
}

// AlivePlayers returns the uids still racing: alive and connected.
func (r *Race) AlivePlayers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.alivePlayersLocked()
}

// callers hold r.mu
func (r *Race) alivePlayersLocked() []string {
	var alive []string
	if r.localAlive {
		alive = append(alive, r.lob.User().ID)
	}
	for uid, rp := range r.remotes {
		if rp.Alive && rp.Connected {
			alive = append(alive, uid)
		}
	}
	return alive
}

// Ended reports whether at most one player is still racing.
func (r *Race) Ended() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alivePlayersLocked()) <= 1
}

// Placements computes the final ranking from the current records.
func (r *Race) Placements() []Placement {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]Placement, 0, len(r.remotes)+1)
	entries = append(entries, Placement{
		UID:         r.lob.User().ID,
		DisplayName: r.lob.User().DisplayName,
		Score:       r.localScore,
		Alive:       r.localAlive,
	})
	for uid, rp := range r.remotes {
		entries = append(entries, Placement{
			UID:         uid,
			DisplayName: rp.DisplayName,
			Score:       rp.Score,
			Alive:       rp.Alive && rp.Connected,
		})
	}
	return rankPlacements(entries)
}

// LocalBird returns the locally predicted bird for rendering.
func (r *Race) LocalBird() *game.Bird {
	return r.local
}

// LocalScore returns the local player's pipe count.
func (r *Race) LocalScore() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.localScore
}

// LocalAlive reports whether the local player is still racing.
func (r *Race) LocalAlive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.localAlive
}

// Course returns the shared obstacle course.
func (r *Race) Course() *course.Course {
	return r.course
}

// Remotes returns a stable snapshot of the remote players for rendering.
func (r *Race) Remotes() []*RemotePlayer {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*RemotePlayer, 0, len(r.remotes))
	for _, rp := range r.remotes {
		out = append(out, rp)
	}
	return out
}

// Cleanup cancels every subscription this race opened. After Cleanup no
// store callback reaches this race, even if deliveries are still in flight.
func (r *Race) Cleanup() {
	r.mu.Lock()
	subs := r.subs
	r.subs = nil
	r.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
}
