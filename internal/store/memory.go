package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is the in-process Repository. One instance backs a whole serve-mode
// process: every connected client reads and writes the same tree, and watch
// deliveries are pushed asynchronously through per-subscription queues so a
// slow subscriber never blocks a writer.
type Memory struct {
	mu      sync.Mutex
	now     func() time.Time
	latency time.Duration
	lobbies map[string]*lobbyNode
	armed   map[string]armTarget
}

type lobbyNode struct {
	meta       LobbyMeta
	players    map[string]PlayerRecord
	flaps      map[string][]FlapDelivery
	metaSubs   map[*queue[MetaEvent]]struct{}
	playerSubs map[*queue[PlayersEvent]]struct{}
	flapSubs   map[string]map[*queue[FlapDelivery]]struct{}
}

type armTarget struct {
	code string
	uid  string
}

// Option configures a Memory store.
type Option func(*Memory)

// WithClock overrides the store clock. Tests use this to make server stamps
// deterministic.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) { m.now = now }
}

// WithLatency delays every watch delivery by d, simulating network transit.
func WithLatency(d time.Duration) Option {
	return func(m *Memory) { m.latency = d }
}

// NewMemory creates an empty in-process store.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		now:     time.Now,
		lobbies: make(map[string]*lobbyNode),
		armed:   make(map[string]armTarget),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NowMillis returns the store clock in milliseconds.
func (m *Memory) NowMillis() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now().UnixMilli()
}

// CreateLobby claims a code, stamping CreatedAt.
func (m *Memory) CreateLobby(ctx context.Context, code string, meta LobbyMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.lobbies[code]; ok {
		return ErrLobbyExists
	}
	meta.CreatedAt = m.now().UnixMilli()
	m.lobbies[code] = &lobbyNode{
		meta:       meta,
		players:    make(map[string]PlayerRecord),
		flaps:      make(map[string][]FlapDelivery),
		metaSubs:   make(map[*queue[MetaEvent]]struct{}),
		playerSubs: make(map[*queue[PlayersEvent]]struct{}),
		flapSubs:   make(map[string]map[*queue[FlapDelivery]]struct{}),
	}
	return nil
}

// Meta returns the lobby's current metadata.
func (m *Memory) Meta(ctx context.Context, code string) (LobbyMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lb, ok := m.lobbies[code]
	if !ok {
		return LobbyMeta{}, ErrLobbyNotFound
	}
	return lb.meta, nil
}

// PatchMeta applies a partial metadata update and notifies meta watchers.
func (m *Memory) PatchMeta(ctx context.Context, code string, patch MetaPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lb, ok := m.lobbies[code]
	if !ok {
		return ErrLobbyNotFound
	}
	if patch.HostID != nil {
		lb.meta.HostID = *patch.HostID
	}
	if patch.ThemeID != nil {
		lb.meta.ThemeID = *patch.ThemeID
	}
	if patch.Status != nil {
		lb.meta.Status = *patch.Status
	}
	if patch.Seed != nil {
		lb.meta.Seed = *patch.Seed
	}
	if patch.StampStartTime {
		lb.meta.StartTime = m.now().UnixMilli()
	}
	if patch.ClearStartTime {
		lb.meta.StartTime = 0
	}
	m.notifyMeta(lb, MetaEvent{Meta: lb.meta})
	return nil
}

// DeleteLobby removes the lobby, delivers a final Deleted event, and closes
// every subscription under it.
func (m *Memory) DeleteLobby(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lb, ok := m.lobbies[code]
	if !ok {
		return ErrLobbyNotFound
	}
	delete(m.lobbies, code)

	m.notifyMeta(lb, MetaEvent{Meta: lb.meta, Deleted: true})
	for q := range lb.metaSubs {
		q.close()
	}
	for q := range lb.playerSubs {
		q.close()
	}
	for _, subs := range lb.flapSubs {
		for q := range subs {
			q.close()
		}
	}
	return nil
}

// Players returns a copy of the lobby's player set.
func (m *Memory) Players(ctx context.Context, code string) (map[string]PlayerRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lb, ok := m.lobbies[code]
	if !ok {
		return nil, ErrLobbyNotFound
	}
	return copyPlayers(lb.players), nil
}

// PutPlayer creates or replaces a player record.
func (m *Memory) PutPlayer(ctx context.Context, code, uid string, rec PlayerRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lb, ok := m.lobbies[code]
	if !ok {
		return ErrLobbyNotFound
	}
	lb.players[uid] = rec
	m.notifyPlayers(lb)
	return nil
}

// PatchPlayer applies a partial update to a player record.
func (m *Memory) PatchPlayer(ctx context.Context, code, uid string, patch PlayerPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lb, ok := m.lobbies[code]
	if !ok {
		return ErrLobbyNotFound
	}
	rec, ok := lb.players[uid]
	if !ok {
		return ErrPlayerNotFound
	}
	if patch.DisplayName != nil {
		rec.DisplayName = *patch.DisplayName
	}
	if patch.Customization != nil {
		rec.Customization = *patch.Customization
	}
	if patch.Alive != nil {
		rec.Alive = *patch.Alive
	}
	if patch.Score != nil {
		rec.Score = *patch.Score
	}
	if patch.Connected != nil {
		rec.Connected = *patch.Connected
	}
	if patch.FlapSeq != nil {
		rec.FlapSeq = *patch.FlapSeq
	}
	if patch.ResetState {
		rec.Y = 0
		rec.Velocity = 0
		rec.Rotation = 0
		rec.Timestamp = 0
	}
	lb.players[uid] = rec
	m.notifyPlayers(lb)
	return nil
}

// PushState applies a state snapshot and stamps the record's Timestamp.
func (m *Memory) PushState(ctx context.Context, code, uid string, snap StateSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lb, ok := m.lobbies[code]
	if !ok {
		return ErrLobbyNotFound
	}
	rec, ok := lb.players[uid]
	if !ok {
		return ErrPlayerNotFound
	}
	rec.Y = snap.Y
	rec.Velocity = snap.Velocity
	rec.Rotation = snap.Rotation
	rec.Score = snap.Score
	rec.Timestamp = m.now().UnixMilli()
	lb.players[uid] = rec
	m.notifyPlayers(lb)
	return nil
}

// RemovePlayer deletes a player record, its flap log, and its flap watchers.
func (m *Memory) RemovePlayer(ctx context.Context, code, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lb, ok := m.lobbies[code]
	if !ok {
		return ErrLobbyNotFound
	}
	if _, ok := lb.players[uid]; !ok {
		return ErrPlayerNotFound
	}
	delete(lb.players, uid)
	delete(lb.flaps, uid)
	for q := range lb.flapSubs[uid] {
		q.close()
	}
	delete(lb.flapSubs, uid)
	m.notifyPlayers(lb)
	return nil
}

// AppendFlap appends to a player's flap log and notifies flap watchers in
// append order.
func (m *Memory) AppendFlap(ctx context.Context, code, uid string, evt FlapEvent) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lb, ok := m.lobbies[code]
	if !ok {
		return "", ErrLobbyNotFound
	}
	if _, ok := lb.players[uid]; !ok {
		return "", ErrPlayerNotFound
	}
	d := FlapDelivery{PushID: uuid.NewString(), Event: evt}
	lb.flaps[uid] = append(lb.flaps[uid], d)
	for q := range lb.flapSubs[uid] {
		q.push(d)
	}
	return d.PushID, nil
}

// ClearFlaps empties a player's flap log.
func (m *Memory) ClearFlaps(ctx context.Context, code, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lb, ok := m.lobbies[code]
	if !ok {
		return ErrLobbyNotFound
	}
	lb.flaps[uid] = nil
	return nil
}

// WatchMeta delivers the current metadata, then changes, then Deleted.
func (m *Memory) WatchMeta(code string) *Subscription[MetaEvent] {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := newQueue[MetaEvent](m.latency)
	lb, ok := m.lobbies[code]
	if !ok {
		// Watch on a dead path: deliver Deleted immediately so the caller
		// can tear down instead of waiting forever.
		q.push(MetaEvent{Deleted: true})
		q.close()
		return &Subscription[MetaEvent]{C: q.out, cancel: q.close}
	}
	lb.metaSubs[q] = struct{}{}
	q.push(MetaEvent{Meta: lb.meta})
	return &Subscription[MetaEvent]{C: q.out, cancel: func() {
		m.mu.Lock()
		delete(lb.metaSubs, q)
		m.mu.Unlock()
		q.close()
	}}
}

// WatchPlayers delivers the current full player set, then the full set after
// every change.
func (m *Memory) WatchPlayers(code string) *Subscription[PlayersEvent] {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := newQueue[PlayersEvent](m.latency)
	lb, ok := m.lobbies[code]
	if !ok {
		q.close()
		return &Subscription[PlayersEvent]{C: q.out, cancel: q.close}
	}
	lb.playerSubs[q] = struct{}{}
	q.push(PlayersEvent{Players: copyPlayers(lb.players)})
	return &Subscription[PlayersEvent]{C: q.out, cancel: func() {
		m.mu.Lock()
		delete(lb.playerSubs, q)
		m.mu.Unlock()
		q.close()
	}}
}

// WatchFlaps delivers the existing flap log in order, then every append.
func (m *Memory) WatchFlaps(code, uid string) *Subscription[FlapDelivery] {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := newQueue[FlapDelivery](m.latency)
	lb, ok := m.lobbies[code]
	if !ok {
		q.close()
		return &Subscription[FlapDelivery]{C: q.out, cancel: q.close}
	}
	subs, ok := lb.flapSubs[uid]
	if !ok {
		subs = make(map[*queue[FlapDelivery]]struct{})
		lb.flapSubs[uid] = subs
	}
	subs[q] = struct{}{}
	for _, d := range lb.flaps[uid] {
		q.push(d)
	}
	return &Subscription[FlapDelivery]{C: q.out, cancel: func() {
		m.mu.Lock()
		delete(subs, q)
		m.mu.Unlock()
		q.close()
	}}
}

// ArmDisconnect registers the connected=false action for a connection.
func (m *Memory) ArmDisconnect(connID, code, uid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.armed[connID] = armTarget{code: code, uid: uid}
}

// DisarmDisconnect cancels a pending disconnect action.
func (m *Memory) DisarmDisconnect(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.armed, connID)
}

// Disconnected fires the armed action for connID, if any.
func (m *Memory) Disconnected(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	target, ok := m.armed[connID]
	if !ok {
		return
	}
	delete(m.armed, connID)

	lb, ok := m.lobbies[target.code]
	if !ok {
		return
	}
	rec, ok := lb.players[target.uid]
	if !ok {
		return
	}
	rec.Connected = false
	lb.players[target.uid] = rec
	m.notifyPlayers(lb)
}

// callers hold m.mu
func (m *Memory) notifyMeta(lb *lobbyNode, evt MetaEvent) {
	for q := range lb.metaSubs {
		q.push(evt)
	}
}

func (m *Memory) notifyPlayers(lb *lobbyNode) {
	evt := PlayersEvent{Players: copyPlayers(lb.players)}
	for q := range lb.playerSubs {
		q.push(evt)
	}
}

func copyPlayers(src map[string]PlayerRecord) map[string]PlayerRecord {
	out := make(map[string]PlayerRecord, len(src))
	for uid, rec := range src {
		out[uid] = rec
	}
	return out
}

// queue is a per-subscription ordered delivery pipe. Writers push without
// blocking; a forwarder goroutine drains to the out channel, applying the
// optional artificial latency. Preserves order, never drops.
type queue[T any] struct {
	mu      sync.Mutex
	pending []T
	wake    chan struct{}
	out     chan T
	done    chan struct{}
	once    sync.Once
	latency time.Duration
}

func newQueue[T any](latency time.Duration) *queue[T] {
	q := &queue[T]{
		wake:    make(chan struct{}, 1),
		out:     make(chan T, 16),
		done:    make(chan struct{}),
		latency: latency,
	}
	go q.forward()
	return q
}

func (q *queue[T]) push(v T) {
	q.mu.Lock()
	q.pending = append(q.pending, v)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *queue[T]) close() {
	q.once.Do(func() { close(q.done) })
}

func (q *queue[T]) forward() {
	defer close(q.out)
	for {
		q.mu.Lock()
		batch := q.pending
		q.pending = nil
		q.mu.Unlock()

		for _, v := range batch {
			if q.latency > 0 {
				select {
				case <-time.After(q.latency):
				case <-q.done:
					return
				}
			}
			select {
			case q.out <- v:
			default:
				select {
				case q.out <- v:
				case <-q.done:
					return
				}
			}
		}

		select {
		case <-q.wake:
		case <-q.done:
			// Drain anything already queued so a final Deleted event is not
			// lost, then exit.
			q.mu.Lock()
			rest := q.pending
			q.pending = nil
			q.mu.Unlock()
			for _, v := range rest {
				select {
				case q.out <- v:
				default:
					return
				}
			}
			return
		}
	}
}
