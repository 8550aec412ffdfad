package store

import (
	"context"
	"errors"
)

var (
	// ErrLobbyExists is returned by CreateLobby on a code collision.
	ErrLobbyExists = errors.New("store: lobby already exists")

	// ErrLobbyNotFound is returned when the code names no live lobby.
	ErrLobbyNotFound = errors.New("store: lobby not found")

	// ErrPlayerNotFound is returned when the uid has no record in the lobby.
	ErrPlayerNotFound = errors.New("store: player not found")
)

// Subscription is a cancelable watch. Values arrive on C in per-path order;
// Cancel stops delivery and closes C. Cancel is safe to call more than once
// and must be called on teardown so no callback outlives its session.
type Subscription[T any] struct {
	C      <-chan T
	cancel func()
}

// Cancel stops the subscription and closes C.
func (s *Subscription[T]) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Repository is the typed surface of the replicated session store. All writes
// are asynchronous with respect to watch delivery: a successful write means
// the store accepted it, not that every subscriber has seen it yet.
//
// Ordering: deliveries on a single subscription preserve write order for that
// path. Across paths or subscriptions nothing is guaranteed; callers must
// tolerate reordering between, say, a meta change and a player change.
type Repository interface {
	// CreateLobby claims a code. Returns ErrLobbyExists if it is taken.
	CreateLobby(ctx context.Context, code string, meta LobbyMeta) error

	// Meta returns the lobby's current metadata.
	Meta(ctx context.Context, code string) (LobbyMeta, error)

	// PatchMeta applies a partial metadata update.
	PatchMeta(ctx context.Context, code string, patch MetaPatch) error

	// DeleteLobby removes the lobby and everything under it. Meta watchers
	// receive a final Deleted event.
	DeleteLobby(ctx context.Context, code string) error

	// Players returns the lobby's current player set.
	Players(ctx context.Context, code string) (map[string]PlayerRecord, error)

	// PutPlayer creates or replaces a player record.
	PutPlayer(ctx context.Context, code, uid string, rec PlayerRecord) error

	// PatchPlayer applies a partial update to a player record.
	PatchPlayer(ctx context.Context, code, uid string, patch PlayerPatch) error

	// PushState applies a state snapshot to a player record and stamps the
	// record's Timestamp from the store clock.
	PushState(ctx context.Context, code, uid string, snap StateSnapshot) error

	// RemovePlayer deletes a player record and its flap log.
	RemovePlayer(ctx context.Context, code, uid string) error

	// AppendFlap appends to a player's flap log and returns the push id.
	AppendFlap(ctx context.Context, code, uid string, evt FlapEvent) (string, error)

	// ClearFlaps empties a player's flap log (rematch reset).
	ClearFlaps(ctx context.Context, code, uid string) error

	// WatchMeta delivers the current metadata immediately, then every change,
	// then a Deleted event if the lobby is removed.
	WatchMeta(code string) *Subscription[MetaEvent]

	// WatchPlayers delivers the current full player set immediately, then
	// the full set after every player change.
	WatchPlayers(code string) *Subscription[PlayersEvent]

	// WatchFlaps delivers a player's existing flap log in order, then every
	// append, preserving append order.
	WatchFlaps(code, uid string) *Subscription[FlapDelivery]

	// ArmDisconnect registers an on-disconnect action: when the connection
	// identified by connID drops, the player's Connected flag flips to false.
	// DisarmDisconnect cancels it (clean leave).
	ArmDisconnect(connID, code, uid string)
	DisarmDisconnect(connID string)

	// Disconnected fires every action armed for connID.
	Disconnected(connID string)

	// NowMillis exposes the store clock, the shared time base all clients
	// calibrate against.
	NowMillis() int64
}
