// Package store defines the replicated session store the multiplayer mode is
// built on: a typed, listener-driven tree of lobby metadata, per-player
// records, and append-only flap logs. The Repository interface keeps the
// backing replication mechanism swappable; Memory is the in-process
// implementation used both by tests and by the serve mode, where every SSH
// client shares one store instance.
package store

// LobbyStatus is the lobby lifecycle phase.
type LobbyStatus string

const (
	StatusWaiting   LobbyStatus = "waiting"
	StatusCountdown LobbyStatus = "countdown"
	StatusPlaying   LobbyStatus = "playing"
	StatusFinished  LobbyStatus = "finished"
)

// LobbyMeta is the record at lobbies/{code}/meta. HostID mutations are a
// cooperative convention between clients; the store does not enforce them.
type LobbyMeta struct {
	HostID  string
	ThemeID string
	Status  LobbyStatus
	Seed    int32

	// StartTime is stamped by the store on the start transition, in store
	// clock milliseconds. Zero means the match has not been started.
	StartTime int64

	CreatedAt int64
}

// Customization is a player's cosmetic loadout. No gameplay effect.
type Customization struct {
	Hat   string
	Color string
}

// PlayerRecord is the record at lobbies/{code}/players/{uid}. Each client
// writes only its own record.
type PlayerRecord struct {
	DisplayName   string
	Customization Customization

	Alive bool
	Score int

	Y        float64
	Velocity float64
	Rotation float64

	// Connected flips to false automatically when an armed connection drops.
	Connected bool

	// FlapSeq counts this player's flaps; incremented alongside every
	// appended FlapEvent.
	FlapSeq int

	// Timestamp is stamped by the store on every state push, in store clock
	// milliseconds. Clients compare it against their local clock once to
	// calibrate a shared-time offset.
	Timestamp int64
}

// FlapEvent is one entry in a player's append-only flap log.
type FlapEvent struct {
	// OffsetMillis is the flap time relative to the match start, on the
	// sender's adjusted clock.
	OffsetMillis int64
}

// StateSnapshot is the per-frame state a client pushes into its own player
// record. The store stamps the record's Timestamp when applying it.
type StateSnapshot struct {
	Y        float64
	Velocity float64
	Rotation float64
	Score    int
}

// MetaPatch is a partial update to a lobby's metadata. Nil fields are left
// untouched.
type MetaPatch struct {
	HostID  *string
	ThemeID *string
	Status  *LobbyStatus
	Seed    *int32

	// StampStartTime makes the store assign StartTime from its own clock,
	// so no client clock ever becomes the scheduling authority.
	StampStartTime bool
	ClearStartTime bool
}

// PlayerPatch is a partial update to a player record. Nil fields are left
// untouched. State pushes go through PushState instead so the store can
// stamp the timestamp.
type PlayerPatch struct {
	DisplayName   *string
	Customization *Customization
	Alive         *bool
	Score         *int
	Connected     *bool
	FlapSeq       *int

	// ResetState zeroes the kinematic fields (Y, Velocity, Rotation) and
	// the server Timestamp. The rematch reset sends it so the next match
	// calibrates its shared clock from a fresh echo, not a stale one.
	ResetState bool
}

// MetaEvent is delivered on a meta watch. Deleted marks the lobby's removal;
// Meta is the last observed value in that case.
type MetaEvent struct {
	Meta    LobbyMeta
	Deleted bool
}

// PlayersEvent is delivered on a players watch: the full player set after
// a change, keyed by uid.
type PlayersEvent struct {
	Players map[string]PlayerRecord
}

// FlapDelivery is delivered on a flap watch, in append order per player.
type FlapDelivery struct {
	PushID string
	Event  FlapEvent
}
