package session

import (
	"context"
	"testing"
	"time"

	"github.com/vovakirdan/flaprace/internal/config"
	"github.com/vovakirdan/flaprace/internal/identity"
	"github.com/vovakirdan/flaprace/internal/lobby"
	"github.com/vovakirdan/flaprace/internal/store"
)

type raceFixture struct {
	repo  *store.Memory
	lob   *lobby.Session
	race  *Race
	now   *int64
	code  string
	other []*lobby.Session
}

// newRaceFixture creates a lobby with the local player plus others, then
// builds a Race over a controllable local clock.
func newRaceFixture(t *testing.T, startTime int64, others ...string) *raceFixture {
	t.Helper()
	repo := store.NewMemory()
	ctx := context.Background()

	lob := lobby.NewSession(repo, identity.User{ID: "local", DisplayName: "Local"},
		lobby.WithSeedSource(func() int32 { return 7 }))
	code, err := lob.Create(ctx, "classic")
	if err != nil {
		t.Fatal(err)
	}

	f := &raceFixture{repo: repo, lob: lob, code: code, now: new(int64)}
	for _, uid := range others {
		s := lobby.NewSession(repo, identity.User{ID: uid, DisplayName: "p-" + uid})
		if err := s.Join(ctx, code); err != nil {
			t.Fatal(err)
		}
		f.other = append(f.other, s)
	}

	cfg := config.DefaultRaceConfig()
	f.race = NewRace(cfg, lob, store.LobbyMeta{Seed: 7, StartTime: startTime},
		WithNow(func() int64 { return *f.now }))
	t.Cleanup(f.race.Cleanup)
	t.Cleanup(lob.Close)
	return f
}

func playersEvent(recs map[string]store.PlayerRecord) store.PlayersEvent {
	return store.PlayersEvent{Players: recs}
}

func TestClockCalibratesOnceFromLocalEcho(t *testing.T) {
	f := newRaceFixture(t, 1000)

	// Local clock reads 1250 when the echoed store stamp says 1000: the
	// store runs 250ms behind local.
	*f.now = 1250
	f.race.HandlePlayers(playersEvent(map[string]store.PlayerRecord{
		"local": {Timestamp: 1000},
	}))

	*f.now = 1300 // shared 1050, 50ms into countdown
	if got := f.race.CountdownRemaining(); got != 3 {
		t.Errorf("remaining = %d, expected 3", got)
	}
	*f.now = 3750 // shared 3500, 2.5s elapsed
	if got := f.race.CountdownRemaining(); got != 1 {
		t.Errorf("remaining = %d, expected 1", got)
	}
	if f.race.Begun() {
		t.Error("play must not begin before 3.5s of shared time")
	}
	*f.now = 4750 // shared 4500, 3.5s elapsed
	if !f.race.Begun() {
		t.Error("play should begin at 3.5s of shared time")
	}

	// A later echo must not recalibrate; with offset frozen the countdown
	// stays finished.
	f.race.HandlePlayers(playersEvent(map[string]store.PlayerRecord{
		"local": {Timestamp: 100},
	}))
	if got := f.race.CountdownRemaining(); got != 0 {
		t.Errorf("remaining after second echo = %d; offset recalibrated", got)
	}
}

func TestRaceEndsWithOneSurvivor(t *testing.T) {
	f := newRaceFixture(t, 0, "r1", "r2", "r3")
	f.race.InitRemotePlayers(map[string]store.PlayerRecord{
		"r1": {Alive: true, Connected: true},
		"r2": {Alive: true, Connected: true},
		"r3": {Alive: true, Connected: true},
	})

	if f.race.Ended() {
		t.Fatal("race with 4 alive players reported ended")
	}

	f.race.HandlePlayers(playersEvent(map[string]store.PlayerRecord{
		"local": {Alive: true, Connected: true},
		"r1":    {Alive: false, Connected: true},
		"r2":    {Alive: false, Connected: true},
		"r3":    {Alive: false, Connected: true},
	}))

	alive := f.race.AlivePlayers()
	if len(alive) != 1 || alive[0] != "local" {
		t.Errorf("alive = %v, expected just the local player", alive)
	}
	if !f.race.Ended() {
		t.Error("race with one survivor should be ended")
	}
}

func TestDisconnectedPlayerIsNotAlive(t *testing.T) {
	f := newRaceFixture(t, 0, "r1")
	f.race.InitRemotePlayers(map[string]store.PlayerRecord{
		"r1": {Alive: true, Connected: true},
	})

	f.race.HandlePlayers(playersEvent(map[string]store.PlayerRecord{
		"local": {Alive: true, Connected: true},
		"r1":    {Alive: true, Connected: false},
	}))

	for _, uid := range f.race.AlivePlayers() {
		if uid == "r1" {
			t.Error("a disconnected player must not count as alive")
		}
	}
	if !f.race.Ended() {
		t.Error("local player alone should end the race")
	}
}

func TestRemoteBirdFollowsInterpolatedSnapshots(t *testing.T) {
	f := newRaceFixture(t, 0, "r1")
	f.race.InitRemotePlayers(map[string]store.PlayerRecord{
		"r1": {Alive: true, Connected: true},
	})

	// Calibrate offset to zero: local clock equals the echoed stamp.
	*f.now = 1000
	f.race.HandlePlayers(playersEvent(map[string]store.PlayerRecord{
		"local": {Timestamp: 1000},
	}))

	for _, s := range []struct {
		ts int64
		y  float64
	}{{800, 200}, {900, 300}} {
		f.race.HandlePlayers(playersEvent(map[string]store.PlayerRecord{
			"local": {Timestamp: 1000},
			"r1":    {Alive: true, Connected: true, Timestamp: s.ts, Y: s.y},
		}))
	}

	// Render time 950-100=850 straddles the two samples.
	*f.now = 950
	f.race.Tick(context.Background(), 1.0/60.0)

	var remote *RemotePlayer
	for _, rp := range f.race.Remotes() {
		if rp.UID == "r1" {
			remote = rp
		}
	}
	if remote == nil {
		t.Fatal("remote player missing")
	}
	if remote.Bird.Y != 250 {
		t.Errorf("remote Y = %v, expected interpolated 250", remote.Bird.Y)
	}
}

func TestRemoteFlapAppliesImpulse(t *testing.T) {
	f := newRaceFixture(t, 0, "r1")
	f.race.InitRemotePlayers(map[string]store.PlayerRecord{
		"r1": {Alive: true, Connected: true},
	})

	f.race.HandleFlap("r1", store.FlapEvent{OffsetMillis: 500})

	cfg := config.DefaultRaceConfig()
	for _, rp := range f.race.Remotes() {
		if rp.UID == "r1" && rp.Bird.Velocity != cfg.Physics.FlapImpulse {
			t.Errorf("remote velocity = %v, expected flap impulse", rp.Bird.Velocity)
		}
	}
}

func TestLocalCrashReachesStore(t *testing.T) {
	f := newRaceFixture(t, 0)
	ctx := context.Background()

	// The first tick publishes score 3; wait for that push to land.
	*f.now = 1000
	f.race.mu.Lock()
	f.race.localScore = 3
	f.race.mu.Unlock()
	dt := 1.0 / 60.0
	f.race.Tick(ctx, dt)

	deadline := time.Now().Add(2 * time.Second)
	for {
		players, err := f.repo.Players(ctx, f.code)
		if err != nil {
			t.Fatal(err)
		}
		if players["local"].Score == 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("state push never reached the store")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// One more pipe passes inside the throttle window; the clock stays put
	// so no further push fires before the crash.
	f.race.mu.Lock()
	f.race.localScore = 4
	f.race.mu.Unlock()

	// Never flap: the bird falls into the ground within a couple seconds.
	for i := 0; i < 600 && f.race.LocalAlive(); i++ {
		f.race.Tick(ctx, dt)
	}
	if f.race.LocalAlive() {
		t.Fatal("bird that never flaps should crash")
	}

	deadline = time.Now().Add(2 * time.Second)
	for {
		players, err := f.repo.Players(ctx, f.code)
		if err != nil {
			t.Fatal(err)
		}
		if !players["local"].Alive {
			if got := players["local"].Score; got != 4 {
				t.Errorf("replicated score after crash = %d, expected the crash-time 4", got)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("crash report never reached the store")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRematchDoesNotCalibrateFromStaleStamp(t *testing.T) {
	ctx := context.Background()
	storeNow := int64(1000)
	repo := store.NewMemory(store.WithClock(func() time.Time {
		return time.UnixMilli(storeNow)
	}))

	lob := lobby.NewSession(repo, identity.User{ID: "local", DisplayName: "Local"},
		lobby.WithSeedSource(func() int32 { return 7 }))
	if _, err := lob.Create(ctx, "classic"); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(lob.Close)

	// First match stamps the record at store time 1000, then everyone sits
	// on the results screen for a minute before the rematch starts.
	if err := lob.ReportState(ctx, store.StateSnapshot{Y: 300, Score: 4}); err != nil {
		t.Fatal(err)
	}
	if err := lob.ResetForRematch(ctx); err != nil {
		t.Fatal(err)
	}
	storeNow = 61000

	players, err := repo.Players(ctx, lob.Code())
	if err != nil {
		t.Fatal(err)
	}

	localNow := int64(65000) // 4s past the rematch start
	race := NewRace(config.DefaultRaceConfig(), lob, store.LobbyMeta{Seed: 7, StartTime: 61000},
		WithNow(func() int64 { return localNow }))
	t.Cleanup(race.Cleanup)

	race.HandlePlayers(playersEvent(players))
	if got := race.CountdownRemaining(); got != 0 {
		t.Errorf("remaining = %d after the countdown elapsed; calibration latched a pre-rematch stamp", got)
	}
	if !race.Begun() {
		t.Error("play should have begun 4s past the rematch start")
	}
}

func TestStatePushIsThrottled(t *testing.T) {
	f := newRaceFixture(t, 0)
	ctx := context.Background()

	*f.now = 1000
	f.race.Tick(ctx, 1.0/60.0) // first push fires

	deadline := time.Now().Add(2 * time.Second)
	var pushedY float64
	for {
		players, err := f.repo.Players(ctx, f.code)
		if err != nil {
			t.Fatal(err)
		}
		if players["local"].Timestamp != 0 {
			pushedY = players["local"].Y
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("state push never reached the store")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Clock unchanged: the next ticks are inside the push interval and must
	// not publish, even though local physics moved the bird.
	f.race.Tick(ctx, 1.0/60.0)
	f.race.Tick(ctx, 1.0/60.0)
	time.Sleep(50 * time.Millisecond)

	players, err := f.repo.Players(ctx, f.code)
	if err != nil {
		t.Fatal(err)
	}
	if players["local"].Y != pushedY {
		t.Error("push fired inside the throttle interval")
	}
}

func TestFlapPublishesOffset(t *testing.T) {
	f := newRaceFixture(t, 1000)
	ctx := context.Background()

	*f.now = 3500 // offset 0 (never calibrated), shared elapsed 2500
	f.race.Flap(ctx)

	sub := f.repo.WatchFlaps(f.code, "local")
	defer sub.Cancel()
	select {
	case d := <-sub.C:
		if d.Event.OffsetMillis != 2500 {
			t.Errorf("flap offset = %d, expected 2500", d.Event.OffsetMillis)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("flap never reached the store")
	}
}

func TestPlayerLeavingMidRaceIsDropped(t *testing.T) {
	f := newRaceFixture(t, 0, "r1", "r2")
	f.race.InitRemotePlayers(map[string]store.PlayerRecord{
		"r1": {Alive: true, Connected: true},
		"r2": {Alive: true, Connected: true},
	})

	f.race.HandlePlayers(playersEvent(map[string]store.PlayerRecord{
		"local": {Alive: true, Connected: true},
		"r2":    {Alive: true, Connected: true},
	}))

	for _, rp := range f.race.Remotes() {
		if rp.UID == "r1" {
			t.Error("player gone from the set should be dropped from the race")
		}
	}
}
