package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/flaprace/internal/config"
	"github.com/vovakirdan/flaprace/internal/core"
	"github.com/vovakirdan/flaprace/internal/identity"
	"github.com/vovakirdan/flaprace/internal/lobby"
	"github.com/vovakirdan/flaprace/internal/store"
)

func newTestFlowModel(repo *store.Memory, uid string) RaceFlowModel {
	rt := core.RuntimeConfig{ScreenW: 80, ScreenH: 24, TickRate: 60}
	user := identity.User{ID: uid, DisplayName: "p-" + uid}
	return NewRaceFlowModel(repo, config.DefaultRaceConfig(), rt, nil, user, "classic", nil)
}

// runBatch executes every command in a batch. Blocking commands (the
// subscription waiters) run in the background and unwind when their
// subscription closes.
func runBatch(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return
	}
	for _, c := range batch {
		go c()
	}
}

func TestStaleDeletedEventIsIgnored(t *testing.T) {
	repo := store.NewMemory()
	ctx := context.Background()

	m := newTestFlowModel(repo, "local")
	if _, err := m.lob.Create(ctx, "classic"); err != nil {
		t.Fatal(err)
	}
	model, _ := m.enterLobby()
	m = model.(RaceFlowModel)
	staleSub := m.metaSub

	// Leaving as the last player deletes the lobby and installs a fresh
	// session; the store still owes the old subscription a final deleted
	// event.
	model, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})
	m = model.(RaceFlowModel)
	t.Cleanup(m.lob.Close)

	model, _ = m.Update(metaEventMsg{sub: staleSub, evt: store.MetaEvent{Deleted: true}})
	m = model.(RaceFlowModel)
	if m.errMsg != "" {
		t.Errorf("stale deleted event was acted on: errMsg = %q", m.errMsg)
	}

	// The replacement session must still hand out live subscriptions.
	code, err := m.lob.Create(ctx, "classic")
	if err != nil {
		t.Fatal(err)
	}
	sub := m.lob.WatchMeta()
	next := "arctic"
	if err := repo.PatchMeta(ctx, code, store.MetaPatch{ThemeID: &next}); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case evt, ok := <-sub.C:
			if !ok {
				t.Fatal("fresh session's meta subscription is closed: the stale event tore down the replacement")
			}
			if evt.Meta.ThemeID == "arctic" {
				return
			}
		case <-deadline:
			t.Fatal("meta update never delivered")
		}
	}
}

func TestRematchMetaResetsOwnRecord(t *testing.T) {
	repo := store.NewMemory()
	ctx := context.Background()

	host := lobby.NewSession(repo, identity.User{ID: "host", DisplayName: "Host"})
	code, err := host.Create(ctx, "classic")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(host.Close)

	m := newTestFlowModel(repo, "guest")
	if err := m.lob.Join(ctx, code); err != nil {
		t.Fatal(err)
	}
	model, _ := m.enterLobby()
	m = model.(RaceFlowModel)
	t.Cleanup(m.lob.Close)

	// The guest died in the previous match and is looking at the results
	// screen when the host's rematch flips the lobby back to waiting.
	if err := m.lob.ReportCrash(ctx, 4); err != nil {
		t.Fatal(err)
	}
	m.phase = phaseResults

	if err := host.ResetForRematch(ctx); err != nil {
		t.Fatal(err)
	}
	if err := host.ResetLobbyForRematch(ctx); err != nil {
		t.Fatal(err)
	}
	meta, err := repo.Meta(ctx, code)
	if err != nil {
		t.Fatal(err)
	}

	model, cmd := m.handleMeta(store.MetaEvent{Meta: meta})
	m = model.(RaceFlowModel)
	if m.phase != phaseLobby {
		t.Fatalf("phase = %d, expected the waiting room", m.phase)
	}
	runBatch(t, cmd)

	// Without the guest's own reset the next race would see it dead on the
	// first tick and end instantly.
	deadline := time.Now().Add(2 * time.Second)
	for {
		players, err := repo.Players(ctx, code)
		if err != nil {
			t.Fatal(err)
		}
		rec := players["guest"]
		if rec.Alive && rec.Score == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("guest record never reset for the rematch: %+v", rec)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
