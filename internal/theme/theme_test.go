package theme

import (
	"testing"

	"github.com/vovakirdan/flaprace/internal/store"
)

func TestBuiltinThemesRegistered(t *testing.T) {
	for _, id := range []string{"classic", "arctic", "space"} {
		if !Exists(id) {
			t.Errorf("builtin theme %q not registered", id)
		}
	}
	if len(List()) < 3 {
		t.Errorf("List returned %d themes, expected at least the builtins", len(List()))
	}
}

func TestListSortedByID(t *testing.T) {
	infos := List()
	for i := 1; i < len(infos); i++ {
		if infos[i-1].ID >= infos[i].ID {
			t.Fatalf("List not sorted: %q before %q", infos[i-1].ID, infos[i].ID)
		}
	}
}

func TestGetFallsBackToDefault(t *testing.T) {
	got := Get("no-such-theme")
	if got.ID != DefaultID {
		t.Errorf("Get(unknown) = %q, expected default %q", got.ID, DefaultID)
	}
}

func TestDecorAtIsDeterministic(t *testing.T) {
	th := Get("classic")
	if th.DecorAt(1234) != th.DecorAt(1234) {
		t.Error("same seed must pick the same decor glyph")
	}
	if (Theme{}).DecorAt(5) != ' ' {
		t.Error("theme without decor should render a space")
	}
}

func TestCustomizationFallbacks(t *testing.T) {
	th := Get("classic")

	if BirdColorOf(store.Customization{Color: "red"}, th) == th.BirdColor {
		t.Error("explicit color should override the theme default")
	}
	if BirdColorOf(store.Customization{Color: "plaid"}, th) != th.BirdColor {
		t.Error("unknown color should fall back to the theme default")
	}
	if HatRuneOf(store.Customization{Hat: "none"}) != 0 {
		t.Error("hat none should render nothing")
	}
	if HatRuneOf(store.Customization{Hat: "crown"}) == 0 {
		t.Error("crown should render a glyph")
	}
}

func TestCustomizationForIsStable(t *testing.T) {
	a := CustomizationFor("player-one")
	b := CustomizationFor("player-one")
	if a != b {
		t.Fatalf("same uid produced different loadouts: %+v vs %+v", a, b)
	}

	known := false
	for _, c := range BirdColors {
		if c == a.Color {
			known = true
		}
	}
	if !known {
		t.Errorf("derived color %q is not in the palette", a.Color)
	}
}
