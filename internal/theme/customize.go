package theme

import (
	"hash/fnv"

	"github.com/vovakirdan/flaprace/internal/core"
	"github.com/vovakirdan/flaprace/internal/store"
)

// Hats a player can wear. Purely cosmetic; replicated in the player record
// so every client renders the same loadout.
var Hats = []string{"none", "cap", "crown", "halo"}

// BirdColors a player can pick from.
var BirdColors = []string{"yellow", "red", "green", "blue", "magenta"}

var birdColorMap = map[string]core.Color{
	"yellow":  core.ColorBrightYellow,
	"red":     core.ColorBrightRed,
	"green":   core.ColorBrightGreen,
	"blue":    core.ColorBrightBlue,
	"magenta": core.ColorBrightMagenta,
}

var hatRunes = map[string]rune{
	"cap":   '▴',
	"crown": '♛',
	"halo":  '◌',
}

// BirdColorOf resolves a customization to a render color, falling back to
// the theme's bird color for unknown or empty values.
func BirdColorOf(c store.Customization, t Theme) core.Color {
	if col, ok := birdColorMap[c.Color]; ok {
		return col
	}
	return t.BirdColor
}

// HatRuneOf resolves a customization to the glyph drawn above the bird.
// Zero means no hat.
func HatRuneOf(c store.Customization) rune {
	if r, ok := hatRunes[c.Hat]; ok {
		return r
	}
	return 0
}

// DefaultCustomization is the loadout new players start with.
func DefaultCustomization() store.Customization {
	return store.Customization{Hat: "none", Color: "yellow"}
}

// CustomizationFor derives a stable loadout from a player id, so birds in a
// race are visually distinct without a picker. The same uid always maps to
// the same color on every client.
func CustomizationFor(uid string) store.Customization {
	h := fnv.New32a()
	h.Write([]byte(uid))
	return store.Customization{
		Hat:   "none",
		Color: BirdColors[int(h.Sum32())%len(BirdColors)],
	}
}
