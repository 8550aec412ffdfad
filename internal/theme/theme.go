// Package theme provides the course theme registry. A theme is a purely
// visual skin for a match (colors, glyphs, decor); physics and obstacle
// layout never depend on it, so clients with different themes still race the
// identical course. Themes register themselves in init() functions.
package theme

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/flaprace/internal/core"
)

// Theme describes one course skin.
type Theme struct {
	ID    string
	Title string

	SkyColor    core.Color
	PipeColor   core.Color
	GroundColor core.Color
	BirdColor   core.Color

	PipeRune   rune
	GroundRune rune

	// Decor glyphs scattered over the background; a pipe's DecorSeed picks
	// from this set, so decoration is deterministic per match without
	// consuming extra RNG draws.
	Decor []rune
}

// DecorAt picks the decor glyph for a decoration seed. Returns a space when
// the theme has no decor.
func (t Theme) DecorAt(seed int32) rune {
	if len(t.Decor) == 0 {
		return ' '
	}
	return t.Decor[int(seed)%len(t.Decor)]
}

// Info is registry metadata for listing.
type Info struct {
	ID    string
	Title string
}

var (
	mu     sync.RWMutex
	themes = make(map[string]Theme)
)

// Register adds a theme. Called from init() functions; panics on a duplicate
// ID.
func Register(t Theme) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := themes[t.ID]; exists {
		panic(fmt.Sprintf("theme: %q already registered", t.ID))
	}
	themes[t.ID] = t
}

// List returns metadata for all registered themes, sorted by ID.
func List() []Info {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]Info, 0, len(themes))
	for id, t := range themes {
		result = append(result, Info{ID: id, Title: t.Title})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Get looks a theme up by ID, falling back to the default when the ID is
// unknown. A lobby created by a newer client must still render on an older
// one.
func Get(id string) Theme {
	mu.RLock()
	defer mu.RUnlock()

	if t, ok := themes[id]; ok {
		return t
	}
	return themes[DefaultID]
}

// Exists checks if a theme ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := themes[id]
	return ok
}

// DefaultID is the theme new lobbies start with.
const DefaultID = "classic"
