package theme

import "github.com/vovakirdan/flaprace/internal/core"

func init() {
	Register(Theme{
		ID:          "classic",
		Title:       "Classic Meadow",
		SkyColor:    core.ColorCyan,
		PipeColor:   core.ColorGreen,
		GroundColor: core.ColorYellow,
		BirdColor:   core.ColorBrightYellow,
		PipeRune:    '█',
		GroundRune:  '▒',
		Decor:       []rune{'☁', '~', ' '},
	})
}
