package theme

import "github.com/vovakirdan/flaprace/internal/core"

func init() {
	Register(Theme{
		ID:          "space",
		Title:       "Deep Space",
		SkyColor:    core.ColorDefault,
		PipeColor:   core.ColorMagenta,
		GroundColor: core.ColorGray,
		BirdColor:   core.ColorBrightGreen,
		PipeRune:    '║',
		GroundRune:  '▄',
		Decor:       []rune{'✦', '·', '.', ' '},
	})
}
