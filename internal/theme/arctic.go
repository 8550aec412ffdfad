package theme

import "github.com/vovakirdan/flaprace/internal/core"

func init() {
	Register(Theme{
		ID:          "arctic",
		Title:       "Arctic Drift",
		SkyColor:    core.ColorBrightBlue,
		PipeColor:   core.ColorBrightCyan,
		GroundColor: core.ColorWhite,
		BirdColor:   core.ColorBrightRed,
		PipeRune:    '▓',
		GroundRune:  '░',
		Decor:       []rune{'❄', '*', ' '},
	})
}
