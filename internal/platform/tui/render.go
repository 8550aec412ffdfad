package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/flaprace/internal/core"
)

// styles is indexed by core.Color; built once from the palette's ANSI codes.
var styles = func() []lipgloss.Style {
	out := make([]lipgloss.Style, core.ColorCount)
	for c := range out {
		code := core.Color(c).ANSI()
		if code == "" {
			out[c] = lipgloss.NewStyle()
			continue
		}
		out[c] = lipgloss.NewStyle().Foreground(lipgloss.Color(code))
	}
	return out
}()

func styleFor(c core.Color) lipgloss.Style {
	if int(c) >= len(styles) {
		return styles[core.ColorDefault]
	}
	return styles[c]
}

// RenderScreen converts a Screen buffer to a styled string. Cells are emitted
// in same-color runs so a row costs a handful of escape sequences, not one
// per cell.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	var run strings.Builder
	for y := 0; y < s.Height(); y++ {
		if y > 0 {
			sb.WriteRune('\n')
		}

		runColor := core.ColorDefault
		run.Reset()
		for x := 0; x < s.Width(); x++ {
			cell := s.GetCell(x, y)
			if cell.Color != runColor && run.Len() > 0 {
				sb.WriteString(styleFor(runColor).Render(run.String()))
				run.Reset()
			}
			runColor = cell.Color
			run.WriteRune(cell.Rune)
		}
		if run.Len() > 0 {
			sb.WriteString(styleFor(runColor).Render(run.String()))
			run.Reset()
		}
	}
	return sb.String()
}
