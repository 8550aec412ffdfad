package tui

import (
	"github.com/vovakirdan/flaprace/internal/config"
	"github.com/vovakirdan/flaprace/internal/core"
	"github.com/vovakirdan/flaprace/internal/course"
	"github.com/vovakirdan/flaprace/internal/theme"
)

// birdSprite is everything the renderer needs to draw one bird.
type birdSprite struct {
	X, Y     float64
	Rotation float64
	WingUp   bool
	Dead     bool
	Color    core.Color
	Hat      rune
	Label    string
}

// worldView projects world coordinates onto the screen buffer. The world is
// taller than it is wide while terminals are the opposite, so x and y scale
// independently.
type worldView struct {
	cfg config.CourseConfig
	th  theme.Theme
	w   int
	h   int
}

func newWorldView(cfg config.CourseConfig, th theme.Theme, screenW, screenH int) worldView {
	return worldView{cfg: cfg, th: th, w: screenW, h: screenH}
}

func (v worldView) toScreenX(wx float64) int {
	return int(wx / v.cfg.WorldW * float64(v.w))
}

func (v worldView) toScreenY(wy float64) int {
	return int(wy / v.cfg.WorldH * float64(v.h))
}

// draw renders the full scene: decor, pipes, ground, then birds on top.
func (v worldView) draw(s *core.Screen, pipes []course.Pipe, birds []birdSprite) {
	v.drawDecor(s, pipes)
	v.drawPipes(s, pipes)
	v.drawGround(s)
	for _, b := range birds {
		v.drawBird(s, b)
	}
}

// drawDecor scatters each pipe's decoration glyph in the sky above its gap.
// Position and glyph derive from the pipe's decoration seed, so all clients
// on the same theme draw the same sky.
func (v worldView) drawDecor(s *core.Screen, pipes []course.Pipe) {
	for _, p := range pipes {
		glyph := v.th.DecorAt(p.DecorSeed)
		if glyph == ' ' {
			continue
		}
		x := v.toScreenX(p.X + p.Width/2)
		y := 1 + int(p.DecorSeed)%3
		s.SetColored(x-3, y, glyph, v.th.SkyColor)
	}
}

func (v worldView) drawPipes(s *core.Screen, pipes []course.Pipe) {
	for _, p := range pipes {
		top := p.TopBox()
		bottom := p.BottomBox(v.cfg.WorldH)

		v.drawWorldRect(s, top.X, top.Y, top.W, top.H)
		v.drawWorldRect(s, bottom.X, bottom.Y, bottom.W, bottom.H)
	}
}

func (v worldView) drawWorldRect(s *core.Screen, wx, wy, ww, wh float64) {
	r := core.Rect{
		X: v.toScreenX(wx),
		Y: v.toScreenY(wy),
		W: core.Max(1, v.toScreenX(wx+ww)-v.toScreenX(wx)),
		H: core.Max(1, v.toScreenY(wy+wh)-v.toScreenY(wy)),
	}
	s.DrawRectColored(r, v.th.PipeRune, v.th.PipeColor)
}

func (v worldView) drawGround(s *core.Screen) {
	groundY := v.toScreenY(v.cfg.WorldH - v.cfg.GroundHeight)
	for y := groundY; y < v.h; y++ {
		s.DrawRectColored(core.Rect{X: 0, Y: y, W: v.w, H: 1}, v.th.GroundRune, v.th.GroundColor)
	}
}

func (v worldView) drawBird(s *core.Screen, b birdSprite) {
	x := v.toScreenX(b.X)
	y := v.toScreenY(b.Y)

	body := '●'
	switch {
	case b.Dead:
		body = '×'
	case b.Rotation < 0:
		body = '◓'
	case b.Rotation > 1.2:
		body = '◒'
	}
	s.SetColored(x, y, body, b.Color)

	if !b.Dead {
		wing := '˯'
		if b.WingUp {
			wing = '˰'
		}
		s.SetColored(x-1, y, wing, b.Color)
	}
	if b.Hat != 0 {
		s.SetColored(x, y-1, b.Hat, b.Color)
	}
	if b.Label != "" {
		s.DrawTextColored(x+2, y, b.Label, core.ColorGray)
	}
}
