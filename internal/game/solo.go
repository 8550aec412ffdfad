package game

import (
	"github.com/vovakirdan/flaprace/internal/config"
	"github.com/vovakirdan/flaprace/internal/course"
)

// Solo runs a single-player round: one bird, one seeded course, scoring and
// collision. The multiplayer session reuses the same pieces but owns its own
// course so the shared seed governs every client identically.
type Solo struct {
	cfg    config.RaceConfig
	bird   *Bird
	course *course.Course
	score  int
	over   bool
}

// NewSolo creates a solo round with the given seed.
func NewSolo(cfg config.RaceConfig, seed int32) *Solo {
	return &Solo{
		cfg:    cfg,
		bird:   NewBird(cfg, cfg.Course.BirdX, cfg.Course.WorldH/2),
		course: course.New(cfg.Course, seed),
	}
}

// Reset restarts the round with a fresh seed.
func (g *Solo) Reset(seed int32) {
	g.bird = NewBird(g.cfg, g.cfg.Course.BirdX, g.cfg.Course.WorldH/2)
	g.course.Reset(seed)
	g.score = 0
	g.over = false
}

// Step advances the round by dt seconds. flap applies the jump impulse
// before integration, matching the zero-latency local input contract.
func (g *Solo) Step(dt float64, flap bool) {
	if g.over {
		return
	}

	if flap {
		g.bird.Flap()
	}
	g.bird.Update(dt)
	g.score += g.course.Advance(dt, g.bird.X)

	if g.collided() {
		g.over = true
	}
}

func (g *Solo) collided() bool {
	hb := g.bird.Hitbox()

	groundY := g.cfg.Course.WorldH - g.cfg.Course.GroundHeight
	if hb.Y+hb.H >= groundY {
		return true
	}
	if hb.Y <= 0 {
		return true
	}
	return g.course.Collides(hb)
}

// Bird returns the player's bird.
func (g *Solo) Bird() *Bird {
	return g.bird
}

// Course returns the obstacle course.
func (g *Solo) Course() *course.Course {
	return g.course
}

// Score returns the number of pipes passed.
func (g *Solo) Score() int {
	return g.score
}

// Over reports whether the bird has crashed.
func (g *Solo) Over() bool {
	return g.over
}
