// Package course generates the obstacle course for a match from a shared
// seed. Every client consumes the same seeded stream in the same order, so
// pipe layouts are bit-identical across clients without any obstacle data
// crossing the network.
package course

import (
	"github.com/vovakirdan/flaprace/internal/config"
	"github.com/vovakirdan/flaprace/internal/core"
	"github.com/vovakirdan/flaprace/internal/prng"
)

// Pipe is one obstacle pair: a top and bottom column with a gap between.
// Derived from the RNG stream, never stored or transmitted.
type Pipe struct {
	X         float64 // Left edge, world units
	GapCenter float64
	GapSize   float64
	Width     float64
	DecorSeed int32 // Cosmetic variation only; no gameplay effect
	Scored    bool
}

// GapTop returns the y of the bottom edge of the top column.
func (p Pipe) GapTop() float64 {
	return p.GapCenter - p.GapSize/2
}

// GapBottom returns the y of the top edge of the bottom column.
func (p Pipe) GapBottom() float64 {
	return p.GapCenter + p.GapSize/2
}

// TopBox returns the collision box of the top column.
func (p Pipe) TopBox() core.Box {
	return core.Box{X: p.X, Y: 0, W: p.Width, H: p.GapTop()}
}

// BottomBox returns the collision box of the bottom column.
func (p Pipe) BottomBox(worldH float64) core.Box {
	return core.Box{X: p.X, Y: p.GapBottom(), W: p.Width, H: worldH - p.GapBottom()}
}

// Course owns the pipe list and the seeded generator for one match.
//
// The draw discipline is fixed: every spawn consumes exactly two values from
// the stream (gap center, then decoration seed). Changing the draw count on
// one client desyncs its course from the rest of the lobby permanently.
type Course struct {
	cfg   config.CourseConfig
	rng   *prng.Rand
	pipes []Pipe
	draws int
}

// New creates a course seeded with the lobby's shared seed.
func New(cfg config.CourseConfig, seed int32) *Course {
	c := &Course{
		cfg:   cfg,
		pipes: make([]Pipe, 0, 8),
		rng:   prng.New(seed),
	}
	return c
}

// Reset clears all pipes and restarts the stream from a new seed.
func (c *Course) Reset(seed int32) {
	c.pipes = c.pipes[:0]
	c.rng.Reseed(seed)
	c.draws = 0
}

// Advance moves pipes left, retires off-screen pipes, spawns new ones, and
// returns how many pipes the bird at birdX passed this step (for scoring).
func (c *Course) Advance(dt float64, birdX float64) int {
	for i := range c.pipes {
		c.pipes[i].X -= c.cfg.PipeSpeed * dt
	}

	passed := 0
	for i := range c.pipes {
		if !c.pipes[i].Scored && c.pipes[i].X+c.pipes[i].Width < birdX {
			c.pipes[i].Scored = true
			passed++
		}
	}

	// Retire pipes that have fully left the world
	live := c.pipes[:0]
	for _, p := range c.pipes {
		if p.X+p.Width > 0 {
			live = append(live, p)
		}
	}
	c.pipes = live

	if len(c.pipes) == 0 {
		// First pipe spawns a little beyond the right edge
		c.spawn(c.cfg.WorldW + 100)
	} else if c.pipes[len(c.pipes)-1].X < c.cfg.WorldW-c.cfg.PipeSpacing {
		c.spawn(c.cfg.WorldW)
	}

	return passed
}

// spawn appends a pipe at x, drawing exactly two values from the stream.
func (c *Course) spawn(x float64) {
	gapCenter := c.rng.Float64Range(c.cfg.MinGapCenter, c.cfg.MaxGapCenter)
	decorSeed := c.rng.Int31n(10000)
	c.draws += 2

	c.pipes = append(c.pipes, Pipe{
		X:         x,
		GapCenter: gapCenter,
		GapSize:   c.cfg.GapSize,
		Width:     c.cfg.PipeWidth,
		DecorSeed: decorSeed,
	})
}

// Collides reports whether the box overlaps any pipe column.
func (c *Course) Collides(b core.Box) bool {
	for _, p := range c.pipes {
		if b.Overlaps(p.TopBox()) || b.Overlaps(p.BottomBox(c.cfg.WorldH)) {
			return true
		}
	}
	return false
}

// Pipes returns the current pipe list.
func (c *Course) Pipes() []Pipe {
	return c.pipes
}

// Draws returns how many values have been consumed from the RNG stream.
// Useful for verifying the lock-step draw discipline in tests.
func (c *Course) Draws() int {
	return c.draws
}
