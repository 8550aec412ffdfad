// Package game implements the bird kinematics and the solo game loop.
// Physics is plain Euler integration with fixed constants; the same step
// function drives the local player and the fallback simulation of remote
// players that have no snapshots buffered yet.
package game

import (
	"math"

	"github.com/vovakirdan/flaprace/internal/config"
	"github.com/vovakirdan/flaprace/internal/core"
)

// Bird is one player's kinematic state in world units.
type Bird struct {
	X        float64
	Y        float64
	Velocity float64
	Rotation float64

	wingTimer float64
	WingUp    bool

	phys config.PhysicsConfig
	size float64
	in   float64
}

// NewBird creates a bird at the given world position.
func NewBird(cfg config.RaceConfig, x, y float64) *Bird {
	return &Bird{
		X:    x,
		Y:    y,
		phys: cfg.Physics,
		size: cfg.Course.BirdSize,
		in:   cfg.Course.HitboxInset,
	}
}

// Flap applies the jump impulse.
func (b *Bird) Flap() {
	b.Velocity = b.phys.FlapImpulse
	b.Rotation = b.phys.FlapRotation
}

// Update advances the bird by dt seconds.
func (b *Bird) Update(dt float64) {
	b.Velocity += b.phys.Gravity * dt
	if b.Velocity > b.phys.MaxFallSpeed {
		b.Velocity = b.phys.MaxFallSpeed
	}
	b.Y += b.Velocity * dt

	if b.Velocity < 0 {
		b.Rotation = b.phys.FlapRotation
	} else {
		b.Rotation = math.Min(b.Rotation+b.phys.RotationSpeed*dt, math.Pi/2)
	}

	b.wingTimer += dt
	if b.wingTimer > 0.1 {
		b.wingTimer = 0
		b.WingUp = !b.WingUp
	}
}

// Hitbox returns the collision box, inset from the visual size so grazing a
// pipe edge feels fair.
func (b *Bird) Hitbox() core.Box {
	return core.Box{
		X: b.X - b.size/2 + b.in,
		Y: b.Y - b.size/2 + b.in,
		W: b.size - b.in*2,
		H: b.size - b.in*2,
	}
}

// SetKinematics overwrites position, velocity, and rotation in one call.
// Used when applying interpolated remote state.
func (b *Bird) SetKinematics(y, velocity, rotation float64) {
	b.Y = y
	b.Velocity = velocity
	b.Rotation = rotation
}
