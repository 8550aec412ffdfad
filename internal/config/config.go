// Package config provides YAML-based configuration for the race simulation
// and network tuning.
package config

// RaceConfig contains all tunables for a race: local physics, the shared
// obstacle course geometry, and replication cadence. Course values must be
// identical on every client in a lobby or the shared seed produces different
// worlds; they are compiled-in defaults unless explicitly overridden.
type RaceConfig struct {
	Physics PhysicsConfig `yaml:"physics"`
	Course  CourseConfig  `yaml:"course"`
	Net     NetConfig     `yaml:"net"`
}

// PhysicsConfig defines the bird's Euler kinematics, in world units/second.
type PhysicsConfig struct {
	Gravity       float64 `yaml:"gravity"`
	FlapImpulse   float64 `yaml:"flap_impulse"`
	MaxFallSpeed  float64 `yaml:"max_fall_speed"`
	RotationSpeed float64 `yaml:"rotation_speed"`
	FlapRotation  float64 `yaml:"flap_rotation"`
}

// CourseConfig defines the obstacle course geometry in world units.
// The world is a fixed coordinate space; terminals of any size project it.
type CourseConfig struct {
	WorldW       float64 `yaml:"world_w"`
	WorldH       float64 `yaml:"world_h"`
	GroundHeight float64 `yaml:"ground_height"`
	PipeSpeed    float64 `yaml:"pipe_speed"`
	PipeSpacing  float64 `yaml:"pipe_spacing"`
	PipeWidth    float64 `yaml:"pipe_width"`
	GapSize      float64 `yaml:"gap_size"`
	MinGapCenter float64 `yaml:"min_gap_center"`
	MaxGapCenter float64 `yaml:"max_gap_center"`
	BirdX        float64 `yaml:"bird_x"`
	BirdSize     float64 `yaml:"bird_size"`
	HitboxInset  float64 `yaml:"hitbox_inset"`
}

// NetConfig defines replication cadence and interpolation tuning.
type NetConfig struct {
	// PushIntervalMillis is the minimum gap between local state snapshots
	// pushed to the store. 200ms = 5 Hz.
	PushIntervalMillis int `yaml:"push_interval_millis"`

	// InterpDelayMillis is the artificial playback delay applied to remote
	// players so jitter and out-of-order delivery smooth out.
	InterpDelayMillis int `yaml:"interp_delay_millis"`

	// SnapshotBufferCap bounds the per-remote-player snapshot buffer.
	SnapshotBufferCap int `yaml:"snapshot_buffer_cap"`

	// CountdownSeconds is the visible pre-race countdown.
	CountdownSeconds int `yaml:"countdown_seconds"`

	// StartGraceMillis is added on top of the countdown before local play
	// begins, bounding start skew across clients.
	StartGraceMillis int `yaml:"start_grace_millis"`

	// MaxPlayers is the lobby capacity bound.
	MaxPlayers int `yaml:"max_players"`
}
