package config

import (
	_ "embed"
)

//go:embed defaults/race.yaml
var defaultRaceYAML []byte

// DefaultRaceConfig returns the default race configuration. These values
// mirror the canonical course every released client ships with; multiplayer
// only converges when all lobby members run the same course geometry.
func DefaultRaceConfig() RaceConfig {
	return RaceConfig{
		Physics: PhysicsConfig{
			Gravity:       1200,
			FlapImpulse:   -380,
			MaxFallSpeed:  600,
			RotationSpeed: 3,
			FlapRotation:  -0.5,
		},
		Course: CourseConfig{
			WorldW:       480,
			WorldH:       640,
			GroundHeight: 80,
			PipeSpeed:    150,
			PipeSpacing:  200,
			PipeWidth:    52,
			GapSize:      140,
			MinGapCenter: 120,
			MaxGapCenter: 420,
			BirdX:        80,
			BirdSize:     26,
			HitboxInset:  4,
		},
		Net: NetConfig{
			PushIntervalMillis: 200,
			InterpDelayMillis:  100,
			SnapshotBufferCap:  20,
			CountdownSeconds:   3,
			StartGraceMillis:   500,
			MaxPlayers:         8,
		},
	}
}
