package session

import "testing"

func bufferWith(samples ...snapshot) *snapshotBuffer {
	b := newSnapshotBuffer(20)
	for _, s := range samples {
		b.insert(s)
	}
	return b
}

func TestInterpolationClamping(t *testing.T) {
	b := bufferWith(
		snapshot{atMillis: 0, y: 100},
		snapshot{atMillis: 50, y: 110},
		snapshot{atMillis: 100, y: 120},
		snapshot{atMillis: 150, y: 130},
	)

	// Past the newest sample: clamp to newest.
	s, ok := b.at(200)
	if !ok || s.y != 130 {
		t.Errorf("at(200) = %v, expected clamp to newest y=130", s.y)
	}

	// Before the oldest sample: clamp to oldest.
	s, ok = b.at(-10)
	if !ok || s.y != 100 {
		t.Errorf("at(-10) = %v, expected clamp to oldest y=100", s.y)
	}

	// Straddling 50 and 100: halfway blend.
	s, ok = b.at(75)
	if !ok || s.y != 115 {
		t.Errorf("at(75) = %v, expected blend y=115", s.y)
	}
}

func TestInterpolationBlendsAllFields(t *testing.T) {
	b := bufferWith(
		snapshot{atMillis: 0, y: 0, velocity: -380, rotation: -0.5},
		snapshot{atMillis: 100, y: 50, velocity: 0, rotation: 0.5},
	)

	s, ok := b.at(50)
	if !ok {
		t.Fatal("expected a sample")
	}
	if s.y != 25 || s.velocity != -190 || s.rotation != 0 {
		t.Errorf("blend = %+v, expected y=25 vel=-190 rot=0", s)
	}
}

func TestBufferEmptyFallsThrough(t *testing.T) {
	b := newSnapshotBuffer(20)
	if _, ok := b.at(100); ok {
		t.Error("empty buffer should report no sample")
	}
}

func TestBufferDedupsByTimestamp(t *testing.T) {
	b := newSnapshotBuffer(20)
	b.insert(snapshot{atMillis: 100, y: 1})
	b.insert(snapshot{atMillis: 100, y: 999})

	if len(b.samples) != 1 {
		t.Fatalf("buffer holds %d samples, expected duplicate dropped", len(b.samples))
	}
	if b.samples[0].y != 1 {
		t.Error("duplicate delivery must not overwrite the first sample")
	}
}

func TestBufferToleratesOutOfOrderDelivery(t *testing.T) {
	b := newSnapshotBuffer(20)
	b.insert(snapshot{atMillis: 100, y: 2})
	b.insert(snapshot{atMillis: 0, y: 0})
	b.insert(snapshot{atMillis: 50, y: 1})

	for i, want := range []int64{0, 50, 100} {
		if b.samples[i].atMillis != want {
			t.Fatalf("sample %d at %d, expected sorted order", i, b.samples[i].atMillis)
		}
	}
}

func TestBufferCapDropsOldest(t *testing.T) {
	b := newSnapshotBuffer(20)
	for i := 0; i < 30; i++ {
		b.insert(snapshot{atMillis: int64(i * 50), y: float64(i)})
	}

	if len(b.samples) != 20 {
		t.Fatalf("buffer holds %d samples, cap is 20", len(b.samples))
	}
	if b.samples[0].atMillis != 500 {
		t.Errorf("oldest retained sample at %d, expected the first ten dropped", b.samples[0].atMillis)
	}
}
