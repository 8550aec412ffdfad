package session

// snapshot is one timestamped sample of a remote player's kinematic state,
// in store clock milliseconds.
type snapshot struct {
	atMillis int64
	y        float64
	velocity float64
	rotation float64
}

// snapshotBuffer holds a remote player's recent samples, oldest first.
// Inserts dedup by timestamp and keep the buffer sorted, so out-of-order
// delivery is tolerated; the cap drops the oldest sample.
type snapshotBuffer struct {
	samples []snapshot
	cap     int
}

func newSnapshotBuffer(cap int) *snapshotBuffer {
	if cap < 2 {
		cap = 2
	}
	return &snapshotBuffer{cap: cap}
}

func (b *snapshotBuffer) insert(s snapshot) {
	// Common case: strictly newer than everything buffered.
	n := len(b.samples)
	if n == 0 || s.atMillis > b.samples[n-1].atMillis {
		b.samples = append(b.samples, s)
	} else {
		i := 0
		for i < n && b.samples[i].atMillis < s.atMillis {
			i++
		}
		if i < n && b.samples[i].atMillis == s.atMillis {
			return // duplicate delivery
		}
		b.samples = append(b.samples, snapshot{})
		copy(b.samples[i+1:], b.samples[i:])
		b.samples[i] = s
	}
	if len(b.samples) > b.cap {
		b.samples = b.samples[1:]
	}
}

func (b *snapshotBuffer) empty() bool {
	return len(b.samples) == 0
}

// at returns the interpolated state for renderTime. Outside the buffered
// window it clamps: before the oldest sample returns the oldest, past the
// newest returns the newest. Between two samples it blends linearly.
func (b *snapshotBuffer) at(renderTime int64) (snapshot, bool) {
	n := len(b.samples)
	if n == 0 {
		return snapshot{}, false
	}
	if renderTime <= b.samples[0].atMillis {
		return b.samples[0], true
	}
	if renderTime >= b.samples[n-1].atMillis {
		return b.samples[n-1], true
	}

	for i := 1; i < n; i++ {
		lo, hi := b.samples[i-1], b.samples[i]
		if renderTime <= hi.atMillis {
			span := float64(hi.atMillis - lo.atMillis)
			t := float64(renderTime-lo.atMillis) / span
			return snapshot{
				atMillis: renderTime,
				y:        lo.y + (hi.y-lo.y)*t,
				velocity: lo.velocity + (hi.velocity-lo.velocity)*t,
				rotation: lo.rotation + (hi.rotation-lo.rotation)*t,
			}, true
		}
	}
	return b.samples[n-1], true
}
