package ring

import "time"

// Clock abstracts time.Now so tests can pin wall-clock-dependent behavior
// (fast-return detection, token timeout) without sleeping in real time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
