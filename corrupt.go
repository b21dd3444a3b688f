package ring

import "math/rand"

// CorruptionProbability is the fixed chance that a fresh outbound message
// is corrupted by one character before transmission.
const CorruptionProbability = 0.3

// CorruptionInjector is the external, test-mode collaborator that
// corrupts at most one character of an outbound message. It is consulted
// by Node.transmitHead only when configured via WithCorruptionInjector —
// the knob is "enabled when present", so a Node built
// with no injector never corrupts anything.
type CorruptionInjector interface {
	Maybe(message string) string
}

// RandomCorruptor implements CorruptionInjector: with probability
// CorruptionProbability it substitutes one uniformly-chosen character with
// the next ASCII code point, or a space if the original was ASCII 126
// (the last printable character).
type RandomCorruptor struct {
	rng *rand.Rand
}

// NewRandomCorruptor builds a RandomCorruptor. Pass a seeded *rand.Rand
// for deterministic tests; nil falls back to a fixed-seed default (still
// deterministic, just not caller-controlled).
func NewRandomCorruptor(rng *rand.Rand) *RandomCorruptor {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &RandomCorruptor{rng: rng}
}

// Maybe returns message unchanged, or with exactly one byte substituted,
// per CorruptionProbability. The packet's crc is never recomputed after
// this runs — that mismatch is what makes the target respond with NAK.
func (c *RandomCorruptor) Maybe(message string) string {
	if len(message) == 0 || c.rng.Float64() >= CorruptionProbability {
		return message
	}

	pos := c.rng.Intn(len(message))
	corrupted := []byte(message)
	if corrupted[pos] == 126 {
		corrupted[pos] = ' '
	} else {
		corrupted[pos]++
	}
	return string(corrupted)
}
