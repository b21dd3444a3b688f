package ring

import (
	"sync"
	"time"
)

// These were magic numbers in the original source; naming them keeps the
// derived-timing formulas below readable.
const (
	// InitialTokenDelay is how long the configured originator waits
	// after startup before minting the first token, giving the rest of
	// the ring time to come up.
	InitialTokenDelay = 1 * time.Second

	// MonitorPeriod is the token-liveness watchdog's tick interval.
	MonitorPeriod = 1 * time.Second

	// DefaultRetryCap is the number of send attempts (including the
	// first) a NAK'd queue head is allowed before the engine gives up
	// and dequeues it. Two known deployments of the original protocol
	// disagree (3 vs. 2); this repo follows the more forgiving default
	// and exposes it as an override via WithRetryCap for callers that
	// want to pin the other variant.
	DefaultRetryCap = 3

	// minTokenTimeBase is the fixed addend in min_token_time = 2T + 0.5.
	minTokenTimeBase = 500 * time.Millisecond
)

// TimingParams holds the mutable base hold time T and the timeouts
// derived from it. T is adjustable at runtime via the
// operator's /tempo command; TokenTimeout and MinTokenTime always reflect
// the current T.
type TimingParams struct {
	mu sync.RWMutex
	t  time.Duration
}

// NewTimingParams builds a TimingParams with base hold time t (1s if t is
// not positive).
func NewTimingParams(t time.Duration) *TimingParams {
	if t <= 0 {
		t = time.Second
	}
	return &TimingParams{t: t}
}

// HoldTime returns T, the base unit an idle token holder retains the
// token before forwarding it.
func (p *TimingParams) HoldTime() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.t
}

// TokenTimeout returns 5T: the inactivity interval after which the
// monitor regenerates a lost token.
func (p *TimingParams) TokenTimeout() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.t * 5
}

// MinTokenTime returns 2T + 0.5s: the lower bound on a legitimate token
// round-trip. A faster return is logged as suspicious (possible
// duplication) but still accepted.
func (p *TimingParams) MinTokenTime() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.t*2 + minTokenTimeBase
}

// SetHoldTime updates T; TokenTimeout and MinTokenTime reflect the new
// value on their next call.
func (p *TimingParams) SetHoldTime(t time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.t = t
}
