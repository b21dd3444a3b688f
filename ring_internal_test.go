package ring

import (
	"sync"
	"time"
)

// fakeTransport is an in-memory Transport recording every payload sent to
// RightNeighbor. Recv always reports a timeout — inbound delivery in tests
// goes through handleInbound directly instead of a real socket loop.
type fakeTransport struct {
	mu       sync.Mutex
	sent     [][]byte
	failNext bool
}

func (f *fakeTransport) SendTo(_ string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return errFakeSendFailure
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	f.sent = append(f.sent, cp)
	return nil
}

func (f *fakeTransport) Recv(time.Duration) ([]byte, string, error) {
	return nil, "", ErrRecvTimeout
}

func (f *fakeTransport) Close() error { return nil }

func (f *fakeTransport) lastSent() ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil, false
	}
	return f.sent[len(f.sent)-1], true
}

func (f *fakeTransport) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeSendError struct{ msg string }

func (e *fakeSendError) Error() string { return e.msg }

var errFakeSendFailure = &fakeSendError{"fake send failure"}

// fakeClock returns a fixed, externally advanceable time.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// newTestNode builds a Node wired entirely to in-memory fakes: no socket,
// no log file, a fixed clock, and a tiny hold time so tests never actually
// block in holdThenForwardToken.
func newTestNode(nickname string, originator bool) (*Node, *fakeTransport, *fakeClock) {
	ft := &fakeTransport{}
	fc := newFakeClock(time.Unix(1000, 0))

	cfg := &NodeConfig{
		RightNeighbor:     "peer:9000",
		Nickname:          nickname,
		TokenHoldTime:     time.Millisecond,
		IsTokenOriginator: originator,
	}

	n, err := NewNode(cfg,
		WithTransport(ft),
		WithClock(fc),
		WithLogger(discardLogger{}),
	)
	if err != nil {
		panic(err)
	}
	// Tests drive unexported methods directly rather than through Run, but
	// holdThenForwardToken and the receive/monitor loops all gate on
	// isRunning — so mark the node running as Run would.
	n.runningMu.Lock()
	n.running = true
	n.runningMu.Unlock()
	return n, ft, fc
}
