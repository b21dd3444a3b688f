package ring

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// NodeConfig is the immutable configuration loaded from a node's config
// file. Nothing in the engine mutates it after LoadConfig returns; the one
// runtime-adjustable quantity, the hold time, lives in a TimingParams built
// from TokenHoldTime at startup.
type NodeConfig struct {
	RightNeighbor     string
	Nickname          string
	TokenHoldTime     time.Duration
	IsTokenOriginator bool
	LocalBindPort     int
}

// LoadConfig reads a 4-line configuration file:
//
//	<right_neighbor_ip>:<right_neighbor_port>
//	<nickname>
//	<token_hold_time_seconds_integer>
//	<true|false>
//
// Blank lines are skipped; exactly four non-empty lines are required. LocalBindPort
// is supplied separately, from the command line, and is not part of the
// file.
func LoadConfig(path string) (*NodeConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	if len(lines) != 4 {
		return nil, fmt.Errorf("%w: expected 4 non-empty lines, got %d", ErrConfigInvalid, len(lines))
	}

	neighbor := lines[0]
	if !strings.Contains(neighbor, ":") {
		return nil, fmt.Errorf("%w: right neighbor %q missing port", ErrConfigInvalid, neighbor)
	}

	nickname := lines[1]
	if nickname == "" {
		return nil, fmt.Errorf("%w: empty nickname", ErrConfigInvalid)
	}

	holdSeconds, err := strconv.Atoi(lines[2])
	if err != nil || holdSeconds <= 0 {
		return nil, fmt.Errorf("%w: invalid token hold time %q", ErrConfigInvalid, lines[2])
	}

	isOriginator, err := strconv.ParseBool(lines[3])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid originator flag %q", ErrConfigInvalid, lines[3])
	}

	return &NodeConfig{
		RightNeighbor:     neighbor,
		Nickname:          nickname,
		TokenHoldTime:     time.Duration(holdSeconds) * time.Second,
		IsTokenOriginator: isOriginator,
	}, nil
}

// Option configures optional Node collaborators at construction time. Zero
// value settings fall back to production defaults (a real UDPTransport, no
// corruption, the system clock, an unregistered RingMetrics).
type Option func(*nodeSettings)

type nodeSettings struct {
	retryCap      int
	queueCapacity int
	clock         Clock
	corruptor     CorruptionInjector
	logger        Logger
	transport     Transport
}

func defaultNodeSettings() *nodeSettings {
	return &nodeSettings{
		retryCap:      DefaultRetryCap,
		queueCapacity: QueueCapacity,
		clock:         realClock{},
	}
}

// WithRetryCap overrides the number of send attempts a NAK'd entry gets
// before the engine gives up on it.
func WithRetryCap(n int) Option {
	return func(s *nodeSettings) {
		if n > 0 {
			s.retryCap = n
		}
	}
}

// WithQueueCapacity overrides the outbound queue's bound.
func WithQueueCapacity(n int) Option {
	return func(s *nodeSettings) {
		if n > 0 {
			s.queueCapacity = n
		}
	}
}

// WithClock injects a fake Clock, letting tests control the passage of time
// without real sleeps.
func WithClock(c Clock) Option {
	return func(s *nodeSettings) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithCorruptionInjector enables the test-mode corruption knob. A Node built
// with no injector never corrupts anything.
func WithCorruptionInjector(c CorruptionInjector) Option {
	return func(s *nodeSettings) { s.corruptor = c }
}

// WithLogger overrides the default per-node file logger.
func WithLogger(l Logger) Option {
	return func(s *nodeSettings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTransport overrides the default UDPTransport, letting tests run the
// engine entirely in memory.
func WithTransport(t Transport) Option {
	return func(s *nodeSettings) {
		if t != nil {
			s.transport = t
		}
	}
}
