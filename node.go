package ring

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Node is a single ring participant: the token state machine, the outbound
// queue, and the router, bound to one UDP transport and one right
// neighbor. Its exported methods are safe for concurrent use; internally a
// single coarse mutex (mu) serializes the token-machine fields, matching
// the single-lock design the engine's concurrency model calls for. The
// queue carries its own, finer-grained lock (see Queue) so that Peek and
// BumpHeadAttempts stay atomic against Dequeue even when called outside mu.
//
// Lock order, where both are needed: mu before queue's internal lock,
// never the reverse.
type Node struct {
	cfg       *NodeConfig
	instance  uuid.UUID
	transport Transport
	logger    Logger
	logCloser io.Closer
	metrics   *RingMetrics
	clock     Clock
	corruptor CorruptionInjector
	retryCap  int

	queue  *Queue
	timing *TimingParams

	mu                    sync.Mutex
	tokenHolder           bool
	waitingForAnswer      bool
	lastTokenTime         time.Time
	hasLastTokenTime      bool
	timeILastSentToken    time.Time
	hasTimeILastSentToken bool

	running   bool
	runningMu sync.Mutex

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once

	commands io.Reader // operator input; set by Run, nil until then
}

// NewNode builds a Node from cfg and the given options. It binds the UDP
// socket (or adopts an injected Transport) and opens the per-node log file
// eagerly; callers own the returned Node and must call Close (Run does so
// on return) to release both.
func NewNode(cfg *NodeConfig, opts ...Option) (*Node, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrConfigInvalid)
	}
	if cfg.RightNeighbor == "" || cfg.Nickname == "" {
		return nil, fmt.Errorf("%w: missing right neighbor or nickname", ErrConfigInvalid)
	}

	settings := defaultNodeSettings()
	for _, opt := range opts {
		opt(settings)
	}

	transport := settings.transport
	if transport == nil {
		t, err := NewUDPTransport(cfg.LocalBindPort)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBindFailed, err)
		}
		transport = t
	}

	logger := settings.logger
	var logCloser io.Closer
	if logger == nil {
		l, closer, err := NewFileLogger(cfg.Nickname)
		if err != nil {
			transport.Close()
			return nil, err
		}
		logger, logCloser = l, closer
	}

	ctx, cancel := context.WithCancel(context.Background())

	n := &Node{
		cfg:       cfg,
		instance:  uuid.New(),
		transport: transport,
		logger:    logger,
		logCloser: logCloser,
		clock:     settings.clock,
		corruptor: settings.corruptor,
		retryCap:  settings.retryCap,
		queue:     NewQueue(settings.queueCapacity),
		timing:    NewTimingParams(cfg.TokenHoldTime),
		ctx:       ctx,
		cancel:    cancel,
	}
	n.metrics = NewRingMetrics(cfg.Nickname, n.queue.Size)

	n.logger.Infof("node %s (%s) constructed, right neighbor %s, originator=%v",
		cfg.Nickname, n.instance, cfg.RightNeighbor, cfg.IsTokenOriginator)

	return n, nil
}

// Metrics returns the node's prometheus.Collector, for registration with a
// prometheus.Registry by the hosting binary.
func (n *Node) Metrics() *RingMetrics { return n.metrics }

// Run starts all background loops (receiver, monitor, initial token
// emitter) and blocks until the operator issues a shutdown command or ctx
// is cancelled, then tears everything down and returns. in is the
// operator's line-oriented command stream.
func (n *Node) Run(ctx context.Context, in io.Reader) error {
	n.commands = in

	n.runningMu.Lock()
	n.running = true
	n.runningMu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			n.cancel()
		case <-n.ctx.Done():
		}
	}()

	n.wg.Add(3)
	go n.receiveLoop()
	go n.monitorLoop()
	go n.operatorLoop()

	if n.cfg.IsTokenOriginator {
		n.wg.Add(1)
		go n.emitInitialToken()
	}

	n.wg.Wait()
	return n.Close()
}

// isRunning reports whether the node is still accepting work. It is
// distinct from ctx cancellation so that loops can observe a clean,
// synchronous "stop" without racing on context internals.
func (n *Node) isRunning() bool {
	n.runningMu.Lock()
	defer n.runningMu.Unlock()
	return n.running
}

// Shutdown requests that all loops stop; they notice within at most one
// second, their longest blocking interval, and return. Shutdown does not
// block for that to happen; Run waits for the loops to exit before it
// returns. Close does not wait for them.
func (n *Node) Shutdown() {
	n.runningMu.Lock()
	n.running = false
	n.runningMu.Unlock()
	n.cancel()
}

// Close releases the transport and log file. It is idempotent.
func (n *Node) Close() error {
	var err error
	n.closeOnce.Do(func() {
		n.Shutdown()
		err = n.transport.Close()
		if n.logCloser != nil {
			n.logCloser.Close()
		}
	})
	return err
}

// receiveLoop is the Receiver task: blocks on the socket with a 1-second
// read timeout so it can notice shutdown promptly, and feeds every
// successfully decoded payload to the token machine or router.
func (n *Node) receiveLoop() {
	defer n.wg.Done()
	for n.isRunning() {
		payload, from, err := n.transport.Recv(time.Second)
		if err != nil {
			if errors.Is(err, ErrRecvTimeout) {
				continue
			}
			if !n.isRunning() {
				return
			}
			n.logger.Warnf("receive error: %v", err)
			continue
		}
		n.handleInbound(payload, from)
	}
}

// handleInbound dispatches one inbound datagram: tokens go to the token
// machine, well-formed data packets to the router, anything else is logged
// and dropped.
func (n *Node) handleInbound(payload []byte, from string) {
	switch {
	case IsToken(payload):
		n.logger.Infof("token received from %s", from)
		n.handleTokenReceived()
	case IsDataPacket(payload):
		p, err := DecodePacket(payload)
		if err != nil {
			n.logger.Warnf("malformed packet from %s: %v", from, err)
			return
		}
		n.logger.Infof("data packet from %s: src=%s dest=%s status=%s", from, p.Src, p.Dest, p.Status)
		n.routeDataPacket(p)
	default:
		n.logger.Warnf("unrecognized payload from %s, dropping", from)
	}
}

// sendTo wraps the transport send with a metrics bump and error log; it
// never itself decides whether the caller holds the token.
func (n *Node) sendTo(payload []byte) error {
	if err := n.transport.SendTo(n.cfg.RightNeighbor, payload); err != nil {
		n.logger.Errorf("send to %s failed: %v", n.cfg.RightNeighbor, err)
		return err
	}
	n.metrics.IncSent()
	return nil
}

// Enqueue adds a message for dest to the outbound queue, transmitting
// immediately if this node already holds the token and has no packet in
// flight. It mirrors the operator's `<dest> <message>` command.
func (n *Node) Enqueue(dest, message string) error {
	if !n.queue.Enqueue(Entry{Dest: dest, Content: message}) {
		return ErrQueueFull
	}
	n.logger.Infof("enqueued message to %s", dest)

	n.mu.Lock()
	holder, waiting := n.tokenHolder, n.waitingForAnswer
	n.mu.Unlock()

	if holder && !waiting {
		n.transmitHead()
	}
	return nil
}
