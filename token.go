package ring

import (
	"time"

	"github.com/rs/xid"
)

// handleTokenReceived is called from the receive loop whenever the inbound
// payload is the token wire form. A token already held by this node is
// silently dropped — its permission is subsumed by the one already held.
// A token returning faster than MinTokenTime is logged as suspicious but
// still accepted; duplicate detection here is advisory only.
func (n *Node) handleTokenReceived() {
	now := n.clock.Now()

	n.mu.Lock()
	if n.tokenHolder {
		n.mu.Unlock()
		n.logger.Warnf("duplicate token received while already holder, dropping")
		n.metrics.IncDuplicateDropped()
		return
	}
	if n.hasTimeILastSentToken {
		if elapsed := now.Sub(n.timeILastSentToken); elapsed < n.timing.MinTokenTime() {
			n.logger.Warnf("token returned after only %s (min %s), accepting anyway", elapsed, n.timing.MinTokenTime())
		}
	}
	n.tokenHolder = true
	n.lastTokenTime = now
	n.hasLastTokenTime = true
	n.mu.Unlock()

	n.metrics.IncTokenCirculation()
	n.continueAsHolder()
}

// continueAsHolder assumes this node currently holds the token and decides
// what to do next: transmit the queue head, or hold for T and forward. It
// is a no-op if a round-trip is already in flight — the node must wait for
// that to resolve before acting again.
func (n *Node) continueAsHolder() {
	n.mu.Lock()
	waiting := n.waitingForAnswer
	n.mu.Unlock()
	if waiting {
		return
	}

	if _, ok := n.queue.Peek(); ok {
		n.transmitHead()
		return
	}
	n.holdThenForwardToken()
}

// transmitHead builds a fresh data packet from the queue head (applying
// the corruption injector, if any, and a freshly computed CRC), sends it,
// and marks waitingForAnswer. A send failure is treated as a
// TransientSendFailure: waitingForAnswer is cleared again and the token is
// held-then-forwarded to keep the ring alive, leaving the head entry
// untouched for a later attempt.
func (n *Node) transmitHead() {
	entry, ok := n.queue.Peek()
	if !ok {
		n.holdThenForwardToken()
		return
	}

	message := entry.Content
	if n.corruptor != nil {
		message = n.corruptor.Maybe(message)
	}

	p := NewDataPacket(n.cfg.Nickname, entry.Dest, message)
	p.SetCRC(Checksum(p.Src, p.Dest, p.Status, p.Message))

	trace := xid.New()
	n.logger.Infof("transmit %s: dest=%s attempts=%d", trace, entry.Dest, entry.Attempts)

	n.mu.Lock()
	n.waitingForAnswer = true
	n.mu.Unlock()

	if err := n.sendTo(p.Encode()); err != nil {
		n.mu.Lock()
		n.waitingForAnswer = false
		n.mu.Unlock()
		n.holdThenForwardToken()
	}
}

// recordTokenForwarded mutates the token-machine fields to reflect that
// this node is no longer the holder and is about to forward the token, as
// of now. It is always called before the token actually leaves the
// socket — and, in the held-with-empty-queue path, before the hold sleep —
// so that no blocking operation ever happens while mu is held.
func (n *Node) recordTokenForwarded(now time.Time) {
	n.mu.Lock()
	n.tokenHolder = false
	n.lastTokenTime = now
	n.hasLastTokenTime = true
	n.timeILastSentToken = now
	n.hasTimeILastSentToken = true
	n.mu.Unlock()
}

// holdThenForwardToken implements the Holding (queue empty) state: record
// the about-to-forward state, sleep the base hold time T outside the
// lock, then forward.
func (n *Node) holdThenForwardToken() {
	n.recordTokenForwarded(n.clock.Now())
	time.Sleep(n.timing.HoldTime())
	if !n.isRunning() {
		return
	}
	n.forwardToken("hold elapsed")
}

// forwardToken sends the token wire form to the right neighbor. Callers
// are responsible for having already updated token-machine state via
// recordTokenForwarded.
func (n *Node) forwardToken(reason string) {
	if err := n.sendTo(EncodeToken()); err != nil {
		n.logger.Errorf("%s: failed to forward token: %v", reason, err)
		return
	}
	n.logger.Infof("%s: token forwarded to %s", reason, n.cfg.RightNeighbor)
}

// mintAndForwardToken injects a token into the ring immediately, with no
// hold delay: used for the initial token, monitor-driven regeneration, and
// the operator's /forcartoken and /duplicartoken commands.
func (n *Node) mintAndForwardToken(reason string, countRegeneration bool) {
	n.recordTokenForwarded(n.clock.Now())
	n.forwardToken(reason)
	if countRegeneration {
		n.metrics.IncTokenRegeneration()
	}
}

// emitInitialToken is the one-shot startup task gated on
// NodeConfig.IsTokenOriginator: after InitialTokenDelay, the configured
// originator mints the ring's first token.
func (n *Node) emitInitialToken() {
	defer n.wg.Done()
	select {
	case <-time.After(InitialTokenDelay):
	case <-n.ctx.Done():
		return
	}
	if !n.isRunning() {
		return
	}
	n.logger.Infof("originator emitting initial token")
	n.mintAndForwardToken("initial token", false)
}
