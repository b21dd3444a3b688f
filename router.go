package ring

// routeDataPacket dispatches a decoded inbound data packet to one of the
// four disposition paths: round-trip (src is self), unicast target (dest
// is self), broadcast transit (dest is TODOS, src is someone else), or
// plain forwarding (anything else).
func (n *Node) routeDataPacket(p *DataPacket) {
	switch {
	case p.Src == n.cfg.Nickname:
		n.handleRoundTrip(p)
	case p.Dest == n.cfg.Nickname:
		n.handleUnicastTarget(p)
	case p.Dest == Broadcast:
		n.handleBroadcastTransit(p)
	default:
		if err := n.forwardVerbatim(p); err == nil {
			n.metrics.IncForwarded()
		}
	}
}

// handleRoundTrip processes a data packet this node originated, now back
// after a full ring traversal: it clears waitingForAnswer and applies the
// originator-side disposition to the outbound queue before deciding
// whether to transmit again or forward the token.
func (n *Node) handleRoundTrip(p *DataPacket) {
	n.mu.Lock()
	n.waitingForAnswer = false
	n.mu.Unlock()

	switch {
	case p.Dest == Broadcast:
		n.queue.Dequeue()
		n.metrics.IncBroadcastCompleted()
	case p.Status == StatusACK:
		n.queue.Dequeue()
		n.metrics.IncAcked()
	case p.Status == StatusNAK:
		n.handleNakReturn(p)
	case p.Status == StatusUnclaimed:
		n.queue.Dequeue()
		n.metrics.IncUnclaimed()
	default:
		n.logger.Warnf("unknown status %q returned for dest %s, taking no queue action", p.Status, p.Dest)
	}

	n.mu.Lock()
	holder := n.tokenHolder
	n.mu.Unlock()
	if holder {
		n.continueAsHolder()
	}
}

// handleNakReturn implements the NAK branch of the originator-side
// disposition: the head is bumped and, past the retry cap, given up on. A
// NAK whose dest doesn't match the current head is logged and ignored —
// it should not happen under the single-in-flight invariant, but the
// engine does not assume it can't.
func (n *Node) handleNakReturn(p *DataPacket) {
	head, ok := n.queue.Peek()
	if !ok || head.Dest != p.Dest {
		n.logger.Warnf("NAK for %s does not match queue head, ignoring", p.Dest)
		n.metrics.IncNaked()
		return
	}

	attempts, _ := n.queue.BumpHeadAttempts()
	n.metrics.IncNaked()
	if attempts >= n.retryCap {
		n.queue.Dequeue()
		n.logger.Warnf("giving up on message to %s after %d attempts", p.Dest, attempts)
	}
}

// handleUnicastTarget answers a packet addressed to this node: recompute
// the CRC over the received fields with the literal "0" crc slot, compare
// to the value the sender transmitted, rewrite status to ACK or NAK, and
// recompute the crc field before forwarding. The node's own queue state is
// never touched here — only the originator dequeues.
func (n *Node) handleUnicastTarget(p *DataPacket) {
	recomputed := Checksum(p.Src, p.Dest, p.Status, p.Message)
	received, ok := p.CRCValue()
	match := ok && received == recomputed

	if match {
		p.Status = StatusACK
		n.metrics.IncTargetAcked()
	} else {
		p.Status = StatusNAK
		n.metrics.IncTargetNaked()
	}
	p.SetCRC(Checksum(p.Src, p.Dest, p.Status, p.Message))

	n.logger.Infof("verified packet from %s: match=%v, answering %s", p.Src, match, p.Status)
	n.forwardVerbatim(p)
}

// handleBroadcastTransit delivers a broadcast message locally (by logging
// it) and forwards it onward regardless of its integrity outcome —
// broadcast CRC validation is advisory only and gates neither delivery nor
// forwarding. The originator will see its own packet again and dequeue it
// via handleRoundTrip.
func (n *Node) handleBroadcastTransit(p *DataPacket) {
	recomputed := Checksum(p.Src, p.Dest, p.Status, p.Message)
	received, ok := p.CRCValue()
	match := ok && received == recomputed

	n.logger.Infof("broadcast from %s (integrity match=%v): %s", p.Src, match, p.Message)
	n.metrics.IncBroadcastDelivered()

	if err := n.forwardVerbatim(p); err == nil {
		n.metrics.IncForwarded()
	}
}

// forwardVerbatim sends p's current wire form to the right neighbor
// unchanged.
func (n *Node) forwardVerbatim(p *DataPacket) error {
	if err := n.sendTo(p.Encode()); err != nil {
		n.logger.Errorf("forward failed: %v", err)
		return err
	}
	return nil
}
