package ring

import (
	"testing"
	"time"
)

func TestHandleTokenReceivedBecomesHolderAndForwardsWhenQueueEmpty(t *testing.T) {
	n, ft, _ := newTestNode("A", false)

	n.handleTokenReceived()

	n.mu.Lock()
	holder := n.tokenHolder
	n.mu.Unlock()
	if holder {
		t.Error("holder should be cleared again after holding an empty queue and forwarding")
	}

	payload, ok := ft.lastSent()
	if !ok || !IsToken(payload) {
		t.Fatalf("expected a forwarded token, got %q (ok=%v)", payload, ok)
	}
	if got := n.metrics.Snapshot().tokenCirculations; got != 1 {
		t.Errorf("tokenCirculations = %d, want 1", got)
	}
}

func TestHandleTokenReceivedTransmitsQueuedMessage(t *testing.T) {
	n, ft, _ := newTestNode("A", false)
	n.Enqueue("B", "hello")

	n.handleTokenReceived()

	n.mu.Lock()
	holder, waiting := n.tokenHolder, n.waitingForAnswer
	n.mu.Unlock()
	if !holder {
		t.Error("node should still hold the token while waiting for its data packet to return")
	}
	if !waiting {
		t.Error("waitingForAnswer should be set after transmitting the queue head")
	}

	payload, ok := ft.lastSent()
	if !ok {
		t.Fatal("expected a sent data packet")
	}
	p, err := DecodePacket(payload)
	if err != nil {
		t.Fatalf("DecodePacket: %v", err)
	}
	if p.Src != "A" || p.Dest != "B" || p.Message != "hello" {
		t.Errorf("packet = %+v, want src=A dest=B message=hello", p)
	}
}

func TestHandleTokenReceivedDuplicateDropped(t *testing.T) {
	n, ft, _ := newTestNode("A", false)
	n.Enqueue("B", "hello")
	n.handleTokenReceived() // becomes holder, transmits, now waiting

	sentBefore := ft.sentCount()
	n.handleTokenReceived() // duplicate: already holder

	if ft.sentCount() != sentBefore {
		t.Error("duplicate token while already holder should not cause any send")
	}
	if got := n.metrics.Snapshot().duplicateDropped; got != 1 {
		t.Errorf("duplicateDropped = %d, want 1", got)
	}
}

func TestHandleTokenReceivedFastReturnStillAccepted(t *testing.T) {
	n, _, fc := newTestNode("A", false)

	n.handleTokenReceived() // holds empty queue, immediately forwards and clears holder

	fc.Advance(time.Nanosecond)
	n.handleTokenReceived() // returns far faster than MinTokenTime

	n.mu.Lock()
	holder := n.tokenHolder
	n.mu.Unlock()
	// Still accepted despite the suspiciously fast return — holder becomes
	// true again (and then false once the empty-queue hold elapses).
	_ = holder
	if got := n.metrics.Snapshot().tokenCirculations; got != 2 {
		t.Errorf("tokenCirculations = %d, want 2 (fast return still counted)", got)
	}
}

func TestTransmitHeadSendFailureHoldsAndForwardsToken(t *testing.T) {
	n, ft, _ := newTestNode("A", false)
	n.Enqueue("B", "hello")

	n.mu.Lock()
	n.tokenHolder = true
	n.mu.Unlock()

	ft.failNext = true
	n.transmitHead()

	n.mu.Lock()
	waiting := n.waitingForAnswer
	holder := n.tokenHolder
	n.mu.Unlock()
	if waiting {
		t.Error("waitingForAnswer should be cleared after a send failure")
	}
	if holder {
		t.Error("token should have been forwarded after the send failure")
	}
	if n.queue.Size() != 1 {
		t.Error("the unsent entry should remain queued for a later attempt")
	}

	payload, ok := ft.lastSent()
	if !ok || !IsToken(payload) {
		t.Fatalf("expected the token to be forwarded after the failed send, got %q", payload)
	}
}

func TestMintAndForwardTokenRegenerationCounting(t *testing.T) {
	n, ft, _ := newTestNode("A", false)

	n.mintAndForwardToken("test", true)

	if got := n.metrics.Snapshot().tokenRegenerations; got != 1 {
		t.Errorf("tokenRegenerations = %d, want 1", got)
	}
	payload, ok := ft.lastSent()
	if !ok || !IsToken(payload) {
		t.Fatalf("expected a minted token to be sent, got %q", payload)
	}
}
