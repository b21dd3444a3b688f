package ring

import (
	"testing"
	"time"
)

func TestHandleCommandForceToken(t *testing.T) {
	n, ft, _ := newTestNode("A", false)

	n.handleCommand("/forcartoken")

	payload, ok := ft.lastSent()
	if !ok || !IsToken(payload) {
		t.Fatalf("expected a forced token, got %q (ok=%v)", payload, ok)
	}
	if n.metrics.Snapshot().tokenRegenerations != 1 {
		t.Error("expected tokenRegenerations = 1")
	}
}

func TestHandleCommandForceTokenNoOpWhenAlreadyHolder(t *testing.T) {
	n, ft, _ := newTestNode("A", false)
	n.mu.Lock()
	n.tokenHolder = true
	n.mu.Unlock()

	n.handleCommand("/forcartoken")

	if ft.sentCount() != 0 {
		t.Error("/forcartoken should be a no-op when already holder")
	}
}

func TestHandleCommandRemoveToken(t *testing.T) {
	n, _, _ := newTestNode("A", false)
	n.mu.Lock()
	n.tokenHolder = true
	n.mu.Unlock()

	n.handleCommand("/removertoken")

	n.mu.Lock()
	holder := n.tokenHolder
	n.mu.Unlock()
	if holder {
		t.Error("/removertoken should clear tokenHolder")
	}
}

func TestHandleCommandClearQueue(t *testing.T) {
	n, _, _ := newTestNode("A", false)
	n.Enqueue("B", "hi")
	n.Enqueue("C", "there")

	n.handleCommand("/limparfila")

	if n.queue.Size() != 0 {
		t.Error("/limparfila should drain the queue")
	}
}

func TestHandleCommandDuplicateToken(t *testing.T) {
	n, ft, _ := newTestNode("A", false)

	n.handleCommand("/duplicartoken")

	if ft.sentCount() != 2 {
		t.Fatalf("sentCount = %d, want 2 tokens emitted back-to-back", ft.sentCount())
	}
}

func TestHandleCommandSetTempo(t *testing.T) {
	n, _, _ := newTestNode("A", false)

	n.handleCommand("/tempo 3.5")

	if got := n.timing.HoldTime(); got != 3500*time.Millisecond {
		t.Errorf("HoldTime = %v, want 3.5s", got)
	}
}

func TestHandleCommandSetTempoInvalid(t *testing.T) {
	n, _, _ := newTestNode("A", false)
	before := n.timing.HoldTime()

	n.handleCommand("/tempo banana")

	if got := n.timing.HoldTime(); got != before {
		t.Errorf("HoldTime changed to %v on invalid input, want unchanged %v", got, before)
	}
}

func TestHandleCommandShutdownAliases(t *testing.T) {
	for _, cmd := range []string{"/sair", "/quit", "/shutdown"} {
		t.Run(cmd, func(t *testing.T) {
			n, _, _ := newTestNode("A", false)
			n.handleCommand(cmd)
			if n.isRunning() {
				t.Errorf("%s should have requested shutdown", cmd)
			}
		})
	}
}

func TestHandleCommandUnknownSlashIsIgnored(t *testing.T) {
	n, ft, _ := newTestNode("A", false)

	n.handleCommand("/nonsense")

	if ft.sentCount() != 0 {
		t.Error("an unknown slash command should not cause any send")
	}
	if !n.isRunning() {
		t.Error("an unknown slash command should not shut the node down")
	}
}

func TestHandleCommandBareEnqueue(t *testing.T) {
	n, _, _ := newTestNode("A", false)

	n.handleCommand("B hello there")

	if n.queue.Size() != 1 {
		t.Fatal("a bare '<dest> <message>' line should enqueue")
	}
	head, _ := n.queue.Peek()
	if head.Dest != "B" || head.Content != "hello there" {
		t.Errorf("head = %+v, want dest=B content='hello there'", head)
	}
}

func TestHandleCommandMalformedEnqueueIgnored(t *testing.T) {
	n, _, _ := newTestNode("A", false)

	n.handleCommand("justoneword")

	if n.queue.Size() != 0 {
		t.Error("a line with no space should not be treated as a valid enqueue")
	}
}

func TestHandleCommandBlankLineIgnored(t *testing.T) {
	n, ft, _ := newTestNode("A", false)

	n.handleCommand("   ")

	if ft.sentCount() != 0 {
		t.Error("a blank line should be a no-op")
	}
}
