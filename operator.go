package ring

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// operatorLoop is the Operator task: it reads line-oriented commands from
// n.commands until EOF or shutdown. Lines are read on a background
// goroutine so the loop itself can still observe ctx cancellation and the
// running flag within about a second, matching the rest of the engine's
// suspension points.
func (n *Node) operatorLoop() {
	defer n.wg.Done()
	if n.commands == nil {
		return
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(n.commands)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return
			}
			n.handleCommand(line)
			if !n.isRunning() {
				return
			}
		case <-n.ctx.Done():
			return
		case <-time.After(time.Second):
			if !n.isRunning() {
				return
			}
		}
	}
}

// handleCommand parses and dispatches one operator input line. An
// unrecognized slash-command is logged and ignored; anything else is
// treated as "<dest> <message>".
func (n *Node) handleCommand(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	switch {
	case line == "/forcartoken":
		n.cmdForceToken()
	case line == "/removertoken":
		n.cmdRemoveToken()
	case line == "/limparfila":
		n.cmdClearQueue()
	case line == "/duplicartoken":
		n.cmdDuplicateToken()
	case line == "/statusanel":
		n.cmdRingStatus()
	case line == "/debug":
		n.cmdDebug()
	case line == "/mostrafila":
		n.cmdShowQueue()
	case strings.HasPrefix(line, "/tempo "):
		n.cmdSetTempo(strings.TrimPrefix(line, "/tempo "))
	case line == "/sair" || line == "/quit" || line == "/shutdown":
		n.logger.Infof("operator requested shutdown")
		n.Shutdown()
	case strings.HasPrefix(line, "/"):
		n.logger.Warnf("unknown operator command: %s", line)
	default:
		n.cmdEnqueue(line)
	}
}

// cmdEnqueue handles the bare "<dest> <message>" form.
func (n *Node) cmdEnqueue(line string) {
	dest, message, found := strings.Cut(line, " ")
	if !found || dest == "" || message == "" {
		n.logger.Warnf("malformed operator input %q, expected '<dest> <message>'", line)
		return
	}
	if err := n.Enqueue(dest, message); err != nil {
		n.logger.Warnf("enqueue to %s failed: %v", dest, err)
	}
}

// cmdForceToken is /forcartoken: self-promote and forward the token, but
// only if this node doesn't already hold it.
func (n *Node) cmdForceToken() {
	n.mu.Lock()
	holder := n.tokenHolder
	n.mu.Unlock()
	if holder {
		n.logger.Infof("/forcartoken: already holder, ignoring")
		return
	}
	n.mintAndForwardToken("operator forced token", true)
}

// cmdRemoveToken is /removertoken: drop the token without forwarding,
// simulating a loss.
func (n *Node) cmdRemoveToken() {
	n.mu.Lock()
	n.tokenHolder = false
	n.mu.Unlock()
	n.logger.Warnf("/removertoken: token dropped without forwarding")
}

// cmdClearQueue is /limparfila.
func (n *Node) cmdClearQueue() {
	drained := n.queue.Drain()
	n.logger.Infof("/limparfila: drained %d entries", len(drained))
}

// cmdDuplicateToken is /duplicartoken: emit two tokens back-to-back.
func (n *Node) cmdDuplicateToken() {
	n.logger.Warnf("/duplicartoken: emitting two tokens back-to-back")
	n.mintAndForwardToken("operator duplicate token (1/2)", false)
	n.mintAndForwardToken("operator duplicate token (2/2)", false)
}

// cmdRingStatus is /statusanel: a short summary of token-machine state.
func (n *Node) cmdRingStatus() {
	n.mu.Lock()
	holder, waiting := n.tokenHolder, n.waitingForAnswer
	n.mu.Unlock()
	n.logger.Infof("/statusanel: holder=%v waiting=%v queue_depth=%d hold_time=%s",
		holder, waiting, n.queue.Size(), n.timing.HoldTime())
}

// cmdDebug is /debug: ring status plus, where the transport supports it,
// OS-level socket diagnostics.
func (n *Node) cmdDebug() {
	n.mu.Lock()
	holder, waiting := n.tokenHolder, n.waitingForAnswer
	hasLast, last := n.hasLastTokenTime, n.lastTokenTime
	n.mu.Unlock()

	msg := fmt.Sprintf("/debug: holder=%v waiting=%v queue_depth=%d", holder, waiting, n.queue.Size())
	if hasLast {
		msg += fmt.Sprintf(" last_token_age=%s", n.clock.Now().Sub(last))
	}
	if d, ok := n.transport.(Diagnosable); ok {
		if stats, err := d.Stats(); err == nil {
			msg += fmt.Sprintf(" recv_queue_bytes=%d", stats.ReceiveQueueBytes)
		}
	}
	n.logger.Infof("%s", msg)
}

// cmdShowQueue is /mostrafila: a full listing of the outbound queue.
func (n *Node) cmdShowQueue() {
	entries := n.queue.Snapshot()
	n.logger.Infof("/mostrafila: %d entries", len(entries))
	for i, e := range entries {
		n.logger.Infof("  [%d] dest=%s attempts=%d content=%s", i+1, e.Dest, e.Attempts, e.Content)
	}
}

// cmdSetTempo is /tempo <float>: reset the base hold time T.
func (n *Node) cmdSetTempo(arg string) {
	v, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
	if err != nil || v <= 0 {
		n.logger.Warnf("/tempo: invalid value %q", arg)
		return
	}
	d := time.Duration(v * float64(time.Second))
	n.timing.SetHoldTime(d)
	n.logger.Infof("/tempo: hold time set to %s", d)
}
