package ring

import "time"

// monitorLoop is the Token Monitor task: it wakes every MonitorPeriod and
// checks for token inactivity. It is the sole recovery mechanism for a
// lost token — there is no coordinated election.
func (n *Node) monitorLoop() {
	defer n.wg.Done()
	ticker := time.NewTicker(MonitorPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !n.isRunning() {
				return
			}
			n.checkTokenLiveness()
		case <-n.ctx.Done():
			return
		}
	}
}

// checkTokenLiveness regenerates the token if it has been seen before, is
// not currently held by this node, and more than TokenTimeout has elapsed
// since it was last seen.
func (n *Node) checkTokenLiveness() {
	now := n.clock.Now()

	n.mu.Lock()
	hasLast := n.hasLastTokenTime
	last := n.lastTokenTime
	holder := n.tokenHolder
	n.mu.Unlock()

	if !hasLast || holder {
		return
	}

	timeout := n.timing.TokenTimeout()
	if now.Sub(last) <= timeout {
		return
	}

	n.logger.Warnf("no token activity for over %s, regenerating", timeout)
	n.mintAndForwardToken("token regeneration", true)
}
