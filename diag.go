package ring

// SocketStats reports OS-level receive-queue occupancy for the node's
// bound UDP socket, surfaced through the operator's /debug command.
type SocketStats struct {
	ReceiveQueueBytes int
}
