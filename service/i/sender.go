package i

import "net"

// Sender delivers one datagram to addr.
type Sender interface {
	// Send queues b for addr. Delivery is best effort.
	Send(b []byte, addr *net.UDPAddr) error
}
