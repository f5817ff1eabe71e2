// Package comm emulates message queues over packet links.
package comm

import "github.com/robotalks/msgport/pkg/ipc"

// PacketReader reads packets in bytes.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes packets in bytes.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter reads/writes packets in bytes.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}

// Dialer establishes the packet link for a queue.
type Dialer interface {
	Dial(key ipc.Key) (PacketReadWriter, error)
}

// DialFunc is func form of Dialer.
type DialFunc func(ipc.Key) (PacketReadWriter, error)

// Dial implements Dialer.
func (f DialFunc) Dial(key ipc.Key) (PacketReadWriter, error) {
	return f(key)
}
