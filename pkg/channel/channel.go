// Package channel implements port channels over message queues.
//
// A Channel owns one queue identified by a key. Messages are sent to
// ports, which are the message tags of the queue, using a framing
// protocol so receivers don't need to know the payload size ahead.
package channel

import (
	"context"
	"math"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/msgport/pkg/ipc"
)

// Port multiplexes logical streams on one channel.
type Port int64

// AnyPort used in receive accepts messages from any port.
const AnyPort Port = 0

// DefaultMaxMessageSize is the default limit of a payload,
// the same as MSGMAX on Linux.
const DefaultMaxMessageSize = 8192

// Message is a message received from a channel.
type Message struct {
	Port    Port
	Payload []byte
}

// Channel is a message queue carrying framed messages.
type Channel struct {
	// MaxMessageSize limits each queued message, 0 means
	// DefaultMaxMessageSize. Frames beyond it are discarded on receive.
	MaxMessageSize int
	// Framing must be the same for all peers on the channel.
	Framing Framing

	transport ipc.Transport
	key       ipc.Key
	handle    ipc.Handle
	owner     bool

	lock     sync.Mutex
	removed  bool
	sendLock sync.Mutex
	recvLock sync.Mutex
}

// Create obtains the queue for key, creating it if absent.
// The returned Channel owns the queue.
func Create(t ipc.Transport, key ipc.Key) (*Channel, error) {
	return open(t, key, ipc.OpenCreate, true)
}

// Open obtains an existing queue for key without owning it.
func Open(t ipc.Transport, key ipc.Key) (*Channel, error) {
	return open(t, key, 0, false)
}

func open(t ipc.Transport, key ipc.Key, flags ipc.OpenFlags, owner bool) (*Channel, error) {
	h, err := t.Open(key, flags)
	if err != nil {
		op := "open"
		if owner {
			op = "create"
		}
		return nil, &ResourceError{Key: key, Op: op, Err: err}
	}
	glog.V(2).Infof("channel %d opened (owner=%v)", key, owner)
	return &Channel{transport: t, key: key, handle: h, owner: owner}, nil
}

// Send resolves the channel by key and sends the payload to port.
func Send(ctx context.Context, t ipc.Transport, key ipc.Key, port Port, payload []byte) error {
	ch, err := Open(t, key)
	if err != nil {
		return err
	}
	return ch.Send(ctx, port, payload)
}

// Key returns the key of the channel.
func (c *Channel) Key() ipc.Key {
	return c.key
}

// Owner indicates the channel is created by Create.
func (c *Channel) Owner() bool {
	return c.owner
}

// Remove removes the queue. Failures are logged and it's safe
// to call more than once. Only the owner removes the queue.
func (c *Channel) Remove() {
	if !c.owner {
		glog.Warningf("channel %d: remove skipped, not owner", c.key)
		return
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.removed {
		glog.V(2).Infof("channel %d already removed", c.key)
		return
	}
	c.removed = true
	if err := c.transport.Remove(c.handle); err != nil {
		glog.Warningf("channel %d: remove error: %v", c.key, err)
		return
	}
	glog.V(2).Infof("channel %d removed", c.key)
}

// Send sends the payload to port. If ctx is done between the two
// frames, the size frame is left alone and receivers report
// ProtocolDesyncError.
func (c *Channel) Send(ctx context.Context, port Port, payload []byte) error {
	if port <= 0 {
		return ErrInvalidPort
	}
	if len(payload) > c.MaxPayloadSize() {
		return ErrPayloadTooLarge
	}
	c.sendLock.Lock()
	defer c.sendLock.Unlock()
	tag := ipc.Tag(port)
	if c.Framing == FramingSingle {
		glog.V(3).Infof("channel %d port %d: send %d bytes", c.key, port, len(payload))
		return c.transport.Send(ctx, c.handle, tag, EncodeSingleFrame(payload))
	}
	glog.V(3).Infof("channel %d port %d: send size %d", c.key, port, len(payload))
	if err := c.transport.Send(ctx, c.handle, tag, EncodeSizeFrame(len(payload))); err != nil {
		return err
	}
	return c.transport.Send(ctx, c.handle, tag, payload)
}

// Receive receives the next message from any port.
func (c *Channel) Receive(ctx context.Context) (Message, error) {
	return c.receive(ctx, AnyPort)
}

// ReceivePort receives the next message from the specified port.
func (c *Channel) ReceivePort(ctx context.Context, port Port) (Message, error) {
	if port <= 0 {
		return Message{}, ErrInvalidPort
	}
	return c.receive(ctx, port)
}

func (c *Channel) receive(ctx context.Context, port Port) (Message, error) {
	c.recvLock.Lock()
	defer c.recvLock.Unlock()
	if c.Framing == FramingSingle {
		return c.receiveSingle(ctx, port)
	}
	return c.receiveTwoPhase(ctx, port)
}

func (c *Channel) receiveSingle(ctx context.Context, port Port) (Message, error) {
	tag, frame, err := c.transport.Receive(ctx, c.handle, ipc.Tag(port), c.maxMessageSize())
	if err == ipc.ErrTooBig {
		return Message{}, c.discard(ctx, port, -1, "frame too large")
	}
	if err != nil {
		return Message{}, err
	}
	payload, announced, ok := DecodeSingleFrame(frame)
	if !ok {
		return Message{}, c.desync(Port(tag), Port(tag), int64(announced), len(payload), "length mismatch")
	}
	glog.V(3).Infof("channel %d port %d: received %d bytes", c.key, tag, len(payload))
	return Message{Port: Port(tag), Payload: payload}, nil
}

func (c *Channel) receiveTwoPhase(ctx context.Context, port Port) (Message, error) {
	limit := c.maxMessageSize()
	tag, body, err := c.transport.Receive(ctx, c.handle, ipc.Tag(port), max(limit, SizeFrameLen))
	if err == ipc.ErrTooBig {
		return Message{}, c.discard(ctx, port, SizeFrameLen, "size frame expected")
	}
	if err != nil {
		return Message{}, err
	}
	sizePort := Port(tag)
	size, ok := DecodeSizeFrame(body)
	if !ok {
		return Message{}, c.desync(sizePort, sizePort, SizeFrameLen, len(body), "size frame expected")
	}
	if size > uint64(limit) {
		return Message{}, c.desync(sizePort, sizePort, int64(min(size, math.MaxInt64)), 0, "announced size exceeds limit")
	}
	glog.V(3).Infof("channel %d port %d: received size %d", c.key, sizePort, size)

	tag, payload, err := c.transport.Receive(ctx, c.handle, ipc.Tag(port), int(size))
	if err == ipc.ErrTooBig {
		tag, derr := c.transport.Discard(ctx, c.handle, ipc.Tag(port))
		if derr != nil {
			return Message{}, derr
		}
		return Message{}, c.desync(sizePort, Port(tag), int64(size), -1, "payload larger than announced")
	}
	if err != nil {
		return Message{}, err
	}
	if Port(tag) != sizePort {
		return Message{}, c.desync(sizePort, Port(tag), int64(size), len(payload), "port mismatch")
	}
	if len(payload) != int(size) {
		return Message{}, c.desync(sizePort, Port(tag), int64(size), len(payload), "length mismatch")
	}
	return Message{Port: sizePort, Payload: payload}, nil
}

// discard drops the frame rejected as too large so it doesn't block
// the frames behind it.
func (c *Channel) discard(ctx context.Context, port Port, announced int64, reason string) error {
	tag, err := c.transport.Discard(ctx, c.handle, ipc.Tag(port))
	if err != nil {
		return err
	}
	return c.desync(Port(tag), Port(tag), announced, -1, reason)
}

func (c *Channel) desync(port, payloadPort Port, announced int64, received int, reason string) error {
	err := &ProtocolDesyncError{
		Key:         c.key,
		Port:        port,
		PayloadPort: payloadPort,
		Announced:   announced,
		Received:    received,
		Reason:      reason,
	}
	glog.Warning(err)
	return err
}

// MaxPayloadSize is the largest payload Send accepts. With
// FramingSingle the header counts against MaxMessageSize.
func (c *Channel) MaxPayloadSize() int {
	if c.Framing == FramingSingle {
		return max(c.maxMessageSize()-SingleHeaderLen, 0)
	}
	return c.maxMessageSize()
}

func (c *Channel) maxMessageSize() int {
	if c.MaxMessageSize > 0 {
		return c.MaxMessageSize
	}
	return DefaultMaxMessageSize
}
