package ipc

import (
	"context"
	"errors"
	"strconv"
)

// Key identifies a message queue.
type Key int32

// ParseKey parses a key in decimal, hex (0x) or octal (0) form.
func ParseKey(s string) (Key, error) {
	val, err := strconv.ParseInt(s, 0, 32)
	return Key(val), err
}

func (k Key) String() string {
	return strconv.FormatInt(int64(k), 10)
}

// Set implements flag.Value.
func (k *Key) Set(s string) (err error) {
	*k, err = ParseKey(s)
	return
}

// KeyPrivate always refers to a new queue which can't be opened by key.
const KeyPrivate Key = 0

// Handle refers to an opened message queue.
type Handle int

// Tag is the type of a message, used for selective receive.
type Tag int64

// AnyTag used as receive filter accepts any message.
const AnyTag Tag = 0

// OpenFlags controls how a queue is opened.
type OpenFlags int

const (
	// OpenCreate creates the queue if absent.
	OpenCreate OpenFlags = 1 << iota
	// OpenExclusive fails if the queue already exists, used with OpenCreate.
	OpenExclusive
)

// Has checks if all flags in f1 are set.
func (f OpenFlags) Has(f1 OpenFlags) bool {
	return f&f1 == f1
}

var (
	// ErrNotExist indicates the queue doesn't exist.
	ErrNotExist = errors.New("queue not exist")
	// ErrExist indicates the queue exists when exclusive creation is requested.
	ErrExist = errors.New("queue already exists")
	// ErrRemoved indicates the queue is removed while waiting on it.
	ErrRemoved = errors.New("queue removed")
	// ErrTooBig indicates the message to receive is larger than the buffer,
	// the message is left in the queue. On send, it indicates the message
	// exceeds what the queue accepts.
	ErrTooBig = errors.New("message too big")
	// ErrInvalidTag indicates a message is sent with a tag <= 0.
	ErrInvalidTag = errors.New("invalid message tag")
)

// Transport is the message queue primitive.
type Transport interface {
	// Open opens the queue identified by key.
	Open(key Key, flags OpenFlags) (Handle, error)
	// Remove removes the queue. Waiters on the queue fail with ErrRemoved.
	Remove(h Handle) error
	// Send enqueues a message, it blocks when the queue is full.
	Send(ctx context.Context, h Handle, tag Tag, data []byte) error
	// Receive dequeues the first message matching filter.
	// filter == 0 matches any message, filter > 0 matches tag == filter,
	// filter < 0 matches the lowest tag which is <= -filter.
	// If the message is longer than maxLen, ErrTooBig is returned.
	Receive(ctx context.Context, h Handle, filter Tag, maxLen int) (Tag, []byte, error)
	// Discard dequeues the first message matching filter regardless of
	// its length and drops the content. It's used to get rid of a
	// message Receive rejected with ErrTooBig.
	Discard(ctx context.Context, h Handle, filter Tag) (Tag, error)
}

// Matches determines if tag is accepted by filter.
// It doesn't take the "lowest tag" ordering of negative filters into account.
func (filter Tag) Matches(tag Tag) bool {
	switch {
	case filter == 0:
		return true
	case filter > 0:
		return tag == filter
	default:
		return tag <= -filter
	}
}
