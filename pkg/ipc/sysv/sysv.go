package sysv

import (
	"errors"
	"os"
	"time"
)

// ErrUnsupported indicates System V message queues are not available.
var ErrUnsupported = errors.New("sysv message queue not supported on this platform")

// Permissions used by the legacy peers: creators grant rw to everyone,
// openers ask for rw-r--r--.
const (
	DefaultCreatePerm os.FileMode = 0666
	DefaultOpenPerm   os.FileMode = 0644
)

// DefaultPollInterval is the interval to poll a queue when the
// operation is cancellable.
const DefaultPollInterval = 5 * time.Millisecond

// DefaultMaxMessageSize is MSGMAX of a default Linux kernel.
const DefaultMaxMessageSize = 8192

// Transport implements ipc.Transport.
type Transport struct {
	CreatePerm   os.FileMode
	OpenPerm     os.FileMode
	PollInterval time.Duration
	// MaxMessageSize should match kernel.msgmax,
	// 0 means DefaultMaxMessageSize.
	MaxMessageSize int
}

// New creates a Transport with defaults.
func New() *Transport {
	return &Transport{
		CreatePerm:     DefaultCreatePerm,
		OpenPerm:       DefaultOpenPerm,
		PollInterval:   DefaultPollInterval,
		MaxMessageSize: DefaultMaxMessageSize,
	}
}

func (t *Transport) pollInterval() time.Duration {
	if t.PollInterval > 0 {
		return t.PollInterval
	}
	return DefaultPollInterval
}

func (t *Transport) maxMessageSize() int {
	if t.MaxMessageSize > 0 {
		return t.MaxMessageSize
	}
	return DefaultMaxMessageSize
}
