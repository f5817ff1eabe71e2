package channel

import (
	"errors"
	"fmt"

	"github.com/robotalks/msgport/pkg/ipc"
)

var (
	// ErrInvalidPort indicates a message is sent to port <= 0.
	ErrInvalidPort = errors.New("invalid port")
	// ErrPayloadTooLarge indicates the payload exceeds MaxMessageSize.
	ErrPayloadTooLarge = errors.New("payload too large")
)

// ResourceError indicates the queue of a channel can't be obtained.
type ResourceError struct {
	Key ipc.Key
	Op  string
	Err error
}

// Error implements error.
func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s channel %d: %v", e.Op, e.Key, e.Err)
}

// Unwrap returns the transport error.
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// ProtocolDesyncError indicates frames on a channel don't pair up.
// At least one frame is consumed before it's returned, so receiving
// again makes progress. Received is -1 when the frame is larger than
// allowed and discarded unread. Announced is -1 when a single frame
// is too short to carry the length.
type ProtocolDesyncError struct {
	Key         ipc.Key
	Port        Port
	PayloadPort Port
	Announced   int64
	Received    int
	Reason      string
}

// Error implements error.
func (e *ProtocolDesyncError) Error() string {
	return fmt.Sprintf("channel %d port %d: protocol desync: %s (port %d, announced %d, received %d)",
		e.Key, e.Port, e.Reason, e.PayloadPort, e.Announced, e.Received)
}
