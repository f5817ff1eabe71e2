//go:build !(linux && (amd64 || arm64 || riscv64 || loong64))

package sysv

import (
	"context"

	"github.com/robotalks/msgport/pkg/ipc"
)

// Supported indicates the platform supports System V message queues.
const Supported = false

// Open implements ipc.Transport.
func (t *Transport) Open(key ipc.Key, flags ipc.OpenFlags) (ipc.Handle, error) {
	return 0, ErrUnsupported
}

// Remove implements ipc.Transport.
func (t *Transport) Remove(h ipc.Handle) error {
	return ErrUnsupported
}

// Send implements ipc.Transport.
func (t *Transport) Send(ctx context.Context, h ipc.Handle, tag ipc.Tag, data []byte) error {
	return ErrUnsupported
}

// Receive implements ipc.Transport.
func (t *Transport) Receive(ctx context.Context, h ipc.Handle, filter ipc.Tag, maxLen int) (ipc.Tag, []byte, error) {
	return 0, nil, ErrUnsupported
}

// Discard implements ipc.Transport.
func (t *Transport) Discard(ctx context.Context, h ipc.Handle, filter ipc.Tag) (ipc.Tag, error) {
	return 0, ErrUnsupported
}
