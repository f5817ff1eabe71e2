//go:build linux && (amd64 || arm64 || riscv64 || loong64)

package sysv

import (
	"context"
	"encoding/binary"
	"time"
	"unsafe"

	"github.com/golang/glog"
	"golang.org/x/sys/unix"

	"github.com/robotalks/msgport/pkg/ipc"
)

// Supported indicates the platform supports System V message queues.
const Supported = true

// size of the mtype field (long) leading struct msgbuf.
const tagSize = 8

// msgrcv truncates instead of failing with E2BIG.
const msgNoError = 010000

// Open implements ipc.Transport.
func (t *Transport) Open(key ipc.Key, flags ipc.OpenFlags) (ipc.Handle, error) {
	perm := t.OpenPerm
	var mask uintptr
	if flags.Has(ipc.OpenCreate) {
		perm, mask = t.CreatePerm, unix.IPC_CREAT
		if flags.Has(ipc.OpenExclusive) {
			mask |= unix.IPC_EXCL
		}
	}
	for {
		id, _, errno := unix.Syscall(unix.SYS_MSGGET, uintptr(key), uintptr(perm.Perm())|mask, 0)
		switch errno {
		case 0:
			glog.V(2).Infof("msgget key=%d id=%d", key, id)
			return ipc.Handle(id), nil
		case unix.EINTR:
			continue
		}
		return 0, mapErrno(errno)
	}
}

// Remove implements ipc.Transport.
func (t *Transport) Remove(h ipc.Handle) error {
	_, _, errno := unix.Syscall(unix.SYS_MSGCTL, uintptr(h), unix.IPC_RMID, 0)
	if errno != 0 {
		return mapErrno(errno)
	}
	return nil
}

// Send implements ipc.Transport.
func (t *Transport) Send(ctx context.Context, h ipc.Handle, tag ipc.Tag, data []byte) error {
	if tag <= 0 {
		return ipc.ErrInvalidTag
	}
	// msgsnd reports an oversized message as EINVAL, which can't be
	// told apart from a removed queue.
	if len(data) > t.maxMessageSize() {
		return ipc.ErrTooBig
	}
	buf := make([]byte, tagSize+len(data))
	binary.NativeEndian.PutUint64(buf, uint64(tag))
	copy(buf[tagSize:], data)
	return t.poll(ctx, func(flags uintptr) unix.Errno {
		_, _, errno := unix.Syscall6(unix.SYS_MSGSND, uintptr(h),
			uintptr(unsafe.Pointer(&buf[0])), uintptr(len(data)), flags, 0, 0)
		return errno
	})
}

// Receive implements ipc.Transport.
func (t *Transport) Receive(ctx context.Context, h ipc.Handle, filter ipc.Tag, maxLen int) (ipc.Tag, []byte, error) {
	buf := make([]byte, tagSize+maxLen)
	var n uintptr
	err := t.poll(ctx, func(flags uintptr) (errno unix.Errno) {
		n, _, errno = unix.Syscall6(unix.SYS_MSGRCV, uintptr(h),
			uintptr(unsafe.Pointer(&buf[0])), uintptr(maxLen), uintptr(filter), flags, 0)
		return
	})
	if err != nil {
		return 0, nil, err
	}
	return ipc.Tag(binary.NativeEndian.Uint64(buf)), buf[tagSize : tagSize+int(n)], nil
}

// Discard implements ipc.Transport.
func (t *Transport) Discard(ctx context.Context, h ipc.Handle, filter ipc.Tag) (ipc.Tag, error) {
	var buf [tagSize]byte
	err := t.poll(ctx, func(flags uintptr) (errno unix.Errno) {
		_, _, errno = unix.Syscall6(unix.SYS_MSGRCV, uintptr(h),
			uintptr(unsafe.Pointer(&buf[0])), 0, uintptr(filter), flags|msgNoError, 0)
		return
	})
	if err != nil {
		return 0, err
	}
	return ipc.Tag(binary.NativeEndian.Uint64(buf[:])), nil
}

// poll performs a blocking call directly if ctx never cancels,
// otherwise it polls with IPC_NOWAIT until ctx is done.
func (t *Transport) poll(ctx context.Context, call func(flags uintptr) unix.Errno) error {
	if ctx.Done() == nil {
		for {
			switch errno := call(0); errno {
			case 0:
				return nil
			case unix.EINTR:
			default:
				return mapErrno(errno)
			}
		}
	}
	var ticker *time.Ticker
	for {
		switch errno := call(unix.IPC_NOWAIT); errno {
		case 0:
			return nil
		case unix.EINTR:
			continue
		case unix.EAGAIN, unix.ENOMSG:
		default:
			return mapErrno(errno)
		}
		if ticker == nil {
			ticker = time.NewTicker(t.pollInterval())
			defer ticker.Stop()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func mapErrno(errno unix.Errno) error {
	switch errno {
	case unix.ENOENT:
		return ipc.ErrNotExist
	case unix.EEXIST:
		return ipc.ErrExist
	case unix.EIDRM:
		return ipc.ErrRemoved
	case unix.E2BIG:
		return ipc.ErrTooBig
	case unix.EINVAL:
		// msgctl/msgsnd on an id which no longer exists.
		return ipc.ErrNotExist
	}
	return errno
}
