//go:build linux && (amd64 || arm64 || riscv64 || loong64)

package sysv

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/msgport/pkg/ipc"
)

func testKey() ipc.Key {
	return ipc.Key(0x4d500000 | (os.Getpid() & 0xffff))
}

func openOrSkip(t *testing.T, tr *Transport, key ipc.Key) ipc.Handle {
	h, err := tr.Open(key, ipc.OpenCreate)
	if err != nil {
		t.Skipf("sysv message queue unavailable: %v", err)
	}
	t.Cleanup(func() { tr.Remove(h) })
	return h
}

func TestSendReceive(t *testing.T) {
	tr := New()
	h := openOrSkip(t, tr, testKey())
	ctx := context.Background()

	require.NoError(t, tr.Send(ctx, h, 7, []byte("abc")))
	require.NoError(t, tr.Send(ctx, h, 3, nil))

	_, _, err := tr.Receive(ctx, h, ipc.AnyTag, 2)
	require.Equal(t, ipc.ErrTooBig, err)

	tag, data, err := tr.Receive(ctx, h, 3, 8)
	require.NoError(t, err)
	require.Equal(t, ipc.Tag(3), tag)
	require.Empty(t, data)

	tag, data, err = tr.Receive(ctx, h, ipc.AnyTag, 8)
	require.NoError(t, err)
	require.Equal(t, ipc.Tag(7), tag)
	require.Equal(t, []byte("abc"), data)
}

func TestOpenExisting(t *testing.T) {
	tr := New()
	key := testKey() + 1
	h := openOrSkip(t, tr, key)
	h1, err := tr.Open(key, 0)
	require.NoError(t, err)
	require.Equal(t, h, h1)
	_, err = tr.Open(key, ipc.OpenCreate|ipc.OpenExclusive)
	require.Equal(t, ipc.ErrExist, err)
}

func TestReceiveCanceled(t *testing.T) {
	tr := New()
	h := openOrSkip(t, tr, testKey()+2)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, _, err := tr.Receive(ctx, h, ipc.AnyTag, 8)
	require.Equal(t, context.DeadlineExceeded, err)
}

func TestRemoveTwice(t *testing.T) {
	tr := New()
	h, err := tr.Open(testKey()+3, ipc.OpenCreate)
	if err != nil {
		t.Skipf("sysv message queue unavailable: %v", err)
	}
	require.NoError(t, tr.Remove(h))
	require.Error(t, tr.Remove(h))
}

func TestDiscard(t *testing.T) {
	tr := New()
	h := openOrSkip(t, tr, testKey()+4)
	ctx := context.Background()

	require.NoError(t, tr.Send(ctx, h, 5, []byte("oversized")))
	require.NoError(t, tr.Send(ctx, h, 6, []byte("ok")))
	_, _, err := tr.Receive(ctx, h, ipc.AnyTag, 2)
	require.Equal(t, ipc.ErrTooBig, err)

	tag, err := tr.Discard(ctx, h, ipc.AnyTag)
	require.NoError(t, err)
	require.Equal(t, ipc.Tag(5), tag)

	tag, data, err := tr.Receive(ctx, h, ipc.AnyTag, 2)
	require.NoError(t, err)
	require.Equal(t, ipc.Tag(6), tag)
	require.Equal(t, []byte("ok"), data)
}

func TestSendTooBig(t *testing.T) {
	tr := New()
	h := openOrSkip(t, tr, testKey()+5)
	err := tr.Send(context.Background(), h, 1, make([]byte, DefaultMaxMessageSize+1))
	require.Equal(t, ipc.ErrTooBig, err)
}
