//go:build linux

package stream

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/msgport/pkg/ipc"
	"github.com/robotalks/msgport/pkg/ipc/comm"
)

func TestFIFOTransport(t *testing.T) {
	dialer := NewFIFODialer(t.TempDir())
	tr := comm.NewTransport(dialer)
	h, err := tr.Open(100, ipc.OpenCreate)
	require.NoError(t, err)
	defer tr.Remove(h)

	info, err := os.Stat(dialer.Path(100))
	require.NoError(t, err)
	require.NotZero(t, info.Mode()&os.ModeNamedPipe)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, tr.Send(ctx, h, 7, []byte("abc")))
	tag, data, err := tr.Receive(ctx, h, ipc.AnyTag, 16)
	require.NoError(t, err)
	require.Equal(t, ipc.Tag(7), tag)
	require.Equal(t, []byte("abc"), data)
}
