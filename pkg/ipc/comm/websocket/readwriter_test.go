package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/robotalks/msgport/pkg/ipc"
	"github.com/robotalks/msgport/pkg/ipc/comm"
)

func echoServer(t *testing.T) (*httptest.Server, chan string) {
	paths := make(chan string, 4)
	srv := httptest.NewServer(websocket.Handler(func(conn *websocket.Conn) {
		paths <- conn.Request().URL.Path
		for {
			var msg []byte
			if err := websocket.Message.Receive(conn, &msg); err != nil {
				return
			}
			if err := websocket.Message.Send(conn, msg); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, paths
}

func TestDialerURL(t *testing.T) {
	require.Equal(t, "ws://host/ports/100", NewDialer("ws://host/ports/").URL(100))
}

func TestTransportOverWebsocket(t *testing.T) {
	srv, paths := echoServer(t)
	dialer := NewDialer("ws" + strings.TrimPrefix(srv.URL, "http") + "/ports")
	tr := comm.NewTransport(dialer)

	h, err := tr.Open(100, ipc.OpenCreate)
	require.NoError(t, err)
	defer tr.Remove(h)
	require.Equal(t, "/ports/100", <-paths)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, tr.Send(ctx, h, 7, []byte("abc")))
	tag, data, err := tr.Receive(ctx, h, ipc.AnyTag, 16)
	require.NoError(t, err)
	require.Equal(t, ipc.Tag(7), tag)
	require.Equal(t, []byte("abc"), data)
}
