// Package websocket carries queue packets as websocket messages.
package websocket

import (
	"fmt"
	"strings"

	"golang.org/x/net/websocket"

	"github.com/robotalks/msgport/pkg/ipc"
	"github.com/robotalks/msgport/pkg/ipc/comm"
)

// ReadWriter implements PacketReadWriter.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return (*ReadWriter)(conn)
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive((*websocket.Conn)(p), &pkt)
	return
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	return websocket.Message.Send((*websocket.Conn)(p), pkt)
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	return (*websocket.Conn)(p).Close()
}

// Dialer connects each queue to <BaseURL>/<key>.
type Dialer struct {
	BaseURL string
	Origin  string
}

// NewDialer creates a Dialer.
func NewDialer(baseURL string) *Dialer {
	return &Dialer{BaseURL: strings.TrimSuffix(baseURL, "/"), Origin: "http://localhost/"}
}

// URL returns the websocket URL for key.
func (d *Dialer) URL(key ipc.Key) string {
	return fmt.Sprintf("%s/%d", d.BaseURL, key)
}

// Dial implements comm.Dialer.
func (d *Dialer) Dial(key ipc.Key) (comm.PacketReadWriter, error) {
	conn, err := websocket.Dial(d.URL(key), "", d.Origin)
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}
