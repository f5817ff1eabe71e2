package mqtt

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/robotalks/msgport/pkg/ipc"
	"github.com/robotalks/msgport/pkg/ipc/comm"
)

// QueueTopicPrefix is the topic prefix (after client prefix) of queues.
const QueueTopicPrefix = "queue/"

// QueueTopic returns the topic carrying packets of a queue.
func QueueTopic(key ipc.Key) string {
	return QueueTopicPrefix + strconv.FormatInt(int64(key), 10)
}

// QueueKey parses the queue key from a topic.
func QueueKey(topic string) (ipc.Key, error) {
	if !strings.HasPrefix(topic, QueueTopicPrefix) {
		return 0, fmt.Errorf("not a queue topic: %q", topic)
	}
	key, err := strconv.ParseInt(topic[len(QueueTopicPrefix):], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid queue topic %q: %w", topic, err)
	}
	return ipc.Key(key), nil
}

// ReadWriter implements PacketReadWriter on a single topic.
// It's a Runnable, subscribing the topic while running.
type ReadWriter struct {
	Client *Client
	Topic  string

	packetCh chan []byte
	closeCh  chan struct{}
	once     sync.Once
}

// NewPacketReadWriter creates the ReadWriter.
func NewPacketReadWriter(c *Client, topic string) *ReadWriter {
	return &ReadWriter{
		Client:   c,
		Topic:    topic,
		packetCh: make(chan []byte, 16),
		closeCh:  make(chan struct{}),
	}
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.packetCh:
		return pkt, nil
	case <-p.closeCh:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.Client.Pub(p.Topic, pkt)
	token.Wait()
	return token.Error()
}

// Run implements Runnable.
func (p *ReadWriter) Run(ctx context.Context) error {
	sub := p.Client.Sub(p.Topic, Handler(p.handleMsg))
	defer sub.Close()
	select {
	case <-ctx.Done():
	case <-p.closeCh:
	}
	p.Close()
	return ctx.Err()
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	p.once.Do(func() { close(p.closeCh) })
	return nil
}

func (p *ReadWriter) handleMsg(_ string, payload []byte) {
	select {
	case p.packetCh <- payload:
	case <-p.closeCh:
	}
}

// Dialer implements comm.Dialer, all queues share one client.
type Dialer struct {
	Client *Client

	connectOnce sync.Once
	connectErr  error
}

// NewDialer creates a Dialer from broker URL.
func NewDialer(brokerURL string) (*Dialer, error) {
	c, err := NewClientFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &Dialer{Client: c}, nil
}

// Dial implements comm.Dialer.
func (d *Dialer) Dial(key ipc.Key) (comm.PacketReadWriter, error) {
	d.connectOnce.Do(func() {
		d.connectErr = d.Client.Connect()
	})
	if d.connectErr != nil {
		return nil, d.connectErr
	}
	return NewPacketReadWriter(d.Client, QueueTopic(key)), nil
}
