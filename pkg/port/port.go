// Package port binds channels to the loop.
//
// A Sender encodes contents and sends them to a port of a remote
// channel. A Receiver runs in background, receives from a local
// channel and posts what it receives to the loop as Received.
package port

import (
	"context"
	"errors"
	"strconv"

	"github.com/golang/glog"

	"github.com/robotalks/msgport/pkg/channel"
	fx "github.com/robotalks/msgport/pkg/framework"
	"github.com/robotalks/msgport/pkg/ipc"
	"github.com/robotalks/msgport/pkg/msgs"
)

// Received is posted to the loop when a content is received.
type Received struct {
	Key     ipc.Key
	Port    channel.Port
	Content msgs.Content
}

// Sender sends contents to a port of the channel identified by Key.
type Sender struct {
	Transport ipc.Transport
	Key       ipc.Key
	Port      channel.Port
	Framing   channel.Framing
	// MaxMessageSize limits payloads, 0 means channel.DefaultMaxMessageSize.
	MaxMessageSize int
}

// Send encodes the content and sends it.
// The channel is resolved by key on every send.
func (s *Sender) Send(ctx context.Context, content msgs.Content) error {
	data, err := msgs.Encode(content)
	if err != nil {
		return err
	}
	ch, err := channel.Open(s.Transport, s.Key)
	if err != nil {
		return err
	}
	ch.Framing = s.Framing
	ch.MaxMessageSize = s.MaxMessageSize
	glog.V(3).Infof("send %d:%d %T %v", s.Key, s.Port, content, content)
	return ch.Send(ctx, s.Port, data)
}

// Receiver receives from a channel and posts contents to the loop.
type Receiver struct {
	Channel *channel.Channel
	// Port restricts the receiver to one port, AnyPort for all.
	Port channel.Port
}

// NewReceiver creates a Receiver on all ports of ch.
func NewReceiver(ch *channel.Channel) *Receiver {
	return &Receiver{Channel: ch}
}

// Name implements fx.Named.
func (r *Receiver) Name() string {
	return "receiver/" + strconv.Itoa(int(r.Channel.Key()))
}

// Run implements fx.Runnable.
func (r *Receiver) Run(ctx context.Context) error {
	loopCtl := fx.LoopCtlFrom(ctx)
	for {
		msg, err := r.receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// a desync has consumed the offending frame
			var desync *channel.ProtocolDesyncError
			if errors.As(err, &desync) {
				continue
			}
			return err
		}
		content, err := msgs.Decode(msg.Payload)
		if err != nil {
			glog.Warningf("%s port %d: drop %d bytes: %v", r.Name(), msg.Port, len(msg.Payload), err)
			continue
		}
		glog.V(3).Infof("%s port %d: received %T %v", r.Name(), msg.Port, content, content)
		loopCtl.PostMessage(&Received{Key: r.Channel.Key(), Port: msg.Port, Content: content})
		loopCtl.TriggerNext()
	}
}

func (r *Receiver) receive(ctx context.Context) (channel.Message, error) {
	if r.Port == channel.AnyPort {
		return r.Channel.Receive(ctx)
	}
	return r.Channel.ReceivePort(ctx, r.Port)
}

// Take passes contents received on port p of channel key to fn and
// removes them from the messages of current tick.
func Take(cc fx.ControlContext, key ipc.Key, p channel.Port, fn func(msgs.Content)) {
	cc.Messages().ProcessMessages(func(m fx.Message) bool {
		if r, ok := m.(*Received); ok && r.Key == key && r.Port == p {
			fn(r.Content)
			return true
		}
		return false
	})
}
