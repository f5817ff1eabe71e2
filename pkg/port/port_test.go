package port

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/msgport/pkg/channel"
	fx "github.com/robotalks/msgport/pkg/framework"
	"github.com/robotalks/msgport/pkg/ipc"
	"github.com/robotalks/msgport/pkg/msgs"
)

type fakeLoopCtl struct {
	msgCh chan fx.Message
}

func (c *fakeLoopCtl) PostMessage(msg fx.Message) { c.msgCh <- msg }
func (c *fakeLoopCtl) TriggerNext()               {}

func TestSenderReceiver(t *testing.T) {
	for _, framing := range []channel.Framing{channel.FramingTwoPhase, channel.FramingSingle} {
		t.Run(framing.String(), func(t *testing.T) {
			m := ipc.NewMemory()
			ch, err := channel.Create(m, 10)
			require.NoError(t, err)
			ch.Framing = framing
			defer ch.Remove()

			loopCtl := &fakeLoopCtl{msgCh: make(chan fx.Message, 4)}
			ctx, cancel := context.WithCancel(fx.WithLoopCtl(context.Background(), loopCtl))
			defer cancel()
			errCh := make(chan error, 1)
			go func() { errCh <- NewReceiver(ch).Run(ctx) }()

			sender := &Sender{Transport: m, Key: 10, Port: 3, Framing: framing}
			require.NoError(t, sender.Send(ctx, &msgs.Temperature{Degree: 72, Unit: msgs.TempUnitFahrenheit}))

			select {
			case msg := <-loopCtl.msgCh:
				received, ok := msg.(*Received)
				require.True(t, ok)
				require.Equal(t, ipc.Key(10), received.Key)
				require.Equal(t, channel.Port(3), received.Port)
				require.Equal(t, &msgs.Temperature{Degree: 72, Unit: msgs.TempUnitFahrenheit}, received.Content)
			case <-time.After(time.Second):
				t.Fatal("timeout")
			}
			cancel()
			require.Equal(t, context.Canceled, <-errCh)
		})
	}
}

func TestReceiverDropsUndecodable(t *testing.T) {
	m := ipc.NewMemory()
	ch, err := channel.Create(m, 10)
	require.NoError(t, err)
	defer ch.Remove()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, ch.Send(ctx, 1, []byte{0xff, 0xff}))
	h, err := m.Open(10, 0)
	require.NoError(t, err)
	require.NoError(t, m.Send(ctx, h, 1, []byte("stray")))
	sender := &Sender{Transport: m, Key: 10, Port: 2}
	require.NoError(t, sender.Send(ctx, &msgs.FanCommand{Cmd: msgs.FanCmdOff}))

	loopCtl := &fakeLoopCtl{msgCh: make(chan fx.Message, 4)}
	runCtx, stop := context.WithCancel(fx.WithLoopCtl(ctx, loopCtl))
	defer stop()
	go NewReceiver(ch).Run(runCtx)
	select {
	case msg := <-loopCtl.msgCh:
		require.Equal(t, &Received{Key: 10, Port: 2, Content: &msgs.FanCommand{Cmd: msgs.FanCmdOff}}, msg)
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
}

func TestReceiverSkipsOversizedFrame(t *testing.T) {
	m := ipc.NewMemory()
	ch, err := channel.Create(m, 10)
	require.NoError(t, err)
	defer ch.Remove()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	peer, err := channel.Open(m, 10)
	require.NoError(t, err)
	peer.MaxMessageSize = 10000
	require.NoError(t, peer.Send(ctx, 1, make([]byte, 9000)))
	sender := &Sender{Transport: m, Key: 10, Port: 1}
	require.NoError(t, sender.Send(ctx, &msgs.Temperature{Degree: 72, Unit: msgs.TempUnitFahrenheit}))

	loopCtl := &fakeLoopCtl{msgCh: make(chan fx.Message, 4)}
	runCtx, stop := context.WithCancel(fx.WithLoopCtl(ctx, loopCtl))
	errCh := make(chan error, 1)
	go func() { errCh <- NewReceiver(ch).Run(runCtx) }()
	select {
	case msg := <-loopCtl.msgCh:
		require.Equal(t, &Received{Key: 10, Port: 1, Content: &msgs.Temperature{Degree: 72, Unit: msgs.TempUnitFahrenheit}}, msg)
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
	stop()
	require.Equal(t, context.Canceled, <-errCh)
	require.Len(t, loopCtl.msgCh, 0)
}

func TestReceiverStopsOnRemove(t *testing.T) {
	ch, err := channel.Create(ipc.NewMemory(), 10)
	require.NoError(t, err)
	ctx := fx.WithLoopCtl(context.Background(), &fakeLoopCtl{})
	errCh := make(chan error, 1)
	go func() { errCh <- (&Receiver{Channel: ch, Port: 1}).Run(ctx) }()
	time.Sleep(10 * time.Millisecond)
	ch.Remove()
	select {
	case err := <-errCh:
		require.Equal(t, ipc.ErrRemoved, err)
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
}

func TestSenderMissingChannel(t *testing.T) {
	sender := &Sender{Transport: ipc.NewMemory(), Key: 99, Port: 1}
	err := sender.Send(context.Background(), &msgs.Raw{Data: []byte("x")})
	_, ok := err.(*channel.ResourceError)
	require.True(t, ok)
}

func TestTake(t *testing.T) {
	var temps []msgs.Content
	l := fx.NewLoop().AddController(fx.PrLvControl, fx.ControlFunc(func(cc fx.ControlContext) error {
		Take(cc, 10, 1, func(c msgs.Content) { temps = append(temps, c) })
		require.Equal(t, 2, cc.Messages().Len())
		return nil
	}))
	l.PostMessage(&Received{Key: 10, Port: 1, Content: &msgs.Temperature{Degree: 1}})
	l.PostMessage(&Received{Key: 10, Port: 2, Content: &msgs.FanCommand{}})
	l.PostMessage(&Received{Key: 11, Port: 1, Content: &msgs.Temperature{Degree: 3}})
	l.PostMessage(&Received{Key: 10, Port: 1, Content: &msgs.Temperature{Degree: 2}})
	l.Step(context.Background())
	require.Equal(t, []msgs.Content{&msgs.Temperature{Degree: 1}, &msgs.Temperature{Degree: 2}}, temps)
}
