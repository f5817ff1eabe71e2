package comm

import (
	"context"
	"io"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/msgport/pkg/framework"
	"github.com/robotalks/msgport/pkg/ipc"
)

// Transport implements ipc.Transport over packet links.
// Each queue key maps to one link produced by Dialer. Packets
// received from a link are buffered in a local queue which serves
// selective receives.
type Transport struct {
	Dialer Dialer

	local ipc.Memory
	links map[ipc.Handle]*link
	keys  map[ipc.Key]ipc.Handle
	lock  sync.Mutex
}

type link struct {
	key    ipc.Key
	handle ipc.Handle
	rw     PacketReadWriter

	sendLock sync.Mutex
	pumpOnce sync.Once
	ctx      context.Context
	cancel   func()
	err      error
}

// NewTransport creates a Transport with a Dialer.
func NewTransport(dialer Dialer) *Transport {
	return &Transport{Dialer: dialer}
}

// Open implements ipc.Transport. The link is dialed regardless of
// OpenCreate as existence is decided by the remote side.
func (t *Transport) Open(key ipc.Key, flags ipc.OpenFlags) (ipc.Handle, error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if h, ok := t.keys[key]; ok && key != ipc.KeyPrivate {
		if flags.Has(ipc.OpenCreate | ipc.OpenExclusive) {
			return 0, ipc.ErrExist
		}
		return h, nil
	}
	rw, err := t.Dialer.Dial(key)
	if err != nil {
		return 0, err
	}
	h, err := t.local.Open(ipc.KeyPrivate, ipc.OpenCreate)
	if err != nil {
		closeLink(rw)
		return 0, err
	}
	l := &link{key: key, handle: h, rw: rw}
	l.ctx, l.cancel = context.WithCancel(context.Background())
	if t.links == nil {
		t.links = make(map[ipc.Handle]*link)
		t.keys = make(map[ipc.Key]ipc.Handle)
	}
	t.links[h] = l
	if key != ipc.KeyPrivate {
		t.keys[key] = h
	}
	glog.V(2).Infof("link %d opened", key)
	return h, nil
}

// Remove implements ipc.Transport.
func (t *Transport) Remove(h ipc.Handle) error {
	t.lock.Lock()
	l := t.links[h]
	if l != nil {
		delete(t.links, h)
		if t.keys[l.key] == h {
			delete(t.keys, l.key)
		}
	}
	t.lock.Unlock()
	if l == nil {
		return ipc.ErrNotExist
	}
	l.cancel()
	closeLink(l.rw)
	glog.V(2).Infof("link %d closed", l.key)
	return t.local.Remove(h)
}

// Send implements ipc.Transport.
func (t *Transport) Send(ctx context.Context, h ipc.Handle, tag ipc.Tag, data []byte) error {
	if tag <= 0 {
		return ipc.ErrInvalidTag
	}
	l, err := t.link(h)
	if err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	pkt := EncodePacket(tag, data)
	l.sendLock.Lock()
	defer l.sendLock.Unlock()
	return l.rw.WritePacket(pkt)
}

// Receive implements ipc.Transport.
func (t *Transport) Receive(ctx context.Context, h ipc.Handle, filter ipc.Tag, maxLen int) (ipc.Tag, []byte, error) {
	l, err := t.link(h)
	if err != nil {
		return 0, nil, err
	}
	l.pumpOnce.Do(func() { go t.pump(l) })
	tag, data, err := t.local.Receive(ctx, h, filter, maxLen)
	if err == ipc.ErrRemoved && l.err != nil {
		err = l.err
	}
	return tag, data, err
}

// Discard implements ipc.Transport.
func (t *Transport) Discard(ctx context.Context, h ipc.Handle, filter ipc.Tag) (ipc.Tag, error) {
	l, err := t.link(h)
	if err != nil {
		return 0, err
	}
	l.pumpOnce.Do(func() { go t.pump(l) })
	tag, err := t.local.Discard(ctx, h, filter)
	if err == ipc.ErrRemoved && l.err != nil {
		err = l.err
	}
	return tag, err
}

func (t *Transport) link(h ipc.Handle) (*link, error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if l := t.links[h]; l != nil {
		return l, nil
	}
	return nil, ipc.ErrNotExist
}

// pump moves packets from the link into the local queue. It starts
// on first receive so send-only links never consume packets.
func (t *Transport) pump(l *link) {
	if runnable, ok := l.rw.(fx.Runnable); ok {
		go runnable.Run(l.ctx)
	}
	for {
		pkt, err := l.rw.ReadPacket()
		if err != nil {
			if l.ctx.Err() == nil {
				glog.Warningf("link %d read error: %v", l.key, err)
				l.err = err
				t.Remove(l.handle)
			}
			return
		}
		tag, data, err := DecodePacket(pkt)
		if err != nil {
			glog.Warningf("link %d dropped packet: %v", l.key, err)
			continue
		}
		err = t.local.Send(l.ctx, l.handle, tag, data)
		switch {
		case err == nil:
		case err == ipc.ErrTooBig:
			glog.Warningf("link %d dropped packet with tag %d: %d bytes exceed the queue capacity", l.key, tag, len(data))
		case l.ctx.Err() != nil || err == ipc.ErrRemoved:
			glog.V(2).Infof("link %d pump stopped: %v", l.key, err)
			return
		default:
			glog.Warningf("link %d pump error: %v", l.key, err)
			l.err = err
			t.Remove(l.handle)
			return
		}
	}
}

func closeLink(rw PacketReadWriter) {
	if closer, ok := rw.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			glog.V(2).Infof("close link error: %v", err)
		}
	}
}
