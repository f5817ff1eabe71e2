package ipc

import (
	"container/list"
	"context"
	"sync"
)

// DefaultMaxQueueBytes is the default capacity of a queue,
// the same as MSGMNB on Linux.
const DefaultMaxQueueBytes = 16384

// Memory implements Transport with process local queues.
type Memory struct {
	// MaxQueueBytes is the capacity of each queue in bytes,
	// 0 means DefaultMaxQueueBytes.
	MaxQueueBytes int

	lock   sync.Mutex
	keys   map[Key]Handle
	queues map[Handle]*memQueue
	last   Handle
}

type memQueue struct {
	key     Key
	msgs    list.List
	bytes   int
	removed bool
	// changed is closed and replaced whenever the queue changes.
	changed chan struct{}
}

type memMsg struct {
	tag  Tag
	data []byte
}

// NewMemory creates a Memory transport.
func NewMemory() *Memory {
	return &Memory{}
}

// Open implements Transport.
func (m *Memory) Open(key Key, flags OpenFlags) (Handle, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.keys == nil {
		m.keys = make(map[Key]Handle)
		m.queues = make(map[Handle]*memQueue)
	}
	if key != KeyPrivate {
		if h, ok := m.keys[key]; ok {
			if flags.Has(OpenCreate | OpenExclusive) {
				return 0, ErrExist
			}
			return h, nil
		}
		if !flags.Has(OpenCreate) {
			return 0, ErrNotExist
		}
	}
	m.last++
	h := m.last
	m.queues[h] = &memQueue{key: key, changed: make(chan struct{})}
	if key != KeyPrivate {
		m.keys[key] = h
	}
	return h, nil
}

// Remove implements Transport.
func (m *Memory) Remove(h Handle) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	q := m.queues[h]
	if q == nil {
		return ErrNotExist
	}
	delete(m.queues, h)
	if q.key != KeyPrivate {
		delete(m.keys, q.key)
	}
	q.removed = true
	q.msgs.Init()
	q.bytes = 0
	q.notify()
	return nil
}

// Send implements Transport.
func (m *Memory) Send(ctx context.Context, h Handle, tag Tag, data []byte) error {
	if tag <= 0 {
		return ErrInvalidTag
	}
	capacity := m.MaxQueueBytes
	if capacity <= 0 {
		capacity = DefaultMaxQueueBytes
	}
	if len(data) > capacity {
		return ErrTooBig
	}
	msg := &memMsg{tag: tag, data: append([]byte(nil), data...)}
	for {
		m.lock.Lock()
		q, err := m.queue(h)
		if err != nil {
			m.lock.Unlock()
			return err
		}
		if q.bytes+len(data) <= capacity {
			q.msgs.PushBack(msg)
			q.bytes += len(data)
			q.notify()
			m.lock.Unlock()
			return nil
		}
		changed := q.changed
		m.lock.Unlock()
		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Receive implements Transport.
func (m *Memory) Receive(ctx context.Context, h Handle, filter Tag, maxLen int) (Tag, []byte, error) {
	msg, err := m.dequeue(ctx, h, filter, func(msg *memMsg) bool {
		return len(msg.data) <= maxLen
	})
	if err != nil {
		return 0, nil, err
	}
	return msg.tag, msg.data, nil
}

// Discard implements Transport.
func (m *Memory) Discard(ctx context.Context, h Handle, filter Tag) (Tag, error) {
	msg, err := m.dequeue(ctx, h, filter, nil)
	if err != nil {
		return 0, err
	}
	return msg.tag, nil
}

// dequeue waits for the first message matching filter and removes it
// if fits accepts it, otherwise ErrTooBig is returned.
func (m *Memory) dequeue(ctx context.Context, h Handle, filter Tag, fits func(*memMsg) bool) (*memMsg, error) {
	for {
		m.lock.Lock()
		q, err := m.queue(h)
		if err != nil {
			m.lock.Unlock()
			return nil, err
		}
		if elm := q.find(filter); elm != nil {
			msg := elm.Value.(*memMsg)
			if fits != nil && !fits(msg) {
				m.lock.Unlock()
				return nil, ErrTooBig
			}
			q.msgs.Remove(elm)
			q.bytes -= len(msg.data)
			q.notify()
			m.lock.Unlock()
			return msg, nil
		}
		changed := q.changed
		m.lock.Unlock()
		select {
		case <-changed:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Len returns the number of messages queued.
func (m *Memory) Len(h Handle) int {
	m.lock.Lock()
	defer m.lock.Unlock()
	if q := m.queues[h]; q != nil {
		return q.msgs.Len()
	}
	return 0
}

// queue must be called with lock held.
func (m *Memory) queue(h Handle) (*memQueue, error) {
	if q := m.queues[h]; q != nil {
		return q, nil
	}
	return nil, m.missing(h)
}

func (m *Memory) missing(h Handle) error {
	if h > 0 && h <= m.last {
		return ErrRemoved
	}
	return ErrNotExist
}

func (q *memQueue) notify() {
	close(q.changed)
	q.changed = make(chan struct{})
}

func (q *memQueue) find(filter Tag) (found *list.Element) {
	for elm := q.msgs.Front(); elm != nil; elm = elm.Next() {
		tag := elm.Value.(*memMsg).tag
		if !filter.Matches(tag) {
			continue
		}
		if filter >= 0 {
			return elm
		}
		if found == nil || tag < found.Value.(*memMsg).tag {
			found = elm
		}
	}
	return
}
