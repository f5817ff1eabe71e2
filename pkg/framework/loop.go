package framework

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the default period of the loop.
const DefaultInterval = 100 * time.Millisecond

// Loop invokes controllers periodically, in order of priority levels.
type Loop struct {
	Interval time.Duration

	controllers [PriorityLevels][]Controller
	runners     []Runnable

	tick     uint64
	messages *list.List
	lock     sync.Mutex

	wakeUpCh chan struct{}
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type loopCtxKey struct{}

// LoopCtlFrom gets LoopControl from context passed to Runnables
// started by the loop.
func LoopCtlFrom(ctx context.Context) LoopControl {
	return ctx.Value(loopCtxKey{}).(LoopControl)
}

// WithLoopCtl attaches LoopControl to the context.
func WithLoopCtl(ctx context.Context, loopCtl LoopControl) context.Context {
	return context.WithValue(ctx, loopCtxKey{}, loopCtl)
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultInterval}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers at a priority level.
// Controllers which are also Runnable are started with the loop.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	l.controllers[priorityLevel] = append(l.controllers[priorityLevel], ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnable implementations.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Run implements Runnable.
func (l *Loop) Run(ctx context.Context) error {
	runner := NewRunnerWith(WithLoopCtl(ctx, l))
	runner.Go(l.runners...)

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := runner.Wait(); err != nil {
				glog.Errorf("loop runners: %v", err)
			}
			return ctx.Err()
		case <-ticker.C:
			l.Step(ctx)
		case <-l.wakeUp():
			l.Step(ctx)
		}
	}
}

// RunOrFail is intended to be used in main to simply run the loop.
func (l *Loop) RunOrFail(ctx context.Context) {
	if err := l.Run(ctx); err != nil && err != context.Canceled {
		glog.Fatalln(err)
	}
}

// PostMessage implements LoopControl.
func (l *Loop) PostMessage(msg Message) {
	l.lock.Lock()
	if l.messages == nil {
		l.messages = list.New()
	}
	l.messages.PushBack(msg)
	l.lock.Unlock()
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUp() <- struct{}{}:
	default:
	}
}

// Tick returns the number of ticks executed.
func (l *Loop) Tick() uint64 {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.tick
}

// Step executes a single tick synchronously.
func (l *Loop) Step(ctx context.Context) {
	iter := &iteration{loop: l, time: time.Now()}
	l.lock.Lock()
	l.tick++
	iter.tick = l.tick
	iter.messages, l.messages = l.messages, nil
	l.lock.Unlock()
	if iter.messages == nil {
		iter.messages = list.New()
	}
	iter.ctx = WithLoopCtl(ctx, l)
	for i := 0; i < PriorityLevels; i++ {
		iter.priorityLevel = i
		for _, ctl := range l.controllers[i] {
			if err := ctl.Control(iter); err != nil {
				glog.Errorf("tick %d: controller error: %v", iter.tick, err)
			}
		}
	}
	if iter.messages.Len() > 0 {
		glog.V(3).Infof("tick %d: %d messages left unprocessed", iter.tick, iter.messages.Len())
	}
}

func (l *Loop) wakeUp() chan struct{} {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}
	return l.wakeUpCh
}

type iteration struct {
	loop          *Loop
	ctx           context.Context
	time          time.Time
	tick          uint64
	priorityLevel int
	messages      *list.List
}

func (t *iteration) Context() context.Context { return t.ctx }
func (t *iteration) Time() time.Time          { return t.time }
func (t *iteration) Tick() uint64             { return t.tick }
func (t *iteration) PriorityLevel() int       { return t.priorityLevel }
func (t *iteration) Messages() MessageStore   { return t }
func (t *iteration) PostMessage(msg Message)  { t.loop.PostMessage(msg) }
func (t *iteration) TriggerNext()             { t.loop.TriggerNext() }

// ProcessMessages implements MessageStore.
func (t *iteration) ProcessMessages(fn func(Message) bool) {
	for elm := t.messages.Front(); elm != nil; {
		next := elm.Next()
		if fn(elm.Value) {
			t.messages.Remove(elm)
		}
		elm = next
	}
}

// Len implements MessageStore.
func (t *iteration) Len() int {
	return t.messages.Len()
}
