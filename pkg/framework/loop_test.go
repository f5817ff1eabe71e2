package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoopStepOrder(t *testing.T) {
	var order []string
	record := func(name string) Controller {
		return ControlFunc(func(cc ControlContext) error {
			order = append(order, name)
			return nil
		})
	}
	l := NewLoop().
		AddController(PrLvActuate, record("actuate")).
		AddController(PrLvSense, record("sense1"), record("sense2")).
		AddController(PrLvControl, record("control"))
	l.Step(context.Background())
	require.Equal(t, []string{"sense1", "sense2", "control", "actuate"}, order)
	require.Equal(t, uint64(1), l.Tick())
}

func TestLoopTicks(t *testing.T) {
	var ticks []uint64
	l := NewLoop().AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		ticks = append(ticks, cc.Tick())
		require.Equal(t, PrLvControl, cc.PriorityLevel())
		return errors.New("ignored")
	}))
	for i := 0; i < 3; i++ {
		l.Step(context.Background())
	}
	require.Equal(t, []uint64{1, 2, 3}, ticks)
}

func TestLoopMessages(t *testing.T) {
	var taken, seen []Message
	l := NewLoop()
	l.AddController(PrLvSense, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(func(msg Message) bool {
			if msg.(int)%2 == 0 {
				taken = append(taken, msg)
				return true
			}
			return false
		})
		return nil
	}))
	l.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(func(msg Message) bool {
			seen = append(seen, msg)
			return true
		})
		require.Equal(t, 0, cc.Messages().Len())
		return nil
	}))
	for i := 1; i <= 4; i++ {
		l.PostMessage(i)
	}
	l.Step(context.Background())
	require.Equal(t, []Message{2, 4}, taken)
	require.Equal(t, []Message{1, 3}, seen)

	taken, seen = nil, nil
	l.Step(context.Background())
	require.Empty(t, taken)
	require.Empty(t, seen)
}

func TestLoopRunTriggeredByRunnable(t *testing.T) {
	l := NewLoop()
	l.Interval = time.Hour
	received := make(chan Message, 1)
	l.AddRunnable(RunFunc(func(ctx context.Context) error {
		loopCtl := LoopCtlFrom(ctx)
		loopCtl.PostMessage("hello")
		loopCtl.TriggerNext()
		<-ctx.Done()
		return ctx.Err()
	}))
	l.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(func(msg Message) bool {
			received <- msg
			return true
		})
		return nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()
	select {
	case msg := <-received:
		require.Equal(t, "hello", msg)
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}

func TestRunnerWait(t *testing.T) {
	failure := errors.New("failure")
	r := NewRunner().Go(
		NamedRun("ok", RunFunc(func(context.Context) error { return nil })),
		RunFunc(func(context.Context) error { return context.Canceled }),
		RunFunc(func(context.Context) error { return failure }),
	)
	err := r.Wait()
	require.Error(t, err)
	require.True(t, errors.Is(err, failure))
	require.Equal(t, "2: failure", err.Error())
	var runnerErr *RunnerError
	require.True(t, errors.As(err, &runnerErr))
	require.Equal(t, "2", runnerErr.Name)
	require.NoError(t, NewRunner().Wait())
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil).Aggregate())
	errs.Add(errors.New("a"), nil, errors.New("b"))
	require.Equal(t, "multiple errors:\na\nb", errs.Aggregate().Error())
	require.Equal(t, "", (&AggregatedError{}).Error())
}
