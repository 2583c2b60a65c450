package reporting

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBus(t *testing.T) {
	bus := NewBus()
	assert.NotNil(t, bus)

	metrics := bus.Metrics()
	assert.Equal(t, 0, metrics.ActiveSubscriptions)
	assert.Equal(t, int64(0), metrics.EventsPublished)
	assert.Equal(t, int64(0), metrics.EventsDelivered)
	assert.Equal(t, int64(0), metrics.EventsDropped)
}

func TestBus_SubscribeAndPublish(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(10, nil)
	defer sub.Close()

	bus.Publish(NewLogLine("op", SeverityInfo, "hello"))

	select {
	case e := <-sub.C:
		assert.Equal(t, EventTypeLogLine, e.Type)
		assert.Equal(t, "hello", e.Line)
		assert.Equal(t, "op", e.OperationID)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	m := bus.Metrics()
	assert.Equal(t, 1, m.ActiveSubscriptions)
	assert.Equal(t, int64(1), m.EventsPublished)
	assert.Equal(t, int64(1), m.EventsDelivered)
}

func TestBus_Filter(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(10, FilterByType(EventTypeStateChanged))
	defer sub.Close()

	bus.Publish(NewLogLine("op", SeverityInfo, "ignored"))
	bus.Publish(NewStateChanged("op", "Idle", "PrerequisitesChecked"))

	e := <-sub.C
	assert.Equal(t, EventTypeStateChanged, e.Type)
	assert.Equal(t, "PrerequisitesChecked", e.Transition.To)
	assert.Len(t, sub.C, 0)
}

func TestBus_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	bus := NewBus()
	slow := bus.Subscribe(2, nil)
	fast := bus.Subscribe(100, nil)
	defer slow.Close()
	defer fast.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			bus.Publish(NewLogLine("op", SeverityInfo, "line"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	assert.Equal(t, int64(8), slow.Dropped())
	assert.Equal(t, int64(0), fast.Dropped())
	assert.Len(t, fast.C, 10)
	assert.Equal(t, int64(8), bus.Metrics().EventsDropped)
}

func TestSubscription_CloseIsIdempotent(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(1, nil)

	sub.Close()
	sub.Close()

	_, ok := <-sub.C
	assert.False(t, ok)
	assert.Equal(t, 0, bus.Metrics().ActiveSubscriptions)

	// publishing after close must not panic
	bus.Publish(NewLogLine("op", SeverityInfo, "x"))
}

func TestBus_Close(t *testing.T) {
	bus := NewBus()
	a := bus.Subscribe(1, nil)
	b := bus.Subscribe(1, nil)

	bus.Close()
	bus.Close()

	_, okA := <-a.C
	_, okB := <-b.C
	assert.False(t, okA)
	assert.False(t, okB)

	late := bus.Subscribe(1, nil)
	_, ok := <-late.C
	assert.False(t, ok)
	a.Close()
}

func TestBus_ConcurrentPublishAndClose(t *testing.T) {
	bus := NewBus()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := bus.Subscribe(4, nil)
			for j := 0; j < 50; j++ {
				bus.Publish(NewProgress("op", "vcredist", int64(j), 50))
			}
			sub.Close()
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, bus.Metrics().ActiveSubscriptions)
}

func TestEvent_String(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{"log line", NewLogLine("op", SeverityInfo, "pulling images"), "pulling images"},
		{"known total", NewProgress("op", "vcredist", 50, 200), "vcredist: 50/200 bytes (25%)"},
		{"unknown total", NewProgress("op", "vcredist", 50, -1), "vcredist: 50 bytes"},
		{"state", NewStateChanged("op", "Idle", "ServicesStarting"), "state Idle -> ServicesStarting"},
		{"step ok", NewStepFinished("op", "pull", nil), "step pull succeeded"},
		{"step failed", NewStepFinished("op", "up", errors.New("exit 1")), "step up failed: exit 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.String())
		})
	}
}

func TestNewStepFinished_Severity(t *testing.T) {
	ok := NewStepFinished("op", "pull", nil)
	assert.Equal(t, SeverityInfo, ok.Severity)
	require.NotNil(t, ok.Step)
	assert.True(t, ok.Step.OK)

	failed := NewStepFinished("op", "pull", errors.New("boom"))
	assert.Equal(t, SeverityError, failed.Severity)
	assert.False(t, failed.Step.OK)
}

func TestProgress_Percent(t *testing.T) {
	assert.Equal(t, -1.0, Progress{Received: 10, Total: -1}.Percent())
	assert.Equal(t, 0.5, Progress{Received: 10, Total: 20}.Percent())
	assert.Equal(t, 1.0, Progress{Received: 30, Total: 20}.Percent())
}
