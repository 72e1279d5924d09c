package events

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-lynx/cute/conf"
)

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	b := NewBus(conf.Events{Workers: 2})
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBus_SyncDeliveryIsInline(t *testing.T) {
	b := newTestBus(t)

	var got []string
	_, err := b.Subscribe(EventBeforeBeanLoaded, func(ev Event) { got = append(got, "typed:"+ev.Name) })
	require.NoError(t, err)
	_, err = b.Subscribe(0, func(ev Event) { got = append(got, "all:"+ev.EventType.String()) })
	require.NoError(t, err)

	b.Publish(NewEvent(EventBeforeBeanLoaded).WithName("compA"))
	b.Publish(NewEvent(EventAfterAllBeansLoaded))

	assert.Equal(t, []string{
		"typed:compA",
		"all:before_bean_loaded",
		"all:after_all_beans_loaded",
	}, got)
}

func TestBus_Unsubscribe(t *testing.T) {
	b := newTestBus(t)
	var n atomic.Int32
	cancel, err := b.Subscribe(EventAfterBeanLoaded, func(Event) { n.Add(1) })
	require.NoError(t, err)

	b.Publish(NewEvent(EventAfterBeanLoaded))
	cancel()
	cancel()
	b.Publish(NewEvent(EventAfterBeanLoaded))

	assert.Equal(t, int32(1), n.Load())
}

func TestBus_HandlerPanicIsContained(t *testing.T) {
	b := newTestBus(t)
	called := false
	_, _ = b.Subscribe(EventAfterBeanLoaded, func(Event) { panic("listener bug") })
	_, _ = b.Subscribe(EventAfterBeanLoaded, func(Event) { called = true })

	assert.NotPanics(t, func() { b.Publish(NewEvent(EventAfterBeanLoaded)) })
	assert.True(t, called)
}

func TestBus_AsyncDelivery(t *testing.T) {
	b := newTestBus(t)

	var mu sync.Mutex
	var names []string
	_, err := b.SubscribeAsync(func(ev Event) {
		mu.Lock()
		names = append(names, ev.Name)
		mu.Unlock()
	}, EventAfterBeanLoaded)
	require.NoError(t, err)

	b.Publish(NewEvent(EventAfterBeanLoaded).WithName("a"))
	b.Publish(NewEvent(EventBeforeBeanLoaded).WithName("ignored"))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(names) == 1 && names[0] == "a"
	}, time.Second, 5*time.Millisecond)
}

func TestBus_AsyncDeliveryFollowsPublishOrder(t *testing.T) {
	b := NewBus(conf.Events{Workers: 4})
	t.Cleanup(func() { _ = b.Close() })

	const n = 2000
	var mu sync.Mutex
	seen := make([]int, 0, n)
	_, err := b.SubscribeAsync(func(ev Event) {
		mu.Lock()
		seen = append(seen, ev.Payload.(int))
		mu.Unlock()
	}, EventUser)
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		b.Publish(NewEvent(EventUser).WithPayload(i))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == n
	}, 5*time.Second, 5*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	for i, v := range seen {
		require.Equal(t, i, v)
	}
}

func TestBus_Closed(t *testing.T) {
	b := NewBus(conf.Events{Workers: 1})
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, err := b.Subscribe(EventAfterBeanLoaded, func(Event) {})
	assert.ErrorIs(t, err, ErrBusClosed)
	_, err = b.SubscribeAsync(func(Event) {})
	assert.ErrorIs(t, err, ErrBusClosed)
	assert.NotPanics(t, func() { b.Publish(NewEvent(EventAfterBeanLoaded)) })
}

func TestBus_NilHandler(t *testing.T) {
	b := newTestBus(t)
	_, err := b.Subscribe(EventAfterBeanLoaded, nil)
	assert.Error(t, err)
}

func TestHistory(t *testing.T) {
	h := NewHistory(2)
	h.Add(NewEvent(EventBeforeAllBeansLoaded))
	h.Add(NewEvent(EventBeforeBeanLoaded).WithName("a"))
	h.Add(NewEvent(EventAfterBeanLoaded).WithName("a"))

	require.Equal(t, 2, h.Len())
	evs := h.Events()
	assert.Equal(t, EventBeforeBeanLoaded, evs[0].EventType)
	assert.Len(t, h.Events(EventAfterBeanLoaded), 1)
}

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "after_bean_loaded", EventAfterBeanLoaded.String())
	assert.Equal(t, "event(0x101)", (EventUser + 1).String())
}
