package events

import (
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNotifierOrderAndPanicIsolation(t *testing.T) {
	n := NewNotifier[int](nil)
	var calls []string

	n.Subscribe(func(v int) { calls = append(calls, "first") })
	n.Subscribe(func(v int) { panic("boom") })
	n.Subscribe(func(v int) { calls = append(calls, "third") })

	require.NotPanics(t, func() { n.Notify(1) })
	assert.Equal(t, []string{"first", "third"}, calls)
}

func TestNotifierUnsubscribe(t *testing.T) {
	n := NewNotifier[string](nil)
	var got []string

	unsub := n.Subscribe(func(v string) { got = append(got, "a:"+v) })
	n.Subscribe(func(v string) { got = append(got, "b:"+v) })

	n.Notify("1")
	unsub()
	unsub()
	n.Notify("2")

	assert.Equal(t, []string{"a:1", "b:1", "b:2"}, got)
	assert.Equal(t, 1, n.Len())
}

func TestDebouncerRunsOnlyLastTrigger(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var last atomic.Int32
	var runs atomic.Int32

	for i := 1; i <= 5; i++ {
		i := int32(i)
		d.Trigger(func() {
			last.Store(i)
			runs.Add(1)
		})
	}

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
	assert.Equal(t, int32(5), last.Load())
}

func TestDebouncerStop(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	var runs atomic.Int32

	d.Trigger(func() { runs.Add(1) })
	d.Stop()
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, int32(0), runs.Load())
}

func TestHubPublish(t *testing.T) {
	h := NewHub(1, nil)
	ch, leave := h.Join()
	defer leave()

	h.Publish("cart", map[string]int{"itemCount": 3})
	h.Publish("cart", map[string]int{"itemCount": 4}) // dropped, buffer full

	msg := <-ch
	assert.Equal(t, "cart", msg.Event)
	var body map[string]int
	require.NoError(t, json.Unmarshal(msg.Data, &body))
	assert.Equal(t, 3, body["itemCount"])

	select {
	case <-ch:
		t.Fatal("expected second message to be dropped")
	default:
	}
	assert.Equal(t, 1, h.Clients())
}

func TestHubLeaveClosesChannel(t *testing.T) {
	h := NewHub(4, nil)
	ch, leave := h.Join()
	leave()
	leave()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, h.Clients())
}

func TestSequencerRunsInTicketOrder(t *testing.T) {
	var s Sequencer
	first, second, third := s.Next(), s.Next(), s.Next()
	require.Equal(t, []uint64{1, 2, 3}, []uint64{first, second, third})

	order := make(chan uint64, 3)
	done := make(chan struct{}, 2)
	for _, ticket := range []uint64{third, second} {
		go func(ticket uint64) {
			s.Run(ticket, func() { order <- ticket })
			done <- struct{}{}
		}(ticket)
	}
	// Later tickets wait for the first one.
	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, order)

	s.Run(first, func() { order <- first })
	<-done
	<-done
	close(order)

	var got []uint64
	for v := range order {
		got = append(got, v)
	}
	assert.Equal(t, []uint64{1, 2, 3}, got)
}
