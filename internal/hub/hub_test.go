package hub

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type testEvent struct {
	Type string `json:"type"`
	Seq  int    `json:"seq"`
}

func recvOne(t *testing.T, ch chan []byte) []byte {
	t.Helper()
	select {
	case data := <-ch:
		return data
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a broadcast")
		return nil
	}
}

func TestPublishFanout(t *testing.T) {
	h := New()
	ch := h.GetOrCreate("game-1")

	sub1 := make(chan []byte, 10)
	sub2 := make(chan []byte, 10)
	ch.Subscribe(sub1)
	ch.Subscribe(sub2)

	ch.Publish(testEvent{Type: "TimeTick", Seq: 1})

	got1 := string(recvOne(t, sub1))
	got2 := string(recvOne(t, sub2))
	want := `{"type":"TimeTick","seq":1}`
	if got1 != want {
		t.Errorf("expected %s, got %s", want, got1)
	}
	if got2 != want {
		t.Errorf("expected %s, got %s", want, got2)
	}
}

func TestPublishOrder(t *testing.T) {
	h := New()
	ch := h.GetOrCreate("game-1")
	sub := make(chan []byte, 10)
	ch.Subscribe(sub)

	for i := 1; i <= 5; i++ {
		ch.Publish(testEvent{Type: "TimeTick", Seq: i})
	}

	for i := 1; i <= 5; i++ {
		want := fmt.Sprintf(`{"type":"TimeTick","seq":%d}`, i)
		if got := string(recvOne(t, sub)); got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	}
}

func TestPublishShedsOldest(t *testing.T) {
	h := New()
	ch := h.GetOrCreate("game-1")
	sub := make(chan []byte, 2)
	ch.Subscribe(sub)

	for i := 1; i <= 4; i++ {
		ch.Publish(testEvent{Type: "TimeTick", Seq: i})
	}

	// The two oldest frames were shed; the newest two remain in order.
	for _, seq := range []int{3, 4} {
		want := fmt.Sprintf(`{"type":"TimeTick","seq":%d}`, seq)
		if got := string(recvOne(t, sub)); got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	}
	if len(sub) != 0 {
		t.Errorf("expected an empty queue, got %d frames", len(sub))
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	h := New()
	ch := h.GetOrCreate("game-1")
	sub := make(chan []byte)
	ch.Subscribe(sub)

	done := make(chan struct{})
	go func() {
		// Nobody reads sub; both publishes must still return.
		ch.Publish(testEvent{Type: "TimeTick", Seq: 1})
		ch.Publish(testEvent{Type: "TimeTick", Seq: 2})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a stalled subscriber")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	h := New()
	ch := h.GetOrCreate("game-1")
	sub := make(chan []byte, 10)
	ch.Subscribe(sub)
	ch.Unsubscribe(sub)

	ch.Publish(testEvent{Type: "TimeTick", Seq: 1})

	// Publish enqueues synchronously, so an empty queue means the
	// subscriber was really removed.
	if len(sub) != 0 {
		t.Errorf("expected no delivery after unsubscribe, got %d frames", len(sub))
	}
	if ch.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", ch.SubscriberCount())
	}
}

func TestChannelUsableAfterRemove(t *testing.T) {
	h := New()
	ch := h.GetOrCreate("game-1")
	sub := make(chan []byte, 10)
	ch.Subscribe(sub)

	h.Remove("game-1")

	if _, ok := h.Get("game-1"); ok {
		t.Error("expected channel gone from the registry")
	}
	if h.ChannelCount() != 0 {
		t.Errorf("expected 0 channels, got %d", h.ChannelCount())
	}

	// A held handle keeps working after removal.
	ch.Publish(testEvent{Type: "GameOver", Seq: 1})
	if got := string(recvOne(t, sub)); got != `{"type":"GameOver","seq":1}` {
		t.Errorf("unexpected frame %s", got)
	}
}

func TestGetOrCreateReturnsSameChannel(t *testing.T) {
	h := New()
	a := h.GetOrCreate("game-1")
	b := h.GetOrCreate("game-1")
	if a != b {
		t.Error("expected the same channel for the same id")
	}

	got, ok := h.Get("game-1")
	if !ok || got != a {
		t.Error("expected Get to return the created channel")
	}
}

func TestConcurrentPublish(t *testing.T) {
	h := New()
	ch := h.GetOrCreate("game-1")
	sub := make(chan []byte, 1000)
	ch.Subscribe(sub)

	var wg sync.WaitGroup
	for g := range 10 {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := range 50 {
				ch.Publish(testEvent{Type: "TimeTick", Seq: g*50 + i})
			}
		}(g)
	}
	wg.Wait()

	if len(sub) != 500 {
		t.Errorf("expected 500 frames, got %d", len(sub))
	}
}
