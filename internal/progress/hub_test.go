package progress

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(ch <-chan Event) []Event {
	var out []Event
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}

func TestHub_PublishAndFinish(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("u1")
	defer cancel()

	report := h.Reporter("u1")
	report(50, 200)
	report(200, 200)
	h.Finish("u1", 200, nil)

	events := drain(ch)
	require.Len(t, events, 3)
	assert.Equal(t, 25.0, events[0].Percent)
	assert.Equal(t, 100.0, events[1].Percent)
	assert.True(t, events[2].Done)
	assert.Empty(t, events[2].Error)
}

func TestHub_OtherUploadsAreIsolated(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("mine")
	defer cancel()

	h.Publish(Event{UploadID: "theirs", Written: 1, Total: 2})
	h.Finish("mine", 0, errors.New("disk full"))

	events := drain(ch)
	require.Len(t, events, 1)
	assert.Equal(t, "mine", events[0].UploadID)
	assert.Equal(t, "disk full", events[0].Error)
}

func TestHub_SlowSubscriberStillGetsFinalEvent(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("u")
	defer cancel()

	for i := int64(1); i <= subscriberBuffer*3; i++ {
		h.Publish(Event{UploadID: "u", Written: i, Total: subscriberBuffer * 3})
	}
	h.Finish("u", subscriberBuffer*3, nil)

	events := drain(ch)
	require.NotEmpty(t, events)
	assert.LessOrEqual(t, len(events), subscriberBuffer)
	assert.True(t, events[len(events)-1].Done)
}

func TestHub_LateSubscriberReplaysFinalState(t *testing.T) {
	h := NewHub()
	h.Finish("done", 10, nil)

	ch, cancel := h.Subscribe("done")
	defer cancel()

	events := drain(ch)
	require.Len(t, events, 1)
	assert.True(t, events[0].Done)

}

func TestHub_FinalStateExpires(t *testing.T) {
	h := NewHub(WithRetention(50 * time.Millisecond))
	for i := 0; i < 100; i++ {
		h.Finish(fmt.Sprintf("u-%d", i), 1, nil)
	}
	assert.Equal(t, 100, h.Tracked())

	assert.Eventually(t, func() bool { return h.Tracked() == 0 }, time.Second, 5*time.Millisecond)

	ch, cancel := h.Subscribe("u-0")
	cancel()
	assert.Empty(t, drain(ch))
}

func TestHub_ExpiryKeepsReusedID(t *testing.T) {
	h := NewHub(WithRetention(20 * time.Millisecond))
	h.Finish("u", 1, nil)
	h.Publish(Event{UploadID: "u", Written: 1, Total: 4})

	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, 1, h.Tracked())
}

func TestHub_CancelAndClose(t *testing.T) {
	h := NewHub()
	_, cancel := h.Subscribe("a")
	cancel()
	cancel()

	ch, _ := h.Subscribe("b")
	h.Close()
	assert.Empty(t, drain(ch))

	h.Publish(Event{UploadID: "b"})
	h.Finish("b", 0, nil)
}

func TestHub_ConcurrentPublishers(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("c")
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h.Publish(Event{UploadID: "c", Written: int64(i), Total: 8})
		}(i)
	}
	wg.Wait()
	h.Finish("c", 8, nil)

	events := drain(ch)
	assert.True(t, events[len(events)-1].Done)
}
