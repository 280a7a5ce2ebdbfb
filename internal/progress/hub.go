package progress

import (
	"sync"
	"time"
)

// Event is one observation of an upload's transfer state.
type Event struct {
	UploadID string  `json:"uploadId"`
	Written  int64   `json:"written"`
	Total    int64   `json:"total"`
	Percent  float64 `json:"percent"`
	Done     bool    `json:"done"`
	Error    string  `json:"error,omitempty"`
}

const subscriberBuffer = 16

// DefaultRetention is how long a finished upload's final event stays
// available to late subscribers.
const DefaultRetention = time.Minute

type subscriber struct {
	ch chan Event
}

// Hub fans out upload progress events to subscribers keyed by upload id.
// Publishing never blocks: a subscriber whose buffer is full misses
// intermediate events, but the final event is always delivered.
type Hub struct {
	mu        sync.Mutex
	subs      map[string]map[*subscriber]struct{}
	last      map[string]Event
	retention time.Duration
	closed    bool
}

// Option configures a Hub.
type Option func(*Hub)

// WithRetention sets how long final events are replayed after Finish.
func WithRetention(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.retention = d
		}
	}
}

// NewHub creates an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		subs:      make(map[string]map[*subscriber]struct{}),
		last:      make(map[string]Event),
		retention: DefaultRetention,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers for events of uploadID. The returned cancel func must be
// called when the caller stops reading. If the upload already finished, the
// final event is replayed and the channel is closed.
func (h *Hub) Subscribe(uploadID string) (<-chan Event, func()) {
	s := &subscriber{ch: make(chan Event, subscriberBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()

	if ev, ok := h.last[uploadID]; ok && ev.Done {
		s.ch <- ev
		close(s.ch)
		return s.ch, func() {}
	}
	if h.closed {
		close(s.ch)
		return s.ch, func() {}
	}
	if ev, ok := h.last[uploadID]; ok {
		s.ch <- ev
	}

	set, ok := h.subs[uploadID]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[uploadID] = set
	}
	set[s] = struct{}{}

	return s.ch, func() { h.unsubscribe(uploadID, s) }
}

func (h *Hub) unsubscribe(uploadID string, s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[uploadID]
	if !ok {
		return
	}
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	close(s.ch)
	if len(set) == 0 {
		delete(h.subs, uploadID)
	}
}

// Reporter returns a callback suitable for storage.PutObjectOptions.OnProgress.
func (h *Hub) Reporter(uploadID string) func(written, total int64) {
	return func(written, total int64) {
		h.Publish(Event{UploadID: uploadID, Written: written, Total: total})
	}
}

// Publish records ev as the latest state of its upload and forwards it.
func (h *Hub) Publish(ev Event) {
	if ev.Total > 0 {
		ev.Percent = float64(ev.Written) * 100 / float64(ev.Total)
		if ev.Percent > 100 {
			ev.Percent = 100
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.last[ev.UploadID] = ev
	for s := range h.subs[ev.UploadID] {
		select {
		case s.ch <- ev:
		default:
		}
	}
}

// Finish publishes the terminal event for uploadID and closes its subscribers.
func (h *Hub) Finish(uploadID string, written int64, err error) {
	ev := Event{UploadID: uploadID, Written: written, Total: written, Percent: 100, Done: true}
	if err != nil {
		ev.Error = err.Error()
		ev.Percent = 0
		ev.Total = 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.last[uploadID] = ev
	for s := range h.subs[uploadID] {
		deliverFinal(s.ch, ev)
		close(s.ch)
	}
	delete(h.subs, uploadID)

	time.AfterFunc(h.retention, func() { h.expire(uploadID, ev) })
}

// expire drops final unless uploadID was reused since.
func (h *Hub) expire(uploadID string, final Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.last[uploadID] == final {
		delete(h.last, uploadID)
	}
}

// Tracked reports how many upload ids currently have remembered state.
func (h *Hub) Tracked() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.last)
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	clear(h.last)
	for id, set := range h.subs {
		for s := range set {
			close(s.ch)
		}
		delete(h.subs, id)
	}
}

// deliverFinal makes room in a full buffer so the terminal event is never lost.
func deliverFinal(ch chan Event, ev Event) {
	for {
		select {
		case ch <- ev:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
