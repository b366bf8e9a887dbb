package server

import (
	"log"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/camstick/internal/detector"
)

// subscriberBuffer is how many updates a slow client may fall behind
// before updates to it are dropped.
const subscriberBuffer = 8

// Update is one classification as seen by remote observers.
type Update struct {
	Direction detector.Direction `json:"direction"`
	Active    bool               `json:"active"`
	Sequence  uint64             `json:"seq"`
	Timestamp int64              `json:"timestamp"`
}

// Hub keeps the latest preview frame and fans classifications out to
// subscribers. It satisfies joystick.Preview; Show never blocks on clients.
// Frames are only JPEG encoded while at least one viewer is watching.
type Hub struct {
	mu      sync.RWMutex
	jpeg    []byte
	viewers int
	last    Update
	clients map[chan Update]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[chan Update]struct{}),
	}
}

// Show publishes d and, while a viewer is watching, stores frame as the
// current JPEG preview.
func (h *Hub) Show(frame gocv.Mat, d detector.Direction) {
	h.mu.RLock()
	watched := h.viewers > 0
	h.mu.RUnlock()

	var data []byte
	if watched && !frame.Empty() {
		buf, err := gocv.IMEncode(".jpg", frame)
		if err != nil {
			log.Printf("encode preview frame: %v", err)
		} else {
			data = append([]byte(nil), buf.GetBytes()...)
			buf.Close()
		}
	}

	h.mu.Lock()
	if data != nil {
		h.jpeg = data
	}
	h.mu.Unlock()

	h.publish(d, true)
}

// Close marks the joystick idle and drops the preview frame. The Hub stays
// usable and resumes on the next Show.
func (h *Hub) Close() error {
	h.mu.Lock()
	h.jpeg = nil
	h.mu.Unlock()

	h.publish(detector.Center, false)
	return nil
}

func (h *Hub) publish(d detector.Direction, active bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = Update{
		Direction: d,
		Active:    active,
		Sequence:  h.last.Sequence + 1,
		Timestamp: time.Now().UnixMilli(),
	}

	for ch := range h.clients {
		select {
		case ch <- h.last:
		default:
		}
	}
}

// Last returns the most recent update.
func (h *Hub) Last() Update {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last
}

// Watch registers a preview viewer. The returned function unregisters it;
// the stored frame is dropped when the last viewer leaves.
func (h *Hub) Watch() func() {
	h.mu.Lock()
	h.viewers++
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.viewers--
			if h.viewers == 0 {
				h.jpeg = nil
			}
		})
	}
}

// Viewers returns the number of registered viewers.
func (h *Hub) Viewers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.viewers
}

// Frame returns the latest JPEG preview, or nil when idle or unwatched.
func (h *Hub) Frame() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.jpeg
}

// Subscribe registers for updates. The returned function unsubscribes and
// closes the channel.
func (h *Hub) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, subscriberBuffer)

	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of registered subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
