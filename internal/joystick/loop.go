package joystick

import (
	"context"
	"log"
	"time"

	"github.com/ayusman/camstick/internal/detector"
)

// DefaultTick is the game tick period the classifier is tuned for.
const DefaultTick = 50 * time.Millisecond

// Poller is the per-tick surface of a Session.
type Poller interface {
	Poll() detector.Direction
}

// Loop drives a Poller on a fixed tick from a single goroutine, standing in
// for a game loop. Every result is passed to the sinks in order.
type Loop struct {
	poller Poller
	tick   time.Duration
	sinks  []func(detector.Direction)
}

// NewLoop creates a Loop. A non-positive tick selects DefaultTick.
func NewLoop(p Poller, tick time.Duration, sinks ...func(detector.Direction)) *Loop {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Loop{
		poller: p,
		tick:   tick,
		sinks:  sinks,
	}
}

// Run polls once per tick until ctx is done. A slow Poll delays the next
// tick rather than queueing ticks up.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()

	last := detector.Center

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d := l.poller.Poll()
			if d != last {
				log.Printf("direction: %v", d)
				last = d
			}
			for _, sink := range l.sinks {
				sink(d)
			}
		}
	}
}
