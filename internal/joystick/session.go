// Package joystick turns a camera into a three way directional control.
//
// A Session owns the camera for the duration of a game round. The game loop
// calls Open before play, Poll once per tick and Close on any transition
// back to idle (win, loss or paddle reset).
package joystick

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/ayusman/camstick/internal/capture"
	"github.com/ayusman/camstick/internal/detector"
)

// Config holds configuration options for a Session.
type Config struct {
	CameraID int
	Strategy detector.Strategy
	Detector detector.Config
}

// DefaultConfig returns a Config for camera 0 using the motion strategy.
func DefaultConfig() Config {
	return Config{
		CameraID: 0,
		Strategy: detector.StrategyMotion,
		Detector: detector.DefaultConfig(),
	}
}

// Preview is an optional observer of every polled frame. Show must return
// promptly; it runs on the polling goroutine.
type Preview interface {
	Show(frame gocv.Mat, d detector.Direction)
	Close() error
}

// Session coordinates the camera, the detector and an optional preview
// across idle/active transitions.
type Session struct {
	id       string
	strategy detector.Strategy
	source   *capture.FrameSource
	detector detector.Detector
	preview  Preview

	mu            sync.Mutex
	open          bool
	openedAt      time.Time
	last          detector.Direction
	captureFailed bool
	counts        [3]int
}

// Stats summarises the current or most recent open period.
type Stats struct {
	ID       string
	Strategy detector.Strategy
	OpenedAt time.Time
	Left     int
	Right    int
	Center   int
}

// New creates a Session reading from the configured camera device.
func New(cfg Config) (*Session, error) {
	d, err := detector.New(cfg.Strategy, cfg.Detector)
	if err != nil {
		return nil, err
	}
	return NewWithCamera(capture.NewCamera(cfg.CameraID), d, cfg.Strategy), nil
}

// NewWithCamera creates a Session from explicit parts.
func NewWithCamera(cam capture.Camera, d detector.Detector, strategy detector.Strategy) *Session {
	return &Session{
		strategy: strategy,
		source:   capture.NewFrameSource(cam),
		detector: d,
	}
}

// SetPreview attaches a preview. Pass nil to detach.
func (s *Session) SetPreview(p Preview) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preview = p
}

// Open acquires the camera and, for the motion strategy, seeds the detector
// with one frame.
// Calling Open on an open session is a no-op. The only error returned
// wraps capture.ErrDeviceUnavailable.
func (s *Session) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open {
		return nil
	}

	if err := s.source.Open(); err != nil {
		return fmt.Errorf("cannot start, no camera: %w", err)
	}

	s.id = uuid.NewString()
	s.open = true
	s.openedAt = time.Now()
	s.counts = [3]int{}
	s.last = detector.Center
	s.captureFailed = false
	s.detector.Reset()

	// Only the motion strategy compares against a previous frame.
	if s.strategy == detector.StrategyMotion {
		s.primeBaseline()
	}

	log.Printf("[%s] joystick session opened (strategy %s)", s.id, s.strategy)
	return nil
}

// primeBaseline seeds the detector with one frame. On failure the first
// Poll becomes the baseline instead.
func (s *Session) primeBaseline() {
	frame, err := s.source.NextFrame()
	if err != nil {
		log.Printf("[%s] could not read baseline frame: %v", s.id, err)
		return
	}
	s.detector.Prime(frame)
	frame.Close()
}

// Poll reads one frame and returns the direction it shows. It never fails:
// a capture failure repeats the previous direction and any other problem,
// or a closed session, yields Center.
func (s *Session) Poll() detector.Direction {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return detector.Center
	}

	frame, err := s.source.NextFrame()
	if err != nil {
		if !s.captureFailed {
			log.Printf("[%s] frame capture failed, holding %v: %v", s.id, s.last, err)
			s.captureFailed = true
		}
		s.count(s.last)
		return s.last
	}
	defer frame.Close()

	if s.captureFailed {
		log.Printf("[%s] frame capture recovered", s.id)
		s.captureFailed = false
	}

	d, err := s.detector.Detect(frame)
	if err != nil {
		log.Printf("[%s] detection failed: %v", s.id, err)
		d = detector.Center
	}
	s.last = d
	s.count(d)

	if s.preview != nil {
		s.showPreview(frame, d)
	}

	return d
}

func (s *Session) count(d detector.Direction) {
	switch d {
	case detector.Left:
		s.counts[0]++
	case detector.Right:
		s.counts[1]++
	default:
		s.counts[2]++
	}
}

// showPreview annotates a copy of frame when the detector supports it.
func (s *Session) showPreview(frame gocv.Mat, d detector.Direction) {
	a, ok := s.detector.(detector.Annotator)
	if !ok {
		s.preview.Show(frame, d)
		return
	}

	img := frame.Clone()
	defer img.Close()
	a.Annotate(&img)
	s.preview.Show(img, d)
}

// Close releases the camera, clears detector state and closes the preview.
// It is safe to call at any time, any number of times.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error

	if err := s.source.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close camera: %w", err))
	}

	s.detector.Reset()

	if s.open && s.preview != nil {
		if err := s.preview.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close preview: %w", err))
		}
	}

	if s.open {
		log.Printf("[%s] joystick session closed", s.id)
	}

	s.open = false
	s.last = detector.Center
	s.captureFailed = false

	return errors.Join(errs...)
}

// IsOpen reports whether the session currently holds the camera.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// ID returns the identifier of the current or most recent open period.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Last returns the direction returned by the most recent Poll.
func (s *Session) Last() detector.Direction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Stats returns direction counts for the current or most recent open
// period. They survive Close until the next Open.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		ID:       s.id,
		Strategy: s.strategy,
		OpenedAt: s.openedAt,
		Left:     s.counts[0],
		Right:    s.counts[1],
		Center:   s.counts[2],
	}
}

// Strategy returns the strategy the session was built with.
func (s *Session) Strategy() detector.Strategy {
	return s.strategy
}

// Camera returns the underlying camera.
func (s *Session) Camera() capture.Camera {
	return s.source.Camera()
}
