package joystick

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/camstick/internal/capture"
	"github.com/ayusman/camstick/internal/detector"
	"github.com/ayusman/camstick/internal/fixture"
)

// recordingPreview records what the session shows it.
type recordingPreview struct {
	mu     sync.Mutex
	shown  []detector.Direction
	closes int
}

func (p *recordingPreview) Show(frame gocv.Mat, d detector.Direction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shown = append(p.shown, d)
}

func (p *recordingPreview) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closes++
	return nil
}

func newTestSession(t *testing.T, directions ...detector.Direction) (*Session, *capture.MockCamera, *detector.MockDetector) {
	t.Helper()

	frame := fixture.SolidFrame(64, 48, fixture.Gray)
	t.Cleanup(func() { frame.Close() })

	cam := capture.NewMockCamera([]*gocv.Mat{&frame}, true)
	det := detector.NewMockDetector(directions...)
	return NewWithCamera(cam, det, detector.StrategyMotion), cam, det
}

// captureLog redirects the standard logger into a buffer for the rest of
// the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	flags := log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
	})
	return &buf
}

func TestSession_CloseBeforeOpen(t *testing.T) {
	s, cam, _ := newTestSession(t)

	for i := 0; i < 2; i++ {
		if err := s.Close(); err != nil {
			t.Errorf("Close() %d = %v, want nil", i+1, err)
		}
	}

	if s.IsOpen() || cam.IsOpen() {
		t.Error("session and camera should stay closed")
	}
}

func TestSession_PollWhenClosed(t *testing.T) {
	s, _, det := newTestSession(t, detector.Left)

	if got := s.Poll(); got != detector.Center {
		t.Errorf("Poll() on closed session = %v, want CENTER", got)
	}
	if det.Detects() != 0 {
		t.Error("detector should not run while closed")
	}
}

func TestSession_OpenPollClose(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	s, cam, det := newTestSession(t, detector.Left, detector.Right, detector.Center)
	preview := &recordingPreview{}
	s.SetPreview(preview)

	if err := s.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !s.IsOpen() || s.ID() == "" {
		t.Fatal("session should be open with an id")
	}
	if det.Primes() != 1 {
		t.Errorf("Primes() = %d, want 1 baseline frame", det.Primes())
	}

	// Re-entering Open is a no-op.
	id := s.ID()
	if err := s.Open(); err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	if cam.Opens() != 1 || s.ID() != id {
		t.Error("second Open() should not reacquire the device")
	}

	for _, want := range []detector.Direction{detector.Left, detector.Right, detector.Center} {
		if got := s.Poll(); got != want {
			t.Errorf("Poll() = %v, want %v", got, want)
		}
	}
	if st := s.Stats(); st.Left != 1 || st.Right != 1 || st.Center != 1 || st.ID != id {
		t.Errorf("Stats() = %+v, want one of each direction", st)
	}
	if len(preview.shown) != 3 {
		t.Errorf("preview shown %d frames, want 3", len(preview.shown))
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	if cam.IsOpen() || s.IsOpen() {
		t.Error("camera should be released")
	}
	if preview.closes != 1 {
		t.Errorf("preview closed %d times, want 1", preview.closes)
	}
	if det.Resets() < 2 {
		t.Errorf("Resets() = %d, want state cleared on open and close", det.Resets())
	}
}

func TestSession_OpenDeviceUnavailable(t *testing.T) {
	s, cam, _ := newTestSession(t)
	cam.SetOpenError(capture.ErrDeviceUnavailable)

	err := s.Open()
	if !errors.Is(err, capture.ErrDeviceUnavailable) {
		t.Fatalf("Open() = %v, want ErrDeviceUnavailable", err)
	}
	if s.IsOpen() {
		t.Error("session should stay closed")
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() after failed Open() = %v", err)
	}
}

func TestSession_CaptureErrorHoldsLastDirection(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	s, cam, det := newTestSession(t, detector.Right)
	if err := s.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	if got := s.Poll(); got != detector.Right {
		t.Fatalf("Poll() = %v, want RIGHT", got)
	}

	cam.SetReadError(errors.New("usb disconnect"))
	for i := 0; i < 3; i++ {
		if got := s.Poll(); got != detector.Right {
			t.Errorf("Poll() during capture failure = %v, want RIGHT held", got)
		}
	}
	if det.Detects() != 1 {
		t.Errorf("Detects() = %d, detector should not run without a frame", det.Detects())
	}

	cam.SetReadError(nil)
	det.SetDirections(detector.Left)
	if got := s.Poll(); got != detector.Left {
		t.Errorf("Poll() after recovery = %v, want LEFT", got)
	}
}

func TestSession_CaptureErrorLoggedOncePerStreak(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	s, cam, _ := newTestSession(t, detector.Left)
	if err := s.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	logs := captureLog(t)
	count := func(msg string) int { return strings.Count(logs.String(), msg) }

	cam.SetReadError(errors.New("usb disconnect"))
	for i := 0; i < 3; i++ {
		s.Poll()
	}
	if got := count("frame capture failed"); got != 1 {
		t.Errorf("failure logged %d times in one streak, want 1\n%s", got, logs)
	}

	cam.SetReadError(nil)
	s.Poll()
	s.Poll()
	if got := count("frame capture recovered"); got != 1 {
		t.Errorf("recovery logged %d times, want 1\n%s", got, logs)
	}

	// A new streak is reported again.
	cam.SetReadError(errors.New("driver stall"))
	s.Poll()
	s.Poll()
	if got := count("frame capture failed"); got != 2 {
		t.Errorf("failure logged %d times over two streaks, want 2\n%s", got, logs)
	}
}

func TestSession_OpenObjectStrategySkipsBaseline(t *testing.T) {
	cam := capture.NewMockCamera(nil, false)
	cam.SetReadError(capture.ErrCapture)
	det := detector.NewMockDetector(detector.Right)
	s := NewWithCamera(cam, det, detector.StrategyObject)

	logs := captureLog(t)

	if err := s.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	if det.Primes() != 0 {
		t.Errorf("Primes() = %d, object strategy needs no baseline frame", det.Primes())
	}
	if strings.Contains(logs.String(), "baseline") {
		t.Errorf("object strategy should not read a baseline frame:\n%s", logs)
	}
}

func TestSession_OpenMotionStrategyReportsBaselineFailure(t *testing.T) {
	s, cam, det := newTestSession(t, detector.Left)
	cam.SetReadError(capture.ErrCapture)

	logs := captureLog(t)

	if err := s.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	if det.Primes() != 0 {
		t.Errorf("Primes() = %d after a failed baseline read", det.Primes())
	}
	if got := strings.Count(logs.String(), "could not read baseline frame"); got != 1 {
		t.Errorf("baseline failure logged %d times, want 1\n%s", got, logs)
	}
}

func TestSession_CaptureErrorBeforeAnyPoll(t *testing.T) {
	s, cam, _ := newTestSession(t, detector.Left)
	cam.SetReadError(capture.ErrCapture)

	if err := s.Open(); err != nil {
		t.Fatalf("Open() should tolerate a failed baseline read, got %v", err)
	}
	defer s.Close()

	if got := s.Poll(); got != detector.Center {
		t.Errorf("Poll() = %v, want CENTER", got)
	}
}

func TestSession_DetectorErrorIsCenter(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	s, _, det := newTestSession(t, detector.Left)
	if err := s.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	det.SetError(errors.New("bad frame"))
	if got := s.Poll(); got != detector.Center {
		t.Errorf("Poll() = %v, want CENTER", got)
	}
}

func TestSession_ReopenAfterClose(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	s, cam, _ := newTestSession(t, detector.Left)

	if err := s.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	first := s.ID()
	s.Poll()
	s.Close()

	if st := s.Stats(); st.ID != first || st.Left != 1 {
		t.Errorf("Stats() after Close() = %+v, want the finished round", st)
	}

	if s.Last() != detector.Center {
		t.Errorf("Last() after Close() = %v, want CENTER", s.Last())
	}

	if err := s.Open(); err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	if s.ID() == first {
		t.Error("each open period should get a new id")
	}
	if st := s.Stats(); st.Left+st.Right+st.Center != 0 {
		t.Errorf("Stats() after reopen = %+v, want counts cleared", st)
	}
	if cam.Opens() != 2 {
		t.Errorf("Opens() = %d, want 2", cam.Opens())
	}
}

func TestNew_UnknownStrategy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Strategy = "telepathy"

	if _, err := New(cfg); err == nil {
		t.Error("New() should reject an unknown strategy")
	}
}

type scriptedPoller struct {
	mu    sync.Mutex
	seq   []detector.Direction
	calls int
}

func (p *scriptedPoller) Poll() detector.Direction {
	p.mu.Lock()
	defer p.mu.Unlock()
	d := p.seq[p.calls%len(p.seq)]
	p.calls++
	return d
}

func TestLoop_Run(t *testing.T) {
	p := &scriptedPoller{seq: []detector.Direction{detector.Left, detector.Right}}

	var mu sync.Mutex
	var got []detector.Direction
	sink := func(d detector.Direction) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, d)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	NewLoop(p, 10*time.Millisecond, sink).Run(ctx)

	mu.Lock()
	defer mu.Unlock()

	if len(got) < 4 {
		t.Fatalf("sink received %d directions, want several", len(got))
	}
	for i, d := range got {
		want := p.seq[i%2]
		if d != want {
			t.Errorf("tick %d = %v, want %v", i, d, want)
		}
	}
}

func TestNewLoop_DefaultTick(t *testing.T) {
	l := NewLoop(&scriptedPoller{seq: []detector.Direction{detector.Center}}, 0)
	if l.tick != DefaultTick {
		t.Errorf("tick = %v, want %v", l.tick, DefaultTick)
	}
}
