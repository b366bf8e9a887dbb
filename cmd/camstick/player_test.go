package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/camstick/internal/capture"
	"github.com/ayusman/camstick/internal/detector"
	"github.com/ayusman/camstick/internal/joystick"
)

type fakeSession struct {
	mu      sync.Mutex
	openErr error
	opens   int
	closes  int
	polls   int
	open    bool
}

func (f *fakeSession) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return f.openErr
	}
	f.opens++
	f.open = true
	return nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	f.open = false
	return nil
}

func (f *fakeSession) Poll() detector.Direction {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	return detector.Left
}

func (f *fakeSession) Stats() joystick.Stats {
	return joystick.Stats{ID: "test", OpenedAt: time.Now()}
}

func (f *fakeSession) counts() (opens, closes, polls int, open bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens, f.closes, f.polls, f.open
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPlayer_Play(t *testing.T) {
	s := &fakeSession{}
	var sunk int
	p := &player{session: s, tick: 5 * time.Millisecond, sinks: []func(detector.Direction){
		func(detector.Direction) { sunk++ },
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	if err := p.play(ctx); err != nil {
		t.Fatalf("play() error = %v", err)
	}

	opens, closes, polls, open := s.counts()
	if opens != 1 || closes != 1 || open {
		t.Errorf("opens=%d closes=%d open=%v, want one full round", opens, closes, open)
	}
	if polls == 0 || sunk != polls {
		t.Errorf("polls=%d sunk=%d, want every poll sunk", polls, sunk)
	}
}

func TestPlayer_PlayNoCamera(t *testing.T) {
	s := &fakeSession{openErr: capture.ErrDeviceUnavailable}
	p := &player{session: s, tick: time.Millisecond}

	err := p.play(context.Background())
	if !errors.Is(err, capture.ErrDeviceUnavailable) {
		t.Errorf("play() error = %v, want ErrDeviceUnavailable", err)
	}
	if _, closes, polls, _ := s.counts(); closes != 0 || polls != 0 {
		t.Error("a round that never opened should not poll or close")
	}
}

func TestPlayer_Serve(t *testing.T) {
	s := &fakeSession{}
	p := &player{session: s, tick: 5 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	toggles := make(chan bool)
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.serve(ctx, toggles, nil)
	}()

	toggles <- true
	waitFor(t, func() bool { _, _, polls, _ := s.counts(); return polls > 0 })

	// A second start while playing is ignored.
	toggles <- true
	toggles <- false
	waitFor(t, func() bool { _, closes, _, _ := s.counts(); return closes == 1 })

	toggles <- true
	waitFor(t, func() bool { opens, _, _, _ := s.counts(); return opens == 2 })

	cancel()
	<-done

	opens, closes, _, open := s.counts()
	if opens != 2 || closes != 2 || open {
		t.Errorf("opens=%d closes=%d open=%v, want two closed rounds", opens, closes, open)
	}
}

func TestPlayer_ServeReportsFailure(t *testing.T) {
	s := &fakeSession{openErr: capture.ErrDeviceUnavailable}
	p := &player{session: s, tick: time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	failures := make(chan error, 2)
	toggles := make(chan bool)
	go p.serve(ctx, toggles, func(err error) { failures <- err })

	toggles <- true
	select {
	case err := <-failures:
		if !errors.Is(err, capture.ErrDeviceUnavailable) {
			t.Errorf("failure = %v, want ErrDeviceUnavailable", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("failure not reported")
	}

	// After a failed round a new start is accepted again.
	toggles <- true
	select {
	case <-failures:
	case <-time.After(2 * time.Second):
		t.Fatal("second start not attempted")
	}
}
