package main

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/ayusman/camstick/internal/detector"
	"github.com/ayusman/camstick/internal/joystick"
)

// roundPoller is the part of a joystick session a round needs.
type roundPoller interface {
	joystick.Poller
	Open() error
	Close() error
	Stats() joystick.Stats
}

// player runs game rounds against a session: open, poll every tick until
// stopped, close.
type player struct {
	session roundPoller
	tick    time.Duration
	sinks   []func(detector.Direction)
}

// play runs one round until ctx is done.
func (p *player) play(ctx context.Context) error {
	if err := p.session.Open(); err != nil {
		return err
	}

	joystick.NewLoop(p.session, p.tick, p.sinks...).Run(ctx)

	err := p.session.Close()
	st := p.session.Stats()
	log.Printf("[%s] round over after %v: %d left, %d right, %d center",
		st.ID, time.Since(st.OpenedAt).Round(time.Second), st.Left, st.Right, st.Center)
	return err
}

// serve starts a round on every true from toggles and stops it on false,
// until ctx is done. Errors from a round are passed to failed.
func (p *player) serve(ctx context.Context, toggles <-chan bool, failed func(error)) {
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	stopRound := func() {
		if cancel == nil {
			return
		}
		cancel()
		<-done
		cancel, done = nil, nil
	}
	defer stopRound()

	for {
		select {
		case <-ctx.Done():
			return

		case <-done:
			cancel()
			cancel, done = nil, nil

		case active := <-toggles:
			if !active {
				stopRound()
				continue
			}
			if cancel != nil {
				select {
				case <-done:
					cancel()
				default:
					continue
				}
			}

			roundCtx, c := context.WithCancel(ctx)
			ch := make(chan struct{})
			cancel, done = c, ch

			go func() {
				err := p.play(roundCtx)
				close(ch)
				if err != nil && failed != nil {
					failed(err)
				}
			}()
		}
	}
}

// previewURL returns the MJPEG preview address for a listen address.
func previewURL(addr string) string {
	host := addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	return "http://" + host + "/api/stream"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	return nil
}
