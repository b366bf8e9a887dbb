package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/ayusman/camstick/internal/capture"
	"github.com/ayusman/camstick/internal/detector"
	"github.com/ayusman/camstick/internal/joystick"
	"github.com/ayusman/camstick/internal/preview"
	"github.com/ayusman/camstick/internal/server"
	"github.com/ayusman/camstick/internal/store"
	"github.com/ayusman/camstick/internal/tray"
)

// OpenCV windows must be created, pumped and destroyed on one OS thread.
// The main goroutine is pinned to the main thread, and the preview window
// is only driven from it.
func init() {
	runtime.LockOSThread()
}

func main() {
	fmt.Println("Camstick - Camera Joystick")

	fs := flag.NewFlagSet("camstick", flag.ExitOnError)
	opts := defaultOptions()
	opts.register(fs)
	fs.Parse(os.Args[1:])

	if opts.db == "" {
		dbPath, err := defaultDBPath()
		if err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
		opts.db = dbPath
	}

	st, err := store.New(opts.db)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	settings := st.Settings()
	if err := opts.load(settings, explicitFlags(fs)); err != nil {
		log.Fatalf("Invalid stored settings: %v", err)
	}
	if err := opts.save(settings); err != nil {
		log.Printf("Failed to save settings: %v", err)
	}

	cfg := joystick.DefaultConfig()
	cfg.CameraID = opts.camera
	cfg.Strategy = detector.Strategy(opts.strategy)

	session, err := joystick.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}

	var previews []joystick.Preview
	if opts.useWindow() {
		previews = append(previews, preview.NewWindow(preview.Title(cfg.Strategy)))
	} else if opts.preview {
		log.Printf("Preview window is unavailable with -tray; use the stream at /api/stream instead")
	}

	var hub *server.Hub
	if opts.addr != "" {
		hub = server.NewHub()
		previews = append(previews, hub)
	}
	session.SetPreview(joystick.Previews(previews...))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if hub != nil {
		srv := server.New(server.Config{
			StaticDir: findWebDir(),
			Store:     st,
			Hub:       hub,
		}).HTTPServer(opts.addr)

		go func() {
			fmt.Printf("Starting server on %s\n", opts.addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Server failed: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	p := &player{session: session, tick: opts.tick}

	if !opts.tray {
		// Runs on the locked main thread, where the window lives.
		if err := p.play(ctx); err != nil {
			if errors.Is(err, capture.ErrDeviceUnavailable) {
				log.Fatalf("%v", err)
			}
			log.Printf("Round ended with error: %v", err)
		}
		return
	}

	runTray(ctx, stop, p, opts.addr)
}

// runTray blocks in the tray event loop on the main thread; rounds are
// started and stopped from the menu and run on their own goroutines, so
// they never drive an OpenCV window.
func runTray(ctx context.Context, stop context.CancelFunc, p *player, addr string) {
	tr := tray.New()
	p.sinks = append(p.sinks, tr.SetDirection)

	toggles := make(chan bool, 1)
	tr.OnToggle(func(active bool) { toggles <- active })
	tr.OnQuit(stop)
	if addr != "" {
		tr.OnPreview(func() {
			if err := openBrowser(previewURL(addr)); err != nil {
				log.Printf("Failed to open preview: %v", err)
			}
		})
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.serve(ctx, toggles, func(err error) {
			log.Printf("%v", err)
			tr.SetActive(false)
		})
	}()

	go func() {
		<-ctx.Done()
		tr.Quit()
	}()

	tr.Run()
	stop()
	<-done
}

func defaultDBPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	dbDir := filepath.Join(homeDir, ".camstick")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(dbDir, "camstick.db"), nil
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.camstick/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".camstick", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
