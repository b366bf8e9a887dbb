// Package tray provides a system tray control for starting and stopping the
// camera joystick.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/camstick/internal/detector"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle  func(active bool)
	onPreview func()
	onQuit    func()
	active    bool
	last      detector.Direction
	mu        sync.RWMutex

	// Menu items stored for later updates
	menuToggle    *systray.MenuItem
	menuDirection *systray.MenuItem
}

// New creates a new Tray in the idle state.
func New() *Tray {
	return &Tray{}
}

// OnToggle sets the callback invoked when play is started or stopped.
func (t *Tray) OnToggle(fn func(active bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnPreview sets the callback invoked when the preview menu item is clicked.
func (t *Tray) OnPreview(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPreview = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit stops a running tray.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Camstick")
	systray.SetTooltip("Camera joystick")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.active), "Start or stop reading the camera")
	systray.AddSeparator()

	t.menuDirection = systray.AddMenuItem(directionTitle(t.last), "Last reported direction")
	t.menuDirection.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuPreview := systray.AddMenuItem("Open Preview...", "Open the live preview in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Camstick")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuPreview.ClickedCh:
				t.handlePreview()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleToggle flips between playing and idle.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.active = !t.active
	active := t.active
	if !active {
		t.last = detector.Center
	}

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(active))
	}
	if t.menuDirection != nil {
		t.menuDirection.SetTitle(directionTitle(t.last))
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(active)
	}
}

func (t *Tray) handlePreview() {
	t.mu.RLock()
	callback := t.onPreview
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// SetDirection updates the last direction shown in the menu. It has the
// signature of a joystick loop sink.
func (t *Tray) SetDirection(d detector.Direction) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if d == t.last {
		return
	}
	t.last = d

	if t.menuDirection != nil {
		t.menuDirection.SetTitle(directionTitle(d))
	}
}

// SetActive records the play state without invoking the toggle callback,
// for when play is started or stopped from elsewhere.
func (t *Tray) SetActive(active bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.active = active
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(active))
	}
}

// IsActive reports whether play is running.
func (t *Tray) IsActive() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active
}

// LastDirection returns the last direction passed to SetDirection.
func (t *Tray) LastDirection() detector.Direction {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

func toggleTitle(active bool) string {
	if active {
		return "■ Stop"
	}
	return "▶ Play"
}

func directionTitle(d detector.Direction) string {
	return "Last: " + d.String()
}
