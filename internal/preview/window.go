// Package preview shows what the joystick sees in a desktop window.
package preview

import (
	"image"
	"image/color"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/camstick/internal/detector"
)

// Window titles per strategy.
const (
	MotionTitle = "Motion Play!"
	ObjectTitle = "Play!"
)

// Title returns the window title used for strategy.
func Title(strategy detector.Strategy) string {
	if strategy == detector.StrategyObject {
		return ObjectTitle
	}
	return MotionTitle
}

// Window is a lazily created OpenCV window. It is opened on the first Show
// after construction or Close, so a session can reopen it on every round.
//
// OpenCV requires windows to be driven from the goroutine that created
// them; Show and Close must be called from the polling goroutine.
type Window struct {
	title  string
	window *gocv.Window
	mu     sync.Mutex
}

// NewWindow creates a closed preview window with the given title.
func NewWindow(title string) *Window {
	return &Window{title: title}
}

// Show displays frame with the direction written in the corner. It waits
// one millisecond for the GUI event loop and never blocks longer.
func (w *Window) Show(frame gocv.Mat, d detector.Direction) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if frame.Empty() {
		return
	}

	if w.window == nil {
		w.window = gocv.NewWindow(w.title)
	}

	img := frame.Clone()
	defer img.Close()

	gocv.PutText(&img, d.String(), image.Pt(10, img.Rows()-12), gocv.FontHersheySimplex, 0.8, color.RGBA{R: 255, G: 255, A: 255}, 2)

	w.window.IMShow(img)
	w.window.WaitKey(1)
}

// Close destroys the window if it is showing. It is safe to call repeatedly.
func (w *Window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.window == nil {
		return nil
	}

	err := w.window.Close()
	w.window = nil
	return err
}

// IsOpen reports whether the window is currently showing.
func (w *Window) IsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.window != nil
}
