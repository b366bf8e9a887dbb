package detector

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/camstick/internal/vision"
)

// ObjectConfig holds the tuning for the colored object strategy.
type ObjectConfig struct {
	BlurKernel   int
	Range        vision.HSVRange
	CenterOffset int
}

// DefaultObjectConfig tracks a saturated blue object.
func DefaultObjectConfig() ObjectConfig {
	return ObjectConfig{
		BlurKernel:   vision.BlurKernelSize,
		Range:        vision.DefaultHSVRange(),
		CenterOffset: CenterOffset,
	}
}

// ObjectDetector classifies the horizontal position of the largest region
// matching a color band. It keeps no state between frames apart from the
// last measurement, which is only used for previews.
type ObjectDetector struct {
	cfg        ObjectConfig
	segmenter  vision.ObjectSegmenter
	last       vision.Measurement
	lastHeight int
	mu         sync.Mutex
}

// NewObjectDetector creates an ObjectDetector.
func NewObjectDetector(cfg ObjectConfig) *ObjectDetector {
	return &ObjectDetector{
		cfg:       cfg,
		segmenter: vision.ObjectSegmenter{Range: cfg.Range},
	}
}

// Prime is a no-op; each frame is classified on its own.
func (o *ObjectDetector) Prime(frame gocv.Mat) {}

// Detect locates the target and classifies its centroid.
func (o *ObjectDetector) Detect(frame gocv.Mat) (Direction, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if frame.Empty() {
		o.last = vision.NoObject
		return Center, fmt.Errorf("empty frame")
	}

	hsv := vision.BlurredHSVWithKernel(frame, o.cfg.BlurKernel)
	defer hsv.Close()

	o.last = o.segmenter.Measure(hsv)
	o.lastHeight = frame.Rows()

	return ClassifyCentroid(o.last, o.lastHeight, o.cfg.CenterOffset), nil
}

// Measurement returns the result of the last Detect call.
func (o *ObjectDetector) Measurement() vision.Measurement {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

// Annotate fills the selected contour in green and marks the dividing line.
func (o *ObjectDetector) Annotate(img *gocv.Mat) {
	o.mu.Lock()
	m := o.last
	height := o.lastHeight
	o.mu.Unlock()

	if height > 0 {
		x := int(DividingLine(height, o.cfg.CenterOffset))
		gocv.Line(img, image.Pt(x, 0), image.Pt(x, img.Rows()), color.RGBA{R: 255, A: 255}, 1)
	}

	if !m.Found {
		return
	}

	contours := gocv.NewPointsVectorFromPoints([][]image.Point{m.Contour})
	defer contours.Close()

	gocv.DrawContours(img, contours, 0, color.RGBA{G: 255, A: 255}, -1)
	gocv.Circle(img, m.Centroid, 4, color.RGBA{R: 255, A: 255}, -1)
}

// Reset forgets the last measurement.
func (o *ObjectDetector) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.last = vision.NoObject
	o.lastHeight = 0
}

// Close is equivalent to Reset.
func (o *ObjectDetector) Close() error {
	o.Reset()
	return nil
}
