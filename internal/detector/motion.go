package detector

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/camstick/internal/vision"
)

// MotionConfig holds the tuning for the optical flow strategy.
type MotionConfig struct {
	// BlurKernel is the Gaussian kernel size applied before flow (25x25).
	BlurKernel int
	Flow       vision.FlowParams
	// Threshold is the per-pixel horizontal displacement needed to vote.
	Threshold float32
	// VoteFloor is the minimum votes a side needs to count.
	VoteFloor int
}

// DefaultMotionConfig returns the tuned low latency settings.
func DefaultMotionConfig() MotionConfig {
	return MotionConfig{
		BlurKernel: vision.BlurKernelSize,
		Flow:       vision.DefaultFlowParams(),
		Threshold:  vision.FlowThreshold,
		VoteFloor:  VoteFloor,
	}
}

// MotionDetector classifies net horizontal movement between consecutive
// frames using dense optical flow.
//
// Algorithm:
// 1. Blur the frame (25x25) and convert to grayscale
// 2. If no previous frame is held, keep this one and return Center
// 3. Compute Farneback flow from the previous frame to this one
// 4. Count pixels with dx < -2 (left) and dx > 2 (right)
// 5. Clamp counts below 300 to zero and return the larger side
// 6. Keep this frame as the previous one
type MotionDetector struct {
	cfg       MotionConfig
	estimator vision.MotionEstimator
	state     vision.FlowState
	last      vision.Votes
	mu        sync.Mutex
}

// NewMotionDetector creates an unprimed MotionDetector.
func NewMotionDetector(cfg MotionConfig) *MotionDetector {
	return &MotionDetector{
		cfg: cfg,
		estimator: vision.MotionEstimator{
			Params:    cfg.Flow,
			Threshold: cfg.Threshold,
		},
	}
}

// Prime replaces the previous frame with frame.
func (m *MotionDetector) Prime(frame gocv.Mat) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame.Empty() {
		return
	}

	gray := vision.BlurredGrayWithKernel(frame, m.cfg.BlurKernel)
	defer gray.Close()

	m.state.Close()
	m.state = vision.SeedFlowState(gray)
	m.last = vision.Votes{}
}

// Detect measures motion since the previous frame and classifies it.
func (m *MotionDetector) Detect(frame gocv.Mat) (Direction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame.Empty() {
		return Center, fmt.Errorf("empty frame")
	}

	gray := vision.BlurredGrayWithKernel(frame, m.cfg.BlurKernel)
	defer gray.Close()

	votes, state, err := m.estimator.Measure(m.state, gray)
	m.state = state
	m.last = votes
	if err != nil {
		return Center, fmt.Errorf("measure flow: %w", err)
	}

	return ClassifyVotes(votes, m.cfg.VoteFloor), nil
}

// Votes returns the raw votes of the last Detect call.
func (m *MotionDetector) Votes() vision.Votes {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Primed reports whether a previous frame is held.
func (m *MotionDetector) Primed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Primed()
}

// Annotate writes the last vote counts onto img.
func (m *MotionDetector) Annotate(img *gocv.Mat) {
	m.mu.Lock()
	votes := m.last
	m.mu.Unlock()

	text := fmt.Sprintf("L %d  R %d", votes.Left, votes.Right)
	gocv.PutText(img, text, image.Pt(10, 24), gocv.FontHersheySimplex, 0.7, color.RGBA{G: 255, A: 255}, 2)
}

// Reset clears the previous frame so the next frame becomes the new baseline.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Close()
	m.state = vision.FlowState{}
	m.last = vision.Votes{}
}

// Close releases the previous frame. It is safe to call more than once.
func (m *MotionDetector) Close() error {
	m.Reset()
	return nil
}
