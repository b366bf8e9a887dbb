package vision

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Motion voting constants.
const (
	// FlowThreshold is the horizontal displacement, in pixels per frame, a
	// pixel must exceed before it votes for a direction.
	FlowThreshold = 2.0
)

// FlowParams are the Farneback optical flow parameters. The defaults favour
// latency over accuracy: one pyramid level, a small window and one iteration.
type FlowParams struct {
	PyrScale   float64
	Levels     int
	WinSize    int
	Iterations int
	PolyN      int
	PolySigma  float64
}

// DefaultFlowParams returns the tuned low latency parameters.
func DefaultFlowParams() FlowParams {
	return FlowParams{
		PyrScale:   0.5,
		Levels:     1,
		WinSize:    10,
		Iterations: 1,
		PolyN:      5,
		PolySigma:  1.1,
	}
}

// FlowField holds one (dx, dy) displacement per pixel in row-major order.
type FlowField struct {
	Width  int
	Height int
	DX     []float32
	DY     []float32
}

// NewFlowField returns a zero field of the given size.
func NewFlowField(width, height int) FlowField {
	n := width * height
	return FlowField{
		Width:  width,
		Height: height,
		DX:     make([]float32, n),
		DY:     make([]float32, n),
	}
}

// Len returns the number of pixels in the field.
func (f FlowField) Len() int {
	return f.Width * f.Height
}

// At returns the displacement at column x, row y.
func (f FlowField) At(x, y int) (dx, dy float32) {
	i := y*f.Width + x
	return f.DX[i], f.DY[i]
}

// Set stores the displacement at column x, row y.
func (f FlowField) Set(x, y int, dx, dy float32) {
	i := y*f.Width + x
	f.DX[i] = dx
	f.DY[i] = dy
}

// FlowFieldFromMat copies a two channel float32 Mat as produced by
// gocv.CalcOpticalFlowFarneback into a FlowField.
func FlowFieldFromMat(m gocv.Mat) (FlowField, error) {
	if m.Empty() {
		return FlowField{}, fmt.Errorf("flow mat is empty")
	}
	if m.Type() != gocv.MatTypeCV32FC2 {
		return FlowField{}, fmt.Errorf("flow mat type %v, want CV32FC2", m.Type())
	}

	channels := gocv.Split(m)
	defer func() {
		for i := range channels {
			channels[i].Close()
		}
	}()

	f := NewFlowField(m.Cols(), m.Rows())
	for i, dst := range [][]float32{f.DX, f.DY} {
		src, err := channels[i].DataPtrFloat32()
		if err != nil {
			return FlowField{}, fmt.Errorf("read flow channel %d: %w", i, err)
		}
		copy(dst, src)
	}

	return f, nil
}

// Votes counts pixels moving decisively left and right.
type Votes struct {
	Left  int
	Right int
}

// CountVotes counts pixels whose horizontal displacement is strictly below
// -threshold (left) or strictly above +threshold (right).
func CountVotes(f FlowField, threshold float32) Votes {
	var v Votes
	for _, dx := range f.DX {
		switch {
		case dx < -threshold:
			v.Left++
		case dx > threshold:
			v.Right++
		}
	}
	return v
}

// FlowState carries the previous blurred grayscale frame between
// measurements. The zero value is an unprimed state.
type FlowState struct {
	prev   gocv.Mat
	primed bool
}

// SeedFlowState returns a state primed with a copy of gray.
func SeedFlowState(gray gocv.Mat) FlowState {
	return FlowState{prev: gray.Clone(), primed: true}
}

// Primed reports whether a previous frame is held.
func (s FlowState) Primed() bool {
	return s.primed
}

// Close releases the held frame. The state must not be used afterwards.
func (s FlowState) Close() {
	if s.primed {
		s.prev.Close()
	}
}

// MotionEstimator turns consecutive grayscale frames into directional votes.
type MotionEstimator struct {
	Params    FlowParams
	Threshold float32
}

// NewMotionEstimator returns an estimator with the tuned defaults.
func NewMotionEstimator() MotionEstimator {
	return MotionEstimator{
		Params:    DefaultFlowParams(),
		Threshold: FlowThreshold,
	}
}

// Flow computes the dense displacement field from prev to next.
func (e MotionEstimator) Flow(prev, next gocv.Mat) (FlowField, error) {
	flow := gocv.NewMat()
	defer flow.Close()

	p := e.Params
	gocv.CalcOpticalFlowFarneback(prev, next, &flow,
		p.PyrScale, p.Levels, p.WinSize, p.Iterations, p.PolyN, p.PolySigma, 0)

	return FlowFieldFromMat(flow)
}

// Measure votes on the motion between the frame held in state and gray.
// It consumes state and returns its successor, which always holds a copy of
// gray whatever the outcome. An unprimed state, or a frame whose size differs
// from the previous one, yields zero votes.
func (e MotionEstimator) Measure(state FlowState, gray gocv.Mat) (Votes, FlowState, error) {
	next := SeedFlowState(gray)

	if !state.primed {
		return Votes{}, next, nil
	}
	defer state.Close()

	if state.prev.Rows() != gray.Rows() || state.prev.Cols() != gray.Cols() {
		return Votes{}, next, nil
	}

	field, err := e.Flow(state.prev, gray)
	if err != nil {
		return Votes{}, next, err
	}

	return CountVotes(field, e.Threshold), next, nil
}
