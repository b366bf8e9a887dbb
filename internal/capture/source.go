package capture

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// FrameSource owns a Camera for one session and hands out mirrored frames,
// so that movement on screen matches the user's own left and right.
type FrameSource struct {
	camera Camera
}

// NewFrameSource wraps the given camera.
func NewFrameSource(camera Camera) *FrameSource {
	return &FrameSource{camera: camera}
}

// Open acquires the device. Any failure is reported as ErrDeviceUnavailable.
func (s *FrameSource) Open() error {
	if s.camera.IsOpen() {
		return nil
	}

	if err := s.camera.Open(); err != nil {
		if errors.Is(err, ErrDeviceUnavailable) {
			return err
		}
		return fmt.Errorf("%v: %w", err, ErrDeviceUnavailable)
	}

	return nil
}

// NextFrame blocks until a frame is available and returns it mirrored
// horizontally. Read failures are reported as ErrCapture.
// The caller is responsible for closing the returned Mat.
func (s *FrameSource) NextFrame() (gocv.Mat, error) {
	raw, err := s.camera.ReadFrame()
	if err != nil {
		if errors.Is(err, ErrCapture) {
			return gocv.Mat{}, err
		}
		return gocv.Mat{}, fmt.Errorf("%v: %w", err, ErrCapture)
	}
	defer raw.Close()

	return Mirror(*raw), nil
}

// Close releases the device. It is safe to call when the source was never opened.
func (s *FrameSource) Close() error {
	return s.camera.Close()
}

// IsOpen reports whether the underlying device is held.
func (s *FrameSource) IsOpen() bool {
	return s.camera.IsOpen()
}

// Camera returns the wrapped camera.
func (s *FrameSource) Camera() Camera {
	return s.camera
}

// Mirror returns a horizontally flipped copy of src: output column 0 holds
// input column width-1.
func Mirror(src gocv.Mat) gocv.Mat {
	dst := gocv.NewMat()
	gocv.Flip(src, &dst, 1)
	return dst
}
