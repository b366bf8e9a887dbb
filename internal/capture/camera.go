// Package capture provides camera capture functionality using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Default camera settings
const (
	DefaultFPS    = 20
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrDeviceUnavailable is returned when the device does not exist or is held by another session.
	ErrDeviceUnavailable = errors.New("camera device unavailable")
	// ErrCapture is returned when a frame read fails on an open device.
	ErrCapture = errors.New("frame capture failed")
)

// Camera defines the interface for camera capture implementations.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// held tracks device indices opened by this process. A device is owned by
// at most one Camera at a time.
var (
	heldMu sync.Mutex
	held   = make(map[int]bool)
)

func claimDevice(id int) bool {
	heldMu.Lock()
	defer heldMu.Unlock()

	if held[id] {
		return false
	}
	held[id] = true
	return true
}

func releaseDevice(id int) {
	heldMu.Lock()
	defer heldMu.Unlock()
	delete(held, id)
}

// cameraImpl manages video capture from a camera device using GoCV.
type cameraImpl struct {
	deviceID int
	capture  *gocv.VideoCapture
	mu       sync.Mutex
	running  bool
	fps      int
}

// NewCamera creates a new Camera with the given device ID.
func NewCamera(deviceID int) Camera {
	return &cameraImpl{
		deviceID: deviceID,
		fps:      DefaultFPS,
	}
}

// Open acquires the device exclusively and requests 640x480 frames.
// Opening an already open camera is a no-op.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	if !claimDevice(c.deviceID) {
		return fmt.Errorf("device %d already in use: %w", c.deviceID, ErrDeviceUnavailable)
	}

	capture, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		releaseDevice(c.deviceID)
		return fmt.Errorf("open device %d: %v: %w", c.deviceID, err, ErrDeviceUnavailable)
	}
	if !capture.IsOpened() {
		capture.Close()
		releaseDevice(c.deviceID)
		return fmt.Errorf("device %d not found: %w", c.deviceID, ErrDeviceUnavailable)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, DefaultWidth)
	capture.Set(gocv.VideoCaptureFrameHeight, DefaultHeight)
	capture.Set(gocv.VideoCaptureFPS, float64(c.fps))

	c.capture = capture
	c.running = true

	return nil
}

// Close releases the device. Closing a camera that is not open returns nil.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false
	releaseDevice(c.deviceID)

	return err
}

// ReadFrame blocks until the device delivers a frame.
// The caller is responsible for closing the returned Mat.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, fmt.Errorf("read from device %d: %w", c.deviceID, ErrCapture)
	}

	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("empty frame from device %d: %w", c.deviceID, ErrCapture)
	}

	return &mat, nil
}

// SetFPS sets the frames per second for capture.
// Values less than or equal to 0 are ignored.
func (c *cameraImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps

	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current frames per second setting.
func (c *cameraImpl) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fps
}

// IsOpen returns true if the camera is currently open and running.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
