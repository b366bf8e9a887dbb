package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It returns scripted directions in order and then repeats the last one.
type MockDetector struct {
	directions []Direction
	next       int
	err        error
	primes     int
	resets     int
	detects    int
	mu         sync.Mutex
}

// NewMockDetector creates a MockDetector that returns the given directions.
func NewMockDetector(directions ...Direction) *MockDetector {
	return &MockDetector{directions: directions}
}

// SetDirections replaces the scripted directions.
func (m *MockDetector) SetDirections(directions ...Direction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.directions = directions
	m.next = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockDetector) Prime(frame gocv.Mat) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.primes++
}

// Detect returns the next scripted direction, or Center and the configured error.
func (m *MockDetector) Detect(frame gocv.Mat) (Direction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.detects++
	if m.err != nil {
		return Center, m.err
	}
	if len(m.directions) == 0 {
		return Center, nil
	}

	d := m.directions[m.next]
	if m.next < len(m.directions)-1 {
		m.next++
	}
	return d, nil
}

func (m *MockDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Primes returns how many times Prime was called.
func (m *MockDetector) Primes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.primes
}

// Resets returns how many times Reset was called.
func (m *MockDetector) Resets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets
}

// Detects returns how many times Detect was called.
func (m *MockDetector) Detects() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detects
}
