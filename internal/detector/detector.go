// Package detector turns camera frames into a LEFT, RIGHT or CENTER signal
// using one of two interchangeable strategies.
package detector

import (
	"fmt"
	"strings"

	"gocv.io/x/gocv"
)

// Detector defines the interface shared by the direction strategies.
type Detector interface {
	// Prime seeds any state carried between frames from the first frame of
	// a session.
	Prime(frame gocv.Mat)

	// Detect classifies one mirrored BGR frame.
	// The returned direction is Center whenever err is non-nil.
	Detect(frame gocv.Mat) (Direction, error)

	// Reset drops state carried between frames.
	Reset()

	// Close releases any resources held by the detector.
	Close() error
}

// Annotator is implemented by detectors that can draw what they measured
// on the last frame onto a preview image.
type Annotator interface {
	Annotate(img *gocv.Mat)
}

// Strategy selects a Detector implementation.
type Strategy string

const (
	// StrategyMotion votes on dense optical flow between consecutive frames.
	StrategyMotion Strategy = "motion"
	// StrategyObject tracks the centroid of a colored object.
	StrategyObject Strategy = "object"
)

// ParseStrategy parses "motion" or "object".
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyMotion:
		return StrategyMotion, nil
	case StrategyObject:
		return StrategyObject, nil
	}
	return "", fmt.Errorf("unknown strategy %q (want %q or %q)", s, StrategyMotion, StrategyObject)
}

// Config holds configuration for both strategies; only the selected one is used.
type Config struct {
	Motion MotionConfig
	Object ObjectConfig
}

// DefaultConfig returns a Config with the tuned constants for both strategies.
func DefaultConfig() Config {
	return Config{
		Motion: DefaultMotionConfig(),
		Object: DefaultObjectConfig(),
	}
}

// New creates the detector for strategy.
func New(strategy Strategy, cfg Config) (Detector, error) {
	switch strategy {
	case StrategyMotion:
		return NewMotionDetector(cfg.Motion), nil
	case StrategyObject:
		return NewObjectDetector(cfg.Object), nil
	}
	return nil, fmt.Errorf("unknown strategy %q", strategy)
}
