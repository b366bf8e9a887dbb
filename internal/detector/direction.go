package detector

import (
	"fmt"
	"strings"
)

// Direction is the signal handed to the paddle controller once per tick.
type Direction int

const (
	// Center is the neutral signal, reported whenever nothing reliable is seen.
	Center Direction = iota
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "LEFT"
	case Right:
		return "RIGHT"
	default:
		return "CENTER"
	}
}

// MarshalText encodes the direction as its upper case name.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText, in any case.
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDirection parses LEFT, RIGHT or CENTER.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LEFT":
		return Left, nil
	case "RIGHT":
		return Right, nil
	case "CENTER":
		return Center, nil
	}
	return Center, fmt.Errorf("unknown direction %q", s)
}
