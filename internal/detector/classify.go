package detector

import "github.com/ayusman/camstick/internal/vision"

// Classification constants.
const (
	// VoteFloor is the minimum number of pixels a side needs before its
	// votes count. Anything below it is background flicker.
	VoteFloor = 300
	// CenterOffset shifts the left/right dividing line for the object
	// detector towards the left edge.
	CenterOffset = 25
)

// ClassifyVotes clamps each side below floor to zero and picks the side with
// more votes. Ties, including no votes at all, are Center.
func ClassifyVotes(v vision.Votes, floor int) Direction {
	left, right := v.Left, v.Right
	if left < floor {
		left = 0
	}
	if right < floor {
		right = 0
	}

	switch {
	case left > right:
		return Left
	case right > left:
		return Right
	default:
		return Center
	}
}

// DividingLine returns the column separating left from right for a frame
// of the given height.
//
// The line is derived from the frame height, not its width. On a 640x480
// camera that puts it at x=215 rather than near the middle. This is the
// established behavior players have calibrated against and is kept as is.
func DividingLine(frameHeight, offset int) float64 {
	return float64(frameHeight)/2 - float64(offset)
}

// ClassifyCentroid places a measured target relative to DividingLine.
// A missing target is Center, as is a centroid exactly on the line.
func ClassifyCentroid(m vision.Measurement, frameHeight, offset int) Direction {
	if !m.Found {
		return Center
	}

	line := DividingLine(frameHeight, offset)
	x := float64(m.Centroid.X)

	switch {
	case x < line:
		return Left
	case x > line:
		return Right
	default:
		return Center
	}
}
