package vision

import (
	"errors"
	"image"
	"math"

	"gocv.io/x/gocv"
)

// ErrDegenerateContour is returned for a contour that encloses no area,
// such as a single point or a one pixel wide line.
var ErrDegenerateContour = errors.New("contour has zero area")

// HSVRange is an inclusive hue/saturation/value band.
type HSVRange struct {
	Lower gocv.Scalar
	Upper gocv.Scalar
}

// DefaultHSVRange matches a saturated blue target: hue 90-130, saturation
// 80-255, any value.
func DefaultHSVRange() HSVRange {
	return HSVRange{
		Lower: gocv.NewScalar(90, 80, 0, 0),
		Upper: gocv.NewScalar(130, 255, 255, 0),
	}
}

// Contour is a closed boundary as an ordered list of pixel positions.
type Contour []image.Point

// Moments holds the spatial moments of a contour polygon up to first order.
type Moments struct {
	M00 float64
	M10 float64
	M01 float64
}

// Moments computes the polygon moments with Green's theorem, normalised so
// that M00 is the non-negative enclosed area regardless of orientation.
func (c Contour) Moments() Moments {
	if len(c) < 3 {
		return Moments{}
	}

	var a00, a10, a01 float64
	for i := range c {
		p := c[i]
		q := c[(i+1)%len(c)]
		xi, yi := float64(p.X), float64(p.Y)
		xj, yj := float64(q.X), float64(q.Y)

		a := xi*yj - xj*yi
		a00 += a
		a10 += a * (xi + xj)
		a01 += a * (yi + yj)
	}

	if math.Abs(a00) <= math.SmallestNonzeroFloat32 {
		return Moments{}
	}

	sign := 1.0
	if a00 < 0 {
		sign = -1.0
	}

	return Moments{
		M00: sign * a00 / 2,
		M10: sign * a10 / 6,
		M01: sign * a01 / 6,
	}
}

// Area returns the enclosed polygon area.
func (c Contour) Area() float64 {
	return c.Moments().M00
}

// Centroid returns (M10/M00, M01/M00) truncated to whole pixels.
func (c Contour) Centroid() (image.Point, error) {
	m := c.Moments()
	if m.M00 == 0 {
		return image.Point{}, ErrDegenerateContour
	}
	return image.Pt(int(m.M10/m.M00), int(m.M01/m.M00)), nil
}

// LargestContour returns the contour with the largest enclosed area and its
// index, keeping the first on ties. It returns index -1 when there are none.
func LargestContour(contours gocv.PointsVector) (Contour, int) {
	best := -1
	maxArea := -1.0

	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area > maxArea {
			maxArea = area
			best = i
		}
	}

	if best < 0 {
		return nil, -1
	}
	return Contour(contours.At(best).ToPoints()), best
}

// Measurement is the result of looking for the target in one frame.
type Measurement struct {
	Found    bool
	Centroid image.Point
	Contour  Contour
	Area     float64
}

// NoObject is the measurement reported when no usable target is visible.
var NoObject = Measurement{}

// ObjectSegmenter locates the dominant region of a target color.
type ObjectSegmenter struct {
	Range HSVRange
}

// NewObjectSegmenter returns a segmenter for DefaultHSVRange.
func NewObjectSegmenter() ObjectSegmenter {
	return ObjectSegmenter{Range: DefaultHSVRange()}
}

// Mask thresholds an HSV frame to 255 inside the band and 0 outside.
// The caller owns the returned Mat.
func (s ObjectSegmenter) Mask(hsv gocv.Mat) gocv.Mat {
	mask := gocv.NewMat()
	gocv.InRangeWithScalar(hsv, s.Range.Lower, s.Range.Upper, &mask)
	return mask
}

// Measure masks the HSV frame and measures the largest matching region.
func (s ObjectSegmenter) Measure(hsv gocv.Mat) Measurement {
	mask := s.Mask(hsv)
	defer mask.Close()

	return MeasureMask(mask)
}

// MeasureMask measures the largest external contour of a binary mask.
// Smaller regions are ignored. A degenerate winner yields NoObject.
func MeasureMask(mask gocv.Mat) Measurement {
	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxNone)
	defer contours.Close()

	contour, idx := LargestContour(contours)
	if idx < 0 {
		return NoObject
	}

	centroid, err := contour.Centroid()
	if err != nil {
		return NoObject
	}

	return Measurement{
		Found:    true,
		Centroid: centroid,
		Contour:  contour,
		Area:     contour.Area(),
	}
}
