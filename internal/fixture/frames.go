// Package fixture builds synthetic camera frames for tests.
package fixture

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
)

// Frame colors in BGR order.
var (
	Gray  = gocv.NewScalar(128, 128, 128, 0)
	Blue  = gocv.NewScalar(255, 0, 0, 0)
	Black = gocv.NewScalar(0, 0, 0, 0)
)

// SolidFrame returns a BGR frame filled with c.
func SolidFrame(width, height int, c gocv.Scalar) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(c, height, width, gocv.MatTypeCV8UC3)
}

// TargetFrame returns a gray BGR frame with a filled blue rectangle, the
// color the object detector tracks by default.
func TargetFrame(width, height int, target image.Rectangle) gocv.Mat {
	frame := SolidFrame(width, height, Gray)
	gocv.Rectangle(&frame, target, color.RGBA{B: 255, A: 255}, -1)
	return frame
}

// TextureFrame returns a BGR frame of smooth two dimensional sinusoidal
// texture, shifted right by shift pixels. Consecutive shifts simulate
// horizontal motion in front of the camera.
func TextureFrame(width, height, shift int) gocv.Mat {
	const period = 32.0

	frame := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	for y := 0; y < height; y++ {
		sy := math.Sin(2 * math.Pi * float64(y) / period)
		for x := 0; x < width; x++ {
			sx := math.Sin(2 * math.Pi * float64(x-shift) / period)
			v := uint8(128 + 60*sx + 40*sx*sy)
			for ch := 0; ch < 3; ch++ {
				frame.SetUCharAt(y, x*3+ch, v)
			}
		}
	}
	return frame
}

// Mask returns an empty single channel mask.
func Mask(width, height int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(Black, height, width, gocv.MatTypeCV8UC1)
}

// FillRect sets mask pixels with x0<=x<=x1 and y0<=y<=y1 to 255. The
// resulting external contour encloses (x1-x0)*(y1-y0) square pixels.
func FillRect(mask *gocv.Mat, x0, y0, x1, y1 int) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			mask.SetUCharAt(y, x, 255)
		}
	}
}

// Close releases every frame.
func Close(frames ...*gocv.Mat) {
	for _, f := range frames {
		if f != nil {
			f.Close()
		}
	}
}
