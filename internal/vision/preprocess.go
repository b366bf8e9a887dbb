// Package vision implements the image processing behind the camera joystick:
// frame preprocessing, dense optical flow voting and colored object segmentation.
package vision

import (
	"image"

	"gocv.io/x/gocv"
)

// BlurKernelSize is the Gaussian kernel edge length used before any measurement.
const BlurKernelSize = 25

// blur applies the square Gaussian kernel with sigma derived from its size.
func blur(src gocv.Mat, ksize int) gocv.Mat {
	dst := gocv.NewMat()
	gocv.GaussianBlur(src, &dst, image.Pt(ksize, ksize), 0, 0, gocv.BorderDefault)
	return dst
}

// BlurredGray blurs a BGR frame and converts it to single channel intensity.
// The caller owns the returned Mat.
func BlurredGray(frame gocv.Mat) gocv.Mat {
	return BlurredGrayWithKernel(frame, BlurKernelSize)
}

// BlurredGrayWithKernel is BlurredGray with an explicit kernel size.
// Frames that are already single channel are only blurred.
func BlurredGrayWithKernel(frame gocv.Mat, ksize int) gocv.Mat {
	blurred := blur(frame, ksize)
	if frame.Channels() == 1 {
		return blurred
	}
	defer blurred.Close()

	gray := gocv.NewMat()
	gocv.CvtColor(blurred, &gray, gocv.ColorBGRToGray)
	return gray
}

// BlurredHSV blurs a BGR frame and converts it to hue-saturation-value.
// The caller owns the returned Mat.
func BlurredHSV(frame gocv.Mat) gocv.Mat {
	return BlurredHSVWithKernel(frame, BlurKernelSize)
}

// BlurredHSVWithKernel is BlurredHSV with an explicit kernel size.
func BlurredHSVWithKernel(frame gocv.Mat, ksize int) gocv.Mat {
	blurred := blur(frame, ksize)
	defer blurred.Close()

	hsv := gocv.NewMat()
	gocv.CvtColor(blurred, &hsv, gocv.ColorBGRToHSV)
	return hsv
}
