package joystick

import (
	"errors"

	"gocv.io/x/gocv"

	"github.com/ayusman/camstick/internal/detector"
)

// multiPreview shows every frame on each of its previews in order.
type multiPreview []Preview

// Previews combines several previews into one. Nil entries are skipped and
// a single preview is returned unwrapped.
func Previews(ps ...Preview) Preview {
	var out multiPreview
	for _, p := range ps {
		if p != nil {
			out = append(out, p)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return out
}

func (m multiPreview) Show(frame gocv.Mat, d detector.Direction) {
	for _, p := range m {
		p.Show(frame, d)
	}
}

func (m multiPreview) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
