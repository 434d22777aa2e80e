//go:build !darwin

package pasteboard

type unsupported struct{}

// Drag returns a Source that reports ErrUnavailable; only macOS exposes a
// dedicated drag pasteboard.
func Drag() Source {
	return unsupported{}
}

func (unsupported) Revision() (int64, error) {
	return 0, ErrUnavailable
}

func (unsupported) Content() (Content, error) {
	return None(), ErrUnavailable
}
