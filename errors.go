package imgtobitmap

import "errors"

var (
	// ErrInvalidParameter is returned for an out of range bits per pixel or
	// any other unusable setting
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrSourceNotFound is returned when the source image is missing or
	// cannot be read
	ErrSourceNotFound = errors.New("source not found")
	// ErrDecode is returned when the source is not a supported image
	ErrDecode = errors.New("cannot decode image")
	// ErrWrite is returned when the output cannot be written
	ErrWrite = errors.New("cannot write output")

	errNotDirectory = errors.New("not a directory")
)

// Error records a failed conversion. Use errors.Is with one of the Err
// values above to find out what kind of failure it was.
type Error struct {
	Kind error
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	s := e.Op
	if e.Path != "" {
		s += " " + e.Path
	}
	s += ": " + e.Kind.Error()
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the kind of e.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}
