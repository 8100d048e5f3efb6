package imageproc

import "fmt"

// DecodeError means the source image could not be read or decoded.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode source image %q: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// WatermarkLoadError means the watermark image could not be read or decoded.
type WatermarkLoadError struct {
	Path string
	Err  error
}

func (e *WatermarkLoadError) Error() string {
	return fmt.Sprintf("failed to load watermark image %q: %v", e.Path, e.Err)
}

func (e *WatermarkLoadError) Unwrap() error { return e.Err }

// WriteError means the result could not be encoded or persisted.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write result %q: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// FontLoadWarning is returned next to a usable fallback face, never instead of one.
type FontLoadWarning struct {
	Path string
	Err  error
}

func (e *FontLoadWarning) Error() string {
	return fmt.Sprintf("font %q unavailable, using default face: %v", e.Path, e.Err)
}

func (e *FontLoadWarning) Unwrap() error { return e.Err }
