package session

import "fmt"

// ImageLoadError reports a source fetch or decode failure. The page stays
// open but empty; the operation is not retried automatically.
type ImageLoadError struct {
	URL string
	Err error
}

func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("load page image %s: %v", e.URL, e.Err)
}

func (e *ImageLoadError) Unwrap() error { return e.Err }

// SurfaceInitError reports that the editing surface could not be created,
// typically because the container has no usable area.
type SurfaceInitError struct {
	Reason string
}

func (e *SurfaceInitError) Error() string {
	return fmt.Sprintf("init editing surface: %s", e.Reason)
}

// SerializationError reports a failed history snapshot. The mutation that
// triggered it stands in the live scene; history skips one entry.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialize scene snapshot: %v", e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }
