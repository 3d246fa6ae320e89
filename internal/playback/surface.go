package playback

import "errors"

// ErrNoSample is returned by a surface when it has no data this tick
// (transient widget error, metadata not loaded yet). The tracker treats it
// as "no sample", never as a failure.
var ErrNoSample = errors.New("playback: no sample available")

// Surface is the narrow contract every concrete playback backend implements.
// The tracker stays backend-agnostic behind it; anti-skip and accrual policy
// differ only by Provider tag.
type Surface interface {
	// Bind attaches the underlying playback handle. For the polling widget
	// this may complete before the external player script is ready; position
	// queries until then return ErrNoSample.
	Bind() error
	// Position reports the current playback position in seconds.
	Position() (float64, error)
	// Duration reports the media duration in seconds, ErrNoSample while
	// metadata is not yet known.
	Duration() (float64, error)
	// SeekTo moves playback. Used for resume and anti-skip snap-back.
	SeekTo(seconds float64) error
	// Teardown releases the handle. Idempotent.
	Teardown()
}

// WidgetState is the coarse state reported by a polling-widget backend's
// own callback. Values mirror the widget API's state codes.
type WidgetState int

const (
	WidgetEnded WidgetState = iota
	WidgetPlaying
	WidgetPaused
)

// SurfaceFactory constructs the matching surface for a classified video.
// This is the single dispatch point over backend kind.
type SurfaceFactory func(p Provider, ref VideoRef) (Surface, error)
