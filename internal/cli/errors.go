package cli

import (
	"errors"

	"github.com/mgpai22/subsail/internal/subtitle"
)

// describeError turns engine failures into the short messages shown to the user.
func describeError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, subtitle.ErrLoadInProgress):
		return "Another subtitle is still loading"
	case errors.Is(err, subtitle.ErrNoDocument):
		return "No subtitle loaded"
	}

	detail := subtitle.DetailOf(err)
	switch subtitle.KindOf(err) {
	case subtitle.KindUnsupportedFormat:
		return "Subtitle type not supported"
	case subtitle.KindDecode:
		return "Failed to decode file"
	case subtitle.KindParse:
		return "Failed to parse file"
	case subtitle.KindFileNotFound:
		return "File not found"
	case subtitle.KindAccessDenied:
		return "File access denied"
	case subtitle.KindInvalidFPS:
		return "Invalid FPS value"
	case subtitle.KindFPSTimeout:
		return "FPS change timer overflow"
	case subtitle.KindCodecChange:
		if detail != "" {
			return detail
		}
		return "Invalid codec"
	default:
		return "Unknown error"
	}
}

// userError keeps the wrapped error for logging but prints the short message.
type userError struct {
	err error
}

func (e *userError) Error() string {
	msg := describeError(e.err)
	if detail := subtitle.DetailOf(e.err); detail != "" && detail != msg {
		return msg + ": " + detail
	}
	return msg
}

func (e *userError) Unwrap() error { return e.err }

// friendly wraps engine errors; anything else is returned unchanged.
func friendly(err error) error {
	var se *subtitle.Error
	if err == nil {
		return nil
	}
	if !errors.As(err, &se) && !errors.Is(err, subtitle.ErrLoadInProgress) && !errors.Is(err, subtitle.ErrNoDocument) {
		return err
	}
	if logger != nil {
		logger.Debugw("command failed", "error", err)
	}
	return &userError{err: err}
}

// userMessage is the one-line text shown for err.
func userMessage(err error) string {
	if err == nil {
		return ""
	}
	return friendly(err).Error()
}
