package subtitle

import (
	"errors"
	"fmt"
)

// Kind classifies engine failures for the presentation layer.
type Kind string

const (
	KindUnsupportedFormat Kind = "unsupported_format"
	KindDecode            Kind = "decode"
	KindParse             Kind = "parse"
	KindInvalidFPS        Kind = "invalid_fps"
	KindFPSTimeout        Kind = "fps_timeout"
	KindCodecChange       Kind = "codec_change"
	KindFileNotFound      Kind = "file_not_found"
	KindAccessDenied      Kind = "access_denied"
	KindUnknown           Kind = "unknown"
)

// Error is a categorised engine failure with an optional detail such as the
// offending codec name or path.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the Err* sentinels work with
// errors.Is regardless of detail.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrUnsupportedFormat = &Error{Kind: KindUnsupportedFormat}
	ErrDecode            = &Error{Kind: KindDecode}
	ErrParse             = &Error{Kind: KindParse}
	ErrInvalidFPS        = &Error{Kind: KindInvalidFPS}
	ErrFPSTimeout        = &Error{Kind: KindFPSTimeout}
	ErrCodecChange       = &Error{Kind: KindCodecChange}
	ErrFileNotFound      = &Error{Kind: KindFileNotFound}
	ErrAccessDenied      = &Error{Kind: KindAccessDenied}
	ErrUnknown           = &Error{Kind: KindUnknown}
)

// Engine state errors. These are not load failures and carry no Kind.
var (
	ErrLoadInProgress = errors.New("another subtitle load is in progress")
	ErrNoPendingLoad  = errors.New("no load is waiting for a frame rate")
	ErrNoDocument     = errors.New("no subtitle loaded")
)

func newError(kind Kind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

func errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// KindOf returns the category of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// DetailOf returns the detail string of a categorised error.
func DetailOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Detail
	}
	return ""
}
