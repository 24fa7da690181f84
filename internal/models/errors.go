package models

import "errors"

var (
	ErrInvalidPath               = errors.New("invalid upload path")
	ErrInvalidRequest            = errors.New("invalid request")
	ErrUnsupportedFormat         = errors.New("unsupported file format")
	ErrMalformedGenerationOutput = errors.New("malformed generation output")
	ErrNotFound                  = errors.New("not found")
	ErrTimeout                   = errors.New("timeout")
	ErrUpstreamUnavailable       = errors.New("upstream unavailable")
)

// ErrorKind returns the short taxonomy name for err, used in error frames and logs.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidPath):
		return "invalid_path"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrMalformedGenerationOutput):
		return "malformed_generation_output"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrUpstreamUnavailable):
		return "upstream_unavailable"
	default:
		return "internal"
	}
}
