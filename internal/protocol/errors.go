package protocol

import "errors"

var (
	ErrMalformed       = errors.New("protocol: malformed")
	ErrIntegrity       = errors.New("protocol: integrity failure")
	ErrTruncated       = errors.New("protocol: truncated data")
	ErrUnknownCommand  = errors.New("protocol: unknown command")
	ErrEmptyBuffer     = errors.New("protocol: empty buffer")
	ErrNotBatch        = errors.New("protocol: not a batch frame")
	ErrPayloadTooLarge = errors.New("protocol: payload too large")
)

// Kind returns a stable label for err suitable for log fields and metric labels.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrIntegrity):
		return "integrity"
	case errors.Is(err, ErrTruncated):
		return "truncated"
	case errors.Is(err, ErrUnknownCommand):
		return "unknown_command"
	case errors.Is(err, ErrEmptyBuffer):
		return "empty"
	case errors.Is(err, ErrNotBatch):
		return "not_batch"
	case errors.Is(err, ErrPayloadTooLarge):
		return "too_large"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	default:
		return "other"
	}
}
