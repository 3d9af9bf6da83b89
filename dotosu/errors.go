package dotosu

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCode classifies a failed load. The numeric values are stable and are
// stored by callers (e.g. the song index), so never renumber them.
type ErrorCode int

const (
	OK                ErrorCode = 0
	ErrMetadata       ErrorCode = 1 // version too new, unsupported mode or no timing points
	ErrFileUnreadable ErrorCode = 2
	ErrNoTimingPoints ErrorCode = 3
	ErrNoHitObjects   ErrorCode = 4
	ErrTooManyObjects ErrorCode = 5 // hit object or slider scoring instant ceiling exceeded
	ErrCancelled      ErrorCode = 6
)

func (c ErrorCode) Error() string {
	switch c {
	case OK:
		return "ok"
	case ErrMetadata:
		return "metadata rejected"
	case ErrFileUnreadable:
		return "file unreadable"
	case ErrNoTimingPoints:
		return "no timing points"
	case ErrNoHitObjects:
		return "no hit objects"
	case ErrTooManyObjects:
		return "resource limit exceeded"
	case ErrCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("error code %d", int(c))
}

// CodeOf extracts the ErrorCode from an error returned by this package or by
// diffobj. nil maps to OK, foreign errors to ErrFileUnreadable.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return OK
	}
	if code, ok := errors.Cause(err).(ErrorCode); ok {
		return code
	}
	return ErrFileUnreadable
}
