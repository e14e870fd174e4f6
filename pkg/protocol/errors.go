package protocol

import "errors"

var (
	// ErrEmptyFrame is returned when a frame has no tag.
	ErrEmptyFrame = errors.New("empty frame")

	// ErrUnknownTag is returned when the tag is not in the registry.
	ErrUnknownTag = errors.New("unknown command tag")

	// ErrMissingField is returned when a frame has fewer fields than its tag requires.
	ErrMissingField = errors.New("missing field")

	// ErrBadNumber is returned when an integer field does not parse.
	ErrBadNumber = errors.New("malformed number")

	// ErrBadMode is returned when a MODE frame names no known mode.
	ErrBadMode = errors.New("unknown mode")

	// ErrFrameTooLong is returned when a partial frame outgrows the reassembly buffer.
	ErrFrameTooLong = errors.New("frame too long")
)
