// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gpu

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/gviegas/gpux/driver"
)

var (
	// ErrUnsupported means that a required capability
	// is not available in the current context.
	ErrUnsupported = errors.New("gpu: unsupported capability")

	// ErrUnsupportedStage means that a shader stage was
	// requested that the context cannot compile.
	ErrUnsupportedStage = errors.New("gpu: unsupported shader stage")

	// ErrAllocation means that the driver failed to
	// create a native handle.
	ErrAllocation = errors.New("gpu: allocation failed")

	// ErrUnsupportedFormat means that a texture was
	// requested with an unsupported component layout.
	ErrUnsupportedFormat = errors.New("gpu: unsupported format")

	// ErrInvalidSize means that a requested extent is
	// either invalid or exceeds the context limits.
	ErrInvalidSize = errors.New("gpu: invalid size")

	// ErrInvalidParam means that a parameter other than
	// an extent is invalid.
	ErrInvalidParam = errors.New("gpu: invalid parameter")

	// ErrSlotOutOfRange means that a color attachment
	// slot outside [0, MaxColorSlots) was given.
	ErrSlotOutOfRange = errors.New("gpu: attachment slot out of range")

	// ErrSlotEmpty means that an operation targeted an
	// attachment slot that holds no texture.
	ErrSlotEmpty = errors.New("gpu: attachment slot empty")

	// ErrNotAttached means that a texture is not attached
	// to any framebuffer.
	ErrNotAttached = errors.New("gpu: texture not attached to framebuffer")

	// ErrDriverRejected means that the driver refused an
	// attachment. It wraps the error of the driver.
	ErrDriverRejected = errors.New("gpu: driver rejected attachment")

	// ErrReleased means that a resource was used after
	// being released.
	ErrReleased = errors.New("gpu: resource released")
)

// CompileError is the error returned when a shader stage
// fails to compile.
type CompileError struct {
	Stage driver.Stage
	Log   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("gpu: %s shader compile error: %s", e.Stage, e.Log)
}

// LinkError is the error returned when a program fails
// to link.
type LinkError struct {
	Log string
	// Source is the stage source reported alongside
	// the log. Fragment source is preferred, then
	// vertex, library and geometry source.
	Source string
}

func (e *LinkError) Error() string { return "gpu: shader link error: " + e.Log }

// Reason classifies a framebuffer completeness failure.
type Reason string

// Completeness failure reasons.
const (
	ReasonAttachmentIncomplete   Reason = "attachment-incomplete"
	ReasonMissingAttachment      Reason = "missing-attachment"
	ReasonFormatMismatch         Reason = "format-mismatch"
	ReasonDimensionMismatch      Reason = "dimension-mismatch"
	ReasonMissingDrawBuffer      Reason = "missing-draw-buffer"
	ReasonMissingReadBuffer      Reason = "missing-read-buffer"
	ReasonUnsupportedCombination Reason = "unsupported-combination"
	ReasonInvalidOperation       Reason = "invalid-operation"
	ReasonUnknown                Reason = "unknown"
)

func reasonOf(s driver.Status) Reason {
	switch s {
	case driver.StatusIncompleteAttachment:
		return ReasonAttachmentIncomplete
	case driver.StatusMissingAttachment:
		return ReasonMissingAttachment
	case driver.StatusIncompleteDimensions:
		return ReasonDimensionMismatch
	case driver.StatusIncompleteFormats:
		return ReasonFormatMismatch
	case driver.StatusIncompleteDrawBuffer:
		return ReasonMissingDrawBuffer
	case driver.StatusIncompleteReadBuffer:
		return ReasonMissingReadBuffer
	case driver.StatusUnsupported:
		return ReasonUnsupportedCombination
	case driver.StatusInvalidOperation:
		return ReasonInvalidOperation
	}
	return ReasonUnknown
}

// IncompleteError is the error returned when a framebuffer
// fails the completeness check.
type IncompleteError struct {
	Reason Reason
	Status driver.Status
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("gpu: framebuffer incomplete error %d '%s'", int(e.Status), e.Status)
}

// maxErrorString is the size of the buffer that callers
// of ErrorString are expected to provide, including the
// terminator.
const maxErrorString = 256

// ErrorString returns the message of err bounded to
// fit in a 256-byte buffer with terminator.
// It never splits a multi-byte character.
// It returns the empty string if err is nil.
func ErrorString(err error) string {
	if err == nil {
		return ""
	}
	s := err.Error()
	if len(s) < maxErrorString {
		return s
	}
	n := maxErrorString - 1
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
