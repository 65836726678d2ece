// Copyright 2024 Gustavo C. Viegas. All rights reserved.

//go:build gl

package ogl

import (
	"fmt"

	"github.com/go-gl/gl/v3.2-compatibility/gl"

	"github.com/gviegas/gpux/driver"
)

// Statuses that only legacy EXT_framebuffer_object
// implementations report.
const (
	framebufferIncompleteDimensionsEXT = 0x8CD9
	framebufferIncompleteFormatsEXT    = 0x8CDA
)

func convAttachment(a driver.Attachment) uint32 {
	switch {
	case a == driver.AttachNone:
		return gl.NONE
	case a == driver.AttachDepth:
		return gl.DEPTH_ATTACHMENT
	}
	return gl.COLOR_ATTACHMENT0 + uint32(a-driver.AttachColor0)
}

func convStatus(s uint32) driver.Status {
	switch s {
	case gl.FRAMEBUFFER_COMPLETE:
		return driver.StatusComplete
	case gl.FRAMEBUFFER_INCOMPLETE_ATTACHMENT:
		return driver.StatusIncompleteAttachment
	case gl.FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT:
		return driver.StatusMissingAttachment
	case framebufferIncompleteDimensionsEXT:
		return driver.StatusIncompleteDimensions
	case framebufferIncompleteFormatsEXT:
		return driver.StatusIncompleteFormats
	case gl.FRAMEBUFFER_INCOMPLETE_DRAW_BUFFER:
		return driver.StatusIncompleteDrawBuffer
	case gl.FRAMEBUFFER_INCOMPLETE_READ_BUFFER:
		return driver.StatusIncompleteReadBuffer
	case gl.FRAMEBUFFER_UNSUPPORTED:
		return driver.StatusUnsupported
	case 0:
		return driver.StatusInvalidOperation
	}
	return driver.StatusUnknown
}

func (c *Context) NewFramebuffer() (driver.Handle, error) {
	var h uint32
	gl.GenFramebuffers(1, &h)
	if h == 0 {
		return 0, fmt.Errorf("ogl: gen framebuffers: %w", driver.ErrNoDeviceMemory)
	}
	return driver.Handle(h), nil
}

func (c *Context) DeleteFramebuffer(h driver.Handle) {
	x := uint32(h)
	gl.DeleteFramebuffers(1, &x)
}

func (c *Context) BindFramebuffer(h driver.Handle) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(h))
}

// FramebufferTexture attaches level 0 of h. The target is
// implied by h.
func (c *Context) FramebufferTexture(att driver.Attachment, _ driver.Target, h driver.Handle) error {
	clearErrors()
	gl.FramebufferTexture(gl.FRAMEBUFFER, convAttachment(att), uint32(h), 0)
	return glError("framebuffer texture")
}

func (c *Context) CheckFramebuffer() driver.Status {
	return convStatus(gl.CheckFramebufferStatus(gl.FRAMEBUFFER))
}

func (c *Context) DrawBuffers(att []driver.Attachment) {
	if len(att) == 0 {
		gl.DrawBuffer(gl.NONE)
		return
	}
	bufs := make([]uint32, len(att))
	for i, a := range att {
		bufs[i] = convAttachment(a)
	}
	gl.DrawBuffers(int32(len(bufs)), &bufs[0])
}

func (c *Context) ReadBuffer(att driver.Attachment) { gl.ReadBuffer(convAttachment(att)) }

func (c *Context) ReadPixels(x, y, width, height int, pf driver.PixelFormat, typ driver.DataType, dst any) {
	p := ptr(dst)
	if p == nil {
		return
	}
	gl.ReadPixels(int32(x), int32(y), int32(width), int32(height), convPixelFormat(pf), convDataType(typ), p)
}
