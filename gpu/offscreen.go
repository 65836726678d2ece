// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gpu

import (
	"fmt"

	"github.com/gviegas/gpux/driver"
)

// Offscreen is a render target made of a framebuffer
// with a color and a depth texture.
type Offscreen struct {
	fb    *Framebuffer
	color *Texture
	depth *Texture
}

// NewOffscreen creates a new offscreen target.
// If any step fails, everything created so far is
// released and the error is returned.
func (c *Context) NewOffscreen(width, height int) (o *Offscreen, err error) {
	o = new(Offscreen)
	defer func() {
		if err != nil {
			o.Release()
			o = nil
		}
	}()
	if o.fb, err = c.NewFramebuffer(); err != nil {
		return
	}
	if o.depth, err = c.NewDepthTexture(width, height); err != nil {
		return
	}
	if err = o.fb.Attach(o.depth, 0); err != nil {
		return
	}
	if o.color, err = c.NewTexture2D(width, height, nil, Byte); err != nil {
		return
	}
	if err = o.fb.Attach(o.color, 0); err != nil {
		return
	}
	if err = o.fb.CheckValid(); err != nil {
		return
	}
	c.RestoreFramebuffer()
	return
}

// Release releases the framebuffer and both textures.
func (o *Offscreen) Release() {
	if o.fb != nil {
		o.fb.Release()
		o.fb = nil
	}
	if o.color != nil {
		o.color.Release()
		o.color = nil
	}
	if o.depth != nil {
		o.depth.Release()
		o.depth = nil
	}
}

// Bind binds o for drawing.
// If save is true, the render state is saved and Unbind
// must be called with restore set to true.
func (o *Offscreen) Bind(save bool) error {
	if save {
		return o.color.BindAsFramebuffer()
	}
	o.fb.ctx.SetScissorTest(false)
	return o.fb.BindNoSave(0)
}

// Unbind binds the default target and enables the
// scissor test. If restore is true, the state saved by
// Bind is restored first.
func (o *Offscreen) Unbind(restore bool) {
	c := o.fb.ctx
	if restore {
		o.fb.Unbind()
	}
	c.RestoreFramebuffer()
	c.SetScissorTest(true)
}

// ReadPixels reads the whole color storage of the bound
// framebuffer as RGBA into dst, which must be a []byte if typ is driver.TypeUByte
// or a []float32 if typ is driver.TypeFloat.
func (o *Offscreen) ReadPixels(typ driver.DataType, dst any) error {
	n := o.color.storage.Width * o.color.storage.Height * 4
	var have int
	switch d := dst.(type) {
	case []byte:
		if typ != driver.TypeUByte {
			return fmt.Errorf("%w: []byte destination for float data", ErrInvalidParam)
		}
		have = len(d)
	case []float32:
		if typ != driver.TypeFloat {
			return fmt.Errorf("%w: []float32 destination for byte data", ErrInvalidParam)
		}
		have = len(d)
	default:
		return fmt.Errorf("%w: destination of type %T", ErrInvalidParam, dst)
	}
	if have < n {
		return fmt.Errorf("%w: destination holds %d of %d components", ErrInvalidSize, have, n)
	}
	o.fb.ctx.dc.ReadPixels(0, 0, o.color.storage.Width, o.color.storage.Height, driver.FmtRGBA, typ, dst)
	return nil
}

// Width returns the width of the color storage.
func (o *Offscreen) Width() int { return o.color.storage.Width }

// Height returns the height of the color storage.
func (o *Offscreen) Height() int { return o.color.storage.Height }

// Framebuffer returns the framebuffer of o.
func (o *Offscreen) Framebuffer() *Framebuffer { return o.fb }

// Color returns the color texture of o.
func (o *Offscreen) Color() *Texture { return o.color }

// Depth returns the depth texture of o.
func (o *Offscreen) Depth() *Texture { return o.depth }
