// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gpu

import (
	"fmt"
	"math/bits"

	"github.com/gviegas/gpux/driver"
)

// TextureID identifies a Texture in its Context.
type TextureID int

const noTexture TextureID = -1

// Texture is a reference-counted texture.
// A Texture is attached to at most one Framebuffer at a
// time.
type Texture struct {
	ctx    *Context
	id     TextureID
	h      driver.Handle
	target driver.Target
	// Requested extent.
	size driver.Dim3D
	// Extent of the storage, which is padded to powers of
	// two when the context lacks NPOT support.
	storage  driver.Dim3D
	isDepth  bool
	refs     int
	unit     int
	fb       FramebufferID
	slot     int
	external bool
}

// Precision selects the storage width of color
// components.
type Precision int

// Precisions.
const (
	// 8-bit normalized.
	Byte Precision = iota
	// 16-bit floating-point.
	Half
	// 32-bit floating-point.
	Float
)

// TexParam describes parameters of a texture.
type TexParam struct {
	// Dim is the dimensionality (1, 2 or 3).
	Dim int
	driver.Dim3D
	// Pixels is the initial content, laid out as
	// Components floats per texel. It is optional.
	Pixels []float32
	// IsDepth selects a depth texture. Depth textures
	// ignore Precision, Components and Pixels.
	IsDepth   bool
	Precision Precision
	// Components must be 2 or 4, or 1 or 4 if Dim is 3.
	Components int
}

// ceilPow2 returns the smallest power of two not less
// than n.
func ceilPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// toByte converts a normalized float to a byte, clamping
// and rounding.
func toByte(f float32) byte {
	switch {
	case f <= 0:
		return 0
	case f > 1-0.5/255:
		return 255
	}
	return byte(255*f + 0.5)
}

func convertPixels(p []float32) []byte {
	b := make([]byte, len(p))
	for i := range p {
		b[i] = toByte(p[i])
	}
	return b
}

func (c *Context) validateTexture(param *TexParam) error {
	limit := c.caps.MaxTextureSize
	var reason string
	var err error
	switch {
	case param == nil:
		reason, err = "nil param", ErrInvalidParam
	case param.Dim < 1, param.Dim > 3:
		reason, err = "invalid dimensionality", ErrInvalidParam
	case param.IsDepth && !c.caps.DepthTexture:
		reason, err = "no depth texture support", ErrUnsupported
	case param.IsDepth && param.Dim != 2:
		reason, err = "depth texture must be 2D", ErrUnsupportedFormat
	case param.IsDepth && param.Pixels != nil:
		reason, err = "depth texture with pixel data", ErrInvalidParam
	case param.Dim == 3 && !c.caps.Texture3D:
		reason, err = "no 3D texture support", ErrUnsupported
	case param.Width < 1,
		param.Dim > 1 && param.Height < 1,
		param.Dim < 2 && param.Height > 1,
		param.Dim > 2 && param.Depth < 1,
		param.Dim < 3 && param.Depth > 1:
		reason, err = "invalid size", ErrInvalidSize
	case param.Width > limit, param.Height > limit, param.Depth > limit:
		reason, err = "size too big", ErrInvalidSize
	case param.IsDepth:
		return nil
	case param.Dim == 3 && param.Components != 1 && param.Components != 4,
		param.Dim < 3 && param.Components != 2 && param.Components != 4:
		reason, err = fmt.Sprintf("%d components", param.Components), ErrUnsupportedFormat
	case param.Precision < Byte, param.Precision > Float:
		reason, err = "invalid precision", ErrInvalidParam
	case param.Pixels != nil && len(param.Pixels) < texels(param)*param.Components:
		reason, err = "pixel data too short", ErrInvalidSize
	default:
		return nil
	}
	return fmt.Errorf("%w: %s", err, reason)
}

func texels(param *TexParam) int {
	return param.Width * max(param.Height, 1) * max(param.Depth, 1)
}

// NewTexture creates a new texture.
func (c *Context) NewTexture(param *TexParam) (*Texture, error) {
	return c.newTexture(param, nil)
}

// newTexture creates a new texture and calls tweak, if not
// nil, while the texture is still bound to the active
// unit.
func (c *Context) newTexture(param *TexParam, tweak func(driver.Target)) (*Texture, error) {
	if err := c.validateTexture(param); err != nil {
		return nil, err
	}
	h, err := c.dc.NewTexture()
	if err != nil {
		return nil, fmt.Errorf("%w: texture: %w", ErrAllocation, err)
	}

	size := driver.Dim3D{
		Width:  param.Width,
		Height: max(param.Height, 1),
		Depth:  max(param.Depth, 1),
	}
	storage := size
	if !c.caps.NonPowerOfTwo {
		storage.Width = ceilPow2(storage.Width)
		if param.Dim > 1 {
			storage.Height = ceilPow2(storage.Height)
		}
		if param.Dim > 2 {
			storage.Depth = ceilPow2(storage.Depth)
		}
	}
	t := &Texture{
		ctx:     c,
		h:       h,
		target:  driver.Target(param.Dim - 1),
		size:    size,
		storage: storage,
		isDepth: param.IsDepth,
		refs:    1,
		unit:    -1,
		fb:      noFramebuffer,
		slot:    -1,
	}

	c.dc.BindTexture(t.target, h)
	switch {
	case param.IsDepth:
		c.dc.TexImage(t.target, driver.DepthComponent, storage, driver.FmtDepth, driver.TypeUByte, nil)
		c.dc.TexParameter(t.target, driver.MinFilter, driver.Nearest)
		c.dc.TexParameter(t.target, driver.MagFilter, driver.Linear)
		c.dc.TexParameter(t.target, driver.CompareMode, driver.CompareRefToTexture)
		c.dc.TexParameter(t.target, driver.CompareFunc, driver.LessEqual)
	case param.Dim == 3:
		t.upload3D(param)
		c.dc.TexBorderColor(t.target, [4]float32{})
		c.dc.TexParameter(t.target, driver.MinFilter, driver.Linear)
		c.dc.TexParameter(t.target, driver.MagFilter, driver.Linear)
	default:
		t.upload(param)
		c.dc.TexParameter(t.target, driver.MinFilter, driver.Linear)
		c.dc.TexParameter(t.target, driver.MagFilter, driver.Linear)
	}
	c.dc.TexParameter(t.target, driver.WrapS, driver.ClampToEdge)
	if param.Dim > 1 {
		c.dc.TexParameter(t.target, driver.WrapT, driver.ClampToEdge)
	}
	if param.Dim > 2 {
		c.dc.TexParameter(t.target, driver.WrapR, driver.ClampToEdge)
	}
	if tweak != nil {
		tweak(t.target)
	}
	c.dc.BindTexture(t.target, 0)

	t.id = c.textures.Insert(t)
	c.log.Debug("gpu: texture created", "handle", h, "target", t.target, "size", size, "storage", storage)
	return t, nil
}

func colorFormat(prec Precision, comps int) driver.InternalFormat {
	switch prec {
	case Byte:
		if comps == 2 {
			return driver.RG8
		}
		return driver.RGBA8
	case Half:
		if comps == 2 {
			return driver.RG16F
		}
		return driver.RGBA16F
	}
	if comps == 2 {
		return driver.RG32F
	}
	return driver.RGBA32F
}

// upload specifies the storage of a 1D or 2D color
// texture and uploads param.Pixels, zero-filling the
// padding.
func (t *Texture) upload(param *TexParam) {
	dc := t.ctx.dc
	pf := driver.FmtRGBA
	if param.Components == 2 {
		pf = driver.FmtRG
	}
	ifmt := colorFormat(param.Precision, param.Components)
	dc.TexImage(t.target, ifmt, t.storage, pf, driver.TypeFloat, nil)
	if param.Pixels == nil {
		return
	}

	n := texels(param) * param.Components
	var data any = param.Pixels[:n]
	typ := driver.TypeFloat
	if param.Precision == Byte {
		data = convertPixels(param.Pixels[:n])
		typ = driver.TypeUByte
	}
	dc.TexSubImage(t.target, driver.Off3D{}, t.size, pf, typ, data)

	zero := func(off driver.Off3D, size driver.Dim3D) {
		b := make([]byte, size.Width*size.Height*param.Components)
		dc.TexSubImage(t.target, off, size, pf, driver.TypeUByte, b)
	}
	if w := t.storage.Width - t.size.Width; w > 0 {
		zero(driver.Off3D{X: t.size.Width}, driver.Dim3D{Width: w, Height: t.storage.Height, Depth: 1})
	}
	if h := t.storage.Height - t.size.Height; h > 0 {
		zero(driver.Off3D{Y: t.size.Height}, driver.Dim3D{Width: t.size.Width, Height: h, Depth: 1})
	}
}

// upload3D specifies the storage of a 3D texture and
// uploads param.Pixels. The whole volume is cleared first
// when it is padded.
func (t *Texture) upload3D(param *TexParam) {
	dc := t.ctx.dc
	ifmt, pf := driver.RGBA, driver.FmtRGBA
	if param.Components == 1 {
		ifmt, pf = driver.Intensity, driver.FmtRed
	}
	dc.TexImage(t.target, ifmt, t.storage, pf, driver.TypeFloat, nil)
	if param.Pixels == nil {
		return
	}
	if t.storage != t.size {
		s := t.storage
		zero := make([]float32, s.Width*s.Height*s.Depth*param.Components)
		dc.TexSubImage(t.target, driver.Off3D{}, s, pf, driver.TypeFloat, zero)
	}
	n := texels(param) * param.Components
	dc.TexSubImage(t.target, driver.Off3D{}, t.size, pf, driver.TypeFloat, param.Pixels[:n])
}

// NewTexture1D creates a 1D RGBA texture of byte
// precision. pixels may be nil.
func (c *Context) NewTexture1D(width int, pixels []float32) (*Texture, error) {
	return c.NewTexture(&TexParam{
		Dim:        1,
		Dim3D:      driver.Dim3D{Width: width},
		Pixels:     pixels,
		Precision:  Byte,
		Components: 4,
	})
}

// NewTexture2D creates a 2D RGBA texture. pixels may
// be nil.
func (c *Context) NewTexture2D(width, height int, pixels []float32, prec Precision) (*Texture, error) {
	return c.NewTexture(&TexParam{
		Dim:        2,
		Dim3D:      driver.Dim3D{Width: width, Height: height},
		Pixels:     pixels,
		Precision:  prec,
		Components: 4,
	})
}

// NewDepthTexture creates a 2D depth texture set up for
// shadow comparison.
func (c *Context) NewDepthTexture(width, height int) (*Texture, error) {
	return c.NewTexture(&TexParam{
		Dim:     2,
		Dim3D:   driver.Dim3D{Width: width, Height: height},
		IsDepth: true,
	})
}

// NewTexture3D creates a 3D texture of one or four
// channels with a transparent black border.
func (c *Context) NewTexture3D(width, height, depth, channels int, pixels []float32) (*Texture, error) {
	return c.NewTexture(&TexParam{
		Dim:        3,
		Dim3D:      driver.Dim3D{Width: width, Height: height, Depth: depth},
		Pixels:     pixels,
		Precision:  Float,
		Components: channels,
	})
}

// NewShadowMapVSM creates a square shadow map for variance
// shadow mapping (depth and depth squared).
func (c *Context) NewShadowMapVSM(size int) (*Texture, error) {
	return c.NewTexture(&TexParam{
		Dim:        2,
		Dim3D:      driver.Dim3D{Width: size, Height: size},
		Precision:  Float,
		Components: 2,
	})
}

// NewProcedural2D creates a two-component texture of half
// precision with nearest filtering.
func (c *Context) NewProcedural2D(width, height int, pixels []float32, repeat bool) (*Texture, error) {
	return c.newTexture(&TexParam{
		Dim:        2,
		Dim3D:      driver.Dim3D{Width: width, Height: height},
		Pixels:     pixels,
		Precision:  Half,
		Components: 2,
	}, func(target driver.Target) {
		if repeat {
			c.dc.TexParameter(target, driver.WrapS, driver.Repeat)
			c.dc.TexParameter(target, driver.WrapT, driver.Repeat)
		}
		c.dc.TexParameter(target, driver.MagFilter, driver.Nearest)
		c.dc.TexParameter(target, driver.MinFilter, driver.Nearest)
	})
}

// NewProcedural1D creates a two-component repeating
// texture of half precision with nearest filtering.
func (c *Context) NewProcedural1D(width int, pixels []float32) (*Texture, error) {
	return c.newTexture(&TexParam{
		Dim:        1,
		Dim3D:      driver.Dim3D{Width: width},
		Pixels:     pixels,
		Precision:  Half,
		Components: 2,
	}, func(target driver.Target) {
		c.dc.TexParameter(target, driver.WrapS, driver.Repeat)
		c.dc.TexParameter(target, driver.MagFilter, driver.Nearest)
		c.dc.TexParameter(target, driver.MinFilter, driver.Nearest)
	})
}

// WrapTexture creates a Texture that borrows a handle
// owned elsewhere. The handle is never deleted by the
// Texture, and the caller must keep it alive for as long
// as the Texture is in use.
// If h does not name a live texture, the Texture has
// zero extent and binds as the placeholder of target.
func (c *Context) WrapTexture(h driver.Handle, target driver.Target) (*Texture, error) {
	if target < driver.Tex1D || target > driver.Tex3D {
		return nil, fmt.Errorf("%w: %s", ErrInvalidParam, target)
	}
	t := &Texture{
		ctx:      c,
		target:   target,
		refs:     1,
		unit:     -1,
		fb:       noFramebuffer,
		slot:     -1,
		external: true,
	}
	if h != 0 && c.dc.IsTexture(h) {
		t.h = h
		c.dc.BindTexture(target, h)
		t.size = c.dc.TexSize(target)
		c.dc.BindTexture(target, 0)
		t.storage = t.size
	} else {
		c.log.Debug("gpu: wrapped handle is not a texture", "handle", h)
	}
	t.id = c.textures.Insert(t)
	return t, nil
}

// Bind binds t to the given texture unit.
// If the unit is not less than the unit count of the
// context, then Bind logs and does nothing. Negative
// units are ignored.
// A texture without a handle binds the placeholder of
// its target.
func (t *Texture) Bind(unit int) {
	c := t.ctx
	if t.released("bind") {
		return
	}
	if unit >= c.caps.MaxTextureUnits {
		c.log.Warn("gpu: not enough texture slots", "unit", unit, "max", c.caps.MaxTextureUnits)
		return
	}
	if c.debug && t.fb != noFramebuffer {
		if fb, ok := c.framebuffers.Get(t.fb); ok && fb.h == c.fb {
			c.log.Warn("gpu: feedback loop: binding texture attached to current framebuffer",
				"texture", t.h, "framebuffer", fb.h)
		}
	}
	if unit < 0 {
		return
	}
	if unit != 0 {
		c.dc.ActiveUnit(unit)
	}
	c.bindTexture(t.target, t.h)
	if unit != 0 {
		c.dc.ActiveUnit(0)
	}
	t.unit = unit
}

// Unbind unbinds t from its texture unit.
// It does nothing if t is not bound.
func (t *Texture) Unbind() {
	if t.unit == -1 {
		return
	}
	c := t.ctx
	if t.unit != 0 {
		c.dc.ActiveUnit(t.unit)
	}
	c.dc.BindTexture(t.target, 0)
	if t.unit != 0 {
		c.dc.ActiveUnit(0)
	}
	t.unit = -1
}

// SetFilterMode sets the sampling of t, which must be
// bound to a unit.
// compare enables depth comparison (depth textures only)
// and filter selects linear rather than nearest
// filtering.
func (t *Texture) SetFilterMode(compare, filter bool) {
	if t.unit == -1 {
		return
	}
	c := t.ctx
	if t.unit != 0 {
		c.dc.ActiveUnit(t.unit)
	}
	if t.isDepth {
		mode := driver.CompareNone
		if compare {
			mode = driver.CompareRefToTexture
		}
		c.dc.TexParameter(t.target, driver.CompareMode, mode)
	}
	f := driver.Nearest
	if filter {
		f = driver.Linear
	}
	c.dc.TexParameter(t.target, driver.MagFilter, f)
	c.dc.TexParameter(t.target, driver.MinFilter, f)
	if t.unit != 0 {
		c.dc.ActiveUnit(0)
	}
}

// Retain increments the reference count of t.
// It logs and does nothing if t was destroyed.
func (t *Texture) Retain() {
	if t.released("retain") {
		return
	}
	t.refs++
}

// Release decrements the reference count of t.
// When it reaches zero, t is detached from its
// framebuffer and its handle is deleted (unless it is
// borrowed).
func (t *Texture) Release() {
	t.refs--
	switch {
	case t.refs < 0:
		t.ctx.log.Warn("gpu: negative texture refcount", "texture", t.h, "refs", t.refs)
	case t.refs == 0:
		t.destroy()
	}
}

func (t *Texture) destroy() {
	c := t.ctx
	if t.fb != noFramebuffer {
		c.detach(t)
	}
	if t.h != 0 && !t.external {
		c.dc.DeleteTexture(t.h)
	}
	c.textures.Remove(t.id)
	c.log.Debug("gpu: texture destroyed", "handle", t.h)
	t.id = noTexture
}

// released reports whether t was destroyed, logging the
// attempted operation if so.
func (t *Texture) released(op string) bool {
	if t.refs > 0 {
		return false
	}
	t.ctx.log.Warn("gpu: use of released texture", "op", op, "texture", t.h)
	return true
}

// Refs returns the reference count of t.
func (t *Texture) Refs() int { return t.refs }

// ID returns the identifier of t in its Context.
// It is -1 once t is destroyed.
func (t *Texture) ID() TextureID { return t.id }

// Width returns the requested width of t.
func (t *Texture) Width() int { return t.size.Width }

// Height returns the requested height of t.
func (t *Texture) Height() int { return t.size.Height }

// Depth returns the requested depth of t.
func (t *Texture) Depth() int { return t.size.Depth }

// StorageWidth returns the width of the storage of t.
func (t *Texture) StorageWidth() int { return t.storage.Width }

// StorageHeight returns the height of the storage of t.
func (t *Texture) StorageHeight() int { return t.storage.Height }

// StorageDepth returns the depth of the storage of t.
func (t *Texture) StorageDepth() int { return t.storage.Depth }

// Target returns the bind target of t.
func (t *Texture) Target() driver.Target { return t.target }

// Handle returns the native handle of t.
func (t *Texture) Handle() driver.Handle { return t.h }

// Unit returns the unit t is bound to, or -1.
func (t *Texture) Unit() int { return t.unit }

// IsDepth reports whether t is a depth texture.
func (t *Texture) IsDepth() bool { return t.isDepth }

// External reports whether the handle of t is borrowed.
func (t *Texture) External() bool { return t.external }

// Slot returns the color slot t is attached to, or -1.
// Depth textures never occupy a color slot.
func (t *Texture) Slot() int { return t.slot }

// Framebuffer returns the framebuffer t is attached to,
// or nil.
func (t *Texture) Framebuffer() *Framebuffer {
	fb, _ := t.ctx.framebuffers.Get(t.fb)
	return fb
}

// Detach detaches t from its framebuffer, if any.
func (t *Texture) Detach() {
	if t.fb != noFramebuffer {
		t.ctx.detach(t)
	}
}

// BindAsFramebuffer binds the framebuffer of t for
// drawing into t alone.
// The render state is saved and must be restored with a
// call to Unbind on the framebuffer.
func (t *Texture) BindAsFramebuffer() error {
	fb := t.Framebuffer()
	if fb == nil {
		t.ctx.log.Warn("gpu: texture not attached to framebuffer", "texture", t.h)
		return ErrNotAttached
	}
	c := t.ctx
	c.pushState(fb)
	c.SetScissorTest(false)
	c.bindFramebuffer(fb.h)
	if t.isDepth {
		c.dc.DrawBuffers(nil)
		c.dc.ReadBuffer(driver.AttachNone)
	} else {
		att := driver.ColorAttachment(t.slot)
		c.dc.DrawBuffers([]driver.Attachment{att})
		c.dc.ReadBuffer(att)
	}
	c.SetViewport(0, 0, t.storage.Width, t.storage.Height)
	return nil
}
