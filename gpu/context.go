// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package gpu implements the resource layer on top of a
// driver.Context.
// A Context owns the capability snapshot, the render state
// and every texture, framebuffer and shader created from
// it. Resources are not safe for concurrent use and must
// only be used from the thread that owns the native
// context.
package gpu

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gviegas/gpux/caps"
	"github.com/gviegas/gpux/driver"
	"github.com/gviegas/gpux/internal/handle"
)

// Context is the entry point of the resource layer.
type Context struct {
	dc    driver.Context
	drv   driver.Driver
	caps  *caps.Caps
	log   *slog.Logger
	debug bool

	// Currently bound framebuffer (0 is the default
	// target).
	fb    driver.Handle
	state renderState
	saved []savedState

	textures     handle.Map[TextureID, *Texture]
	framebuffers handle.Map[FramebufferID, *Framebuffer]
	shaders      int

	// Placeholders bound in place of textures that have
	// no handle, indexed by driver.Target.
	invalid  [3]*Texture
	builtins map[builtinKey]*Shader
	closed   bool
}

var errNoDriver = errors.New("gpu: driver not found")

// New creates a new Context from dc.
// It queries the capabilities of dc and creates the
// placeholder textures.
func New(dc driver.Context, opts ...Option) (*Context, error) {
	if dc == nil {
		return nil, driver.ErrNoContext
	}
	o := defaultOptions()
	for _, f := range opts {
		f(&o)
	}
	c := &Context{
		dc:       dc,
		caps:     caps.Init(dc, o.caps...),
		log:      o.log,
		debug:    o.debug,
		state:    defaultState(),
		builtins: make(map[builtinKey]*Shader),
	}
	if err := c.initInvalid(); err != nil {
		c.freeInvalid()
		return nil, err
	}
	c.log.Debug("gpu: context created",
		"vendor", c.caps.Vendor,
		"renderer", c.caps.Renderer,
		"version", c.caps.Version)
	return c, nil
}

// Open creates a new Context using any registered driver
// whose name contains the name string. It is case
// insensitive. If name is the empty string, then all
// registered drivers are considered.
// The driver is closed when the Context is.
func Open(name string, opts ...Option) (*Context, error) {
	drivers := driver.Drivers()
	err := errNoDriver
	name = strings.ToLower(name)
	for i := range drivers {
		if !strings.Contains(strings.ToLower(drivers[i].Name()), name) {
			continue
		}
		var dc driver.Context
		if dc, err = drivers[i].Open(); err != nil {
			continue
		}
		var c *Context
		if c, err = New(dc, opts...); err != nil {
			drivers[i].Close()
			continue
		}
		c.drv = drivers[i]
		return c, nil
	}
	return nil, err
}

// Close releases the builtin shaders and the placeholder
// textures. Resources that were not released by the
// caller are reported as leaks.
// Calling Close more than once has no effect.
func (c *Context) Close() {
	if c.closed {
		return
	}
	c.freeBuiltins()
	c.freeInvalid()
	if n := c.textures.Len(); n > 0 {
		hs := make([]driver.Handle, 0, n)
		for _, t := range c.textures.All() {
			hs = append(hs, t.h)
		}
		c.log.Warn("gpu: leaked textures", "count", n, "handles", hs)
	}
	if n := c.framebuffers.Len(); n > 0 {
		hs := make([]driver.Handle, 0, n)
		for _, fb := range c.framebuffers.All() {
			hs = append(hs, fb.h)
		}
		c.log.Warn("gpu: leaked framebuffers", "count", n, "handles", hs)
	}
	if c.shaders > 0 {
		c.log.Warn("gpu: leaked shaders", "count", c.shaders)
	}
	if c.drv != nil {
		c.drv.Close()
	}
	c.closed = true
}

// Caps returns the capabilities of c.
// It must not be changed by the caller.
func (c *Context) Caps() *caps.Caps { return c.caps }

// Driver returns the underlying driver.Context.
func (c *Context) Driver() driver.Context { return c.dc }

// magenta is the color of placeholder textures.
var magenta = []float32{1, 0, 1, 1}

func (c *Context) initInvalid() (err error) {
	if c.invalid[driver.Tex1D], err = c.NewTexture1D(1, magenta); err != nil {
		return
	}
	if c.invalid[driver.Tex2D], err = c.NewTexture2D(1, 1, magenta, Byte); err != nil {
		return
	}
	if c.invalid[driver.Tex3D], err = c.NewTexture3D(1, 1, 1, 4, magenta); err != nil {
		if !errors.Is(err, ErrUnsupported) {
			return
		}
		c.log.Debug("gpu: no 3D placeholder", "err", err)
		err = nil
	}
	return
}

func (c *Context) freeInvalid() {
	for i, t := range c.invalid {
		if t != nil {
			t.Release()
			c.invalid[i] = nil
		}
	}
}

// bindTexture binds h to target on the active unit, or
// the placeholder of target if h is 0.
func (c *Context) bindTexture(target driver.Target, h driver.Handle) {
	if h == 0 {
		if t := c.invalid[target]; t != nil {
			h = t.h
		}
	}
	c.dc.BindTexture(target, h)
}

// CurrentFramebuffer returns the handle of the bound
// framebuffer. It is 0 when the default target is bound.
func (c *Context) CurrentFramebuffer() driver.Handle { return c.fb }

// RestoreFramebuffer binds the default target.
func (c *Context) RestoreFramebuffer() {
	if c.fb != 0 {
		c.dc.BindFramebuffer(0)
		c.fb = 0
	}
}

func (c *Context) bindFramebuffer(h driver.Handle) {
	c.dc.BindFramebuffer(h)
	c.fb = h
}

func (c *Context) String() string {
	return fmt.Sprintf("gpu.Context{%s %s %s}", c.caps.Vendor, c.caps.Renderer, c.caps.Version)
}
