// Copyright 2024 Gustavo C. Viegas. All rights reserved.

//go:build gl

package ogl

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-gl/gl/v3.2-compatibility/gl"

	"github.com/gviegas/gpux/driver"
)

const driverName = "opengl"

// Driver implements driver.Driver.
type Driver struct {
	mu  sync.Mutex
	ctx *Context
}

func init() {
	driver.Register(&Driver{})
}

// Open initializes the GL bindings using the context
// that is current on the calling thread.
func (d *Driver) Open() (driver.Context, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctx != nil {
		return d.ctx, nil
	}
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("%w: %w", driver.ErrNotInstalled, err)
	}
	if gl.GetString(gl.VERSION) == nil {
		return nil, driver.ErrNoContext
	}
	c := &Context{drv: d, exts: make(map[string]bool)}
	c.initVersion()
	c.initExtensions()
	d.ctx = c
	return c, nil
}

// Name returns the driver name.
func (d *Driver) Name() string { return driverName }

// Close discards the Context. GL objects are not deleted,
// since the native context is owned by the host.
func (d *Driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ctx = nil
}

// Context implements driver.Context.
type Context struct {
	drv   *Driver
	major int
	minor int
	exts  map[string]bool
}

func (c *Context) initVersion() {
	v := gl.GoStr(gl.GetString(gl.VERSION))
	if _, err := fmt.Sscanf(v, "%d.%d", &c.major, &c.minor); err != nil {
		var x int32
		gl.GetIntegerv(gl.MAJOR_VERSION, &x)
		c.major = int(x)
		gl.GetIntegerv(gl.MINOR_VERSION, &x)
		c.minor = int(x)
	}
}

// promoted lists extensions that became core, with the
// version that promoted them.
var promoted = []struct {
	ext          string
	major, minor int
}{
	{driver.ExtMultitexture, 1, 3},
	{driver.ExtDepthTexture, 1, 4},
	{driver.ExtVertexBufferObject, 1, 5},
	{driver.ExtVertexShader, 2, 0},
	{driver.ExtFragmentShader, 2, 0},
	{driver.ExtNonPowerOfTwo, 2, 0},
	{driver.ExtFramebufferObject, 3, 0},
	{driver.ExtGPUShader4, 3, 0},
	{driver.ExtDrawInstanced, 3, 1},
	{driver.ExtGeometryShader4, 3, 2},
	{driver.ExtTextureQueryLOD, 4, 0},
}

func (c *Context) initExtensions() {
	var n int32
	gl.GetIntegerv(gl.NUM_EXTENSIONS, &n)
	for i := range uint32(n) {
		c.exts[gl.GoStr(gl.GetStringi(gl.EXTENSIONS, i))] = true
	}
	for _, p := range promoted {
		if c.major > p.major || (c.major == p.major && c.minor >= p.minor) {
			c.exts[p.ext] = true
		}
	}
}

func (c *Context) Driver() driver.Driver { return c.drv }

func (c *Context) String(name driver.StringName) string {
	var s uint32
	switch name {
	case driver.Vendor:
		s = gl.VENDOR
	case driver.Renderer:
		s = gl.RENDERER
	case driver.VersionString:
		s = gl.VERSION
	default:
		return ""
	}
	p := gl.GetString(s)
	if p == nil {
		return ""
	}
	return gl.GoStr(p)
}

func (c *Context) Integer(name driver.IntName) int {
	var x int32
	switch name {
	case driver.MaxTextureSize:
		gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &x)
	case driver.MaxTextureUnits:
		gl.GetIntegerv(gl.MAX_TEXTURE_IMAGE_UNITS, &x)
	case driver.RedBits:
		gl.GetIntegerv(gl.RED_BITS, &x)
	case driver.GreenBits:
		gl.GetIntegerv(gl.GREEN_BITS, &x)
	case driver.BlueBits:
		gl.GetIntegerv(gl.BLUE_BITS, &x)
	}
	return int(x)
}

func (c *Context) Version() (major, minor int) { return c.major, c.minor }

func (c *Context) HasExtension(ext string) bool { return c.exts[ext] }

func (c *Context) SetTwoSidedLighting(enable bool) {
	var x int32 = gl.FALSE
	if enable {
		x = gl.TRUE
	}
	gl.LightModeli(gl.LIGHT_MODEL_TWO_SIDE, x)
}

func (c *Context) SetScissorTest(enable bool) {
	if enable {
		gl.Enable(gl.SCISSOR_TEST)
	} else {
		gl.Disable(gl.SCISSOR_TEST)
	}
}

func (c *Context) Viewport(x, y, width, height int) {
	gl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

// glError returns an error wrapping
// driver.ErrInvalidOperation if the GL error flag is set,
// clearing it.
func glError(op string) error {
	e := gl.GetError()
	if e == gl.NO_ERROR {
		return nil
	}
	// Other flags may be set as well.
	clearErrors()
	return fmt.Errorf("ogl: %s: error 0x%04x: %w", op, e, driver.ErrInvalidOperation)
}

// clearErrors discards stale GL error flags.
func clearErrors() {
	for i := 0; i < 8 && gl.GetError() != gl.NO_ERROR; i++ {
	}
}

// infoLog trims the terminator of a GL info log.
func infoLog(b []byte) string {
	return strings.TrimRight(string(b), "\x00")
}
