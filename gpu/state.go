// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gpu

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gviegas/gpux/driver"
)

// renderState is the portion of the render state that
// scoped binds save and restore.
type renderState struct {
	viewport   [4]int
	scissor    bool
	projection mgl32.Mat4
	modelView  mgl32.Mat4
}

func defaultState() renderState {
	return renderState{
		projection: mgl32.Ident4(),
		modelView:  mgl32.Ident4(),
	}
}

// savedState is an entry of the saved state stack.
type savedState struct {
	owner *Framebuffer
	fb    driver.Handle
	renderState
}

// SetViewport sets the viewport rectangle.
func (c *Context) SetViewport(x, y, width, height int) {
	c.dc.Viewport(x, y, width, height)
	c.state.viewport = [4]int{x, y, width, height}
}

// Viewport returns the viewport rectangle.
func (c *Context) Viewport() (x, y, width, height int) {
	v := c.state.viewport
	return v[0], v[1], v[2], v[3]
}

// SetScissorTest enables or disables the scissor test.
func (c *Context) SetScissorTest(enable bool) {
	c.dc.SetScissorTest(enable)
	c.state.scissor = enable
}

// ScissorTest reports whether the scissor test is enabled.
func (c *Context) ScissorTest() bool { return c.state.scissor }

// SetProjection sets the projection matrix.
func (c *Context) SetProjection(m mgl32.Mat4) { c.state.projection = m }

// Projection returns the projection matrix.
func (c *Context) Projection() mgl32.Mat4 { return c.state.projection }

// SetModelView sets the model-view matrix.
func (c *Context) SetModelView(m mgl32.Mat4) { c.state.modelView = m }

// ModelView returns the model-view matrix.
func (c *Context) ModelView() mgl32.Mat4 { return c.state.modelView }

// pushState saves the render state and the bound
// framebuffer on behalf of fb.
func (c *Context) pushState(fb *Framebuffer) {
	c.saved = append(c.saved, savedState{fb, c.fb, c.state})
}

// popState restores the state that fb saved last.
// It is a logged no-op if the top of the stack was not
// saved by fb.
func (c *Context) popState(fb *Framebuffer) bool {
	n := len(c.saved) - 1
	if n < 0 || c.saved[n].owner != fb {
		c.log.Warn("gpu: unbalanced framebuffer unbind", "framebuffer", fb.h)
		return false
	}
	s := c.saved[n]
	c.saved[n] = savedState{}
	c.saved = c.saved[:n]
	c.bindFramebuffer(s.fb)
	c.SetViewport(s.viewport[0], s.viewport[1], s.viewport[2], s.viewport[3])
	c.SetScissorTest(s.scissor)
	c.state.projection = s.projection
	c.state.modelView = s.modelView
	return true
}
