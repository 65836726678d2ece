// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gpu

import (
	"fmt"

	"github.com/gviegas/gpux/driver"
)

// FramebufferID identifies a Framebuffer in its Context.
type FramebufferID int

const noFramebuffer FramebufferID = -1

// MaxColorSlots is the number of color attachment slots
// of a Framebuffer.
const MaxColorSlots = 4

// AllSlots selects every attached color slot in
// Framebuffer.BindForDrawing.
const AllSlots = -1

// Framebuffer is a render target with MaxColorSlots color
// attachment slots and one depth attachment slot.
// Attached textures are not owned by the Framebuffer.
type Framebuffer struct {
	ctx   *Context
	id    FramebufferID
	h     driver.Handle
	color [MaxColorSlots]TextureID
	depth TextureID
}

// NewFramebuffer creates a new framebuffer with no
// attachments and no read/draw buffers selected.
func (c *Context) NewFramebuffer() (*Framebuffer, error) {
	if !c.caps.FramebufferObject {
		return nil, fmt.Errorf("%w: framebuffer objects", ErrUnsupported)
	}
	h, err := c.dc.NewFramebuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: framebuffer: %w", ErrAllocation, err)
	}
	// Buffers are selected at bind time; leaving them
	// set would fail the completeness check of
	// framebuffers lacking color slot 0.
	c.dc.BindFramebuffer(h)
	c.dc.ReadBuffer(driver.AttachNone)
	c.dc.DrawBuffers(nil)
	c.dc.BindFramebuffer(c.fb)

	fb := &Framebuffer{
		ctx:   c,
		h:     h,
		color: [MaxColorSlots]TextureID{noTexture, noTexture, noTexture, noTexture},
		depth: noTexture,
	}
	fb.id = c.framebuffers.Insert(fb)
	c.log.Debug("gpu: framebuffer created", "handle", h)
	return fb, nil
}

// link records that t is attached to fb at slot.
// link and unlink are the only writers of the relation
// between textures and framebuffers.
func (c *Context) link(fb *Framebuffer, t *Texture, slot int) {
	if t.isDepth {
		fb.depth = t.id
		t.slot = -1
	} else {
		fb.color[slot] = t.id
		t.slot = slot
	}
	t.fb = fb.id
}

// unlink clears both sides of the relation between fb
// and t.
func (c *Context) unlink(fb *Framebuffer, t *Texture) {
	switch {
	case t.isDepth:
		if fb.depth == t.id {
			fb.depth = noTexture
		}
	case t.slot >= 0 && t.slot < MaxColorSlots:
		if fb.color[t.slot] == t.id {
			fb.color[t.slot] = noTexture
		}
	}
	t.fb = noFramebuffer
	t.slot = -1
}

// attachment returns the attachment point that t
// occupies or would occupy at slot.
func attachment(t *Texture, slot int) driver.Attachment {
	if t.isDepth {
		return driver.AttachDepth
	}
	return driver.ColorAttachment(slot)
}

// detach detaches t from its framebuffer. The current
// framebuffer is bound again afterwards.
func (c *Context) detach(t *Texture) {
	fb, ok := c.framebuffers.Get(t.fb)
	if !ok {
		t.fb = noFramebuffer
		t.slot = -1
		return
	}
	if prev := c.fb; prev != fb.h {
		c.bindFramebuffer(fb.h)
		defer c.bindFramebuffer(prev)
	}
	if err := c.dc.FramebufferTexture(attachment(t, t.slot), t.target, 0); err != nil {
		c.log.Warn("gpu: detach failed", "framebuffer", fb.h, "texture", t.h, "err", err)
	}
	c.unlink(fb, t)
}

// Attach attaches t to fb.
// Color textures are attached to the given slot, which
// must be in [0, MaxColorSlots). Depth textures ignore
// slot and are attached to the depth slot.
// If t is attached to another framebuffer, or if the slot
// is occupied, those attachments are undone.
// fb is left bound on success. If the driver rejects the
// attachment, no relation changes and the default target
// is bound.
func (fb *Framebuffer) Attach(t *Texture, slot int) error {
	c := fb.ctx
	switch {
	case fb.id == noFramebuffer:
		return fmt.Errorf("%w: framebuffer", ErrReleased)
	case t == nil:
		return fmt.Errorf("%w: nil texture", ErrInvalidParam)
	case t.refs <= 0:
		return fmt.Errorf("%w: texture", ErrReleased)
	case !t.isDepth && (slot < 0 || slot >= MaxColorSlots):
		c.log.Warn("gpu: framebuffer slot unsupported", "slot", slot, "max", MaxColorSlots)
		return fmt.Errorf("%w: %d", ErrSlotOutOfRange, slot)
	}
	if c.debug && t.unit != -1 {
		c.log.Warn("gpu: feedback loop: attaching texture still bound to a unit",
			"texture", t.h, "unit", t.unit)
	}

	att := attachment(t, slot)
	c.bindFramebuffer(fb.h)
	if t.fb == fb.id && attachment(t, t.slot) == att {
		return nil
	}
	if err := c.dc.FramebufferTexture(att, t.target, t.h); err != nil {
		c.RestoreFramebuffer()
		return fmt.Errorf("%w: %w", ErrDriverRejected, err)
	}

	// The driver replaced the occupant of att.
	occ := fb.depth
	if !t.isDepth {
		occ = fb.color[slot]
	}
	if o, ok := c.textures.Get(occ); ok {
		c.unlink(fb, o)
	}
	if t.fb != noFramebuffer {
		c.detach(t)
	}
	c.link(fb, t, slot)
	return nil
}

// Detach detaches t from fb.
// It does nothing if t is not attached to fb. The texture
// itself is not released.
func (fb *Framebuffer) Detach(t *Texture) {
	if t == nil || fb.id == noFramebuffer || t.fb != fb.id {
		return
	}
	fb.ctx.detach(t)
}

// CheckValid runs the completeness check on fb.
// On failure the default target is bound and an
// *IncompleteError is returned.
func (fb *Framebuffer) CheckValid() error {
	c := fb.ctx
	if fb.id == noFramebuffer {
		return fmt.Errorf("%w: framebuffer", ErrReleased)
	}
	c.bindFramebuffer(fb.h)
	if st := c.dc.CheckFramebuffer(); st != driver.StatusComplete {
		c.RestoreFramebuffer()
		return &IncompleteError{Reason: reasonOf(st), Status: st}
	}
	return nil
}

// colorTexture returns the texture attached to the given
// color slot.
func (fb *Framebuffer) colorTexture(slot int) (*Texture, error) {
	if slot < 0 || slot >= MaxColorSlots {
		return nil, fmt.Errorf("%w: %d", ErrSlotOutOfRange, slot)
	}
	t, ok := fb.ctx.textures.Get(fb.color[slot])
	if !ok {
		fb.ctx.log.Warn("gpu: framebuffer slot empty", "framebuffer", fb.h, "slot", slot)
		return nil, fmt.Errorf("%w: %d", ErrSlotEmpty, slot)
	}
	return t, nil
}

// BindForDrawing binds fb for drawing into the given
// color slot, or into every attached color slot if slot is
// AllSlots (reading from the lowest one).
// The framebuffer binding, viewport, scissor test and
// matrices are saved, the scissor test is disabled and
// the viewport is set to the extent of the attachment.
// Every successful call must be paired with a call to
// Unbind.
func (fb *Framebuffer) BindForDrawing(slot int) error {
	c := fb.ctx
	if fb.id == noFramebuffer {
		return fmt.Errorf("%w: framebuffer", ErrReleased)
	}
	var draw []driver.Attachment
	read := slot
	if slot == AllSlots {
		read = -1
		for i, id := range fb.color {
			if id == noTexture {
				continue
			}
			if read == -1 {
				read = i
			}
			draw = append(draw, driver.ColorAttachment(i))
		}
		if read == -1 {
			return fmt.Errorf("%w: no color attachment", ErrSlotEmpty)
		}
	} else {
		draw = []driver.Attachment{driver.ColorAttachment(slot)}
	}
	t, err := fb.colorTexture(read)
	if err != nil {
		return err
	}

	c.pushState(fb)
	c.SetScissorTest(false)
	c.bindFramebuffer(fb.h)
	c.dc.DrawBuffers(draw)
	c.dc.ReadBuffer(driver.ColorAttachment(read))
	c.SetViewport(0, 0, t.storage.Width, t.storage.Height)
	return nil
}

// Unbind restores the state saved by the last call to
// BindForDrawing (or Texture.BindAsFramebuffer) on fb.
// It logs and does nothing if that call was not the
// most recent unrestored one.
func (fb *Framebuffer) Unbind() { fb.ctx.popState(fb) }

// DrawTo calls fn with fb bound for drawing into slot and
// restores the previous state when fn returns or panics.
func (fb *Framebuffer) DrawTo(slot int, fn func() error) error {
	if err := fb.BindForDrawing(slot); err != nil {
		return err
	}
	defer fb.Unbind()
	return fn()
}

// BindNoSave binds fb for drawing into the given color
// slot without saving any state.
func (fb *Framebuffer) BindNoSave(slot int) error {
	c := fb.ctx
	if fb.id == noFramebuffer {
		return fmt.Errorf("%w: framebuffer", ErrReleased)
	}
	t, err := fb.colorTexture(slot)
	if err != nil {
		return err
	}
	att := driver.ColorAttachment(slot)
	c.bindFramebuffer(fb.h)
	c.dc.DrawBuffers([]driver.Attachment{att})
	c.dc.ReadBuffer(att)
	c.SetViewport(0, 0, t.storage.Width, t.storage.Height)
	return nil
}

// Release detaches every texture from fb and deletes its
// handle. Attached textures are not released.
// If fb is bound, the default target is bound.
func (fb *Framebuffer) Release() {
	c := fb.ctx
	if fb.id == noFramebuffer {
		c.log.Warn("gpu: framebuffer released twice", "framebuffer", fb.h)
		return
	}
	if t, ok := c.textures.Get(fb.depth); ok {
		c.detach(t)
	}
	for _, id := range fb.color {
		if t, ok := c.textures.Get(id); ok {
			c.detach(t)
		}
	}
	c.dc.DeleteFramebuffer(fb.h)
	if c.fb == fb.h {
		c.bindFramebuffer(0)
	}
	c.framebuffers.Remove(fb.id)
	c.log.Debug("gpu: framebuffer destroyed", "handle", fb.h)
	fb.id = noFramebuffer
}

// ID returns the identifier of fb in its Context.
// It is -1 once fb is released.
func (fb *Framebuffer) ID() FramebufferID { return fb.id }

// Handle returns the native handle of fb.
func (fb *Framebuffer) Handle() driver.Handle { return fb.h }

// ColorTexture returns the texture attached to the given
// color slot, or nil.
func (fb *Framebuffer) ColorTexture(slot int) *Texture {
	if slot < 0 || slot >= MaxColorSlots {
		return nil
	}
	t, _ := fb.ctx.textures.Get(fb.color[slot])
	return t
}

// DepthTexture returns the texture attached to the depth
// slot, or nil.
func (fb *Framebuffer) DepthTexture() *Texture {
	t, _ := fb.ctx.textures.Get(fb.depth)
	return t
}
