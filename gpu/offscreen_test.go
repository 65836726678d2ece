// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gpu

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gviegas/gpux/driver"
	"github.com/gviegas/gpux/driver/drivertest"
)

func TestNewOffscreen(t *testing.T) {
	cfg := drivertest.DefaultConfig()
	cfg.RequireColorAndDepth = true
	c, dc := newContext(t, cfg)
	defer c.Close()

	base := dc.Live()
	o, err := c.NewOffscreen(64, 32)
	if err != nil {
		t.Fatalf("Context.NewOffscreen: unexpected error:\n%#v", err)
	}
	if dc.Live() != base+3 {
		t.Fatalf("Context.NewOffscreen: live objects\nhave %d\nwant %d", dc.Live(), base+3)
	}
	if o.Width() != 64 || o.Height() != 32 {
		t.Fatalf("Offscreen.Width/Height:\nhave %dx%d\nwant 64x32", o.Width(), o.Height())
	}
	if o.Color().Framebuffer() != o.Framebuffer() || o.Depth().Framebuffer() != o.Framebuffer() {
		t.Fatal("Context.NewOffscreen: textures not attached")
	}
	if o.Framebuffer().ColorTexture(0) != o.Color() || o.Framebuffer().DepthTexture() != o.Depth() {
		t.Fatal("Context.NewOffscreen: framebuffer slots not set")
	}
	if c.CurrentFramebuffer() != 0 || dc.BoundFB != 0 {
		t.Fatal("Context.NewOffscreen: default target should be bound")
	}

	o.Release()
	if dc.Live() != base || dc.BadDeletes != 0 {
		t.Fatalf("Offscreen.Release: live objects\nhave %d\nwant %d", dc.Live(), base)
	}
	// Must be a no-op.
	o.Release()
	if dc.BadDeletes != 0 {
		t.Fatal("Offscreen.Release: second call deleted handles")
	}
}

func TestNewOffscreenNPOT(t *testing.T) {
	c, _ := newContext(t, drivertest.DefaultConfig().Without(driver.ExtNonPowerOfTwo))
	defer c.Close()

	o, err := c.NewOffscreen(100, 50)
	if err != nil {
		t.Fatalf("Context.NewOffscreen: unexpected error:\n%#v", err)
	}
	defer o.Release()
	if o.Width() != 128 || o.Height() != 64 {
		t.Fatalf("Offscreen.Width/Height:\nhave %dx%d\nwant 128x64", o.Width(), o.Height())
	}
	if o.Color().Width() != 100 || o.Color().Height() != 50 {
		t.Fatalf("Texture.Width/Height:\nhave %dx%d\nwant 100x50", o.Color().Width(), o.Color().Height())
	}
}

func TestNewOffscreenFailure(t *testing.T) {
	noDepth := drivertest.DefaultConfig().Without(driver.ExtDepthTexture)
	noDepth.Major, noDepth.Minor = 1, 3

	for _, x := range [...]struct {
		name  string
		cfg   drivertest.Config
		setup func(*drivertest.Context)
		err   error
	}{
		{"framebuffer", drivertest.DefaultConfig(), func(dc *drivertest.Context) { dc.FailFramebuffers = 1 }, ErrAllocation},
		{"texture", drivertest.DefaultConfig(), func(dc *drivertest.Context) { dc.FailTextures = 1 }, ErrAllocation},
		{"attach", drivertest.DefaultConfig(), func(dc *drivertest.Context) { dc.RejectAttach = true }, ErrDriverRejected},
		{"depth", noDepth, func(*drivertest.Context) {}, ErrUnsupported},
		{"size", drivertest.DefaultConfig(), func(*drivertest.Context) {}, ErrInvalidSize},
	} {
		c, dc := newContext(t, x.cfg)
		base := dc.Live()
		x.setup(dc)
		w := 16
		if x.name == "size" {
			w = x.cfg.MaxTextureSize + 1
		}
		o, err := c.NewOffscreen(w, 16)
		if o != nil || !errors.Is(err, x.err) {
			t.Fatalf("Context.NewOffscreen: %s\nhave %v, %v\nwant nil, %v", x.name, o, err, x.err)
		}
		if dc.Live() != base || dc.BadDeletes != 0 {
			t.Fatalf("Context.NewOffscreen: %s\nhave %d live objects\nwant %d", x.name, dc.Live(), base)
		}
		if c.framebuffers.Len() != 0 || c.textures.Len() != len(c.invalid)-countNil(c.invalid[:]) {
			t.Fatalf("Context.NewOffscreen: %s: arena entries leaked", x.name)
		}
		if c.CurrentFramebuffer() != 0 {
			t.Fatalf("Context.NewOffscreen: %s: default target should be bound", x.name)
		}
		c.Close()
	}
}

func countNil(s []*Texture) (n int) {
	for _, t := range s {
		if t == nil {
			n++
		}
	}
	return
}

func TestOffscreenBind(t *testing.T) {
	c, dc := newContext(t, drivertest.DefaultConfig())
	defer c.Close()

	o, err := c.NewOffscreen(32, 16)
	if err != nil {
		t.Fatalf("Context.NewOffscreen: unexpected error:\n%#v", err)
	}
	defer o.Release()
	c.SetViewport(0, 0, 800, 600)
	c.SetScissorTest(true)

	if err := o.Bind(true); err != nil {
		t.Fatalf("Offscreen.Bind: unexpected error:\n%#v", err)
	}
	if dc.BoundFB != o.Framebuffer().Handle() || dc.Scissor || dc.VP != [4]int{0, 0, 32, 16} {
		t.Fatalf("Offscreen.Bind: state\nhave %d %t %v", dc.BoundFB, dc.Scissor, dc.VP)
	}
	if len(c.saved) != 1 {
		t.Fatal("Offscreen.Bind: state not saved")
	}
	o.Unbind(true)
	if dc.BoundFB != 0 || !dc.Scissor || dc.VP != [4]int{0, 0, 800, 600} || len(c.saved) != 0 {
		t.Fatalf("Offscreen.Unbind: state\nhave %d %t %v", dc.BoundFB, dc.Scissor, dc.VP)
	}

	if err := o.Bind(false); err != nil {
		t.Fatalf("Offscreen.Bind: unexpected error:\n%#v", err)
	}
	if dc.BoundFB != o.Framebuffer().Handle() || dc.Scissor || len(c.saved) != 0 {
		t.Fatalf("Offscreen.Bind: state\nhave %d %t (%d saved)", dc.BoundFB, dc.Scissor, len(c.saved))
	}
	o.Unbind(false)
	if dc.BoundFB != 0 || !dc.Scissor || dc.VP != [4]int{0, 0, 32, 16} {
		t.Fatalf("Offscreen.Unbind: state\nhave %d %t %v", dc.BoundFB, dc.Scissor, dc.VP)
	}
}

func TestOffscreenReadPixels(t *testing.T) {
	c, dc := newContext(t, drivertest.DefaultConfig())
	defer c.Close()

	o, err := c.NewOffscreen(8, 4)
	if err != nil {
		t.Fatalf("Context.NewOffscreen: unexpected error:\n%#v", err)
	}
	defer o.Release()
	o.Bind(false)
	defer o.Unbind(false)

	b := make([]byte, 8*4*4)
	if err := o.ReadPixels(driver.TypeUByte, b); err != nil {
		t.Fatalf("Offscreen.ReadPixels: unexpected error:\n%#v", err)
	}
	if !bytes.Equal(b, bytes.Repeat([]byte{128}, len(b))) {
		t.Fatal("Offscreen.ReadPixels: destination not filled")
	}
	if dc.LastRead != [4]int{0, 0, 8, 4} {
		t.Fatalf("Offscreen.ReadPixels: rectangle\nhave %v\nwant [0 0 8 4]", dc.LastRead)
	}
	f := make([]float32, 8*4*4)
	if err := o.ReadPixels(driver.TypeFloat, f); err != nil || f[len(f)-1] != 0.5 {
		t.Fatalf("Offscreen.ReadPixels: float\nhave %v, %v\nwant nil, 0.5", err, f[len(f)-1])
	}

	reads := dc.ReadCalls
	for _, x := range [...]struct {
		typ driver.DataType
		dst any
		err error
	}{
		{driver.TypeFloat, b, ErrInvalidParam},
		{driver.TypeUByte, f, ErrInvalidParam},
		{driver.TypeUByte, make([]int, 128), ErrInvalidParam},
		{driver.TypeUByte, b[:127], ErrInvalidSize},
		{driver.TypeFloat, f[:1], ErrInvalidSize},
	} {
		if err := o.ReadPixels(x.typ, x.dst); !errors.Is(err, x.err) {
			t.Fatalf("Offscreen.ReadPixels(%d, %T):\nhave %v\nwant %v", x.typ, x.dst, err, x.err)
		}
	}
	if dc.ReadCalls != reads {
		t.Fatal("Offscreen.ReadPixels: invalid calls reached the driver")
	}
}
