// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gpu

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gviegas/gpux/driver"
	"github.com/gviegas/gpux/driver/drivertest"
)

// newContext creates a Context on top of a new
// drivertest.Context configured by cfg.
func newContext(t *testing.T, cfg drivertest.Config, opts ...Option) (*Context, *drivertest.Context) {
	t.Helper()
	dc := drivertest.New(cfg)
	c, err := New(dc, opts...)
	if err != nil {
		t.Fatalf("New: unexpected error:\n%#v", err)
	}
	return c, dc
}

// newLogger returns a logger that writes every record
// to the returned buffer.
func newLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(h), &buf
}

func TestNew(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, driver.ErrNoContext) {
		t.Fatalf("New(nil):\nhave %v\nwant %v", err, driver.ErrNoContext)
	}

	c, dc := newContext(t, drivertest.DefaultConfig())
	if dc.TwoSided {
		t.Fatal("New: two-sided lighting should be disabled")
	}
	if x := dc.TexAllocs; x != 3 {
		t.Fatalf("New: placeholder textures\nhave %d\nwant 3", x)
	}
	for i, p := range c.invalid {
		if p == nil {
			t.Fatalf("New: missing placeholder for %s", driver.Target(i))
		}
		tex := dc.Textures[p.h]
		if tex.Target != driver.Target(i) {
			t.Fatalf("New: placeholder target\nhave %s\nwant %s", tex.Target, driver.Target(i))
		}
		if len(tex.Uploads) == 0 {
			t.Fatalf("New: %s placeholder has no content", tex.Target)
		}
	}
	// 1D/2D placeholders are byte precision; 3D ones are
	// always float.
	if x := dc.Textures[c.invalid[driver.Tex2D].h].Uploads[0].Data.([]byte); !bytes.Equal(x, []byte{255, 0, 255, 255}) {
		t.Fatalf("New: 2D placeholder color\nhave %v\nwant [255 0 255 255]", x)
	}
	if x := c.CurrentFramebuffer(); x != 0 {
		t.Fatalf("Context.CurrentFramebuffer:\nhave %d\nwant 0", x)
	}
	if c.Projection() != mgl32.Ident4() || c.ModelView() != mgl32.Ident4() {
		t.Fatal("New: matrices should start as identity")
	}

	c.Close()
	if dc.TexFrees != dc.TexAllocs {
		t.Fatalf("Context.Close: placeholders not freed\nhave %d\nwant %d", dc.TexFrees, dc.TexAllocs)
	}
	if dc.BadDeletes != 0 {
		t.Fatalf("Context.Close: bad deletes\nhave %d\nwant 0", dc.BadDeletes)
	}
	// Must be a no-op.
	c.Close()
	if dc.BadDeletes != 0 {
		t.Fatalf("Context.Close: bad deletes\nhave %d\nwant 0", dc.BadDeletes)
	}
}

func TestNewNo3D(t *testing.T) {
	cfg := drivertest.DefaultConfig()
	cfg.Major, cfg.Minor = 1, 1
	c, dc := newContext(t, cfg)
	defer c.Close()
	if c.invalid[driver.Tex3D] != nil {
		t.Fatal("New: 3D placeholder without 3D texture support")
	}
	if x := dc.TexAllocs; x != 2 {
		t.Fatalf("New: placeholder textures\nhave %d\nwant 2", x)
	}
}

func TestNewAllocFailure(t *testing.T) {
	dc := drivertest.New(drivertest.DefaultConfig())
	dc.FailTextures = 1
	if _, err := New(dc); !errors.Is(err, ErrAllocation) {
		t.Fatalf("New:\nhave %v\nwant %v", err, ErrAllocation)
	}
	if x := dc.Live(); x != 0 {
		t.Fatalf("New: leaked objects\nhave %d\nwant 0", x)
	}
}

func TestOpen(t *testing.T) {
	cfg := drivertest.DefaultConfig()
	cfg.Name = "gpu-open-test"
	dc := drivertest.New(cfg)
	driver.Register(dc.Driver())

	if _, err := Open("no-such-driver"); err == nil {
		t.Fatal("Open: unexpected success")
	}
	c, err := Open("GPU-OPEN")
	if err != nil {
		t.Fatalf("Open: unexpected error:\n%#v", err)
	}
	if c.Driver() != driver.Context(dc) {
		t.Fatal("Open: wrong driver context")
	}
	if c.drv == nil {
		t.Fatal("Open: Context should own the driver")
	}
	c.Close()
}

func TestCloseLeaks(t *testing.T) {
	log, buf := newLogger()
	c, _ := newContext(t, drivertest.DefaultConfig(), WithLogger(log))
	tex, err := c.NewTexture2D(4, 4, nil, Byte)
	if err != nil {
		t.Fatalf("Context.NewTexture2D: unexpected error:\n%#v", err)
	}
	fb, err := c.NewFramebuffer()
	if err != nil {
		t.Fatalf("Context.NewFramebuffer: unexpected error:\n%#v", err)
	}
	c.Close()
	for _, s := range [...]string{
		"leaked textures",
		"leaked framebuffers",
		fmt.Sprintf("handles=[%d]", tex.Handle()),
		fmt.Sprintf("handles=[%d]", fb.Handle()),
	} {
		if !strings.Contains(buf.String(), s) {
			t.Fatalf("Context.Close: missing %q warning in log:\n%s", s, buf)
		}
	}
	if strings.Contains(buf.String(), "leaked shaders") {
		t.Fatalf("Context.Close: unexpected shader leak warning:\n%s", buf)
	}
}

func TestRenderState(t *testing.T) {
	c, dc := newContext(t, drivertest.DefaultConfig())
	defer c.Close()

	c.SetViewport(1, 2, 3, 4)
	if x, y, w, h := c.Viewport(); [4]int{x, y, w, h} != [4]int{1, 2, 3, 4} || dc.VP != [4]int{1, 2, 3, 4} {
		t.Fatalf("Context.SetViewport:\nhave %v %v\nwant [1 2 3 4]", [4]int{x, y, w, h}, dc.VP)
	}
	c.SetScissorTest(true)
	if !c.ScissorTest() || !dc.Scissor {
		t.Fatal("Context.SetScissorTest: scissor test should be enabled")
	}
	c.SetScissorTest(false)
	if c.ScissorTest() || dc.Scissor {
		t.Fatal("Context.SetScissorTest: scissor test should be disabled")
	}
	p := mgl32.Perspective(mgl32.DegToRad(60), 1, 0.1, 100)
	c.SetProjection(p)
	if c.Projection() != p {
		t.Fatalf("Context.Projection:\nhave %v\nwant %v", c.Projection(), p)
	}
	m := mgl32.Translate3D(1, 2, 3)
	c.SetModelView(m)
	if c.ModelView() != m {
		t.Fatalf("Context.ModelView:\nhave %v\nwant %v", c.ModelView(), m)
	}
}

func TestErrorString(t *testing.T) {
	if s := ErrorString(nil); s != "" {
		t.Fatalf("ErrorString(nil):\nhave %q\nwant \"\"", s)
	}
	if s := ErrorString(ErrAllocation); s != ErrAllocation.Error() {
		t.Fatalf("ErrorString:\nhave %q\nwant %q", s, ErrAllocation.Error())
	}
	long := errors.New(strings.Repeat("é", 300))
	s := ErrorString(long)
	if len(s) >= 256 {
		t.Fatalf("ErrorString: length\nhave %d\nwant < 256", len(s))
	}
	if s != strings.Repeat("é", len(s)/2) {
		t.Fatal("ErrorString: split a multi-byte character")
	}
	if len(s) != 254 {
		t.Fatalf("ErrorString: length\nhave %d\nwant 254", len(s))
	}
}
