// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package drivertest

import (
	"errors"
	"testing"

	"github.com/gviegas/gpux/driver"
)

func newTex(c *Context, ifmt driver.InternalFormat, w, h int) driver.Handle {
	x, _ := c.NewTexture()
	c.BindTexture(driver.Tex2D, x)
	c.TexImage(driver.Tex2D, ifmt, driver.Dim3D{Width: w, Height: h, Depth: 1}, driver.FmtRGBA, driver.TypeUByte, nil)
	c.BindTexture(driver.Tex2D, 0)
	return x
}

func TestCheckFramebuffer(t *testing.T) {
	c := New(DefaultConfig())
	fb, _ := c.NewFramebuffer()
	c.BindFramebuffer(fb)
	if x := c.CheckFramebuffer(); x != driver.StatusMissingAttachment {
		t.Fatalf("Context.CheckFramebuffer: empty\nhave %s\nwant %s", x, driver.StatusMissingAttachment)
	}

	a := newTex(c, driver.RGBA8, 8, 8)
	if err := c.FramebufferTexture(driver.AttachColor0, driver.Tex2D, a); err != nil {
		t.Fatalf("Context.FramebufferTexture: unexpected error:\n%#v", err)
	}
	if x := c.CheckFramebuffer(); x != driver.StatusComplete {
		t.Fatalf("Context.CheckFramebuffer:\nhave %s\nwant %s", x, driver.StatusComplete)
	}

	b := newTex(c, driver.RGBA16F, 8, 8)
	c.FramebufferTexture(driver.ColorAttachment(1), driver.Tex2D, b)
	if x := c.CheckFramebuffer(); x != driver.StatusIncompleteFormats {
		t.Fatalf("Context.CheckFramebuffer:\nhave %s\nwant %s", x, driver.StatusIncompleteFormats)
	}
	c.FramebufferTexture(driver.ColorAttachment(1), driver.Tex2D, 0)

	d := newTex(c, driver.DepthComponent, 8, 8)
	if err := c.FramebufferTexture(driver.AttachColor0, driver.Tex2D, d); err != nil {
		t.Fatalf("Context.FramebufferTexture: unexpected error:\n%#v", err)
	}
	if x := c.CheckFramebuffer(); x != driver.StatusIncompleteAttachment {
		t.Fatalf("Context.CheckFramebuffer:\nhave %s\nwant %s", x, driver.StatusIncompleteAttachment)
	}
	c.FramebufferTexture(driver.AttachColor0, driver.Tex2D, a)
	c.DrawBuffers([]driver.Attachment{driver.ColorAttachment(2)})
	if x := c.CheckFramebuffer(); x != driver.StatusIncompleteDrawBuffer {
		t.Fatalf("Context.CheckFramebuffer:\nhave %s\nwant %s", x, driver.StatusIncompleteDrawBuffer)
	}

	c.BindFramebuffer(0)
	if x := c.CheckFramebuffer(); x != driver.StatusComplete {
		t.Fatalf("Context.CheckFramebuffer: default\nhave %s\nwant %s", x, driver.StatusComplete)
	}
	if err := c.FramebufferTexture(driver.AttachColor0, driver.Tex2D, a); !errors.Is(err, driver.ErrInvalidOperation) {
		t.Fatalf("Context.FramebufferTexture: default\nhave %v\nwant %v", err, driver.ErrInvalidOperation)
	}
}

func TestLinkProgram(t *testing.T) {
	c := New(DefaultConfig())
	vs, _ := c.NewShader(driver.StageVertex)
	fs, _ := c.NewShader(driver.StageFragment)
	prog, _ := c.NewProgram()
	c.AttachShader(prog, vs)
	c.AttachShader(prog, fs)
	c.ShaderSource(vs, []string{"attribute vec3 p;\nattribute vec3 q;\n", "void main() { gl_Position = vec4(p, 1.0); }\n"})
	c.ShaderSource(fs, []string{"uniform vec4 k;\nuniform float z;\nvoid main() { gl_FragColor = k; }\n"})
	if !c.CompileShader(vs) || !c.CompileShader(fs) {
		t.Fatal("Context.CompileShader: unexpected failure")
	}
	if !c.LinkProgram(prog) {
		t.Fatalf("Context.LinkProgram: unexpected failure:\n%s", c.ProgramLog(prog))
	}
	if c.UniformLocation(prog, "k") == -1 || c.UniformLocation(prog, "z") != -1 {
		t.Fatal("Context.UniformLocation: unexpected activity")
	}
	if c.AttribLocation(prog, "p") == -1 || c.AttribLocation(prog, "q") != -1 {
		t.Fatal("Context.AttribLocation: unexpected activity")
	}

	c.ShaderSource(fs, []string{"void main() {\n#error nope\n}\n"})
	if c.CompileShader(fs) || c.ShaderLog(fs) == "" {
		t.Fatal("Context.CompileShader: #error should fail")
	}
	if c.LinkProgram(prog) {
		t.Fatal("Context.LinkProgram: should fail with uncompiled stage")
	}
}

func TestLinkProgramGeometry(t *testing.T) {
	c := New(DefaultConfig())
	vs, _ := c.NewShader(driver.StageVertex)
	gs, _ := c.NewShader(driver.StageGeometry)
	fs, _ := c.NewShader(driver.StageFragment)
	prog, _ := c.NewProgram()
	for _, h := range [...]driver.Handle{vs, gs, fs} {
		c.AttachShader(prog, h)
	}
	c.ShaderSource(vs, []string{"void main() { gl_Position = gl_Vertex; }\n"})
	c.ShaderSource(gs, []string{"void main() { EmitVertex(); }\n"})
	c.ShaderSource(fs, []string{"void main() { gl_FragColor = vec4(1.0); }\n"})
	for _, h := range [...]driver.Handle{vs, gs, fs} {
		if !c.CompileShader(h) {
			t.Fatalf("Context.CompileShader: unexpected failure:\n%s", c.ShaderLog(h))
		}
	}
	if c.LinkProgram(prog) {
		t.Fatal("Context.LinkProgram: should fail without geometry IO")
	}
	c.GeometryIO(prog, driver.PrimPoints, driver.PrimTriangleStrip, 4)
	if !c.LinkProgram(prog) {
		t.Fatalf("Context.LinkProgram: unexpected failure:\n%s", c.ProgramLog(prog))
	}
}

func TestFailures(t *testing.T) {
	c := New(DefaultConfig())
	c.FailTextures = 2
	for range 2 {
		if _, err := c.NewTexture(); !errors.Is(err, driver.ErrNoDeviceMemory) {
			t.Fatalf("Context.NewTexture:\nhave %v\nwant %v", err, driver.ErrNoDeviceMemory)
		}
	}
	if _, err := c.NewTexture(); err != nil {
		t.Fatalf("Context.NewTexture: unexpected error:\n%#v", err)
	}
	if c.TexAllocs != 1 || c.Live() != 1 {
		t.Fatalf("Context.NewTexture:\nhave %d allocs\nwant 1", c.TexAllocs)
	}
	c.DeleteTexture(99)
	if c.BadDeletes != 1 || c.Deleted[99] != 1 {
		t.Fatal("Context.DeleteTexture: bad delete not counted")
	}
}
