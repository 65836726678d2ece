// Copyright 2024 Gustavo C. Viegas. All rights reserved.

//go:build gl

package ogl

import (
	"fmt"

	"github.com/go-gl/gl/v3.2-compatibility/gl"

	"github.com/gviegas/gpux/driver"
)

func convStage(s driver.Stage) uint32 {
	switch s {
	case driver.StageFragment:
		return gl.FRAGMENT_SHADER
	case driver.StageGeometry:
		return gl.GEOMETRY_SHADER
	}
	return gl.VERTEX_SHADER
}

func (c *Context) NewShader(stage driver.Stage) (driver.Handle, error) {
	h := gl.CreateShader(convStage(stage))
	if h == 0 {
		return 0, fmt.Errorf("ogl: create %s shader: %w", stage, driver.ErrNoDeviceMemory)
	}
	return driver.Handle(h), nil
}

func (c *Context) ShaderSource(h driver.Handle, src []string) {
	if len(src) == 0 {
		return
	}
	cs := make([]string, len(src))
	for i := range src {
		cs[i] = src[i] + "\x00"
	}
	csources, free := gl.Strs(cs...)
	gl.ShaderSource(uint32(h), int32(len(cs)), csources, nil)
	free()
}

func (c *Context) CompileShader(h driver.Handle) bool {
	gl.CompileShader(uint32(h))
	var status int32
	gl.GetShaderiv(uint32(h), gl.COMPILE_STATUS, &status)
	return status != gl.FALSE
}

func (c *Context) ShaderLog(h driver.Handle) string {
	var n int32
	gl.GetShaderiv(uint32(h), gl.INFO_LOG_LENGTH, &n)
	if n <= 0 {
		return ""
	}
	b := make([]byte, n+1)
	gl.GetShaderInfoLog(uint32(h), n, nil, &b[0])
	return infoLog(b)
}

func (c *Context) DeleteShader(h driver.Handle) { gl.DeleteShader(uint32(h)) }

func (c *Context) NewProgram() (driver.Handle, error) {
	h := gl.CreateProgram()
	if h == 0 {
		return 0, fmt.Errorf("ogl: create program: %w", driver.ErrNoDeviceMemory)
	}
	return driver.Handle(h), nil
}

func (c *Context) AttachShader(prog, sh driver.Handle) { gl.AttachShader(uint32(prog), uint32(sh)) }

func convPrimitive(p driver.Primitive) int32 {
	switch p {
	case driver.PrimLines:
		return gl.LINES
	case driver.PrimLineStrip:
		return gl.LINE_STRIP
	case driver.PrimTriangles:
		return gl.TRIANGLES
	case driver.PrimTriangleStrip:
		return gl.TRIANGLE_STRIP
	}
	return gl.POINTS
}

// GeometryIO sets the EXT_geometry_shader4 parameters of
// prog. It must be called before LinkProgram.
func (c *Context) GeometryIO(prog driver.Handle, in, out driver.Primitive, maxVertices int) {
	p := uint32(prog)
	gl.ProgramParameteriEXT(p, gl.GEOMETRY_INPUT_TYPE_EXT, convPrimitive(in))
	gl.ProgramParameteriEXT(p, gl.GEOMETRY_OUTPUT_TYPE_EXT, convPrimitive(out))
	gl.ProgramParameteriEXT(p, gl.GEOMETRY_VERTICES_OUT_EXT, int32(maxVertices))
}

func (c *Context) LinkProgram(prog driver.Handle) bool {
	gl.LinkProgram(uint32(prog))
	var status int32
	gl.GetProgramiv(uint32(prog), gl.LINK_STATUS, &status)
	return status != gl.FALSE
}

func (c *Context) ProgramLog(prog driver.Handle) string {
	var n int32
	gl.GetProgramiv(uint32(prog), gl.INFO_LOG_LENGTH, &n)
	if n <= 0 {
		return ""
	}
	b := make([]byte, n+1)
	gl.GetProgramInfoLog(uint32(prog), n, nil, &b[0])
	return infoLog(b)
}

func (c *Context) DeleteProgram(prog driver.Handle) { gl.DeleteProgram(uint32(prog)) }

func (c *Context) UseProgram(prog driver.Handle) { gl.UseProgram(uint32(prog)) }

func (c *Context) UniformLocation(prog driver.Handle, name string) int {
	return int(gl.GetUniformLocation(uint32(prog), gl.Str(name+"\x00")))
}

func (c *Context) AttribLocation(prog driver.Handle, name string) int {
	return int(gl.GetAttribLocation(uint32(prog), gl.Str(name+"\x00")))
}

func (c *Context) Uniformf(loc, n, count int, v []float32) {
	if len(v) < n*count || count < 1 {
		return
	}
	l, k := int32(loc), int32(count)
	switch n {
	case 1:
		gl.Uniform1fv(l, k, &v[0])
	case 2:
		gl.Uniform2fv(l, k, &v[0])
	case 3:
		gl.Uniform3fv(l, k, &v[0])
	case 4:
		gl.Uniform4fv(l, k, &v[0])
	}
}

func (c *Context) Uniformi(loc, n, count int, v []int32) {
	if len(v) < n*count || count < 1 {
		return
	}
	l, k := int32(loc), int32(count)
	switch n {
	case 1:
		gl.Uniform1iv(l, k, &v[0])
	case 2:
		gl.Uniform2iv(l, k, &v[0])
	case 3:
		gl.Uniform3iv(l, k, &v[0])
	case 4:
		gl.Uniform4iv(l, k, &v[0])
	}
}

func (c *Context) UniformMatrix(loc, n, count int, v []float32) {
	if len(v) < n*n*count || count < 1 {
		return
	}
	switch n {
	case 3:
		gl.UniformMatrix3fv(int32(loc), int32(count), false, &v[0])
	case 4:
		gl.UniformMatrix4fv(int32(loc), int32(count), false, &v[0])
	}
}
