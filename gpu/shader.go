// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gpu

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gviegas/gpux/caps"
	"github.com/gviegas/gpux/driver"
)

// Shader is a linked shader program.
type Shader struct {
	ctx  *Context
	prog driver.Handle
	// Stage objects, indexed by driver.Stage.
	stages   [3]driver.Handle
	builtin  bool
	released bool
}

// ShaderSource describes the stages of a Shader.
// Empty stage sources are omitted.
type ShaderSource struct {
	Vertex   string
	Fragment string
	Geometry string
	// Lib is prepended to the fragment stage.
	Lib string
	// Defines is prepended to every stage.
	Defines string
	// GeometryIO configures the geometry stage, if
	// present.
	GeometryIO *GeometryIO
}

// GeometryIO describes the primitives consumed and
// produced by a geometry stage.
type GeometryIO struct {
	Input       driver.Primitive
	Output      driver.Primitive
	MaxVertices int
}

// shaderVersion returns the version directive that
// every stage starts with.
func (c *Context) shaderVersion() string {
	if c.caps.AtLeast(3, 0) &&
		(c.caps.Bicubic || c.caps.Matches(caps.DeviceATI, caps.OSAny, caps.DriverAny)) {
		return "#version 130\n"
	}
	return ""
}

// shaderExtensions returns the extension directives
// enabled by the capabilities of c.
func (c *Context) shaderExtensions() string {
	var sb strings.Builder
	if c.caps.Bicubic {
		sb.WriteString("#extension GL_ARB_texture_query_lod: enable\n")
	}
	if c.caps.Geometry {
		sb.WriteString("#extension GL_EXT_geometry_shader4: enable\n")
	}
	if c.caps.Instanced {
		sb.WriteString("#extension GL_EXT_gpu_shader4: enable\n")
		sb.WriteString("#extension GL_ARB_draw_instanced: enable\n")
	}
	return sb.String()
}

// shaderDefines returns the standard defines that
// identify the device.
func (c *Context) shaderDefines() string {
	var sb strings.Builder
	switch {
	case c.caps.Matches(caps.DeviceATI, caps.OSAny, caps.DriverAny):
		sb.WriteString("#define GPU_ATI\n")
		if c.caps.AtLeast(3, 0) {
			sb.WriteString("#define CLIP_WORKAROUND\n")
		}
	case c.caps.Matches(caps.DeviceNVIDIA, caps.OSAny, caps.DriverAny):
		sb.WriteString("#define GPU_NVIDIA\n")
	case c.caps.Matches(caps.DeviceIntel, caps.OSAny, caps.DriverAny):
		sb.WriteString("#define GPU_INTEL\n")
	}
	if c.caps.Bicubic {
		sb.WriteString("#define BUMP_BICUBIC\n")
	}
	return sb.String()
}

// NewShader compiles and links a new shader program.
func (c *Context) NewShader(src *ShaderSource) (*Shader, error) {
	switch {
	case src == nil:
		return nil, fmt.Errorf("%w: nil source", ErrInvalidParam)
	case !c.caps.GLSL:
		return nil, fmt.Errorf("%w: shading language", ErrUnsupported)
	case src.Geometry != "" && !c.caps.Geometry:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedStage, driver.StageGeometry)
	}

	s := &Shader{ctx: c}
	code := [3]string{src.Vertex, src.Fragment, src.Geometry}
	var err error
	for i := range code {
		if code[i] == "" {
			continue
		}
		if s.stages[i], err = c.dc.NewShader(driver.Stage(i)); err != nil {
			s.free()
			return nil, fmt.Errorf("%w: %s shader: %w", ErrAllocation, driver.Stage(i), err)
		}
	}
	if s.prog, err = c.dc.NewProgram(); err != nil {
		s.free()
		return nil, fmt.Errorf("%w: program: %w", ErrAllocation, err)
	}

	header := []string{c.shaderVersion(), c.shaderExtensions(), c.shaderDefines()}
	for i := range code {
		if code[i] == "" {
			continue
		}
		stage := driver.Stage(i)
		parts := append([]string(nil), header...)
		if src.Defines != "" {
			parts = append(parts, src.Defines)
		}
		if stage == driver.StageFragment && src.Lib != "" {
			parts = append(parts, src.Lib)
		}
		parts = append(parts, code[i])

		c.dc.AttachShader(s.prog, s.stages[i])
		c.dc.ShaderSource(s.stages[i], parts)
		if !c.dc.CompileShader(s.stages[i]) {
			log := c.dc.ShaderLog(s.stages[i])
			c.shaderErrors("compile", log, parts)
			s.free()
			return nil, &CompileError{Stage: stage, Log: log}
		}
		if stage == driver.StageGeometry && src.GeometryIO != nil {
			io := src.GeometryIO
			c.dc.GeometryIO(s.prog, io.Input, io.Output, io.MaxVertices)
		}
	}

	if !c.dc.LinkProgram(s.prog) {
		log := c.dc.ProgramLog(s.prog)
		var ctx string
		for _, x := range [...]string{src.Fragment, src.Vertex, src.Lib, src.Geometry} {
			if x != "" {
				ctx = x
				break
			}
		}
		c.shaderErrors("linking", log, []string{ctx})
		s.free()
		return nil, &LinkError{Log: log, Source: ctx}
	}

	c.shaders++
	c.log.Debug("gpu: shader created", "program", s.prog)
	return s, nil
}

// shaderErrors logs a compile or link log. In debug
// mode, the source strings are logged too, with line
// numbers.
func (c *Context) shaderErrors(task, log string, src []string) {
	if c.debug {
		var sb strings.Builder
		line := 1
		for i, s := range src {
			fmt.Fprintf(&sb, "===== shader string %d ====\n", i+1)
			for len(s) > 0 {
				n := strings.IndexByte(s, '\n')
				if n < 0 {
					sb.WriteString(s)
					break
				}
				fmt.Fprintf(&sb, "%2d  %s", line, s[:n+1])
				s = s[n+1:]
				line++
			}
		}
		c.log.Error("gpu: shader "+task+" error", "log", log, "source", sb.String())
		return
	}
	c.log.Error("gpu: shader "+task+" error", "log", log)
}

// free deletes the objects of s.
func (s *Shader) free() {
	dc := s.ctx.dc
	for i, h := range s.stages {
		if h != 0 {
			dc.DeleteShader(h)
			s.stages[i] = 0
		}
	}
	if s.prog != 0 {
		dc.DeleteProgram(s.prog)
		s.prog = 0
	}
}

// Release deletes s.
// Builtin shaders are owned by the Context and cannot be
// released by the caller.
func (s *Shader) Release() {
	c := s.ctx
	switch {
	case s.builtin:
		c.log.Warn("gpu: builtin shader cannot be released", "program", s.prog)
		return
	case s.released:
		c.log.Warn("gpu: shader released twice")
		return
	}
	s.free()
	s.released = true
	c.shaders--
}

// Program returns the native handle of the program.
func (s *Shader) Program() driver.Handle { return s.prog }

// Bind makes s the active program.
func (s *Shader) Bind() { s.ctx.dc.UseProgram(s.prog) }

// UnbindShader deactivates the active program.
func (c *Context) UnbindShader() { c.dc.UseProgram(0) }

// UniformLocation returns the location of the named
// uniform, or -1 if the uniform is not active.
func (s *Shader) UniformLocation(name string) int {
	return s.ctx.dc.UniformLocation(s.prog, name)
}

// AttribLocation returns the location of the named
// vertex attribute, or -1 if the attribute is not active.
func (s *Shader) AttribLocation(name string) int {
	return s.ctx.dc.AttribLocation(s.prog, name)
}

// SetUniform sets count elements of a float uniform of
// the active program.
// length is the number of components of each element:
// 1 to 4 for vectors, 9 and 16 for column-major 3x3 and
// 4x4 matrices. Other lengths are ignored, as is a loc
// of -1.
func (s *Shader) SetUniform(loc, length, count int, v []float32) {
	if loc == -1 {
		return
	}
	if len(v) < length*count {
		s.ctx.log.Warn("gpu: uniform data too short", "loc", loc, "length", length, "count", count)
		return
	}
	switch length {
	case 1, 2, 3, 4:
		s.ctx.dc.Uniformf(loc, length, count, v)
	case 9:
		s.ctx.dc.UniformMatrix(loc, 3, count, v)
	case 16:
		s.ctx.dc.UniformMatrix(loc, 4, count, v)
	}
}

// SetUniformInt sets count elements of an int uniform of
// the active program.
// length must be in [1, 4]. Other lengths are ignored,
// as is a loc of -1.
func (s *Shader) SetUniformInt(loc, length, count int, v []int32) {
	if loc == -1 {
		return
	}
	if len(v) < length*count {
		s.ctx.log.Warn("gpu: uniform data too short", "loc", loc, "length", length, "count", count)
		return
	}
	if length >= 1 && length <= 4 {
		s.ctx.dc.Uniformi(loc, length, count, v)
	}
}

// SetUniform1i sets a single int uniform.
func (s *Shader) SetUniform1i(loc int, v int32) {
	if loc == -1 {
		return
	}
	s.ctx.dc.Uniformi(loc, 1, 1, []int32{v})
}

// SetUniformMat3 sets a mat3 uniform.
func (s *Shader) SetUniformMat3(loc int, m mgl32.Mat3) { s.SetUniform(loc, 9, 1, m[:]) }

// SetUniformMat4 sets a mat4 uniform.
func (s *Shader) SetUniformMat4(loc int, m mgl32.Mat4) { s.SetUniform(loc, 16, 1, m[:]) }

// SetUniformTexture binds t to the unit it was last bound
// to and writes that unit to the sampler uniform at loc.
// t must be bound to a unit; otherwise SetUniformTexture
// logs and does nothing.
func (s *Shader) SetUniformTexture(loc int, t *Texture) {
	if loc == -1 {
		return
	}
	c := s.ctx
	switch {
	case t.unit >= c.caps.MaxTextureUnits:
		c.log.Warn("gpu: not enough texture slots", "unit", t.unit, "max", c.caps.MaxTextureUnits)
		return
	case t.unit == -1:
		c.log.Warn("gpu: uniform texture not bound to a unit", "texture", t.h, "loc", loc)
		return
	}
	if t.unit != 0 {
		c.dc.ActiveUnit(t.unit)
	}
	c.bindTexture(t.target, t.h)
	c.dc.Uniformi(loc, 1, 1, []int32{int32(t.unit)})
	if t.unit != 0 {
		c.dc.ActiveUnit(0)
	}
}
