// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gpu

import (
	"embed"
	"fmt"

	"github.com/gviegas/gpux/driver"
)

//go:embed shaders
var shaderFS embed.FS

// glsl returns the contents of an embedded shader file.
func glsl(name string) string {
	b, err := shaderFS.ReadFile("shaders/" + name)
	if err != nil {
		// Should never happen.
		panic(err)
	}
	return string(b)
}

// BuiltinKind identifies a builtin shader.
type BuiltinKind int

// Builtin shaders.
const (
	// Stores depth moments for variance shadow maps.
	BuiltinVSMStore BuiltinKind = iota
	// Separable gaussian blur, one direction per pass.
	BuiltinSepGaussianBlur
	numBuiltins
)

// Effect identifies a builtin post-processing shader.
type Effect int

// Effects.
const (
	FXSSAO Effect = iota
	FXDOFPass1
	FXDOFPass2
	FXDOFPass3
	FXDOFPass4
	FXDOFPass5
	FXDOFHQPass1
	FXDOFHQPass2
	FXDOFHQPass3
	FXDepthResolve
	numEffects
)

// builtinKey identifies a builtin shader variant.
type builtinKey struct {
	fx    bool
	kind  int
	persp bool
}

var passDefines = [...]string{
	"#define FIRST_PASS\n",
	"#define SECOND_PASS\n",
	"#define THIRD_PASS\n",
	"#define FOURTH_PASS\n",
	"#define FIFTH_PASS\n",
}

// builtinSource returns the source of a builtin shader.
func builtinSource(kind BuiltinKind) *ShaderSource {
	switch kind {
	case BuiltinVSMStore:
		return &ShaderSource{
			Vertex:   glsl("vsm_store.vert"),
			Fragment: glsl("vsm_store.frag"),
		}
	case BuiltinSepGaussianBlur:
		return &ShaderSource{
			Vertex:   glsl("sep_gaussian_blur.vert"),
			Fragment: glsl("sep_gaussian_blur.frag"),
		}
	}
	return nil
}

// fxSource returns the source of a post-processing
// shader.
func fxSource(effect Effect, persp bool) *ShaderSource {
	var defines string
	if persp {
		defines = "#define PERSP_MATRIX\n"
	}
	lib := glsl("fx_lib.glsl")
	switch effect {
	case FXSSAO:
		return &ShaderSource{
			Vertex:   glsl("fx.vert"),
			Fragment: glsl("fx_ssao.frag"),
			Lib:      lib,
			Defines:  defines,
		}
	case FXDOFPass1, FXDOFPass2, FXDOFPass3, FXDOFPass4, FXDOFPass5:
		return &ShaderSource{
			Vertex:   glsl("fx_dof.vert"),
			Fragment: glsl("fx_dof.frag"),
			Lib:      lib,
			Defines:  defines + passDefines[effect-FXDOFPass1],
		}
	case FXDOFHQPass1, FXDOFHQPass3:
		return &ShaderSource{
			Vertex:   glsl("fx_dof_hq.vert"),
			Fragment: glsl("fx_dof_hq.frag"),
			Lib:      lib,
			Defines:  defines + passDefines[effect-FXDOFHQPass1],
		}
	case FXDOFHQPass2:
		return &ShaderSource{
			Vertex:   glsl("fx_dof_hq.vert"),
			Fragment: glsl("fx_dof_hq.frag"),
			Geometry: glsl("fx_dof_hq.geom"),
			Lib:      lib,
			Defines:  defines + passDefines[1],
			GeometryIO: &GeometryIO{
				Input:       driver.PrimPoints,
				Output:      driver.PrimTriangleStrip,
				MaxVertices: 4,
			},
		}
	case FXDepthResolve:
		return &ShaderSource{
			Vertex:   glsl("fx.vert"),
			Fragment: glsl("fx_depth_resolve.frag"),
			Defines:  defines,
		}
	}
	return nil
}

// Builtin returns the builtin shader of the given kind,
// creating it on first use.
// The shader is owned by c and released by Close.
func (c *Context) Builtin(kind BuiltinKind) (*Shader, error) {
	if kind < 0 || kind >= numBuiltins {
		return nil, fmt.Errorf("%w: builtin shader %d", ErrInvalidParam, kind)
	}
	return c.builtin(builtinKey{kind: int(kind)}, func() *ShaderSource { return builtinSource(kind) })
}

// BuiltinFX returns the post-processing shader of the
// given effect, creating it on first use.
// persp selects the variant for perspective projections.
// The shader is owned by c and released by Close.
func (c *Context) BuiltinFX(effect Effect, persp bool) (*Shader, error) {
	if effect < 0 || effect >= numEffects {
		return nil, fmt.Errorf("%w: effect %d", ErrInvalidParam, effect)
	}
	key := builtinKey{fx: true, kind: int(effect), persp: persp}
	return c.builtin(key, func() *ShaderSource { return fxSource(effect, persp) })
}

func (c *Context) builtin(key builtinKey, src func() *ShaderSource) (*Shader, error) {
	if s, ok := c.builtins[key]; ok {
		return s, nil
	}
	s, err := c.NewShader(src())
	if err != nil {
		c.log.Error("gpu: unable to create builtin shader",
			"fx", key.fx, "kind", key.kind, "persp", key.persp, "err", err)
		return nil, err
	}
	s.builtin = true
	c.builtins[key] = s
	return s, nil
}

// freeBuiltins releases every cached builtin shader.
func (c *Context) freeBuiltins() {
	for k, s := range c.builtins {
		s.free()
		c.shaders--
		delete(c.builtins, k)
	}
}
