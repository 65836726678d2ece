// Copyright 2024 Gustavo C. Viegas. All rights reserved.

//go:build gl

package ogl

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v3.2-compatibility/gl"

	"github.com/gviegas/gpux/driver"
)

func convTarget(t driver.Target) uint32 {
	switch t {
	case driver.Tex1D:
		return gl.TEXTURE_1D
	case driver.Tex3D:
		return gl.TEXTURE_3D
	}
	return gl.TEXTURE_2D
}

func convInternalFormat(f driver.InternalFormat) int32 {
	switch f {
	case driver.RGBA8:
		return gl.RGBA8
	case driver.RGBA16F:
		return gl.RGBA16F
	case driver.RGBA32F:
		return gl.RGBA32F
	case driver.RG8:
		return gl.RG8
	case driver.RG16F:
		return gl.RG16F
	case driver.RG32F:
		return gl.RG32F
	case driver.Intensity:
		return gl.INTENSITY8
	case driver.DepthComponent:
		return gl.DEPTH_COMPONENT
	}
	return gl.RGBA
}

func convPixelFormat(f driver.PixelFormat) uint32 {
	switch f {
	case driver.FmtRG:
		return gl.RG
	case driver.FmtRed:
		return gl.RED
	case driver.FmtDepth:
		return gl.DEPTH_COMPONENT
	}
	return gl.RGBA
}

func convDataType(t driver.DataType) uint32 {
	if t == driver.TypeFloat {
		return gl.FLOAT
	}
	return gl.UNSIGNED_BYTE
}

func convSamplerParam(p driver.SamplerParam) uint32 {
	switch p {
	case driver.MinFilter:
		return gl.TEXTURE_MIN_FILTER
	case driver.MagFilter:
		return gl.TEXTURE_MAG_FILTER
	case driver.WrapS:
		return gl.TEXTURE_WRAP_S
	case driver.WrapT:
		return gl.TEXTURE_WRAP_T
	case driver.WrapR:
		return gl.TEXTURE_WRAP_R
	case driver.CompareMode:
		return gl.TEXTURE_COMPARE_MODE
	}
	return gl.TEXTURE_COMPARE_FUNC
}

func convSamplerValue(v driver.SamplerValue) int32 {
	switch v {
	case driver.Nearest:
		return gl.NEAREST
	case driver.Linear:
		return gl.LINEAR
	case driver.ClampToEdge:
		return gl.CLAMP_TO_EDGE
	case driver.Repeat:
		return gl.REPEAT
	case driver.CompareNone:
		return gl.NONE
	case driver.CompareRefToTexture:
		return gl.COMPARE_REF_TO_TEXTURE
	}
	return gl.LEQUAL
}

// ptr returns a pointer to the first element of data,
// which must be nil, a []byte or a []float32.
// Empty slices yield nil.
func ptr(data any) unsafe.Pointer {
	switch d := data.(type) {
	case []byte:
		if len(d) == 0 {
			return nil
		}
	case []float32:
		if len(d) == 0 {
			return nil
		}
	default:
		return nil
	}
	return gl.Ptr(data)
}

func (c *Context) NewTexture() (driver.Handle, error) {
	var h uint32
	gl.GenTextures(1, &h)
	if h == 0 {
		return 0, fmt.Errorf("ogl: gen textures: %w", driver.ErrNoDeviceMemory)
	}
	return driver.Handle(h), nil
}

func (c *Context) DeleteTexture(h driver.Handle) {
	x := uint32(h)
	gl.DeleteTextures(1, &x)
}

func (c *Context) IsTexture(h driver.Handle) bool { return gl.IsTexture(uint32(h)) }

func (c *Context) ActiveUnit(unit int) { gl.ActiveTexture(gl.TEXTURE0 + uint32(unit)) }

func (c *Context) BindTexture(target driver.Target, h driver.Handle) {
	gl.BindTexture(convTarget(target), uint32(h))
}

func (c *Context) TexImage(target driver.Target, ifmt driver.InternalFormat, size driver.Dim3D, pf driver.PixelFormat, typ driver.DataType, data any) {
	t := convTarget(target)
	f, ty, p := convPixelFormat(pf), convDataType(typ), ptr(data)
	w, h, d := int32(size.Width), int32(size.Height), int32(size.Depth)
	switch target {
	case driver.Tex1D:
		gl.TexImage1D(t, 0, convInternalFormat(ifmt), w, 0, f, ty, p)
	case driver.Tex2D:
		gl.TexImage2D(t, 0, convInternalFormat(ifmt), w, h, 0, f, ty, p)
	case driver.Tex3D:
		gl.TexImage3D(t, 0, convInternalFormat(ifmt), w, h, d, 0, f, ty, p)
	}
}

func (c *Context) TexSubImage(target driver.Target, off driver.Off3D, size driver.Dim3D, pf driver.PixelFormat, typ driver.DataType, data any) {
	p := ptr(data)
	if p == nil {
		return
	}
	t := convTarget(target)
	f, ty := convPixelFormat(pf), convDataType(typ)
	x, y, z := int32(off.X), int32(off.Y), int32(off.Z)
	w, h, d := int32(size.Width), int32(size.Height), int32(size.Depth)
	switch target {
	case driver.Tex1D:
		gl.TexSubImage1D(t, 0, x, w, f, ty, p)
	case driver.Tex2D:
		gl.TexSubImage2D(t, 0, x, y, w, h, f, ty, p)
	case driver.Tex3D:
		gl.TexSubImage3D(t, 0, x, y, z, w, h, d, f, ty, p)
	}
}

func (c *Context) TexParameter(target driver.Target, param driver.SamplerParam, value driver.SamplerValue) {
	gl.TexParameteri(convTarget(target), convSamplerParam(param), convSamplerValue(value))
}

func (c *Context) TexBorderColor(target driver.Target, color [4]float32) {
	gl.TexParameterfv(convTarget(target), gl.TEXTURE_BORDER_COLOR, &color[0])
}

func (c *Context) TexSize(target driver.Target) driver.Dim3D {
	t := convTarget(target)
	var w, h, d int32
	gl.GetTexLevelParameteriv(t, 0, gl.TEXTURE_WIDTH, &w)
	gl.GetTexLevelParameteriv(t, 0, gl.TEXTURE_HEIGHT, &h)
	gl.GetTexLevelParameteriv(t, 0, gl.TEXTURE_DEPTH, &d)
	return driver.Dim3D{Width: int(w), Height: int(max(h, 1)), Depth: int(max(d, 1))}
}
