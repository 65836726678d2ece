// Copyright 2024 Gustavo C. Viegas. All rights reserved.

//go:build gl

package ogl

import (
	"testing"

	"github.com/go-gl/gl/v3.2-compatibility/gl"

	"github.com/gviegas/gpux/driver"
)

func TestConvPrimitive(t *testing.T) {
	for _, x := range [...]struct {
		prim driver.Primitive
		want int32
	}{
		{driver.PrimPoints, gl.POINTS},
		{driver.PrimLines, gl.LINES},
		{driver.PrimLineStrip, gl.LINE_STRIP},
		{driver.PrimTriangles, gl.TRIANGLES},
		{driver.PrimTriangleStrip, gl.TRIANGLE_STRIP},
	} {
		if have := convPrimitive(x.prim); have != x.want {
			t.Fatalf("convPrimitive(%d):\nhave 0x%x\nwant 0x%x", x.prim, have, x.want)
		}
	}
}

func TestConvInternalFormat(t *testing.T) {
	for _, x := range [...]struct {
		ifmt driver.InternalFormat
		want int32
	}{
		{driver.RGBA8, gl.RGBA8},
		{driver.RGBA16F, gl.RGBA16F},
		{driver.RGBA32F, gl.RGBA32F},
		{driver.RG8, gl.RG8},
		{driver.RG16F, gl.RG16F},
		{driver.RG32F, gl.RG32F},
		{driver.RGBA, gl.RGBA},
		{driver.Intensity, gl.INTENSITY8},
		{driver.DepthComponent, gl.DEPTH_COMPONENT},
	} {
		if have := convInternalFormat(x.ifmt); have != x.want {
			t.Fatalf("convInternalFormat(%d):\nhave 0x%x\nwant 0x%x", x.ifmt, have, x.want)
		}
	}
}

func TestConvStatus(t *testing.T) {
	for _, x := range [...]struct {
		status uint32
		want   driver.Status
	}{
		{gl.FRAMEBUFFER_COMPLETE, driver.StatusComplete},
		{gl.FRAMEBUFFER_INCOMPLETE_ATTACHMENT, driver.StatusIncompleteAttachment},
		{gl.FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT, driver.StatusMissingAttachment},
		{framebufferIncompleteDimensionsEXT, driver.StatusIncompleteDimensions},
		{framebufferIncompleteFormatsEXT, driver.StatusIncompleteFormats},
		{gl.FRAMEBUFFER_INCOMPLETE_DRAW_BUFFER, driver.StatusIncompleteDrawBuffer},
		{gl.FRAMEBUFFER_INCOMPLETE_READ_BUFFER, driver.StatusIncompleteReadBuffer},
		{gl.FRAMEBUFFER_UNSUPPORTED, driver.StatusUnsupported},
		{0, driver.StatusInvalidOperation},
		{0xffff, driver.StatusUnknown},
	} {
		if have := convStatus(x.status); have != x.want {
			t.Fatalf("convStatus(0x%x):\nhave %v\nwant %v", x.status, have, x.want)
		}
	}
}
