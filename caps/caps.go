// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package caps provides the capability registry of a
// driver context.
// A Caps value is queried once, when the context is set
// up, and is read-only afterwards.
package caps

import (
	"runtime"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gviegas/gpux/driver"
)

// Device identifies a GPU vendor family.
type Device int

// Devices.
const (
	DeviceATI Device = 1 << iota
	DeviceNVIDIA
	DeviceIntel
	DeviceSoftware
	DeviceUnknown
	DeviceAny Device = 0xff
)

// OS identifies the host operating system.
type OS int

// Operating systems.
const (
	OSWindows OS = 1 << iota
	OSMac
	OSUnix
	OSAny OS = 0xff
)

// DriverKind identifies the kind of driver in use.
type DriverKind int

// Driver kinds.
const (
	DriverOfficial DriverKind = 1 << iota
	DriverOpenSource
	DriverSoftware
	DriverUnknown
	DriverAny DriverKind = 0xff
)

// Caps is a snapshot of the capabilities of a driver
// context.
type Caps struct {
	MaxTextureSize  int
	MaxTextureUnits int
	// ColorDepth is the sum of the red, green and blue
	// bits of the default target.
	ColorDepth int
	Major      int
	Minor      int

	Vendor   string
	Renderer string
	Version  string

	Device Device
	OS     OS
	Driver DriverKind

	GLSL              bool
	NonPowerOfTwo     bool
	VertexBuffer      bool
	DisplayList       bool
	Bicubic           bool
	Geometry          bool
	Instanced         bool
	FramebufferObject bool
	DepthTexture      bool
	Texture3D         bool

	// DfdyFactors holds the sign correction applied to
	// dFdy in shaders, on screen and off screen
	// respectively.
	DfdyFactors mgl32.Vec2
}

// Option configures Init.
type Option func(*options)

type options struct {
	noExt bool
	os    OS
	osSet bool
}

// WithExtensionsDisabled makes the registry report no
// shader support regardless of what the driver offers.
func WithExtensionsDisabled() Option {
	return func(o *options) { o.noExt = true }
}

// WithOS overrides the operating system detected from
// runtime.GOOS.
func WithOS(os OS) Option {
	return func(o *options) {
		o.os = os
		o.osSet = true
	}
}

func hostOS() OS {
	switch runtime.GOOS {
	case "windows":
		return OSWindows
	case "darwin", "ios":
		return OSMac
	}
	return OSUnix
}

// AtLeast reports whether the context version is at
// least major.minor.
func (c *Caps) AtLeast(major, minor int) bool {
	return c.Major > major || (c.Major == major && c.Minor >= minor)
}

// Init queries dc and returns its capabilities.
// It also disables two-sided lighting on dc, so that it
// is only enabled where explicitly needed.
func Init(dc driver.Context, opts ...Option) *Caps {
	var o options
	for _, f := range opts {
		f(&o)
	}
	if !o.osSet {
		o.os = hostOS()
	}

	c := &Caps{
		MaxTextureSize: dc.Integer(driver.MaxTextureSize),
		ColorDepth: dc.Integer(driver.RedBits) +
			dc.Integer(driver.GreenBits) +
			dc.Integer(driver.BlueBits),
		Vendor:   dc.String(driver.Vendor),
		Renderer: dc.String(driver.Renderer),
		Version:  dc.String(driver.VersionString),
		OS:       o.os,
	}
	c.Major, c.Minor = dc.Version()
	has := dc.HasExtension
	c.MaxTextureUnits = 1
	if has(driver.ExtMultitexture) {
		c.MaxTextureUnits = dc.Integer(driver.MaxTextureUnits)
	}

	c.GLSL = !o.noExt &&
		has(driver.ExtMultitexture) &&
		has(driver.ExtVertexShader) &&
		has(driver.ExtFragmentShader)

	s := strs{c.Vendor, c.Renderer, c.Version}
	c.Device, c.Driver = classify(&s)
	legacy := c.Device == DeviceATI && isLegacyATI(&s)

	c.NonPowerOfTwo = !legacy && has(driver.ExtNonPowerOfTwo)
	c.DisplayList = !legacy
	c.VertexBuffer = has(driver.ExtVertexBufferObject) || c.AtLeast(1, 5)
	c.Bicubic = has(driver.ExtTextureQueryLOD) && c.AtLeast(3, 0)
	c.Geometry = has(driver.ExtGeometryShader4) || c.AtLeast(3, 2)
	c.Instanced = has(driver.ExtDrawInstanced)
	c.FramebufferObject = has(driver.ExtFramebufferObject) || c.AtLeast(3, 0)
	c.DepthTexture = has(driver.ExtDepthTexture) || c.AtLeast(1, 4)
	c.Texture3D = c.AtLeast(1, 2)

	switch {
	case strings.Contains(c.Vendor, "ATI") && strings.Contains(c.Version, "3.3.10750"):
		c.DfdyFactors = mgl32.Vec2{1, -1}
	case c.Device == DeviceIntel && c.OS == OSWindows:
		c.DfdyFactors = mgl32.Vec2{-1, 1}
	default:
		c.DfdyFactors = mgl32.Vec2{1, 1}
	}

	dc.SetTwoSidedLighting(false)
	return c
}

// Matches reports whether the classification of c
// intersects every given mask.
func (c *Caps) Matches(dev Device, os OS, drv DriverKind) bool {
	return c.Device&dev != 0 && c.OS&os != 0 && c.Driver&drv != 0
}
