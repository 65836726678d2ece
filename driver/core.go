// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package driver

// Handle is an opaque identifier of a native resource.
// The zero Handle never identifies a valid resource;
// for framebuffers, it denotes the default target.
type Handle uint32

// Context is the main interface to an underlying driver
// implementation.
// It wraps the native calls that the resource layer
// needs. A Context is obtained from a call to Driver.Open.
// It is not safe for concurrent use, and every method
// must be called from the thread that owns the native
// context.
type Context interface {
	// Driver returns the Driver that owns the Context.
	Driver() Driver

	// String returns one of the identification strings of
	// the implementation.
	String(name StringName) string

	// Integer returns an implementation limit or property.
	Integer(name IntName) int

	// Version returns the API version of the context.
	Version() (major, minor int)

	// HasExtension reports whether the named extension is
	// supported. Implementations may report extensions
	// promoted to core in Version as supported.
	HasExtension(ext string) bool

	// SetTwoSidedLighting enables or disables two-sided
	// lighting in legacy lighting models.
	// Implementations lacking fixed-function lighting
	// treat it as a no-op.
	SetTwoSidedLighting(enable bool)

	// SetScissorTest enables or disables the scissor test.
	SetScissorTest(enable bool)

	// Viewport sets the viewport rectangle.
	Viewport(x, y, width, height int)

	// NewTexture allocates a new texture handle.
	NewTexture() (Handle, error)

	// DeleteTexture deletes a texture handle.
	DeleteTexture(h Handle)

	// IsTexture reports whether h names a live texture.
	IsTexture(h Handle) bool

	// ActiveUnit selects the texture unit that subsequent
	// BindTexture calls affect.
	ActiveUnit(unit int)

	// BindTexture binds h to target on the active unit.
	// A zero h unbinds the target.
	BindTexture(target Target, h Handle)

	// TexImage specifies the storage of the texture bound
	// to target on the active unit.
	// data must be nil, a []byte or a []float32.
	TexImage(target Target, ifmt InternalFormat, size Dim3D, fmt PixelFormat, typ DataType, data any)

	// TexSubImage replaces a region of the texture bound
	// to target on the active unit.
	// data must be a []byte or a []float32.
	TexSubImage(target Target, off Off3D, size Dim3D, fmt PixelFormat, typ DataType, data any)

	// TexParameter sets a sampling parameter of the
	// texture bound to target on the active unit.
	TexParameter(target Target, param SamplerParam, value SamplerValue)

	// TexBorderColor sets the border color of the texture
	// bound to target on the active unit.
	TexBorderColor(target Target, color [4]float32)

	// TexSize returns the extent of the first level of
	// the texture bound to target on the active unit.
	TexSize(target Target) Dim3D

	// NewFramebuffer allocates a new framebuffer handle.
	NewFramebuffer() (Handle, error)

	// DeleteFramebuffer deletes a framebuffer handle.
	DeleteFramebuffer(h Handle)

	// BindFramebuffer binds h as both the draw and read
	// framebuffer. A zero h binds the default target.
	BindFramebuffer(h Handle)

	// FramebufferTexture attaches the texture h to the
	// given attachment point of the bound framebuffer.
	// A zero h detaches the attachment point.
	// It returns an error wrapping ErrInvalidOperation if
	// the driver rejects the call.
	FramebufferTexture(att Attachment, target Target, h Handle) error

	// CheckFramebuffer runs the completeness check on the
	// bound framebuffer.
	CheckFramebuffer() Status

	// DrawBuffers selects the color attachments written by
	// subsequent draws. An empty att selects none.
	DrawBuffers(att []Attachment)

	// ReadBuffer selects the color attachment read by
	// ReadPixels. AttachNone selects none.
	ReadBuffer(att Attachment)

	// ReadPixels reads a rectangle of the read buffer
	// into dst, which must be a []byte or a []float32.
	ReadPixels(x, y, width, height int, fmt PixelFormat, typ DataType, dst any)

	// NewShader allocates a new shader object for the
	// given stage.
	NewShader(stage Stage) (Handle, error)

	// ShaderSource replaces the source of a shader.
	// The strings are concatenated in order.
	ShaderSource(h Handle, src []string)

	// CompileShader compiles a shader and reports
	// whether it succeeded.
	CompileShader(h Handle) bool

	// ShaderLog returns the info log of a shader.
	ShaderLog(h Handle) string

	// DeleteShader deletes a shader object.
	DeleteShader(h Handle)

	// NewProgram allocates a new program object.
	NewProgram() (Handle, error)

	// AttachShader attaches a shader to a program.
	AttachShader(prog, sh Handle)

	// GeometryIO sets the primitive types consumed and
	// produced by the geometry stage of a program and the
	// maximum number of vertices it emits.
	GeometryIO(prog Handle, in, out Primitive, maxVertices int)

	// LinkProgram links a program and reports whether
	// it succeeded.
	LinkProgram(prog Handle) bool

	// ProgramLog returns the info log of a program.
	ProgramLog(prog Handle) string

	// DeleteProgram deletes a program object.
	DeleteProgram(prog Handle)

	// UseProgram makes prog the active program.
	// A zero prog deactivates programs.
	UseProgram(prog Handle)

	// UniformLocation returns the location of a uniform
	// of prog, or -1 if there is no such active uniform.
	UniformLocation(prog Handle, name string) int

	// AttribLocation returns the location of a vertex
	// attribute of prog, or -1 if there is no such
	// active attribute.
	AttribLocation(prog Handle, name string) int

	// Uniformf sets count float vectors of n components
	// (1 to 4) on the active program.
	Uniformf(loc, n, count int, v []float32)

	// Uniformi sets count int vectors of n components
	// (1 to 4) on the active program.
	Uniformi(loc, n, count int, v []int32)

	// UniformMatrix sets count column-major n×n matrices
	// (n is 3 or 4) on the active program.
	UniformMatrix(loc, n, count int, v []float32)
}

// StringName is the type of implementation strings.
type StringName int

// Implementation strings.
const (
	Vendor StringName = iota
	Renderer
	VersionString
)

// IntName is the type of implementation integers.
type IntName int

// Implementation integers.
const (
	MaxTextureSize IntName = iota
	MaxTextureUnits
	RedBits
	GreenBits
	BlueBits
)

// Extension names queried by the resource layer.
const (
	ExtMultitexture       = "GL_ARB_multitexture"
	ExtVertexShader       = "GL_ARB_vertex_shader"
	ExtFragmentShader     = "GL_ARB_fragment_shader"
	ExtNonPowerOfTwo      = "GL_ARB_texture_non_power_of_two"
	ExtVertexBufferObject = "GL_ARB_vertex_buffer_object"
	ExtTextureQueryLOD    = "GL_ARB_texture_query_lod"
	ExtGeometryShader4    = "GL_EXT_geometry_shader4"
	ExtGPUShader4         = "GL_EXT_gpu_shader4"
	ExtDrawInstanced      = "GL_ARB_draw_instanced"
	ExtFramebufferObject  = "GL_EXT_framebuffer_object"
	ExtDepthTexture       = "GL_ARB_depth_texture"
)

// Target is the type of a texture bind target.
type Target int

// Texture targets.
const (
	Tex1D Target = iota
	Tex2D
	Tex3D
)

// String implements fmt.Stringer.
func (t Target) String() string {
	switch t {
	case Tex1D:
		return "1D"
	case Tex2D:
		return "2D"
	case Tex3D:
		return "3D"
	}
	return "invalid target"
}

// InternalFormat is the type of a texture's storage format.
type InternalFormat int

// Internal formats.
const (
	RGBA8 InternalFormat = iota
	RGBA16F
	RGBA32F
	RG8
	RG16F
	RG32F
	RGBA
	Intensity
	DepthComponent
)

// Size returns the size in bytes of a single texel.
func (f InternalFormat) Size() int {
	switch f {
	case RGBA8, RGBA:
		return 4
	case RGBA16F:
		return 8
	case RGBA32F:
		return 16
	case RG8:
		return 2
	case RG16F:
		return 4
	case RG32F:
		return 8
	case Intensity, DepthComponent:
		return 1
	}
	return 0
}

// PixelFormat is the type of client pixel data layout.
type PixelFormat int

// Pixel formats.
const (
	FmtRGBA PixelFormat = iota
	FmtRG
	FmtRed
	FmtDepth
)

// Components returns the number of components per pixel.
func (f PixelFormat) Components() int {
	switch f {
	case FmtRGBA:
		return 4
	case FmtRG:
		return 2
	}
	return 1
}

// DataType is the type of client pixel components.
type DataType int

// Data types.
const (
	TypeUByte DataType = iota
	TypeFloat
)

// Dim3D is a three-dimensional size.
// Unused dimensions are 1.
type Dim3D struct {
	Width  int
	Height int
	Depth  int
}

// Off3D is a three-dimensional offset.
type Off3D struct {
	X int
	Y int
	Z int
}

// SamplerParam is the type of a texture sampling parameter.
type SamplerParam int

// Sampling parameters.
const (
	MinFilter SamplerParam = iota
	MagFilter
	WrapS
	WrapT
	WrapR
	CompareMode
	CompareFunc
)

// SamplerValue is the type of a sampling parameter value.
type SamplerValue int

// Sampling parameter values.
const (
	Nearest SamplerValue = iota
	Linear
	ClampToEdge
	Repeat
	CompareNone
	CompareRefToTexture
	LessEqual
)

// Attachment is the type of a framebuffer attachment point.
type Attachment int

// Attachment points.
// Color attachments are consecutive, starting at
// AttachColor0.
const (
	AttachNone Attachment = iota - 2
	AttachDepth
	AttachColor0
)

// ColorAttachment returns the attachment point of the
// i-th color attachment.
func ColorAttachment(i int) Attachment { return AttachColor0 + Attachment(i) }

// Status is the type of a framebuffer completeness status.
type Status int

// Completeness statuses.
const (
	StatusComplete Status = iota
	StatusIncompleteAttachment
	StatusMissingAttachment
	StatusIncompleteDimensions
	StatusIncompleteFormats
	StatusIncompleteDrawBuffer
	StatusIncompleteReadBuffer
	StatusUnsupported
	StatusInvalidOperation
	StatusUnknown
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusComplete:
		return "complete"
	case StatusIncompleteAttachment:
		return "incomplete attachment"
	case StatusMissingAttachment:
		return "missing attachment"
	case StatusIncompleteDimensions:
		return "attached images must have same dimensions"
	case StatusIncompleteFormats:
		return "attached images must have same format"
	case StatusIncompleteDrawBuffer:
		return "missing draw buffer"
	case StatusIncompleteReadBuffer:
		return "missing read buffer"
	case StatusUnsupported:
		return "unsupported framebuffer format"
	case StatusInvalidOperation:
		return "invalid operation"
	}
	return "unknown"
}

// Stage is the type of a shader stage.
type Stage int

// Shader stages.
const (
	StageVertex Stage = iota
	StageFragment
	StageGeometry
)

// String implements fmt.Stringer.
func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageGeometry:
		return "geometry"
	}
	return "invalid stage"
}

// Primitive is the type of a geometry stage primitive.
type Primitive int

// Primitives.
const (
	PrimPoints Primitive = iota
	PrimLines
	PrimLineStrip
	PrimTriangles
	PrimTriangleStrip
)
