// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package drivertest implements an in-memory driver.Context
// for use in tests.
// It keeps track of every native object, counts allocations
// and deletions and validates framebuffers and programs the
// way a conforming implementation would. Failures can be
// injected through exported fields.
package drivertest

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gviegas/gpux/driver"
)

// Config describes the implementation that a Context
// simulates.
type Config struct {
	Name     string
	Vendor   string
	Renderer string
	Version  string
	Major    int
	Minor    int
	// Extensions lists the supported extensions.
	// Unlike real drivers, no extension is implied
	// by Major/Minor.
	Extensions      []string
	MaxTextureSize  int
	MaxTextureUnits int
	ColorBits       [3]int
	// RequireColorAndDepth makes framebuffers lacking
	// either a color or a depth attachment fail the
	// completeness check.
	RequireColorAndDepth bool
}

// AllExtensions lists every extension that the resource
// layer queries.
var AllExtensions = []string{
	driver.ExtMultitexture,
	driver.ExtVertexShader,
	driver.ExtFragmentShader,
	driver.ExtNonPowerOfTwo,
	driver.ExtVertexBufferObject,
	driver.ExtTextureQueryLOD,
	driver.ExtGeometryShader4,
	driver.ExtGPUShader4,
	driver.ExtDrawInstanced,
	driver.ExtFramebufferObject,
	driver.ExtDepthTexture,
}

// DefaultConfig returns a Config that supports every
// capability.
func DefaultConfig() Config {
	return Config{
		Name:            "drivertest",
		Vendor:          "NVIDIA Corporation",
		Renderer:        "GeForce GTX 1060/PCIe/SSE2",
		Version:         "3.3.0 NVIDIA 470.82",
		Major:           3,
		Minor:           3,
		Extensions:      append([]string(nil), AllExtensions...),
		MaxTextureSize:  16384,
		MaxTextureUnits: 16,
		ColorBits:       [3]int{8, 8, 8},
	}
}

// Without returns a copy of cfg with the given extensions
// removed.
func (cfg Config) Without(ext ...string) Config {
	var exts []string
	for _, e := range cfg.Extensions {
		keep := true
		for _, x := range ext {
			if e == x {
				keep = false
				break
			}
		}
		if keep {
			exts = append(exts, e)
		}
	}
	cfg.Extensions = exts
	return cfg
}

// Upload records a TexImage/TexSubImage call.
type Upload struct {
	Off  driver.Off3D
	Size driver.Dim3D
	Fmt  driver.PixelFormat
	Type driver.DataType
	Data any
}

// Texture is a simulated texture object.
type Texture struct {
	Target  driver.Target
	Format  driver.InternalFormat
	Size    driver.Dim3D
	Params  map[driver.SamplerParam]driver.SamplerValue
	Border  [4]float32
	Uploads []Upload
	defined bool
}

// Framebuffer is a simulated framebuffer object.
type Framebuffer struct {
	Att  map[driver.Attachment]driver.Handle
	Draw []driver.Attachment
	Read driver.Attachment
}

// Shader is a simulated shader object.
type Shader struct {
	Stage    driver.Stage
	Source   []string
	Compiled bool
	Log      string
}

// Program is a simulated program object.
type Program struct {
	Shaders     []driver.Handle
	Linked      bool
	Log         string
	Uniforms    map[string]int
	Attribs     map[string]int
	GeomIn      driver.Primitive
	GeomOut     driver.Primitive
	MaxVertices int
}

// Uniform records the last uniform call.
type Uniform struct {
	Loc    int
	N      int
	Count  int
	F      []float32
	I      []int32
	Matrix bool
}

// Context is a simulated driver.Context.
type Context struct {
	Config
	drv  *Driver
	next driver.Handle

	Textures     map[driver.Handle]*Texture
	Framebuffers map[driver.Handle]*Framebuffer
	Shaders      map[driver.Handle]*Shader
	Programs     map[driver.Handle]*Program

	// Deleted counts deletions per handle, regardless
	// of the object type.
	Deleted map[driver.Handle]int

	TexAllocs, TexFrees         int
	FBAllocs, FBFrees           int
	ShaderAllocs, ShaderFrees   int
	ProgramAllocs, ProgramFrees int
	// BadDeletes counts deletions of handles that are
	// not live.
	BadDeletes int
	// Errors counts calls that a real driver would have
	// flagged with an error.
	Errors       int
	UniformCalls int
	LastUniform  Uniform
	ReadCalls    int
	LastRead     [4]int

	BoundFB  driver.Handle
	Unit     int
	Bound    map[int]map[driver.Target]driver.Handle
	Program  driver.Handle
	VP       [4]int
	Scissor  bool
	TwoSided bool

	// FailTextures is the number of upcoming NewTexture
	// calls that must fail. The remaining fields work
	// the same way.
	FailTextures     int
	FailFramebuffers int
	FailShaders      int
	FailPrograms     int
	// RejectAttach makes every FramebufferTexture call
	// fail.
	RejectAttach bool
}

// New creates a new Context.
func New(cfg Config) *Context {
	if cfg.Name == "" {
		cfg.Name = "drivertest"
	}
	c := &Context{
		Config:       cfg,
		next:         1,
		Textures:     make(map[driver.Handle]*Texture),
		Framebuffers: make(map[driver.Handle]*Framebuffer),
		Shaders:      make(map[driver.Handle]*Shader),
		Programs:     make(map[driver.Handle]*Program),
		Deleted:      make(map[driver.Handle]int),
		Bound:        make(map[int]map[driver.Target]driver.Handle),
		TwoSided:     true,
		Scissor:      true,
	}
	c.drv = &Driver{ctx: c}
	return c
}

// Driver returns the Driver that owns c.
func (c *Context) Driver() driver.Driver { return c.drv }

func (c *Context) handle() driver.Handle {
	h := c.next
	c.next++
	return h
}

func (c *Context) String(name driver.StringName) string {
	switch name {
	case driver.Vendor:
		return c.Config.Vendor
	case driver.Renderer:
		return c.Config.Renderer
	case driver.VersionString:
		return c.Config.Version
	}
	c.Errors++
	return ""
}

func (c *Context) Integer(name driver.IntName) int {
	switch name {
	case driver.MaxTextureSize:
		return c.MaxTextureSize
	case driver.MaxTextureUnits:
		return c.MaxTextureUnits
	case driver.RedBits:
		return c.ColorBits[0]
	case driver.GreenBits:
		return c.ColorBits[1]
	case driver.BlueBits:
		return c.ColorBits[2]
	}
	c.Errors++
	return 0
}

func (c *Context) Version() (major, minor int) { return c.Major, c.Minor }

func (c *Context) HasExtension(ext string) bool {
	for _, e := range c.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

func (c *Context) SetTwoSidedLighting(enable bool) { c.TwoSided = enable }

func (c *Context) SetScissorTest(enable bool) { c.Scissor = enable }

func (c *Context) Viewport(x, y, width, height int) {
	c.VP = [4]int{x, y, width, height}
}

// NewTexture allocates a new texture handle.
func (c *Context) NewTexture() (driver.Handle, error) {
	if c.FailTextures > 0 {
		c.FailTextures--
		return 0, driver.ErrNoDeviceMemory
	}
	h := c.handle()
	c.Textures[h] = &Texture{Params: make(map[driver.SamplerParam]driver.SamplerValue)}
	c.TexAllocs++
	return h, nil
}

func (c *Context) DeleteTexture(h driver.Handle) {
	c.Deleted[h]++
	if _, ok := c.Textures[h]; !ok {
		c.BadDeletes++
		return
	}
	delete(c.Textures, h)
	c.TexFrees++
	for _, m := range c.Bound {
		for t, x := range m {
			if x == h {
				delete(m, t)
			}
		}
	}
	// Deleting a texture detaches it from the bound
	// framebuffer only.
	if fb, ok := c.Framebuffers[c.BoundFB]; ok {
		for a, x := range fb.Att {
			if x == h {
				delete(fb.Att, a)
			}
		}
	}
}

func (c *Context) IsTexture(h driver.Handle) bool {
	t, ok := c.Textures[h]
	return ok && t.defined
}

func (c *Context) ActiveUnit(unit int) {
	if unit < 0 || unit >= c.MaxTextureUnits {
		c.Errors++
		return
	}
	c.Unit = unit
}

func (c *Context) BindTexture(target driver.Target, h driver.Handle) {
	m := c.Bound[c.Unit]
	if m == nil {
		m = make(map[driver.Target]driver.Handle)
		c.Bound[c.Unit] = m
	}
	if h == 0 {
		delete(m, target)
		return
	}
	t, ok := c.Textures[h]
	switch {
	case !ok:
		c.Errors++
		return
	case !t.defined:
		t.Target = target
		t.defined = true
	case t.Target != target:
		c.Errors++
		return
	}
	m[target] = h
}

// BoundTexture returns the texture bound to target on
// the given unit.
func (c *Context) BoundTexture(unit int, target driver.Target) driver.Handle {
	return c.Bound[unit][target]
}

func (c *Context) bound(target driver.Target) *Texture {
	if t, ok := c.Textures[c.Bound[c.Unit][target]]; ok {
		return t
	}
	c.Errors++
	return nil
}

func checkData(data any) bool {
	switch data.(type) {
	case nil, []byte, []float32:
		return true
	}
	return false
}

func (c *Context) TexImage(target driver.Target, ifmt driver.InternalFormat, size driver.Dim3D, pf driver.PixelFormat, typ driver.DataType, data any) {
	t := c.bound(target)
	if t == nil {
		return
	}
	if !checkData(data) || size.Width < 1 || size.Height < 1 || size.Depth < 1 {
		c.Errors++
		return
	}
	t.Format = ifmt
	t.Size = size
	if data != nil {
		t.Uploads = append(t.Uploads, Upload{Size: size, Fmt: pf, Type: typ, Data: data})
	}
}

func (c *Context) TexSubImage(target driver.Target, off driver.Off3D, size driver.Dim3D, pf driver.PixelFormat, typ driver.DataType, data any) {
	t := c.bound(target)
	if t == nil {
		return
	}
	if data == nil || !checkData(data) ||
		off.X+size.Width > t.Size.Width ||
		off.Y+size.Height > t.Size.Height ||
		off.Z+size.Depth > t.Size.Depth {
		c.Errors++
		return
	}
	t.Uploads = append(t.Uploads, Upload{off, size, pf, typ, data})
}

func (c *Context) TexParameter(target driver.Target, param driver.SamplerParam, value driver.SamplerValue) {
	if t := c.bound(target); t != nil {
		t.Params[param] = value
	}
}

func (c *Context) TexBorderColor(target driver.Target, color [4]float32) {
	if t := c.bound(target); t != nil {
		t.Border = color
	}
}

func (c *Context) TexSize(target driver.Target) driver.Dim3D {
	if t := c.bound(target); t != nil {
		return t.Size
	}
	return driver.Dim3D{}
}

// NewFramebuffer allocates a new framebuffer handle.
func (c *Context) NewFramebuffer() (driver.Handle, error) {
	if c.FailFramebuffers > 0 {
		c.FailFramebuffers--
		return 0, driver.ErrNoDeviceMemory
	}
	h := c.handle()
	c.Framebuffers[h] = &Framebuffer{
		Att:  make(map[driver.Attachment]driver.Handle),
		Draw: []driver.Attachment{driver.AttachColor0},
		Read: driver.AttachColor0,
	}
	c.FBAllocs++
	return h, nil
}

func (c *Context) DeleteFramebuffer(h driver.Handle) {
	c.Deleted[h]++
	if _, ok := c.Framebuffers[h]; !ok {
		c.BadDeletes++
		return
	}
	delete(c.Framebuffers, h)
	c.FBFrees++
	if c.BoundFB == h {
		c.BoundFB = 0
	}
}

func (c *Context) BindFramebuffer(h driver.Handle) {
	if _, ok := c.Framebuffers[h]; !ok && h != 0 {
		c.Errors++
		return
	}
	c.BoundFB = h
}

// FramebufferTexture attaches a texture to the bound
// framebuffer.
func (c *Context) FramebufferTexture(att driver.Attachment, target driver.Target, h driver.Handle) error {
	fb, ok := c.Framebuffers[c.BoundFB]
	if !ok || c.RejectAttach || att == driver.AttachNone {
		c.Errors++
		return fmt.Errorf("drivertest: framebuffer texture: %w", driver.ErrInvalidOperation)
	}
	if h == 0 {
		delete(fb.Att, att)
		return nil
	}
	t, ok := c.Textures[h]
	if !ok || !t.defined || t.Target != target {
		c.Errors++
		return fmt.Errorf("drivertest: framebuffer texture: %w", driver.ErrInvalidOperation)
	}
	fb.Att[att] = h
	return nil
}

// CheckFramebuffer runs the completeness check on the
// bound framebuffer.
func (c *Context) CheckFramebuffer() driver.Status {
	if c.BoundFB == 0 {
		return driver.StatusComplete
	}
	fb := c.Framebuffers[c.BoundFB]
	if len(fb.Att) == 0 {
		return driver.StatusMissingAttachment
	}
	var size *driver.Dim3D
	var color *driver.InternalFormat
	hasColor, hasDepth := false, false
	for a, h := range fb.Att {
		t, ok := c.Textures[h]
		if !ok {
			return driver.StatusIncompleteAttachment
		}
		isDepth := t.Format == driver.DepthComponent
		if (a == driver.AttachDepth) != isDepth {
			return driver.StatusIncompleteAttachment
		}
		if size == nil {
			size = &t.Size
		} else if size.Width != t.Size.Width || size.Height != t.Size.Height {
			return driver.StatusIncompleteDimensions
		}
		if isDepth {
			hasDepth = true
			continue
		}
		hasColor = true
		if color == nil {
			color = &t.Format
		} else if *color != t.Format {
			return driver.StatusIncompleteFormats
		}
	}
	if c.RequireColorAndDepth && (!hasColor || !hasDepth) {
		return driver.StatusMissingAttachment
	}
	for _, a := range fb.Draw {
		if _, ok := fb.Att[a]; !ok {
			return driver.StatusIncompleteDrawBuffer
		}
	}
	if fb.Read != driver.AttachNone {
		if _, ok := fb.Att[fb.Read]; !ok {
			return driver.StatusIncompleteReadBuffer
		}
	}
	return driver.StatusComplete
}

func (c *Context) DrawBuffers(att []driver.Attachment) {
	if fb, ok := c.Framebuffers[c.BoundFB]; ok {
		fb.Draw = append(fb.Draw[:0], att...)
	}
}

func (c *Context) ReadBuffer(att driver.Attachment) {
	if fb, ok := c.Framebuffers[c.BoundFB]; ok {
		fb.Read = att
	}
}

// ReadPixels fills dst with the value 0.5 (or 128),
// simulating a uniformly gray read buffer.
func (c *Context) ReadPixels(x, y, width, height int, pf driver.PixelFormat, typ driver.DataType, dst any) {
	c.ReadCalls++
	c.LastRead = [4]int{x, y, width, height}
	n := width * height * pf.Components()
	switch d := dst.(type) {
	case []byte:
		for i := 0; i < n && i < len(d); i++ {
			d[i] = 128
		}
	case []float32:
		for i := 0; i < n && i < len(d); i++ {
			d[i] = 0.5
		}
	default:
		c.Errors++
	}
}

// NewShader allocates a new shader object.
func (c *Context) NewShader(stage driver.Stage) (driver.Handle, error) {
	if c.FailShaders > 0 {
		c.FailShaders--
		return 0, driver.ErrNoDeviceMemory
	}
	h := c.handle()
	c.Shaders[h] = &Shader{Stage: stage}
	c.ShaderAllocs++
	return h, nil
}

func (c *Context) ShaderSource(h driver.Handle, src []string) {
	if s, ok := c.Shaders[h]; ok {
		s.Source = append([]string(nil), src...)
		return
	}
	c.Errors++
}

// CompileShader fails if the source contains an
// #error directive.
func (c *Context) CompileShader(h driver.Handle) bool {
	s, ok := c.Shaders[h]
	if !ok {
		c.Errors++
		return false
	}
	src := strings.Join(s.Source, "")
	for i, line := range strings.Split(src, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#error") {
			s.Compiled = false
			s.Log = fmt.Sprintf("0:%d(1): error: %s", i+1, strings.TrimSpace(line))
			return false
		}
	}
	s.Compiled = true
	s.Log = ""
	return true
}

func (c *Context) ShaderLog(h driver.Handle) string {
	if s, ok := c.Shaders[h]; ok {
		return s.Log
	}
	return ""
}

func (c *Context) DeleteShader(h driver.Handle) {
	c.Deleted[h]++
	if _, ok := c.Shaders[h]; !ok {
		c.BadDeletes++
		return
	}
	delete(c.Shaders, h)
	c.ShaderFrees++
}

// NewProgram allocates a new program object.
func (c *Context) NewProgram() (driver.Handle, error) {
	if c.FailPrograms > 0 {
		c.FailPrograms--
		return 0, driver.ErrNoDeviceMemory
	}
	h := c.handle()
	c.Programs[h] = &Program{}
	c.ProgramAllocs++
	return h, nil
}

func (c *Context) AttachShader(prog, sh driver.Handle) {
	p, ok := c.Programs[prog]
	if _, ok2 := c.Shaders[sh]; !ok || !ok2 {
		c.Errors++
		return
	}
	p.Shaders = append(p.Shaders, sh)
}

func (c *Context) GeometryIO(prog driver.Handle, in, out driver.Primitive, maxVertices int) {
	if p, ok := c.Programs[prog]; ok {
		p.GeomIn, p.GeomOut, p.MaxVertices = in, out, maxVertices
		return
	}
	c.Errors++
}

var (
	uniformRE = regexp.MustCompile(`\buniform\s+(?:(?:lowp|mediump|highp)\s+)?\w+\s+(\w+)`)
	attribRE  = regexp.MustCompile(`\b(?:attribute|in)\s+\w+\s+(\w+)\s*;`)
	identRE   = regexp.MustCompile(`\w+`)
)

// LinkProgram links a program.
// Linking fails if a vertex or fragment stage has no main
// function, if any stage failed to compile or if a
// geometry stage is attached and GeometryIO was not given
// a positive vertex count.
// Uniforms and attributes that are declared but never
// referenced are optimized out.
func (c *Context) LinkProgram(prog driver.Handle) bool {
	p, ok := c.Programs[prog]
	if !ok {
		c.Errors++
		return false
	}
	p.Linked = false
	if len(p.Shaders) == 0 {
		p.Log = "error: no shaders attached"
		return false
	}
	var all []string
	var vert []string
	geom := false
	for _, h := range p.Shaders {
		s := c.Shaders[h]
		if s == nil || !s.Compiled {
			p.Log = "error: attached shader not compiled"
			return false
		}
		src := strings.Join(s.Source, "")
		if s.Stage != driver.StageGeometry && !strings.Contains(src, "void main") {
			p.Log = fmt.Sprintf("error: %s shader lacks `main'", s.Stage)
			return false
		}
		all = append(all, src)
		switch s.Stage {
		case driver.StageVertex:
			vert = append(vert, src)
		case driver.StageGeometry:
			geom = true
		}
	}
	if geom && p.MaxVertices < 1 {
		p.Log = "error: geometry shader output vertex count is zero"
		return false
	}
	uses := make(map[string]int)
	for _, src := range all {
		for _, id := range identRE.FindAllString(src, -1) {
			uses[id]++
		}
	}
	p.Uniforms = make(map[string]int)
	for _, src := range all {
		for _, m := range uniformRE.FindAllStringSubmatch(src, -1) {
			if _, dup := p.Uniforms[m[1]]; dup || uses[m[1]] < 2 {
				continue
			}
			p.Uniforms[m[1]] = len(p.Uniforms)
		}
	}
	p.Attribs = make(map[string]int)
	for _, src := range vert {
		for _, m := range attribRE.FindAllStringSubmatch(src, -1) {
			if _, dup := p.Attribs[m[1]]; dup || uses[m[1]] < 2 {
				continue
			}
			p.Attribs[m[1]] = len(p.Attribs)
		}
	}
	p.Linked = true
	p.Log = ""
	return true
}

func (c *Context) ProgramLog(prog driver.Handle) string {
	if p, ok := c.Programs[prog]; ok {
		return p.Log
	}
	return ""
}

func (c *Context) DeleteProgram(prog driver.Handle) {
	c.Deleted[prog]++
	if _, ok := c.Programs[prog]; !ok {
		c.BadDeletes++
		return
	}
	delete(c.Programs, prog)
	c.ProgramFrees++
	if c.Program == prog {
		c.Program = 0
	}
}

func (c *Context) UseProgram(prog driver.Handle) {
	if prog != 0 {
		if p, ok := c.Programs[prog]; !ok || !p.Linked {
			c.Errors++
			return
		}
	}
	c.Program = prog
}

func (c *Context) UniformLocation(prog driver.Handle, name string) int {
	if p, ok := c.Programs[prog]; ok && p.Linked {
		if loc, ok := p.Uniforms[name]; ok {
			return loc
		}
	}
	return -1
}

func (c *Context) AttribLocation(prog driver.Handle, name string) int {
	if p, ok := c.Programs[prog]; ok && p.Linked {
		if loc, ok := p.Attribs[name]; ok {
			return loc
		}
	}
	return -1
}

var errUniform = errors.New("drivertest: invalid uniform call")

func (c *Context) uniform(loc, n, count, have int) error {
	c.UniformCalls++
	if c.Program == 0 || loc < 0 || count < 1 || have < n*count {
		c.Errors++
		return errUniform
	}
	return nil
}

func (c *Context) Uniformf(loc, n, count int, v []float32) {
	if n < 1 || n > 4 || c.uniform(loc, n, count, len(v)) != nil {
		return
	}
	c.LastUniform = Uniform{Loc: loc, N: n, Count: count, F: append([]float32(nil), v[:n*count]...)}
}

func (c *Context) Uniformi(loc, n, count int, v []int32) {
	if n < 1 || n > 4 || c.uniform(loc, n, count, len(v)) != nil {
		return
	}
	c.LastUniform = Uniform{Loc: loc, N: n, Count: count, I: append([]int32(nil), v[:n*count]...)}
}

func (c *Context) UniformMatrix(loc, n, count int, v []float32) {
	if (n != 3 && n != 4) || c.uniform(loc, n*n, count, len(v)) != nil {
		return
	}
	c.LastUniform = Uniform{Loc: loc, N: n, Count: count, F: append([]float32(nil), v[:n*n*count]...), Matrix: true}
}

// Live returns the number of live objects of every type.
func (c *Context) Live() int {
	return len(c.Textures) + len(c.Framebuffers) + len(c.Shaders) + len(c.Programs)
}

// Driver is a driver.Driver whose Open method returns
// a simulated Context.
type Driver struct {
	ctx    *Context
	closed bool
}

// Open returns the Context that created d.
func (d *Driver) Open() (driver.Context, error) {
	d.closed = false
	return d.ctx, nil
}

// Name returns the configured name.
func (d *Driver) Name() string { return d.ctx.Config.Name }

// Close marks d as closed.
func (d *Driver) Close() { d.closed = true }
