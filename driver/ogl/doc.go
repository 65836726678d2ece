// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package ogl implements driver interfaces using OpenGL.
//
// The implementation requires cgo and the system GL
// headers, so it is only built with the gl build tag.
// A compatibility profile GL context of version 3.2 or
// later must be current on the calling thread before
// Driver.Open is called. Geometry stages use the
// EXT_geometry_shader4 program parameters, and builtin
// shaders rely on fixed-function inputs, so core profile
// contexts are not supported.
package ogl
