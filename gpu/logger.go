// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gpu

import (
	"context"
	"log/slog"
)

// nopHandler is a slog.Handler that discards all records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// Logger returns the logger of c.
// Resources created from c write their diagnostics to it.
func (c *Context) Logger() *slog.Logger { return c.log }
