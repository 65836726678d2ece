// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gpu

import (
	"log/slog"

	"github.com/gviegas/gpux/caps"
)

// Option configures a Context during creation.
//
// Example:
//
//	ctx, err := gpu.New(dc,
//		gpu.WithLogger(slog.Default()),
//		gpu.WithDebug(),
//	)
type Option func(*options)

type options struct {
	log   *slog.Logger
	debug bool
	caps  []caps.Option
}

func defaultOptions() options {
	return options{log: newNopLogger()}
}

// WithLogger sets the logger of the Context.
// By default, nothing is logged. A nil l restores the
// default.
//
// Log levels used:
//   - [slog.LevelDebug]: resource lifecycle
//   - [slog.LevelWarn]: programming errors that degrade
//     to no-ops (negative reference counts, texture units
//     out of range, unbalanced unbinds)
//   - [slog.LevelError]: shader compile and link logs
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = newNopLogger()
		}
		o.log = l
	}
}

// WithDebug enables debug checks: feedback loop warnings
// and numbered shader source listings on compile errors.
func WithDebug() Option {
	return func(o *options) { o.debug = true }
}

// WithExtensionsDisabled makes the Context behave as if
// the driver supported no shading language.
func WithExtensionsDisabled() Option {
	return func(o *options) { o.caps = append(o.caps, caps.WithExtensionsDisabled()) }
}

// WithOS overrides the detected operating system.
func WithOS(os caps.OS) Option {
	return func(o *options) { o.caps = append(o.caps, caps.WithOS(os)) }
}
