// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package driver defines the interface to a native graphics
// API context.
// It is designed to allow GL-style APIs to be implemented
// in a mostly straightforward manner, so that the resource
// bookkeeping above it need not know which back-end is in
// use.
package driver

import (
	"errors"
	"log/slog"
	"sync"
)

// Driver is the interface that provides methods for
// loading and unloading an underlying implementation.
type Driver interface {
	// Open initializes the driver.
	// It assumes that a native context was made current
	// on the calling thread by the host application.
	// If it succeeds, further calls with the same receiver
	// have no effect and must return the same Context.
	Open() (Context, error)

	// Name returns the name of the driver.
	// It must not cause the driver to be opened.
	Name() string

	// Close deinitializes the driver.
	// Closing a driver that is not open has no effect.
	Close()
}

// ErrNotInstalled means that a platform-specific library
// required for the driver to work is not present in the
// system.
var ErrNotInstalled = errors.New("driver: missing required library")

// ErrNoContext means that no current native context
// could be found.
var ErrNoContext = errors.New("driver: no current context")

// ErrNoDeviceMemory means that device memory could not
// be allocated.
var ErrNoDeviceMemory = errors.New("driver: out of device memory")

// ErrInvalidOperation means that the driver rejected a
// call given the current state.
var ErrInvalidOperation = errors.New("driver: invalid operation")

// Drivers returns the registered Drivers.
// Client code imports specific driver packages, and then
// call this function. As such, drivers that do not
// register themselves on init will not be considered
// for selection.
func Drivers() []Driver {
	mu.Lock()
	defer mu.Unlock()
	drv := make([]Driver, len(drivers))
	copy(drv, drivers)
	return drv
}

// Register registers a Driver.
// Driver implementations are expected to call Register
// exactly once, from an init function.
// If a driver with the same name has already been
// registered, it will be replaced by drv.
func Register(drv Driver) {
	mu.Lock()
	defer mu.Unlock()
	for i := range drivers {
		if drivers[i].Name() == drv.Name() {
			drivers[i] = drv
			slog.Warn("driver replaced", "name", drv.Name())
			return
		}
	}
	drivers = append(drivers, drv)
	slog.Debug("driver registered", "name", drv.Name())
}

// Variables used for driver registration.
var (
	mu      sync.Mutex
	drivers = make([]Driver, 0, 1)
)
