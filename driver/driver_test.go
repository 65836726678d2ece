// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package driver_test

import (
	"testing"

	"github.com/gviegas/gpux/driver"
	"github.com/gviegas/gpux/driver/drivertest"
)

func newDriver(name string) driver.Driver {
	cfg := drivertest.DefaultConfig()
	cfg.Name = name
	return drivertest.New(cfg).Driver()
}

func TestRegister(t *testing.T) {
	n := len(driver.Drivers())
	a := newDriver("driver-test-a")
	driver.Register(a)
	driver.Register(newDriver("driver-test-b"))
	if x := len(driver.Drivers()); x != n+2 {
		t.Fatalf("driver.Register: len(driver.Drivers())\nhave %d\nwant %d", x, n+2)
	}

	// Same name replaces.
	a2 := newDriver("driver-test-a")
	driver.Register(a2)
	drivers := driver.Drivers()
	if x := len(drivers); x != n+2 {
		t.Fatalf("driver.Register: len(driver.Drivers())\nhave %d\nwant %d", x, n+2)
	}
	for _, d := range drivers {
		if d == a {
			t.Fatal("driver.Register: driver not replaced")
		}
	}
}

func TestDrivers(t *testing.T) {
	driver.Register(newDriver("driver-test-c"))
	drivers := driver.Drivers()
	for i := range drivers {
		name := drivers[i].Name()
		for j := range i {
			if name == drivers[j].Name() {
				t.Error("driver.Drivers: Driver.Name is not unique")
			}
		}
	}
	drivers2 := driver.Drivers()
	if len(drivers) != len(drivers2) {
		t.Error("driver.Drivers: length mismatch")
	} else {
		for i := range drivers {
			if drivers[i].Name() != drivers2[i].Name() {
				t.Error("driver.Drivers: Driver.Name mismatch")
			}
		}
	}
	// The returned slice is a copy.
	drivers[0] = nil
	if driver.Drivers()[0] == nil {
		t.Error("driver.Drivers: slice shared with registry")
	}
}

func TestDriverName(t *testing.T) {
	drv := newDriver("driver-test-name")
	name := drv.Name()
	if name == "" {
		t.Error("Driver.Name: name is empty")
	}
	drv.Close()
	if drv.Name() != name {
		t.Error("Driver.Name: unexpected name after call to Close")
	}
	dc, err := drv.Open()
	if err != nil {
		t.Fatal("Failed to re-Open drv - cannot continue")
	}
	if drv.Name() != name {
		t.Error("Driver.Name: unexpected name after call to Open")
	}
	if dc.Driver() != drv {
		t.Error("Context.Driver: not the Driver that opened it")
	}
	if dc2, _ := drv.Open(); dc2 != dc {
		t.Error("Driver.Open: Context differs between calls")
	}
}

func TestColorAttachment(t *testing.T) {
	for i := range 4 {
		if x := driver.ColorAttachment(i); x != driver.AttachColor0+driver.Attachment(i) {
			t.Fatalf("driver.ColorAttachment(%d):\nhave %d\nwant %d", i, x, driver.AttachColor0+driver.Attachment(i))
		}
	}
	if driver.ColorAttachment(0) == driver.AttachDepth || driver.AttachDepth == driver.AttachNone {
		t.Fatal("driver.Attachment: values overlap")
	}
}

func TestFormatSize(t *testing.T) {
	for _, x := range [...]struct {
		f    driver.InternalFormat
		want int
	}{
		{driver.RGBA8, 4},
		{driver.RGBA16F, 8},
		{driver.RGBA32F, 16},
		{driver.RG8, 2},
		{driver.RG16F, 4},
		{driver.RG32F, 8},
		{driver.RGBA, 4},
		{driver.Intensity, 1},
		{driver.DepthComponent, 1},
	} {
		if have := x.f.Size(); have != x.want {
			t.Fatalf("InternalFormat.Size(%d):\nhave %d\nwant %d", x.f, have, x.want)
		}
	}
	if driver.FmtRGBA.Components() != 4 || driver.FmtRG.Components() != 2 || driver.FmtRed.Components() != 1 {
		t.Fatal("PixelFormat.Components: unexpected value")
	}
}
