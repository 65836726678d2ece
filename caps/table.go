// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package caps

import "strings"

// field selects one of the implementation strings.
type field int

const (
	vendor field = iota
	renderer
	version
)

// cond matches when the selected string contains sub.
type cond struct {
	field field
	sub   string
}

// rule classifies an implementation whose strings
// satisfy every condition.
type rule struct {
	all    []cond
	device Device
	driver DriverKind
}

// classTable is evaluated in order and the first match
// wins. Rows sharing a classification are alternatives.
var classTable = []rule{
	{[]cond{{vendor, "ATI"}}, DeviceATI, DriverOfficial},
	{[]cond{{vendor, "NVIDIA"}}, DeviceNVIDIA, DriverOfficial},
	{[]cond{{vendor, "Intel"}}, DeviceIntel, DriverOfficial},
	{[]cond{{renderer, "Mesa DRI Intel"}}, DeviceIntel, DriverOfficial},
	{[]cond{{renderer, "Mesa DRI Mobile Intel"}}, DeviceIntel, DriverOfficial},
	{[]cond{{renderer, "Mesa DRI R"}}, DeviceATI, DriverOpenSource},
	{[]cond{{renderer, "Gallium "}, {renderer, " on ATI "}}, DeviceATI, DriverOpenSource},
	{[]cond{{renderer, "Nouveau"}}, DeviceNVIDIA, DriverOpenSource},
	{[]cond{{vendor, "nouveau"}}, DeviceNVIDIA, DriverOpenSource},
	{[]cond{{vendor, "Mesa"}}, DeviceSoftware, DriverSoftware},
	{[]cond{{vendor, "Microsoft"}}, DeviceSoftware, DriverSoftware},
	{[]cond{{renderer, "Apple Software Renderer"}}, DeviceSoftware, DriverSoftware},
}

// legacyATI lists renderer substrings of ATI chipsets
// whose non-power-of-two texture and display list
// support is not usable.
var legacyATI = []string{
	"R3", "RV3",
	"R4", "RV4", "RS4", "RC4",
	"R5", "RV5",
	"RS600", "RS690", "RS740",
	"X1", "X2",
	"Radeon 9", "RADEON 9",
}

// strs holds the implementation strings being matched.
type strs [3]string

func (s *strs) match(c []cond) bool {
	for _, x := range c {
		if !strings.Contains(s[x.field], x.sub) {
			return false
		}
	}
	return true
}

// classify returns the classification of the first
// matching rule.
func classify(s *strs) (Device, DriverKind) {
	for i := range classTable {
		if s.match(classTable[i].all) {
			return classTable[i].device, classTable[i].driver
		}
	}
	return DeviceUnknown, DriverUnknown
}

// isLegacyATI reports whether the renderer string names
// a chipset listed in legacyATI.
func isLegacyATI(s *strs) bool {
	for _, sub := range legacyATI {
		if strings.Contains(s[renderer], sub) {
			return true
		}
	}
	return false
}
