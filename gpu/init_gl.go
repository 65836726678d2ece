// Copyright 2024 Gustavo C. Viegas. All rights reserved.

//go:build gl

package gpu

import (
	_ "github.com/gviegas/gpux/driver/ogl"
)
