// Package modkit wires API modules: shared deps, build options, ports and mounting
package modkit

import (
	phttp "trendflow/internal/platform/net/http"
)

// Module is the common surface for API modules
// keep this tiny so modules stay decoupled
type Module interface {
	// MountRoutes mounts the module under its prefix on r
	MountRoutes(r phttp.Router)
	// Ports returns the module's port set for cross wiring, nil when it has none
	Ports() any
	// Name returns the module name used in logs
	Name() string
}

// MountAll mounts every module on r in order
func MountAll(r phttp.Router, mods ...Module) {
	for _, m := range mods {
		m.MountRoutes(r)
	}
}
