// Package connector defines the uniform capability contract over any
// external non-LLM service the skills talk to (KB, PLC telemetry, CMMS,
// remote shell, gist publishing), grounded on Genesis's tools.Controller
// dispatch-based plugin pattern (pkg/tools/controller.go) generalized from
// one flat ActionRequest/ActionResponse pair into a typed contract per
// connector kind.
package connector

import "context"

// Connector is the minimal capability every concrete connector implements.
type Connector interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Name() string
}

// Unavailable is returned by a skill when a connector required for its
// happy path is not configured or fails its health probe.
type Unavailable struct {
	Connector string
	Reason    string
}

func (e *Unavailable) Error() string {
	return "connector " + e.Connector + " unavailable: " + e.Reason
}
