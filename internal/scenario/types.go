// Package scenario runs YAML-described behavior scenarios against a
// live device/bridge pair. A scenario is a sequence of climate
// actions (power, mode, temperature, preset) with expectations
// checked against the entity and the device's attribute state.
//
// Scenarios back the integration tests: the YAML files describe
// user-visible behavior, the harness wires them to real services
// talking over a loopback TCP connection.
package scenario

import (
	"time"
)

// Case is a single scenario loaded from YAML.
type Case struct {
	// ID is the unique scenario identifier (e.g., "SC-CLIMATE-001").
	ID string `yaml:"id"`

	// Name is a human-readable name.
	Name string `yaml:"name"`

	// Description explains what the scenario demonstrates.
	Description string `yaml:"description,omitempty"`

	// Steps are the actions to execute in order.
	Steps []Step `yaml:"steps"`

	// Timeout bounds the whole scenario (e.g., "30s").
	Timeout string `yaml:"timeout,omitempty"`
}

// Step is one action with optional expectations.
type Step struct {
	// Action names the registered action to perform.
	Action string `yaml:"action"`

	// Params are the action parameters.
	Params map[string]any `yaml:"params,omitempty"`

	// Expect maps expectation keys to their wanted values. Checks
	// poll until they pass or the step deadline expires, since state
	// propagates asynchronously between device and bridge.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Timeout overrides the engine's step timeout.
	Timeout string `yaml:"timeout,omitempty"`

	// Description explains the step.
	Description string `yaml:"description,omitempty"`
}

// Result is the outcome of running one case.
type Result struct {
	// Case is the scenario that ran.
	Case *Case

	// Passed indicates every step passed.
	Passed bool

	// Error is the failure cause, if any.
	Error error

	// Steps holds per-step results, one per executed step.
	Steps []*StepResult

	// Duration is the total run time.
	Duration time.Duration
}

// StepResult is the outcome of one step.
type StepResult struct {
	// Step is the executed step.
	Step *Step

	// Index is the 0-based step position.
	Index int

	// Passed indicates the action and all checks succeeded.
	Passed bool

	// Error is the failure cause, if any.
	Error error

	// Checks holds one entry per expectation key.
	Checks []*CheckResult

	// Duration is how long the step took, polling included.
	Duration time.Duration
}

// CheckResult is the outcome of one expectation.
type CheckResult struct {
	// Key is the expectation key (e.g., "hvac_mode").
	Key string

	// Expected is the wanted value from the YAML.
	Expected any

	// Actual is the last observed value.
	Actual any

	// Passed indicates the expectation was met.
	Passed bool

	// Message describes the result.
	Message string
}
