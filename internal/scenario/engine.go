package scenario

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Poll interval for expectation checks.
const checkInterval = 25 * time.Millisecond

// ActionFunc executes one step's action.
type ActionFunc func(ctx context.Context, step *Step) error

// CheckFunc evaluates one expectation. It must be a read-only probe:
// the engine calls it repeatedly until it passes or the step deadline
// expires.
type CheckFunc func(key string, expected any) *CheckResult

// EngineConfig configures scenario execution.
type EngineConfig struct {
	// CaseTimeout bounds a whole scenario when the case sets none.
	CaseTimeout time.Duration

	// StepTimeout bounds a step when the step sets none.
	StepTimeout time.Duration
}

// DefaultEngineConfig returns the default timeouts.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		CaseTimeout: 30 * time.Second,
		StepTimeout: 10 * time.Second,
	}
}

// Engine executes scenarios against registered actions.
type Engine struct {
	config EngineConfig

	mu      sync.RWMutex
	actions map[string]ActionFunc
	check   CheckFunc
}

// NewEngine creates an engine with default timeouts.
func NewEngine() *Engine {
	return NewEngineWithConfig(DefaultEngineConfig())
}

// NewEngineWithConfig creates an engine with the given timeouts.
// Zero fields fall back to defaults.
func NewEngineWithConfig(config EngineConfig) *Engine {
	defaults := DefaultEngineConfig()
	if config.CaseTimeout == 0 {
		config.CaseTimeout = defaults.CaseTimeout
	}
	if config.StepTimeout == 0 {
		config.StepTimeout = defaults.StepTimeout
	}
	return &Engine{
		config:  config,
		actions: make(map[string]ActionFunc),
	}
}

// RegisterAction registers the handler for an action name.
func (e *Engine) RegisterAction(name string, fn ActionFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.actions[name] = fn
}

// SetChecker installs the expectation probe.
func (e *Engine) SetChecker(fn CheckFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.check = fn
}

// Run executes a scenario. Execution stops at the first failing step.
func (e *Engine) Run(ctx context.Context, c *Case) *Result {
	start := time.Now()
	result := &Result{Case: c}

	caseCtx, cancel := context.WithTimeout(ctx, durationOr(c.Timeout, e.config.CaseTimeout))
	defer cancel()

	for i := range c.Steps {
		step := &c.Steps[i]
		sr := e.runStep(caseCtx, step, i)
		result.Steps = append(result.Steps, sr)
		if !sr.Passed {
			result.Error = fmt.Errorf("step %d (%s): %w", i, step.Action, sr.Error)
			result.Duration = time.Since(start)
			return result
		}
	}

	result.Passed = true
	result.Duration = time.Since(start)
	return result
}

func (e *Engine) runStep(ctx context.Context, step *Step, index int) *StepResult {
	start := time.Now()
	sr := &StepResult{Step: step, Index: index}
	defer func() { sr.Duration = time.Since(start) }()

	e.mu.RLock()
	action := e.actions[step.Action]
	check := e.check
	e.mu.RUnlock()

	if action == nil {
		sr.Error = fmt.Errorf("unknown action %q", step.Action)
		return sr
	}

	stepCtx, cancel := context.WithTimeout(ctx, durationOr(step.Timeout, e.config.StepTimeout))
	defer cancel()

	if err := action(stepCtx, step); err != nil {
		sr.Error = fmt.Errorf("action failed: %w", err)
		return sr
	}

	if len(step.Expect) > 0 && check == nil {
		sr.Error = fmt.Errorf("no checker installed for expectations")
		return sr
	}

	// Deterministic order so failures always report the same key.
	keys := make([]string, 0, len(step.Expect))
	for key := range step.Expect {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		cr := e.waitForCheck(stepCtx, check, key, step.Expect[key])
		sr.Checks = append(sr.Checks, cr)
		if !cr.Passed {
			sr.Error = fmt.Errorf("expect %s: %s", key, cr.Message)
			return sr
		}
	}

	sr.Passed = true
	return sr
}

// waitForCheck polls a check until it passes or the context ends. The
// last evaluation is reported either way.
func (e *Engine) waitForCheck(ctx context.Context, check CheckFunc, key string, expected any) *CheckResult {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		cr := check(key, expected)
		if cr.Passed {
			return cr
		}
		select {
		case <-ctx.Done():
			return cr
		case <-ticker.C:
		}
	}
}
