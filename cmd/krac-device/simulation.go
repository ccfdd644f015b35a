package main

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/krac-home/krac-go/pkg/caps"
	"github.com/krac-home/krac-go/pkg/model"
)

// Simulation tuning. The room drifts toward the setpoint while the
// unit conditions and back toward ambient otherwise.
const (
	simTickInterval    = 2 * time.Second
	ambientTemperature = 28.0
	ambientHumidity    = 60.0
	dryHumidity        = 45.0

	conditioningStep = 0.3
	ambientStep      = 0.1
	humidityStep     = 0.5
)

// Simulator drives the simulated room environment for the device.
// Attribute writes go through the capability wrappers, so running
// subscriptions pick the changes up like any other update.
type Simulator struct {
	device *model.Device

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
}

// NewSimulator creates a simulator for the device.
func NewSimulator(device *model.Device) *Simulator {
	return &Simulator{device: device}
}

// Start begins the simulation loop. Calling Start on a running
// simulator is a no-op.
func (s *Simulator) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true
	go s.run(ctx)
}

// Stop halts the simulation loop.
func (s *Simulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cancel()
	s.running = false
}

// Running reports whether the simulation loop is active.
func (s *Simulator) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Simulator) run(ctx context.Context) {
	ticker := time.NewTicker(simTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick advances the environment by one step.
func (s *Simulator) tick() {
	mode, active := s.activeMode()

	s.driftTemperature(active)
	s.driftHumidity(mode, active)
}

// activeMode returns the AC mode and whether the unit is actually
// conditioning the room (powered on and not in fan-only mode).
func (s *Simulator) activeMode() (string, bool) {
	sw, err := caps.SwitchOf(s.device)
	if err != nil || !sw.On() {
		return "", false
	}

	m, err := caps.AcModeOf(s.device)
	if err != nil {
		return "", false
	}

	mode := m.Mode()
	return mode, mode != "wind"
}

func (s *Simulator) driftTemperature(active bool) {
	temp, err := caps.TemperatureOf(s.device)
	if err != nil {
		return
	}
	current, ok := temp.Temperature()
	if !ok {
		current = ambientTemperature
	}

	target := ambientTemperature
	step := ambientStep
	if active {
		if sp, err := caps.CoolingSetpointOf(s.device); err == nil {
			if v, ok := sp.Setpoint(); ok {
				target = v
				step = conditioningStep
			}
		}
	}

	next := approach(current, target, step)
	if next != current {
		_ = temp.SetTemperature(next)
	}
}

func (s *Simulator) driftHumidity(mode string, active bool) {
	hum, err := caps.HumidityOf(s.device)
	if err != nil {
		return
	}
	current, ok := hum.Humidity()
	if !ok {
		current = ambientHumidity
	}

	target := ambientHumidity
	step := humidityStep / 2
	if active {
		switch mode {
		case "cool", "dry", "auto":
			target = dryHumidity
			step = humidityStep
			if mode == "dry" {
				step = humidityStep * 2
			}
		}
	}

	next := approach(current, target, step)
	if next != current {
		_ = hum.SetHumidity(next)
	}
}

// approach moves current toward target by at most step, rounded to one
// decimal so the reported values stay tidy.
func approach(current, target, step float64) float64 {
	diff := target - current
	if math.Abs(diff) <= step {
		return math.Round(target*10) / 10
	}
	if diff > 0 {
		return math.Round((current+step)*10) / 10
	}
	return math.Round((current-step)*10) / 10
}
