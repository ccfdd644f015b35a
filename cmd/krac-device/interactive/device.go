// Package interactive provides the interactive command-line interface
// for the simulated air conditioner.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/krac-home/krac-go/pkg/caps"
	"github.com/krac-home/krac-go/pkg/inspect"
	"github.com/krac-home/krac-go/pkg/service"
)

// Simulation controls the background environment simulation. This
// interface lets the console drive the simulator without depending on
// the main package.
type Simulation interface {
	Start()
	Stop()
	Running() bool
}

// Device handles interactive mode for krac-device.
type Device struct {
	svc       *service.DeviceService
	sim       Simulation
	inspector *inspect.Inspector
	formatter *inspect.Formatter
	rl        *readline.Instance
}

// New creates a new interactive device handler.
func New(svc *service.DeviceService, sim Simulation) (*Device, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "device> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	d := &Device{
		svc:       svc,
		sim:       sim,
		inspector: inspect.NewInspector(svc.Device()),
		formatter: inspect.NewFormatter(),
		rl:        rl,
	}

	// Show bridge activity above the prompt
	svc.OnEvent(d.handleEvent)

	return d, nil
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (d *Device) Stdout() io.Writer {
	return d.rl.Stdout()
}

// Stderr returns a writer that properly coordinates with the readline input.
func (d *Device) Stderr() io.Writer {
	return d.rl.Stderr()
}

// Run starts the interactive command loop.
func (d *Device) Run(ctx context.Context, cancel context.CancelFunc) {
	defer d.rl.Close()

	d.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := d.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(d.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			d.printHelp()

		case "inspect", "i":
			d.cmdInspect(args)

		case "read", "r":
			d.cmdRead(args)

		case "write", "w":
			d.cmdWrite(args)

		case "set":
			d.cmdSet(args)

		case "preset":
			d.cmdPreset(args)

		case "power":
			d.cmdPower(args)

		case "sim":
			d.cmdSim(args)

		case "status":
			d.cmdStatus()

		case "quit", "exit", "q":
			fmt.Fprintln(d.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(d.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (d *Device) printHelp() {
	fmt.Fprintln(d.rl.Stdout(), `
Air Conditioner Commands:
  Inspection:
    inspect [path]     - Inspect device structure (or a component/capability)
    read <path>        - Read an attribute value
    write <path> <val> - Write an attribute value

  Climate Control:
    power on|off       - Turn the unit on or off
    set temp <c>       - Set the cooling setpoint
    set mode <mode>    - Set AC mode (auto, cool, dry, wind, heat)
    set fan <mode>     - Set fan mode (auto, low, medium, high, turbo)
    set swing <mode>   - Set oscillation (fixed, all, vertical, horizontal)
    preset [mode]      - Show or set the optional mode preset

  Simulation:
    sim start|stop     - Start or stop the environment simulation
    status             - Show device status

  General:
    help               - Show this help
    quit               - Exit device

  Path Format:
    component/capability/attribute - e.g., main/temperatureMeasurement/temperature
    Capability aliases work too: temp/temperature or setpoint/coolingSetpoint`)
}

// cmdInspect handles the inspect command.
func (d *Device) cmdInspect(args []string) {
	if len(args) == 0 {
		// Show full device tree
		tree := d.inspector.InspectDevice()
		fmt.Fprint(d.rl.Stdout(), d.inspector.FormatDeviceTree(tree, d.formatter))
		return
	}

	// Parse path
	path, err := inspect.ParsePath(args[0])
	if err != nil {
		fmt.Fprintf(d.rl.Stdout(), "Invalid path: %v\n", err)
		return
	}

	if path.IsPartial {
		if path.Capability == "" {
			// Component only
			compInfo, err := d.inspector.InspectComponent(path.Component)
			if err != nil {
				fmt.Fprintf(d.rl.Stdout(), "Error: %v\n", err)
				return
			}
			fmt.Fprint(d.rl.Stdout(), d.inspector.FormatComponent(compInfo, d.formatter))
		} else {
			// Component and capability
			capInfo, err := d.inspector.InspectCapability(path.Component, path.Capability)
			if err != nil {
				fmt.Fprintf(d.rl.Stdout(), "Error: %v\n", err)
				return
			}
			fmt.Fprint(d.rl.Stdout(), d.inspector.FormatCapability(capInfo, d.formatter))
		}
	} else {
		// Full path - show single attribute
		value, meta, err := d.inspector.ReadAttribute(path)
		if err != nil {
			fmt.Fprintf(d.rl.Stdout(), "Error: %v\n", err)
			return
		}
		valueStr := d.formatter.FormatValue(value, meta.Unit)
		fmt.Fprintf(d.rl.Stdout(), "%s = %s\n", meta.Name, valueStr)
	}
}

// cmdRead handles the read command.
func (d *Device) cmdRead(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(d.rl.Stdout(), "Usage: read <path>")
		fmt.Fprintln(d.rl.Stdout(), "  Example: read main/temperatureMeasurement/temperature")
		return
	}

	path, err := inspect.ParsePath(args[0])
	if err != nil {
		fmt.Fprintf(d.rl.Stdout(), "Invalid path: %v\n", err)
		return
	}

	if path.IsPartial {
		// Read all attributes for the capability
		attrs, err := d.inspector.ReadAllAttributes(path.Component, path.Capability)
		if err != nil {
			fmt.Fprintf(d.rl.Stdout(), "Error: %v\n", err)
			return
		}
		for name, value := range attrs {
			fmt.Fprintf(d.rl.Stdout(), "  %s: %v\n", name, value)
		}
	} else {
		// Read single attribute
		value, meta, err := d.inspector.ReadAttribute(path)
		if err != nil {
			fmt.Fprintf(d.rl.Stdout(), "Error: %v\n", err)
			return
		}
		valueStr := d.formatter.FormatValue(value, meta.Unit)
		fmt.Fprintf(d.rl.Stdout(), "%s = %s\n", meta.Name, valueStr)
	}
}

// cmdWrite handles the write command.
func (d *Device) cmdWrite(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(d.rl.Stdout(), "Usage: write <path> <value>")
		fmt.Fprintln(d.rl.Stdout(), "  Example: write main/temperatureMeasurement/temperature 27.5")
		return
	}

	path, err := inspect.ParsePath(args[0])
	if err != nil {
		fmt.Fprintf(d.rl.Stdout(), "Invalid path: %v\n", err)
		return
	}

	// Parse the value (try int, then float, then bool, then string)
	valueStr := strings.Join(args[1:], " ")
	var value any

	if v, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		value = v
	} else if v, err := strconv.ParseFloat(valueStr, 64); err == nil {
		value = v
	} else if v, err := strconv.ParseBool(valueStr); err == nil {
		value = v
	} else {
		// Treat as string (strip quotes if present)
		value = strings.Trim(valueStr, "\"'")
	}

	if err := d.inspector.WriteAttribute(path, value); err != nil {
		fmt.Fprintf(d.rl.Stdout(), "Write failed: %v\n", err)
		return
	}

	fmt.Fprintln(d.rl.Stdout(), "OK")
}

// cmdSet handles the set command for the common climate settings.
func (d *Device) cmdSet(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(d.rl.Stdout(), "Usage: set temp|mode|fan|swing <value>")
		return
	}

	device := d.svc.Device()

	switch strings.ToLower(args[0]) {
	case "temp", "temperature", "setpoint":
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			fmt.Fprintf(d.rl.Stdout(), "Invalid temperature: %v\n", err)
			return
		}
		sp, err := caps.CoolingSetpointOf(device)
		if err != nil {
			fmt.Fprintf(d.rl.Stdout(), "Error: %v\n", err)
			return
		}
		if err := sp.SetSetpoint(v); err != nil {
			fmt.Fprintf(d.rl.Stdout(), "Set failed: %v\n", err)
			return
		}
		fmt.Fprintf(d.rl.Stdout(), "Cooling setpoint set to %.1f C\n", v)

	case "mode":
		m, err := caps.AcModeOf(device)
		if err != nil {
			fmt.Fprintf(d.rl.Stdout(), "Error: %v\n", err)
			return
		}
		if err := m.SetMode(args[1]); err != nil {
			fmt.Fprintf(d.rl.Stdout(), "Set failed: %v (supported: %s)\n",
				err, strings.Join(m.SupportedModes(), ", "))
			return
		}
		fmt.Fprintf(d.rl.Stdout(), "AC mode set to %s\n", args[1])

	case "fan":
		m, err := caps.FanModeOf(device)
		if err != nil {
			fmt.Fprintf(d.rl.Stdout(), "Error: %v\n", err)
			return
		}
		if err := m.SetMode(args[1]); err != nil {
			fmt.Fprintf(d.rl.Stdout(), "Set failed: %v (supported: %s)\n",
				err, strings.Join(m.SupportedModes(), ", "))
			return
		}
		fmt.Fprintf(d.rl.Stdout(), "Fan mode set to %s\n", args[1])

	case "swing":
		m, err := caps.OscillationOf(device)
		if err != nil {
			fmt.Fprintf(d.rl.Stdout(), "Error: %v\n", err)
			return
		}
		if err := m.SetMode(args[1]); err != nil {
			fmt.Fprintf(d.rl.Stdout(), "Set failed: %v (supported: %s)\n",
				err, strings.Join(m.SupportedModes(), ", "))
			return
		}
		fmt.Fprintf(d.rl.Stdout(), "Oscillation set to %s\n", args[1])

	default:
		fmt.Fprintf(d.rl.Stdout(), "Unknown setting: %s (use temp, mode, fan or swing)\n", args[0])
	}
}

// cmdPreset shows or sets the optional mode preset.
func (d *Device) cmdPreset(args []string) {
	m, err := caps.OptionalModeOf(d.svc.Device())
	if err != nil {
		fmt.Fprintf(d.rl.Stdout(), "Error: %v\n", err)
		return
	}

	if len(args) == 0 {
		fmt.Fprintf(d.rl.Stdout(), "Preset: %s (supported: %s)\n",
			m.Mode(), strings.Join(m.SupportedModes(), ", "))
		return
	}

	if err := m.SetMode(args[0]); err != nil {
		fmt.Fprintf(d.rl.Stdout(), "Set failed: %v (supported: %s)\n",
			err, strings.Join(m.SupportedModes(), ", "))
		return
	}
	fmt.Fprintf(d.rl.Stdout(), "Preset set to %s\n", args[0])
}

// cmdPower turns the unit on or off.
func (d *Device) cmdPower(args []string) {
	if len(args) < 1 || (args[0] != "on" && args[0] != "off") {
		fmt.Fprintln(d.rl.Stdout(), "Usage: power on|off")
		return
	}

	sw, err := caps.SwitchOf(d.svc.Device())
	if err != nil {
		fmt.Fprintf(d.rl.Stdout(), "Error: %v\n", err)
		return
	}
	if err := sw.Set(args[0] == "on"); err != nil {
		fmt.Fprintf(d.rl.Stdout(), "Set failed: %v\n", err)
		return
	}
	fmt.Fprintf(d.rl.Stdout(), "Power %s\n", args[0])
}

// cmdSim starts or stops the environment simulation.
func (d *Device) cmdSim(args []string) {
	if len(args) < 1 {
		state := "stopped"
		if d.sim.Running() {
			state = "running"
		}
		fmt.Fprintf(d.rl.Stdout(), "Simulation: %s (use 'sim start' or 'sim stop')\n", state)
		return
	}

	switch args[0] {
	case "start":
		if d.sim.Running() {
			fmt.Fprintln(d.rl.Stdout(), "Simulation already running")
			return
		}
		d.sim.Start()
		fmt.Fprintln(d.rl.Stdout(), "Simulation started")
	case "stop":
		if !d.sim.Running() {
			fmt.Fprintln(d.rl.Stdout(), "Simulation not running")
			return
		}
		d.sim.Stop()
		fmt.Fprintln(d.rl.Stdout(), "Simulation stopped")
	default:
		fmt.Fprintln(d.rl.Stdout(), "Usage: sim start|stop")
	}
}

// cmdStatus shows the device status.
func (d *Device) cmdStatus() {
	out := d.rl.Stdout()
	device := d.svc.Device()

	fmt.Fprintln(out, "\nDevice Status")
	fmt.Fprintln(out, "-------------------------------------------")
	fmt.Fprintf(out, "  Device ID:      %s\n", device.ID())
	fmt.Fprintf(out, "  Label:          %s\n", device.Label())
	fmt.Fprintf(out, "  Model:          %s\n", device.Model())
	fmt.Fprintf(out, "  Service State:  %s\n", d.svc.State())
	if addr := d.svc.Addr(); addr != nil {
		fmt.Fprintf(out, "  Listening:      %s\n", addr)
	}
	fmt.Fprintf(out, "  Connections:    %d\n", d.svc.ConnectionCount())

	simStatus := "stopped"
	if d.sim.Running() {
		simStatus = "running"
	}
	fmt.Fprintf(out, "  Simulation:     %s\n", simStatus)

	if sw, err := caps.SwitchOf(device); err == nil {
		power := "off"
		if sw.On() {
			power = "on"
		}
		fmt.Fprintf(out, "  Power:          %s\n", power)
	}
	if m, err := caps.AcModeOf(device); err == nil {
		fmt.Fprintf(out, "  Mode:           %s\n", m.Mode())
	}
	if m, err := caps.FanModeOf(device); err == nil {
		fmt.Fprintf(out, "  Fan:            %s\n", m.Mode())
	}
	if m, err := caps.OscillationOf(device); err == nil {
		fmt.Fprintf(out, "  Swing:          %s\n", m.Mode())
	}
	if m, err := caps.OptionalModeOf(device); err == nil {
		fmt.Fprintf(out, "  Preset:         %s\n", m.Mode())
	}
	if sp, err := caps.CoolingSetpointOf(device); err == nil {
		if v, ok := sp.Setpoint(); ok {
			fmt.Fprintf(out, "  Setpoint:       %.1f C\n", v)
		}
	}
	if t, err := caps.TemperatureOf(device); err == nil {
		if v, ok := t.Temperature(); ok {
			fmt.Fprintf(out, "  Temperature:    %.1f %s\n", v, t.Unit())
		}
	}
	if h, err := caps.HumidityOf(device); err == nil {
		if v, ok := h.Humidity(); ok {
			fmt.Fprintf(out, "  Humidity:       %.0f %%\n", v)
		}
	}

	fmt.Fprintln(out)
}

// handleEvent displays relevant service events above the prompt.
func (d *Device) handleEvent(event service.Event) {
	switch event.Type {
	case service.EventConnected:
		d.printEvent("Bridge connected from %s", event.Address)

	case service.EventDisconnected:
		d.printEvent("Bridge disconnected (%s)", event.Address)

	case service.EventCommandInvoked:
		if len(event.Arguments) > 0 {
			d.printEvent("Command %s.%s %v", event.Capability, event.Command, event.Arguments)
		} else {
			d.printEvent("Command %s.%s", event.Capability, event.Command)
		}

	case service.EventValueChanged:
		// The simulator updates the measurements every tick; only show
		// changes to the control attributes.
		switch event.Capability {
		case caps.CapTemperatureMeasurement, caps.CapRelativeHumidityMeasurement:
			return
		}
		d.printEvent("%s.%s = %v", event.Capability, event.Attribute, event.Value)
	}
}

func (d *Device) printEvent(format string, args ...any) {
	fmt.Fprintf(d.rl.Stdout(), "\n[%s] %s\n",
		time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	d.rl.Refresh()
}
