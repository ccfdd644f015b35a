// Package interactive provides the interactive command-line interface
// for the KRAC bridge.
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
	"github.com/krac-home/krac-go/pkg/climate"
	"github.com/krac-home/krac-go/pkg/inspect"
	"github.com/krac-home/krac-go/pkg/service"
)

// commandTimeout bounds every request the console sends to a device.
const commandTimeout = 10 * time.Second

// Bridge handles interactive mode for krac-bridge.
type Bridge struct {
	svc       *service.BridgeService
	formatter *inspect.Formatter
	rl        *readline.Instance
}

// New creates a new interactive bridge handler.
func New(svc *service.BridgeService) (*Bridge, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "krac> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	b := &Bridge{
		svc:       svc,
		formatter: inspect.NewFormatter(),
		rl:        rl,
	}

	// Show device activity above the prompt
	svc.OnEvent(b.handleEvent)

	return b, nil
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (b *Bridge) Stdout() io.Writer {
	return b.rl.Stdout()
}

// Stderr returns a writer that properly coordinates with the readline input.
func (b *Bridge) Stderr() io.Writer {
	return b.rl.Stderr()
}

// Run starts the interactive command loop.
func (b *Bridge) Run(ctx context.Context, cancel context.CancelFunc) {
	defer b.rl.Close()

	b.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := b.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(b.rl.Stdout(), "Exiting...")
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
			b.printHelp()

		case "devices", "list", "ls":
			b.cmdDevices()

		case "inspect", "i":
			b.cmdInspect(args)

		case "read", "r":
			b.cmdRead(args)

		case "cmd", "invoke":
			b.cmdInvoke(ctx, args)

		case "mode":
			b.cmdMode(ctx, args)

		case "temp":
			b.cmdTemp(ctx, args)

		case "fan":
			b.cmdFan(ctx, args)

		case "swing":
			b.cmdSwing(ctx, args)

		case "preset":
			b.cmdPreset(ctx, args)

		case "power":
			b.cmdPower(ctx, args)

		case "status":
			b.cmdStatus(args)

		case "quit", "exit", "q":
			fmt.Fprintln(b.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(b.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (b *Bridge) printHelp() {
	fmt.Fprintln(b.rl.Stdout(), `
KRAC Bridge Commands:
  Devices:
    devices                    - List known devices
    status [device-id]         - Show bridge status, or a device's climate state

  Climate Control:
    power <id> on|off          - Turn a unit on or off
    mode <id> <hvac-mode>      - Set HVAC mode (off, cool, heat, dry, fan_only, heat_cool)
    temp <id> <celsius>        - Set the target temperature
    fan <id> <mode>            - Set fan mode (auto, low, medium, high, turbo)
    swing <id> <mode>          - Set swing mode (off, all, vertical, horizontal)
    preset <id> <preset>       - Set a preset (WindFree, Fast Turbo, Quiet, ... or off)

  Inspection:
    inspect <id>[/path]        - Inspect the device mirror
    read <id>/<path>           - Read a mirrored attribute value
    cmd <id>/<path> [args]     - Invoke a raw capability command

  General:
    help                       - Show this help
    quit                       - Exit bridge

  Device IDs may be abbreviated to any unique substring.
  Path Format: component/capability/attribute - e.g., main/switch/switch`)
}

// cmdDevices handles the devices command.
func (b *Bridge) cmdDevices() {
	devices := b.svc.Devices()
	if len(devices) == 0 {
		fmt.Fprintln(b.rl.Stdout(), "No devices known")
		return
	}

	fmt.Fprintf(b.rl.Stdout(), "\nKnown Devices (%d):\n", len(devices))
	fmt.Fprintln(b.rl.Stdout(), "-------------------------------------------")
	for _, d := range devices {
		status := "connected"
		if !d.Connected {
			status = "disconnected"
		}
		fmt.Fprintf(b.rl.Stdout(), "  ID: %s\n", d.DeviceID)
		fmt.Fprintf(b.rl.Stdout(), "      Label: %s\n", d.Label)
		fmt.Fprintf(b.rl.Stdout(), "      Model: %s\n", d.Model)
		fmt.Fprintf(b.rl.Stdout(), "      Address: %s\n", d.Address)
		fmt.Fprintf(b.rl.Stdout(), "      Status: %s\n", status)
		if d.HasEntity {
			fmt.Fprintf(b.rl.Stdout(), "      Entity: climate\n")
		}
		if !d.LastSeen.IsZero() {
			fmt.Fprintf(b.rl.Stdout(), "      Last seen: %s\n", d.LastSeen.Format("15:04:05"))
		}
		fmt.Fprintln(b.rl.Stdout())
	}
}

// cmdStatus shows the bridge status, or a device's climate state when
// a device ID is given.
func (b *Bridge) cmdStatus(args []string) {
	if len(args) > 0 {
		b.showDeviceStatus(args[0])
		return
	}

	devices := b.svc.Devices()
	connected := 0
	for _, d := range devices {
		if d.Connected {
			connected++
		}
	}

	fmt.Fprintln(b.rl.Stdout(), "\nBridge Status")
	fmt.Fprintln(b.rl.Stdout(), "-------------------------------------------")
	fmt.Fprintf(b.rl.Stdout(), "  Service State:     %s\n", b.svc.State())
	fmt.Fprintf(b.rl.Stdout(), "  Known Devices:     %d\n", len(devices))
	fmt.Fprintf(b.rl.Stdout(), "  Connected:         %d\n", connected)
	fmt.Fprintln(b.rl.Stdout())
}

// showDeviceStatus displays a device's climate entity state.
func (b *Bridge) showDeviceStatus(partial string) {
	deviceID := b.resolveDeviceID(partial)
	if deviceID == "" {
		fmt.Fprintf(b.rl.Stdout(), "Device not found: %s\n", partial)
		return
	}

	ac, err := b.entity(deviceID)
	if err != nil {
		fmt.Fprintf(b.rl.Stdout(), "Error: %v\n", err)
		return
	}

	fmt.Fprintf(b.rl.Stdout(), "\nDevice: %s\n", deviceID)
	fmt.Fprintln(b.rl.Stdout(), "-------------------------------------------")
	fmt.Fprintf(b.rl.Stdout(), "  HVAC Mode:      %s\n", ac.HVACMode())
	fmt.Fprintf(b.rl.Stdout(), "  Action:         %s\n", ac.Action())
	if v, ok := ac.CurrentTemperature(); ok {
		fmt.Fprintf(b.rl.Stdout(), "  Temperature:    %.1f %s\n", v, ac.TemperatureUnit())
	}
	if v, ok := ac.CurrentHumidity(); ok {
		fmt.Fprintf(b.rl.Stdout(), "  Humidity:       %.0f %%\n", v)
	}
	if v, ok := ac.TargetTemperature(); ok {
		fmt.Fprintf(b.rl.Stdout(), "  Target:         %.1f %s (range %.0f-%.0f)\n",
			v, ac.TemperatureUnit(), ac.MinTemperature(), ac.MaxTemperature())
	}
	fmt.Fprintf(b.rl.Stdout(), "  Fan:            %s\n", ac.FanMode())
	fmt.Fprintf(b.rl.Stdout(), "  Swing:          %s\n", ac.SwingMode())
	if preset := ac.PresetMode(); preset != "" {
		fmt.Fprintf(b.rl.Stdout(), "  Preset:         %s\n", preset)
	}
	if presets := ac.PresetModes(); len(presets) > 0 {
		fmt.Fprintf(b.rl.Stdout(), "  Presets:        %s\n", strings.Join(presets, ", "))
	}
	fmt.Fprintln(b.rl.Stdout())
}

// cmdInspect handles the inspect command.
func (b *Bridge) cmdInspect(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(b.rl.Stdout(), "Usage: inspect <device-id>[/path]")
		fmt.Fprintln(b.rl.Stdout(), "  Examples:")
		fmt.Fprintln(b.rl.Stdout(), "    inspect ac-bedroom            - Show full device structure")
		fmt.Fprintln(b.rl.Stdout(), "    inspect ac-bedroom/main/switch - Show one capability")
		return
	}

	deviceID, pathStr := b.parseDevicePath(args[0])
	ri, err := b.remote(deviceID)
	if err != nil {
		fmt.Fprintf(b.rl.Stdout(), "Error: %v\n", err)
		return
	}

	if pathStr == "" {
		tree := ri.InspectDevice()
		fmt.Fprint(b.rl.Stdout(), ri.FormatDeviceTree(tree, b.formatter))
		return
	}

	path, err := inspect.ParsePath(pathStr)
	if err != nil {
		fmt.Fprintf(b.rl.Stdout(), "Invalid path: %v\n", err)
		return
	}

	if path.IsPartial {
		if path.Capability == "" {
			compInfo, err := ri.InspectComponent(path.Component)
			if err != nil {
				fmt.Fprintf(b.rl.Stdout(), "Error: %v\n", err)
				return
			}
			fmt.Fprint(b.rl.Stdout(), ri.FormatComponent(compInfo, b.formatter))
		} else {
			capInfo, err := ri.InspectCapability(path.Component, path.Capability)
			if err != nil {
				fmt.Fprintf(b.rl.Stdout(), "Error: %v\n", err)
				return
			}
			fmt.Fprint(b.rl.Stdout(), ri.FormatCapability(capInfo, b.formatter))
		}
	} else {
		value, meta, err := ri.ReadAttribute(path)
		if err != nil {
			fmt.Fprintf(b.rl.Stdout(), "Error: %v\n", err)
			return
		}
		valueStr := b.formatter.FormatValue(value, meta.Unit)
		fmt.Fprintf(b.rl.Stdout(), "%s = %s\n", meta.Name, valueStr)
	}
}

// cmdRead handles the read command.
func (b *Bridge) cmdRead(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(b.rl.Stdout(), "Usage: read <device-id>/<path>")
		fmt.Fprintln(b.rl.Stdout(), "  Example: read ac-bedroom/main/temperatureMeasurement/temperature")
		return
	}

	deviceID, pathStr := b.parseDevicePath(args[0])
	if pathStr == "" {
		fmt.Fprintln(b.rl.Stdout(), "Path required: <component>/<capability>[/attribute]")
		return
	}

	ri, err := b.remote(deviceID)
	if err != nil {
		fmt.Fprintf(b.rl.Stdout(), "Error: %v\n", err)
		return
	}

	path, err := inspect.ParsePath(pathStr)
	if err != nil {
		fmt.Fprintf(b.rl.Stdout(), "Invalid path: %v\n", err)
		return
	}

	if path.IsPartial {
		attrs, err := ri.ReadAllAttributes(path.Component, path.Capability)
		if err != nil {
			fmt.Fprintf(b.rl.Stdout(), "Read failed: %v\n", err)
			return
		}
		for name, value := range attrs {
			fmt.Fprintf(b.rl.Stdout(), "  %s: %v\n", name, value)
		}
	} else {
		value, meta, err := ri.ReadAttribute(path)
		if err != nil {
			fmt.Fprintf(b.rl.Stdout(), "Read failed: %v\n", err)
			return
		}
		valueStr := b.formatter.FormatValue(value, meta.Unit)
		fmt.Fprintf(b.rl.Stdout(), "%s = %s\n", meta.Name, valueStr)
	}
}

// cmdInvoke handles the cmd command for raw capability commands.
func (b *Bridge) cmdInvoke(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(b.rl.Stdout(), "Usage: cmd <device-id>/<component>/<capability>/cmd/<name> [args]")
		fmt.Fprintln(b.rl.Stdout(), "  Example: cmd ac-bedroom/main/switch/cmd/on")
		return
	}

	deviceID, pathStr := b.parseDevicePath(args[0])
	if pathStr == "" {
		fmt.Fprintln(b.rl.Stdout(), "Path required: <component>/<capability>/cmd/<name>")
		return
	}

	ri, err := b.remote(deviceID)
	if err != nil {
		fmt.Fprintf(b.rl.Stdout(), "Error: %v\n", err)
		return
	}

	path, err := inspect.ParsePath(pathStr)
	if err != nil {
		fmt.Fprintf(b.rl.Stdout(), "Invalid path: %v\n", err)
		return
	}

	cmdArgs := make([]any, 0, len(args)-1)
	for _, raw := range args[1:] {
		cmdArgs = append(cmdArgs, parseValue(raw))
	}

	cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	if err := ri.InvokeCommand(cmdCtx, path, cmdArgs); err != nil {
		fmt.Fprintf(b.rl.Stdout(), "Command failed: %v\n", err)
		return
	}
	fmt.Fprintln(b.rl.Stdout(), "OK")
}

// cmdMode sets the HVAC mode on a device.
func (b *Bridge) cmdMode(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(b.rl.Stdout(), "Usage: mode <device-id> <hvac-mode>")
		return
	}

	ac, ok := b.entityFor(args[0])
	if !ok {
		return
	}

	mode := climate.HVACMode(strings.ToLower(args[1]))
	cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	if err := ac.SetHVACMode(cmdCtx, mode); err != nil {
		modes := make([]string, 0, len(ac.HVACModes()))
		for _, m := range ac.HVACModes() {
			modes = append(modes, string(m))
		}
		fmt.Fprintf(b.rl.Stdout(), "Failed: %v (supported: %s)\n", err, strings.Join(modes, ", "))
		return
	}
	fmt.Fprintf(b.rl.Stdout(), "HVAC mode set to %s\n", mode)
}

// cmdTemp sets the target temperature on a device.
func (b *Bridge) cmdTemp(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(b.rl.Stdout(), "Usage: temp <device-id> <celsius>")
		return
	}

	ac, ok := b.entityFor(args[0])
	if !ok {
		return
	}

	target, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		fmt.Fprintf(b.rl.Stdout(), "Invalid temperature: %v\n", err)
		return
	}

	cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	if err := ac.SetTemperature(cmdCtx, climate.TemperatureRequest{Target: target}); err != nil {
		fmt.Fprintf(b.rl.Stdout(), "Failed: %v\n", err)
		return
	}
	fmt.Fprintf(b.rl.Stdout(), "Target temperature set to %.1f\n", target)
}

// cmdFan sets the fan mode on a device.
func (b *Bridge) cmdFan(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(b.rl.Stdout(), "Usage: fan <device-id> <mode>")
		return
	}

	ac, ok := b.entityFor(args[0])
	if !ok {
		return
	}

	cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	if err := ac.SetFanMode(cmdCtx, args[1]); err != nil {
		fmt.Fprintf(b.rl.Stdout(), "Failed: %v (supported: %s)\n",
			err, strings.Join(ac.FanModes(), ", "))
		return
	}
	fmt.Fprintf(b.rl.Stdout(), "Fan mode set to %s\n", args[1])
}

// cmdSwing sets the swing mode on a device.
func (b *Bridge) cmdSwing(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(b.rl.Stdout(), "Usage: swing <device-id> <mode>")
		return
	}

	ac, ok := b.entityFor(args[0])
	if !ok {
		return
	}

	cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	if err := ac.SetSwingMode(cmdCtx, args[1]); err != nil {
		fmt.Fprintf(b.rl.Stdout(), "Failed: %v (supported: %s)\n",
			err, strings.Join(ac.SwingModes(), ", "))
		return
	}
	fmt.Fprintf(b.rl.Stdout(), "Swing mode set to %s\n", args[1])
}

// cmdPreset sets a preset mode on a device. Preset names may span
// several words ("fast turbo").
func (b *Bridge) cmdPreset(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(b.rl.Stdout(), "Usage: preset <device-id> <preset>")
		fmt.Fprintln(b.rl.Stdout(), "  Example: preset ac-bedroom fast turbo")
		return
	}

	ac, ok := b.entityFor(args[0])
	if !ok {
		return
	}

	preset := strings.Join(args[1:], " ")
	cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	if err := ac.SetPresetMode(cmdCtx, preset); err != nil {
		fmt.Fprintf(b.rl.Stdout(), "Failed: %v (supported: %s)\n",
			err, strings.Join(ac.PresetModes(), ", "))
		return
	}
	fmt.Fprintf(b.rl.Stdout(), "Preset set to %s\n", preset)
}

// cmdPower turns a device on or off.
func (b *Bridge) cmdPower(ctx context.Context, args []string) {
	if len(args) < 2 || (args[1] != "on" && args[1] != "off") {
		fmt.Fprintln(b.rl.Stdout(), "Usage: power <device-id> on|off")
		return
	}

	ac, ok := b.entityFor(args[0])
	if !ok {
		return
	}

	cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	var err error
	if args[1] == "on" {
		err = ac.TurnOn(cmdCtx)
	} else {
		err = ac.TurnOff(cmdCtx)
	}
	if err != nil {
		fmt.Fprintf(b.rl.Stdout(), "Failed: %v\n", err)
		return
	}
	fmt.Fprintf(b.rl.Stdout(), "Power %s\n", args[1])
}

// entityFor resolves a device and returns its climate entity, printing
// the error itself so command handlers stay short.
func (b *Bridge) entityFor(partial string) (*climate.AirConditioner, bool) {
	deviceID := b.resolveDeviceID(partial)
	if deviceID == "" {
		fmt.Fprintf(b.rl.Stdout(), "Device not found: %s\n", partial)
		return nil, false
	}

	ac, err := b.entity(deviceID)
	if err != nil {
		fmt.Fprintf(b.rl.Stdout(), "Error: %v\n", err)
		return nil, false
	}
	return ac, true
}

func (b *Bridge) entity(deviceID string) (*climate.AirConditioner, error) {
	return b.svc.Entity(deviceID)
}

// remote builds a RemoteInspector over the bridge's mirror of a device.
func (b *Bridge) remote(partial string) (*inspect.RemoteInspector, error) {
	deviceID := b.resolveDeviceID(partial)
	if deviceID == "" {
		return nil, fmt.Errorf("device not found: %s", partial)
	}

	mirror, err := b.svc.Mirror(deviceID)
	if err != nil {
		return nil, err
	}
	commander, err := b.svc.Commander(deviceID)
	if err != nil {
		return nil, err
	}
	return inspect.NewRemoteInspector(deviceID, mirror, commander), nil
}

// resolveDeviceID resolves a partial device ID to a full device ID.
func (b *Bridge) resolveDeviceID(partial string) string {
	devices := b.svc.Devices()

	// Try exact match first
	for _, d := range devices {
		if d.DeviceID == partial {
			return d.DeviceID
		}
	}

	// Try partial match
	for _, d := range devices {
		if strings.Contains(d.DeviceID, partial) {
			return d.DeviceID
		}
	}

	return ""
}

// parseDevicePath splits a device/path string into device ID and path.
// Examples:
//   - "ac-bedroom" -> ("ac-bedroom", "")
//   - "ac-bedroom/main/switch" -> ("ac-bedroom", "main/switch")
func (b *Bridge) parseDevicePath(input string) (deviceID, path string) {
	parts := strings.SplitN(input, "/", 2)
	deviceID = parts[0]
	if len(parts) > 1 {
		path = parts[1]
	}
	return
}

// parseValue parses a command argument (try int, then float, then
// bool, then string).
func parseValue(raw string) any {
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseBool(raw); err == nil {
		return v
	}
	return strings.Trim(raw, "\"'")
}

// handleEvent displays relevant service events above the prompt.
func (b *Bridge) handleEvent(event service.Event) {
	switch event.Type {
	case service.EventDeviceDiscovered:
		b.printEvent("Discovered %s at %s", event.DeviceID, event.Address)

	case service.EventConnected:
		b.printEvent("Device connected: %s (%s)", event.DeviceID, event.Address)

	case service.EventDisconnected:
		b.printEvent("Device disconnected: %s", event.DeviceID)

	case service.EventValueChanged:
		// Measurements stream continuously, keep them off the console.
		switch event.Capability {
		case caps.CapTemperatureMeasurement, caps.CapRelativeHumidityMeasurement:
			return
		}
		b.printEvent("%s: %s.%s = %v", shortID(event.DeviceID),
			event.Capability, event.Attribute, event.Value)
	}
}

func (b *Bridge) printEvent(format string, args ...any) {
	fmt.Fprintf(b.rl.Stdout(), "\n[%s] %s\n",
		time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	b.rl.Refresh()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
