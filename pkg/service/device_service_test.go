package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krac-home/krac-go/pkg/caps"
	"github.com/krac-home/krac-go/pkg/model"
	"github.com/krac-home/krac-go/pkg/persistence"
	"github.com/krac-home/krac-go/pkg/transport"
)

// collectEvents registers a buffered event sink on a service.
func collectEvents(on func(EventHandler)) <-chan Event {
	events := make(chan Event, 64)
	on(func(e Event) {
		select {
		case events <- e:
		default:
		}
	})
	return events
}

// waitForEvent drains the sink until an event of the wanted type
// arrives or the wait times out.
func waitForEvent(t *testing.T, events <-chan Event, want EventType) Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case e := <-events:
			if e.Type == want {
				return e
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", want)
			return Event{}
		}
	}
}

// nopConnHandler is a bridge-side connection handler that ignores
// everything, for tests that only exercise the device side.
type nopConnHandler struct{}

func (nopConnHandler) OnMessage([]byte)                            {}
func (nopConnHandler) OnStateChange(_, _ transport.ConnectionState) {}
func (nopConnHandler) OnError(error)                               {}

func newRunningDeviceService(t *testing.T, device *model.Device, config DeviceConfig) *DeviceService {
	t.Helper()

	if config.ListenAddress == "" {
		config.ListenAddress = "127.0.0.1:0"
	}
	config.DisableMDNS = true

	svc, err := NewDeviceService(device, config)
	require.NoError(t, err)
	require.NoError(t, svc.Start(context.Background()))
	t.Cleanup(func() { _ = svc.Stop() })
	return svc
}

func TestDeviceConfigValidate(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg := DefaultDeviceConfig()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("MissingAddress", func(t *testing.T) {
		cfg := DeviceConfig{}
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("AddressWithoutPort", func(t *testing.T) {
		cfg := DeviceConfig{ListenAddress: "localhost"}
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})
}

func TestNewDeviceServiceRequiresDevice(t *testing.T) {
	_, err := NewDeviceService(nil, DefaultDeviceConfig())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDeviceServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	device := caps.NewAirConditionerDevice("ac-lifecycle", "Test AC")

	svc, err := NewDeviceService(device, DeviceConfig{
		ListenAddress: "127.0.0.1:0",
		DisableMDNS:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, StateIdle, svc.State())
	assert.Nil(t, svc.Addr())

	require.NoError(t, svc.Start(ctx))
	assert.Equal(t, StateRunning, svc.State())
	require.NotNil(t, svc.Addr())
	assert.NotEqual(t, "127.0.0.1:0", svc.Addr().String())

	assert.ErrorIs(t, svc.Start(ctx), ErrAlreadyStarted)

	require.NoError(t, svc.Stop())
	assert.Equal(t, StateStopped, svc.State())
	assert.Nil(t, svc.Addr())
	assert.ErrorIs(t, svc.Stop(), ErrNotStarted)

	// A stopped service can be started again.
	require.NoError(t, svc.Start(ctx))
	assert.Equal(t, StateRunning, svc.State())
	require.NoError(t, svc.Stop())
}

func TestDeviceServiceConnectionEvents(t *testing.T) {
	device := caps.NewAirConditionerDevice("ac-conn", "Test AC")
	svc := newRunningDeviceService(t, device, DeviceConfig{})
	events := collectEvents(svc.OnEvent)

	conn := transport.NewConnection(transport.ConnectionConfig{}, nopConnHandler{})
	require.NoError(t, conn.Connect(context.Background(), svc.Addr().String()))

	connected := waitForEvent(t, events, EventConnected)
	assert.NotEmpty(t, connected.ConnID)
	assert.NotEmpty(t, connected.Address)
	assert.Eventually(t, func() bool { return svc.ConnectionCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	disconnected := waitForEvent(t, events, EventDisconnected)
	assert.Equal(t, connected.ConnID, disconnected.ConnID)
	assert.Eventually(t, func() bool { return svc.ConnectionCount() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestDeviceServiceValueEvents(t *testing.T) {
	device := caps.NewAirConditionerDevice("ac-values", "Test AC")
	svc := newRunningDeviceService(t, device, DeviceConfig{})
	events := collectEvents(svc.OnEvent)

	sw, err := caps.SwitchOf(device)
	require.NoError(t, err)
	require.NoError(t, sw.Set(true))

	ev := waitForEvent(t, events, EventValueChanged)
	assert.Equal(t, "ac-values", ev.DeviceID)
	assert.Equal(t, model.MainComponentID, ev.Component)
	assert.Equal(t, caps.CapSwitch, ev.Capability)
	assert.Equal(t, caps.AttrSwitch, ev.Attribute)
	assert.Equal(t, "on", ev.Value)
}

func TestDeviceServiceStatePersistence(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewDeviceStateStore(filepath.Join(t.TempDir(), "device.json"))

	device := caps.NewAirConditionerDevice("ac-persist", "Bedroom AC")
	sw, err := caps.SwitchOf(device)
	require.NoError(t, err)
	require.NoError(t, sw.Set(true))
	setpoint, err := caps.CoolingSetpointOf(device)
	require.NoError(t, err)
	require.NoError(t, setpoint.SetSetpoint(27))

	svc, err := NewDeviceService(device, DeviceConfig{
		ListenAddress: "127.0.0.1:0",
		DisableMDNS:   true,
		StateStore:    store,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Start(ctx))
	require.NoError(t, svc.Stop())

	// A fresh model with the same identity picks the values back up.
	restored := caps.NewAirConditionerDevice("ac-persist", "Unnamed")
	svc2, err := NewDeviceService(restored, DeviceConfig{
		ListenAddress: "127.0.0.1:0",
		DisableMDNS:   true,
		StateStore:    store,
	})
	require.NoError(t, err)
	require.NoError(t, svc2.Start(ctx))
	t.Cleanup(func() { _ = svc2.Stop() })

	sw2, err := caps.SwitchOf(restored)
	require.NoError(t, err)
	assert.True(t, sw2.On())

	sp2, err := caps.CoolingSetpointOf(restored)
	require.NoError(t, err)
	v, ok := sp2.Setpoint()
	require.True(t, ok)
	assert.Equal(t, 27.0, v)

	assert.Equal(t, "Bedroom AC", restored.Label())
}

func TestRestoredValueCoercion(t *testing.T) {
	cap := model.NewCapability("custom.counter", 1)
	require.NoError(t, cap.AddAttribute(&model.AttributeMetadata{
		Name: "count",
		Type: model.DataTypeInteger,
	}))

	// JSON loads integers back as float64; whole floats must convert
	// so integer attributes validate.
	assert.Equal(t, 5, restoredValue(cap, "count", float64(5)))
	assert.Equal(t, 5.5, restoredValue(cap, "count", 5.5))
	assert.Equal(t, "x", restoredValue(cap, "count", "x"))
}

func TestServiceStateString(t *testing.T) {
	tests := []struct {
		state ServiceState
		want  string
	}{
		{StateIdle, "IDLE"},
		{StateStarting, "STARTING"},
		{StateRunning, "RUNNING"},
		{StateStopping, "STOPPING"},
		{StateStopped, "STOPPED"},
		{ServiceState(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}

func TestEventTypeString(t *testing.T) {
	tests := []struct {
		typ  EventType
		want string
	}{
		{EventConnected, "CONNECTED"},
		{EventDisconnected, "DISCONNECTED"},
		{EventValueChanged, "VALUE_CHANGED"},
		{EventCommandInvoked, "COMMAND_INVOKED"},
		{EventDeviceDiscovered, "DEVICE_DISCOVERED"},
		{EventType(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.typ.String())
	}
}
