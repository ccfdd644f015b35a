package interaction

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/krac-home/krac-go/pkg/model"
	"github.com/krac-home/krac-go/pkg/wire"
)

func switchCapability() *model.Capability {
	cap := model.NewCapability("switch", 1)
	_ = cap.AddAttribute(&model.AttributeMetadata{
		Name:       "switch",
		Type:       model.DataTypeEnum,
		EnumValues: []string{"on", "off"},
		Default:    "off",
	})
	_ = cap.AddCommand(&model.CommandMetadata{Name: "on"},
		func(ctx context.Context, args []any) (map[string]any, error) {
			return nil, cap.SetValue("switch", "on")
		})
	_ = cap.AddCommand(&model.CommandMetadata{Name: "off"},
		func(ctx context.Context, args []any) (map[string]any, error) {
			return nil, cap.SetValue("switch", "off")
		})
	return cap
}

func createTestDevice() *model.Device {
	device := model.NewDevice("krac-test-1", "Office AC", "Samsung Electronics", "ARTIK051_KRAC_18K", "0.1.0")

	main := device.MainComponent()
	_ = main.AddCapability(switchCapability())

	setpoint := model.NewCapability("thermostatCoolingSetpoint", 1)
	_ = setpoint.AddAttribute(&model.AttributeMetadata{
		Name:    "coolingSetpoint",
		Type:    model.DataTypeNumber,
		Default: 24.0,
		Unit:    "C",
	})
	_ = setpoint.AddCommand(&model.CommandMetadata{
		Name: "setCoolingSetpoint",
		Parameters: []model.ParameterMetadata{
			{Name: "setpoint", Type: model.DataTypeNumber, Required: true},
		},
	}, func(ctx context.Context, args []any) (map[string]any, error) {
		return nil, setpoint.SetValue("coolingSetpoint", args[0])
	})
	_ = main.AddCapability(setpoint)

	// Second component, as on multi-zone appliances
	sub, _ := device.AddComponent("1")
	_ = sub.AddCapability(switchCapability())

	return device
}

func TestServerStatus(t *testing.T) {
	device := createTestDevice()
	server := NewServer(device)
	defer server.Close()

	t.Run("ReadValues", func(t *testing.T) {
		req := &wire.Request{
			MessageID:  1,
			Operation:  wire.OpStatus,
			Component:  "main",
			Capability: "switch",
		}

		resp := server.HandleRequest(context.Background(), req)

		if resp.MessageID != 1 {
			t.Errorf("expected messageId 1, got %d", resp.MessageID)
		}
		if !resp.Status.IsSuccess() {
			t.Fatalf("expected success, got %s", resp.Status)
		}

		values, ok := resp.Payload.(wire.StatusResponsePayload)
		if !ok {
			t.Fatalf("expected StatusResponsePayload, got %T", resp.Payload)
		}
		if values["switch"] != "off" {
			t.Errorf("expected switch off, got %v", values["switch"])
		}
	})

	t.Run("DefaultComponent", func(t *testing.T) {
		req := &wire.Request{
			MessageID:  2,
			Operation:  wire.OpStatus,
			Capability: "thermostatCoolingSetpoint",
		}

		resp := server.HandleRequest(context.Background(), req)

		if !resp.Status.IsSuccess() {
			t.Fatalf("expected success, got %s", resp.Status)
		}
		values := resp.Payload.(wire.StatusResponsePayload)
		if values["coolingSetpoint"] != 24.0 {
			t.Errorf("expected 24.0, got %v", values["coolingSetpoint"])
		}
	})

	t.Run("UnknownComponent", func(t *testing.T) {
		req := &wire.Request{
			MessageID:  3,
			Operation:  wire.OpStatus,
			Component:  "9",
			Capability: "switch",
		}

		resp := server.HandleRequest(context.Background(), req)

		if resp.Status != wire.StatusUnsupportedComponent {
			t.Errorf("expected UnsupportedComponent, got %s", resp.Status)
		}
	})

	t.Run("UnknownCapability", func(t *testing.T) {
		req := &wire.Request{
			MessageID:  4,
			Operation:  wire.OpStatus,
			Component:  "main",
			Capability: "airConditionerMode",
		}

		resp := server.HandleRequest(context.Background(), req)

		if resp.Status != wire.StatusUnsupportedCapability {
			t.Errorf("expected UnsupportedCapability, got %s", resp.Status)
		}
	})

	t.Run("MissingCapability", func(t *testing.T) {
		req := &wire.Request{
			MessageID: 5,
			Operation: wire.OpStatus,
			Component: "main",
		}

		resp := server.HandleRequest(context.Background(), req)

		if resp.Status != wire.StatusUnsupportedCapability {
			t.Errorf("expected UnsupportedCapability, got %s", resp.Status)
		}
	})
}

func TestServerCommand(t *testing.T) {
	device := createTestDevice()
	server := NewServer(device)
	defer server.Close()

	t.Run("Switch", func(t *testing.T) {
		req := &wire.Request{
			MessageID:  1,
			Operation:  wire.OpCommand,
			Component:  "main",
			Capability: "switch",
			Payload:    &wire.CommandPayload{Name: "on"},
		}

		resp := server.HandleRequest(context.Background(), req)

		if !resp.Status.IsSuccess() {
			t.Fatalf("expected success, got %s", resp.Status)
		}

		cap, err := device.Capability("main", "switch")
		if err != nil {
			t.Fatal(err)
		}
		val, _ := cap.Value("switch")
		if val != "on" {
			t.Errorf("expected switch on after command, got %v", val)
		}
	})

	t.Run("WithArguments", func(t *testing.T) {
		req := &wire.Request{
			MessageID:  2,
			Operation:  wire.OpCommand,
			Component:  "main",
			Capability: "thermostatCoolingSetpoint",
			Payload: &wire.CommandPayload{
				Name:      "setCoolingSetpoint",
				Arguments: []any{25.5},
			},
		}

		resp := server.HandleRequest(context.Background(), req)

		if !resp.Status.IsSuccess() {
			t.Fatalf("expected success, got %s", resp.Status)
		}

		cap, _ := device.Capability("main", "thermostatCoolingSetpoint")
		val, _ := cap.Value("coolingSetpoint")
		if val != 25.5 {
			t.Errorf("expected 25.5, got %v", val)
		}
	})

	t.Run("UnknownCommand", func(t *testing.T) {
		req := &wire.Request{
			MessageID:  3,
			Operation:  wire.OpCommand,
			Component:  "main",
			Capability: "switch",
			Payload:    &wire.CommandPayload{Name: "toggle"},
		}

		resp := server.HandleRequest(context.Background(), req)

		if resp.Status != wire.StatusUnsupportedCommand {
			t.Errorf("expected UnsupportedCommand, got %s", resp.Status)
		}
	})

	t.Run("MissingArgument", func(t *testing.T) {
		req := &wire.Request{
			MessageID:  4,
			Operation:  wire.OpCommand,
			Component:  "main",
			Capability: "thermostatCoolingSetpoint",
			Payload:    &wire.CommandPayload{Name: "setCoolingSetpoint"},
		}

		resp := server.HandleRequest(context.Background(), req)

		if resp.Status != wire.StatusInvalidArguments {
			t.Errorf("expected InvalidArguments, got %s", resp.Status)
		}
	})

	t.Run("WrongArgumentType", func(t *testing.T) {
		req := &wire.Request{
			MessageID:  5,
			Operation:  wire.OpCommand,
			Component:  "main",
			Capability: "thermostatCoolingSetpoint",
			Payload: &wire.CommandPayload{
				Name:      "setCoolingSetpoint",
				Arguments: []any{"hot"},
			},
		}

		resp := server.HandleRequest(context.Background(), req)

		if resp.Status != wire.StatusInvalidArguments {
			t.Errorf("expected InvalidArguments, got %s", resp.Status)
		}
	})

	t.Run("InvalidPayload", func(t *testing.T) {
		req := &wire.Request{
			MessageID:  6,
			Operation:  wire.OpCommand,
			Component:  "main",
			Capability: "switch",
		}

		resp := server.HandleRequest(context.Background(), req)

		if resp.Status != wire.StatusInvalidArguments {
			t.Errorf("expected InvalidArguments, got %s", resp.Status)
		}
	})
}

func TestServerSubscribe(t *testing.T) {
	device := createTestDevice()
	server := NewServer(device)
	defer server.Close()

	t.Run("SubscribeAll", func(t *testing.T) {
		req := &wire.Request{
			MessageID: 1,
			Operation: wire.OpSubscribe,
		}

		resp := server.HandleRequest(context.Background(), req)

		if !resp.Status.IsSuccess() {
			t.Fatalf("expected success, got %s", resp.Status)
		}

		sp, ok := resp.Payload.(*wire.SubscribeResponsePayload)
		if !ok {
			t.Fatalf("expected SubscribeResponsePayload, got %T", resp.Payload)
		}
		if sp.SubscriptionID == 0 {
			t.Error("expected non-zero subscription ID")
		}

		// Priming report covers every capability on the device
		if len(sp.CurrentValues) != 3 {
			t.Errorf("expected 3 capability keys, got %d", len(sp.CurrentValues))
		}
		if sp.CurrentValues["main/switch"]["switch"] != "off" {
			t.Errorf("expected main/switch off, got %v", sp.CurrentValues["main/switch"])
		}
		if sp.CurrentValues["1/switch"]["switch"] != "off" {
			t.Errorf("expected 1/switch off, got %v", sp.CurrentValues["1/switch"])
		}

		if server.SubscriptionCount() != 1 {
			t.Errorf("expected 1 subscription, got %d", server.SubscriptionCount())
		}
	})

	t.Run("SubscribeSpecificKeys", func(t *testing.T) {
		req := &wire.Request{
			MessageID: 2,
			Operation: wire.OpSubscribe,
			Payload: &wire.SubscribePayload{
				Capabilities: []string{"main/switch"},
				MinInterval:  100,
				MaxInterval:  5000,
			},
		}

		resp := server.HandleRequest(context.Background(), req)

		if !resp.Status.IsSuccess() {
			t.Fatalf("expected success, got %s", resp.Status)
		}

		sp := resp.Payload.(*wire.SubscribeResponsePayload)
		if len(sp.CurrentValues) != 1 {
			t.Errorf("expected 1 capability key, got %d", len(sp.CurrentValues))
		}

		if server.SubscriptionCount() != 2 {
			t.Errorf("expected 2 subscriptions, got %d", server.SubscriptionCount())
		}
	})

	t.Run("MalformedKey", func(t *testing.T) {
		req := &wire.Request{
			MessageID: 3,
			Operation: wire.OpSubscribe,
			Payload: &wire.SubscribePayload{
				Capabilities: []string{"mainswitch"},
			},
		}

		resp := server.HandleRequest(context.Background(), req)

		if resp.Status != wire.StatusInvalidArguments {
			t.Errorf("expected InvalidArguments, got %s", resp.Status)
		}
	})

	t.Run("UnknownComponentKey", func(t *testing.T) {
		req := &wire.Request{
			MessageID: 4,
			Operation: wire.OpSubscribe,
			Payload: &wire.SubscribePayload{
				Capabilities: []string{"9/switch"},
			},
		}

		resp := server.HandleRequest(context.Background(), req)

		if resp.Status != wire.StatusUnsupportedComponent {
			t.Errorf("expected UnsupportedComponent, got %s", resp.Status)
		}
	})

	t.Run("UnknownCapabilityKey", func(t *testing.T) {
		req := &wire.Request{
			MessageID: 5,
			Operation: wire.OpSubscribe,
			Payload: &wire.SubscribePayload{
				Capabilities: []string{"main/fanOscillationMode"},
			},
		}

		resp := server.HandleRequest(context.Background(), req)

		if resp.Status != wire.StatusUnsupportedCapability {
			t.Errorf("expected UnsupportedCapability, got %s", resp.Status)
		}
	})

	t.Run("Unsubscribe", func(t *testing.T) {
		subReq := &wire.Request{
			MessageID: 6,
			Operation: wire.OpSubscribe,
		}
		subResp := server.HandleRequest(context.Background(), subReq)
		sp := subResp.Payload.(*wire.SubscribeResponsePayload)

		before := server.SubscriptionCount()

		unsubReq := &wire.Request{
			MessageID: 7,
			Operation: wire.OpSubscribe,
			Payload:   &wire.UnsubscribePayload{SubscriptionID: sp.SubscriptionID},
		}
		resp := server.HandleRequest(context.Background(), unsubReq)

		if !resp.Status.IsSuccess() {
			t.Errorf("expected success, got %s", resp.Status)
		}
		if server.SubscriptionCount() != before-1 {
			t.Errorf("expected %d subscriptions, got %d", before-1, server.SubscriptionCount())
		}
	})

	t.Run("UnsubscribeUnknown", func(t *testing.T) {
		req := &wire.Request{
			MessageID: 8,
			Operation: wire.OpSubscribe,
			Payload:   &wire.UnsubscribePayload{SubscriptionID: 999999},
		}

		resp := server.HandleRequest(context.Background(), req)

		if resp.Status != wire.StatusInvalidArguments {
			t.Errorf("expected InvalidArguments, got %s", resp.Status)
		}
	})
}

func TestServerNotifications(t *testing.T) {
	device := createTestDevice()
	server := NewServer(device)
	defer server.Close()

	var mu sync.Mutex
	var received []*wire.Notification
	server.SetNotificationHandler(func(n *wire.Notification) {
		mu.Lock()
		received = append(received, n)
		mu.Unlock()
	})

	req := &wire.Request{
		MessageID: 1,
		Operation: wire.OpSubscribe,
		Payload: &wire.SubscribePayload{
			Capabilities: []string{"main/switch"},
			MinInterval:  1,
			MaxInterval:  60000,
		},
	}
	resp := server.HandleRequest(context.Background(), req)
	if !resp.Status.IsSuccess() {
		t.Fatalf("subscribe failed: %s", resp.Status)
	}
	sp := resp.Payload.(*wire.SubscribeResponsePayload)

	cap, err := device.Capability("main", "switch")
	if err != nil {
		t.Fatal(err)
	}
	if err := cap.SetValue("switch", "on"); err != nil {
		t.Fatal(err)
	}

	time.Sleep(20 * time.Millisecond)
	server.ProcessNotifications()

	mu.Lock()
	count := len(received)
	mu.Unlock()
	if count != 1 {
		t.Fatalf("expected 1 notification, got %d", count)
	}

	mu.Lock()
	n := received[0]
	mu.Unlock()
	if n.SubscriptionID != sp.SubscriptionID {
		t.Errorf("expected subscription %d, got %d", sp.SubscriptionID, n.SubscriptionID)
	}
	if n.Component != "main" || n.Capability != "switch" {
		t.Errorf("expected main/switch, got %s/%s", n.Component, n.Capability)
	}
	if n.Changes["switch"] != "on" {
		t.Errorf("expected switch on, got %v", n.Changes["switch"])
	}

	// A change on an unobserved capability stays silent.
	other, err := device.Capability("1", "switch")
	if err != nil {
		t.Fatal(err)
	}
	if err := other.SetValue("switch", "on"); err != nil {
		t.Fatal(err)
	}

	time.Sleep(20 * time.Millisecond)
	server.ProcessNotifications()

	mu.Lock()
	count = len(received)
	mu.Unlock()
	if count != 1 {
		t.Errorf("expected still 1 notification, got %d", count)
	}
}

func TestServerExecute(t *testing.T) {
	device := createTestDevice()
	server := NewServer(device)
	defer server.Close()

	t.Run("NoHandler", func(t *testing.T) {
		req := &wire.Request{
			MessageID: 1,
			Operation: wire.OpExecute,
			Payload:   &wire.ExecutePayload{Href: "/mode/vs/0"},
		}

		resp := server.HandleRequest(context.Background(), req)

		if resp.Status != wire.StatusUnsupportedOperation {
			t.Errorf("expected UnsupportedOperation, got %s", resp.Status)
		}
	})

	t.Run("Success", func(t *testing.T) {
		var gotHref string
		var gotArgs map[string]any
		server.SetExecuteHandler(func(ctx context.Context, href string, args map[string]any) (map[string]any, error) {
			gotHref = href
			gotArgs = args
			return map[string]any{"applied": true}, nil
		})

		req := &wire.Request{
			MessageID: 2,
			Operation: wire.OpExecute,
			Payload: &wire.ExecutePayload{
				Href: "/mode/vs/0",
				Arguments: map[string]any{
					"x.com.samsung.da.options": []any{"Quiet_On"},
				},
			},
		}

		resp := server.HandleRequest(context.Background(), req)

		if !resp.Status.IsSuccess() {
			t.Fatalf("expected success, got %s", resp.Status)
		}
		if gotHref != "/mode/vs/0" {
			t.Errorf("expected href /mode/vs/0, got %s", gotHref)
		}
		if gotArgs == nil || gotArgs["x.com.samsung.da.options"] == nil {
			t.Errorf("expected options argument, got %v", gotArgs)
		}

		result, ok := resp.Payload.(wire.CommandResponsePayload)
		if !ok {
			t.Fatalf("expected CommandResponsePayload, got %T", resp.Payload)
		}
		if result["applied"] != true {
			t.Errorf("expected applied=true, got %v", result["applied"])
		}
	})

	t.Run("HandlerError", func(t *testing.T) {
		server.SetExecuteHandler(func(ctx context.Context, href string, args map[string]any) (map[string]any, error) {
			return nil, fmt.Errorf("resource %s rejected the write", href)
		})

		req := &wire.Request{
			MessageID: 3,
			Operation: wire.OpExecute,
			Payload:   &wire.ExecutePayload{Href: "/mode/vs/0"},
		}

		resp := server.HandleRequest(context.Background(), req)

		if resp.Status != wire.StatusDeviceError {
			t.Errorf("expected DeviceError, got %s", resp.Status)
		}
	})

	t.Run("InvalidPayload", func(t *testing.T) {
		req := &wire.Request{
			MessageID: 4,
			Operation: wire.OpExecute,
		}

		resp := server.HandleRequest(context.Background(), req)

		if resp.Status != wire.StatusInvalidArguments {
			t.Errorf("expected InvalidArguments, got %s", resp.Status)
		}
	})
}

func TestServerInfo(t *testing.T) {
	device := createTestDevice()
	server := NewServer(device)
	defer server.Close()

	req := &wire.Request{MessageID: 1, Operation: wire.OpInfo}
	resp := server.HandleRequest(context.Background(), req)

	if !resp.Status.IsSuccess() {
		t.Fatalf("expected success, got %s", resp.Status)
	}

	info, ok := resp.Payload.(*wire.DeviceInfoPayload)
	if !ok {
		t.Fatalf("expected DeviceInfoPayload, got %T", resp.Payload)
	}

	if info.DeviceID != "krac-test-1" {
		t.Errorf("expected device ID krac-test-1, got %s", info.DeviceID)
	}
	if info.Model != "ARTIK051_KRAC_18K" {
		t.Errorf("expected model ARTIK051_KRAC_18K, got %s", info.Model)
	}
	if len(info.Components) != 2 {
		t.Fatalf("expected 2 components, got %d", len(info.Components))
	}

	main := info.Component("main")
	if main == nil {
		t.Fatal("missing main component")
	}
	sw := main.Capability("switch")
	if sw == nil {
		t.Fatal("missing switch capability")
	}
	if len(sw.Attributes) != 1 || sw.Attributes[0] != "switch" {
		t.Errorf("expected [switch] attributes, got %v", sw.Attributes)
	}
	if len(sw.Commands) != 2 {
		t.Errorf("expected 2 commands, got %v", sw.Commands)
	}
}

func TestServerPing(t *testing.T) {
	device := createTestDevice()
	server := NewServer(device)
	defer server.Close()

	resp := server.HandleRequest(context.Background(), &wire.Request{
		MessageID: 1,
		Operation: wire.OpPing,
	})

	if !resp.Status.IsSuccess() {
		t.Errorf("expected success, got %s", resp.Status)
	}
	if resp.Payload != nil {
		t.Errorf("expected empty payload, got %v", resp.Payload)
	}
}

func TestServerUnknownOperation(t *testing.T) {
	device := createTestDevice()
	server := NewServer(device)
	defer server.Close()

	resp := server.HandleRequest(context.Background(), &wire.Request{
		MessageID: 1,
		Operation: wire.Operation(99),
	})

	if resp.Status != wire.StatusUnsupportedOperation {
		t.Errorf("expected UnsupportedOperation, got %s", resp.Status)
	}
}

func TestServerClose(t *testing.T) {
	device := createTestDevice()
	server := NewServer(device)

	resp := server.HandleRequest(context.Background(), &wire.Request{
		MessageID: 1,
		Operation: wire.OpSubscribe,
	})
	if !resp.Status.IsSuccess() {
		t.Fatalf("subscribe failed: %s", resp.Status)
	}
	if server.SubscriptionCount() != 1 {
		t.Fatalf("expected 1 subscription, got %d", server.SubscriptionCount())
	}

	server.Close()

	if server.SubscriptionCount() != 0 {
		t.Errorf("expected 0 subscriptions after close, got %d", server.SubscriptionCount())
	}

	// Model changes after close must not reach the detached server.
	cap, err := device.Capability("main", "switch")
	if err != nil {
		t.Fatal(err)
	}
	if err := cap.SetValue("switch", "on"); err != nil {
		t.Fatal(err)
	}
	server.ProcessNotifications()
}

func TestClientBasics(t *testing.T) {
	sender := &mockSender{}
	client := NewClient(sender)
	defer client.Close()

	client.SetTimeout(5 * time.Second)

	var receivedNotif *wire.Notification
	client.SetNotificationHandler(func(notif *wire.Notification) {
		receivedNotif = notif
	})

	client.HandleNotification(&wire.Notification{
		SubscriptionID: 1,
		Component:      "main",
		Capability:     "switch",
		Changes:        map[string]any{"switch": "on"},
	})

	if receivedNotif == nil {
		t.Fatal("expected notification to be handled")
	}
	if receivedNotif.SubscriptionID != 1 {
		t.Errorf("expected subscriptionID 1, got %d", receivedNotif.SubscriptionID)
	}
	if receivedNotif.Changes["switch"] != "on" {
		t.Errorf("expected switch on, got %v", receivedNotif.Changes["switch"])
	}
}

func TestMessageIDWraparound(t *testing.T) {
	// Message IDs wrap from max to 1, skipping 0 which is reserved
	// for notifications.
	sender := &mockSender{}
	client := NewClient(sender)
	defer client.Close()

	client.nextMsgID = 0xFFFFFFFF - 2 // Will produce: max-1, max, 1 (skip 0)

	id1 := client.nextMessageID()
	id2 := client.nextMessageID()
	id3 := client.nextMessageID()

	if id1 != 0xFFFFFFFF-1 {
		t.Errorf("expected id1 = %d, got %d", 0xFFFFFFFF-1, id1)
	}
	if id2 != 0xFFFFFFFF {
		t.Errorf("expected id2 = %d, got %d", uint32(0xFFFFFFFF), id2)
	}
	if id3 == 0 {
		t.Error("message ID 0 must be skipped (reserved for notifications)")
	}
	if id3 != 1 {
		t.Errorf("expected id3 = 1 after wraparound, got %d", id3)
	}
}

func TestDefaultTimeout(t *testing.T) {
	sender := &mockSender{}
	client := NewClient(sender)
	defer client.Close()

	if client.timeout != DefaultRequestTimeout {
		t.Errorf("expected default timeout %v, got %v", DefaultRequestTimeout, client.timeout)
	}
	if DefaultRequestTimeout != 10*time.Second {
		t.Errorf("expected 10s default request timeout, got %v", DefaultRequestTimeout)
	}
}

func TestStatusError(t *testing.T) {
	err := &StatusError{
		Status:  wire.StatusInvalidArguments,
		Message: "value out of range",
	}

	if err.Error() != "value out of range" {
		t.Errorf("expected message, got %s", err.Error())
	}

	err2 := &StatusError{
		Status: wire.StatusUnsupportedComponent,
	}

	if err2.Error() != wire.StatusUnsupportedComponent.String() {
		t.Errorf("expected status string, got %s", err2.Error())
	}
}

// loopbackSender routes requests through a full encode/decode cycle
// into a server, so client and server are exercised against real CBOR
// bytes rather than in-process payload types.
type loopbackSender struct {
	server *Server
	client *Client
}

func (l *loopbackSender) Send(data []byte) error {
	req, err := wire.DecodeRequest(data)
	if err != nil {
		return err
	}
	resp := l.server.HandleRequest(context.Background(), req)
	encoded, err := wire.EncodeResponse(resp)
	if err != nil {
		return err
	}
	decoded, err := wire.DecodeResponse(encoded)
	if err != nil {
		return err
	}
	return l.client.HandleResponse(decoded)
}

func TestClientServerLoopback(t *testing.T) {
	device := createTestDevice()
	server := NewServer(device)
	defer server.Close()

	sender := &loopbackSender{server: server}
	client := NewClient(sender)
	defer client.Close()
	sender.client = client

	server.SetNotificationHandler(func(n *wire.Notification) {
		data, err := wire.EncodeNotification(n)
		if err != nil {
			t.Errorf("encode notification: %v", err)
			return
		}
		decoded, err := wire.DecodeNotification(data)
		if err != nil {
			t.Errorf("decode notification: %v", err)
			return
		}
		client.HandleNotification(decoded)
	})

	ctx := context.Background()

	t.Run("Status", func(t *testing.T) {
		values, err := client.Status(ctx, "main", "switch")
		if err != nil {
			t.Fatalf("status: %v", err)
		}
		if values["switch"] != "off" {
			t.Errorf("expected off, got %v", values["switch"])
		}
	})

	t.Run("Command", func(t *testing.T) {
		if _, err := client.Command(ctx, "", "switch", "on", nil); err != nil {
			t.Fatalf("command: %v", err)
		}

		values, err := client.Status(ctx, "main", "switch")
		if err != nil {
			t.Fatalf("status: %v", err)
		}
		if values["switch"] != "on" {
			t.Errorf("expected on, got %v", values["switch"])
		}
	})

	t.Run("CommandError", func(t *testing.T) {
		_, err := client.Command(ctx, "main", "switch", "toggle", nil)
		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("expected StatusError, got %v", err)
		}
		if statusErr.Status != wire.StatusUnsupportedCommand {
			t.Errorf("expected UnsupportedCommand, got %s", statusErr.Status)
		}
	})

	t.Run("CommandArguments", func(t *testing.T) {
		if _, err := client.Command(ctx, "main", "thermostatCoolingSetpoint", "setCoolingSetpoint", []any{25.5}); err != nil {
			t.Fatalf("command: %v", err)
		}

		values, err := client.Status(ctx, "main", "thermostatCoolingSetpoint")
		if err != nil {
			t.Fatalf("status: %v", err)
		}
		if values["coolingSetpoint"] != 25.5 {
			t.Errorf("expected 25.5, got %v", values["coolingSetpoint"])
		}
	})

	t.Run("SubscribeAndNotify", func(t *testing.T) {
		subID, initial, err := client.Subscribe(ctx, &SubscribeOptions{
			Capabilities: []string{"main/switch"},
			MinInterval:  time.Millisecond,
			MaxInterval:  time.Minute,
		})
		if err != nil {
			t.Fatalf("subscribe: %v", err)
		}
		if subID == 0 {
			t.Fatal("expected non-zero subscription ID")
		}
		if initial["main/switch"]["switch"] != "on" {
			t.Errorf("expected priming value on, got %v", initial["main/switch"])
		}

		var mu sync.Mutex
		var got *wire.Notification
		client.SetNotificationHandler(func(n *wire.Notification) {
			mu.Lock()
			got = n
			mu.Unlock()
		})

		cap, err := device.Capability("main", "switch")
		if err != nil {
			t.Fatal(err)
		}
		if err := cap.SetValue("switch", "off"); err != nil {
			t.Fatal(err)
		}

		time.Sleep(20 * time.Millisecond)
		server.ProcessNotifications()

		mu.Lock()
		n := got
		mu.Unlock()
		if n == nil {
			t.Fatal("expected notification")
		}
		if n.SubscriptionID != subID {
			t.Errorf("expected subscription %d, got %d", subID, n.SubscriptionID)
		}
		if n.Component != "main" || n.Capability != "switch" {
			t.Errorf("expected main/switch, got %s/%s", n.Component, n.Capability)
		}
		if n.Changes["switch"] != "off" {
			t.Errorf("expected switch off, got %v", n.Changes["switch"])
		}

		if err := client.Unsubscribe(ctx, subID); err != nil {
			t.Fatalf("unsubscribe: %v", err)
		}
		if server.SubscriptionCount() != 0 {
			t.Errorf("expected 0 subscriptions, got %d", server.SubscriptionCount())
		}
	})

	t.Run("Info", func(t *testing.T) {
		info, err := client.Info(ctx)
		if err != nil {
			t.Fatalf("info: %v", err)
		}
		if info.DeviceID != "krac-test-1" {
			t.Errorf("expected krac-test-1, got %s", info.DeviceID)
		}
		if info.Model != "ARTIK051_KRAC_18K" {
			t.Errorf("expected ARTIK051_KRAC_18K, got %s", info.Model)
		}
		main := info.Component("main")
		if main == nil {
			t.Fatal("missing main component")
		}
		if main.Capability("thermostatCoolingSetpoint") == nil {
			t.Error("missing thermostatCoolingSetpoint capability")
		}
	})

	t.Run("Ping", func(t *testing.T) {
		rtt, err := client.Ping(ctx)
		if err != nil {
			t.Fatalf("ping: %v", err)
		}
		if rtt <= 0 {
			t.Errorf("expected positive round-trip time, got %v", rtt)
		}
	})
}

type mockSender struct {
	sent [][]byte
}

func (m *mockSender) Send(data []byte) error {
	m.sent = append(m.sent, data)
	return nil
}
