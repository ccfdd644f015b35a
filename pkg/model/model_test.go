package model

import (
	"context"
	"errors"
	"testing"
)

func TestAttributeBasics(t *testing.T) {
	meta := &AttributeMetadata{
		Name:     "coolingSetpoint",
		Type:     DataTypeNumber,
		Default:  24.0,
		MinValue: 16.0,
		MaxValue: 30.0,
		Unit:     "C",
	}

	attr := NewAttribute(meta)

	t.Run("Name", func(t *testing.T) {
		if attr.Name() != "coolingSetpoint" {
			t.Errorf("expected name coolingSetpoint, got %s", attr.Name())
		}
	})

	t.Run("Metadata", func(t *testing.T) {
		if attr.Metadata().Unit != "C" {
			t.Errorf("expected unit C, got %s", attr.Metadata().Unit)
		}
	})

	t.Run("DefaultValue", func(t *testing.T) {
		if attr.Value() != 24.0 {
			t.Errorf("expected default value 24, got %v", attr.Value())
		}
	})

	t.Run("SetValue", func(t *testing.T) {
		changed, err := attr.SetValue(25.0)
		if err != nil {
			t.Fatalf("SetValue failed: %v", err)
		}
		if !changed {
			t.Error("expected changed=true")
		}
		if attr.Value() != 25.0 {
			t.Errorf("expected value 25, got %v", attr.Value())
		}
	})

	t.Run("SetSameValue", func(t *testing.T) {
		changed, err := attr.SetValue(25.0)
		if err != nil {
			t.Fatalf("SetValue failed: %v", err)
		}
		if changed {
			t.Error("expected changed=false for identical value")
		}
	})

	t.Run("DirtyFlag", func(t *testing.T) {
		attr.ClearDirty()
		if attr.IsDirty() {
			t.Error("expected dirty=false after ClearDirty")
		}

		_, _ = attr.SetValue(26.0)
		if !attr.IsDirty() {
			t.Error("expected dirty=true after SetValue")
		}
	})
}

func TestAttributeNullable(t *testing.T) {
	notNullable := NewAttribute(&AttributeMetadata{
		Name: "switch",
		Type: DataTypeEnum,
	})

	nullable := NewAttribute(&AttributeMetadata{
		Name:     "humidity",
		Type:     DataTypeNumber,
		Nullable: true,
	})

	t.Run("NotNullable", func(t *testing.T) {
		_, err := notNullable.SetValue(nil)
		if err != ErrAttributeNotNullable {
			t.Errorf("expected ErrAttributeNotNullable, got %v", err)
		}
	})

	t.Run("Nullable", func(t *testing.T) {
		_, err := nullable.SetValue(nil)
		if err != nil {
			t.Errorf("expected no error for nullable, got %v", err)
		}
	})
}

func TestAttributeRangeValidation(t *testing.T) {
	attr := NewAttribute(&AttributeMetadata{
		Name:     "coolingSetpoint",
		Type:     DataTypeNumber,
		MinValue: 16.0,
		MaxValue: 30.0,
	})

	tests := []struct {
		name    string
		value   float64
		wantErr bool
	}{
		{"in range", 22.5, false},
		{"at min", 16.0, false},
		{"at max", 30.0, false},
		{"below min", 15.0, true},
		{"above max", 31.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := attr.SetValue(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("SetValue(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrAttributeOutOfRange) {
				t.Errorf("expected ErrAttributeOutOfRange, got %v", err)
			}
		})
	}
}

func TestAttributeEnumValidation(t *testing.T) {
	attr := NewAttribute(&AttributeMetadata{
		Name:       "airConditionerMode",
		Type:       DataTypeEnum,
		EnumValues: []string{"auto", "cool", "dry", "heat", "wind"},
	})

	t.Run("Accepted", func(t *testing.T) {
		if _, err := attr.SetValue("cool"); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("Rejected", func(t *testing.T) {
		_, err := attr.SetValue("defrost")
		if !errors.Is(err, ErrAttributeBadEnum) {
			t.Errorf("expected ErrAttributeBadEnum, got %v", err)
		}
	})

	t.Run("WrongType", func(t *testing.T) {
		_, err := attr.SetValue(3)
		if !errors.Is(err, ErrAttributeValueType) {
			t.Errorf("expected ErrAttributeValueType, got %v", err)
		}
	})
}

func TestAttributeTypeValidation(t *testing.T) {
	tests := []struct {
		name    string
		dt      DataType
		value   any
		wantErr bool
	}{
		{"string ok", DataTypeString, "hello", false},
		{"string rejects int", DataTypeString, 1, true},
		{"integer ok", DataTypeInteger, 42, false},
		{"integer rejects float", DataTypeInteger, 4.2, true},
		{"number accepts int", DataTypeNumber, 42, false},
		{"number accepts float", DataTypeNumber, 4.2, false},
		{"boolean ok", DataTypeBoolean, true, false},
		{"boolean rejects string", DataTypeBoolean, "true", true},
		{"stringList ok", DataTypeStringList, []string{"a", "b"}, false},
		{"stringList accepts any strings", DataTypeStringList, []any{"a", "b"}, false},
		{"stringList rejects mixed", DataTypeStringList, []any{"a", 1}, true},
		{"map ok", DataTypeMap, map[string]any{"k": "v"}, false},
		{"map rejects string", DataTypeMap, "not a map", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attr := NewAttribute(&AttributeMetadata{Name: "a", Type: tt.dt})
			_, err := attr.SetValue(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("SetValue(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestAttributeChangeDetection(t *testing.T) {
	attr := NewAttribute(&AttributeMetadata{
		Name: "supportedAcModes",
		Type: DataTypeStringList,
	})

	changed, err := attr.SetValue([]string{"auto", "cool"})
	if err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	if !changed {
		t.Error("expected changed=true for first set")
	}

	// Equal list contents should not count as a change.
	changed, err = attr.SetValue([]string{"auto", "cool"})
	if err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	if changed {
		t.Error("expected changed=false for equal list")
	}

	changed, _ = attr.SetValue([]string{"auto", "cool", "wind"})
	if !changed {
		t.Error("expected changed=true for different list")
	}
}

func TestCommand(t *testing.T) {
	handlerCalled := false
	var receivedArgs []any

	cmd := NewCommand(&CommandMetadata{
		Name:        "setCoolingSetpoint",
		Description: "Set the cooling setpoint",
		Parameters: []ParameterMetadata{
			{Name: "setpoint", Type: DataTypeNumber, Required: true},
		},
	}, func(ctx context.Context, args []any) (map[string]any, error) {
		handlerCalled = true
		receivedArgs = args
		return map[string]any{"result": "ok"}, nil
	})

	t.Run("Name", func(t *testing.T) {
		if cmd.Name() != "setCoolingSetpoint" {
			t.Errorf("expected name setCoolingSetpoint, got %s", cmd.Name())
		}
	})

	t.Run("InvokeSuccess", func(t *testing.T) {
		result, err := cmd.Invoke(context.Background(), []any{25.0})
		if err != nil {
			t.Fatalf("Invoke failed: %v", err)
		}
		if !handlerCalled {
			t.Error("handler was not called")
		}
		if len(receivedArgs) != 1 || receivedArgs[0] != 25.0 {
			t.Errorf("expected args [25], got %v", receivedArgs)
		}
		if result["result"] != "ok" {
			t.Errorf("expected result ok, got %v", result["result"])
		}
	})

	t.Run("InvokeMissingRequired", func(t *testing.T) {
		_, err := cmd.Invoke(context.Background(), nil)
		if !errors.Is(err, ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("InvokeTooManyArgs", func(t *testing.T) {
		_, err := cmd.Invoke(context.Background(), []any{25.0, 26.0})
		if !errors.Is(err, ErrTooManyArguments) {
			t.Errorf("expected ErrTooManyArguments, got %v", err)
		}
	})

	t.Run("InvokeWrongType", func(t *testing.T) {
		_, err := cmd.Invoke(context.Background(), []any{"warm"})
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestCommandNoHandler(t *testing.T) {
	cmd := NewCommand(&CommandMetadata{Name: "on"}, nil)

	_, err := cmd.Invoke(context.Background(), nil)
	if !errors.Is(err, ErrNoCommandHandler) {
		t.Errorf("expected ErrNoCommandHandler, got %v", err)
	}
}

func TestCapability(t *testing.T) {
	cap := NewCapability("switch", 1)

	t.Run("ID", func(t *testing.T) {
		if cap.ID() != "switch" {
			t.Errorf("expected ID switch, got %s", cap.ID())
		}
	})

	t.Run("Version", func(t *testing.T) {
		if cap.Version() != 1 {
			t.Errorf("expected version 1, got %d", cap.Version())
		}
	})

	t.Run("AddAttribute", func(t *testing.T) {
		err := cap.AddAttribute(&AttributeMetadata{
			Name:       "switch",
			Type:       DataTypeEnum,
			EnumValues: []string{"on", "off"},
			Default:    "off",
		})
		if err != nil {
			t.Fatalf("AddAttribute failed: %v", err)
		}

		if !cap.HasAttribute("switch") {
			t.Error("expected HasAttribute to return true")
		}

		val, err := cap.Value("switch")
		if err != nil {
			t.Fatalf("Value failed: %v", err)
		}
		if val != "off" {
			t.Errorf("expected off, got %v", val)
		}
	})

	t.Run("DuplicateAttribute", func(t *testing.T) {
		err := cap.AddAttribute(&AttributeMetadata{Name: "switch", Type: DataTypeEnum})
		if !errors.Is(err, ErrDuplicateAttribute) {
			t.Errorf("expected ErrDuplicateAttribute, got %v", err)
		}
	})

	t.Run("AttributeNotFound", func(t *testing.T) {
		_, err := cap.Value("level")
		if !errors.Is(err, ErrAttributeNotFound) {
			t.Errorf("expected ErrAttributeNotFound, got %v", err)
		}
	})

	t.Run("SetValue", func(t *testing.T) {
		err := cap.SetValue("switch", "on")
		if err != nil {
			t.Fatalf("SetValue failed: %v", err)
		}

		val, _ := cap.Value("switch")
		if val != "on" {
			t.Errorf("expected on, got %v", val)
		}
	})

	t.Run("AddCommand", func(t *testing.T) {
		err := cap.AddCommand(&CommandMetadata{Name: "on"}, func(ctx context.Context, args []any) (map[string]any, error) {
			return nil, nil
		})
		if err != nil {
			t.Fatalf("AddCommand failed: %v", err)
		}

		if _, err := cap.Command("on"); err != nil {
			t.Errorf("Command failed: %v", err)
		}
	})

	t.Run("DuplicateCommand", func(t *testing.T) {
		err := cap.AddCommand(&CommandMetadata{Name: "on"}, nil)
		if !errors.Is(err, ErrDuplicateCommand) {
			t.Errorf("expected ErrDuplicateCommand, got %v", err)
		}
	})

	t.Run("CommandNotFound", func(t *testing.T) {
		_, err := cap.Command("toggle")
		if !errors.Is(err, ErrCommandNotFound) {
			t.Errorf("expected ErrCommandNotFound, got %v", err)
		}
	})

	t.Run("Invoke", func(t *testing.T) {
		invoked := false
		_ = cap.AddCommand(&CommandMetadata{Name: "off"}, func(ctx context.Context, args []any) (map[string]any, error) {
			invoked = true
			return nil, nil
		})

		_, err := cap.Invoke(context.Background(), "off", nil)
		if err != nil {
			t.Fatalf("Invoke failed: %v", err)
		}
		if !invoked {
			t.Error("handler was not called")
		}
	})
}

func TestCapabilityOrdering(t *testing.T) {
	cap := NewCapability("thermostatMode", 1)

	names := []string{"thermostatMode", "supportedThermostatModes", "thermostatOperatingState"}
	for _, name := range names {
		_ = cap.AddAttribute(&AttributeMetadata{Name: name, Type: DataTypeString, Nullable: true})
	}

	got := cap.AttributeNames()
	if len(got) != len(names) {
		t.Fatalf("expected %d attributes, got %d", len(names), len(got))
	}
	for i := range names {
		if got[i] != names[i] {
			t.Errorf("attribute %d: expected %s, got %s", i, names[i], got[i])
		}
	}
}

func TestCapabilitySubscriber(t *testing.T) {
	cap := NewCapability("temperatureMeasurement", 1)
	_ = cap.AddAttribute(&AttributeMetadata{
		Name: "temperature",
		Type: DataTypeNumber,
		Unit: "C",
	})

	var notifiedCap, notifiedAttr string
	var notifiedValue any

	cap.Subscribe(&testSubscriber{
		onChanged: func(capID, attr string, value any) {
			notifiedCap = capID
			notifiedAttr = attr
			notifiedValue = value
		},
	})

	if err := cap.SetValue("temperature", 21.5); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}

	if notifiedCap != "temperatureMeasurement" {
		t.Errorf("expected capability temperatureMeasurement, got %s", notifiedCap)
	}
	if notifiedAttr != "temperature" {
		t.Errorf("expected attribute temperature, got %s", notifiedAttr)
	}
	if notifiedValue != 21.5 {
		t.Errorf("expected value 21.5, got %v", notifiedValue)
	}

	// Setting the same value must not notify again.
	notifiedAttr = ""
	_ = cap.SetValue("temperature", 21.5)
	if notifiedAttr != "" {
		t.Error("subscriber should not be notified for unchanged value")
	}
}

func TestCapabilityUnsubscribe(t *testing.T) {
	cap := NewCapability("switch", 1)
	_ = cap.AddAttribute(&AttributeMetadata{Name: "switch", Type: DataTypeEnum, EnumValues: []string{"on", "off"}, Default: "off"})

	var count int
	sub := &testSubscriber{
		onChanged: func(string, string, any) { count++ },
	}

	cap.Subscribe(sub)
	_ = cap.SetValue("switch", "on")
	if count != 1 {
		t.Fatalf("expected 1 notification, got %d", count)
	}

	cap.Unsubscribe(sub)
	_ = cap.SetValue("switch", "off")
	if count != 1 {
		t.Errorf("expected no notification after unsubscribe, got %d", count)
	}

	// Unsubscribing twice is harmless.
	cap.Unsubscribe(sub)
}

type testSubscriber struct {
	onChanged func(capabilityID, attribute string, value any)
}

func (s *testSubscriber) OnAttributeChanged(capabilityID, attribute string, value any) {
	if s.onChanged != nil {
		s.onChanged(capabilityID, attribute, value)
	}
}

func TestCapabilityDirtyValues(t *testing.T) {
	cap := NewCapability("airConditionerFanMode", 1)
	_ = cap.AddAttribute(&AttributeMetadata{Name: "fanMode", Type: DataTypeString, Default: "auto"})
	_ = cap.AddAttribute(&AttributeMetadata{Name: "supportedAcFanModes", Type: DataTypeStringList, Nullable: true})

	_ = cap.SetValue("fanMode", "high")

	dirty := cap.DirtyValues()
	if len(dirty) != 1 {
		t.Fatalf("expected 1 dirty value, got %d", len(dirty))
	}
	if dirty["fanMode"] != "high" {
		t.Errorf("expected fanMode high, got %v", dirty["fanMode"])
	}

	// Dirty flags are cleared by the first call.
	if len(cap.DirtyValues()) != 0 {
		t.Error("expected no dirty values after flush")
	}
}

func TestComponent(t *testing.T) {
	device := NewDevice("d-1", "AC", "Samsung", "ARTIK051_KRAC_18K", "1.0")
	comp := device.MainComponent()

	t.Run("ID", func(t *testing.T) {
		if comp.ID() != MainComponentID {
			t.Errorf("expected ID main, got %s", comp.ID())
		}
	})

	t.Run("Device", func(t *testing.T) {
		if comp.Device() != device {
			t.Error("expected owning device")
		}
	})

	t.Run("AddCapability", func(t *testing.T) {
		err := comp.AddCapability(NewCapability("switch", 1))
		if err != nil {
			t.Fatalf("AddCapability failed: %v", err)
		}

		if !comp.HasCapability("switch") {
			t.Error("expected HasCapability to return true")
		}

		cap, err := comp.Capability("switch")
		if err != nil {
			t.Fatalf("Capability failed: %v", err)
		}
		if cap.ID() != "switch" {
			t.Errorf("expected ID switch, got %s", cap.ID())
		}
	})

	t.Run("DuplicateCapability", func(t *testing.T) {
		err := comp.AddCapability(NewCapability("switch", 1))
		if !errors.Is(err, ErrDuplicateCapability) {
			t.Errorf("expected ErrDuplicateCapability, got %v", err)
		}
	})

	t.Run("CapabilityNotFound", func(t *testing.T) {
		_, err := comp.Capability("powerMeter")
		if !errors.Is(err, ErrCapabilityNotFound) {
			t.Errorf("expected ErrCapabilityNotFound, got %v", err)
		}
	})

	t.Run("Capabilities", func(t *testing.T) {
		_ = comp.AddCapability(NewCapability("temperatureMeasurement", 1))

		caps := comp.Capabilities()
		if len(caps) != 2 {
			t.Fatalf("expected 2 capabilities, got %d", len(caps))
		}
		if caps[0].ID() != "switch" || caps[1].ID() != "temperatureMeasurement" {
			t.Errorf("expected insertion order, got %s, %s", caps[0].ID(), caps[1].ID())
		}
	})
}

func TestDevice(t *testing.T) {
	device := NewDevice("device-123", "Living Room AC", "Samsung Electronics", "ARTIK051_KRAC_18K|10193141|60010132001111110200000000000000", "0.1.0")

	t.Run("Properties", func(t *testing.T) {
		if device.ID() != "device-123" {
			t.Errorf("expected ID device-123, got %s", device.ID())
		}
		if device.Label() != "Living Room AC" {
			t.Errorf("expected label 'Living Room AC', got %s", device.Label())
		}
		if device.Manufacturer() != "Samsung Electronics" {
			t.Errorf("expected manufacturer Samsung Electronics, got %s", device.Manufacturer())
		}
		if device.Firmware() != "0.1.0" {
			t.Errorf("expected firmware 0.1.0, got %s", device.Firmware())
		}
	})

	t.Run("SetLabel", func(t *testing.T) {
		device.SetLabel("Bedroom AC")
		if device.Label() != "Bedroom AC" {
			t.Errorf("expected label 'Bedroom AC', got %s", device.Label())
		}
	})

	t.Run("MainComponent", func(t *testing.T) {
		main := device.MainComponent()
		if main == nil {
			t.Fatal("main component should not be nil")
		}
		if main.ID() != MainComponentID {
			t.Errorf("expected main component ID main, got %s", main.ID())
		}
	})

	t.Run("AddComponent", func(t *testing.T) {
		comp, err := device.AddComponent("zone2")
		if err != nil {
			t.Fatalf("AddComponent failed: %v", err)
		}
		if comp.ID() != "zone2" {
			t.Errorf("expected ID zone2, got %s", comp.ID())
		}
		if device.ComponentCount() != 2 {
			t.Errorf("expected 2 components, got %d", device.ComponentCount())
		}
	})

	t.Run("DuplicateComponent", func(t *testing.T) {
		_, err := device.AddComponent("zone2")
		if !errors.Is(err, ErrDuplicateComponent) {
			t.Errorf("expected ErrDuplicateComponent, got %v", err)
		}
	})

	t.Run("ComponentNotFound", func(t *testing.T) {
		_, err := device.Component("zone99")
		if !errors.Is(err, ErrComponentNotFound) {
			t.Errorf("expected ErrComponentNotFound, got %v", err)
		}
	})

	t.Run("Components", func(t *testing.T) {
		comps := device.Components()
		if len(comps) != 2 {
			t.Fatalf("expected 2 components, got %d", len(comps))
		}
		if comps[0].ID() != MainComponentID || comps[1].ID() != "zone2" {
			t.Errorf("expected insertion order, got %s, %s", comps[0].ID(), comps[1].ID())
		}
	})
}

func TestDeviceCapabilityAccess(t *testing.T) {
	device := NewDevice("d-1", "AC", "Samsung", "ARTIK051_KRAC_18K", "1.0")

	cap := NewCapability("switch", 1)
	_ = cap.AddAttribute(&AttributeMetadata{
		Name:       "switch",
		Type:       DataTypeEnum,
		EnumValues: []string{"on", "off"},
		Default:    "off",
	})
	_ = device.MainComponent().AddCapability(cap)

	t.Run("Found", func(t *testing.T) {
		got, err := device.Capability(MainComponentID, "switch")
		if err != nil {
			t.Fatalf("Capability failed: %v", err)
		}
		if got != cap {
			t.Error("expected the registered capability")
		}
	})

	t.Run("ComponentMissing", func(t *testing.T) {
		_, err := device.Capability("zone2", "switch")
		if !errors.Is(err, ErrComponentNotFound) {
			t.Errorf("expected ErrComponentNotFound, got %v", err)
		}
	})

	t.Run("CapabilityMissing", func(t *testing.T) {
		_, err := device.Capability(MainComponentID, "powerMeter")
		if !errors.Is(err, ErrCapabilityNotFound) {
			t.Errorf("expected ErrCapabilityNotFound, got %v", err)
		}
	})
}

func TestDeviceSubscribe(t *testing.T) {
	device := NewDevice("d-1", "AC", "Samsung", "ARTIK051_KRAC_18K", "1.0")

	cap := NewCapability("temperatureMeasurement", 1)
	_ = cap.AddAttribute(&AttributeMetadata{Name: "temperature", Type: DataTypeNumber, Nullable: true})
	_ = device.MainComponent().AddCapability(cap)

	var got []string
	device.Subscribe(&testSubscriber{
		onChanged: func(capID, attr string, value any) {
			got = append(got, capID+"."+attr)
		},
	})

	_ = cap.SetValue("temperature", 23.0)

	if len(got) != 1 || got[0] != "temperatureMeasurement.temperature" {
		t.Errorf("expected one notification for temperatureMeasurement.temperature, got %v", got)
	}
}

func TestDeviceInfo(t *testing.T) {
	device := NewDevice("device-123", "AC", "Samsung Electronics", "ARTIK051_KRAC_18K|10193141", "1.7.2")

	cap := NewCapability("airConditionerMode", 1)
	_ = cap.AddAttribute(&AttributeMetadata{Name: "airConditionerMode", Type: DataTypeString, Nullable: true})
	_ = cap.AddCommand(&CommandMetadata{
		Name:       "setAirConditionerMode",
		Parameters: []ParameterMetadata{{Name: "mode", Type: DataTypeString, Required: true}},
	}, nil)
	_ = device.MainComponent().AddCapability(cap)

	info := device.Info()

	if info.ID != "device-123" {
		t.Errorf("expected ID device-123, got %s", info.ID)
	}
	if info.Model != "ARTIK051_KRAC_18K|10193141" {
		t.Errorf("expected model string, got %s", info.Model)
	}
	if info.Firmware != "1.7.2" {
		t.Errorf("expected firmware 1.7.2, got %s", info.Firmware)
	}
	if len(info.Components) != 1 {
		t.Fatalf("expected 1 component in info, got %d", len(info.Components))
	}

	comp := info.Components[0]
	if comp.ID != MainComponentID {
		t.Errorf("expected component main, got %s", comp.ID)
	}
	if len(comp.Capabilities) != 1 {
		t.Fatalf("expected 1 capability in info, got %d", len(comp.Capabilities))
	}

	capInfo := comp.Capabilities[0]
	if capInfo.ID != "airConditionerMode" {
		t.Errorf("expected capability airConditionerMode, got %s", capInfo.ID)
	}
	if len(capInfo.Attributes) != 1 || capInfo.Attributes[0].Name != "airConditionerMode" {
		t.Errorf("unexpected attributes: %+v", capInfo.Attributes)
	}
	if len(capInfo.Commands) != 1 || capInfo.Commands[0].Name != "setAirConditionerMode" {
		t.Errorf("unexpected commands: %+v", capInfo.Commands)
	}
	if len(capInfo.Commands[0].Parameters) != 1 || capInfo.Commands[0].Parameters[0] != "mode" {
		t.Errorf("unexpected command parameters: %+v", capInfo.Commands[0].Parameters)
	}
}

func TestDataTypeString(t *testing.T) {
	tests := []struct {
		dt   DataType
		want string
	}{
		{DataTypeString, "string"},
		{DataTypeEnum, "enum"},
		{DataTypeInteger, "integer"},
		{DataTypeNumber, "number"},
		{DataTypeBoolean, "boolean"},
		{DataTypeStringList, "stringList"},
		{DataTypeMap, "map"},
		{DataType(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.dt.String(); got != tt.want {
			t.Errorf("DataType(%d).String() = %s, want %s", tt.dt, got, tt.want)
		}
	}
}
