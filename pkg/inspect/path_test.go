package inspect

import (
	"testing"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *Path
		wantErr bool
	}{
		{
			name:  "full path",
			input: "main/switch/switch",
			want: &Path{
				Component:  "main",
				Capability: "switch",
				Attribute:  "switch",
			},
		},
		{
			name:  "component only",
			input: "main",
			want: &Path{
				Component: "main",
				IsPartial: true,
			},
		},
		{
			name:  "component and capability",
			input: "main/airConditionerMode",
			want: &Path{
				Component:  "main",
				Capability: "airConditionerMode",
				IsPartial:  true,
			},
		},
		{
			name:  "capability first defaults to main",
			input: "switch/switch",
			want: &Path{
				Component:  "main",
				Capability: "switch",
				Attribute:  "switch",
			},
		},
		{
			name:  "alias resolves to canonical ID",
			input: "setpoint/coolingSetpoint",
			want: &Path{
				Component:  "main",
				Capability: "thermostatCoolingSetpoint",
				Attribute:  "coolingSetpoint",
			},
		},
		{
			name:  "bare alias lists the capability",
			input: "fan",
			want: &Path{
				Component:  "main",
				Capability: "airConditionerFanMode",
				IsPartial:  true,
			},
		},
		{
			name:  "namespaced capability",
			input: "main/custom.airConditionerOptionalMode/acOptionalMode",
			want: &Path{
				Component:  "main",
				Capability: "custom.airConditionerOptionalMode",
				Attribute:  "acOptionalMode",
			},
		},
		{
			name:  "command path",
			input: "main/switch/cmd/on",
			want: &Path{
				Component:  "main",
				Capability: "switch",
				Command:    "on",
				IsCommand:  true,
			},
		},
		{
			name:  "capability-first command path",
			input: "switch/cmd/off",
			want: &Path{
				Component:  "main",
				Capability: "switch",
				Command:    "off",
				IsCommand:  true,
			},
		},
		{
			name:    "empty path",
			input:   "",
			wantErr: true,
		},
		{
			name:    "command path missing name",
			input:   "main/switch/cmd",
			wantErr: true,
		},
		{
			name:    "too many segments",
			input:   "main/switch/switch/extra",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParsePath() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if got.Component != tt.want.Component {
				t.Errorf("Component = %q, want %q", got.Component, tt.want.Component)
			}
			if got.Capability != tt.want.Capability {
				t.Errorf("Capability = %q, want %q", got.Capability, tt.want.Capability)
			}
			if got.Attribute != tt.want.Attribute {
				t.Errorf("Attribute = %q, want %q", got.Attribute, tt.want.Attribute)
			}
			if got.Command != tt.want.Command {
				t.Errorf("Command = %q, want %q", got.Command, tt.want.Command)
			}
			if got.IsCommand != tt.want.IsCommand {
				t.Errorf("IsCommand = %v, want %v", got.IsCommand, tt.want.IsCommand)
			}
			if got.IsPartial != tt.want.IsPartial {
				t.Errorf("IsPartial = %v, want %v", got.IsPartial, tt.want.IsPartial)
			}
		})
	}
}

func TestPathString(t *testing.T) {
	tests := []struct {
		name string
		path *Path
		want string
	}{
		{
			name: "full path",
			path: &Path{
				Component:  "main",
				Capability: "switch",
				Attribute:  "switch",
			},
			want: "main/switch/switch",
		},
		{
			name: "partial component only",
			path: &Path{
				Component: "main",
				IsPartial: true,
			},
			want: "main",
		},
		{
			name: "partial component and capability",
			path: &Path{
				Component:  "main",
				Capability: "airConditionerFanMode",
				IsPartial:  true,
			},
			want: "main/airConditionerFanMode",
		},
		{
			name: "command path",
			path: &Path{
				Component:  "main",
				Capability: "switch",
				Command:    "on",
				IsCommand:  true,
			},
			want: "main/switch/cmd/on",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.path.String()
			if got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParsePathRoundTrip(t *testing.T) {
	// A parsed path rendered back must parse to the same path.
	inputs := []string{
		"main/switch/switch",
		"main/thermostatCoolingSetpoint/coolingSetpoint",
		"main/switch/cmd/on",
		"main/airConditionerMode",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			first, err := ParsePath(input)
			if err != nil {
				t.Fatalf("ParsePath(%q) error = %v", input, err)
			}
			second, err := ParsePath(first.String())
			if err != nil {
				t.Fatalf("ParsePath(%q) error = %v", first.String(), err)
			}
			if second.String() != first.String() {
				t.Errorf("round trip changed path: %q -> %q", first.String(), second.String())
			}
		})
	}
}

func TestIsValidPath(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"main/switch/switch", true},
		{"main/switch", true},
		{"main", true},
		{"switch", true},
		{"zone1", true}, // unknown components resolve at inspect time
		{"", false},
		{"/main/switch", false},
		{"main//switch", false},
		{"main/switch/", false},
		{"main/switch/cmd", false},
		{"a/b/c/d", false},
		{"switch/cmd/on/extra", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParsePath(tt.input)
			valid := err == nil
			if valid != tt.valid {
				t.Errorf("ParsePath(%q) valid = %v, want %v (err=%v)", tt.input, valid, tt.valid, err)
			}
		})
	}
}
