// Package quirks carries per-model behavior deviations for Samsung
// room air conditioners. Some KRAC-family firmwares expose preset
// modes (Quiet, Fast Turbo, Comfort, 2-Step) only through raw OCF
// resource writes instead of the documented setAcOptionalMode
// command; the quirk for a model knows which presets to offer and how
// to activate them.
package quirks

import (
	"errors"
	"strings"

	"github.com/krac-home/krac-go/pkg/caps"
	"github.com/krac-home/krac-go/pkg/model"
)

var ErrUnknownPreset = errors.New("unknown preset mode")

// ExecutePayload is a raw OCF resource write carried by the execute
// capability.
type ExecutePayload struct {
	Href string
	Args map[string]any
}

// Quirk adjusts the preset surface of a specific model family.
type Quirk interface {
	// PresetModes derives the offered preset list from the modes the
	// device reports in supportedAcOptionalMode.
	PresetModes(reported []string) []string

	// RestrictWindFree reports whether the windFree preset must be
	// withheld while the given AC mode is active.
	RestrictWindFree(acMode string) bool

	// PresetCommand translates a preset into the execute payload that
	// activates it. ErrUnknownPreset means the preset has no execute
	// mapping and the standard setAcOptionalMode path applies.
	PresetCommand(preset string) (ExecutePayload, error)
}

type registration struct {
	prefix string
	quirk  Quirk
}

var registry = []registration{
	{prefix: modelPrefixKRAC, quirk: artikQuirk{}},
}

// Register adds a quirk for all models starting with the given
// prefix. Call during startup; Lookup is not synchronized against
// concurrent registration.
func Register(prefix string, q Quirk) {
	registry = append(registry, registration{prefix: prefix, quirk: q})
}

// Lookup returns the quirk for a model ID, matching registered
// prefixes in registration order.
func Lookup(model string) (Quirk, bool) {
	for _, r := range registry {
		if strings.HasPrefix(model, r.prefix) {
			return r.quirk, true
		}
	}
	return nil, false
}

// Model extracts the model ID a quirk lookup keys on: the first
// segment of the OCF mnmo value. Devices without the ocf capability
// have no model ID.
func Model(device *model.Device) string {
	ocf, err := caps.OcfOf(device)
	if err != nil {
		return ""
	}
	return ocf.ModelID()
}

// PruneOff applies the off-mode rules shared by all preset lists: a
// list of just "off" means the device has no real presets, and "off"
// never appears alongside real presets.
func PruneOff(modes []string) []string {
	if len(modes) == 0 {
		return nil
	}
	out := make([]string, 0, len(modes))
	for _, m := range modes {
		if strings.EqualFold(m, "off") {
			continue
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
