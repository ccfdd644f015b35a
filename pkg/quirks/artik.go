package quirks

import (
	"fmt"
	"strings"

	"github.com/krac-home/krac-go/pkg/caps"
)

const modelPrefixKRAC = "ARTIK051_KRAC"

// Presets the KRAC firmware supports but does not report in
// supportedAcOptionalMode. Display casing follows the vendor app.
var artikForcedPresets = []string{"WindFree", "2-Step", "Fast Turbo", "Comfort", "Quiet"}

// artikPresetCommands maps lowercased presets to the Comode token
// written to mode/vs/0. WindFree and off are not listed: the firmware
// handles both through the standard setAcOptionalMode command, so they
// take the fallthrough path.
var artikPresetCommands = map[string]string{
	"quiet":      caps.ComodeQuiet,
	"fast turbo": caps.ComodeSpeed,
	"comfort":    caps.ComodeComfort,
	"2-step":     caps.Comode2Step,
}

// artikQuirk covers the ARTIK051_KRAC family of Samsung room air
// conditioners.
type artikQuirk struct{}

func (artikQuirk) PresetModes(reported []string) []string {
	modes := make([]string, 0, len(reported)+len(artikForcedPresets))
	modes = append(modes, reported...)
	for _, forced := range artikForcedPresets {
		if !containsFold(modes, forced) {
			modes = append(modes, forced)
		}
	}
	return PruneOff(modes)
}

func (artikQuirk) RestrictWindFree(acMode string) bool {
	return acMode == "auto" || acMode == "heat"
}

func (artikQuirk) PresetCommand(preset string) (ExecutePayload, error) {
	token, ok := artikPresetCommands[strings.ToLower(preset)]
	if !ok {
		return ExecutePayload{}, fmt.Errorf("%w: %q", ErrUnknownPreset, preset)
	}
	return ExecutePayload{
		Href: caps.OptionsHref,
		Args: map[string]any{caps.OptionsKey: []string{token}},
	}, nil
}
