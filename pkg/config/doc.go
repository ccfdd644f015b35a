// Package config loads the YAML configuration shared by the KRAC
// binaries.
//
// Defaults are applied before decoding, unknown keys are rejected, and
// Validate names the offending field. Durations are YAML strings in Go
// syntax ("1s", "500ms") with typed accessors that parse them.
package config
