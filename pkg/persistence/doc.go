// Package persistence provides runtime state persistence for KRAC
// devices and bridges.
//
// This package handles the JSON serialization of runtime state that
// must survive restarts: a device's attribute snapshot and label, and
// a bridge's roster of known devices with their last known addresses.
package persistence
