// Package model implements the SmartThings-shaped device data model:
// a Device contains named Components, a Component contains Capabilities,
// and a Capability exposes Attributes (observable state) and Commands
// (invocable actions).
//
// The model is the single source of truth on the device side and the
// mirrored view on the bridge side. Attribute changes flow to registered
// CapabilitySubscribers, which the service layer uses to push notifications
// to connected peers and to Home Assistant.
package model
