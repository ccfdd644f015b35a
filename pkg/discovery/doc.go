// Package discovery implements local device discovery for KRAC using
// mDNS (zeroconf).
//
// Devices advertise the _krac._tcp service with TXT records carrying
// the device ID, model, label, and firmware version. Bridges browse
// the service type, decode the TXT records, and dial the advertised
// address.
//
// Instance name format: KRAC-<device-id>, truncated to the DNS label
// limit of 63 bytes.
//
// TXT record keys:
//   - id: device ID (required)
//   - md: model string
//   - lb: user-facing label
//   - fw: firmware version
package discovery
