package discovery

import (
	"fmt"
	"sort"
	"strings"
)

// TXTRecordMap holds TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeTXT builds the TXT records for an advertisement. Optional
// fields are omitted when empty.
func EncodeTXT(info *Info) TXTRecordMap {
	txt := TXTRecordMap{
		TXTKeyDeviceID: info.DeviceID,
	}
	if info.Model != "" {
		txt[TXTKeyModel] = info.Model
	}
	if info.Label != "" {
		txt[TXTKeyLabel] = info.Label
	}
	if info.Firmware != "" {
		txt[TXTKeyFirmware] = info.Firmware
	}
	return txt
}

// DecodeTXT parses TXT records from a discovered service.
func DecodeTXT(txt TXTRecordMap) (*Info, error) {
	id, ok := txt[TXTKeyDeviceID]
	if !ok || id == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyDeviceID)
	}
	return &Info{
		DeviceID: id,
		Model:    txt[TXTKeyModel],
		Label:    txt[TXTKeyLabel],
		Firmware: txt[TXTKeyFirmware],
	}, nil
}

// TXTRecordsToStrings converts a record map to "key=value" strings in
// sorted key order.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	keys := make([]string, 0, len(txt))
	for k := range txt {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	strs := make([]string, 0, len(keys))
	for _, k := range keys {
		strs = append(strs, k+"="+txt[k])
	}
	return strs
}

// StringsToTXTRecords parses "key=value" strings into a record map.
// Malformed entries are skipped.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap, len(strs))
	for _, s := range strs {
		key, value, ok := strings.Cut(s, "=")
		if !ok || key == "" {
			continue
		}
		txt[key] = value
	}
	return txt
}

// InstanceName builds the mDNS instance name for a device, truncated
// to the DNS label limit.
func InstanceName(deviceID string) string {
	name := "KRAC-" + deviceID
	if len(name) > MaxInstanceNameLen {
		name = name[:MaxInstanceNameLen]
	}
	return name
}

// txtSize returns the total encoded size of the TXT strings. Each
// string costs one length byte on the wire.
func txtSize(strs []string) int {
	size := 0
	for _, s := range strs {
		size += len(s) + 1
	}
	return size
}
