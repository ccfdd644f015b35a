package model

import (
	"errors"
	"fmt"
	"sync"
)

// DataType represents the type of an attribute value.
type DataType uint8

const (
	DataTypeUnknown DataType = iota
	DataTypeString
	DataTypeEnum
	DataTypeInteger
	DataTypeNumber
	DataTypeBoolean
	DataTypeStringList
	DataTypeMap
)

// String returns the data type name.
func (d DataType) String() string {
	names := []string{
		"unknown", "string", "enum", "integer", "number",
		"boolean", "stringList", "map",
	}
	if int(d) < len(names) {
		return names[d]
	}
	return "unknown"
}

// AttributeMetadata describes an attribute's properties.
type AttributeMetadata struct {
	// Name is the attribute name within the capability (e.g. "coolingSetpoint").
	Name string

	// Type is the data type of the attribute value.
	Type DataType

	// Nullable indicates if nil is a valid value.
	Nullable bool

	// MinValue is the minimum allowed value (for numeric types).
	MinValue any

	// MaxValue is the maximum allowed value (for numeric types).
	MaxValue any

	// EnumValues lists the allowed values for enum attributes.
	EnumValues []string

	// Default is the initial value.
	Default any

	// Unit is the unit of measurement (e.g. "C", "F", "%").
	Unit string

	// Description is a human-readable description.
	Description string
}

// Attribute errors.
var (
	ErrAttributeNotNullable = errors.New("attribute does not accept null")
	ErrAttributeValueType   = errors.New("invalid value type for attribute")
	ErrAttributeOutOfRange  = errors.New("value out of range")
	ErrAttributeBadEnum     = errors.New("value not in enum")
)

// Attribute represents an attribute instance with its current value.
type Attribute struct {
	mu       sync.RWMutex
	metadata *AttributeMetadata
	value    any
	dirty    bool // True if value changed since last report
}

// NewAttribute creates a new attribute with the given metadata.
func NewAttribute(meta *AttributeMetadata) *Attribute {
	return &Attribute{
		metadata: meta,
		value:    meta.Default,
	}
}

// Name returns the attribute name.
func (a *Attribute) Name() string {
	return a.metadata.Name
}

// Metadata returns the attribute metadata.
func (a *Attribute) Metadata() *AttributeMetadata {
	return a.metadata
}

// Unit returns the attribute's unit of measurement.
func (a *Attribute) Unit() string {
	return a.metadata.Unit
}

// Value returns the current attribute value.
func (a *Attribute) Value() any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.value
}

// SetValue validates and sets the attribute value.
// Returns true if the value actually changed.
func (a *Attribute) SetValue(value any) (bool, error) {
	// Check nullable
	if value == nil && !a.metadata.Nullable {
		return false, ErrAttributeNotNullable
	}

	// Validate type, range, and enum membership
	if value != nil {
		if err := a.validateValue(value); err != nil {
			return false, err
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if equalValues(a.value, value) {
		return false, nil
	}
	a.value = value
	a.dirty = true
	return true, nil
}

// validateValue checks the value against the metadata constraints.
func (a *Attribute) validateValue(value any) error {
	switch a.metadata.Type {
	case DataTypeString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%w: %s expects string", ErrAttributeValueType, a.metadata.Name)
		}
	case DataTypeEnum:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s expects enum string", ErrAttributeValueType, a.metadata.Name)
		}
		if len(a.metadata.EnumValues) > 0 && !containsString(a.metadata.EnumValues, s) {
			return fmt.Errorf("%w: %s does not accept %q", ErrAttributeBadEnum, a.metadata.Name, s)
		}
	case DataTypeInteger:
		if !isIntegerType(value) {
			return fmt.Errorf("%w: %s expects integer", ErrAttributeValueType, a.metadata.Name)
		}
	case DataTypeNumber:
		if !isNumericType(value) {
			return fmt.Errorf("%w: %s expects number", ErrAttributeValueType, a.metadata.Name)
		}
	case DataTypeBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%w: %s expects boolean", ErrAttributeValueType, a.metadata.Name)
		}
	case DataTypeStringList:
		if !isStringList(value) {
			return fmt.Errorf("%w: %s expects string list", ErrAttributeValueType, a.metadata.Name)
		}
	case DataTypeMap:
		if !isMapType(value) {
			return fmt.Errorf("%w: %s expects map", ErrAttributeValueType, a.metadata.Name)
		}
	}

	// Range checking for numeric types
	if a.metadata.MinValue != nil || a.metadata.MaxValue != nil {
		if err := a.checkRange(value); err != nil {
			return err
		}
	}

	return nil
}

// checkRange validates numeric range constraints.
func (a *Attribute) checkRange(value any) error {
	v, ok := toFloat64(value)
	if !ok {
		return nil // Not a numeric type
	}

	if a.metadata.MinValue != nil {
		min, _ := toFloat64(a.metadata.MinValue)
		if v < min {
			return fmt.Errorf("%w: %s: %v < %v", ErrAttributeOutOfRange, a.metadata.Name, value, a.metadata.MinValue)
		}
	}

	if a.metadata.MaxValue != nil {
		max, _ := toFloat64(a.metadata.MaxValue)
		if v > max {
			return fmt.Errorf("%w: %s: %v > %v", ErrAttributeOutOfRange, a.metadata.Name, value, a.metadata.MaxValue)
		}
	}

	return nil
}

// IsDirty returns true if the value changed since the last ClearDirty call.
func (a *Attribute) IsDirty() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dirty
}

// ClearDirty clears the dirty flag.
func (a *Attribute) ClearDirty() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dirty = false
}

// Helper functions for type checking.

func isIntegerType(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	default:
		return false
	}
}

func isNumericType(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	default:
		return false
	}
}

func isStringList(v any) bool {
	switch l := v.(type) {
	case []string:
		return true
	case []any:
		for _, e := range l {
			if _, ok := e.(string); !ok {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func isMapType(v any) bool {
	switch v.(type) {
	case map[string]any, map[any]any:
		return true
	default:
		return false
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func containsString(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}

// equalValues compares attribute values without panicking on
// non-comparable types such as string lists and maps.
func equalValues(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	switch av := a.(type) {
	case []string:
		bv, ok := b.([]string)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !equalValues(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			if !equalValues(v, bv[k]) {
				return false
			}
		}
		return true
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	}

	// Numeric values may arrive as different widths from CBOR decoding.
	af, aok := toFloat64(a)
	bf, bok := toFloat64(b)
	if aok && bok {
		return af == bf
	}

	return false
}
