package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// ValueType is the declared shape of a key's values.
type ValueType string

const (
	TypeString ValueType = "string"
	TypeList   ValueType = "list"
)

// NormalizeType maps a stored or user-supplied type name to a ValueType.
// "list" and "array" (any case, surrounding space ignored) are lists;
// everything else, including the empty legacy type, is a string.
func NormalizeType(raw string) ValueType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "list", "array":
		return TypeList
	default:
		return TypeString
	}
}

// ParseValueType is the strict form of NormalizeType used where a caller
// declares a type explicitly. An empty type defaults to string.
func ParseValueType(raw string) (ValueType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "string":
		return TypeString, nil
	case "list", "array":
		return TypeList, nil
	default:
		return "", invalidf("invalid key type %q: must be string or list", raw)
	}
}

// Value is a translation value: a single string or an ordered list.
// The zero Value is the empty string.
type Value struct {
	list  bool
	str   string
	items []string
}

// StringValue returns a scalar value.
func StringValue(s string) Value {
	return Value{str: s}
}

// ListValue returns a list value holding a copy of items.
func ListValue(items ...string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{list: true, items: cp}
}

// Type reports the shape of the value.
func (v Value) Type() ValueType {
	if v.list {
		return TypeList
	}
	return TypeString
}

// IsList reports whether the value is a list.
func (v Value) IsList() bool {
	return v.list
}

// String returns the scalar content, or the list items joined by ", ".
func (v Value) String() string {
	if v.list {
		return strings.Join(v.items, ", ")
	}
	return v.str
}

// Items returns a copy of the list items; nil for a scalar.
func (v Value) Items() []string {
	if !v.list {
		return nil
	}
	return slices.Clone(v.items)
}

// Equal reports whether both values have the same shape and content.
func (v Value) Equal(o Value) bool {
	if v.list != o.list {
		return false
	}
	if v.list {
		return slices.Equal(v.items, o.items)
	}
	return v.str == o.str
}

// Validate checks structural rules: list elements must be non-blank.
func (v Value) Validate() error {
	if !v.list {
		return nil
	}
	for i, item := range v.items {
		if strings.TrimSpace(item) == "" {
			return invalidf("list element %d is empty", i)
		}
	}
	return nil
}

// validateContent is the stricter rule for suggestions: a non-blank
// string or a non-empty list of non-blank strings.
func (v Value) validateContent() error {
	if v.list {
		if len(v.items) == 0 {
			return invalidf("suggestion value must not be an empty list")
		}
		return v.Validate()
	}
	if strings.TrimSpace(v.str) == "" {
		return invalidf("suggestion value must not be empty")
	}
	return nil
}

// MarshalJSON encodes the value as a JSON string or array of strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.list {
		items := v.items
		if items == nil {
			items = []string{}
		}
		return json.Marshal(items)
	}
	return json.Marshal(v.str)
}

// UnmarshalJSON accepts a JSON string or an array of strings.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return invalidf("empty value")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return invalidf("decode string value: %v", err)
		}
		*v = StringValue(s)
		return nil
	case '[':
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return invalidf("list values must contain only strings")
		}
		*v = ListValue(items...)
		return nil
	default:
		return invalidf("value must be a string or a list of strings")
	}
}

// encodeValue is the canonical storage encoding shared by translations,
// suggestions and audit rows.
func encodeValue(v Value) (string, error) {
	b, err := v.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("encode value: %w", err)
	}
	return string(b), nil
}

// decodeValue reverses encodeValue. Text that is not a JSON string or list
// is treated as a raw legacy string.
func decodeValue(raw string) Value {
	var v Value
	if err := v.UnmarshalJSON([]byte(raw)); err != nil {
		return StringValue(raw)
	}
	return v
}

// encodeNullable encodes an optional value for nullable audit columns.
func encodeNullable(v *Value) (*string, error) {
	if v == nil {
		return nil, nil
	}
	s, err := encodeValue(*v)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// decodeNullable reverses encodeNullable.
func decodeNullable(raw *string) *Value {
	if raw == nil {
		return nil
	}
	v := decodeValue(*raw)
	return &v
}

// checkShape enforces that v matches the key's declared type.
func checkShape(keyName string, keyType ValueType, v Value) error {
	if v.Type() != keyType {
		return invalidf("value for key %q must be a %s, got %s", keyName, keyType, v.Type())
	}
	return nil
}
