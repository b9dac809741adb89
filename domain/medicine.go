package domain

import (
	"bytes"
	"encoding/json"
	"errors"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Field names the API relies on. Every other field passes through untouched.
const (
	FieldCode        = "code"
	FieldGenericName = "generic_name"
)

// ErrInvalidRecord is returned when a record is not valid JSON.
var ErrInvalidRecord = errors.New("medicine is not valid JSON")

// Medicine is a free-form medicine record. Fields keep their original order
// and their raw JSON values. A stored entry that is not a JSON object is
// kept verbatim in opaque; it has no fields and never matches a code.
type Medicine struct {
	fields *orderedmap.OrderedMap[string, json.RawMessage]
	opaque json.RawMessage
}

// Collection is the ordered list of records persisted as one snapshot.
type Collection []*Medicine

// NewMedicine returns an empty record.
func NewMedicine() *Medicine {
	return &Medicine{fields: orderedmap.New[string, json.RawMessage]()}
}

func (m *Medicine) init() {
	if m.fields == nil {
		m.fields = orderedmap.New[string, json.RawMessage]()
	}
	m.opaque = nil
}

// IsObject reports whether the record was a JSON object.
func (m *Medicine) IsObject() bool {
	return m != nil && m.opaque == nil
}

// Set stores value under key. An existing key keeps its position.
func (m *Medicine) Set(key string, value any) error {
	raw, err := encodeValue(value)
	if err != nil {
		return err
	}
	m.init()
	m.fields.Set(key, raw)
	return nil
}

// Get decodes the value stored under key.
func (m *Medicine) Get(key string) (any, bool) {
	raw, ok := m.Raw(key)
	if !ok {
		return nil, false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	return v, true
}

// Raw returns the undecoded JSON stored under key.
func (m *Medicine) Raw(key string) (json.RawMessage, bool) {
	if m == nil || m.fields == nil {
		return nil, false
	}
	return m.fields.Get(key)
}

// Keys lists field names in record order.
func (m *Medicine) Keys() []string {
	if m == nil || m.fields == nil {
		return nil
	}
	keys := make([]string, 0, m.fields.Len())
	for pair := m.fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Len returns the number of fields.
func (m *Medicine) Len() int {
	if m == nil || m.fields == nil {
		return 0
	}
	return m.fields.Len()
}

// Code returns the record's code when it is a JSON string.
func (m *Medicine) Code() (string, bool) {
	v, ok := m.Get(FieldCode)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// HasCode reports whether the record is keyed by code.
func (m *Medicine) HasCode(code string) bool {
	c, ok := m.Code()
	return ok && c == code
}

// SameCode reports whether both records carry equal scalar codes.
// Object and array codes never match, not even themselves.
func (m *Medicine) SameCode(other *Medicine) bool {
	a, ok := m.Get(FieldCode)
	if !ok {
		return false
	}
	b, ok := other.Get(FieldCode)
	if !ok {
		return false
	}
	return scalarEqual(a, b)
}

// HasRequiredFields reports whether code and generic_name are both present
// and non-empty. null, false, 0 and "" count as absent.
func (m *Medicine) HasRequiredFields() bool {
	return m.present(FieldCode) && m.present(FieldGenericName)
}

func (m *Medicine) present(key string) bool {
	v, ok := m.Get(key)
	return ok && truthy(v)
}

// Clone returns a copy that shares no storage with m.
func (m *Medicine) Clone() *Medicine {
	out := NewMedicine()
	if m == nil {
		return out
	}
	if m.opaque != nil {
		return &Medicine{opaque: append(json.RawMessage(nil), m.opaque...)}
	}
	if m.fields == nil {
		return out
	}
	for pair := m.fields.Oldest(); pair != nil; pair = pair.Next() {
		out.fields.Set(pair.Key, append(json.RawMessage(nil), pair.Value...))
	}
	return out
}

// WithCode returns a copy of m whose code is forced to code.
func (m *Medicine) WithCode(code string) *Medicine {
	out := m.Clone()
	out.init()
	raw, _ := encodeValue(code)
	out.fields.Set(FieldCode, raw)
	return out
}

// MarshalJSON writes the fields in record order.
func (m *Medicine) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	if m.opaque != nil {
		return m.opaque, nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	if m.fields != nil {
		for pair := m.fields.Oldest(); pair != nil; pair = pair.Next() {
			if buf.Len() > 1 {
				buf.WriteByte(',')
			}
			key, err := encodeValue(pair.Key)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if len(pair.Value) == 0 {
				buf.WriteString("null")
				continue
			}
			buf.Write(pair.Value)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object into ordered fields and keeps any other
// JSON value as it is.
func (m *Medicine) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		if !json.Valid(trimmed) {
			return ErrInvalidRecord
		}
		m.fields = nil
		m.opaque = append(json.RawMessage(nil), trimmed...)
		return nil
	}
	fields := orderedmap.New[string, json.RawMessage]()
	if err := fields.UnmarshalJSON(trimmed); err != nil {
		return err
	}
	m.fields = fields
	m.opaque = nil
	return nil
}

func encodeValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	}
	return true
}

func scalarEqual(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	}
	return false
}
