package definition

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// OrderedMap decodes a JSON object while preserving the declaration
// order of its keys, which the action parser depends on: ties in an
// action's priority break on source order, and Go's encoding/json
// normally discards object key order by decoding into a plain map.
type OrderedMap struct {
	keys   []string
	values map[string]any
}

// Keys returns the object's keys in declaration order.
func (m *OrderedMap) Keys() []string {
	if m == nil {
		return nil
	}
	return m.keys
}

// Get returns the value for key.
func (m *OrderedMap) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// ToMap converts the ordered object (recursively) into a plain
// map[string]any / []any tree, suitable for the merge and render
// packages, which have no need for key order.
func (m *OrderedMap) ToMap() map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m.keys))
	for _, k := range m.keys {
		out[k] = toPlain(m.values[k])
	}
	return out
}

func toPlain(v any) any {
	switch vv := v.(type) {
	case *OrderedMap:
		return vv.ToMap()
	case []any:
		out := make([]any, len(vv))
		for i, e := range vv {
			out[i] = toPlain(e)
		}
		return out
	default:
		return vv
	}
}

// decodeOrdered parses JSONC source into an *OrderedMap (for a
// top-level object) preserving key order at every nesting level.
func decodeOrdered(src []byte) (*OrderedMap, error) {
	dec := json.NewDecoder(bytes.NewReader(stripComments(src)))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	m, ok := v.(*OrderedMap)
	if !ok {
		return nil, fmt.Errorf("definition: top-level JSON value is not an object")
	}
	return m, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeTokenValue(dec, tok)
}

func decodeTokenValue(dec *json.Decoder, tok json.Token) (any, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := &OrderedMap{values: map[string]any{}}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("definition: expected object key, got %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				if _, dup := m.values[key]; !dup {
					m.keys = append(m.keys, key)
				}
				m.values[key] = val
			}
			// consume closing '}'
			if _, err := dec.Token(); err != nil && err != io.EOF {
				return nil, err
			}
			return m, nil
		case '[':
			var list []any
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, val)
			}
			if _, err := dec.Token(); err != nil && err != io.EOF {
				return nil, err
			}
			return list, nil
		}
		return nil, fmt.Errorf("definition: unexpected delimiter %v", t)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f, nil
		}
		return t.String(), nil
	default:
		return tok, nil
	}
}
