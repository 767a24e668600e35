package chart

import (
	"encoding/json"
	"fmt"
)

// Request asks for one chart. It is an immutable value.
type Request struct {
	Type    Type
	Roles   Roles
	Options Options
}

// NewRequest builds a request. Nil options mean the type's defaults.
func NewRequest(t Type, roles Roles, opts Options) Request {
	if opts == nil {
		opts = DefaultOptions(t)
	}
	return Request{Type: t, Roles: roles, Options: opts}
}

// EffectiveOptions returns the request options, or the defaults when unset.
func (r Request) EffectiveOptions() Options {
	if r.Options == nil {
		return DefaultOptions(r.Type)
	}
	return r.Options
}

type requestJSON struct {
	Type    Type            `json:"type"`
	Roles   Roles           `json:"roles"`
	Options json.RawMessage `json:"options,omitempty"`
}

type requestYAML struct {
	Type    Type           `yaml:"type"`
	Roles   Roles          `yaml:"roles"`
	Options map[string]any `yaml:"options,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (r Request) MarshalJSON() ([]byte, error) {
	opts, err := json.Marshal(r.EffectiveOptions())
	if err != nil {
		return nil, err
	}
	return json.Marshal(requestJSON{Type: r.Type, Roles: r.Roles, Options: opts})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Request) UnmarshalJSON(data []byte) error {
	var aux requestJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t, err := ParseType(string(aux.Type))
	if err != nil {
		return err
	}
	opts := DefaultOptions(t)
	if len(aux.Options) > 0 && string(aux.Options) != "null" {
		if opts, err = decodeOptionsJSON(t, aux.Options); err != nil {
			return err
		}
	}
	*r = Request{Type: t, Roles: aux.Roles, Options: opts}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Request) UnmarshalYAML(unmarshal func(any) error) error {
	var aux requestYAML
	if err := unmarshal(&aux); err != nil {
		return err
	}
	t, err := ParseType(string(aux.Type))
	if err != nil {
		return err
	}
	opts, err := DecodeOptions(t, normalizeYAML(aux.Options))
	if err != nil {
		return err
	}
	*r = Request{Type: t, Roles: aux.Roles, Options: opts}
	return nil
}

// normalizeYAML converts map[any]any values, which JSON cannot encode,
// into map[string]any.
func normalizeYAML(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeYAMLValue(v)
	}
	return out
}

func normalizeYAMLValue(v any) any {
	switch x := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, val := range x {
			m[fmt.Sprint(k)] = normalizeYAMLValue(val)
		}
		return m
	case map[string]any:
		return normalizeYAML(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = normalizeYAMLValue(item)
		}
		return out
	default:
		return v
	}
}
