package chart

import (
	"encoding/json"
	"fmt"
	"strings"
)

type bindingKind uint8

const (
	bindNone bindingKind = iota
	bindColumn
	bindList
)

// Binding ties a chart role to dataset columns. It is either unbound, a
// single column, or an ordered list of columns. The zero Binding is unbound.
type Binding struct {
	kind  bindingKind
	names []string
}

// None returns an unbound role.
func None() Binding {
	return Binding{}
}

// Column binds a role to one column. An empty name is unbound.
func Column(name string) Binding {
	if name == "" {
		return Binding{}
	}
	return Binding{kind: bindColumn, names: []string{name}}
}

// ColumnList binds a role to an ordered list of columns.
func ColumnList(names ...string) Binding {
	cp := make([]string, len(names))
	copy(cp, names)
	return Binding{kind: bindList, names: cp}
}

// IsNone reports whether the role is unbound.
func (b Binding) IsNone() bool {
	return b.kind == bindNone
}

// IsList reports whether the role is bound to a column list.
func (b Binding) IsList() bool {
	return b.kind == bindList
}

// Name returns the column of a single-column binding.
func (b Binding) Name() (string, bool) {
	if b.kind != bindColumn {
		return "", false
	}
	return b.names[0], true
}

// Names returns every referenced column.
func (b Binding) Names() []string {
	out := make([]string, len(b.names))
	copy(out, b.names)
	return out
}

// String renders the binding for titles: the column name, or list entries
// joined by ", ".
func (b Binding) String() string {
	return strings.Join(b.names, ", ")
}

// MarshalJSON implements json.Marshaler.
func (b Binding) MarshalJSON() ([]byte, error) {
	switch b.kind {
	case bindColumn:
		return json.Marshal(b.names[0])
	case bindList:
		return json.Marshal(b.names)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler. A string is a single column,
// an array a column list, and null leaves the role unbound.
func (b *Binding) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return b.fromAny(raw)
}

// MarshalYAML implements yaml.Marshaler.
func (b Binding) MarshalYAML() (any, error) {
	switch b.kind {
	case bindColumn:
		return b.names[0], nil
	case bindList:
		return b.names, nil
	default:
		return nil, nil
	}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *Binding) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	return b.fromAny(raw)
}

func (b *Binding) fromAny(raw any) error {
	switch v := raw.(type) {
	case nil:
		*b = None()
	case string:
		*b = Column(v)
	case []any:
		names := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("%w: column list entry %d is %T", ErrInvalidBinding, i, item)
			}
			names[i] = s
		}
		*b = ColumnList(names...)
	default:
		return fmt.Errorf("%w: %T", ErrInvalidBinding, raw)
	}
	return nil
}

// Roles binds abstract chart roles to columns.
type Roles struct {
	X      Binding `json:"x,omitempty" yaml:"x,omitempty"`
	Y      Binding `json:"y,omitempty" yaml:"y,omitempty"`
	Y2     Binding `json:"y2,omitempty" yaml:"y2,omitempty"`
	Color  Binding `json:"color,omitempty" yaml:"color,omitempty"`
	Size   Binding `json:"size,omitempty" yaml:"size,omitempty"`
	Names  Binding `json:"names,omitempty" yaml:"names,omitempty"`
	Values Binding `json:"values,omitempty" yaml:"values,omitempty"`
}

// PieNames returns the pie label role, falling back to X.
func (r Roles) PieNames() Binding {
	if r.Names.IsNone() {
		return r.X
	}
	return r.Names
}

// PieValues returns the pie value role, falling back to Y.
func (r Roles) PieValues() Binding {
	if r.Values.IsNone() {
		return r.Y
	}
	return r.Values
}
