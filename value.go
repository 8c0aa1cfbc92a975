package harvest

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ValueType identifies the shape of an extraction result.
type ValueType int

// Extraction result shapes.
const (
	TypeText ValueType = iota
	TypeList
	TypeTable
	TypeRecord
)

// String returns the name of the value type.
func (t ValueType) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeList:
		return "list"
	case TypeTable:
		return "table"
	case TypeRecord:
		return "record"
	}
	return "unknown"
}

// Value is the result of one extraction step: a scalar string, an ordered
// list of strings, a key/value table, or a persisted record.
// The zero Value is an empty Text.
type Value struct {
	typ    ValueType
	text   string
	list   []string
	table  *Table
	record *Record
}

// TextValue returns a scalar Value.
func TextValue(s string) Value {
	return Value{typ: TypeText, text: s}
}

// ListValue returns a collection Value. The items are copied.
func ListValue(items ...string) Value {
	list := make([]string, len(items))
	copy(list, items)
	return Value{typ: TypeList, list: list}
}

// TableValue returns a key/value Value.
func TableValue(t *Table) Value {
	if t == nil {
		t = NewTable()
	}
	return Value{typ: TypeTable, table: t}
}

// RecordValue returns a Value describing a persistence side effect.
func RecordValue(r *Record) Value {
	return Value{typ: TypeRecord, record: r}
}

// Type returns the shape of the value.
func (v Value) Type() ValueType { return v.typ }

// Text returns the scalar content. Empty for non-text values.
func (v Value) Text() string { return v.text }

// List returns the collection items. Nil for non-list values.
func (v Value) List() []string { return v.list }

// Table returns the key/value table. Nil for non-table values.
func (v Value) Table() *Table { return v.table }

// Record returns the persisted record. Nil for non-record values.
func (v Value) Record() *Record { return v.record }

// IsStringLike reports whether the value can be consumed as markup or text
// by a string-oriented strategy. Lists are joined by newlines.
func (v Value) IsStringLike() bool {
	return v.typ == TypeText || v.typ == TypeList
}

// IsEmpty reports whether the value carries no content.
func (v Value) IsEmpty() bool {
	switch v.typ {
	case TypeList:
		return len(v.list) == 0
	case TypeTable:
		return v.table == nil || v.table.Len() == 0
	case TypeRecord:
		return v.record == nil
	}
	return v.text == ""
}

// String serializes the value as the input of the next pipeline step.
func (v Value) String() string {
	switch v.typ {
	case TypeList:
		return strings.Join(v.list, "\n")
	case TypeTable:
		if v.table == nil {
			return ""
		}
		return v.table.String()
	case TypeRecord:
		if v.record == nil {
			return ""
		}
		return v.record.Value
	}
	return v.text
}

// MarshalJSON encodes text as a string, lists as arrays, tables as objects
// in key order and records as objects.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.typ {
	case TypeList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case TypeTable:
		if v.table == nil {
			return []byte("{}"), nil
		}
		return v.table.MarshalJSON()
	case TypeRecord:
		return json.Marshal(v.record)
	}
	return json.Marshal(v.text)
}

// Field is a single table entry.
type Field struct {
	Name  string
	Value string
}

// Table is an ordered key/value mapping. Setting an existing key replaces
// its value without moving it.
type Table struct {
	fields []Field
	index  map[string]int
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Set stores value under name.
func (t *Table) Set(name, value string) {
	if i, ok := t.index[name]; ok {
		t.fields[i].Value = value
		return
	}
	t.index[name] = len(t.fields)
	t.fields = append(t.fields, Field{Name: name, Value: value})
}

// Get returns the value stored under name.
func (t *Table) Get(name string) (string, bool) {
	i, ok := t.index[name]
	if !ok {
		return "", false
	}
	return t.fields[i].Value, true
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.fields) }

// Fields returns the entries in insertion order.
func (t *Table) Fields() []Field {
	out := make([]Field, len(t.fields))
	copy(out, t.fields)
	return out
}

// Map returns the entries as a map.
func (t *Table) Map() map[string]string {
	m := make(map[string]string, len(t.fields))
	for _, f := range t.fields {
		m[f.Name] = f.Value
	}
	return m
}

// String renders one "name: value" line per entry.
func (t *Table) String() string {
	lines := make([]string, 0, len(t.fields))
	for _, f := range t.fields {
		lines = append(lines, f.Name+": "+f.Value)
	}
	return strings.Join(lines, "\n")
}

// MarshalJSON encodes the table as a JSON object preserving key order.
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range t.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
