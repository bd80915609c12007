package toml

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"

	"github.com/phenomenon0/Agent-GO/sjson"
)

// ErrNotJSONRepresentable is returned by ToJSON when the table
// contains a non-finite float (inf, -inf, or nan): JSON has no literal
// for these, and TOML's own grammar permits them (see DESIGN.md's
// resolution of this Open Question, grounded on json_bridge.go's
// analogous NaN/Infinity rejection).
var ErrNotJSONRepresentable = errors.New("toml: value is not representable in JSON")

// ToJSON converts a Table to JSON bytes via sjson, failing if any
// float in the tree is non-finite.
func ToJSON(t *Table) ([]byte, error) {
	sv, err := tableToSJSON(t)
	if err != nil {
		return nil, err
	}
	return sjson.ToJSON(sv)
}

// ToJSONIndent is ToJSON with the result pretty-printed at the given
// indent string. sjson has no pretty-printing mode of its own, so this
// reformats its compact output with the standard library's json.Indent
// rather than reimplementing a JSON pretty-printer.
func ToJSONIndent(t *Table, indent string) ([]byte, error) {
	compact, err := ToJSON(t)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", indent); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FromJSON parses JSON bytes into a Table. JSON objects become
// tables, JSON arrays become TOML arrays, and JSON numbers with a
// fractional part or exponent become floats; all others become
// integers.
func FromJSON(data []byte) (*Table, error) {
	sv, err := sjson.FromJSON(data)
	if err != nil {
		return nil, err
	}
	if sv.Type() != sjson.TypeObject {
		return nil, errors.New("toml: JSON root must be an object")
	}
	return sjsonToTable(sv), nil
}

func tableToSJSON(t *Table) (*sjson.Value, error) {
	entries := t.Entries()
	members := make([]sjson.Member, 0, len(entries))
	for _, ent := range entries {
		sv, err := valueToSJSON(ent.Value)
		if err != nil {
			return nil, err
		}
		members = append(members, sjson.Member{Key: ent.Key, Value: sv})
	}
	return sjson.Object(members...), nil
}

func valueToSJSON(v *Value) (*sjson.Value, error) {
	switch v.Kind() {
	case KindString:
		s, _ := v.AsString()
		return sjson.String(s), nil
	case KindInteger:
		n, _ := v.AsInteger()
		return sjson.Int64(n), nil
	case KindFloat:
		f, _ := v.AsFloat()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, ErrNotJSONRepresentable
		}
		return sjson.Float64(f), nil
	case KindBoolean:
		b, _ := v.AsBoolean()
		return sjson.Bool(b), nil
	case KindDate:
		d, _ := v.AsDate()
		return sjson.String(formatDate(d)), nil
	case KindTime:
		tm, _ := v.AsTime()
		return sjson.String(formatTime(tm)), nil
	case KindDatetime:
		dt, _ := v.AsDatetime()
		return sjson.String(formatDatetime(dt)), nil
	case KindArray:
		elems, _ := v.AsArray()
		items := make([]*sjson.Value, len(elems))
		for i, el := range elems {
			sv, err := valueToSJSON(el)
			if err != nil {
				return nil, err
			}
			items[i] = sv
		}
		return sjson.Array(items...), nil
	case KindTable:
		tbl, _ := v.AsTable()
		return tableToSJSON(tbl)
	default:
		return sjson.Null(), nil
	}
}

func sjsonToTable(sv *sjson.Value) *Table {
	t := NewTable()
	t.setExplicit()
	for _, m := range sv.Members() {
		t.set(m.Key, sjsonToValue(m.Value))
	}
	return t
}

func sjsonToValue(sv *sjson.Value) *Value {
	if sv == nil || sv.IsNull() {
		return NewString("")
	}
	switch sv.Type() {
	case sjson.TypeBool:
		return NewBoolean(sv.Bool())
	case sjson.TypeInt64:
		return NewInteger(sv.Int64())
	case sjson.TypeUint64:
		return NewInteger(int64(sv.Uint64()))
	case sjson.TypeFloat64:
		return NewFloat(sv.Float64())
	case sjson.TypeString:
		return NewString(sv.String())
	case sjson.TypeArray:
		items := sv.Array()
		vals := make([]*Value, len(items))
		for i, it := range items {
			vals[i] = sjsonToValue(it)
		}
		return NewArray(vals...)
	case sjson.TypeObject:
		return NewTableValue(sjsonToTable(sv))
	default:
		return NewString("")
	}
}
