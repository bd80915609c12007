package toml

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// BindTo decodes a Table into the struct pointed to by dst, using
// "toml" struct tags to resolve field names (a bare field name is
// used when no tag is present; a tag of "-" skips the field).
func BindTo(t *Table, dst any) error {
	if dst == nil {
		return errors.New("toml: cannot bind into a nil value")
	}
	val := reflect.ValueOf(dst)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return errors.New("toml: destination must be a non-nil pointer")
	}
	return bindStruct(val.Elem(), t)
}

// BindFrom encodes src, a struct or pointer to struct, into a new
// Table using the same "toml" tag rules as BindTo. A tag's
// ",omitempty" option skips zero-valued fields.
func BindFrom(src any) (*Table, error) {
	val := reflect.ValueOf(src)
	for val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return NewTable(), nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("toml: cannot bind %s into a table", val.Kind())
	}
	return structToTable(val)
}

type fieldTag struct {
	name      string
	omitempty bool
	skip      bool
}

func parseFieldTag(f reflect.StructField) fieldTag {
	raw, ok := f.Tag.Lookup("toml")
	if !ok {
		return fieldTag{name: f.Name}
	}
	if raw == "-" {
		return fieldTag{skip: true}
	}
	parts := strings.Split(raw, ",")
	ft := fieldTag{name: parts[0]}
	if ft.name == "" {
		ft.name = f.Name
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			ft.omitempty = true
		}
	}
	return ft
}

func bindStruct(dst reflect.Value, t *Table) error {
	if t == nil {
		return nil
	}
	structType := dst.Type()
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldVal := dst.Field(i)
		if !fieldVal.CanSet() {
			continue
		}
		tag := parseFieldTag(field)
		if tag.skip {
			continue
		}
		v := t.Get(tag.name)
		if v == nil {
			continue
		}
		if err := bindValue(fieldVal, v); err != nil {
			return fmt.Errorf("toml: field %s: %w", field.Name, err)
		}
	}
	return nil
}

func bindValue(dst reflect.Value, v *Value) error {
	if dst.Kind() == reflect.Ptr {
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return bindValue(dst.Elem(), v)
	}

	if dst.Type() == reflect.TypeOf(time.Time{}) {
		return bindTime(dst, v)
	}

	switch v.Kind() {
	case KindString:
		s, _ := v.AsString()
		if dst.Kind() != reflect.String {
			return fmt.Errorf("cannot assign string into %s", dst.Kind())
		}
		dst.SetString(s)
	case KindInteger:
		n, _ := v.AsInteger()
		switch dst.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			dst.SetInt(n)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			dst.SetUint(uint64(n))
		case reflect.Float32, reflect.Float64:
			dst.SetFloat(float64(n))
		default:
			return fmt.Errorf("cannot assign integer into %s", dst.Kind())
		}
	case KindFloat:
		f, _ := v.AsFloat()
		if dst.Kind() != reflect.Float32 && dst.Kind() != reflect.Float64 {
			return fmt.Errorf("cannot assign float into %s", dst.Kind())
		}
		dst.SetFloat(f)
	case KindBoolean:
		b, _ := v.AsBoolean()
		if dst.Kind() != reflect.Bool {
			return fmt.Errorf("cannot assign boolean into %s", dst.Kind())
		}
		dst.SetBool(b)
	case KindArray:
		return bindArray(dst, v)
	case KindTable:
		sub, _ := v.AsTable()
		if dst.Kind() == reflect.Map {
			return bindMap(dst, sub)
		}
		if dst.Kind() != reflect.Struct {
			return fmt.Errorf("cannot assign table into %s", dst.Kind())
		}
		return bindStruct(dst, sub)
	case KindDate, KindTime, KindDatetime:
		return bindTime(dst, v)
	default:
		return fmt.Errorf("unsupported value kind %s", v.Kind())
	}
	return nil
}

func bindTime(dst reflect.Value, v *Value) error {
	switch v.Kind() {
	case KindDatetime:
		dt, _ := v.AsDatetime()
		loc := time.UTC
		off := 0
		if dt.HasOffset() {
			off = *dt.OffsetMinutes
		}
		if off != 0 {
			loc = time.FixedZone("", off*60)
		}
		dst.Set(reflect.ValueOf(time.Date(dt.Year, time.Month(dt.Month), dt.Day, dt.Hour, dt.Minute, dt.Second, dt.Nanosecond, loc)))
	case KindDate:
		d, _ := v.AsDate()
		dst.Set(reflect.ValueOf(time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)))
	case KindTime:
		tm, _ := v.AsTime()
		dst.Set(reflect.ValueOf(time.Date(0, 1, 1, tm.Hour, tm.Minute, tm.Second, tm.Nanosecond, time.UTC)))
	default:
		return fmt.Errorf("cannot assign %s into time.Time", v.Kind())
	}
	return nil
}

func bindArray(dst reflect.Value, v *Value) error {
	elems, _ := v.AsArray()
	if dst.Kind() != reflect.Slice && dst.Kind() != reflect.Array {
		return fmt.Errorf("cannot assign array into %s", dst.Kind())
	}
	if dst.Kind() == reflect.Slice {
		dst.Set(reflect.MakeSlice(dst.Type(), len(elems), len(elems)))
	}
	for i, el := range elems {
		if i >= dst.Len() {
			break
		}
		if err := bindValue(dst.Index(i), el); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

func bindMap(dst reflect.Value, t *Table) error {
	if t == nil {
		return nil
	}
	if dst.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("map keys must be strings")
	}
	dst.Set(reflect.MakeMapWithSize(dst.Type(), t.Len()))
	elemType := dst.Type().Elem()
	for _, ent := range t.Entries() {
		ev := reflect.New(elemType).Elem()
		if err := bindValue(ev, ent.Value); err != nil {
			return fmt.Errorf("key %q: %w", ent.Key, err)
		}
		dst.SetMapIndex(reflect.ValueOf(ent.Key), ev)
	}
	return nil
}

func structToTable(src reflect.Value) (*Table, error) {
	t := NewTable()
	t.setExplicit()
	structType := src.Type()
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldVal := src.Field(i)
		if field.PkgPath != "" {
			continue // unexported
		}
		tag := parseFieldTag(field)
		if tag.skip {
			continue
		}
		if tag.omitempty && fieldVal.IsZero() {
			continue
		}
		v, err := valueFromReflect(fieldVal)
		if err != nil {
			return nil, fmt.Errorf("toml: field %s: %w", field.Name, err)
		}
		if v == nil {
			continue
		}
		t.set(tag.name, v)
	}
	return t, nil
}

func valueFromReflect(src reflect.Value) (*Value, error) {
	if src.Kind() == reflect.Ptr {
		if src.IsNil() {
			return nil, nil
		}
		return valueFromReflect(src.Elem())
	}
	if t, ok := src.Interface().(time.Time); ok {
		off := int(0)
		_, offsetSec := t.Zone()
		off = offsetSec / 60
		return NewDatetime(Datetime{
			Year: t.Year(), Month: int(t.Month()), Day: t.Day(),
			Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), Nanosecond: t.Nanosecond(),
			OffsetMinutes: &off,
		}), nil
	}

	switch src.Kind() {
	case reflect.String:
		return NewString(src.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NewInteger(src.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return NewInteger(int64(src.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return NewFloat(src.Float()), nil
	case reflect.Bool:
		return NewBoolean(src.Bool()), nil
	case reflect.Slice, reflect.Array:
		vals := make([]*Value, 0, src.Len())
		for i := 0; i < src.Len(); i++ {
			ev, err := valueFromReflect(src.Index(i))
			if err != nil {
				return nil, err
			}
			if ev != nil {
				vals = append(vals, ev)
			}
		}
		return NewArray(vals...), nil
	case reflect.Map:
		if src.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("map keys must be strings")
		}
		sub := NewTable()
		sub.setExplicit()
		iter := src.MapRange()
		for iter.Next() {
			ev, err := valueFromReflect(iter.Value())
			if err != nil {
				return nil, err
			}
			if ev != nil {
				sub.set(iter.Key().String(), ev)
			}
		}
		return NewTableValue(sub), nil
	case reflect.Struct:
		sub, err := structToTable(src)
		if err != nil {
			return nil, err
		}
		return NewTableValue(sub), nil
	default:
		return nil, fmt.Errorf("unsupported field kind %s", src.Kind())
	}
}
