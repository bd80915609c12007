package toml

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// EmitOptions configures TOML text serialization.
type EmitOptions struct {
	// Indent is written once per nesting level before array-of-table
	// and sub-table entries that the emitter chooses to indent. TOML
	// itself is whitespace-insensitive outside strings, so this only
	// affects cosmetics.
	Indent string

	// UseTabs writes tab characters instead of Indent's spaces.
	UseTabs bool

	// SortKeys emits each table's keys in sorted order rather than
	// insertion order.
	SortKeys bool

	// BlankLineBeforeTables inserts a blank line before each
	// "[table]" or "[[array-of-tables]]" header except the first.
	BlankLineBeforeTables bool
}

// DefaultEmitOptions returns the common case: insertion order, a
// blank line between top-level tables, two-space indents.
func DefaultEmitOptions() EmitOptions {
	return EmitOptions{Indent: "  ", BlankLineBeforeTables: true}
}

// CompactEmitOptions returns options for minimal, machine-oriented
// output: no blank lines, sorted keys for determinism.
func CompactEmitOptions() EmitOptions {
	return EmitOptions{SortKeys: true}
}

// Marshal serializes a Table to TOML text using DefaultEmitOptions.
func Marshal(t *Table) ([]byte, error) {
	return MarshalWithOptions(t, DefaultEmitOptions())
}

// MarshalWithOptions serializes a Table to TOML text under opts.
func MarshalWithOptions(t *Table, opts EmitOptions) ([]byte, error) {
	e := &emitter{opts: opts}
	if err := e.emitRootTable(t); err != nil {
		return nil, err
	}
	return []byte(e.sb.String()), nil
}

type emitter struct {
	sb       strings.Builder
	opts     EmitOptions
	wroteAny bool
}

// emitRootTable performs a three-pass emission: scalars and inline containers
// first (the implicit top-level table body), then nested tables as
// "[path]" headers, then arrays of tables as "[[path]]" headers. Each
// pass recurses into sub-tables under an extended dotted path.
func (e *emitter) emitRootTable(t *Table) error {
	return e.emitTableBody(t, nil)
}

func (e *emitter) emitTableBody(t *Table, path []string) error {
	entries := e.orderedEntries(t)
	depth := len(path)

	for _, ent := range entries {
		if isOpenSubTable(ent.Value) || isArrayOfTables(ent.Value) {
			continue
		}
		e.writeIndent(depth)
		e.writeKey(ent.Key)
		e.sb.WriteString(" = ")
		if err := e.emitValue(ent.Value); err != nil {
			return err
		}
		e.sb.WriteByte('\n')
	}

	for _, ent := range entries {
		if !isOpenSubTable(ent.Value) {
			continue
		}
		sub, _ := ent.Value.AsTable()
		subPath := append(append([]string{}, path...), ent.Key)
		e.emitSectionHeader(subPath, false, depth)
		if err := e.emitTableBody(sub, subPath); err != nil {
			return err
		}
	}

	for _, ent := range entries {
		if !isArrayOfTables(ent.Value) {
			continue
		}
		arr, _ := ent.Value.AsArray()
		subPath := append(append([]string{}, path...), ent.Key)
		for _, elemVal := range arr {
			elem, _ := elemVal.AsTable()
			e.emitSectionHeader(subPath, true, depth)
			if err := e.emitTableBody(elem, subPath); err != nil {
				return err
			}
		}
	}
	return nil
}

// indentUnit returns the single-level indent string: a tab under
// UseTabs, otherwise Indent verbatim (empty for no indentation at all,
// as CompactEmitOptions wants).
func (e *emitter) indentUnit() string {
	if e.opts.UseTabs {
		return "\t"
	}
	return e.opts.Indent
}

func (e *emitter) writeIndent(depth int) {
	unit := e.indentUnit()
	if unit == "" {
		return
	}
	for i := 0; i < depth; i++ {
		e.sb.WriteString(unit)
	}
}

func (e *emitter) emitSectionHeader(path []string, arrayOfTables bool, depth int) {
	if e.opts.BlankLineBeforeTables && e.wroteAny {
		e.sb.WriteByte('\n')
	}
	e.wroteAny = true

	e.writeIndent(depth)
	if arrayOfTables {
		e.sb.WriteString("[[")
	} else {
		e.sb.WriteString("[")
	}
	for i, seg := range path {
		if i > 0 {
			e.sb.WriteByte('.')
		}
		e.writeKey(seg)
	}
	if arrayOfTables {
		e.sb.WriteString("]]\n")
	} else {
		e.sb.WriteString("]\n")
	}
}

func (e *emitter) orderedEntries(t *Table) []Entry {
	entries := append([]Entry{}, t.Entries()...)
	if e.opts.SortKeys {
		sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	}
	return entries
}

// isOpenSubTable reports whether v is a table entered via [header]
// syntax rather than an inline-table literal: only these get their
// own "[path]" section rather than being emitted as "key = { ... }".
func isOpenSubTable(v *Value) bool {
	tbl, ok := v.AsTable()
	if !ok {
		return false
	}
	return !tbl.Closed()
}

func isArrayOfTables(v *Value) bool {
	arr, ok := v.AsArray()
	if !ok || len(arr) == 0 {
		return false
	}
	_, ok = arr[0].AsTable()
	return ok
}

func (e *emitter) writeKey(key string) {
	if isBareKey(key) {
		e.sb.WriteString(key)
		return
	}
	e.sb.WriteString(quoteBasicString(key))
}

func (e *emitter) emitValue(v *Value) error {
	switch v.Kind() {
	case KindString:
		s, _ := v.AsString()
		e.sb.WriteString(quoteBasicString(s))
	case KindInteger:
		n, _ := v.AsInteger()
		e.sb.WriteString(strconv.FormatInt(n, 10))
	case KindFloat:
		f, _ := v.AsFloat()
		e.sb.WriteString(formatFloat(f))
	case KindBoolean:
		b, _ := v.AsBoolean()
		e.sb.WriteString(strconv.FormatBool(b))
	case KindDate:
		d, _ := v.AsDate()
		e.sb.WriteString(formatDate(d))
	case KindTime:
		t, _ := v.AsTime()
		e.sb.WriteString(formatTime(t))
	case KindDatetime:
		dt, _ := v.AsDatetime()
		e.sb.WriteString(formatDatetime(dt))
	case KindArray:
		return e.emitArray(v)
	case KindTable:
		return e.emitInlineTable(v)
	default:
		return fmt.Errorf("toml: cannot emit value of kind %s", v.Kind())
	}
	return nil
}

func (e *emitter) emitArray(v *Value) error {
	elems, _ := v.AsArray()
	e.sb.WriteByte('[')
	for i, el := range elems {
		if i > 0 {
			e.sb.WriteString(", ")
		}
		if err := e.emitValue(el); err != nil {
			return err
		}
	}
	e.sb.WriteByte(']')
	return nil
}

func (e *emitter) emitInlineTable(v *Value) error {
	tbl, _ := v.AsTable()
	e.sb.WriteString("{ ")
	entries := e.orderedEntries(tbl)
	for i, ent := range entries {
		if i > 0 {
			e.sb.WriteString(", ")
		}
		e.writeKey(ent.Key)
		e.sb.WriteString(" = ")
		if err := e.emitValue(ent.Value); err != nil {
			return err
		}
	}
	e.sb.WriteString(" }")
	return nil
}

// formatFloat renders a float per TOML's grammar: a finite value always
// carries a decimal point or an exponent (so "1.0" or "1e+21", never
// bare "1"), and non-finite values use the bare inf/nan keywords.
func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return "nan"
	}
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func formatDate(d Date) string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func formatTime(t Time) string {
	base := fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	if t.Nanosecond == 0 {
		return base
	}
	return base + formatFraction(t.Nanosecond)
}

// formatDatetime renders an offset date-time with its stored offset,
// or a local date-time with no trailing "Z" when OffsetMinutes is nil
// (see DESIGN.md's resolution of the local-datetime round-trip
// question).
func formatDatetime(dt Datetime) string {
	base := fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d", dt.Year, dt.Month, dt.Day, dt.Hour, dt.Minute, dt.Second)
	if dt.Nanosecond != 0 {
		base += formatFraction(dt.Nanosecond)
	}
	if dt.OffsetMinutes == nil {
		return base
	}
	off := *dt.OffsetMinutes
	if off == 0 {
		return base + "Z"
	}
	sign := "+"
	if off < 0 {
		sign = "-"
		off = -off
	}
	return fmt.Sprintf("%s%s%02d:%02d", base, sign, off/60, off%60)
}

func formatFraction(ns int) string {
	s := fmt.Sprintf("%09d", ns)
	s = strings.TrimRight(s, "0")
	if s == "" {
		return ""
	}
	return "." + s
}

// quoteBasicString renders s as a double-quoted TOML basic string,
// escaping control characters, backslashes, and quotes.
func quoteBasicString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&sb, `\u%04X`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
