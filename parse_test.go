package toml

import "testing"

func TestParse_BasicKeyValue(t *testing.T) {
	tbl, err := Parse([]byte(`name = "test"` + "\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s, ok := tbl.GetString("name")
	if !ok || s != "test" {
		t.Fatalf("GetString(name) = %q, %v", s, ok)
	}
}

func TestParse_DottedKeys(t *testing.T) {
	tbl, err := Parse([]byte("a.b.c = 1\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	v, ok := GetPath(tbl, "a.b.c")
	if !ok {
		t.Fatal("expected a.b.c to be present")
	}
	n, _ := v.AsInteger()
	if n != 1 {
		t.Fatalf("a.b.c = %d, want 1", n)
	}
}

func TestParse_TableHeaders(t *testing.T) {
	src := "[server]\nhost = \"localhost\"\nport = 8080\n"
	tbl, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	server, ok := tbl.GetTable("server")
	if !ok {
		t.Fatal("expected [server] table")
	}
	host, _ := server.GetString("host")
	if host != "localhost" {
		t.Fatalf("server.host = %q, want localhost", host)
	}
}

func TestParse_ArrayOfTables(t *testing.T) {
	src := `
[[products]]
name = "hammer"

[[products]]
name = "nail"
`
	tbl, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	arr, ok := tbl.GetArray("products")
	if !ok || len(arr) != 2 {
		t.Fatalf("products = %v (%v), want 2 elements", arr, ok)
	}
	p0, _ := arr[0].AsTable()
	name0, _ := p0.GetString("name")
	if name0 != "hammer" {
		t.Fatalf("products[0].name = %q, want hammer", name0)
	}
	p1, _ := arr[1].AsTable()
	name1, _ := p1.GetString("name")
	if name1 != "nail" {
		t.Fatalf("products[1].name = %q, want nail", name1)
	}
}

func TestParse_InlineTable(t *testing.T) {
	tbl, err := Parse([]byte(`point = { x = 1, y = 2 }` + "\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	point, ok := tbl.GetTable("point")
	if !ok {
		t.Fatal("expected point to be a table")
	}
	x, _ := point.GetInt("x")
	if x != 1 {
		t.Fatalf("point.x = %d, want 1", x)
	}
}

func TestParse_InlineTableNewlineIsInvalid(t *testing.T) {
	src := "point = { x = 1,\ny = 2 }\n"
	if _, err := Parse([]byte(src)); err == nil {
		t.Fatal("expected an error: inline tables cannot span multiple lines")
	}
}

func TestParse_DuplicateKeyIsInvalid(t *testing.T) {
	src := "name = \"a\"\nname = \"b\"\n"
	if _, err := Parse([]byte(src)); err == nil {
		t.Fatal("expected an error for a duplicate key")
	}
}

func TestParse_LeadingZeroIntegerIsInvalid(t *testing.T) {
	_, errCtx := ParseWithContext([]byte("num = 007\n"))
	if errCtx == nil {
		t.Fatal("expected an error: leading zeros are not allowed")
	}
	if errCtx.Kind != ErrInvalidValue {
		t.Fatalf("errCtx.Kind = %s, want InvalidValue", errCtx.Kind)
	}
}

func TestParse_BadUnderscorePlacementIsInvalid(t *testing.T) {
	_, errCtx := ParseWithContext([]byte("num = 1__2\n"))
	if errCtx == nil {
		t.Fatal("expected an error: doubled underscore in an integer")
	}
	if errCtx.Kind != ErrInvalidValue {
		t.Fatalf("errCtx.Kind = %s, want InvalidValue", errCtx.Kind)
	}
	if _, err := Parse([]byte("num = _12\n")); err == nil {
		t.Fatal("expected an error: leading underscore in an integer")
	}
}

func TestParse_IntegerOverflowIsInvalid(t *testing.T) {
	_, errCtx := ParseWithContext([]byte("num = 9223372036854775808\n"))
	if errCtx == nil {
		t.Fatal("expected an error: positive overflow of a signed 64-bit integer")
	}
	if errCtx.Kind != ErrInvalidValue {
		t.Fatalf("errCtx.Kind = %s, want InvalidValue", errCtx.Kind)
	}

	if _, err := Parse([]byte("num = -9223372036854775808\n")); err != nil {
		t.Fatalf("expected -9223372036854775808 (MinInt64) to parse, got %v", err)
	}
	if _, err := Parse([]byte("num = 9223372036854775807\n")); err != nil {
		t.Fatalf("expected 9223372036854775807 (MaxInt64) to parse, got %v", err)
	}

	_, errCtx = ParseWithContext([]byte("num = -9223372036854775809\n"))
	if errCtx == nil {
		t.Fatal("expected an error: negative overflow of a signed 64-bit integer")
	}
	if errCtx.Kind != ErrInvalidValue {
		t.Fatalf("errCtx.Kind = %s, want InvalidValue", errCtx.Kind)
	}
}

func TestParse_HexOctalBinaryIntegerIsInvalid(t *testing.T) {
	for _, src := range []string{"num = 0x1A\n", "num = 0o17\n", "num = 0b101\n"} {
		_, errCtx := ParseWithContext([]byte(src))
		if errCtx == nil {
			t.Fatalf("%q: expected an error, hex/octal/binary integers are not supported", src)
		}
		if errCtx.Kind != ErrInvalidValue {
			t.Fatalf("%q: errCtx.Kind = %s, want InvalidValue", src, errCtx.Kind)
		}
	}
}

func TestParse_UnderscoresInNumbers(t *testing.T) {
	tbl, err := Parse([]byte("num = 1_000_000\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	n, _ := tbl.GetInt("num")
	if n != 1000000 {
		t.Fatalf("num = %d, want 1000000", n)
	}
}

func TestParse_InvalidCalendarDayIsInvalid(t *testing.T) {
	for _, src := range []string{"d = 1979-02-30\n", "d = 1979-04-31\n", "d = 1979-02-29\n"} {
		_, errCtx := ParseWithContext([]byte(src))
		if errCtx == nil {
			t.Fatalf("%q: expected a date-out-of-range error", src)
		}
		if errCtx.Kind != ErrInvalidValue {
			t.Fatalf("%q: errCtx.Kind = %s, want InvalidValue", src, errCtx.Kind)
		}
	}
	if _, err := Parse([]byte("d = 1980-02-29\n")); err != nil {
		t.Fatalf("expected 1980-02-29 (leap year) to parse, got %v", err)
	}
}

func TestParse_OutOfRangeOffsetIsInvalid(t *testing.T) {
	_, errCtx := ParseWithContext([]byte("ts = 1979-05-27T00:32:00+24:00\n"))
	if errCtx == nil {
		t.Fatal("expected an error: offset of +24:00 is out of range")
	}
	if errCtx.Kind != ErrInvalidValue {
		t.Fatalf("errCtx.Kind = %s, want InvalidValue", errCtx.Kind)
	}
}

func TestParse_OffsetDatetime(t *testing.T) {
	tbl, err := Parse([]byte("ts = 1979-05-27T00:32:00-07:00\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	dt, ok := tbl.GetDatetime("ts")
	if !ok {
		t.Fatal("expected ts to be a datetime")
	}
	if !dt.HasOffset() || *dt.OffsetMinutes != -420 {
		t.Fatalf("ts offset = %v, want -420", dt.OffsetMinutes)
	}
	if dt.Hour != 0 || dt.Minute != 32 {
		t.Fatalf("ts time = %02d:%02d, want 00:32", dt.Hour, dt.Minute)
	}
}

func TestParse_LocalDatetimeHasNoOffset(t *testing.T) {
	tbl, err := Parse([]byte("ts = 1979-05-27T07:32:00\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	dt, _ := tbl.GetDatetime("ts")
	if dt.HasOffset() {
		t.Fatal("a local datetime should not have an offset")
	}
}

func TestParse_MultilineStringLineContinuation(t *testing.T) {
	src := "str = \"\"\"\nRoses are red \\\n\n  Violets are blue\"\"\"\n"
	tbl, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s, _ := tbl.GetString("str")
	if s != "Roses are red Violets are blue" {
		t.Fatalf("str = %q", s)
	}
}

func TestParse_LiteralStringNoEscapes(t *testing.T) {
	tbl, err := Parse([]byte(`path = 'C:\Users\nope'` + "\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s, _ := tbl.GetString("path")
	if s != `C:\Users\nope` {
		t.Fatalf("path = %q", s)
	}
}

func TestParse_Array(t *testing.T) {
	tbl, err := Parse([]byte("nums = [1, 2, 3]\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	arr, ok := tbl.GetArray("nums")
	if !ok || len(arr) != 3 {
		t.Fatalf("nums = %v, want 3 elements", arr)
	}
}

func TestParse_FloatSpecials(t *testing.T) {
	tbl, err := Parse([]byte("a = inf\nb = -inf\nc = nan\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	a, _ := tbl.GetFloat("a")
	if a != inf() {
		t.Fatalf("a = %v, want +Inf", a)
	}
	b, _ := tbl.GetFloat("b")
	if b != -inf() {
		t.Fatalf("b = %v, want -Inf", b)
	}
	c, _ := tbl.GetFloat("c")
	if c == c {
		t.Fatalf("c = %v, want NaN", c)
	}
}

func TestParseWithContext_ReportsPosition(t *testing.T) {
	_, errCtx := ParseWithContext([]byte("num = 007\n"))
	if errCtx == nil {
		t.Fatal("expected an ErrorContext")
	}
	if errCtx.Line != 1 {
		t.Fatalf("errCtx.Line = %d, want 1", errCtx.Line)
	}
	if errCtx.Hint == "" {
		t.Fatal("expected a non-empty hint")
	}
}
