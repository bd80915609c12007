package toml

import (
	"strings"
	"testing"
)

func TestToJSON_Basic(t *testing.T) {
	tbl, err := Parse([]byte("name = \"tom\"\nport = 8080\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := ToJSON(tbl)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	s := string(out)
	if !strings.Contains(s, `"name"`) || !strings.Contains(s, `"tom"`) {
		t.Fatalf("ToJSON output missing expected fields: %s", s)
	}
}

func TestToJSON_RejectsNonFiniteFloat(t *testing.T) {
	tbl, err := Parse([]byte("x = nan\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := ToJSON(tbl); err != ErrNotJSONRepresentable {
		t.Fatalf("ToJSON(nan) error = %v, want ErrNotJSONRepresentable", err)
	}
}

func TestToJSONIndent_Pretty(t *testing.T) {
	tbl, err := Parse([]byte("name = \"tom\"\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := ToJSONIndent(tbl, "  ")
	if err != nil {
		t.Fatalf("ToJSONIndent: %v", err)
	}
	if !strings.Contains(string(out), "\n  \"name\"") {
		t.Fatalf("ToJSONIndent output not indented: %s", out)
	}
}

func TestFromJSON_RoundTrip(t *testing.T) {
	tbl, err := FromJSON([]byte(`{"name":"tom","nums":[1,2,3]}`))
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	name, ok := tbl.GetString("name")
	if !ok || name != "tom" {
		t.Fatalf("name = %q, %v", name, ok)
	}
	arr, ok := tbl.GetArray("nums")
	if !ok || len(arr) != 3 {
		t.Fatalf("nums = %v", arr)
	}
}
