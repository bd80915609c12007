// Package toml implements a TOML 1.0.0 processor: parsing textual TOML
// into an in-memory value tree, serializing that tree back to TOML or
// JSON, validating it against declarative schemas, and binding it to
// Go struct types.
//
// # Data Model
//
// Scalars: String, Integer, Float, Boolean, Datetime, Date, Time.
// Containers: Array, Table.
//
// # Pipeline
//
//	source bytes -> lexer -> parser -> *Table
//
// From the table, callers dispatch to Marshal (TOML text), ToJSON,
// Validate, or BindTo. All operations are synchronous and
// single-threaded; there is no shared mutable state.
//
// # Example
//
//	t, err := toml.Parse([]byte(`name = "example"` + "\n"))
//	if err != nil {
//		...
//	}
//	name, _ := t.GetString("name")
package toml
