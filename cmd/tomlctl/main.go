// tomlctl - TOML processor CLI tool
//
// Usage:
//
//	tomlctl parse [file]              Parse TOML and print it back out, canonicalized
//	tomlctl to-json [file]            Convert TOML to JSON
//	tomlctl from-json [file]          Convert JSON to TOML
//	tomlctl validate --schema=F [file]  Validate TOML against the field names listed in F
//	tomlctl version                   Print version info
//
// If no file is given, reads from stdin.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	toml "github.com/inkwell-data/toml"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var input io.Reader = os.Stdin
	schemaFile := ""
	fileArg := ""

	for _, arg := range os.Args[2:] {
		switch {
		case strings.HasPrefix(arg, "--schema="):
			schemaFile = strings.TrimPrefix(arg, "--schema=")
		case arg == "-":
			// stdin, already the default
		default:
			fileArg = arg
		}
	}

	if fileArg != "" {
		f, err := os.Open(fileArg)
		if err != nil {
			fatal("open file: %v", err)
		}
		defer f.Close()
		input = f
	}

	switch cmd {
	case "parse", "fmt":
		cmdParse(input)
	case "to-json":
		cmdToJSON(input)
	case "from-json":
		cmdFromJSON(input)
	case "validate":
		cmdValidate(input, schemaFile)
	case "version", "-v", "--version":
		fmt.Printf("tomlctl %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `tomlctl - TOML processor CLI tool

Usage:
  tomlctl parse [file]                Parse TOML and re-emit it, canonicalized
  tomlctl to-json [file]              Convert TOML to JSON
  tomlctl from-json [file]            Convert JSON to TOML
  tomlctl validate --schema=F [file]  Validate TOML using schema fields declared in F
  tomlctl version                     Print version info

If no file is given, reads from stdin.

Examples:
  tomlctl parse config.toml
  cat config.toml | tomlctl to-json
  tomlctl from-json < data.json > data.toml
`)
}

func cmdParse(r io.Reader) {
	data, err := io.ReadAll(r)
	if err != nil {
		fatal("read input: %v", err)
	}
	t, errCtx := toml.ParseWithContext(data)
	if errCtx != nil {
		fatal("parse: %s", errCtx.Error())
	}
	out, err := toml.Marshal(t)
	if err != nil {
		fatal("emit: %v", err)
	}
	os.Stdout.Write(out)
}

func cmdToJSON(r io.Reader) {
	data, err := io.ReadAll(r)
	if err != nil {
		fatal("read input: %v", err)
	}
	t, errCtx := toml.ParseWithContext(data)
	if errCtx != nil {
		fatal("parse: %s", errCtx.Error())
	}
	out, err := toml.ToJSON(t)
	if err != nil {
		fatal("convert to JSON: %v", err)
	}
	fmt.Println(string(out))
}

func cmdFromJSON(r io.Reader) {
	data, err := io.ReadAll(r)
	if err != nil {
		fatal("read input: %v", err)
	}
	t, err := toml.FromJSON(data)
	if err != nil {
		fatal("parse JSON: %v", err)
	}
	out, err := toml.Marshal(t)
	if err != nil {
		fatal("emit: %v", err)
	}
	os.Stdout.Write(out)
}

// cmdValidate applies a minimal schema descriptor: one bare key per
// line naming a required top-level string field. The schema is closed,
// so any top-level key not listed is reported as unknown. This gives the CLI a smoke
// test for Validate without inventing a second schema file format;
// programmatic callers build a *toml.Schema directly.
func cmdValidate(r io.Reader, schemaFile string) {
	if schemaFile == "" {
		fatal("validate: --schema=FILE is required")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		fatal("read input: %v", err)
	}
	t, errCtx := toml.ParseWithContext(data)
	if errCtx != nil {
		fatal("parse: %s", errCtx.Error())
	}

	spec, err := os.ReadFile(schemaFile)
	if err != nil {
		fatal("read schema: %v", err)
	}
	schema := toml.NewSchema()
	for _, line := range strings.Split(string(spec), "\n") {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		schema.Field(name, &toml.FieldSchema{Kind: toml.KindString, Optional: false})
	}

	result := toml.ValidateWithSchema(t, schema)
	if !result.Valid {
		for _, e := range result.Errors {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		os.Exit(1)
	}
	fmt.Println("valid")
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "tomlctl: "+format+"\n", args...)
	os.Exit(1)
}
