package toml

import "fmt"

// ValidationError describes one schema violation, located by a
// JSON-path-style dotted path into the table tree.
type ValidationError struct {
	Path    string
	Message string
	Pos     Position
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationResult collects every error found by a single Validate
// call; Valid is a convenience for len(Errors) == 0.
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// Validator checks a Table against a Schema. Pattern constraints are
// compiled lazily and cached across fields within a single validator.
type Validator struct {
	schema *Schema
	cache  *compiledPatternCache
	errors []ValidationError
}

// NewValidator returns a validator for schema.
func NewValidator(schema *Schema) *Validator {
	return &Validator{schema: schema, cache: newCompiledPatternCache()}
}

// Validate checks t against the validator's schema.
func (v *Validator) Validate(t *Table) *ValidationResult {
	v.errors = nil
	v.validateTable(t, "", v.schema)
	return &ValidationResult{Valid: len(v.errors) == 0, Errors: v.errors}
}

// ValidateWithSchema is a convenience one-shot form of NewValidator(schema).Validate(t).
func ValidateWithSchema(t *Table, schema *Schema) *ValidationResult {
	return NewValidator(schema).Validate(t)
}

func (v *Validator) validateTable(t *Table, path string, schema *Schema) {
	if schema == nil {
		return
	}
	for name, fs := range schema.Fields {
		val := t.Get(name)
		fieldPath := joinPath(path, name)
		if val == nil {
			if !fs.Optional {
				v.addError(fieldPath, "required field is missing")
			}
			continue
		}
		v.validateField(val, fieldPath, fs)
	}

	if schema.Open {
		return
	}
	for _, ent := range t.Entries() {
		if _, ok := schema.Fields[ent.Key]; !ok {
			v.addError(joinPath(path, ent.Key), "unknown field")
		}
	}
}

func (v *Validator) validateField(val *Value, path string, fs *FieldSchema) {
	if val.Kind() != fs.Kind {
		v.addError(path, fmt.Sprintf("expected %s, got %s", fs.Kind, val.Kind()))
		return
	}

	switch fs.Kind {
	case KindTable:
		sub, _ := val.AsTable()
		v.validateTable(sub, path, fs.Nested)
	case KindArray:
		elems, _ := val.AsArray()
		for i, el := range elems {
			elPath := fmt.Sprintf("%s[%d]", path, i)
			if fs.ElemKindSet && el.Kind() != fs.ElemKind {
				v.addError(elPath, fmt.Sprintf("expected %s, got %s", fs.ElemKind, el.Kind()))
				continue
			}
			if el.Kind() == KindTable && fs.Nested != nil {
				sub, _ := el.AsTable()
				v.validateTable(sub, elPath, fs.Nested)
			}
		}
	default:
		v.validateConstraints(val, path, fs.Constraints)
	}
}

func (v *Validator) validateConstraints(val *Value, path string, constraints []Constraint) {
	for _, c := range constraints {
		switch c.Kind {
		case ConstraintMin:
			if n, ok := numericValue(val); ok && n < c.Num {
				v.addError(path, fmt.Sprintf("value %v is below minimum %v", n, c.Num))
			}
		case ConstraintMax:
			if n, ok := numericValue(val); ok && n > c.Num {
				v.addError(path, fmt.Sprintf("value %v is above maximum %v", n, c.Num))
			}
		case ConstraintMinLen:
			if n, ok := lengthOf(val); ok && n < c.Int {
				v.addError(path, fmt.Sprintf("length %d is below minimum %d", n, c.Int))
			}
		case ConstraintMaxLen:
			if n, ok := lengthOf(val); ok && n > c.Int {
				v.addError(path, fmt.Sprintf("length %d is above maximum %d", n, c.Int))
			}
		case ConstraintPattern:
			s, ok := val.AsString()
			if !ok {
				continue
			}
			re, err := v.cache.get(c.Pattern)
			if err != nil {
				v.addError(path, fmt.Sprintf("invalid pattern %q: %s", c.Pattern, err))
				continue
			}
			if !re.MatchString(s) {
				v.addError(path, fmt.Sprintf("value %q does not match pattern %q", s, c.Pattern))
			}
		case ConstraintEnum:
			s, ok := val.AsString()
			if !ok {
				continue
			}
			if !containsString(c.Enum, s) {
				v.addError(path, fmt.Sprintf("value %q is not one of %v", s, c.Enum))
			}
		}
	}
}

func numericValue(val *Value) (float64, bool) {
	if i, ok := val.AsInteger(); ok {
		return float64(i), true
	}
	if f, ok := val.AsFloat(); ok {
		return f, true
	}
	return 0, false
}

func lengthOf(val *Value) (int, bool) {
	if s, ok := val.AsString(); ok {
		return len(s), true
	}
	if arr, ok := val.AsArray(); ok {
		return len(arr), true
	}
	return 0, false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}

func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}
