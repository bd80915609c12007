package toml

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Parser turns a TokenStream into a root Table, tracking the "current
// table" pointer that TOML's [header] and dotted-key syntax mutate as
// parsing proceeds.
type Parser struct {
	src    string
	stream *TokenStream

	root    *Table
	current *Table // table that bare key = value lines write into
}

// Parse parses TOML source into a root Table.
func Parse(data []byte) (*Table, error) {
	t, errCtx := ParseWithContext(data)
	if errCtx != nil {
		return nil, errCtx
	}
	return t, nil
}

// ParseWithContext parses TOML source, returning a rich ErrorContext
// (source line, hint) on failure instead of a bare error.
func ParseWithContext(data []byte) (*Table, *ErrorContext) {
	src := string(data)
	lexer := NewLexer(src)
	toks, err := lexer.Tokenize()
	if err != nil {
		if le, ok := err.(*LexError); ok {
			return nil, newErrorContext(le.Kind, le.Pos, src, le.Message)
		}
		return nil, newErrorContext(ErrUnexpectedCharacter, Position{Line: 1, Column: 1}, src, err.Error())
	}

	root := NewTable()
	root.setExplicit()
	p := &Parser{
		src:     src,
		stream:  NewTokenStream(toks),
		root:    root,
		current: root,
	}

	if errCtx := p.parseDocument(); errCtx != nil {
		return nil, errCtx
	}
	return root, nil
}

func (p *Parser) errAt(kind ErrorKind, pos Position, format string, args ...any) *ErrorContext {
	return newErrorContext(kind, pos, p.src, fmt.Sprintf(format, args...))
}

func (p *Parser) parseDocument() *ErrorContext {
	for {
		p.skipNewlines()
		tok := p.stream.Peek()
		if tok.Kind == TokEOF {
			return nil
		}
		if tok.Kind == TokLBracket {
			if err := p.parseTableHeader(); err != nil {
				return err
			}
			continue
		}
		if err := p.parseKeyValueLine(); err != nil {
			return err
		}
	}
}

func (p *Parser) skipNewlines() {
	for p.stream.Peek().Kind == TokNewline {
		p.stream.Advance()
	}
}

// parseTableHeader handles both "[a.b.c]" and "[[a.b.c]]" headers.
func (p *Parser) parseTableHeader() *ErrorContext {
	startPos := p.stream.Peek().Pos
	p.stream.Advance() // consume first '['

	arrayOfTables := false
	if p.stream.Peek().Kind == TokLBracket {
		arrayOfTables = true
		p.stream.Advance()
	}

	keys, err := p.parseDottedKeyPath()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return p.errAt(ErrInvalidTable, startPos, "table header must name at least one key")
	}

	if !p.stream.Match(TokRBracket) {
		return p.errAt(ErrUnexpectedToken, p.stream.Peek().Pos, "expected ']' to close table header")
	}
	if arrayOfTables {
		if !p.stream.Match(TokRBracket) {
			return p.errAt(ErrUnexpectedToken, p.stream.Peek().Pos, "expected ']]' to close array-of-tables header")
		}
	}
	if !p.expectLineEnd() {
		return p.errAt(ErrUnexpectedToken, p.stream.Peek().Pos, "expected newline after table header")
	}

	if arrayOfTables {
		tbl, err := p.openArrayOfTablesElement(keys, startPos)
		if err != nil {
			return err
		}
		p.current = tbl
		return nil
	}

	tbl, err := p.openTableHeader(keys, startPos)
	if err != nil {
		return err
	}
	p.current = tbl
	return nil
}

// openTableHeader walks/creates the dotted key path from root,
// enforcing that intermediate tables are not already closed and that
// the final table has not already been explicitly opened.
func (p *Parser) openTableHeader(keys []string, pos Position) (*Table, *ErrorContext) {
	cur := p.root
	for i, k := range keys {
		last := i == len(keys)-1
		existing := cur.Get(k)
		if existing == nil {
			nt := NewTable()
			cur.set(k, NewTableValue(nt).setPos(pos))
			if last {
				nt.setExplicit()
			}
			cur = nt
			continue
		}
		if last {
			// Array-of-tables target: extend into its last element.
			if arr, ok := existing.AsArray(); ok {
				lastVal := arr[len(arr)-1]
				sub, ok := lastVal.AsTable()
				if !ok {
					return nil, p.errAt(ErrDuplicateKey, pos, "key %q is not a table", k)
				}
				return sub, nil
			}
			nt, ok := existing.AsTable()
			if !ok {
				return nil, p.errAt(ErrDuplicateKey, pos, "key %q is already defined and is not a table", k)
			}
			if nt.Explicit() || nt.Closed() {
				return nil, p.errAt(ErrDuplicateKey, pos, "table %q is already defined", k)
			}
			nt.setExplicit()
			return nt, nil
		}
		if arr, ok := existing.AsArray(); ok {
			lastVal := arr[len(arr)-1]
			sub, ok := lastVal.AsTable()
			if !ok {
				return nil, p.errAt(ErrInvalidTable, pos, "key %q is not a table", k)
			}
			cur = sub
			continue
		}
		nt, ok := existing.AsTable()
		if !ok {
			return nil, p.errAt(ErrInvalidTable, pos, "key %q is not a table", k)
		}
		if nt.Closed() {
			return nil, p.errAt(ErrInvalidTable, pos, "key %q is closed and cannot be extended", k)
		}
		cur = nt
	}
	return cur, nil
}

// openArrayOfTablesElement walks to the parent of the final key,
// appends a new element table to the (possibly newly created) array
// at that key, and returns the new element.
func (p *Parser) openArrayOfTablesElement(keys []string, pos Position) (*Table, *ErrorContext) {
	cur := p.root
	for _, k := range keys[:len(keys)-1] {
		existing := cur.Get(k)
		if existing == nil {
			nt := NewTable()
			cur.set(k, NewTableValue(nt).setPos(pos))
			cur = nt
			continue
		}
		if arr, ok := existing.AsArray(); ok {
			sub, ok := arr[len(arr)-1].AsTable()
			if !ok {
				return nil, p.errAt(ErrInvalidTable, pos, "key %q is not a table", k)
			}
			cur = sub
			continue
		}
		nt, ok := existing.AsTable()
		if !ok {
			return nil, p.errAt(ErrInvalidTable, pos, "key %q is not a table", k)
		}
		if nt.Closed() {
			return nil, p.errAt(ErrInvalidTable, pos, "key %q is closed and cannot be extended", k)
		}
		cur = nt
	}

	last := keys[len(keys)-1]
	existing := cur.Get(last)
	elem := NewTable()
	elem.setExplicit()

	if existing == nil {
		cur.set(last, NewArray(NewTableValue(elem).setPos(pos)).setPos(pos))
		return elem, nil
	}
	arr, ok := existing.AsArray()
	if !ok {
		return nil, p.errAt(ErrDuplicateKey, pos, "key %q is already defined and is not an array of tables", last)
	}
	arr = append(arr, NewTableValue(elem).setPos(pos))
	cur.set(last, NewArray(arr...).setPos(pos))
	return elem, nil
}

// parseKeyValueLine parses "dotted.key = value" and writes it into
// p.current, creating intermediate dotted-key tables as needed.
func (p *Parser) parseKeyValueLine() *ErrorContext {
	keys, err := p.parseDottedKeyPath()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		tok := p.stream.Peek()
		return p.errAt(ErrUnexpectedToken, tok.Pos, "expected a key, got %s", tok.Kind)
	}
	if !p.stream.Match(TokEquals) {
		return p.errAt(ErrUnexpectedToken, p.stream.Peek().Pos, "expected '=' after key")
	}

	valTok := p.stream.Peek()
	val, err := p.parseValueExpr()
	if err != nil {
		return err
	}

	if err := p.assignDotted(p.current, keys, val, valTok.Pos); err != nil {
		return err
	}

	if !p.expectLineEnd() {
		return p.errAt(ErrUnexpectedToken, p.stream.Peek().Pos, "expected newline after value")
	}
	return nil
}

// assignDotted writes val at the end of a dotted key path rooted at
// tbl, creating (but not marking explicit) intermediate tables, and
// rejecting writes into closed or already-defined leaves.
func (p *Parser) assignDotted(tbl *Table, keys []string, val *Value, pos Position) *ErrorContext {
	cur := tbl
	for _, k := range keys[:len(keys)-1] {
		existing := cur.Get(k)
		if existing == nil {
			nt := NewTable()
			cur.set(k, NewTableValue(nt).setPos(pos))
			cur = nt
			continue
		}
		nt, ok := existing.AsTable()
		if !ok {
			return p.errAt(ErrDuplicateKey, pos, "key %q is already defined and is not a table", k)
		}
		if nt.Closed() {
			return p.errAt(ErrDuplicateKey, pos, "key %q is closed and cannot be extended", k)
		}
		cur = nt
	}
	last := keys[len(keys)-1]
	if cur.Has(last) {
		return p.errAt(ErrDuplicateKey, pos, "key %q is already defined", last)
	}
	cur.set(last, val)
	return nil
}

// parseDottedKeyPath reads a sequence of (possibly quoted) keys joined
// by '.', stopping before '=' or ']'.
func (p *Parser) parseDottedKeyPath() ([]string, *ErrorContext) {
	var keys []string
	for {
		tok := p.stream.Peek()
		key, ok, err := p.parseSingleKey(tok)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		p.stream.Advance()
		keys = append(keys, key)
		if p.stream.Peek().Kind != TokDot {
			break
		}
		p.stream.Advance()
	}
	return keys, nil
}

func (p *Parser) parseSingleKey(tok Token) (string, bool, *ErrorContext) {
	switch tok.Kind {
	case TokIdentifier:
		return tok.Value, true, nil
	case TokInteger:
		// Bare keys made entirely of digits lex as integers; treat the
		// raw lexeme as the key text.
		return tok.Value, true, nil
	case TokBoolean:
		return tok.Value, true, nil
	case TokString:
		if tok.Multi {
			return "", false, p.errAt(ErrInvalidTable, tok.Pos, "multiline strings cannot be used as keys")
		}
		s, err := p.decodeStringToken(tok)
		if err != nil {
			return "", false, err
		}
		return s, true, nil
	default:
		return "", false, nil
	}
}

// parseValueExpr dispatches on the current token to parse one TOML
// value: string, integer, float, boolean, datetime, array, or inline
// table.
func (p *Parser) parseValueExpr() (*Value, *ErrorContext) {
	tok := p.stream.Peek()
	switch tok.Kind {
	case TokString:
		p.stream.Advance()
		s, err := p.decodeStringToken(tok)
		if err != nil {
			return nil, err
		}
		return NewString(s).setPos(tok.Pos), nil
	case TokInteger:
		p.stream.Advance()
		return p.parseIntegerLiteral(tok)
	case TokFloat:
		p.stream.Advance()
		return p.parseFloatLiteral(tok)
	case TokBoolean:
		p.stream.Advance()
		return NewBoolean(tok.Value == "true").setPos(tok.Pos), nil
	case TokDatetime:
		p.stream.Advance()
		return p.parseDatetimeLiteral(tok)
	case TokLBracket:
		return p.parseArrayExpr()
	case TokLBrace:
		return p.parseInlineTableExpr()
	default:
		return nil, p.errAt(ErrInvalidValue, tok.Pos, "unexpected token %s where a value was expected", tok.Kind)
	}
}

// signedInt64Bound is 2^63, the magnitude one past int64's most negative
// value; a negative literal may reach exactly this magnitude (MinInt64),
// a positive one may not.
const signedInt64Bound uint64 = 1 << 63

func (p *Parser) parseIntegerLiteral(tok Token) (*Value, *ErrorContext) {
	raw := tok.Value
	neg := false
	body := raw
	if len(body) > 0 && (body[0] == '+' || body[0] == '-') {
		neg = body[0] == '-'
		body = body[1:]
	}

	// This dialect has no hex/octal/binary integer syntax: reject the
	// prefix explicitly rather than letting it fall through to base-10
	// parsing.
	if hasRadixPrefix(body) {
		return nil, p.errAt(ErrInvalidValue, tok.Pos, "hex/octal/binary integers are not supported: %q", raw)
	}

	if len(body) > 1 && body[0] == '0' {
		return nil, p.errAt(ErrInvalidValue, tok.Pos, "leading zeros are not allowed: %q", raw)
	}

	if err := checkUnderscores(body); err != nil {
		return nil, p.errAt(ErrInvalidValue, tok.Pos, "%s in %q", err.Error(), raw)
	}
	clean := strings.ReplaceAll(body, "_", "")

	n, perr := strconv.ParseUint(clean, 10, 64)
	if perr != nil {
		if ne, ok := perr.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return nil, p.errAt(ErrInvalidValue, tok.Pos, "integer literal %q overflows a signed 64-bit integer", raw)
		}
		return nil, p.errAt(ErrNumberFormat, tok.Pos, "invalid integer literal %q", raw)
	}

	var iv int64
	if neg {
		if n > signedInt64Bound {
			return nil, p.errAt(ErrInvalidValue, tok.Pos, "integer literal %q overflows a signed 64-bit integer", raw)
		}
		if n == signedInt64Bound {
			iv = math.MinInt64
		} else {
			iv = -int64(n)
		}
	} else {
		if n >= signedInt64Bound {
			return nil, p.errAt(ErrInvalidValue, tok.Pos, "integer literal %q overflows a signed 64-bit integer", raw)
		}
		iv = int64(n)
	}
	return NewInteger(iv).setPos(tok.Pos), nil
}

// hasRadixPrefix reports whether s (already stripped of a leading sign)
// starts with a 0x/0o/0b radix marker.
func hasRadixPrefix(s string) bool {
	if len(s) < 2 || s[0] != '0' {
		return false
	}
	switch s[1] {
	case 'x', 'X', 'o', 'O', 'b', 'B':
		return true
	default:
		return false
	}
}

func (p *Parser) parseFloatLiteral(tok Token) (*Value, *ErrorContext) {
	raw := tok.Value
	unsigned := raw
	sign := 1.0
	if len(unsigned) > 0 && (unsigned[0] == '+' || unsigned[0] == '-') {
		if unsigned[0] == '-' {
			sign = -1.0
		}
		unsigned = unsigned[1:]
	}
	if unsigned == "inf" {
		return NewFloat(sign * inf()).setPos(tok.Pos), nil
	}
	if unsigned == "nan" {
		return NewFloat(nan()).setPos(tok.Pos), nil
	}

	intPart := unsigned
	if idx := strings.IndexAny(unsigned, ".eE"); idx >= 0 {
		intPart = unsigned[:idx]
	}
	if len(intPart) > 1 && intPart[0] == '0' {
		return nil, p.errAt(ErrInvalidValue, tok.Pos, "leading zeros are not allowed: %q", raw)
	}
	if err := checkUnderscores(unsigned); err != nil {
		return nil, p.errAt(ErrInvalidValue, tok.Pos, "%s in %q", err.Error(), raw)
	}

	clean := strings.ReplaceAll(raw, "_", "")
	f, perr := strconv.ParseFloat(clean, 64)
	if perr != nil {
		return nil, p.errAt(ErrNumberFormat, tok.Pos, "invalid float literal %q", raw)
	}
	return NewFloat(f).setPos(tok.Pos), nil
}

// checkUnderscores enforces that '_' only ever sits between two
// digits, never leading, trailing, or doubled.
func checkUnderscores(s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] != '_' {
			continue
		}
		if i == 0 || i == len(s)-1 || !isDigit(s[i-1]) || !isDigit(s[i+1]) {
			return fmt.Errorf("underscore must be between two digits")
		}
	}
	return nil
}

func (p *Parser) parseDatetimeLiteral(tok Token) (*Value, *ErrorContext) {
	v, err := parseDatetimeLexeme(tok.Value)
	if err != nil {
		return nil, p.errAt(ErrInvalidValue, tok.Pos, "%s", err.Error())
	}
	return v.setPos(tok.Pos), nil
}

func (p *Parser) parseArrayExpr() (*Value, *ErrorContext) {
	start := p.stream.Peek().Pos
	p.stream.Advance() // '['
	var elems []*Value

	for {
		p.skipArrayWhitespace()
		if p.stream.Peek().Kind == TokRBracket {
			p.stream.Advance()
			return NewArray(elems...).setPos(start), nil
		}
		val, err := p.parseValueExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, val)
		p.skipArrayWhitespace()

		tok := p.stream.Peek()
		if tok.Kind == TokComma {
			p.stream.Advance()
			continue
		}
		if tok.Kind == TokRBracket {
			p.stream.Advance()
			return NewArray(elems...).setPos(start), nil
		}
		return nil, p.errAt(ErrInvalidArray, tok.Pos, "expected ',' or ']' in array")
	}
}

func (p *Parser) skipArrayWhitespace() {
	for p.stream.Peek().Kind == TokNewline {
		p.stream.Advance()
	}
}

// parseInlineTableExpr parses "{ k = v, ... }". Per TOML 1.0.0, inline
// tables must appear on a single logical line: newlines inside are a
// syntax error (see DESIGN.md open-question resolution).
func (p *Parser) parseInlineTableExpr() (*Value, *ErrorContext) {
	start := p.stream.Peek().Pos
	p.stream.Advance() // '{'
	tbl := NewTable()
	tbl.setExplicit()
	tbl.setClosed()

	if p.stream.Peek().Kind == TokRBrace {
		p.stream.Advance()
		return NewTableValue(tbl).setPos(start), nil
	}

	for {
		keys, err := p.parseDottedKeyPath()
		if err != nil {
			return nil, err
		}
		if len(keys) == 0 {
			return nil, p.errAt(ErrUnexpectedToken, p.stream.Peek().Pos, "expected a key in inline table")
		}
		if !p.stream.Match(TokEquals) {
			return nil, p.errAt(ErrUnexpectedToken, p.stream.Peek().Pos, "expected '=' in inline table")
		}
		val, err := p.parseValueExpr()
		if err != nil {
			return nil, err
		}
		if err := p.assignDotted(tbl, keys, val, start); err != nil {
			return nil, err
		}

		tok := p.stream.Peek()
		if tok.Kind == TokNewline {
			return nil, p.errAt(ErrUnexpectedToken, tok.Pos, "inline tables cannot span multiple lines")
		}
		if tok.Kind == TokComma {
			p.stream.Advance()
			continue
		}
		if tok.Kind == TokRBrace {
			p.stream.Advance()
			return NewTableValue(tbl).setPos(start), nil
		}
		return nil, p.errAt(ErrUnexpectedToken, tok.Pos, "expected ',' or '}' in inline table")
	}
}

// expectLineEnd consumes a single trailing newline or confirms EOF;
// it does not consume more than one, so blank lines are handled by
// parseDocument's own skipNewlines loop.
func (p *Parser) expectLineEnd() bool {
	tok := p.stream.Peek()
	if tok.Kind == TokEOF {
		return true
	}
	if tok.Kind == TokNewline {
		p.stream.Advance()
		return true
	}
	return false
}

// decodeStringToken turns a raw lexed string body into its decoded
// value: literal strings pass through unchanged; basic strings get
// escape processing; multiline strings additionally strip a leading
// newline and collapse line-ending backslash continuations.
func (p *Parser) decodeStringToken(tok Token) (string, *ErrorContext) {
	body := tok.Value
	if tok.Multi && len(body) > 0 && body[0] == '\n' {
		body = body[1:]
	} else if tok.Multi && len(body) > 1 && body[0] == '\r' && body[1] == '\n' {
		body = body[2:]
	}
	if tok.Literal {
		return body, nil
	}
	return decodeBasicEscapes(body, tok.Multi, tok.Pos, p)
}
