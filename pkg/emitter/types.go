package emitter

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"

	"github.com/gnana997/tsdgen/pkg/declaration"
)

// Resolver maps a type reference to the name it renders as.
type Resolver func(ref string) (string, bool)

// tsType is a rendered TypeScript type. Compound types need parentheses
// before an array suffix.
type tsType struct {
	text     string
	compound bool
	fn       bool
	optional bool
	variadic bool
}

var anyType = tsType{text: "any"}

func (t tsType) array() tsType {
	if t.compound {
		return tsType{text: "(" + t.text + ")[]"}
	}
	return tsType{text: t.text + "[]"}
}

func (t tsType) nullable() tsType {
	if t.text == "any" || t.text == "null" || strings.HasSuffix(t.text, " | null") {
		return t
	}
	return tsType{text: t.member() + " | null", compound: true}
}

// member returns the text as it must appear inside a union.
func (t tsType) member() string {
	if t.fn {
		return "(" + t.text + ")"
	}
	return t.text
}

// TypeExpr renders one JSDoc type expression. Expressions that do not
// parse render as any.
func TypeExpr(expr string, resolve Resolver) string {
	return parseType(expr, resolve).text
}

func parseType(expr string, resolve Resolver) tsType {
	p := &typeParser{lex: newLexer(expr), resolve: resolve}
	t, err := p.parseUnion()
	if err == nil && p.lex.peek().kind != tokEOF {
		err = errors.Newf("unexpected %q", p.lex.peek().text)
	}
	if err != nil {
		return anyType
	}
	return t
}

func unionOf(names []string, resolve Resolver) tsType {
	var parts []string
	seen := make(map[string]bool)
	var single tsType
	for _, n := range names {
		t := parseType(n, resolve)
		if t.text == "any" {
			return anyType
		}
		if !seen[t.text] {
			seen[t.text] = true
			parts = append(parts, t.member())
			single = t
		}
	}
	switch len(parts) {
	case 0:
		return anyType
	case 1:
		return tsType{text: single.text, compound: single.compound, fn: single.fn}
	default:
		return tsType{text: strings.Join(parts, " | "), compound: true}
	}
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokName
	tokString
	tokNumber
	tokPunct
)

type token struct {
	kind tokKind
	text string
}

type lexer struct {
	src  []rune
	pos  int
	next *token
}

func newLexer(s string) *lexer {
	return &lexer{src: []rune(s)}
}

var puncts = []string{"...", ".<", "=>", "(", ")", "{", "}", "[", "]", "<", ">", ",", "|", ":", "=", "?", "!", "*"}

func (l *lexer) peek() token {
	if l.next == nil {
		t := l.scan()
		l.next = &t
	}
	return *l.next
}

func (l *lexer) take() token {
	t := l.peek()
	l.next = nil
	return t
}

func (l *lexer) is(text string) bool {
	t := l.peek()
	return t.kind == tokPunct && t.text == text
}

func (l *lexer) hasPrefix(s string) bool {
	return strings.HasPrefix(string(l.src[l.pos:]), s)
}

func isNameStart(r rune) bool {
	return r == '_' || r == '$' || r == '@' || unicode.IsLetter(r)
}

func isNamePart(r rune) bool {
	return isNameStart(r) || unicode.IsDigit(r) || strings.ContainsRune("~#/-", r)
}

// namespacePrefixes may be followed by ':' inside a longname.
var namespacePrefixes = map[string]bool{"module": true, "external": true, "event": true}

func (l *lexer) scan() token {
	for l.pos < len(l.src) && unicode.IsSpace(l.src[l.pos]) {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return token{kind: tokEOF}
	}

	r := l.src[l.pos]
	switch {
	case r == '"' || r == '\'':
		return token{kind: tokString, text: l.quoted()}
	case unicode.IsDigit(r) || r == '-' && l.pos+1 < len(l.src) && unicode.IsDigit(l.src[l.pos+1]):
		start := l.pos
		l.pos++
		for l.pos < len(l.src) && (unicode.IsDigit(l.src[l.pos]) || l.src[l.pos] == '.' && !l.hasPrefix(".<")) {
			l.pos++
		}
		return token{kind: tokNumber, text: string(l.src[start:l.pos])}
	case isNameStart(r):
		return token{kind: tokName, text: l.name()}
	}

	for _, p := range puncts {
		if l.hasPrefix(p) {
			l.pos += len([]rune(p))
			return token{kind: tokPunct, text: p}
		}
	}
	l.pos++
	return token{kind: tokPunct, text: string(r)}
}

// quoted consumes a string literal and returns its contents.
func (l *lexer) quoted() string {
	q := l.src[l.pos]
	l.pos++
	start := l.pos
	for l.pos < len(l.src) && l.src[l.pos] != q {
		l.pos++
	}
	s := string(l.src[start:l.pos])
	if l.pos < len(l.src) {
		l.pos++
	}
	return s
}

// name consumes a possibly qualified name such as module:"a-b"/c~D#e.
// A '.' is part of the name unless it starts a ".<" generic.
func (l *lexer) name() string {
	var b strings.Builder
	for l.pos < len(l.src) {
		r := l.src[l.pos]
		switch {
		case isNamePart(r):
			b.WriteRune(r)
			l.pos++
		case r == ':' && namespacePrefixes[b.String()]:
			b.WriteRune(r)
			l.pos++
		case r == '.' && !l.hasPrefix(".<") && !l.hasPrefix("..."):
			b.WriteRune(r)
			l.pos++
		case (r == '"' || r == '\'') && b.Len() > 0 && strings.ContainsRune(":.~#/", lastRune(b.String())):
			b.WriteRune(r)
			b.WriteString(l.quoted())
			b.WriteRune(r)
		default:
			return strings.TrimRight(b.String(), ".")
		}
	}
	return strings.TrimRight(b.String(), ".")
}

func lastRune(s string) rune {
	r := []rune(s)
	return r[len(r)-1]
}

type typeParser struct {
	lex     *lexer
	resolve Resolver
}

func (p *typeParser) expect(text string) error {
	if !p.lex.is(text) {
		return errors.Newf("expected %q, got %q", text, p.lex.peek().text)
	}
	p.lex.take()
	return nil
}

func (p *typeParser) atEnd() bool {
	t := p.lex.peek()
	if t.kind == tokEOF {
		return true
	}
	if t.kind != tokPunct {
		return false
	}
	switch t.text {
	case ")", ",", ">", "|", "]", "}", "=":
		return true
	}
	return false
}

func (p *typeParser) parseUnion() (tsType, error) {
	first, err := p.parsePostfix()
	if err != nil {
		return first, err
	}
	if !p.lex.is("|") {
		return first, nil
	}

	parts := []string{first.member()}
	seen := map[string]bool{first.text: true}
	isAny := first.text == "any"
	for p.lex.is("|") {
		p.lex.take()
		t, err := p.parsePostfix()
		if err != nil {
			return t, err
		}
		if t.text == "any" {
			isAny = true
		}
		if !seen[t.text] {
			seen[t.text] = true
			parts = append(parts, t.member())
		}
	}
	if isAny {
		return anyType, nil
	}
	return tsType{text: strings.Join(parts, " | "), compound: len(parts) > 1, optional: first.optional}, nil
}

func (p *typeParser) parsePostfix() (tsType, error) {
	t, err := p.parsePrefix()
	if err != nil {
		return t, err
	}
	for {
		switch {
		case p.lex.is("["):
			p.lex.take()
			if err := p.expect("]"); err != nil {
				return t, err
			}
			t = t.array()
		case p.lex.is("="):
			p.lex.take()
			t.optional = true
		case p.lex.is("?"):
			p.lex.take()
			t = t.nullable()
		case p.lex.is("!"):
			p.lex.take()
		default:
			return t, nil
		}
	}
}

func (p *typeParser) parsePrefix() (tsType, error) {
	switch {
	case p.lex.is("?"):
		p.lex.take()
		if p.atEnd() {
			return anyType, nil
		}
		t, err := p.parsePrefix()
		return t.nullable(), err
	case p.lex.is("!"):
		p.lex.take()
		return p.parsePrefix()
	case p.lex.is("..."):
		p.lex.take()
		if p.atEnd() {
			return tsType{text: "any", variadic: true}, nil
		}
		t, err := p.parsePrefix()
		t.variadic = true
		return t, err
	}
	return p.parsePrimary()
}

func (p *typeParser) parsePrimary() (tsType, error) {
	tok := p.lex.peek()
	switch tok.kind {
	case tokString:
		p.lex.take()
		return tsType{text: strconv.Quote(tok.text)}, nil
	case tokNumber:
		p.lex.take()
		return tsType{text: tok.text}, nil
	case tokName:
		p.lex.take()
		if (tok.text == "function" || tok.text == "Function") && p.lex.is("(") {
			return p.parseFunction()
		}
		var args []tsType
		if p.lex.is(".<") || p.lex.is("<") {
			p.lex.take()
			var err error
			if args, err = p.parseArgs(">"); err != nil {
				return anyType, err
			}
		}
		return p.named(tok.text, args), nil
	case tokPunct:
		switch tok.text {
		case "*":
			p.lex.take()
			return anyType, nil
		case "(":
			p.lex.take()
			t, err := p.parseUnion()
			if err != nil {
				return t, err
			}
			return t, p.expect(")")
		case "{":
			p.lex.take()
			return p.parseRecord()
		}
	}
	return anyType, errors.Newf("unexpected %q", tok.text)
}

func (p *typeParser) parseArgs(closing string) ([]tsType, error) {
	var args []tsType
	for !p.lex.is(closing) {
		t, err := p.parseUnion()
		if err != nil {
			return nil, err
		}
		args = append(args, t)
		if !p.lex.is(",") {
			break
		}
		p.lex.take()
	}
	return args, p.expect(closing)
}

// parseFunction renders `function(a, b=, ...c): R` as an arrow type.
// `this:` entries are dropped and `new:T` turns the result into a
// construct signature.
func (p *typeParser) parseFunction() (tsType, error) {
	if err := p.expect("("); err != nil {
		return anyType, err
	}

	var params []string
	var ctor string
	for i := 0; !p.lex.is(")"); i++ {
		if t := p.lex.peek(); t.kind == tokName && (t.text == "this" || t.text == "new") {
			p.lex.take()
			if err := p.expect(":"); err != nil {
				return anyType, err
			}
			target, err := p.parseUnion()
			if err != nil {
				return anyType, err
			}
			if t.text == "new" {
				ctor = target.text
			}
			i--
		} else {
			t, err := p.parseUnion()
			if err != nil {
				return anyType, err
			}
			name := "arg" + strconv.Itoa(i)
			switch {
			case t.variadic:
				params = append(params, "..."+name+": "+t.array().text)
			case t.optional:
				params = append(params, name+"?: "+t.text)
			default:
				params = append(params, name+": "+t.text)
			}
		}
		if !p.lex.is(",") {
			break
		}
		p.lex.take()
	}
	if err := p.expect(")"); err != nil {
		return anyType, err
	}

	ret := "void"
	if ctor != "" {
		ret = ctor
	}
	if p.lex.is(":") {
		p.lex.take()
		t, err := p.parsePrefix()
		if err != nil {
			return anyType, err
		}
		ret = t.text
	}

	sig := "(" + strings.Join(params, ", ") + ") => " + ret
	if ctor != "" {
		sig = "new " + sig
	}
	return tsType{text: sig, compound: true, fn: true}, nil
}

// parseRecord renders `{a: T, b}` as an inline object type.
func (p *typeParser) parseRecord() (tsType, error) {
	var fields []string
	for !p.lex.is("}") {
		key := p.lex.take()
		if key.kind != tokName && key.kind != tokString && key.kind != tokNumber {
			return anyType, errors.Newf("unexpected %q in record type", key.text)
		}
		ft := anyType
		if p.lex.is(":") {
			p.lex.take()
			var err error
			if ft, err = p.parseUnion(); err != nil {
				return anyType, err
			}
		}
		name := propertyName(key.text)
		if ft.optional {
			name += "?"
		}
		fields = append(fields, name+": "+ft.text+";")
		if !p.lex.is(",") {
			break
		}
		p.lex.take()
	}
	if err := p.expect("}"); err != nil {
		return anyType, err
	}
	if len(fields) == 0 {
		return tsType{text: "{}"}, nil
	}
	return tsType{text: "{ " + strings.Join(fields, " ") + " }"}, nil
}

// named renders a type name with optional generic arguments.
func (p *typeParser) named(name string, args []tsType) tsType {
	switch name {
	case "any", "mixed", "Any":
		return anyType
	case "String", "string":
		return tsType{text: "string"}
	case "Number", "number", "int", "integer", "float", "double":
		return tsType{text: "number"}
	case "Boolean", "boolean", "bool":
		return tsType{text: "boolean"}
	case "Symbol", "symbol":
		return tsType{text: "symbol"}
	case "undefined", "Undefined":
		return tsType{text: "undefined"}
	case "null", "Null":
		return tsType{text: "null"}
	case "void", "never", "unknown", "bigint", "object", "this":
		return tsType{text: name}
	case "function", "Function":
		return tsType{text: "Function"}
	case "Array", "array":
		if len(args) == 0 {
			return anyType.array()
		}
		return args[0].array()
	case "Object":
		switch len(args) {
		case 0:
			return anyType
		case 1:
			return indexSignature(tsType{text: "string"}, args[0])
		default:
			return indexSignature(args[0], args[1])
		}
	case "Promise":
		if len(args) == 0 {
			args = []tsType{anyType}
		}
	}

	text := p.refName(name)
	if len(args) > 0 {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.text
		}
		text += "<" + strings.Join(parts, ", ") + ">"
	}
	return tsType{text: text}
}

func indexSignature(key, value tsType) tsType {
	k := key.text
	if k != "string" && k != "number" {
		k = "string"
	}
	return tsType{text: "{ [key: " + k + "]: " + value.text + "; }"}
}

// refName resolves a reference through the tree. Unknown longnames fall
// back to their last segment; plain dotted names pass through.
func (p *typeParser) refName(name string) string {
	if p.resolve != nil {
		if r, ok := p.resolve(name); ok {
			return r
		}
	}
	if strings.ContainsAny(name, ":~#/\"'") {
		return declaration.SanitizeIdentifier(declaration.LocalName(name))
	}
	parts := strings.Split(name, ".")
	for i, s := range parts {
		parts[i] = declaration.SanitizeIdentifier(s)
	}
	return strings.Join(parts, ".")
}

// propertyName quotes names that are not valid unquoted property names.
func propertyName(name string) string {
	if declaration.IsPropertyName(name) {
		return name
	}
	return strconv.Quote(name)
}
