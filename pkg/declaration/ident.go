package declaration

import (
	"strings"
	"unicode"
)

var reserved = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true, "do": true,
	"else": true, "enum": true, "export": true, "extends": true, "false": true,
	"finally": true, "for": true, "function": true, "if": true, "import": true,
	"in": true, "instanceof": true, "new": true, "null": true, "return": true,
	"super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true,
	"with": true,
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

// IsIdentifier reports whether s can be used unquoted as a declaration name.
func IsIdentifier(s string) bool {
	if s == "" || reserved[s] {
		return false
	}
	for i, r := range s {
		if i == 0 && !isIdentStart(r) {
			return false
		}
		if !isIdentPart(r) {
			return false
		}
	}
	return true
}

// IsPropertyName reports whether s can name a member without quotes.
// Unlike declaration names, reserved words are allowed.
func IsPropertyName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && !isIdentStart(r) || !isIdentPart(r) {
			return false
		}
	}
	return true
}

// SanitizeIdentifier turns s into a valid identifier by replacing every
// invalid character with '_'. Reserved words and leading digits get a '_'
// prefix. The empty string stays empty.
func SanitizeIdentifier(s string) string {
	if s == "" || IsIdentifier(s) {
		return s
	}
	var b strings.Builder
	for i, r := range s {
		switch {
		case i == 0 && unicode.IsDigit(r):
			b.WriteByte('_')
			b.WriteRune(r)
		case isIdentPart(r):
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if reserved[out] {
		out = "_" + out
	}
	return out
}

// LocalName returns the last segment of a longname, so "module:lib~Foo#bar"
// becomes "bar" and "module:a/b" becomes "b".
func LocalName(longname string) string {
	longname = strings.Trim(longname, `"'`)
	if i := strings.LastIndexAny(longname, ".~#:/"); i >= 0 {
		return strings.Trim(longname[i+1:], `"'`)
	}
	return longname
}

// isRefChar reports whether r may appear inside a longname reference.
func isRefChar(r rune) bool {
	return isIdentPart(r) || strings.ContainsRune(".:~#/@-", r)
}

// refTokens splits a type expression into candidate longname references.
// "Array.<module:lib~Foo>" yields "Array" and "module:lib~Foo".
func refTokens(expr string) []string {
	fields := strings.FieldsFunc(expr, func(r rune) bool { return !isRefChar(r) })
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimRight(f, ".")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
