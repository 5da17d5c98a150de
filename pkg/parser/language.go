package parser

import (
	"path/filepath"
	"strings"
)

// Language represents a supported grammar.
type Language int

const (
	// LanguageTypeScript covers .ts and .d.ts declaration files.
	LanguageTypeScript Language = iota
	// LanguageUnknown represents an unsupported language
	LanguageUnknown
)

// String returns the string representation of the language.
func (l Language) String() string {
	switch l {
	case LanguageTypeScript:
		return "typescript"
	default:
		return "unknown"
	}
}

// DetectLanguage detects the language from a file path.
// Returns LanguageUnknown if the file extension is not recognized.
func DetectLanguage(filePath string) Language {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".ts", ".mts", ".cts":
		return LanguageTypeScript
	default:
		return LanguageUnknown
	}
}

// IsDeclarationFile reports whether the path names an ambient declaration
// file (.d.ts, .d.mts, .d.cts).
func IsDeclarationFile(filePath string) bool {
	base := strings.ToLower(filepath.Base(filePath))
	for _, suffix := range []string{".d.ts", ".d.mts", ".d.cts"} {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return false
}
