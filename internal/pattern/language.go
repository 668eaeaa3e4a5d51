package pattern

import (
	"path/filepath"
	"strings"
)

// DefaultLanguage is assumed when a filename carries no recognizable extension.
const DefaultLanguage = "javascript"

var aliases = map[string]string{
	"js":     "javascript",
	"node":   "javascript",
	"jsx":    "javascript",
	"ts":     "typescript",
	"tsx":    "typescript",
	"py":     "python",
	"golang": "go",
	"rb":     "ruby",
	"c#":     "csharp",
	"cs":     "csharp",
	"c++":    "cpp",
	"kt":     "kotlin",
	"rs":     "rust",
}

var extLanguages = map[string]string{
	".js":    "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".py":    "python",
	".go":    "go",
	".java":  "java",
	".kt":    "kotlin",
	".scala": "scala",
	".php":   "php",
	".rb":    "ruby",
	".cs":    "csharp",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".hpp":   "cpp",
	".rs":    "rust",
	".swift": "swift",
}

// NormalizeLanguage lower-cases lang and resolves common aliases.
func NormalizeLanguage(lang string) string {
	l := strings.ToLower(strings.TrimSpace(lang))
	if canonical, ok := aliases[l]; ok {
		return canonical
	}
	return l
}

// DetectLanguage infers the language from the file extension, falling back
// to DefaultLanguage.
func DetectLanguage(filename string) string {
	if lang, ok := extLanguages[strings.ToLower(filepath.Ext(filename))]; ok {
		return lang
	}
	return DefaultLanguage
}

// IsSourceFile reports whether filename has an extension the scanner
// understands. Minified bundles are excluded.
func IsSourceFile(filename string) bool {
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".min.js") {
		return false
	}
	_, ok := extLanguages[filepath.Ext(lower)]
	return ok
}
