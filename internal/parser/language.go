package parser

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Language names used across the pipeline. The empty string means
// "could not be determined"; the parser then degrades instead of failing.
const (
	LangPython     = "python"
	LangJavaScript = "javascript"
)

// SupportedLanguages lists the languages with a real grammar behind them.
func SupportedLanguages() []string {
	return []string{LangPython, LangJavaScript}
}

var extensionLanguages = map[string]string{
	".py":  LangPython,
	".pyi": LangPython,
	".js":  LangJavaScript,
	".jsx": LangJavaScript,
	".mjs": LangJavaScript,
	".cjs": LangJavaScript,
}

// LanguageForPath maps a file path to a language by extension.
func LanguageForPath(path string) string {
	return extensionLanguages[strings.ToLower(filepath.Ext(path))]
}

var (
	pyDefRe    = regexp.MustCompile(`(?m)^\s*(?:async\s+)?def\s+\w+\s*\(`)
	pyClassRe  = regexp.MustCompile(`(?m)^\s*class\s+\w+\s*[(:]`)
	pyImportRe = regexp.MustCompile(`(?m)^\s*(?:from\s+[\w.]+\s+import|import\s+[\w.]+)`)
	jsFuncRe   = regexp.MustCompile(`(?m)\bfunction\s*\w*\s*\(|=>`)
	jsDeclRe   = regexp.MustCompile(`(?m)^\s*(?:const|let|var)\s+\w+`)
	jsImportRe = regexp.MustCompile(`(?m)^\s*import\s+.*\bfrom\s+['"]|^\s*(?:export\s+)?(?:default\s+)?class\s+\w+`)
)

// DetectLanguage guesses the language from content alone. Best effort: it
// scores a handful of structural patterns and returns "" when nothing
// stands out, at which point the caller falls back to degraded mode.
func DetectLanguage(source []byte) string {
	text := string(source)

	pyScore := 0
	if pyDefRe.MatchString(text) {
		pyScore += 2
	}
	if pyClassRe.MatchString(text) {
		pyScore++
	}
	if pyImportRe.MatchString(text) {
		pyScore++
	}

	jsScore := 0
	if jsFuncRe.MatchString(text) {
		jsScore += 2
	}
	if jsDeclRe.MatchString(text) {
		jsScore++
	}
	if jsImportRe.MatchString(text) {
		jsScore++
	}
	if strings.Contains(text, ";") && strings.Contains(text, "{") {
		jsScore++
	}

	switch {
	case pyScore == 0 && jsScore == 0:
		return ""
	case pyScore >= jsScore:
		return LangPython
	default:
		return LangJavaScript
	}
}
