package highlight

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/go-enry/go-enry/v2"
)

// maxDetectBytes bounds how much content is inspected for detection.
const maxDetectBytes = 16 << 10

// DetectLanguage guesses the language of a file from its name and content.
// It returns "" when nothing matches.
func DetectLanguage(filename string, content []byte) string {
	if len(content) > maxDetectBytes {
		content = content[:maxDetectBytes]
	}
	if lang := enry.GetLanguage(filepath.Base(filename), content); lang != "" {
		return lang
	}
	if filename != "" {
		if l := lexers.Match(filepath.Base(filename)); l != nil {
			return l.Config().Name
		}
	}
	if l := lexers.Analyse(string(content)); l != nil {
		return l.Config().Name
	}
	return ""
}

// lexerFor resolves a language name to a coalescing chroma lexer, falling
// back to plain text.
func lexerFor(language string) chroma.Lexer {
	l := lexers.Get(language)
	if l == nil && language != "" {
		l = lexers.Get(strings.ToLower(language))
	}
	if l == nil {
		l = lexers.Fallback
	}
	return chroma.Coalesce(l)
}
