package translate

import (
	"strings"

	"golang.org/x/text/language"
)

// informalFrenchColumn holds the "tu" variant; the extracted defaults are
// already formal French.
const informalFrenchColumn = "fr@tu"

// Locale describes where an output locale reads its values and what it falls back to.
type Locale struct {
	Code         string
	SourceColumn string
	Parent       string
}

// ParseLocale derives the source column and parent of a locale code.
func ParseLocale(code string) Locale {
	code = strings.TrimSpace(code)
	l := Locale{Code: code, SourceColumn: code}
	if code == "fr" {
		l.SourceColumn = informalFrenchColumn
	}
	if idx := strings.LastIndex(code, "_"); idx > 0 {
		l.Parent = code[:idx]
	}
	return l
}

// Columns lists the table columns probed for this locale, most preferred first.
// A French row with only a plain "fr" column still resolves.
func (l Locale) Columns() []string {
	if l.SourceColumn == l.Code {
		return []string{l.Code}
	}
	return []string{l.SourceColumn, l.Code}
}

// ParentLocale returns the parent spec, if any.
func (l Locale) ParentLocale() (Locale, bool) {
	if l.Parent == "" {
		return Locale{}, false
	}
	return ParseLocale(l.Parent), true
}

// Chain returns the codes probed from most to least specific.
func (l Locale) Chain() []string {
	chain := []string{l.Code}
	for current := l; ; {
		parent, ok := current.ParentLocale()
		if !ok {
			return chain
		}
		chain = append(chain, parent.Code)
		current = parent
	}
}

// WellFormed reports whether the code parses as a BCP 47 tag once "_" is
// read as "-". Malformed codes are still processed; callers only warn.
func (l Locale) WellFormed() bool {
	_, err := language.Parse(strings.ReplaceAll(l.Code, "_", "-"))
	return err == nil
}

// Tag returns the BCP 47 tag for the locale, or language.Und when malformed.
func (l Locale) Tag() language.Tag {
	tag, err := language.Parse(strings.ReplaceAll(l.Code, "_", "-"))
	if err != nil {
		return language.Und
	}
	return tag
}
