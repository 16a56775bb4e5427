// Package i18n resolves dashboard labels for the supported languages.
//
// Lookup is total: a key missing from the requested language falls back to
// English, and a key missing from English is turned into a label derived
// from its last dot separated segment.
package i18n

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultLanguage is consulted when the requested language has no entry.
const DefaultLanguage = "en"

// Table is an immutable set of dictionaries keyed by language code.
// It is safe for concurrent use.
type Table struct {
	dicts map[string]map[string]string
}

// NewTable copies dicts into a new Table.
func NewTable(dicts map[string]map[string]string) *Table {
	t := &Table{dicts: make(map[string]map[string]string, len(dicts))}
	for lang, d := range dicts {
		c := make(map[string]string, len(d))
		for k, v := range d {
			c[k] = v
		}
		t.dicts[lang] = c
	}
	return t
}

var defaultTable = NewTable(dictionaries)

// Default returns the built in table.
func Default() *Table {
	return defaultTable
}

// Translate looks key up in the built in table.
func Translate(key, lang string) string {
	return defaultTable.Translate(key, lang)
}

// Languages returns the codes known to the built in table.
func Languages() []string {
	return defaultTable.Languages()
}

func (t *Table) Translate(key, lang string) string {
	if v, ok := t.dicts[lang][key]; ok {
		return v
	}
	if v, ok := t.dicts[DefaultLanguage][key]; ok {
		return v
	}
	return Label(key)
}

// Languages returns the sorted language codes of the table.
func (t *Table) Languages() []string {
	langs := make([]string, 0, len(t.dicts))
	for l := range t.dicts {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// Supported reports whether the table has a dictionary for lang.
func (t *Table) Supported(lang string) bool {
	_, ok := t.dicts[lang]
	return ok
}

// Dictionary returns the default dictionary overlaid with the entries of lang.
func (t *Table) Dictionary(lang string) map[string]string {
	out := make(map[string]string, len(t.dicts[DefaultLanguage]))
	for k, v := range t.dicts[DefaultLanguage] {
		out[k] = v
	}
	for k, v := range t.dicts[lang] {
		out[k] = v
	}
	return out
}

// Label derives a display string from the last dot separated segment of key.
// Underscores and hyphens separate words, camelCase is split
// and every word is capitalized, e.g. "dashboard.unknownMetric" is "Unknown Metric".
// Acronyms stay upper case, "x.HTTPStatus" is "HTTP Status".
func Label(key string) string {
	segment := key
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		segment = key[i+1:]
	}
	segment = strings.NewReplacer("_", " ", "-", " ").Replace(segment)

	// cases.Caser keeps state and must not be shared between goroutines.
	title := cases.Title(language.English)
	var words []string
	for _, part := range strings.Fields(segment) {
		for _, w := range splitCamel(part) {
			if isAcronym(w) {
				words = append(words, w)
				continue
			}
			words = append(words, title.String(w))
		}
	}
	if len(words) == 0 {
		return key
	}
	return strings.Join(words, " ")
}

// splitCamel breaks s before an upper case rune that follows a lower case
// rune or digit, and before the last upper case rune of a run that is
// followed by a lower case rune: "maxHTTPStatus" is max, HTTP, Status.
func splitCamel(s string) []string {
	rs := []rune(s)
	var words []string
	start := 0
	for i := 1; i < len(rs); i++ {
		if !unicode.IsUpper(rs[i]) {
			continue
		}
		prev := rs[i-1]
		next := i+1 < len(rs) && unicode.IsLower(rs[i+1])
		if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && next) {
			words = append(words, string(rs[start:i]))
			start = i
		}
	}
	return append(words, string(rs[start:]))
}

func isAcronym(w string) bool {
	n := 0
	for _, r := range w {
		if unicode.IsLetter(r) && !unicode.IsUpper(r) {
			return false
		}
		n++
	}
	return n > 1
}
