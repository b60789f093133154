package gen

import (
	"sort"
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
)

// =============================================================================
// Naming helpers
// =============================================================================

// acronyms are kept upper-cased when converting snake names to Go names.
var acronyms = names("id", "uid", "uuid", "url", "api", "sql", "json", "html", "http", "ip")

// Snake converts the given struct or field name into a snake_case.
//
//	Manga     => manga
//	MangaTag  => manga_tag
//	SourceID  => source_id
//	HTTPCode  => http_code
func Snake(s string) string {
	var (
		j int
		b strings.Builder
	)
	for i := 0; i < len(s); i++ {
		r := rune(s[i])
		// Put '_' if it is not a start or end of a word, current letter is uppercase,
		// and previous is lowercase (cases like: "MangaTag"), or next letter is also
		// a lowercase and previous letter is not "_".
		if i > 0 && i < len(s)-1 && unicode.IsUpper(r) {
			if unicode.IsLower(rune(s[i-1])) ||
				j != i-1 && unicode.IsLower(rune(s[i+1])) && unicode.IsLetter(rune(s[i-1])) {
				j = i
				b.WriteString("_")
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Pascal converts a snake_case name into an exported Go identifier.
//
//	manga_tag => MangaTag
//	source_id => SourceID
func Pascal(s string) string {
	words := strings.Split(s, "_")
	for i, w := range words {
		if _, ok := acronyms[w]; ok {
			words[i] = strings.ToUpper(w)
			continue
		}
		words[i] = inflect.Camelize(w)
	}
	return strings.Join(words, "")
}

// Plural returns the plural form of a Go name, e.g. Manga => Mangas.
func Plural(name string) string {
	p := inflect.Pluralize(name)
	if p == name {
		p += "s"
	}
	return p
}

// Receiver returns the receiver name of a Go type name.
func Receiver(name string) string {
	if name == "" {
		return "x"
	}
	return strings.ToLower(name[:1])
}

// =============================================================================
// Collections
// =============================================================================

func names(ids ...string) map[string]struct{} {
	m := make(map[string]struct{})
	for i := range ids {
		m[ids[i]] = struct{}{}
	}
	return m
}

func sortedKeys[V any](m map[string]V) []string {
	s := make([]string, 0, len(m))
	for k := range m {
		s = append(s, k)
	}
	sort.Strings(s)
	return s
}

// orderedSet is a string set that remembers insertion order.
type orderedSet struct {
	list []string
	seen map[string]struct{}
}

func (s *orderedSet) add(v string) bool {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[v]; ok {
		return false
	}
	s.seen[v] = struct{}{}
	s.list = append(s.list, v)
	return true
}

func (s *orderedSet) has(v string) bool {
	_, ok := s.seen[v]
	return ok
}
