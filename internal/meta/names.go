package meta

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Snake converts a Go identifier such as "BookAuthor" into "book_author".
func Snake(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Humanize turns a snake_case name into lower-case words: "pub_date" -> "pub date".
func Humanize(name string) string {
	return strings.TrimSpace(strings.ReplaceAll(name, "_", " "))
}

// CapFirst upper-cases the first rune of s.
func CapFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}
