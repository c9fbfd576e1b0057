package detail

import (
	"fmt"
	"strconv"
	"strings"
)

// quoteChars are escaped by Quote so a primary key survives as one URL
// path segment.
const quoteChars = ":/_#?;@&=+$,\"[]<>%\n\\"

// Quote escapes characters of a primary key that would break a URL path,
// writing each as "_XX" with XX its hex code.
func Quote(s string) string {
	if !strings.ContainsAny(s, quoteChars) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if c := s[i]; strings.IndexByte(quoteChars, c) >= 0 {
			fmt.Fprintf(&b, "_%02X", c)
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Unquote reverses Quote. Malformed escapes are kept as written.
func Unquote(s string) string {
	if !strings.Contains(s, "_") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '_' && i+2 < len(s) {
			if n, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
				b.WriteByte(byte(n))
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
