package query

import "strings"

// escaper is the backend's escaping table. It is deliberately narrower than
// RFC 3986: "+", "?" and "/" pass through unchanged.
var escaper = strings.NewReplacer(
	" ", "%20",
	"<", "%3C",
	">", "%3E",
	"#", "%23",
	"%", "%25",
	"|", "%7C",
	"&", "%26",
	"=", "%3D",
)

// Encode applies the fixed escaping table to s.
func Encode(s string) string {
	return escaper.Replace(s)
}

// Sanitize replaces every rune outside [A-Za-z0-9] and the Cyrillic block
// U+0400–U+04FF with an underscore.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 0x0400 && r <= 0x04FF:
			return r
		}
		return '_'
	}, s)
}
