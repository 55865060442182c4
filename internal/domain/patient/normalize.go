package patient

import "strings"

// NormalizeIdentifier strips an NHS number token down to its decimal digits,
// keeping their original order. Input without digits yields "".
func NormalizeIdentifier(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}
