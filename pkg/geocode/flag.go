package geocode

import "strings"

// globeFlag is shown when no regional indicator pair can be built.
const globeFlag = "🌍"

// CountryFlag turns an ISO 3166-1 alpha-2 code into its flag emoji.
func CountryFlag(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 {
		return globeFlag
	}
	var b strings.Builder
	for i := 0; i < 2; i++ {
		c := code[i]
		if c < 'A' || c > 'Z' {
			return globeFlag
		}
		// Regional indicator symbol A is U+1F1E6.
		b.WriteRune(rune(c) - 'A' + 0x1F1E6)
	}
	return b.String()
}
