package geocode

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"unicode"

	"github.com/golang/geo/s2"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// reverseCellLevel groups reverse lookups into ~1 km² s2 cells.
const reverseCellLevel = 13

// Fold normalizes s for comparison: diacritics stripped, case folded and
// whitespace collapsed. "  São  PAULO" and "sao paulo" fold to the same value.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.Join(strings.Fields(cases.Fold().String(stripped)), " ")
}

// SearchKey identifies a search in the result cache.
func SearchKey(query string, limit int, lang string) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%s", Fold(query), limit, lang)))
	return fmt.Sprintf("%x", h)
}

// ReverseKey identifies a reverse lookup in the result cache: nearby points
// share the s2 cell token.
func ReverseKey(lat, lon float64) string {
	return s2.CellIDFromLatLng(s2.LatLngFromDegrees(lat, lon)).Parent(reverseCellLevel).ToToken()
}
