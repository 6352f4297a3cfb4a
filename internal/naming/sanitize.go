package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxWords caps label length in words.
const MaxWords = 3

var nonASCII = runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })

// Sanitize turns raw model output into a plain ASCII label of at most
// MaxWords words: quotes are dropped, punctuation becomes spaces, accents
// are folded and whitespace is collapsed. It returns "" if nothing remains.
func Sanitize(raw string) string {
	s := strings.NewReplacer(`"`, "", "'", "", "`", "", "“", "", "”", "", "‘", "", "’", "").Replace(raw)

	s = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return r
	}, s)

	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(nonASCII)), s)
	if err != nil {
		return ""
	}

	words := strings.Fields(folded)
	if len(words) > MaxWords {
		words = words[:MaxWords]
	}
	return strings.Join(words, " ")
}
