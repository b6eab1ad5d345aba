package matcher

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// dropped runes vanish instead of splitting words, so "don't" stays one word.
const dropped = "'\"`´’‘“”^#$%&@\\/"

// Normalize lowercases s, folds diacritics, turns punctuation into spaces and collapses whitespace.
func Normalize(s string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		switch {
		case strings.ContainsRune(dropped, r):
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func words(s string) []string {
	return strings.Fields(Normalize(s))
}

// pairs returns concatenations of neighbouring words.
func pairs(ws []string) []string {
	if len(ws) < 2 {
		return nil
	}
	out := make([]string, 0, len(ws)-1)
	for i := 0; i+1 < len(ws); i++ {
		out = append(out, ws[i]+ws[i+1])
	}
	return out
}
