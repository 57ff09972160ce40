package ledger

import (
	"strings"
	"unicode"
)

// TitleCase normalizes a category to per-word Title Case ("makanan dan
// minuman" -> "Makanan Dan Minuman") so the model's free-form category
// strings collapse onto one canonical spelling.
func TitleCase(s string) string {
	words := strings.Fields(strings.TrimSpace(s))
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
