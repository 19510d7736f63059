package content

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify lower-cases s, folds diacritics ("Crème" -> "creme") and collapses every
// run of characters other than letters and digits into a single hyphen.
func Slugify(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// TagSlug is the URL segment of a tag page. A tag without letters or digits
// gets a stable "tag-" name derived from its text so it never maps onto the
// tags overview.
func TagSlug(tag string) string {
	if s := Slugify(tag); s != "" {
		return s
	}
	return "tag-" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(tag)).String()[:8]
}
