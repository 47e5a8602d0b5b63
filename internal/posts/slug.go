package posts

import (
	"fmt"
	"path"
	"strings"
	"unicode"

	"github.com/goliatone/go-slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// letters without a canonical decomposition.
var ligatures = strings.NewReplacer(
	"ß", "ss", "æ", "ae", "Æ", "AE", "œ", "oe", "Œ", "OE",
	"ø", "o", "Ø", "O", "ł", "l", "Ł", "L", "đ", "d", "Đ", "D",
)

// NormalizeSlug applies the default go-slug rules and rejects empty results.
// go-slug keeps ASCII only, so accented letters are folded to their base
// letter first: "Über Café" becomes "uber-cafe".
func NormalizeSlug(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", ErrSlugRequired
	}
	normalized, err := slug.Normalize(foldAccents(value))
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrSlugInvalid, value, err)
	}
	if normalized == "" {
		return "", fmt.Errorf("%w: %q", ErrSlugInvalid, value)
	}
	return normalized, nil
}

// IsValidSlug reports whether value already satisfies the slug rules.
func IsValidSlug(value string) bool {
	return slug.IsValid(value)
}

func slugFromPath(name string) (string, error) {
	return NormalizeSlug(baseName(name))
}

func foldAccents(value string) string {
	strip := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(strip, ligatures.Replace(value))
	if err != nil {
		return value
	}
	return folded
}

// TitleFromPath derives a display title from a source file name, so
// "getting-started.md" becomes "Getting Started".
func TitleFromPath(name string) string {
	words := strings.NewReplacer("-", " ", "_", " ").Replace(baseName(name))
	return cases.Title(language.English).String(strings.Join(strings.Fields(words), " "))
}

func baseName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}
