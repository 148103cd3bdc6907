package slug

import (
	"regexp"
	"strings"
)

var slugRegexp = regexp.MustCompile(`[^a-z0-9]+`)

// Generate creates a URL-friendly slug from the given name. Common Latin
// diacritics are transliterated to ASCII so catalog names in accented
// languages produce stable permalinks.
//
// Examples:
//   - "Černá Taška" → "cerna-taska"
//   - "Crème Brûlée" → "creme-brulee"
//   - "Hello   World!" → "hello-world"
func Generate(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))

	// Transliterate accented Latin characters to ASCII
	replacer := strings.NewReplacer(
		"á", "a", "à", "a", "â", "a", "ä", "a", "ã", "a", "å", "a",
		"č", "c", "ç", "c", "ć", "c",
		"ď", "d",
		"é", "e", "è", "e", "ê", "e", "ë", "e", "ě", "e",
		"í", "i", "ì", "i", "î", "i", "ï", "i",
		"ľ", "l", "ł", "l",
		"ň", "n", "ñ", "n",
		"ó", "o", "ò", "o", "ô", "o", "ö", "o", "õ", "o",
		"ř", "r",
		"š", "s", "ś", "s", "ß", "ss",
		"ť", "t",
		"ú", "u", "ù", "u", "û", "u", "ü", "u", "ů", "u",
		"ý", "y", "ÿ", "y",
		"ž", "z", "ź", "z", "ż", "z",
	)
	slug = replacer.Replace(slug)

	// Replace any non-alphanumeric characters with hyphens
	slug = slugRegexp.ReplaceAllString(slug, "-")

	// Trim leading and trailing hyphens
	slug = strings.Trim(slug, "-")

	// Collapse consecutive hyphens into single hyphens
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}

	return slug
}
