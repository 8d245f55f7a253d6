package reference

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// DefaultLanguage is the language selector used when none is configured.
const DefaultLanguage = "zh-Hans"

// Language pairs a BCP 47 tag with the reference tables' language id.
type Language struct {
	Tag language.Tag
	ID  int
}

// String returns the canonical tag.
func (l Language) String() string { return l.Tag.String() }

// languageIDs maps canonical tags to local_language_id in the reference
// tables.
var languageIDs = map[string]int{
	"ja-Hrkt": 1,
	"ko":      3,
	"zh-Hant": 4,
	"fr":      5,
	"de":      6,
	"es":      7,
	"it":      8,
	"en":      9,
	"cs":      10,
	"ja":      11,
	"zh-Hans": 12,
	"pt-BR":   13,
}

// ParseLanguage resolves a BCP 47 tag to a reference Language.
//
// Postcondition: returns a Language with ID > 0, or an error if the tag is
// malformed or has no reference table id.
func ParseLanguage(s string) (Language, error) {
	tag, err := language.Parse(s)
	if err != nil {
		return Language{}, fmt.Errorf("parsing language %q: %w", s, err)
	}
	id, ok := languageIDs[tag.String()]
	if !ok {
		return Language{}, fmt.Errorf("language %q has no reference id (supported: %s)", tag, strings.Join(SupportedLanguages(), ", "))
	}
	return Language{Tag: tag, ID: id}, nil
}

// SupportedLanguages lists every tag ParseLanguage accepts, sorted.
func SupportedLanguages() []string {
	out := make([]string, 0, len(languageIDs))
	for tag := range languageIDs {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
