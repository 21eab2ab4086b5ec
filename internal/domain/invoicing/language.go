package invoicing

import (
	"strings"

	"golang.org/x/text/language"
)

// NormalizeLanguage canonicalises an invoice language to its base BCP 47
// subtag ("EN-gb" -> "en"). Unparseable or empty input yields fallback.
func NormalizeLanguage(raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return fallback
	}
	base, conf := tag.Base()
	if conf == language.No {
		return fallback
	}
	return base.String()
}
