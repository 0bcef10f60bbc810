package domain

import (
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// quoteNoLabels are label prefixes that intake sources prepend to the
// reference number itself. Checked after whitespace removal.
var quoteNoLabels = []string{"QuoteNo:", "QuoteNo", "估價單號:", "估價單號"}

// NormalizeQuoteNo canonicalizes an external quote reference: full-width
// colon/dash folded to half-width, internal whitespace removed, leading label
// text stripped, surrounding punctuation trimmed. Idempotent.
func NormalizeQuoteNo(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "：", ":")
	s = strings.ReplaceAll(s, "－", "-")
	s = whitespaceRe.ReplaceAllString(s, "")
	for _, label := range quoteNoLabels {
		s = strings.ReplaceAll(s, label, "")
	}
	s = strings.Trim(s, "-_#: ")
	return strings.TrimSpace(s)
}
