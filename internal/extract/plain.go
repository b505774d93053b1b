package extract

import (
	"strings"
	"unicode/utf8"
)

// extractPlain passes text through unchanged, replacing any invalid UTF-8
// sequences so downstream chunking always sees valid strings.
func extractPlain(content []byte) (string, error) {
	s := string(content)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "�")
	}
	return s, nil
}
