package domain

import (
	"regexp"
	"strings"
	"unicode"
)

// ws matches what ECMAScript \s matches. RE2's \s is ASCII only and misses NBSP,
// \v, BOM and the Unicode space separators.
const ws = `[\s\v\p{Z}\x{FEFF}]`

// subjectPattern finds a "subject"/"subj" marker and captures up to the first run of two
// or more whitespace characters, a line break or a sentence terminator.
var subjectPattern = regexp.MustCompile(
	`(?i)(?:subject|subj)` + ws + `*[:\-]?` + ws + `*(.*?)(?:` + ws + `{2,}|$|\n|\r|!|\?|\.|:)`,
)

// InferSubject returns the trimmed subject line found in text.
func InferSubject(text string) (string, bool) {
	m := subjectPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	subject := strings.TrimFunc(m[1], isSpace)
	if subject == "" {
		return "", false
	}
	return subject, true
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || unicode.Is(unicode.Z, r) || r == '\uFEFF'
}

type ExtractionMethod string

const (
	MethodTextLayer ExtractionMethod = "text_layer"
	MethodOCR       ExtractionMethod = "ocr"
)

// Extraction is the outcome of one subject inference attempt over a document.
type Extraction struct {
	Subject string           `json:"subject,omitempty"`
	Found   bool             `json:"found"`
	Method  ExtractionMethod `json:"method"`
	Warning string           `json:"warning,omitempty"`
}
