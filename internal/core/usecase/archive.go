package usecase

import (
	"fmt"
	"path/filepath"
	"strings"
)

func archiveKey(draftID, filename string) string {
	return fmt.Sprintf("%s_%s", draftID, sanitizeFilename(filename))
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "document.pdf"
	}
	return base
}
