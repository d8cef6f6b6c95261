package usecase

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Package-level compiled regex patterns for performance
var (
	nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9\s]`)
	multipleSpacesRegex  = regexp.MustCompile(`\s+`)
)

// diacriticStripper decomposes characters and drops the combining marks, so
// "refrigeración" and "refrigeracion" normalize identically.
var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// storeVariants maps known spelling variants of store names to their
// canonical token. Applied after NormalizeText, before space removal.
var storeVariants = map[string]string{
	"full h4rd":    "fullh4rd",
	"compra gamer": "compragamer",
}

// NormalizeText canonicalizes a string for comparison: lowercase, diacritics
// folded, punctuation removed, whitespace collapsed. It is idempotent and the
// single source of truth for name equality everywhere else.
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	result := strings.ToLower(s)
	if folded, _, err := transform.String(diacriticStripper, result); err == nil {
		result = folded
	}
	result = nonAlphanumericRegex.ReplaceAllString(result, "")
	result = multipleSpacesRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// NormalizeStore canonicalizes a store label: NormalizeText, known spelling
// variants folded to one token, remaining spaces removed.
func NormalizeStore(s string) string {
	raw := NormalizeText(s)
	for variant, canonical := range storeVariants {
		raw = strings.ReplaceAll(raw, variant, canonical)
	}
	return strings.ReplaceAll(raw, " ", "")
}
