package scraper

import (
	"regexp"
	"strconv"
	"strings"
)

// Package-level compiled regex patterns for performance
var (
	nonPriceCharsRegex = regexp.MustCompile(`[^\d.]`)
	discountRegex      = regexp.MustCompile(`\d+%`)
)

// ParsePrice converts a scraped price string to a number, handling the
// Argentine convention of dots as thousands separators and comma as the
// decimal mark ("1.563.890", "1.563.890,50", "1563,50"). Unparseable input
// yields 0.
func ParsePrice(raw string) float64 {
	if raw == "" {
		return 0
	}

	cleaned := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(raw, "$", ""), " ", ""))

	hasDot := strings.Contains(cleaned, ".")
	hasComma := strings.Contains(cleaned, ",")
	switch {
	case hasDot && hasComma:
		// Dots are thousands separators, comma is the decimal mark.
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case hasDot:
		// More than one dot can only mean thousands separators. A single dot
		// is assumed to be a decimal mark.
		if strings.Count(cleaned, ".") > 1 {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
		}
	case hasComma:
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	cleaned = nonPriceCharsRegex.ReplaceAllString(cleaned, "")
	if cleaned == "" {
		return 0
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return value
}

// ExtractDiscount pulls a percentage badge ("25%") out of a listing's text,
// returning it formatted as "25% OFF", or "" when none is present.
func ExtractDiscount(text string) string {
	match := discountRegex.FindString(text)
	if match == "" {
		return ""
	}
	return match + " OFF"
}
