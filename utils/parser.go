package utils

import (
	"regexp"
	"strconv"
	"strings"
)

// priceRegex finds the first valid price number in a string. It handles
// integers (1,079), decimals (119.00), and thousands separators.
var priceRegex = regexp.MustCompile(`[\d,]+(?:\.\d+)?`)

// numberRegex finds the first plain decimal number in a string.
var numberRegex = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ParsePrice cleans a price string and converts it to a float64.
// Currency symbols and surrounding text are ignored, so complex strings like
// "List Price: $1,219.41" parse fine. The second return reports whether a
// number was found.
func ParsePrice(priceStr string) (float64, bool) {
	if priceStr == "" {
		return 0, false
	}

	foundPrice := priceRegex.FindString(priceStr)
	if foundPrice == "" {
		return 0, false
	}

	cleanedStr := strings.ReplaceAll(foundPrice, ",", "")
	price, err := strconv.ParseFloat(cleanedStr, 64)
	if err != nil {
		return 0, false
	}

	return price, true
}

// ParseNumber extracts the first decimal number from a string, e.g. the
// "4.5" in "4.5 out of 5 stars".
func ParseNumber(s string) (float64, bool) {
	found := numberRegex.FindString(s)
	if found == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(found, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseCount extracts the first integer count from a string, tolerating
// thousands separators ("1,234 reviews" parses as 1234).
func ParseCount(s string) (int, bool) {
	n, ok := ParsePrice(s)
	if !ok {
		return 0, false
	}
	return int(n), true
}
