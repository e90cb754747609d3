package curtain

import (
	"math"
	"regexp"
	"strconv"
)

const cmPerInch = 2.54

var (
	leadingNumberPattern = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)`)
	fractionPattern      = regexp.MustCompile(`(\d+)/(\d+)`)
)

// InchesToCM converts a whole plus fractional inch measurement to centimeters,
// rounded to 2 decimals.
func InchesToCM(wholeInches, fractionalInches float64) float64 {
	return round2((wholeInches + fractionalInches) * cmPerInch)
}

// CMToInches converts centimeters back to inches, rounded to 2 decimals.
func CMToInches(cm float64) float64 {
	return round2(cm / cmPerInch)
}

// ParseFraction returns numerator/denominator of the first "N/D" in s.
// A missing match or a zero denominator contributes 0.
func ParseFraction(s string) float64 {
	m := fractionPattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	num, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	den, err := strconv.ParseFloat(m[2], 64)
	if err != nil || den == 0 {
		return 0
	}
	return num / den
}

// LeadingInches parses the number at the start of s, e.g. "50in" or "84 (+$12.00)".
func LeadingInches(s string) (float64, bool) {
	m := leadingNumberPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
