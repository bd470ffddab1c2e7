package mealplan

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Quantity scaling for free-text ingredient amounts. Parsing is deliberately
// forgiving: anything that is not a plain number, a simple fraction or a mixed
// fraction ("1 1/2") passes through untouched, so ranges and notes like
// "to taste" survive rescaling unchanged.

var (
	mixedFractionPattern = regexp.MustCompile(`^(\d+)\s+(\d+)\s*/\s*(\d+)$`)
	fractionPattern      = regexp.MustCompile(`^(\d+)\s*/\s*(\d+)$`)
	decimalPattern       = regexp.MustCompile(`^\d*\.?\d+$`)
	spacesPattern        = regexp.MustCompile(`\s+`)
)

func normalizeQuantityText(s string) string {
	return strings.TrimSpace(spacesPattern.ReplaceAllString(s, " "))
}

// parseQuantity returns the numeric value of a quantity string, or false when
// the text is not a recognized number.
func parseQuantity(s string) (float64, bool) {
	normalized := normalizeQuantityText(s)
	if normalized == "" {
		return 0, false
	}

	if m := mixedFractionPattern.FindStringSubmatch(normalized); m != nil {
		whole, _ := strconv.ParseFloat(m[1], 64)
		numerator, _ := strconv.ParseFloat(m[2], 64)
		denominator, _ := strconv.ParseFloat(m[3], 64)
		if denominator == 0 {
			return 0, false
		}
		return whole + numerator/denominator, true
	}

	if m := fractionPattern.FindStringSubmatch(normalized); m != nil {
		numerator, _ := strconv.ParseFloat(m[1], 64)
		denominator, _ := strconv.ParseFloat(m[2], 64)
		if denominator == 0 {
			return 0, false
		}
		return numerator / denominator, true
	}

	if decimalPattern.MatchString(normalized) {
		parsed, err := strconv.ParseFloat(normalized, 64)
		if err != nil || math.IsInf(parsed, 0) {
			return 0, false
		}
		return parsed, true
	}

	return 0, false
}

func formatDecimalQuantity(value float64) string {
	rounded := math.Round(value*100) / 100
	if math.Abs(rounded-math.Round(rounded)) < 1e-6 {
		return strconv.Itoa(int(math.Round(rounded)))
	}
	s := strconv.FormatFloat(rounded, 'f', 2, 64)
	s = strings.TrimSuffix(s, "0")
	s = strings.TrimSuffix(s, "0")
	s = strings.TrimSuffix(s, ".")
	return s
}

// formatFractionQuantity renders value in fraction notation, searching
// denominators 2..16 for the closest approximation of the fractional part.
func formatFractionQuantity(value float64) string {
	positive := math.Max(0, value)
	whole := int(math.Floor(positive))
	fractional := positive - float64(whole)

	if fractional < 1e-6 {
		return strconv.Itoa(whole)
	}

	bestNumerator := 0
	bestDenominator := 1
	smallestError := math.Inf(1)

	for denominator := 2; denominator <= 16; denominator++ {
		numerator := int(math.Round(fractional * float64(denominator)))
		if numerator == 0 {
			continue
		}
		approximation := float64(numerator) / float64(denominator)
		if err := math.Abs(approximation - fractional); err < smallestError {
			smallestError = err
			bestNumerator = numerator
			bestDenominator = denominator
		}
	}

	if bestNumerator == 0 {
		return formatDecimalQuantity(positive)
	}
	if bestNumerator == bestDenominator {
		return strconv.Itoa(whole + 1)
	}
	if whole == 0 {
		return strconv.Itoa(bestNumerator) + "/" + strconv.Itoa(bestDenominator)
	}
	return strconv.Itoa(whole) + " " + strconv.Itoa(bestNumerator) + "/" + strconv.Itoa(bestDenominator)
}

// ScaleQuantity rescales a free-text quantity from one serving count to
// another, preserving the original notation (fraction in, fraction out).
// It never fails: unparseable text, missing or non-positive serving counts
// and equal counts all return the input unchanged.
func ScaleQuantity(quantity string, fromServings, toServings *int) string {
	trimmed := strings.TrimSpace(quantity)
	if trimmed == "" || fromServings == nil || toServings == nil ||
		*fromServings <= 0 || *toServings <= 0 {
		return quantity
	}
	if *fromServings == *toServings {
		return quantity
	}

	parsed, ok := parseQuantity(trimmed)
	if !ok {
		return quantity
	}

	scaled := parsed * float64(*toServings) / float64(*fromServings)
	if math.IsInf(scaled, 0) || math.IsNaN(scaled) || scaled <= 0 {
		return quantity
	}

	if strings.Contains(trimmed, "/") {
		return formatFractionQuantity(scaled)
	}
	return formatDecimalQuantity(scaled)
}

// ScaleIngredients rescales every quantity in a list of ingredient quantity
// strings, leaving unparseable entries untouched.
func ScaleIngredients(quantities []string, fromServings, toServings *int) []string {
	out := make([]string, len(quantities))
	for i, q := range quantities {
		out[i] = ScaleQuantity(q, fromServings, toServings)
	}
	return out
}
