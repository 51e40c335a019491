package ingest

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	amountRegex     = regexp.MustCompile(`\$\s*(\d{1,3}(?:,\d{3})+|\d+)(?:\.(\d+))?\s*(million|m|thousand|k)?\b`)
	multiplierWords = map[string]float64{"million": 1e6, "m": 1e6, "thousand": 1e3, "k": 1e3}
)

// parseAmount extracts the largest dollar amount mentioned in text, such as a
// challenge's total prize purse ("$1.5 million in prizes", "Up to $50,000").
// It returns 0 when no amount is found.
func parseAmount(text string) float64 {
	if !strings.ContainsAny(text, "0123456789") {
		return 0
	}

	var max float64
	for _, m := range amountRegex.FindAllStringSubmatch(strings.ToLower(text), -1) {
		whole := strings.ReplaceAll(m[1], ",", "")
		num := whole
		if m[2] != "" {
			num += "." + m[2]
		}
		val, err := strconv.ParseFloat(num, 64)
		if err != nil {
			continue
		}
		if mult, ok := multiplierWords[m[3]]; ok {
			val *= mult
		}
		if val > max {
			max = val
		}
	}
	return max
}

// amountFromAny reads numeric or textual amounts from decoded JSON.
func amountFromAny(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case string:
		if v := parseAmount(x); v > 0 {
			return v
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(x), ",", ""), 64)
		if err != nil {
			return 0
		}
		return v
	default:
		return 0
	}
}
