package convert

import (
	"math"
	"strconv"
	"strings"
)

// formatFloat renders f the way a JSON producer would write the number:
// plain decimal between 1e-6 and 1e21, exponent form outside, no padded
// exponent digits.
func formatFloat(f float64) (string, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	if f == 0 {
		return "0", true
	}

	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		return trimExponent(strconv.FormatFloat(f, 'e', -1, 64)), true
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}

// trimExponent turns Go's "1e-06" into "1e-6".
func trimExponent(s string) string {
	i := strings.IndexByte(s, 'e')
	if i < 0 || i+2 >= len(s) {
		return s
	}
	sign := s[i+1]
	exp := strings.TrimLeft(s[i+2:], "0")
	if exp == "" {
		exp = "0"
	}
	return s[:i+1] + string(sign) + exp
}
