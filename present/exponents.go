package present

import (
	"math"
	"strconv"
	"strings"

	mandel "github.com/marben/lanemandel"
)

// maxSweep bounds the number of exponents a range may expand to.
const maxSweep = 10000

// ParseExponents reads an exponent sweep.
// "start:stop:step" yields start, start+step, ... below stop, so "2:10:1" is 2..9.
// Otherwise s is a comma separated list, e.g. "2" or "2,2.5,3".
func ParseExponents(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, mandel.NewConfigError("exponents", s, "empty")
	}

	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		if len(parts) != 3 {
			return nil, mandel.NewConfigError("exponents", s, "want start:stop:step")
		}
		var nums [3]float64
		for i, p := range parts {
			f, err := parseExponent(p)
			if err != nil {
				return nil, err
			}
			nums[i] = f
		}
		start, stop, step := nums[0], nums[1], nums[2]
		if stop <= start {
			return nil, mandel.NewConfigError("exponents", s, "stop must be above start")
		}
		// the epsilon keeps 2:3:0.1 from gaining an 11th value through rounding
		n := int(math.Ceil((stop-start)/step - 1e-9))
		if n > maxSweep {
			return nil, mandel.NewConfigError("exponents", s, "too many steps")
		}
		out := make([]float64, 0, n)
		for i := range n {
			out = append(out, start+float64(i)*step)
		}
		return out, nil
	}

	var out []float64
	for _, p := range strings.Split(s, ",") {
		f, err := parseExponent(p)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func parseExponent(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, mandel.NewConfigError("exponents", s, "not a number")
	}
	if f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, mandel.NewConfigError("exponents", s, "must be positive")
	}
	return f, nil
}
