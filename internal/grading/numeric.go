package grading

import (
	"errors"
	"math"
	"strings"
)

// withinTolerance reports |got - want| <= tol.
func withinTolerance(got, want, tol float64) bool {
	return math.Abs(got-want) <= tol
}

// ClampManual clamps a teacher-entered score into [0, maxScore]. A nil or NaN
// score counts as not supplied.
func ClampManual(manual *float64, maxScore float64) (float64, bool) {
	if manual == nil || math.IsNaN(*manual) {
		return 0, false
	}
	return clamp(*manual, 0, sanitizeMax(maxScore)), true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func trimSpace(s string) string { return strings.TrimSpace(s) }

func isUnknownType(err error) bool { return errors.Is(err, ErrUnknownType) }
