package analysis

import (
	"math"
	"strconv"
)

// DefaultScale is the assumed point scale of an empty histogram.
const DefaultScale = 10

// Buckets per histogram.
const Buckets = 5

// boundaryEpsilon absorbs float error at bucket edges (0.6/0.2 < 3).
const boundaryEpsilon = 1e-9

type Bucket struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

type Histogram struct {
	Buckets   []Bucket `json:"buckets"`
	Scale     float64  `json:"scale"`
	Eligible  int      `json:"eligible"`
	ZeroCount int      `json:"zero_count"`
	FullCount int      `json:"full_count"`
}

// NewHistogram spans [0, scale] with equal-width buckets. Buckets are
// left-inclusive and right-exclusive except the last, which is closed.
func NewHistogram(scale float64) Histogram {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		scale = DefaultScale
	}
	width := scale / Buckets
	h := Histogram{Buckets: make([]Bucket, Buckets), Scale: scale}
	for i := range h.Buckets {
		lo, hi := float64(i)*width, float64(i+1)*width
		if i == Buckets-1 {
			hi = scale
		}
		h.Buckets[i] = Bucket{Label: formatBound(lo) + " - " + formatBound(hi), Min: lo, Max: hi}
	}
	return h
}

// Add counts v. Values above the scale land in the last bucket.
func (h *Histogram) Add(v float64) {
	h.Eligible++
	if v == 0 {
		h.ZeroCount++
	}
	if v >= h.Scale {
		h.FullCount++
	}
	width := h.Scale / Buckets
	idx := int(math.Floor(v/width + boundaryEpsilon))
	if idx < 0 {
		idx = 0
	}
	if idx >= Buckets {
		idx = Buckets - 1
	}
	h.Buckets[idx].Count++
}

func formatBound(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}
