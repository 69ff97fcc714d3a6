package scoring

import "math"

// Default clamp range and flags.
const (
	DefaultClampMin = 6.0
	DefaultClampMax = 10.0
)

// Resolver maps a percentile to a final score.
type Resolver struct {
	Thresholds   Thresholds
	ClampMin     float64
	ClampMax     float64
	QuarterRound bool
	Interpolate  bool
}

// DefaultResolver uses the default thresholds, a 6-10 range, quarter
// rounding and step scoring.
func DefaultResolver() Resolver {
	return Resolver{
		Thresholds:   DefaultThresholds(),
		ClampMin:     DefaultClampMin,
		ClampMax:     DefaultClampMax,
		QuarterRound: true,
	}
}

// Resolve returns the score for percentile p. p is not required to be in
// [0,1]; the result always lies within [ClampMin, ClampMax]. When
// ClampMax <= ClampMin the range is degenerate and ClampMin is returned.
func (r Resolver) Resolve(p float64) float64 {
	if r.ClampMax <= r.ClampMin {
		return r.ClampMin
	}

	score := r.raw(p)
	if math.IsNaN(score) {
		return r.ClampMin
	}
	score = math.Max(r.ClampMin, math.Min(r.ClampMax, score))
	if r.QuarterRound {
		score = r.quantize(score)
	}
	return score
}

// raw applies the step or interpolation policy without clamping.
func (r Resolver) raw(p float64) float64 {
	pts := r.Thresholds
	if len(pts) == 0 {
		return r.ClampMin
	}

	lo, hi := bracket(pts, p)
	if !r.Interpolate || lo.Percentile == hi.Percentile {
		if p >= lo.Percentile {
			return lo.Score
		}
		return hi.Score
	}

	t := (p - lo.Percentile) / (hi.Percentile - lo.Percentile)
	return lo.Score + t*(hi.Score-lo.Score)
}

// bracket finds the last point at or below p and the first point at or
// above p, scanning ascending and stopping at the upper one. Missing sides
// default to the first and last points.
func bracket(pts Thresholds, p float64) (lo, hi Point) {
	lo, hi = pts[0], pts[len(pts)-1]
	for _, pt := range pts {
		if pt.Percentile <= p {
			lo = pt
		}
		if pt.Percentile >= p {
			hi = pt
			break
		}
	}
	return lo, hi
}

// quantize rounds to a quarter, stepping back inside the clamp range if the
// rounding left it. When no quarter fits in the range the value is kept.
func (r Resolver) quantize(score float64) float64 {
	q := RoundQuarter(score)
	switch {
	case q > r.ClampMax:
		q = math.Floor(r.ClampMax*4) / 4
	case q < r.ClampMin:
		q = math.Ceil(r.ClampMin*4) / 4
	}
	if q < r.ClampMin || q > r.ClampMax {
		return score
	}
	return q
}

// RoundQuarter rounds x to the nearest multiple of 0.25. Exact halfway
// values (x.125, x.375, ...) go to the even quarter-count, so 8.125 -> 8.0
// and 8.375 -> 8.5.
func RoundQuarter(x float64) float64 {
	return math.RoundToEven(x*4) / 4
}
