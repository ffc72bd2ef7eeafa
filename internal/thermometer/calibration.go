package thermometer

import (
	"fmt"
	"sort"

	"github.com/thermod-go/thermod/internal/status"
)

// Calibration is a piecewise-linear transform from a thermometer's raw
// reading to a reference temperature, grounded in
// original_source/thermod/thermometer.py's linearfit -- but generalised
// from a single global least-squares line to a piecewise-linear
// interpolation/extrapolation over the reference points (spec.md §4.2),
// which handles a thermometer whose bias is not uniform across its
// whole range.
type Calibration struct {
	raw []float64
	ref []float64
}

// NewCalibration builds a Calibration from parallel raw/ref points.
// When raw is empty, the returned Calibration is the identity transform
// (used for initial data collection, per spec.md §4.2) and ref is
// ignored. Otherwise raw and ref must have the same length of at least
// 2 and the raw values must be distinct; the points may be given in any
// order and are sorted by raw value.
func NewCalibration(raw, ref []float64) (Calibration, error) {
	if len(raw) == 0 {
		return Calibration{}, nil
	}
	if len(raw) != len(ref) {
		return Calibration{}, fmt.Errorf("%w: t_raw and t_ref must have the same number of elements", status.ErrInvalidContent)
	}
	if len(raw) < 2 {
		return Calibration{}, fmt.Errorf("%w: calibration requires at least 2 points", status.ErrInvalidContent)
	}

	points := make([][2]float64, len(raw))
	for i := range raw {
		points[i] = [2]float64{raw[i], ref[i]}
	}
	sort.Slice(points, func(i, j int) bool { return points[i][0] < points[j][0] })

	c := Calibration{raw: make([]float64, len(points)), ref: make([]float64, len(points))}
	for i, p := range points {
		if i > 0 && p[0] == points[i-1][0] {
			return Calibration{}, fmt.Errorf("%w: t_raw values must be distinct", status.ErrInvalidContent)
		}
		c.raw[i] = p[0]
		c.ref[i] = p[1]
	}
	return c, nil
}

// Apply transforms a raw reading into a calibrated one. The identity
// Calibration (zero value, or one built from an empty raw slice)
// returns its input unchanged.
func (c Calibration) Apply(raw float64) float64 {
	if len(c.raw) == 0 {
		return raw
	}

	n := len(c.raw)
	// Below the first point or above the last: extrapolate linearly
	// using the nearest two points.
	if raw <= c.raw[0] {
		return interpolate(c.raw[0], c.ref[0], c.raw[1], c.ref[1], raw)
	}
	if raw >= c.raw[n-1] {
		return interpolate(c.raw[n-2], c.ref[n-2], c.raw[n-1], c.ref[n-1], raw)
	}

	// Between two adjacent reference points: interpolate.
	i := sort.SearchFloat64s(c.raw, raw)
	if c.raw[i] == raw {
		return c.ref[i]
	}
	return interpolate(c.raw[i-1], c.ref[i-1], c.raw[i], c.ref[i], raw)
}

// interpolate returns the value of the line through (x0,y0) and (x1,y1) at x.
func interpolate(x0, y0, x1, y1, x float64) float64 {
	slope := (y1 - y0) / (x1 - x0)
	return y0 + slope*(x-x0)
}
