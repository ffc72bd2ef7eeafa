package timetable

import "github.com/thermod-go/thermod/internal/status"

// thresholds returns the (onAt, offAt) temperatures bounding the dead
// zone for the given HVAC mode and inertia strategy, per the table in
// spec.md §3. For heating, the actuator switches on at or below onAt
// and off at or above offAt (onAt <= offAt); for cooling the comparison
// direction is mirrored around target.
func thresholds(hvac status.HVACMode, inertia status.Inertia, target, diff float64) (onAt, offAt float64) {
	var k1, k2 float64
	switch inertia {
	case status.Inertia1:
		k1, k2 = 1, 1
	case status.Inertia2:
		k1, k2 = 2, 0
	case status.Inertia3:
		k1, k2 = 2, -1
	}
	if hvac == status.Heating {
		return target - k1*diff, target + k2*diff
	}
	return target + k1*diff, target - k2*diff
}

// shouldBeOn applies the hysteresis/latching rule of spec.md §3 and §8
// (invariants 1 and 2): monotone within the dead zone, and latched to
// the prior actuator state strictly inside it.
func shouldBeOn(hvac status.HVACMode, inertia status.Inertia, target, diff, current float64, prevOn bool) bool {
	onAt, offAt := thresholds(hvac, inertia, target, diff)
	if hvac == status.Heating {
		switch {
		case current <= onAt:
			return true
		case current >= offAt:
			return false
		default:
			return prevOn
		}
	}
	switch {
	case current >= onAt:
		return true
	case current <= offAt:
		return false
	default:
		return prevOn
	}
}
