package status

import (
	"encoding/json"
	"log/slog"
	"math"
	"strconv"
	"time"
)

// ThermodStatus is the immutable snapshot emitted to monitors on every
// control cycle, or whenever the cycle hits an error.
type ThermodStatus struct {
	Timestamp   time.Time `json:"timestamp"`
	Mode        Mode      `json:"mode"`
	HVACMode    HVACMode  `json:"hvac_mode"`
	Current     float64   `json:"current_temperature"`
	Target      float64   `json:"target_temperature"`
	ActuatorOn  bool      `json:"status"`
	Error       string    `json:"error,omitempty"`
	Explanation string    `json:"explain,omitempty"`
}

// wireThermodStatus mirrors ThermodStatus but with Target as a string
// for the two infinities, since encoding/json cannot represent them
// numerically (Target is +Inf/-Inf whenever mode=off, per spec.md §3).
type wireThermodStatus struct {
	Timestamp   time.Time `json:"timestamp"`
	Mode        Mode      `json:"mode"`
	HVACMode    HVACMode  `json:"hvac_mode"`
	Current     float64   `json:"current_temperature"`
	Target      string    `json:"target_temperature"`
	ActuatorOn  bool      `json:"status"`
	Error       string    `json:"error,omitempty"`
	Explanation string    `json:"explain,omitempty"`
}

func (s ThermodStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireThermodStatus{
		Timestamp:   s.Timestamp,
		Mode:        s.Mode,
		HVACMode:    s.HVACMode,
		Current:     s.Current,
		Target:      formatTemperature(s.Target),
		ActuatorOn:  s.ActuatorOn,
		Error:       s.Error,
		Explanation: s.Explanation,
	})
}

func (s *ThermodStatus) UnmarshalJSON(data []byte) error {
	var w wireThermodStatus
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	target, err := parseTemperature(w.Target)
	if err != nil {
		return err
	}
	*s = ThermodStatus{
		Timestamp:   w.Timestamp,
		Mode:        w.Mode,
		HVACMode:    w.HVACMode,
		Current:     w.Current,
		Target:      target,
		ActuatorOn:  w.ActuatorOn,
		Error:       w.Error,
		Explanation: w.Explanation,
	}
	return nil
}

func formatTemperature(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	default:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
}

func parseTemperature(s string) (float64, error) {
	switch s {
	case "+Inf":
		return PositiveInfinity, nil
	case "-Inf":
		return NegativeInfinity, nil
	default:
		return strconv.ParseFloat(s, 64)
	}
}

// ActuatorStatus returns the snapshot's actuator state as 0/1. The JSON
// encoding carries the same state as a boolean "status" field.
func (s ThermodStatus) ActuatorStatus() int {
	if s.ActuatorOn {
		return 1
	}
	return 0
}

// LogValue renders the status for structured logging, following the
// teacher's slog.LogValuer pattern (internal/poller/update.go).
func (s ThermodStatus) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("mode", s.Mode.String()),
		slog.String("hvac_mode", s.HVACMode.String()),
		slog.Float64("current", s.Current),
		slog.Float64("target", s.Target),
		slog.Bool("actuator_on", s.ActuatorOn),
	}
	if s.Error != "" {
		attrs = append(attrs, slog.String("error", s.Error))
	}
	return slog.GroupValue(attrs...)
}

// PositiveInfinity and NegativeInfinity are the sentinel target
// temperatures used when the mode dictates the actuator is always off
// in the given direction (spec.md §3: "may be -Inf when mode = off or
// +Inf when cooling is off").
var (
	PositiveInfinity = math.Inf(1)
	NegativeInfinity = math.Inf(-1)
)
