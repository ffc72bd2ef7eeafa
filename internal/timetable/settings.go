package timetable

import (
	"encoding/json"
	"fmt"

	"github.com/thermod-go/thermod/internal/status"
)

// Settings is the JSON document persisted to the timetable file
// (spec.md §6): named temperatures, differential, optional grace time,
// current mode, HVAC mode, inertia, and the weekly program.
type Settings struct {
	Temperatures map[status.TemperatureName]float64 `json:"temperatures"`
	Differential float64                             `json:"differential"`
	GraceTime    *float64                            `json:"grace_time"`
	Mode         status.Mode                         `json:"mode"`
	HVACMode     status.HVACMode                      `json:"hvac_mode"`
	Inertia      status.Inertia                       `json:"inertia"`
	Program      Program                              `json:"timetable"`
}

// wireSettings mirrors Settings but with Inertia/Mode/HVACMode as raw
// JSON types so UnmarshalJSON can report InvalidContent rather than a
// generic encoding/json type error for a malformed field.
type wireSettings struct {
	Temperatures map[string]float64 `json:"temperatures"`
	Differential float64            `json:"differential"`
	GraceTime    *float64           `json:"grace_time"`
	Mode         string             `json:"mode"`
	HVACMode     string             `json:"hvac_mode"`
	Inertia      int                `json:"inertia"`
	Program      Program            `json:"timetable"`
}

// UnmarshalJSON decodes the wire schema and validates field-level
// syntax (known enum values, numeric ranges) but not cross-field
// semantics -- that is Settings.Validate's job, called separately so a
// caller can distinguish "malformed JSON" from "well-formed but
// inconsistent settings".
func (s *Settings) UnmarshalJSON(data []byte) error {
	var w wireSettings
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %v", status.ErrInvalidSyntax, err)
	}

	temps := make(map[status.TemperatureName]float64, len(w.Temperatures))
	for k, v := range w.Temperatures {
		name := status.TemperatureName(k)
		if !name.Valid() {
			return fmt.Errorf("%w: unknown temperature name %q", status.ErrInvalidContent, k)
		}
		temps[name] = v
	}

	mode, err := status.ParseMode(w.Mode)
	if err != nil {
		return err
	}
	hvac, err := status.ParseHVACMode(w.HVACMode)
	if err != nil {
		return err
	}
	inertia := status.Inertia(w.Inertia)
	if !inertia.Valid() {
		return fmt.Errorf("%w: inertia must be 1, 2 or 3, got %d", status.ErrInvalidContent, w.Inertia)
	}

	*s = Settings{
		Temperatures: temps,
		Differential: w.Differential,
		GraceTime:    w.GraceTime,
		Mode:         mode,
		HVACMode:     hvac,
		Inertia:      inertia,
		Program:      w.Program,
	}
	return nil
}

func (s Settings) MarshalJSON() ([]byte, error) {
	temps := make(map[string]float64, len(s.Temperatures))
	for k, v := range s.Temperatures {
		temps[k.String()] = v
	}
	return json.Marshal(wireSettings{
		Temperatures: temps,
		Differential: s.Differential,
		GraceTime:    s.GraceTime,
		Mode:         s.Mode.String(),
		HVACMode:     s.HVACMode.String(),
		Inertia:      int(s.Inertia),
		Program:      s.Program,
	})
}

// Validate checks the cross-field invariants of spec.md §3: the
// differential range, that all three named temperatures are present,
// and that the weekly program only names temperatures that exist.
// Unknown names in the program raise InvalidContent at load time, never
// at query time (spec.md §4.1).
func (s Settings) Validate() error {
	if s.Differential < 0 || s.Differential > 1 {
		return fmt.Errorf("%w: differential must be within [0,1], got %v", status.ErrInvalidContent, s.Differential)
	}
	if s.GraceTime != nil && *s.GraceTime < 0 {
		return fmt.Errorf("%w: grace_time must not be negative", status.ErrInvalidContent)
	}
	for _, name := range []status.TemperatureName{status.TMax, status.TMin, status.T0} {
		if _, ok := s.Temperatures[name]; !ok {
			return fmt.Errorf("%w: missing named temperature %q", status.ErrInvalidContent, name)
		}
	}
	return s.Program.Validate(s.Temperatures)
}
