package socket

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/thermod-go/thermod/internal/status"
	"github.com/thermod-go/thermod/internal/timetable"
)

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Version string `json:"version"`
	}{Version: s.version})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.haveAny {
		writeError(w, http.StatusServiceUnavailable, "no status available yet", "")
		return
	}
	writeJSON(w, http.StatusOK, s.last)
}

// handleInfo serves the legacy "bag of info" passthrough for any other
// GET path, returning the same snapshot as GET /status
// (spec.md §4.5's "GET /{info} | bag-of-info passthrough").
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusNotFound, "not found", "")
		return
	}
	s.handleStatus(w, r)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.timetable.Settings())
}

// settingsUpdate decodes the POST /settings body generically: exactly
// one of these top-level keys must be present (spec.md §4.5).
type settingsUpdate map[string]json.RawMessage

func (s *Server) handlePostSettings(w http.ResponseWriter, r *http.Request) {
	var body settingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body", err.Error())
		return
	}
	if len(body) != 1 {
		writeError(w, http.StatusBadRequest, "exactly one settings field must be provided", fmt.Sprintf("got %d", len(body)))
		return
	}

	if !s.masterLock.TryLock() {
		writeError(w, http.StatusLocked, "settings are locked by a concurrent operation", "")
		return
	}
	defer s.masterLock.Unlock()

	for key, raw := range body {
		if err := s.applySetting(key, raw); err != nil {
			writeErrorForErr(w, err)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) applySetting(key string, raw json.RawMessage) error {
	switch key {
	case "mode":
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("%w: mode must be a string", status.ErrJSONValue)
		}
		mode, err := status.ParseMode(v)
		if err != nil {
			return err
		}
		return s.timetable.SetMode(mode)

	case "hvac_mode":
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("%w: hvac_mode must be a string", status.ErrJSONValue)
		}
		hvac, err := status.ParseHVACMode(v)
		if err != nil {
			return err
		}
		return s.timetable.SetHVACMode(hvac)

	case "differential":
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("%w: differential must be a number", status.ErrJSONValue)
		}
		return s.timetable.SetDifferential(v)

	case "grace_time":
		var v *float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("%w: grace_time must be a number or null", status.ErrJSONValue)
		}
		return s.timetable.SetGraceTime(v)

	case "temperatures":
		var v map[string]float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("%w: temperatures must be an object of name to number", status.ErrJSONValue)
		}
		for name, value := range v {
			if err := s.timetable.SetTemperature(status.TemperatureName(name), value); err != nil {
				return err
			}
		}
		return nil

	case "timetable":
		var v timetable.Program
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("%w: %v", status.ErrJSONValue, err)
		}
		return s.timetable.SetProgram(v)

	case "settings":
		var v timetable.Settings
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("%w: %v", status.ErrJSONValue, err)
		}
		return s.timetable.SetSettings(v)

	default:
		return fmt.Errorf("%w: unknown settings field %q", status.ErrValidation, key)
	}
}
