package thermometer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/thermod-go/thermod/internal/status"
)

// scriptOutput is the wire schema a thermometer script must print to
// stdout, grounded in original_source/thermod/thermometer.py's
// ScriptThermometer (JSON_TEMPERATURE / JSON_ERROR fields).
type scriptOutput struct {
	Temperature json.Number `json:"temperature"`
	Error       string      `json:"error"`
}

// Script reads the temperature by spawning an external command and
// parsing its JSON stdout. The command must exit 0 on success, non-zero
// on error, and its args[0] is reported in any ScriptError.
type Script struct {
	Args        []string
	Scale       status.Scale
	Calibration Calibration
	Logger      *slog.Logger
}

// NewScript builds a Script thermometer source. args must be non-empty.
func NewScript(args []string, scale status.Scale, calib Calibration, logger *slog.Logger) (*Script, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: thermometer script requires at least a command path", status.ErrConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Script{Args: args, Scale: scale, Calibration: calib, Logger: logger.With(slog.String("component", "thermometer.script"))}, nil
}

func (s *Script) Temperature(ctx context.Context) (float64, error) {
	cmd := exec.CommandContext(ctx, s.Args[0], s.Args[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	var out scriptOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		reason := "the thermometer script produced invalid output"
		if runErr != nil {
			reason = fmt.Sprintf("the thermometer script exited with an error and the output is invalid: %v", runErr)
		}
		return 0, &status.ScriptError{Script: s.Args[0], Sub: errors.New(reason)}
	}

	if runErr != nil {
		reason := out.Error
		if reason == "" {
			reason = fmt.Sprintf("the thermometer script exited with an error: %v", runErr)
		}
		s.Logger.Debug("script exited with error", slog.Any("err", runErr), slog.String("stderr", stderr.String()))
		return 0, &status.ThermometerError{Reason: reason, Sub: &status.ScriptError{Script: s.Args[0], Sub: runErr}}
	}

	raw, err := out.Temperature.Float64()
	if err != nil {
		return 0, &status.ScriptError{Script: s.Args[0], Sub: fmt.Errorf("temperature field is not numeric: %w", err)}
	}

	return s.Calibration.Apply(raw), nil
}

func (s *Script) Close() error { return nil }
