package actuator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/thermod-go/thermod/internal/status"
)

// scriptResult is the wire schema a switch/status script must print to
// stdout, grounded in original_source/thermod/heating.py's ScriptHeating
// (SUCCESS / STATUS / ERROR fields).
type scriptResult struct {
	Success bool        `json:"success"`
	Status  json.Number `json:"status"`
	Error   string      `json:"error"`
}

// Script drives the plant through three external commands: one each
// for switch-on, switch-off and status. The status command is
// optional: when absent, Status returns a cached value and Script
// issues an explicit SwitchOff at construction time so the daemon
// starts from a known state (spec.md §4.3).
type Script struct {
	onArgs, offArgs, statusArgs []string
	logger                      *slog.Logger

	mu          sync.Mutex
	cachedOn    bool
	lastOffTime time.Time
}

// NewScript builds a Script actuator. statusArgs may be nil to opt out
// of a status script, in which case SwitchOff is called once
// immediately to establish a known starting state.
func NewScript(ctx context.Context, onArgs, offArgs, statusArgs []string, logger *slog.Logger) (*Script, error) {
	if len(onArgs) == 0 || len(offArgs) == 0 {
		return nil, fmt.Errorf("%w: actuator requires both a switch-on and switch-off command", status.ErrConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Script{
		onArgs:      onArgs,
		offArgs:     offArgs,
		statusArgs:  statusArgs,
		logger:      logger.With(slog.String("component", "actuator.script")),
		lastOffTime: time.Time{},
	}
	if len(statusArgs) == 0 {
		s.logger.Debug("no status script configured, forcing a known off state at startup")
		if err := s.SwitchOff(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Script) run(ctx context.Context, args []string, verb string) (scriptResult, error) {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()

	var out scriptResult
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		reason := fmt.Sprintf("the %s script produced invalid output", verb)
		if runErr != nil {
			reason = fmt.Sprintf("the %s script exited with an error and the output is invalid: %v", verb, runErr)
		}
		return scriptResult{}, &status.ScriptError{Script: args[0], Sub: errors.New(reason)}
	}
	if runErr != nil || !out.Success {
		reason := out.Error
		if reason == "" {
			reason = fmt.Sprintf("the %s script exited with an error", verb)
		}
		s.logger.Debug("script reported failure", slog.String("verb", verb), slog.String("stderr", stderr.String()))
		return out, &status.HeatingError{Reason: fmt.Sprintf("%s: %s", verb, reason), Sub: &status.ScriptError{Script: args[0], Sub: runErr}}
	}
	return out, nil
}

func (s *Script) SwitchOn(ctx context.Context) error {
	if _, err := s.run(ctx, s.onArgs, "switch-on"); err != nil {
		return err
	}
	s.mu.Lock()
	s.cachedOn = true
	s.mu.Unlock()
	return nil
}

func (s *Script) SwitchOff(ctx context.Context) error {
	if _, err := s.run(ctx, s.offArgs, "switch-off"); err != nil {
		return err
	}
	s.mu.Lock()
	s.cachedOn = false
	s.lastOffTime = time.Now()
	s.mu.Unlock()
	return nil
}

func (s *Script) Status(ctx context.Context) (bool, error) {
	if len(s.statusArgs) == 0 {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.cachedOn, nil
	}

	out, err := s.run(ctx, s.statusArgs, "status")
	if err != nil {
		return false, err
	}
	n, err := out.Status.Int64()
	if err != nil {
		return false, &status.ScriptError{Script: s.statusArgs[0], Sub: fmt.Errorf("status field is not an integer: %w", err)}
	}

	on := n != 0
	s.mu.Lock()
	s.cachedOn = on
	s.mu.Unlock()
	return on, nil
}

func (s *Script) LastOffTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastOffTime
}

func (s *Script) Close() error { return nil }
