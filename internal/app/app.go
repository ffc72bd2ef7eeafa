// Package app wires the daemon together: it turns a config.Daemon and
// config.Pipeline into a running taskmanager.Manager, grounded in the
// teacher's internal/app/app.go (tado.New -> makeTasks ->
// taskmanager.New) and internal/cmd/monitor/monitor.go.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/clambin/go-common/taskmanager"
	"github.com/clambin/go-common/taskmanager/httpserver"
	promserver "github.com/clambin/go-common/taskmanager/prometheus"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/thermod-go/thermod/internal/actuator"
	"github.com/thermod-go/thermod/internal/config"
	"github.com/thermod-go/thermod/internal/cycle"
	"github.com/thermod-go/thermod/internal/metrics"
	"github.com/thermod-go/thermod/internal/socket"
	"github.com/thermod-go/thermod/internal/status"
	"github.com/thermod-go/thermod/internal/thermometer"
	"github.com/thermod-go/thermod/internal/timetable"
	"github.com/thermod-go/thermod/pkg/pubsub"
)

// Daemon bundles the constructed components a running thermod needs,
// returned by New alongside the taskmanager.Manager so main.go can
// still reach the cycle directly for SIGHUP reloads.
type Daemon struct {
	Manager   *taskmanager.Manager
	Cycle     *cycle.Cycle
	Timetable *timetable.TimeTable
}

// New builds every daemon component from cfg/pipeline and returns a
// ready-to-run taskmanager.Manager, mirroring the teacher's
// app.New(cfg, version, registry, logger).
func New(cfg config.Daemon, pipeline config.Pipeline, version string, registry prometheus.Registerer, logger *slog.Logger) (*Daemon, error) {
	tt := timetable.New()
	if err := tt.Load(cfg.TTFile); err != nil {
		return nil, fmt.Errorf("timetable: %w", err)
	}

	therm, err := buildThermometer(pipeline.Thermometer, cfg.Scale, logger)
	if err != nil {
		return nil, fmt.Errorf("thermometer pipeline: %w", err)
	}

	act, err := buildActuator(pipeline.Actuator, logger)
	if err != nil {
		return nil, fmt.Errorf("actuator: %w", err)
	}

	masterLock := &sync.Mutex{}
	publisher := pubsub.New[status.ThermodStatus](cfg.MonitorBacklog, logger.With(slog.String("component", "pubsub")))

	cyc := &cycle.Cycle{
		TimeTable:    tt,
		Thermometer:  therm,
		Actuator:     act,
		Publisher:    publisher,
		MasterLock:   masterLock,
		Interval:     cfg.Interval,
		SleepOnError: cfg.SleepOnError,
		OpTimeout:    cfg.OpTimeout,
		Logger:       logger.With(slog.String("component", "cycle")),
	}

	var tasks []taskmanager.Task
	tasks = append(tasks, cyc)

	sock := socket.New(tt, publisher, masterLock, version, logger)
	addr := fmt.Sprintf("%s:%d", cfg.SocketHost, cfg.SocketPort)
	mux := http.NewServeMux()
	mux.Handle("/", sock)
	tasks = append(tasks, httpserver.New(addr, mux))
	tasks = append(tasks, sock)

	coll := &metrics.Collector{Publisher: publisher, Logger: logger.With(slog.String("component", "metrics"))}
	if registry != nil {
		registry.MustRegister(coll)
	}
	tasks = append(tasks, coll)
	tasks = append(tasks, promserver.New(promserver.WithAddr(cfg.MetricsAddr)))

	return &Daemon{
		Manager:   taskmanager.New(tasks...),
		Cycle:     cyc,
		Timetable: tt,
	}, nil
}

// buildThermometer constructs the Source -> ScaleAdapter ->
// SimilarityChecker -> AveragingTask decorator chain of spec.md §4.2,
// in that fixed order.
func buildThermometer(cfg config.ThermometerConfig, scale status.Scale, logger *slog.Logger) (thermometer.Source, error) {
	calib, err := thermometer.NewCalibration(cfg.Calibration.Raw, cfg.Calibration.Ref)
	if err != nil {
		return nil, fmt.Errorf("calibration: %w", err)
	}

	var source thermometer.Source
	var sourceScale status.Scale

	switch {
	case cfg.Fake != nil:
		f := thermometer.NewFake(status.Celsius)
		f.Temp = cfg.Fake.Initial
		source, sourceScale = f, status.Celsius

	case cfg.Script != nil:
		s, err := thermometer.NewScript(cfg.Script.Args, status.Celsius, calib, logger)
		if err != nil {
			return nil, err
		}
		source, sourceScale = s, status.Celsius

	case cfg.Board != nil:
		channels := make([]thermometer.ChannelReader, len(cfg.Board.Channels))
		for i, path := range cfg.Board.Channels {
			channels[i] = thermometer.FileChannelReader{Path: path}
		}
		b, err := thermometer.NewAnalogBoard(channels, cfg.Board.StdDev, calib, logger)
		if err != nil {
			return nil, err
		}
		source, sourceScale = b, status.Celsius

	case cfg.OneWire != nil:
		w, err := thermometer.NewOneWire(cfg.OneWire.Paths, cfg.OneWire.StdDev, calib, logger)
		if err != nil {
			return nil, err
		}
		source, sourceScale = w, status.Celsius

	default:
		return nil, fmt.Errorf("%w: no thermometer source configured", status.ErrConfig)
	}

	pipeline := thermometer.Source(thermometer.NewScaleAdapter(source, sourceScale, scale))

	if cfg.Similarity != nil {
		pipeline = thermometer.NewSimilarityChecker(pipeline, cfg.Similarity.QueueLength, cfg.Similarity.Delta)
	}

	if cfg.Averaging != nil {
		task, err := thermometer.NewAveragingTask(context.Background(), pipeline,
			cfg.Averaging.Interval, cfg.Averaging.Window, cfg.Averaging.Skip, cfg.Averaging.SleepOnError, logger)
		if err != nil {
			return nil, err
		}
		pipeline = task
	}

	return pipeline, nil
}

// buildActuator constructs the Script or GPIORelay actuator of
// spec.md §4.3.
func buildActuator(cfg config.ActuatorConfig, logger *slog.Logger) (actuator.Actuator, error) {
	switch {
	case cfg.Script != nil:
		return actuator.NewScript(context.Background(), cfg.Script.On, cfg.Script.Off, cfg.Script.Status, logger)

	case cfg.GPIO != nil:
		pins := make([]actuator.Pin, len(cfg.GPIO.Pins))
		for i, name := range cfg.GPIO.Pins {
			bcm, err := actuator.ParsePinName(name)
			if err != nil {
				return nil, err
			}
			pin, err := actuator.NewRPIOPin(bcm)
			if err != nil {
				return nil, fmt.Errorf("gpio pin %s: %w", name, err)
			}
			pins[i] = pin
		}
		return actuator.NewGPIORelay(pins, cfg.GPIO.TriggerHigh, logger)

	default:
		return nil, fmt.Errorf("%w: no actuator configured", status.ErrConfig)
	}
}
