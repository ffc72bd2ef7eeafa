// Package config loads the daemon-level configuration: everything
// other than the timetable itself (spec.md §4.1's settings document
// has its own loader in internal/timetable). Scalar daemon settings
// (debug, interval, host/port, scale) are exposed through viper via
// charmer.Arguments, grounded in the teacher's internal/cmd/cmd.go;
// the thermometer/actuator pipeline, which needs nested structure
// charmer's flat flag model cannot express, is a YAML document loaded
// the way the teacher's internal/configuration/configuration.go loads
// the zone-rules file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/clambin/go-common/charmer"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/thermod-go/thermod/internal/status"
)

// Args declares the daemon's scalar command-line/viper-bound settings
// and their defaults, following the teacher's charmer.Arguments table
// (internal/cmd/cmd.go).
var Args = charmer.Arguments{
	"debug":           {Default: false, Help: "Log debug messages"},
	"tt-file":         {Default: "/etc/thermod/timetable.json", Help: "Path to the timetable JSON file"},
	"pipeline-file":   {Default: "/etc/thermod/pipeline.yaml", Help: "Path to the thermometer/actuator pipeline YAML file"},
	"interval":        {Default: 60 * time.Second, Help: "Control cycle interval"},
	"sleep-on-error":  {Default: 5 * time.Second, Help: "Backoff applied after a transient cycle error"},
	"op-timeout":      {Default: 10 * time.Second, Help: "Timeout for a single external operation within a cycle step"},
	"scale":           {Default: "celsius", Help: "Working temperature scale (celsius|fahrenheit)"},
	"socket.host":     {Default: "", Help: "Address the control socket listens on"},
	"socket.port":     {Default: 4344, Help: "Port the control socket listens on"},
	"metrics.addr":    {Default: ":9110", Help: "Address of the Prometheus metrics endpoint"},
	"monitor.backlog": {Default: 8, Help: "Per-monitor outbound queue length"},
}

// Daemon holds the scalar settings read from viper.
type Daemon struct {
	Debug          bool
	TTFile         string
	PipelineFile   string
	Interval       time.Duration
	SleepOnError   time.Duration
	OpTimeout      time.Duration
	Scale          status.Scale
	SocketHost     string
	SocketPort     int
	MetricsAddr    string
	MonitorBacklog int
}

// FromViper reads the scalar daemon settings bound by Args.
func FromViper(v *viper.Viper) (Daemon, error) {
	scale, err := status.ParseScale(v.GetString("scale"))
	if err != nil {
		return Daemon{}, fmt.Errorf("%w: %v", status.ErrConfig, err)
	}
	return Daemon{
		Debug:          v.GetBool("debug"),
		TTFile:         v.GetString("tt-file"),
		PipelineFile:   v.GetString("pipeline-file"),
		Interval:       v.GetDuration("interval"),
		SleepOnError:   v.GetDuration("sleep-on-error"),
		OpTimeout:      v.GetDuration("op-timeout"),
		Scale:          scale,
		SocketHost:     v.GetString("socket.host"),
		SocketPort:     v.GetInt("socket.port"),
		MetricsAddr:    v.GetString("metrics.addr"),
		MonitorBacklog: v.GetInt("monitor.backlog"),
	}, nil
}

// ThermometerConfig describes how to build the thermometer pipeline:
// exactly one of Fake/Script/Board/OneWire names the source, wrapped
// by the optional decorators in the fixed order of spec.md §4.2
// (ScaleAdapter is always applied; SimilarityChecker and
// AveragingTask are opt-in).
type ThermometerConfig struct {
	Fake    *FakeSourceConfig    `yaml:"fake"`
	Script  *ScriptSourceConfig  `yaml:"script"`
	Board   *BoardSourceConfig   `yaml:"board"`
	OneWire *OneWireSourceConfig `yaml:"onewire"`

	Calibration struct {
		Raw []float64 `yaml:"raw"`
		Ref []float64 `yaml:"ref"`
	} `yaml:"calibration"`

	Similarity *SimilarityConfig `yaml:"similarity"`
	Averaging  *AveragingConfig  `yaml:"averaging"`
}

type FakeSourceConfig struct {
	Initial float64 `yaml:"initial"`
}

type ScriptSourceConfig struct {
	Args []string `yaml:"args"`
}

type BoardSourceConfig struct {
	Channels []string `yaml:"channels"` // paths or device identifiers, one per ChannelReader
	StdDev   float64  `yaml:"stddev"`
}

type OneWireSourceConfig struct {
	Paths  []string `yaml:"paths"`
	StdDev float64  `yaml:"stddev"`
}

type SimilarityConfig struct {
	QueueLength int     `yaml:"queue_length"`
	Delta       float64 `yaml:"delta"`
}

type AveragingConfig struct {
	Interval     time.Duration `yaml:"interval"`
	Window       time.Duration `yaml:"window"`
	Skip         float64       `yaml:"skip"`
	SleepOnError time.Duration `yaml:"sleep_on_error"`
}

// ActuatorConfig describes how to build the actuator: exactly one of
// Script/GPIO (spec.md §4.3).
type ActuatorConfig struct {
	Script *ScriptActuatorConfig `yaml:"script"`
	GPIO   *GPIOActuatorConfig   `yaml:"gpio"`
}

type ScriptActuatorConfig struct {
	On     []string `yaml:"on"`
	Off    []string `yaml:"off"`
	Status []string `yaml:"status"`
}

type GPIOActuatorConfig struct {
	Pins        []string `yaml:"pins"`
	TriggerHigh bool     `yaml:"trigger_high"`
}

// Pipeline is the YAML document naming the concrete thermometer and
// actuator variants and their decorators.
type Pipeline struct {
	Thermometer ThermometerConfig `yaml:"thermometer"`
	Actuator    ActuatorConfig    `yaml:"actuator"`
}

// LoadPipeline reads and parses the pipeline YAML document at path.
func LoadPipeline(path string) (Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("%w: %v", status.ErrConfig, err)
	}
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Pipeline{}, fmt.Errorf("%w: %v", status.ErrConfig, err)
	}
	return p, nil
}
