package thermometer

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// FileChannelReader reads a single already-converted temperature
// reading from a sysfs-style text file, one float per channel. There
// is no Go-ecosystem equivalent of the Python gpiozero/MCP3008 driver
// PiAnalogZeroThermometer binds to in
// original_source/thermod/thermometer.py, so each analog channel is
// generalised to "a file the board driver/kernel module exposes the
// converted reading through", the same sysfs-reading idiom OneWire
// uses for its own device files.
type FileChannelReader struct {
	Path string
}

func (f FileChannelReader) ReadChannel(context.Context) (float64, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse channel file %s: %w", f.Path, err)
	}
	return v, nil
}
