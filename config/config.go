// Package config holds sensorplot's settings: defaults, an optional YAML file
// and validation.
package config

import (
	"os"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mastercactapus/sensorplot/chart"
	"github.com/mastercactapus/sensorplot/device"
	"github.com/mastercactapus/sensorplot/driver"
)

type Config struct {
	Source  Source  `yaml:"source"`
	Chart   Chart   `yaml:"chart"`
	Display Display `yaml:"display"`
	Log     Log     `yaml:"log"`
}

// Source selects the device link.
type Source struct {
	Port        string        `yaml:"port" validate:"required"`
	Baud        int           `yaml:"baud" validate:"gt=0"`
	ReadTimeout time.Duration `yaml:"read_timeout" validate:"gte=0"`

	// SPJS, if set, is the websocket URL of a serial-port-json-server
	// that owns Port.
	SPJS        string        `yaml:"spjs" validate:"omitempty,url"`
	OpenTimeout time.Duration `yaml:"open_timeout" validate:"gte=0"`
}

type Chart struct {
	Capacity   int     `yaml:"capacity" validate:"min=1"`
	YMin       float64 `yaml:"y_min"`
	YMax       float64 `yaml:"y_max" validate:"gtfield=YMin"`
	AutoScale  bool    `yaml:"auto_scale"`
	AutoMargin float64 `yaml:"auto_margin" validate:"gte=0"`
	Title      string  `yaml:"title"`
	XLabel     string  `yaml:"x_label"`
	YLabel     string  `yaml:"y_label"`

	Interval         time.Duration `yaml:"interval" validate:"gt=0"`
	DiscardWarnAfter int           `yaml:"discard_warn_after" validate:"gte=0"`
}

type Display struct {
	// Terminal shows the chart window in the terminal.
	Terminal bool `yaml:"terminal"`

	// Listen, if set, serves the chart over HTTP on this address.
	Listen string `yaml:"listen" validate:"omitempty,hostname_port"`
}

type Log struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Source: Source{
			Port:        "/dev/ttyUSB0",
			Baud:        115200,
			ReadTimeout: device.DefaultReadTimeout,
			OpenTimeout: device.DefaultOpenTimeout,
		},
		Chart: Chart{
			Capacity:         100,
			YMin:             chart.DefaultYMin,
			YMax:             chart.DefaultYMax,
			AutoMargin:       chart.DefaultAutoMargin,
			Title:            chart.DefaultTitle,
			XLabel:           chart.DefaultXLabel,
			YLabel:           chart.DefaultYLabel,
			Interval:         driver.DefaultInterval,
			DiscardWarnAfter: driver.DefaultDiscardWarnAfter,
		},
		Display: Display{
			Terminal: true,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config file %q", path)
	}
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return cfg, errors.Wrapf(err, "parse config file %q", path)
	}
	return cfg, cfg.Validate()
}

var (
	validatorOnce sync.Once
	validatorInst *validator.Validate
)

func validate() *validator.Validate {
	validatorOnce.Do(func() {
		validatorInst = validator.New(validator.WithRequiredStructEnabled())
	})
	return validatorInst
}

// Validate checks field constraints.
func (c Config) Validate() error {
	return errors.Wrap(validate().Struct(c), "invalid config")
}

// Layout returns the chart layout described by c.
func (c Config) Layout() chart.Layout {
	return chart.Layout{
		Title:      c.Chart.Title,
		XLabel:     c.Chart.XLabel,
		YLabel:     c.Chart.YLabel,
		Capacity:   c.Chart.Capacity,
		YMin:       c.Chart.YMin,
		YMax:       c.Chart.YMax,
		AutoScale:  c.Chart.AutoScale,
		AutoMargin: c.Chart.AutoMargin,
	}
}
