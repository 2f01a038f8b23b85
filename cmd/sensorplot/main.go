package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mastercactapus/sensorplot/config"
)

var (
	configFile string
	verbose    bool
	flagCfg    = config.Default()

	rootCmd = &cobra.Command{
		Use:   "sensorplot",
		Short: "Live plot of integer samples read from a serial port.",
		Long: `sensorplot reads newline-delimited integer samples from a serial device
(directly or through a serial-port-json-server bridge) and plots the most recent
samples in a terminal window and, optionally, a browser page.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          runRoot,
	}
)

func init() {
	logrus.SetOutput(os.Stderr)

	f := rootCmd.Flags()
	f.StringVarP(&configFile, "config", "c", "", "YAML config file; flags override its values.")
	f.BoolVarP(&verbose, "verbose", "v", false, "Shorthand for --log-level=debug.")

	f.StringVarP(&flagCfg.Source.Port, "port", "p", flagCfg.Source.Port, "Serial port path (or name if using SPJS).")
	f.IntVarP(&flagCfg.Source.Baud, "baud", "b", flagCfg.Source.Baud, "Baud rate.")
	f.DurationVar(&flagCfg.Source.ReadTimeout, "read-timeout", flagCfg.Source.ReadTimeout, "Serial read timeout.")
	f.StringVar(&flagCfg.Source.SPJS, "spjs", "", "Websocket URL of an SPJS server to read the port through.")
	f.DurationVar(&flagCfg.Source.OpenTimeout, "open-timeout", flagCfg.Source.OpenTimeout, "How long to wait for SPJS to open the port.")

	f.IntVarP(&flagCfg.Chart.Capacity, "capacity", "n", flagCfg.Chart.Capacity, "Number of samples shown.")
	f.Float64Var(&flagCfg.Chart.YMin, "y-min", flagCfg.Chart.YMin, "Lower bound of the value axis.")
	f.Float64Var(&flagCfg.Chart.YMax, "y-max", flagCfg.Chart.YMax, "Upper bound of the value axis.")
	f.BoolVar(&flagCfg.Chart.AutoScale, "auto-scale", false, "Fit the value axis to the samples shown.")
	f.DurationVar(&flagCfg.Chart.Interval, "interval", flagCfg.Chart.Interval, "Time between updates.")

	f.BoolVar(&flagCfg.Display.Terminal, "terminal", flagCfg.Display.Terminal, "Show the chart in the terminal.")
	f.StringVar(&flagCfg.Display.Listen, "listen", "", "Serve the chart over HTTP on this address (e.g. :9091).")
	f.StringVar(&flagCfg.Log.Level, "log-level", flagCfg.Log.Level, "Log level: debug, info, warn or error.")
}

// loadConfig layers defaults, the config file and explicitly set flags.
func loadConfig(flags *pflag.FlagSet) (config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return cfg, err
		}
	}

	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "port":
			cfg.Source.Port = flagCfg.Source.Port
		case "baud":
			cfg.Source.Baud = flagCfg.Source.Baud
		case "read-timeout":
			cfg.Source.ReadTimeout = flagCfg.Source.ReadTimeout
		case "spjs":
			cfg.Source.SPJS = flagCfg.Source.SPJS
		case "open-timeout":
			cfg.Source.OpenTimeout = flagCfg.Source.OpenTimeout
		case "capacity":
			cfg.Chart.Capacity = flagCfg.Chart.Capacity
		case "y-min":
			cfg.Chart.YMin = flagCfg.Chart.YMin
		case "y-max":
			cfg.Chart.YMax = flagCfg.Chart.YMax
		case "auto-scale":
			cfg.Chart.AutoScale = flagCfg.Chart.AutoScale
		case "interval":
			cfg.Chart.Interval = flagCfg.Chart.Interval
		case "terminal":
			cfg.Display.Terminal = flagCfg.Display.Terminal
		case "listen":
			cfg.Display.Listen = flagCfg.Display.Listen
		case "log-level":
			cfg.Log.Level = flagCfg.Log.Level
		}
	})
	if verbose {
		cfg.Log.Level = "debug"
	}

	return cfg, cfg.Validate()
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}

	lvl, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return errors.Wrap(err, "parse log level")
	}
	logrus.SetLevel(lvl)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, cfg, defaultEnv())
}

func main() {
	err := rootCmd.ExecuteContext(context.Background())
	if errors.Is(err, errOpenFailed) {
		// already reported
		os.Exit(1)
	}
	if err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
