package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/mastercactapus/sensorplot/chart"
	"github.com/mastercactapus/sensorplot/config"
	"github.com/mastercactapus/sensorplot/device"
	"github.com/mastercactapus/sensorplot/driver"
	"github.com/mastercactapus/sensorplot/sample"
	"github.com/mastercactapus/sensorplot/tui"
)

// errOpenFailed is returned after the open failure has been reported.
var errOpenFailed = errors.New("open failed")

type terminal interface {
	driver.Sink
	Run(context.Context) error
	Hook() logrus.Hook
}

type env struct {
	stdout io.Writer
	stderr io.Writer

	open        func(config.Source, logrus.FieldLogger) (sample.Source, error)
	newTerminal func(chart.Layout) terminal
}

func defaultEnv() env {
	return env{
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		open:        openSource,
		newTerminal: func(l chart.Layout) terminal { return tui.New(l) },
	}
}

func openSource(cfg config.Source, log logrus.FieldLogger) (sample.Source, error) {
	if cfg.SPJS != "" {
		src, err := device.OpenSPJS(device.SPJSConfig{
			URL:         cfg.SPJS,
			Port:        cfg.Port,
			Baud:        cfg.Baud,
			OpenTimeout: cfg.OpenTimeout,
			Log:         log,
		})
		if err != nil {
			return nil, err
		}
		return src, nil
	}

	conn, err := device.OpenSerial(cfg.Port, cfg.Baud, cfg.ReadTimeout)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func run(ctx context.Context, cfg config.Config, e env) error {
	log := logrus.New()
	log.SetOutput(e.stderr)
	log.SetLevel(logrus.GetLevel())

	src, err := e.open(cfg.Source, log)
	if err != nil {
		log.WithError(err).Debug("open source")
		fmt.Fprintf(e.stderr, "Error: Could not open port %s.\n", cfg.Source.Port)
		fmt.Fprintln(e.stderr, "Please check the port name and make sure no other program is using it.")
		return errOpenFailed
	}
	defer func() {
		err := src.Close()
		if err != nil {
			log.WithError(err).Warn("close source")
		}
		fmt.Fprintln(e.stdout, "Serial port closed.")
	}()

	layout := cfg.Layout()
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())

	var sinks driver.Sinks
	if cfg.Display.Listen != "" {
		a := newAPI(layout, reg, log)
		defer a.Close()

		ln, err := net.Listen("tcp", cfg.Display.Listen)
		if err != nil {
			return errors.Wrapf(err, "listen on %s", cfg.Display.Listen)
		}
		srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			log.Debugf("%s %s - %s", req.Method, req.URL.Path, req.RemoteAddr)
			a.ServeHTTP(w, req)
		})}
		defer srv.Close()
		go func() {
			err := srv.Serve(ln)
			if err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("serve chart")
			}
		}()

		sinks = append(sinks, a)
		log.Infof("serving chart on http://%s/", ln.Addr())
	}

	var term terminal
	if cfg.Display.Terminal {
		term = e.newTerminal(layout)
		log.SetOutput(io.Discard)
		log.AddHook(term.Hook())
		sinks = append(sinks, term)
		fmt.Fprintln(e.stdout, "Starting plot. Close the plot window to stop.")
	} else {
		fmt.Fprintln(e.stdout, "Starting plot. Press Ctrl+C to stop.")
	}

	d := driver.New(driver.Config{
		Source:           src,
		Sink:             sinks,
		Layout:           layout,
		Session:          uuid.NewString(),
		Interval:         cfg.Chart.Interval,
		DiscardWarnAfter: cfg.Chart.DiscardWarnAfter,
		Metrics:          driver.NewMetrics(reg),
		Log:              log,
	})

	if term == nil {
		return d.Run(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	driverErr := make(chan error, 1)
	go func() { driverErr <- d.Run(ctx) }()

	err = term.Run(ctx)
	cancel()
	<-driverErr

	return errors.Wrap(err, "terminal")
}
