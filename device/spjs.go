package device

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mastercactapus/sensorplot/sample"
	"github.com/mastercactapus/sensorplot/spjs"
)

// DefaultOpenTimeout bounds the wait for the bridge to list and open a port.
const DefaultOpenTimeout = 5 * time.Second

// SPJSConfig configures an SPJSSource.
type SPJSConfig struct {
	URL  string
	Port string
	Baud int

	// OpenTimeout is DefaultOpenTimeout if zero.
	OpenTimeout time.Duration

	// Log defaults to the logrus standard logger.
	Log logrus.FieldLogger
}

// SPJSSource reads sensor lines for one port through an SPJS bridge.
//
// Poll never blocks: it drains frames the client has already received.
type SPJSSource struct {
	c    *spjs.Client
	port string
	baud int
	log  logrus.FieldLogger

	lines lineBuffer

	// opened is set once this source asked the bridge to open the port.
	opened bool
	ready  bool
}

var _ sample.Source = &SPJSSource{}

// OpenSPJS dials the bridge and waits until the port is open on it. It
// fails if the bridge does not list the port, refuses to open it, or does
// not confirm within cfg.OpenTimeout.
func OpenSPJS(cfg SPJSConfig) (*SPJSSource, error) {
	c, err := spjs.Dial(cfg.URL, cfg.Log)
	if err != nil {
		return nil, err
	}
	s, err := NewSPJSSource(c, cfg)
	if err != nil {
		c.Close()
		return nil, err
	}

	timeout := cfg.OpenTimeout
	if timeout <= 0 {
		timeout = DefaultOpenTimeout
	}
	err = s.waitReady(timeout)
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// NewSPJSSource requests the port list; the port is opened on the bridge
// once it is listed as closed.
func NewSPJSSource(c *spjs.Client, cfg SPJSConfig) (*SPJSSource, error) {
	s := &SPJSSource{c: c, port: cfg.Port, baud: cfg.Baud, log: cfg.Log}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	err := c.WriteString("list")
	if err != nil {
		return nil, errors.Wrap(err, "request port list")
	}
	return s, nil
}

func (s *SPJSSource) waitReady(timeout time.Duration) error {
	t := time.NewTimer(timeout)
	defer t.Stop()

	for !s.ready {
		select {
		case resp := <-s.c.Messages():
			err := s.handle(resp)
			if err != nil {
				return err
			}
		case <-s.c.Done():
			return s.c.Err()
		case <-t.C:
			return errors.Errorf("port %s not opened by bridge within %s", s.port, timeout)
		}
	}
	return nil
}

func (s *SPJSSource) handle(resp interface{}) error {
	switch msg := resp.(type) {
	case *spjs.DataFrame:
		if msg.Port == s.port {
			s.ready = true
			s.lines.Write([]byte(msg.Data))
		}
	case *spjs.SerialPortList:
		return s.handleList(msg.SerialPorts)
	case *spjs.PortStatus:
		if msg.Port != s.port {
			return nil
		}
		switch msg.Cmd {
		case "Open":
			s.ready = true
		case "OpenFail":
			return errors.Errorf("bridge could not open %s: %s", s.port, msg.Desc)
		case "Close":
			if s.ready {
				s.ready = false
				return errors.Errorf("port %s closed on bridge", s.port)
			}
		}
	case *spjs.ErrorMessage:
		return errors.New("spjs: " + msg.Error)
	}
	return nil
}

func (s *SPJSSource) handleList(ports []spjs.SerialPort) error {
	for _, port := range ports {
		if port.Name != s.port {
			continue
		}
		if port.IsOpen {
			if !s.opened && port.Baud != 0 && port.Baud != s.baud {
				s.log.Warnf("port %s already open on bridge at %d baud, not %d", s.port, port.Baud, s.baud)
			}
			s.ready = true
			return nil
		}
		if s.ready {
			s.ready = false
			return errors.Errorf("port %s closed on bridge", s.port)
		}
		if s.opened {
			// open already requested
			return nil
		}

		s.opened = true
		s.log.WithField("friendly", port.Friendly).Infof("opening %s on bridge at %d baud", s.port, s.baud)
		return s.c.WriteString(fmt.Sprintf("open %s %d default", s.port, s.baud))
	}

	return errors.Errorf("port %s not listed by bridge", s.port)
}

func (s *SPJSSource) Poll() ([]byte, error) {
	for s.lines.Buffered() == 0 {
		select {
		case resp := <-s.c.Messages():
			err := s.handle(resp)
			if err != nil {
				return nil, err
			}
		case <-s.c.Done():
			return nil, s.c.Err()
		default:
			return nil, sample.ErrNoData
		}
	}
	return s.lines.Next()
}

// Close releases the port on the bridge, if this source opened it, and
// ends the session.
func (s *SPJSSource) Close() error {
	if s.opened {
		err := s.c.WriteString("close " + s.port)
		if err != nil {
			s.c.Close()
			return errors.Wrap(err, "close port on spjs")
		}
	}
	return s.c.Close()
}
