package device

import (
	"time"

	"github.com/pkg/errors"
	"github.com/tarm/serial"
)

// DefaultReadTimeout bounds a single poll of a serial port.
const DefaultReadTimeout = time.Second

// OpenSerial opens a serial port and wraps it in a Conn.
func OpenSerial(port string, baud int, timeout time.Duration) (*Conn, error) {
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	p, err := serial.OpenPort(&serial.Config{
		Name:        port,
		Baud:        baud,
		ReadTimeout: timeout,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open serial port %s", port)
	}
	return NewConn(p), nil
}
