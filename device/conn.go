package device

import (
	"io"
	"sync"

	"github.com/pkg/errors"

	"github.com/mastercactapus/sensorplot/sample"
)

const readBufferSize = 256

// Conn reads newline-delimited records from a device link.
//
// Each Poll performs at most one Read on the underlying reader, so a poll is
// bounded by the link's read timeout. A Read returning io.EOF (how a serial
// port reports an expired timeout) is treated as no data.
type Conn struct {
	r io.Reader

	readBuf []byte
	lines   lineBuffer

	closeOnce sync.Once
	closeCh   chan struct{}
}

var _ sample.Source = &Conn{}

// NewConn creates a new Conn using the provided Reader for data.
func NewConn(r io.Reader) *Conn {
	return &Conn{
		r:       r,
		readBuf: make([]byte, readBufferSize),
		closeCh: make(chan struct{}),
	}
}

// Close will abort further polls and close the underlying
// Reader, if it implements io.Closer.
func (c *Conn) Close() (err error) {
	c.closeOnce.Do(func() {
		close(c.closeCh)
		if closer, ok := c.r.(io.Closer); ok {
			err = closer.Close()
		}
	})
	return err
}

// Poll returns the next complete line from the device.
func (c *Conn) Poll() ([]byte, error) {
	select {
	case <-c.closeCh:
		return nil, io.ErrClosedPipe
	default:
	}

	if c.lines.Buffered() > 0 {
		return c.lines.Next()
	}

	n, err := c.r.Read(c.readBuf)
	c.lines.Write(c.readBuf[:n])
	if err != nil && err != io.EOF && err != io.ErrNoProgress {
		return nil, errors.Wrap(err, "read from port")
	}

	return c.lines.Next()
}
