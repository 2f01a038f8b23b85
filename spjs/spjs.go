// Package spjs is a minimal client for serial-port-json-server, a bridge
// that exposes a host's serial ports over a websocket.
package spjs

import (
	"bytes"
	"encoding/json"
	"io"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Client is a single websocket session with an SPJS server.
//
// It does not reconnect; once the session ends Done is closed and Err
// reports why.
type Client struct {
	url string
	ws  *websocket.Conn
	log logrus.FieldLogger

	outgoing chan message
	incoming chan interface{}

	closeOnce sync.Once
	closed    chan struct{}
	mx        sync.Mutex
	err       error
}

type message struct {
	done    chan error
	payload []byte
}

type DataFrame struct {
	Port string `json:"P"`
	Data string `json:"D"`
}

// PortStatus reports a port being opened or closed on the bridge. Cmd is
// "Open", "OpenFail" or "Close".
type PortStatus struct {
	Cmd  string
	Desc string
	Port string
	Baud int
}

type ErrorMessage struct {
	Error string
}
type SerialPortList struct {
	SerialPorts []SerialPort
}
type SerialPort struct {
	Name     string
	Friendly string
	IsOpen   bool
	Baud     int
}

// Dial connects to the SPJS websocket at url. log defaults to the logrus
// standard logger.
func Dial(url string, log logrus.FieldLogger) (*Client, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "connect to spjs %s", url)
	}
	c := &Client{
		url:      url,
		ws:       ws,
		log:      log,
		outgoing: make(chan message, 100),
		incoming: make(chan interface{}, 1000),
		closed:   make(chan struct{}),
	}
	go c.readLoop()
	go c.writeLoop()

	return c, nil
}

// Messages delivers parsed server messages: *DataFrame, *PortStatus,
// *ErrorMessage or *SerialPortList.
func (c *Client) Messages() <-chan interface{} { return c.incoming }

// Done is closed when the session ends.
func (c *Client) Done() <-chan struct{} { return c.closed }

// Err returns the reason the session ended, or nil while it is active.
func (c *Client) Err() error {
	c.mx.Lock()
	defer c.mx.Unlock()
	return c.err
}

func (c *Client) shutdown(err error) {
	c.closeOnce.Do(func() {
		if err == nil {
			err = io.ErrClosedPipe
		}
		c.mx.Lock()
		c.err = err
		c.mx.Unlock()
		close(c.closed)
		c.ws.Close()
	})
}

// Close ends the session.
func (c *Client) Close() error {
	c.shutdown(nil)
	return nil
}

func parseMessage(data []byte, msg map[string]json.RawMessage) (val interface{}, err error) {
	check := func(fieldName string, v interface{}) bool {
		if msg[fieldName] == nil {
			return false
		}
		val = v
		err = json.Unmarshal(data, val)
		return true
	}
	if check("Error", &ErrorMessage{}) {
		return
	}
	if check("SerialPorts", &SerialPortList{}) {
		return
	}
	if msg["Type"] != nil {
		// write queue status
		return nil, nil
	}
	if check("Cmd", &PortStatus{}) {
		return
	}
	if check("D", &DataFrame{}) {
		return
	}

	return nil, nil
}

func (c *Client) readLoop() {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.shutdown(errors.Wrap(err, "spjs read"))
			return
		}
		if !bytes.HasPrefix(data, []byte("{")) {
			// ignore echo messages
			continue
		}
		var msg map[string]json.RawMessage
		err = json.Unmarshal(data, &msg)
		if err != nil {
			c.log.WithError(err).Debug("spjs: unreadable message")
			continue
		}
		val, err := parseMessage(data, msg)
		if err != nil {
			c.log.WithError(err).Debug("spjs: parse message")
			continue
		}
		if val == nil {
			continue
		}
		select {
		case c.incoming <- val:
		case <-c.closed:
			return
		}
	}
}

func (c *Client) writeLoop() {
	for {
		select {
		case <-c.closed:
			return
		case m := <-c.outgoing:
			err := c.ws.WriteMessage(websocket.TextMessage, m.payload)
			m.done <- err
			if err != nil {
				c.shutdown(errors.Wrap(err, "spjs write"))
				return
			}
		}
	}
}

// WriteString sends a raw command, such as "list", and returns once it has
// been written.
func (c *Client) WriteString(data string) error {
	m := message{done: make(chan error, 1), payload: []byte(data)}
	select {
	case c.outgoing <- m:
	case <-c.closed:
		return c.Err()
	}
	select {
	case err := <-m.done:
		return err
	case <-c.closed:
		return c.Err()
	}
}
