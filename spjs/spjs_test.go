package spjs

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessage(t *testing.T) {
	check := func(data string, exp interface{}) {
		t.Helper()
		var msg map[string]json.RawMessage
		require.NoError(t, json.Unmarshal([]byte(data), &msg))
		val, err := parseMessage([]byte(data), msg)
		assert.NoError(t, err, data)
		assert.Equal(t, exp, val, data)
	}

	check(`{"P":"/dev/ttyUSB0","D":"1234\n"}`, &DataFrame{Port: "/dev/ttyUSB0", Data: "1234\n"})
	check(`{"Error":"port busy"}`, &ErrorMessage{Error: "port busy"})
	check(`{"SerialPorts":[{"Name":"COM3","Friendly":"USB Serial","IsOpen":true,"Baud":9600}]}`,
		&SerialPortList{SerialPorts: []SerialPort{{Name: "COM3", Friendly: "USB Serial", IsOpen: true, Baud: 9600}}})
	check(`{"Cmd":"Open","Desc":"Got register/open on port.","Port":"COM3","Baud":9600}`,
		&PortStatus{Cmd: "Open", Desc: "Got register/open on port.", Port: "COM3", Baud: 9600})
	check(`{"Cmd":"OpenFail","Desc":"Error opening port. Access denied","Port":"COM3","Baud":9600}`,
		&PortStatus{Cmd: "OpenFail", Desc: "Error opening port. Access denied", Port: "COM3", Baud: 9600})

	// write queue status and unknown messages are dropped
	check(`{"Cmd":"Queued","QCnt":1,"Type":["Buf"],"D":["x"],"Id":["1"]}`, nil)
	check(`{"Version":"1.96"}`, nil)
}

func TestClient_Log(t *testing.T) {
	var up websocket.Upgrader
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ws, err := up.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		ws.WriteMessage(websocket.TextMessage, []byte(`{not json`))
		ws.WriteMessage(websocket.TextMessage, []byte(`{"P":"COM3","D":"1\n"}`))
		ws.ReadMessage()
	}))
	defer srv.Close()

	global := test.NewGlobal()
	defer global.Reset()
	lvl := logrus.GetLevel()
	logrus.SetLevel(logrus.DebugLevel)
	defer logrus.SetLevel(lvl)

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	c, err := Dial("ws"+strings.TrimPrefix(srv.URL, "http"), logger)
	require.NoError(t, err)
	defer c.Close()

	select {
	case msg := <-c.Messages():
		assert.Equal(t, &DataFrame{Port: "COM3", Data: "1\n"}, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("no data frame")
	}

	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, "spjs: unreadable message", hook.LastEntry().Message)
	assert.Empty(t, global.AllEntries())
}
