package main

import (
	_ "embed"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"

	sse "github.com/alexandrevicenzi/go-sse"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/mastercactapus/sensorplot/chart"
)

//go:embed static/index.html
var indexHTML []byte

// api serves the chart page and is a sink for the driver.
type api struct {
	http.Handler
	sse *sse.Server
	log logrus.FieldLogger

	mx    sync.Mutex
	frame chart.Frame
	drawn bool

	// pending holds the newest frame not yet pushed to subscribers.
	pending   chan chart.Frame
	done      chan struct{}
	closeOnce sync.Once
}

func newAPI(layout chart.Layout, g prometheus.Gatherer, logger logrus.FieldLogger) *api {
	r := mux.NewRouter()

	a := &api{
		Handler: r,
		log:     logger,
		frame:   layout.Frame("", 0, nil),
		sse: sse.NewServer(&sse.Options{
			Logger: log.New(io.Discard, "", 0),
		}),
		pending: make(chan chart.Frame, 1),
		done:    make(chan struct{}),
	}

	r.HandleFunc("/", a.index).Methods("GET")
	r.HandleFunc("/api/frame", a.getFrame).Methods("GET")
	r.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{})).Methods("GET")
	r.PathPrefix("/events/").Handler(a.sse)

	go a.pushLoop()

	return a
}

// Draw keeps f for /api/frame and queues it for /events/frame subscribers
// when it holds a new sample. It never blocks.
func (a *api) Draw(f chart.Frame) {
	a.mx.Lock()
	changed := !a.drawn || f.Seq != a.frame.Seq
	a.frame = f
	a.drawn = true
	a.mx.Unlock()

	if !changed {
		return
	}
	select {
	case a.pending <- f:
		return
	default:
	}
	select {
	case <-a.pending:
	default:
	}
	select {
	case a.pending <- f:
	default:
	}
}

func (a *api) pushLoop() {
	for {
		select {
		case <-a.done:
			return
		case f := <-a.pending:
			a.push(f)
		}
	}
}

func (a *api) push(f chart.Frame) {
	defer func() {
		// go-sse closes a subscriber's channel when it disconnects, even
		// mid-send
		if r := recover(); r != nil {
			a.log.Debugf("push frame: subscriber went away: %v", r)
		}
	}()

	data, err := json.Marshal(f)
	if err != nil {
		a.log.WithError(err).Error("marshal frame")
		return
	}
	a.sse.SendMessage("/events/frame", sse.SimpleMessage(string(data)))
}

// Close stops pushing frames. The sse server is left running: subscribers
// end when the HTTP server closes their connections, and go-sse panics if
// one disconnects after its Shutdown.
func (a *api) Close() {
	a.closeOnce.Do(func() { close(a.done) })
}

func (a *api) index(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

func (a *api) getFrame(w http.ResponseWriter, req *http.Request) {
	a.mx.Lock()
	f := a.frame
	a.mx.Unlock()

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(f)
	if err != nil {
		a.log.WithError(err).Debug("write frame")
	}
}
