// Package sampletest provides an in-memory sample.Source for tests.
package sampletest

import (
	"io"
	"sync"

	"github.com/mastercactapus/sensorplot/sample"
)

// Script is a Source that replays Lines in order, one per Poll.
//
// A nil entry in Errs at the same index as a line is ignored; a non-nil
// entry is returned instead of that line. Once exhausted, Poll returns
// sample.ErrNoData.
type Script struct {
	Lines []string
	Errs  []error

	mx     sync.Mutex
	n      int
	closed int
}

var _ sample.Source = &Script{}

func (s *Script) Poll() ([]byte, error) {
	s.mx.Lock()
	defer s.mx.Unlock()

	if s.closed > 0 {
		return nil, io.ErrClosedPipe
	}
	if s.n >= len(s.Lines) {
		return nil, sample.ErrNoData
	}
	s.n++
	if s.n-1 < len(s.Errs) && s.Errs[s.n-1] != nil {
		return nil, s.Errs[s.n-1]
	}
	return []byte(s.Lines[s.n-1]), nil
}

func (s *Script) Close() error {
	s.mx.Lock()
	s.closed++
	s.mx.Unlock()
	return nil
}

// Closed returns how many times Close was called.
func (s *Script) Closed() int {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.closed
}

// Remaining returns the number of lines not yet polled.
func (s *Script) Remaining() int {
	s.mx.Lock()
	defer s.mx.Unlock()
	return len(s.Lines) - s.n
}
