package device

import (
	"bytes"

	"github.com/mastercactapus/sensorplot/sample"
)

// maxLineSize bounds a record; a sensor line is a handful of digits.
const maxLineSize = 1024

type record struct {
	line []byte
	err  error
}

// lineBuffer reassembles newline-delimited records from arbitrary chunks.
type lineBuffer struct {
	pending    []byte
	queue      []record
	discarding bool
}

func (b *lineBuffer) Write(p []byte) (int, error) {
	n := len(p)
	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			b.appendPending(p)
			break
		}
		b.appendPending(p[:i])
		if b.discarding {
			b.discarding = false
		} else {
			b.queue = append(b.queue, record{line: bytes.TrimSuffix(b.pending, []byte("\r"))})
		}
		b.pending = nil
		p = p[i+1:]
	}
	return n, nil
}

func (b *lineBuffer) appendPending(p []byte) {
	if b.discarding {
		return
	}
	b.pending = append(b.pending, p...)
	if len(b.pending) <= maxLineSize {
		return
	}

	// drop everything up to the next newline
	b.queue = append(b.queue, record{
		err: &sample.MalformedError{Line: b.pending[:32], Err: sample.ErrLineTooLong},
	})
	b.pending = nil
	b.discarding = true
}

// Next pops the oldest complete record, or returns sample.ErrNoData.
func (b *lineBuffer) Next() ([]byte, error) {
	if len(b.queue) == 0 {
		return nil, sample.ErrNoData
	}
	r := b.queue[0]
	b.queue[0] = record{}
	b.queue = b.queue[1:]
	return r.line, r.err
}

// Buffered returns the number of complete records waiting.
func (b *lineBuffer) Buffered() int { return len(b.queue) }
