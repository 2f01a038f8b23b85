package window

// Point is a sample positioned in a snapshot, oldest at Index 0.
type Point struct {
	Index int   `json:"i"`
	Value int64 `json:"v"`
}

// Window is a fixed-capacity FIFO of the most recent samples.
//
// Appending to a full Window evicts the single oldest sample. A Window is not
// safe for concurrent use.
type Window struct {
	buf  []int64
	head int // index of the oldest sample once full
	full bool
}

// New creates an empty Window holding at most capacity samples.
func New(capacity int) *Window {
	if capacity < 1 {
		panic("window: capacity must be at least 1")
	}
	return &Window{buf: make([]int64, 0, capacity)}
}

func (w *Window) Cap() int { return cap(w.buf) }
func (w *Window) Len() int { return len(w.buf) }

// Append adds v as the newest sample.
func (w *Window) Append(v int64) {
	if !w.full {
		w.buf = append(w.buf, v)
		w.full = len(w.buf) == cap(w.buf)
		return
	}
	w.buf[w.head] = v
	w.head = (w.head + 1) % len(w.buf)
}

// Values returns a copy of the samples, oldest first.
func (w *Window) Values() []int64 {
	res := make([]int64, 0, len(w.buf))
	res = append(res, w.buf[w.head:]...)
	return append(res, w.buf[:w.head]...)
}

// Snapshot returns the samples as points indexed 0..Len()-1, oldest first.
func (w *Window) Snapshot() []Point {
	res := make([]Point, len(w.buf))
	for i := range res {
		res[i].Index = i
		res[i].Value = w.buf[(w.head+i)%len(w.buf)]
	}
	return res
}
