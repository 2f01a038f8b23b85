package driver

// Kind classifies what a tick did with the source's input.
type Kind int

const (
	// NoData means the source had nothing; the window is unchanged.
	NoData Kind = iota

	// Appended means a sample was parsed and appended.
	Appended

	// Discarded means the input was garbled and silently dropped.
	Discarded

	// Failed means an unexpected error occurred; it is logged.
	Failed
)

func (k Kind) String() string {
	switch k {
	case NoData:
		return "no-data"
	case Appended:
		return "appended"
	case Discarded:
		return "discarded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Outcome is the result of one tick.
type Outcome struct {
	Kind Kind

	// Value is the appended sample when Kind is Appended.
	Value int64

	// Err is set for Discarded and Failed.
	Err error
}
