package core

// Signal carries engine-side events to the render layer. Consumers
// read from Engine.Signals, typically bridging each signal into their
// own message type.
type Signal any

// DataSignal announces that a fetched batch has been merged and the
// covered range is renderable.
type DataSignal struct {
	rng Range
}

func (d DataSignal) Value() Range {
	return d.rng
}

// MeasureSignal announces that every variant probe has been measured
// and the default height is established; windowing is unblocked.
type MeasureSignal struct {
	defaultHeight float64
}

func (m MeasureSignal) Value() float64 {
	return m.defaultHeight
}

// EndSignal announces a newly resolved end-of-data boundary in
// open-ended mode.
type EndSignal struct {
	count int
}

func (e EndSignal) Value() int {
	return e.count
}

// ResetSignal announces that a structural input changed and all
// derived state was discarded.
type ResetSignal struct{}

type ErrorSignal Error

func (e ErrorSignal) Value() (id ErrorId, err error) {
	id = e.id
	err = e.err

	return id, err
}

func (e *Engine) DispatchSignal(signal Signal) {
	select {
	case e.signals <- signal:
	default: // Ignore if the channel is full
	}
}
