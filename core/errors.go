package core

import (
	"errors"
	"log"
)

var (
	// ErrFetchFailed wraps a rejection from the injected paginated
	// source. It is the only failure surfaced across the API boundary;
	// the engine does not retry, retry policy belongs to the source.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrMeasurementPending marks the blocked state before every
	// variant probe has been measured. It is a valid transient state,
	// not a failure: windowing and fetching resume once the default
	// height is established.
	ErrMeasurementPending = errors.New("measurement pending")

	ErrUnknownVariant = errors.New("unknown variant")
	ErrInvalidRange   = errors.New("invalid range")
)

type ErrorId int

const (
	ErrFetchFailedId ErrorId = iota
	ErrMeasurementPendingId
	ErrUnknownVariantId
	ErrInvalidRangeId
)

type Error struct {
	id  ErrorId
	err error
}

func (e *Engine) DispatchError(id ErrorId, err error) {
	select {
	case e.signals <- ErrorSignal{id, err}:
	default:
		log.Println("Channel is full, unable to send error signal")
	}
}
