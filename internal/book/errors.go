package book

import "errors"

var (
	// ErrNotFound is returned by CancelOrder when the id is neither resting
	// nor recorded as Filled/Cancelled: never assigned by this book, or
	// assigned to a market order (which never rests).
	ErrNotFound = errors.New("book: order not found")
	// ErrNotOpen is returned by CancelOrder when the id is known but the
	// order is no longer Open (already Filled or Cancelled).
	ErrNotOpen = errors.New("book: order not open")
)
