package book

import "fenrir/internal/wire"

// OrderStatus tracks an order's lifecycle: Open -> Filled on last fill,
// Open -> Cancelled on cancel. Both are terminal.
type OrderStatus int

const (
	Open OrderStatus = iota
	Filled
	Cancelled
)

func (s OrderStatus) String() string {
	switch s {
	case Open:
		return "open"
	case Filled:
		return "filled"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Order is a resting or just-admitted order. Orders are shared between the
// id index and a price level's queue via a plain pointer.
type Order struct {
	ID       uint64
	Side     wire.Side
	Price    uint64
	Quantity uint64
	Status   OrderStatus
}

// Trade is a matched fill. Trades are values, not entities: the book does
// not look them up after a match. The slice returned by AddLimitOrder and
// AddMarketOrder is the book's reused trade buffer, so it is overwritten
// by the next order.
type Trade struct {
	TakerOrderID uint64
	MakerOrderID uint64
	Quantity     uint64
	Price        uint64
}

// PriceLevel is the FIFO queue of resting orders at one price. It exists in
// a book's price tree only while Orders is non-empty; Orders may contain
// tombstoned (Cancelled) entries anywhere, drained lazily from the head
// during matching.
type PriceLevel struct {
	Price  uint64
	Orders []*Order
}
