// Package book implements the continuous-double-auction limit order book:
// price-time priority matching and lazy cancellation by tombstone.
package book

import (
	"fmt"

	"github.com/tidwall/btree"

	"fenrir/internal/wire"
)

// PriceLevels is the price-ordered map backing one side of the book. Bids
// are ordered highest-price-first, asks lowest-price-first, so in both
// trees Min() always yields the best (most aggressive) resting price.
type PriceLevels = btree.BTreeG[*PriceLevel]

// OrderBook is the book for a single instrument. It has process lifetime
// and is never persisted or replayed: on restart it starts empty.
type OrderBook struct {
	Bids *PriceLevels
	Asks *PriceLevels

	index       map[uint64]*Order
	terminal    map[uint64]OrderStatus
	nextOrderID uint64
	trades      []Trade
}

// New returns an empty order book, ids starting at 1.
func New() *OrderBook {
	return &OrderBook{
		Bids: btree.NewBTreeG(func(a, b *PriceLevel) bool {
			return a.Price > b.Price // descending: Min() returns the highest bid.
		}),
		Asks: btree.NewBTreeG(func(a, b *PriceLevel) bool {
			return a.Price < b.Price // ascending: Min() returns the lowest ask.
		}),
		index:       make(map[uint64]*Order),
		terminal:    make(map[uint64]OrderStatus),
		nextOrderID: 1,
	}
}

func (b *OrderBook) nextID() uint64 {
	id := b.nextOrderID
	b.nextOrderID++
	return id
}

// AddLimitOrder admits a new limit order, matches it against the opposite
// side under price-time priority, and rests any residual quantity at its
// limit price. Returns the assigned order id and the trades the command
// produced (possibly empty). An unspecified side is a programming error
// and panics.
func (b *OrderBook) AddLimitOrder(side wire.Side, price, quantity uint64) (uint64, []Trade) {
	if quantity == 0 {
		panic("book: AddLimitOrder called with zero quantity")
	}
	requireSide(side)

	order := &Order{
		ID:       b.nextID(),
		Side:     side,
		Price:    price,
		Quantity: quantity,
		Status:   Open,
	}

	b.match(order, true)

	if order.Quantity > 0 {
		own := b.sideTree(side)
		level := b.levelFor(own, price)
		level.Orders = append(level.Orders, order)
		b.index[order.ID] = order
	} else {
		order.Status = Filled
		b.terminal[order.ID] = Filled
	}

	return order.ID, b.trades
}

// AddMarketOrder admits and immediately matches a market order. Residual
// quantity that cannot be filled is discarded; market orders never rest
// and are never inserted into the id index.
func (b *OrderBook) AddMarketOrder(side wire.Side, quantity uint64) []Trade {
	if quantity == 0 {
		panic("book: AddMarketOrder called with zero quantity")
	}
	requireSide(side)

	order := &Order{
		ID:       b.nextID(),
		Side:     side,
		Price:    0,
		Quantity: quantity,
		Status:   Open,
	}

	b.match(order, false)
	return b.trades
}

// CancelOrder tombstones an Open order: it is marked Cancelled and removed
// from the id index immediately, but left in its level's queue to be
// skipped lazily during a future match. An id that was assigned but has
// already reached a terminal state (Filled or previously Cancelled)
// returns ErrNotOpen; an id never assigned by this book returns
// ErrNotFound. terminal is consulted separately from index because a
// filled or cancelled order is removed from index the moment it stops
// being Open, but must still be distinguishable from an id this book
// never issued.
func (b *OrderBook) CancelOrder(orderID uint64) error {
	order, ok := b.index[orderID]
	if !ok {
		if _, known := b.terminal[orderID]; known {
			return ErrNotOpen
		}
		return ErrNotFound
	}
	order.Status = Cancelled
	delete(b.index, orderID)
	b.terminal[orderID] = Cancelled
	return nil
}

// match runs the price-time-priority matching algorithm against the book
// opposite to order.Side, appending every fill to b.trades (cleared at
// entry). When limitCheck is false (market orders), the taker crosses at
// any price the opposite book offers.
func (b *OrderBook) match(order *Order, limitCheck bool) {
	b.trades = b.trades[:0]
	opposite := b.oppositeTree(order.Side)

	for order.Quantity > 0 {
		level, ok := opposite.Min()
		if !ok {
			break
		}

		if limitCheck {
			switch order.Side {
			case wire.SideBuy:
				if order.Price < level.Price {
					return
				}
			case wire.SideSell:
				if order.Price > level.Price {
					return
				}
			}
		}

		for len(level.Orders) > 0 && order.Quantity > 0 {
			maker := level.Orders[0]
			if maker.Status != Open {
				level.Orders = level.Orders[1:]
				continue
			}

			fillQty := min(order.Quantity, maker.Quantity)
			b.trades = append(b.trades, Trade{
				TakerOrderID: order.ID,
				MakerOrderID: maker.ID,
				Quantity:     fillQty,
				Price:        level.Price,
			})

			order.Quantity -= fillQty
			maker.Quantity -= fillQty

			if maker.Quantity == 0 {
				maker.Status = Filled
				delete(b.index, maker.ID)
				b.terminal[maker.ID] = Filled
				level.Orders = level.Orders[1:]
			}
		}

		if len(level.Orders) == 0 {
			opposite.Delete(level)
			continue
		}

		// Non-empty level here only happens because order.Quantity hit
		// zero: the taker is exhausted against a partially-filled maker.
		break
	}
}

func (b *OrderBook) levelFor(tree *PriceLevels, price uint64) *PriceLevel {
	if level, ok := tree.Get(&PriceLevel{Price: price}); ok {
		return level
	}
	level := &PriceLevel{Price: price}
	tree.Set(level)
	return level
}

func (b *OrderBook) sideTree(side wire.Side) *PriceLevels {
	if side == wire.SideBuy {
		return b.Bids
	}
	return b.Asks
}

func (b *OrderBook) oppositeTree(side wire.Side) *PriceLevels {
	if side == wire.SideBuy {
		return b.Asks
	}
	return b.Bids
}

func requireSide(side wire.Side) {
	if side != wire.SideBuy && side != wire.SideSell {
		panic(fmt.Sprintf("book: unspecified side %v reached the book", side))
	}
}
