// Package persistor consumes engine events off AMQP and writes them to
// SQLite: one consumer loop, manual ack, errors classified as permanent
// or transient.
package persistor

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// Store owns the SQLite connection used to persist orders and trades.
// The engine is single-instrument, so every order row carries the same
// base/quote currency pair from process configuration.
type Store struct {
	db            *sql.DB
	baseCurrency  string
	quoteCurrency string
}

// Open opens (creating if necessary) the SQLite file at path and applies
// the schema. base/quote currency are stamped onto every persisted order.
func Open(path, baseCurrency, quoteCurrency string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("persistor: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("persistor: apply schema: %w", err)
	}
	return &Store{db: db, baseCurrency: baseCurrency, quoteCurrency: quoteCurrency}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertOrder records an accepted order.
func (s *Store) InsertOrder(orderID uint64, side int32, price, quantity uint64) error {
	_, err := s.db.Exec(
		`INSERT INTO orders (order_id, base_currency, quote_currency, side, quantity, price) VALUES (?, ?, ?, ?, ?, ?)`,
		orderID, s.baseCurrency, s.quoteCurrency, side, quantity, price,
	)
	if err != nil {
		return fmt.Errorf("persistor: insert order %d: %w", orderID, err)
	}
	return nil
}

// InsertTrade records a fill.
func (s *Store) InsertTrade(makerOrderID, takerOrderID, filledQty uint64) error {
	_, err := s.db.Exec(
		`INSERT INTO trades (maker_order_id, taker_order_id, filled_qty) VALUES (?, ?, ?)`,
		makerOrderID, takerOrderID, filledQty,
	)
	if err != nil {
		return fmt.Errorf("persistor: insert trade %d/%d: %w", makerOrderID, takerOrderID, err)
	}
	return nil
}
