package wire

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrDecode wraps every failure to parse a WireMessage off the wire: a
// bad tag, a truncated varint, an unknown oneof field, or (from ReadFrame)
// a frame length over MaxFrameSize. Marshal also returns it for a message
// with no payload set. Whether a decoded payload is a command or an event
// is not checked here; see IsCommand and IsEvent.
var ErrDecode = errors.New("wire: decode error")

// field numbers within the WireMessage oneof.
const (
	fieldPlaceLimitOrder = 1
	fieldCancelOrder     = 2
	fieldOrderAccepted   = 3
	fieldOrderCancelled  = 4
	fieldTradeOccurred   = 5
)

// Marshal encodes a WireMessage to its protobuf wire-format bytes.
func Marshal(m WireMessage) ([]byte, error) {
	var inner []byte
	var field protowire.Number

	switch p := m.Payload.(type) {
	case PlaceLimitOrder:
		field = fieldPlaceLimitOrder
		inner = marshalPlaceLimitOrder(p)
	case CancelOrder:
		field = fieldCancelOrder
		inner = marshalCancelOrder(p)
	case OrderAccepted:
		field = fieldOrderAccepted
		inner = marshalOrderAccepted(p)
	case OrderCancelled:
		field = fieldOrderCancelled
		inner = marshalOrderCancelled(p)
	case TradeOccurred:
		field = fieldTradeOccurred
		inner = marshalTradeOccurred(p)
	default:
		return nil, fmt.Errorf("%w: no payload set", ErrDecode)
	}

	buf := protowire.AppendTag(nil, field, protowire.BytesType)
	buf = protowire.AppendBytes(buf, inner)
	return buf, nil
}

// Unmarshal decodes a WireMessage from its protobuf wire-format bytes.
func Unmarshal(data []byte) (WireMessage, error) {
	num, typ, n := protowire.ConsumeTag(data)
	if n < 0 {
		return WireMessage{}, fmt.Errorf("%w: bad tag: %v", ErrDecode, protowire.ParseError(n))
	}
	if typ != protowire.BytesType {
		return WireMessage{}, fmt.Errorf("%w: oneof field must be length-delimited", ErrDecode)
	}
	data = data[n:]
	inner, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return WireMessage{}, fmt.Errorf("%w: bad payload bytes: %v", ErrDecode, protowire.ParseError(n))
	}

	var payload Payload
	var err error
	switch num {
	case fieldPlaceLimitOrder:
		payload, err = unmarshalPlaceLimitOrder(inner)
	case fieldCancelOrder:
		payload, err = unmarshalCancelOrder(inner)
	case fieldOrderAccepted:
		payload, err = unmarshalOrderAccepted(inner)
	case fieldOrderCancelled:
		payload, err = unmarshalOrderCancelled(inner)
	case fieldTradeOccurred:
		payload, err = unmarshalTradeOccurred(inner)
	default:
		return WireMessage{}, fmt.Errorf("%w: unknown oneof field %d", ErrDecode, num)
	}
	if err != nil {
		return WireMessage{}, err
	}
	return WireMessage{Payload: payload}, nil
}

func marshalPlaceLimitOrder(p PlaceLimitOrder) []byte {
	buf := protowire.AppendTag(nil, 1, protowire.VarintType)
	buf = protowire.AppendVarint(buf, p.UserID)
	buf = protowire.AppendTag(buf, 2, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(p.Side))
	buf = protowire.AppendTag(buf, 3, protowire.VarintType)
	buf = protowire.AppendVarint(buf, p.Price)
	buf = protowire.AppendTag(buf, 4, protowire.VarintType)
	buf = protowire.AppendVarint(buf, p.Quantity)
	return buf
}

func unmarshalPlaceLimitOrder(data []byte) (PlaceLimitOrder, error) {
	var p PlaceLimitOrder
	return p, eachVarintField(data, func(num protowire.Number, v uint64) error {
		switch num {
		case 1:
			p.UserID = v
		case 2:
			p.Side = Side(int32(v))
		case 3:
			p.Price = v
		case 4:
			p.Quantity = v
		}
		return nil
	})
}

func marshalCancelOrder(c CancelOrder) []byte {
	buf := protowire.AppendTag(nil, 1, protowire.VarintType)
	return protowire.AppendVarint(buf, c.OrderID)
}

func unmarshalCancelOrder(data []byte) (CancelOrder, error) {
	var c CancelOrder
	return c, eachVarintField(data, func(num protowire.Number, v uint64) error {
		if num == 1 {
			c.OrderID = v
		}
		return nil
	})
}

func marshalOrderAccepted(o OrderAccepted) []byte {
	buf := protowire.AppendTag(nil, 1, protowire.VarintType)
	buf = protowire.AppendVarint(buf, o.OrderID)
	buf = protowire.AppendTag(buf, 2, protowire.VarintType)
	buf = protowire.AppendVarint(buf, o.UserID)
	buf = protowire.AppendTag(buf, 3, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(o.Side))
	buf = protowire.AppendTag(buf, 4, protowire.VarintType)
	buf = protowire.AppendVarint(buf, o.Price)
	buf = protowire.AppendTag(buf, 5, protowire.VarintType)
	buf = protowire.AppendVarint(buf, o.Quantity)
	return buf
}

func unmarshalOrderAccepted(data []byte) (OrderAccepted, error) {
	var o OrderAccepted
	return o, eachVarintField(data, func(num protowire.Number, v uint64) error {
		switch num {
		case 1:
			o.OrderID = v
		case 2:
			o.UserID = v
		case 3:
			o.Side = Side(int32(v))
		case 4:
			o.Price = v
		case 5:
			o.Quantity = v
		}
		return nil
	})
}

func marshalOrderCancelled(o OrderCancelled) []byte {
	buf := protowire.AppendTag(nil, 1, protowire.VarintType)
	return protowire.AppendVarint(buf, o.OrderID)
}

func unmarshalOrderCancelled(data []byte) (OrderCancelled, error) {
	var o OrderCancelled
	return o, eachVarintField(data, func(num protowire.Number, v uint64) error {
		if num == 1 {
			o.OrderID = v
		}
		return nil
	})
}

func marshalTradeOccurred(t TradeOccurred) []byte {
	buf := protowire.AppendTag(nil, 1, protowire.VarintType)
	buf = protowire.AppendVarint(buf, t.TakerOrderID)
	buf = protowire.AppendTag(buf, 2, protowire.VarintType)
	buf = protowire.AppendVarint(buf, t.MakerOrderID)
	buf = protowire.AppendTag(buf, 3, protowire.VarintType)
	buf = protowire.AppendVarint(buf, t.Price)
	buf = protowire.AppendTag(buf, 4, protowire.VarintType)
	buf = protowire.AppendVarint(buf, t.Quantity)
	return buf
}

func unmarshalTradeOccurred(data []byte) (TradeOccurred, error) {
	var t TradeOccurred
	return t, eachVarintField(data, func(num protowire.Number, v uint64) error {
		switch num {
		case 1:
			t.TakerOrderID = v
		case 2:
			t.MakerOrderID = v
		case 3:
			t.Price = v
		case 4:
			t.Quantity = v
		}
		return nil
	})
}

// eachVarintField walks a flat message of varint fields, calling fn for
// each. Every field in this schema is a varint (u64/i32), so this single
// walker covers all five payload types.
func eachVarintField(data []byte, fn func(num protowire.Number, v uint64) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("%w: bad field tag: %v", ErrDecode, protowire.ParseError(n))
		}
		data = data[n:]

		if typ != protowire.VarintType {
			// Unknown/incompatible wire type for this schema: skip it so
			// forward-compatible senders don't break older readers.
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("%w: bad field value: %v", ErrDecode, protowire.ParseError(n))
			}
			data = data[n:]
			continue
		}

		v, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return fmt.Errorf("%w: bad varint: %v", ErrDecode, protowire.ParseError(n))
		}
		data = data[n:]
		if err := fn(num, v); err != nil {
			return err
		}
	}
	return nil
}
