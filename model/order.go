package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a single order.
type Side string

const (
	SideBuy  Side = "Buy"
	SideSell Side = "Sell"
)

// OrderType is the execution style requested for an order.
type OrderType string

const (
	OrderTypeMarket OrderType = "Market"
	OrderTypeLimit  OrderType = "Limit"
	OrderTypeIOC    OrderType = "IOC"
	OrderTypeFOK    OrderType = "FOK"
)

// OrderRequest is built by the executor and handed to a venue.
type OrderRequest struct {
	ClientOrderID string
	Symbol        string
	Side          Side
	Type          OrderType
	Quantity      decimal.Decimal
	Price         decimal.Decimal // zero value means "no limit price" for Market
}

// OrderStatus is the venue's view of an order's lifecycle.
type OrderStatus string

const (
	OrderPending         OrderStatus = "Pending"
	OrderOpen            OrderStatus = "Open"
	OrderPartiallyFilled OrderStatus = "PartiallyFilled"
	OrderFilled          OrderStatus = "Filled"
	OrderCancelled       OrderStatus = "Cancelled"
	OrderRejected        OrderStatus = "Rejected"
	OrderExpired         OrderStatus = "Expired"
	OrderErrorStatus     OrderStatus = "Error"
)

// Order is the venue's returned/updated view of a placed order.
type Order struct {
	OrderID       string
	ClientOrderID string
	Status        OrderStatus
	RequestedQty  decimal.Decimal
	FilledQty     decimal.Decimal
	AvgFillPrice  decimal.Decimal
	Fee           decimal.Decimal
	FeeCurrency   string
	Ts            time.Time
}

// IsTerminal reports whether the order will never change state again.
func (o Order) IsTerminal() bool {
	switch o.Status {
	case OrderFilled, OrderCancelled, OrderRejected, OrderExpired, OrderErrorStatus:
		return true
	default:
		return false
	}
}
