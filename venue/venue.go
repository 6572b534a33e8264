// Package venue defines the uniform capability set the engine core needs
// from any exchange connector. Concrete connectors (httpvenue, simvenue) are
// external collaborators in the sense of spec.md's scope: the core only ever
// programs against the Venue interface below.
package venue

import (
	"context"

	"spotarb.trade/model"
)

// Venue is the capability set spec.md §6 requires of every connector.
type Venue interface {
	Name() string

	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	TestConnection(ctx context.Context) error

	GetTicker(ctx context.Context, symbol string) (model.Ticker, error)
	GetOrderBook(ctx context.Context, symbol string, depth int) (model.OrderBook, error)

	GetBalance(ctx context.Context) (model.Balances, error)
	GetAssetBalance(ctx context.Context, asset string) (model.AssetBalance, error)

	PlaceOrder(ctx context.Context, req model.OrderRequest) (model.Order, error)
	CancelOrder(ctx context.Context, symbol, orderID string) error
	GetOrder(ctx context.Context, symbol, orderID string) (model.Order, error)
	GetOpenOrders(ctx context.Context, symbol string) ([]model.Order, error)
}
