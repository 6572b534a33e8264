// Package httpvenue is a reference Venue implementation: a generic,
// HMAC-signed REST connector plus a reconnecting websocket ticker cache.
// It is intentionally exchange-agnostic (spec.md scopes venue connectors
// out of the core) — point it at any venue's REST base URL and it speaks a
// Binance-shaped signed-query-string dialect, the one the teacher's
// clients/binance package used, generalized so any venue config can drive it.
package httpvenue

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"spotarb.trade/clock"
	"spotarb.trade/model"
	"spotarb.trade/venue"
)

// Config describes one venue's REST/WS endpoints and credentials.
type Config struct {
	Name              string
	BaseURL           string
	WSURL             string // optional; empty disables the streaming cache
	APIKey            string
	APISecret         string
	Passphrase        string
	TimeoutMs         int
	MaxRetries        int
	RateLimitPerSecond float64
}

// Client is the reference REST+WS venue connector.
type Client struct {
	cfg     Config
	http    *resty.Client
	limiter *rate.Limiter
	clk     clock.Clock

	wsMu      sync.Mutex
	wsConn    *websocket.Conn
	wsCancel  context.CancelFunc
	tickCache map[string]model.Ticker
	tickMu    sync.RWMutex
}

// New builds a Client for the given venue config. cl is the injected clock
// used for websocket reconnect backoff.
func New(cfg Config, cl clock.Clock) *Client {
	if cfg.TimeoutMs <= 0 {
		cfg.TimeoutMs = 10_000
	}
	if cfg.RateLimitPerSecond <= 0 {
		cfg.RateLimitPerSecond = 10
	}
	c := &Client{
		cfg:       cfg,
		clk:       cl,
		tickCache: make(map[string]model.Ticker),
		limiter:   rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), int(cfg.RateLimitPerSecond)+1),
	}
	c.http = resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.TimeoutMs) * time.Millisecond).
		SetRetryCount(cfg.MaxRetries)
	return c
}

func (c *Client) Name() string { return c.cfg.Name }

// Connect starts the background websocket ticker stream, if configured.
func (c *Client) Connect(ctx context.Context) error {
	if c.cfg.WSURL == "" {
		return nil
	}
	wctx, cancel := context.WithCancel(ctx)
	c.wsMu.Lock()
	c.wsCancel = cancel
	c.wsMu.Unlock()
	go c.maintainStream(wctx)
	return nil
}

func (c *Client) Disconnect(ctx context.Context) error {
	c.wsMu.Lock()
	defer c.wsMu.Unlock()
	if c.wsCancel != nil {
		c.wsCancel()
	}
	if c.wsConn != nil {
		return c.wsConn.Close()
	}
	return nil
}

func (c *Client) TestConnection(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return venue.Transient("test_connection", err)
	}
	resp, err := c.http.R().SetContext(ctx).Get("/ping")
	if err != nil {
		return venue.Transient("test_connection", err)
	}
	if resp.IsError() {
		return venue.Rejected("test_connection", fmt.Errorf("status %d", resp.StatusCode()))
	}
	return nil
}

// maintainStream dials the venue's ticker websocket and reconnects with a
// fixed backoff on failure, the same shape as the teacher's
// PairManager.maintainConnection / connectAndListen loop.
func (c *Client) maintainStream(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if err := c.connectAndListen(ctx); err != nil {
			log.Printf("[%s] websocket stream error: %v, reconnecting in 5s", c.cfg.Name, err)
			select {
			case <-ctx.Done():
				return
			case <-c.clk.After(5 * time.Second):
			}
		}
	}
}

func (c *Client) connectAndListen(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.WSURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	c.wsMu.Lock()
	c.wsConn = conn
	c.wsMu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		var msg struct {
			Symbol string `json:"symbol"`
			Bid    string `json:"bid"`
			BidQty string `json:"bidQty"`
			Ask    string `json:"ask"`
			AskQty string `json:"askQty"`
			Last   string `json:"last"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		t := model.Ticker{
			Symbol:    msg.Symbol,
			BidPrice:  parseDecimal(msg.Bid),
			BidQty:    parseDecimal(msg.BidQty),
			AskPrice:  parseDecimal(msg.Ask),
			AskQty:    parseDecimal(msg.AskQty),
			LastPrice: parseDecimal(msg.Last),
			Ts:        c.clk.Now(),
		}
		c.tickMu.Lock()
		c.tickCache[t.Symbol] = t
		c.tickMu.Unlock()
	}
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// GetTicker returns the cached streamed ticker if present, otherwise falls
// back to a REST poll.
func (c *Client) GetTicker(ctx context.Context, symbol string) (model.Ticker, error) {
	c.tickMu.RLock()
	t, ok := c.tickCache[symbol]
	c.tickMu.RUnlock()
	if ok {
		return t, nil
	}
	return c.restTicker(ctx, symbol)
}

func (c *Client) restTicker(ctx context.Context, symbol string) (model.Ticker, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return model.Ticker{}, venue.Transient("get_ticker", err)
	}
	var out struct {
		BidPrice string `json:"bidPrice"`
		BidQty   string `json:"bidQty"`
		AskPrice string `json:"askPrice"`
		AskQty   string `json:"askQty"`
		LastPrice string `json:"lastPrice"`
	}
	resp, err := c.http.R().SetContext(ctx).
		SetQueryParam("symbol", symbol).
		SetResult(&out).
		Get("/ticker/bookTicker")
	if err != nil {
		return model.Ticker{}, venue.Transient("get_ticker", err)
	}
	if resp.IsError() {
		return model.Ticker{}, venue.Rejected("get_ticker", fmt.Errorf("status %d", resp.StatusCode()))
	}
	return model.Ticker{
		Symbol:    symbol,
		BidPrice:  parseDecimal(out.BidPrice),
		BidQty:    parseDecimal(out.BidQty),
		AskPrice:  parseDecimal(out.AskPrice),
		AskQty:    parseDecimal(out.AskQty),
		LastPrice: parseDecimal(out.LastPrice),
		Ts:        c.clk.Now(),
	}, nil
}

func (c *Client) GetOrderBook(ctx context.Context, symbol string, depth int) (model.OrderBook, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return model.OrderBook{}, venue.Transient("get_order_book", err)
	}
	var out struct {
		Bids [][2]string `json:"bids"`
		Asks [][2]string `json:"asks"`
	}
	resp, err := c.http.R().SetContext(ctx).
		SetQueryParam("symbol", symbol).
		SetQueryParam("limit", strconv.Itoa(depth)).
		SetResult(&out).
		Get("/depth")
	if err != nil {
		return model.OrderBook{}, venue.Transient("get_order_book", err)
	}
	if resp.IsError() {
		return model.OrderBook{}, venue.Rejected("get_order_book", fmt.Errorf("status %d", resp.StatusCode()))
	}
	ob := model.OrderBook{Symbol: symbol, Ts: c.clk.Now()}
	for _, b := range out.Bids {
		ob.Bids = append(ob.Bids, model.PriceLevel{Price: parseDecimal(b[0]), Qty: parseDecimal(b[1])})
	}
	for _, a := range out.Asks {
		ob.Asks = append(ob.Asks, model.PriceLevel{Price: parseDecimal(a[0]), Qty: parseDecimal(a[1])})
	}
	return ob, nil
}

func (c *Client) GetBalance(ctx context.Context) (model.Balances, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, venue.Transient("get_balance", err)
	}
	var out struct {
		Balances []struct {
			Asset  string `json:"asset"`
			Free   string `json:"free"`
			Locked string `json:"locked"`
		} `json:"balances"`
	}
	if err := c.signedGet(ctx, "/account", nil, &out); err != nil {
		return nil, err
	}
	result := make(model.Balances, len(out.Balances))
	for _, b := range out.Balances {
		free := parseDecimal(b.Free)
		locked := parseDecimal(b.Locked)
		result[b.Asset] = model.AssetBalance{Total: free.Add(locked), Available: free}
	}
	return result, nil
}

func (c *Client) GetAssetBalance(ctx context.Context, asset string) (model.AssetBalance, error) {
	all, err := c.GetBalance(ctx)
	if err != nil {
		return model.AssetBalance{}, err
	}
	return all[asset], nil
}

func (c *Client) PlaceOrder(ctx context.Context, req model.OrderRequest) (model.Order, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return model.Order{}, venue.Transient("place_order", err)
	}
	params := url.Values{}
	params.Set("symbol", req.Symbol)
	params.Set("side", strings.ToUpper(string(req.Side)))
	params.Set("type", strings.ToUpper(string(req.Type)))
	params.Set("quantity", req.Quantity.String())
	if req.Type == model.OrderTypeLimit {
		params.Set("price", req.Price.String())
	}
	params.Set("newClientOrderId", req.ClientOrderID)

	var out struct {
		OrderID       int64  `json:"orderId"`
		ClientOrderID string `json:"clientOrderId"`
		Status        string `json:"status"`
		ExecutedQty   string `json:"executedQty"`
		AvgPrice      string `json:"avgPrice"`
		Fee           string `json:"fee"`
		FeeCurrency   string `json:"feeCurrency"`
	}
	if err := c.signedPost(ctx, "/order", params, &out); err != nil {
		return model.Order{}, err
	}
	return model.Order{
		OrderID:       strconv.FormatInt(out.OrderID, 10),
		ClientOrderID: out.ClientOrderID,
		Status:        mapStatus(out.Status),
		RequestedQty:  req.Quantity,
		FilledQty:     parseDecimal(out.ExecutedQty),
		AvgFillPrice:  parseDecimal(out.AvgPrice),
		Fee:           parseDecimal(out.Fee),
		FeeCurrency:   out.FeeCurrency,
		Ts:            c.clk.Now(),
	}, nil
}

func mapStatus(s string) model.OrderStatus {
	switch strings.ToUpper(s) {
	case "NEW":
		return model.OrderOpen
	case "PARTIALLY_FILLED":
		return model.OrderPartiallyFilled
	case "FILLED":
		return model.OrderFilled
	case "CANCELED", "CANCELLED":
		return model.OrderCancelled
	case "REJECTED":
		return model.OrderRejected
	case "EXPIRED":
		return model.OrderExpired
	default:
		return model.OrderErrorStatus
	}
}

func (c *Client) CancelOrder(ctx context.Context, symbol, orderID string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return venue.Transient("cancel_order", err)
	}
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("orderId", orderID)
	var out struct{}
	return c.signedRequest(ctx, "DELETE", "/order", params, &out)
}

func (c *Client) GetOrder(ctx context.Context, symbol, orderID string) (model.Order, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return model.Order{}, venue.Transient("get_order", err)
	}
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("orderId", orderID)
	var out struct {
		OrderID      int64  `json:"orderId"`
		Status       string `json:"status"`
		ExecutedQty  string `json:"executedQty"`
		OrigQty      string `json:"origQty"`
		AvgPrice     string `json:"avgPrice"`
	}
	if err := c.signedGet(ctx, "/order", params, &out); err != nil {
		return model.Order{}, err
	}
	return model.Order{
		OrderID:      strconv.FormatInt(out.OrderID, 10),
		Status:       mapStatus(out.Status),
		RequestedQty: parseDecimal(out.OrigQty),
		FilledQty:    parseDecimal(out.ExecutedQty),
		AvgFillPrice: parseDecimal(out.AvgPrice),
		Ts:           c.clk.Now(),
	}, nil
}

func (c *Client) GetOpenOrders(ctx context.Context, symbol string) ([]model.Order, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, venue.Transient("get_open_orders", err)
	}
	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", symbol)
	}
	var out []struct {
		OrderID     int64  `json:"orderId"`
		Status      string `json:"status"`
		ExecutedQty string `json:"executedQty"`
		OrigQty     string `json:"origQty"`
	}
	if err := c.signedGet(ctx, "/openOrders", params, &out); err != nil {
		return nil, err
	}
	orders := make([]model.Order, 0, len(out))
	for _, o := range out {
		orders = append(orders, model.Order{
			OrderID:      strconv.FormatInt(o.OrderID, 10),
			Status:       mapStatus(o.Status),
			RequestedQty: parseDecimal(o.OrigQty),
			FilledQty:    parseDecimal(o.ExecutedQty),
			Ts:           c.clk.Now(),
		})
	}
	return orders, nil
}

func (c *Client) signedGet(ctx context.Context, path string, params url.Values, out any) error {
	return c.signedRequest(ctx, "GET", path, params, out)
}

func (c *Client) signedPost(ctx context.Context, path string, params url.Values, out any) error {
	return c.signedRequest(ctx, "POST", path, params, out)
}

// signedRequest HMAC-signs the query string and sends it, the same recipe
// as the teacher's clients/binance/utils.go signedRequest, generalized to
// any venue base URL and an injectable HTTP method.
func (c *Client) signedRequest(ctx context.Context, method, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("timestamp", strconv.FormatInt(c.clk.Now().UnixMilli(), 10))
	query := params.Encode()

	mac := hmac.New(sha256.New, []byte(c.cfg.APISecret))
	mac.Write([]byte(query))
	signature := hex.EncodeToString(mac.Sum(nil))
	query += "&signature=" + signature

	req := c.http.R().SetContext(ctx).
		SetHeader("X-API-KEY", c.cfg.APIKey).
		SetResult(out)
	if c.cfg.Passphrase != "" {
		req.SetHeader("X-API-PASSPHRASE", c.cfg.Passphrase)
	}

	resp, err := req.Execute(method, path+"?"+query)
	if err != nil {
		return venue.Transient(strings.ToLower(method)+" "+path, err)
	}
	if resp.IsError() {
		var errBody struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
		}
		_ = json.Unmarshal(resp.Body(), &errBody)
		return venue.Rejected(path, fmt.Errorf("status %d: %s", resp.StatusCode(), errBody.Msg))
	}
	return nil
}

var _ venue.Venue = (*Client)(nil)
