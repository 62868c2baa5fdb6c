// Package feed streams live quote updates from the Polymarket CLOB
// WebSocket. Watch mode uses it to spot price moves between polling
// scans and trigger an early rescan.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kestrelhq/arbscope/internal/domain"
)

// DefaultWSURL is the Polymarket CLOB market-data endpoint.
const DefaultWSURL = "wss://ws-subscriptions-clob.polymarket.com/ws/market"

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	reconnectDelay    = 2 * time.Second
	maxReconnectDelay = 60 * time.Second
)

// QuoteUpdate is one best-bid/ask observation for a CLOB asset.
type QuoteUpdate struct {
	AssetID string
	BestBid domain.Price
	BestAsk domain.Price
	At      time.Time
}

// QuoteHandler receives each update. Handlers must not block; the read
// loop calls them inline.
type QuoteHandler func(QuoteUpdate)

// wsCommand is the subscribe message shape.
type wsCommand struct {
	Type    string   `json:"type"`
	Channel string   `json:"channel,omitempty"`
	Assets  []string `json:"assets_ids"`
}

// bookEvent covers both full book snapshots and incremental changes.
type bookEvent struct {
	EventType string      `json:"event_type"`
	AssetID   string      `json:"asset_id"`
	Bids      []bookLevel `json:"bids"`
	Asks      []bookLevel `json:"asks"`
	Changes   []struct {
		Price string `json:"price"`
		Side  string `json:"side"`
	} `json:"changes"`
}

type bookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// PolymarketFeed subscribes to book updates for a set of asset IDs and
// reconnects with exponential backoff when the connection drops.
type PolymarketFeed struct {
	wsURL    string
	assetIDs []string
	handler  QuoteHandler
	logger   *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

func NewPolymarketFeed(wsURL string, assetIDs []string, handler QuoteHandler, logger *slog.Logger) *PolymarketFeed {
	if wsURL == "" {
		wsURL = DefaultWSURL
	}
	return &PolymarketFeed{
		wsURL:    wsURL,
		assetIDs: assetIDs,
		handler:  handler,
		logger:   logger.With(slog.String("component", "polymarket_feed")),
		done:     make(chan struct{}),
	}
}

// Run connects and consumes updates until ctx is cancelled or Close is
// called. Connection drops reconnect with backoff.
func (f *PolymarketFeed) Run(ctx context.Context) error {
	if len(f.assetIDs) == 0 {
		f.logger.InfoContext(ctx, "no assets to watch, feed idle")
		return nil
	}

	delay := reconnectDelay
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		default:
		}

		err := f.runConnection(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		f.logger.WarnContext(ctx, "feed disconnected, reconnecting",
			slog.String("error", err.Error()),
			slog.Duration("delay", delay),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		case <-time.After(delay):
		}
		if delay *= 2; delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

// Close stops the feed permanently.
func (f *PolymarketFeed) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}

func (f *PolymarketFeed) runConnection(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return fmt.Errorf("feed: connect: %w", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	sub := wsCommand{Type: "subscribe", Channel: "book", Assets: f.assetIDs}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("feed: subscribe: %w", err)
	}
	f.logger.InfoContext(ctx, "subscribed", slog.Int("assets", len(f.assetIDs)))

	// Pings keep the read deadline alive; the connection closing ends
	// both loops.
	pingDone := make(chan struct{})
	defer close(pingDone)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-pingDone:
				return
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		default:
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("feed: read: %w", err)
		}
		f.dispatch(data)
	}
}

// dispatch parses one frame. The endpoint sends both single events and
// arrays of them; unknown shapes are dropped silently.
func (f *PolymarketFeed) dispatch(data []byte) {
	var events []bookEvent
	if err := json.Unmarshal(data, &events); err != nil {
		var single bookEvent
		if err := json.Unmarshal(data, &single); err != nil {
			return
		}
		events = []bookEvent{single}
	}

	now := time.Now().UTC()
	for _, ev := range events {
		if ev.AssetID == "" || f.handler == nil {
			continue
		}
		update := QuoteUpdate{AssetID: ev.AssetID, At: now}
		if bid, ok := bestOf(ev.Bids, true); ok {
			update.BestBid = bid
		}
		if ask, ok := bestOf(ev.Asks, false); ok {
			update.BestAsk = ask
		}
		if update.BestBid == 0 && update.BestAsk == 0 {
			continue
		}
		f.handler(update)
	}
}

// bestOf picks the highest bid or lowest ask from string-encoded levels.
func bestOf(levels []bookLevel, wantMax bool) (domain.Price, bool) {
	found := false
	best := 0.0
	for _, lvl := range levels {
		p, err := strconv.ParseFloat(lvl.Price, 64)
		if err != nil || p <= 0 {
			continue
		}
		if !found || (wantMax && p > best) || (!wantMax && p < best) {
			best = p
			found = true
		}
	}
	if !found {
		return 0, false
	}
	price, err := domain.NewPrice(best)
	if err != nil {
		return 0, false
	}
	return price, true
}
