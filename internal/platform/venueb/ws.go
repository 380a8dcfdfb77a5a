package venueb

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/polymarketbot/internal/domain"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	reconnectDelay    = 2 * time.Second
	maxReconnectDelay = 60 * time.Second
)

// BookUpdateHandler is called for every full orderbook snapshot received on
// the "book" channel, keyed by token (asset) ID.
type BookUpdateHandler func(assetID string, q domain.Quote)

// wsCommand is the subscribe/unsubscribe envelope the CLOB WS feed expects.
type wsCommand struct {
	Type    string   `json:"type"`
	Channel string   `json:"channel"`
	Assets  []string `json:"assets_ids,omitempty"`
}

// WSClient is an optional live order-book feed for the token CLOB venue. It
// mirrors book updates into whatever handlers the caller registers. Nothing
// in the orchestrator creates or registers one, so it does not feed the
// quote cache; GetQuote via REST is the fetch path on every tick.
type WSClient struct {
	wsURL string
	conn  *websocket.Conn

	mu            sync.RWMutex
	closed        bool
	subscriptions []wsCommand

	handlerMu sync.RWMutex
	handlers  []BookUpdateHandler

	done chan struct{}
}

// NewWSClient creates a WSClient for the given CLOB WebSocket endpoint,
// e.g. "wss://ws-subscriptions-clob.polymarket.com/ws/market".
func NewWSClient(wsURL string) *WSClient {
	return &WSClient{
		wsURL: wsURL,
		done:  make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection and starts the read/ping
// loops.
func (w *WSClient) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("venueb/ws: client closed")
	}

	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return fmt.Errorf("venueb/ws: connect: %w", err)
	}
	w.conn = conn

	w.conn.SetReadDeadline(time.Now().Add(pongWait))
	w.conn.SetPongHandler(func(string) error {
		w.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go w.readLoop()
	go w.pingLoop()

	for _, cmd := range w.subscriptions {
		if err := w.sendCommand(cmd); err != nil {
			return fmt.Errorf("venueb/ws: restore subscription: %w", err)
		}
	}
	return nil
}

// Subscribe subscribes to book updates for the given token IDs.
func (w *WSClient) Subscribe(assetIDs []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return fmt.Errorf("venueb/ws: not connected")
	}
	cmd := wsCommand{Type: "subscribe", Channel: "book", Assets: assetIDs}
	if err := w.sendCommand(cmd); err != nil {
		return fmt.Errorf("venueb/ws: subscribe: %w", err)
	}
	w.subscriptions = append(w.subscriptions, cmd)
	return nil
}

// Close shuts down the connection and stops the read loop.
func (w *WSClient) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	close(w.done)

	if w.conn != nil {
		_ = w.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		return w.conn.Close()
	}
	return nil
}

// OnBookUpdate registers a handler called for every book snapshot.
func (w *WSClient) OnBookUpdate(handler BookUpdateHandler) {
	w.handlerMu.Lock()
	defer w.handlerMu.Unlock()
	w.handlers = append(w.handlers, handler)
}

func (w *WSClient) sendCommand(cmd wsCommand) error {
	w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

func (w *WSClient) readLoop() {
	defer func() {
		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()
		if conn != nil {
			conn.Close()
		}
	}()

	for {
		select {
		case <-w.done:
			return
		default:
		}

		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()
		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-w.done:
				return
			default:
			}
			w.reconnect()
			return
		}
		w.handleMessage(message)
	}
}

func (w *WSClient) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.mu.RLock()
			conn := w.conn
			w.mu.RUnlock()
			if conn == nil {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (w *WSClient) handleMessage(raw []byte) {
	var book Book
	if err := json.Unmarshal(raw, &book); err != nil || book.AssetID == "" {
		return
	}

	askCents, depth, ladder := bestAskFromBook(book)
	if askCents == nil {
		return
	}
	q := domain.Quote{YesAskCents: askCents, YesDepth: depth, YesLadder: ladder}

	w.handlerMu.RLock()
	handlers := w.handlers
	w.handlerMu.RUnlock()
	for _, h := range handlers {
		h(book.AssetID, q)
	}
}

// reconnect retries with exponential backoff until the client is closed.
func (w *WSClient) reconnect() {
	delay := reconnectDelay
	for {
		select {
		case <-w.done:
			return
		default:
		}
		time.Sleep(delay)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := w.Connect(ctx)
		cancel()
		if err == nil {
			return
		}

		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}
