package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"StakeWatch/internal/domain/models"
	drepo "StakeWatch/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Client implements a SlashingStream backed by the indexer's telemetry
// WebSocket feed.
type Client struct {
	apiKey         string
	websocketURL   string
	channels       []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

// New creates a new telemetry SlashingStream.
func New(apiKey, websocketURL string, channels []string, reconnectDelay, pingInterval time.Duration) drepo.SlashingStream {
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		channels:       channels,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("telemetry connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	log.Printf("telemetry: connected")
	return nil
}

// Subscribe subscribes to configured channels.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("telemetry not connected")
	}
	for _, ch := range c.channels {
		msg := map[string]string{"type": "subscribe", "channel": ch}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", ch, err)
		}
		log.Printf("telemetry: subscribed %s", ch)
	}
	return nil
}

type wsEvent struct {
	Validator  string  `json:"validator"`
	Operator   string  `json:"operator"`
	Reason     string  `json:"reason"`
	PenaltyETH float64 `json:"penalty_eth"`
	T          int64   `json:"t"` // ms
}

type wsMessage struct {
	Type string    `json:"type"`
	Data []wsEvent `json:"data"`
}

// Read streams slashing events and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.SlashingEvent, <-chan error) {
	events := make(chan *models.SlashingEvent, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(events)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("telemetry conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("telemetry read: %w", err)
					return
				}
				var m wsMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-event frames
					continue
				}
				if m.Type != "slashing" {
					continue
				}
				for _, d := range m.Data {
					ev := &models.SlashingEvent{
						Validator:  d.Validator,
						Operator:   d.Operator,
						Reason:     d.Reason,
						PenaltyETH: d.PenaltyETH,
						OccurredAt: time.Unix(0, d.T*int64(time.Millisecond)).UTC(),
					}
					select {
					case events <- ev:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return events, errs
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }
