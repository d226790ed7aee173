package eventlog

import (
	"encoding/json"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type BusMessage struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Kind    string `json:"kind"`
	Content string `json:"content"`
}

const writeTimeout = 2 * time.Second

// Bus publishes messages to a websocket hub. A failed write redials the hub
// once before giving up on that message.
type Bus struct {
	mu   sync.Mutex
	conn *websocket.Conn
	url  string
	from string
}

func Dial(wsURL, from string) (*Bus, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}

	return &Bus{conn: conn, url: u.String(), from: from}, nil
}

func (b *Bus) Publish(m *BusMessage) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.write(data); err == nil {
		return nil
	}

	if err := b.redial(); err != nil {
		return err
	}
	return b.write(data)
}

func (b *Bus) write(data []byte) error {
	_ = b.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return b.conn.WriteMessage(websocket.TextMessage, data)
}

func (b *Bus) redial() error {
	_ = b.conn.Close()

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = writeTimeout
	conn, _, err := dialer.Dial(b.url, nil)
	if err != nil {
		return err
	}
	b.conn = conn
	return nil
}

// Write sends one encoded log record as a "log" message. slog handlers call
// Write once per record.
func (b *Bus) Write(p []byte) (int, error) {
	err := b.Publish(&BusMessage{
		From:    b.from,
		To:      "*",
		Kind:    "log",
		Content: string(p),
	})
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return b.conn.Close()
}

// Handler encodes records as JSON and publishes them on the bus.
func (b *Bus) Handler(level slog.Leveler) slog.Handler {
	return slog.NewJSONHandler(b, &slog.HandlerOptions{Level: level})
}
