package statehub

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// subscriber is one websocket client. Events are queued on out and written
// by the subscriber's own goroutine.
type subscriber struct {
	id   uuid.UUID
	conn *websocket.Conn
	out  chan Event
	done chan struct{}
	once sync.Once
}

func newSubscriber(conn *websocket.Conn, buffer int) *subscriber {
	return &subscriber{
		id:   uuid.New(),
		conn: conn,
		out:  make(chan Event, buffer),
		done: make(chan struct{}),
	}
}

// send queues ev without blocking. It returns false when the buffer is full.
func (c *subscriber) send(ev Event) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.out <- ev:
		return true
	default:
		return false
	}
}

// writeLoop writes queued events until the subscriber closes or a write
// fails.
func (c *subscriber) writeLoop(timeout time.Duration) error {
	for {
		select {
		case <-c.done:
			return nil
		case ev := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
			if err := c.conn.WriteJSON(ev); err != nil {
				return err
			}
		}
	}
}

func (c *subscriber) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}
