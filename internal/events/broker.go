package events

import (
	"encoding/json"
	"net/http"
	"sync"

	"taskboard/backend/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Broker fans store changes out to connected SSE clients. Each client
// receives the full current task list on connect and again after every
// change, so the mobile screen can simply re-render what it gets.
type Broker struct {
	store *store.TaskStore
	log   *logrus.Logger

	mu   sync.Mutex
	subs map[chan struct{}]struct{}

	cancel func()
}

func NewBroker(st *store.TaskStore, log *logrus.Logger) *Broker {
	b := &Broker{
		store: st,
		log:   log,
		subs:  make(map[chan struct{}]struct{}),
	}
	b.cancel = st.Subscribe(func(store.Change) {
		b.wakeAll()
	})
	return b
}

// Close detaches the broker from the store.
func (b *Broker) Close() {
	if b.cancel != nil {
		b.cancel()
	}
}

func (b *Broker) subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) unsubscribe(ch chan struct{}) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

func (b *Broker) wakeAll() {
	b.mu.Lock()
	for ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	b.mu.Unlock()
}

// StreamTasks is the SSE endpoint handler.
func (b *Broker) StreamTasks(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.String(http.StatusInternalServerError, "stream unsupported")
		return
	}

	ctx := c.Request.Context()
	ch := b.subscribe()
	defer b.unsubscribe(ch)

	for {
		data, err := json.Marshal(b.store.Tasks())
		if err != nil {
			b.log.WithError(err).Error("marshal tasks for stream")
			return
		}
		if _, err := c.Writer.Write([]byte("data: ")); err != nil {
			return
		}
		if _, err := c.Writer.Write(data); err != nil {
			return
		}
		if _, err := c.Writer.Write([]byte("\n\n")); err != nil {
			return
		}
		flusher.Flush()

		select {
		case <-ctx.Done():
			return
		case <-ch:
		}
	}
}
