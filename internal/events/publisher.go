package events

import (
	"context"
	"encoding/json"
	"time"

	"taskboard/backend/internal/store"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Publisher bridges store changes onto a Redis channel so out-of-process
// consumers can follow along. Publish failures are logged and swallowed;
// the mutating caller never sees them.
type Publisher struct {
	client  *redis.Client
	channel string
	log     *logrus.Logger
}

func NewPublisher(client *redis.Client, channel string, log *logrus.Logger) *Publisher {
	return &Publisher{client: client, channel: channel, log: log}
}

// Attach subscribes the publisher to the store and returns the cancel
// function.
func (p *Publisher) Attach(st *store.TaskStore) func() {
	return st.Subscribe(p.publish)
}

func (p *Publisher) publish(change store.Change) {
	data, err := json.Marshal(change)
	if err != nil {
		p.log.WithError(err).Error("marshal change event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		p.log.WithError(err).WithField("channel", p.channel).Error("publish change event")
	}
}
