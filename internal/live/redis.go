package live

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisNotifier bridges invalidation topics across instances over a single
// pub/sub channel, so a write on one instance re-delivers live results on
// all of them. Published topics come back through the subscription loop
// (Redis delivers to the publisher too), which is where local handlers run.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	local   *LocalNotifier
	log     *zap.SugaredLogger
	cancel  context.CancelFunc
}

func NewRedisNotifier(client *redis.Client, prefix string, log *zap.SugaredLogger) *RedisNotifier {
	n := &RedisNotifier{
		client:  client,
		channel: prefix + ":live",
		local:   NewLocalNotifier(),
		log:     log,
	}
	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel
	go n.receive(ctx)
	return n
}

func (n *RedisNotifier) receive(ctx context.Context) {
	sub := n.client.Subscribe(ctx, n.channel)
	defer sub.Close()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			n.local.Publish(ctx, Topic(msg.Payload))
		}
	}
}

func (n *RedisNotifier) Publish(ctx context.Context, topics ...Topic) {
	for _, t := range topics {
		if err := n.client.Publish(ctx, n.channel, string(t)).Err(); err != nil {
			n.log.Warnw("live publish failed", "topic", t, "err", err)
		}
	}
}

func (n *RedisNotifier) Subscribe(h Handler) func() {
	return n.local.Subscribe(h)
}

func (n *RedisNotifier) Close() {
	n.cancel()
}
