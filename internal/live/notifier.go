// Package live is the boundary that turns the read operations into live
// queries. The reads themselves stay pure functions of (identity, args,
// storage state); write paths publish invalidation topics here, and
// subscribers re-run the affected reads and push fresh results.
package live

import (
	"context"
	"sync"
)

// Topic names a slice of storage whose change invalidates previously
// returned read results.
type Topic string

const topicUsers Topic = "users"

// TopicUsers changes whenever any user record is created or patched.
// Invalidates searchProfiles and resolveCaller results.
func TopicUsers() Topic { return topicUsers }

// TopicChats invalidates getUserChats for one user.
func TopicChats(userID string) Topic { return Topic("chats:" + userID) }

// TopicMessages invalidates fetchByChatId for one conversation.
func TopicMessages(conversationID string) Topic { return Topic("messages:" + conversationID) }

type Handler func(topic Topic)

type Notifier interface {
	// Publish fans topics out to every subscriber. Best effort: a write
	// must not fail because notification did.
	Publish(ctx context.Context, topics ...Topic)
	// Subscribe registers a handler and returns its unsubscribe func.
	Subscribe(h Handler) (unsubscribe func())
}

// LocalNotifier dispatches in process, synchronously. Single-instance
// deployments and tests use it directly; the Redis notifier wraps one.
type LocalNotifier struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
}

func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{handlers: make(map[int]Handler)}
}

func (n *LocalNotifier) Publish(_ context.Context, topics ...Topic) {
	n.mu.RLock()
	hs := make([]Handler, 0, len(n.handlers))
	for _, h := range n.handlers {
		hs = append(hs, h)
	}
	n.mu.RUnlock()
	for _, h := range hs {
		for _, t := range topics {
			h(t)
		}
	}
}

func (n *LocalNotifier) Subscribe(h Handler) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.handlers[id] = h
	n.mu.Unlock()
	return func() {
		n.mu.Lock()
		delete(n.handlers, id)
		n.mu.Unlock()
	}
}
