// Package ws delivers live query results over WebSocket. A client
// subscribes to one of the read operations with its arguments; the hub runs
// the query once immediately, then re-runs and re-pushes it whenever a write
// publishes a topic the subscription depends on. The hub keeps no query
// state beyond the topic routing table.
package ws

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fathima-sithara/dm-service/internal/auth"
	"github.com/fathima-sithara/dm-service/internal/live"
	"github.com/fathima-sithara/dm-service/internal/metrics"
	"github.com/fathima-sithara/dm-service/internal/service"
)

const (
	QueryMe           = "me"
	QuerySearch       = "searchProfiles"
	QueryUserChats    = "getUserChats"
	QueryChatMessages = "fetchByChatId"
)

const queryTimeout = 5 * time.Second

// SubscribeRequest is the client frame starting or stopping a subscription.
type SubscribeRequest struct {
	Action string `json:"action"` // "subscribe" | "unsubscribe"
	ID     string `json:"id,omitempty"`
	Query  string `json:"query,omitempty"`
	ChatID string `json:"chat_id,omitempty"`
	Term   string `json:"term,omitempty"`
}

// Result is the server frame carrying a fresh query result.
type Result struct {
	Type  string `json:"type"` // "result" | "error"
	ID    string `json:"id"`
	Query string `json:"query"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// Sink receives pushed frames. *Client is the production implementation.
type Sink interface {
	Send(msg any)
}

type subscription struct {
	id     string
	client Sink
	query  string
	topics []live.Topic
	run    func(ctx context.Context) (any, error)
}

type Hub struct {
	identity  *service.IdentityService
	directory *service.DirectoryService
	registry  *service.RegistryService
	channel   *service.ChannelService
	log       *zap.SugaredLogger

	mu      sync.RWMutex
	subs    map[string]*subscription
	byTopic map[live.Topic]map[string]bool

	unsubscribe func()
}

func NewHub(
	identity *service.IdentityService,
	directory *service.DirectoryService,
	registry *service.RegistryService,
	channel *service.ChannelService,
	notifier live.Notifier,
	log *zap.SugaredLogger,
) *Hub {
	h := &Hub{
		identity:  identity,
		directory: directory,
		registry:  registry,
		channel:   channel,
		log:       log,
		subs:      make(map[string]*subscription),
		byTopic:   make(map[live.Topic]map[string]bool),
	}
	h.unsubscribe = notifier.Subscribe(h.invalidate)
	return h
}

func (h *Hub) Close() {
	if h.unsubscribe != nil {
		h.unsubscribe()
	}
}

// Subscribe registers the query, pushes its current result, and returns the
// subscription id.
func (h *Hub) Subscribe(c Sink, id *auth.Identity, req SubscribeRequest) (string, error) {
	sub, err := h.build(c, id, req)
	if err != nil {
		return "", err
	}

	h.mu.Lock()
	h.subs[sub.id] = sub
	for _, t := range sub.topics {
		if h.byTopic[t] == nil {
			h.byTopic[t] = make(map[string]bool)
		}
		h.byTopic[t][sub.id] = true
	}
	h.mu.Unlock()

	h.push(sub)
	return sub.id, nil
}

func (h *Hub) Unsubscribe(subID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(subID)
}

// DropClient removes every subscription held by a disconnected client.
func (h *Hub) DropClient(c Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.subs {
		if sub.client == c {
			h.remove(id)
		}
	}
}

// remove expects h.mu held.
func (h *Hub) remove(subID string) {
	sub, ok := h.subs[subID]
	if !ok {
		return
	}
	delete(h.subs, subID)
	for _, t := range sub.topics {
		delete(h.byTopic[t], subID)
		if len(h.byTopic[t]) == 0 {
			delete(h.byTopic, t)
		}
	}
}

func (h *Hub) build(c Sink, id *auth.Identity, req SubscribeRequest) (*subscription, error) {
	sub := &subscription{id: uuid.NewString(), client: c, query: req.Query}

	// Topic wiring needs the caller's user id; an anonymous or unsynced
	// caller still gets the initial (empty) result, just no re-delivery
	// until the next subscribe after syncing.
	var callerID string
	if id != nil {
		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		u, err := h.identity.ResolveCaller(ctx, id)
		cancel()
		if err != nil {
			return nil, err
		}
		if u != nil {
			callerID = u.ID
		}
	}

	switch req.Query {
	case QueryMe:
		sub.topics = []live.Topic{live.TopicUsers()}
		sub.run = func(ctx context.Context) (any, error) {
			return h.identity.ResolveCaller(ctx, id)
		}
	case QuerySearch:
		term := req.Term
		sub.topics = []live.Topic{live.TopicUsers()}
		sub.run = func(ctx context.Context) (any, error) {
			return h.directory.SearchProfiles(ctx, id, term)
		}
	case QueryUserChats:
		if callerID != "" {
			sub.topics = []live.Topic{live.TopicChats(callerID), live.TopicUsers()}
		}
		sub.run = func(ctx context.Context) (any, error) {
			return h.registry.GetUserChats(ctx, id)
		}
	case QueryChatMessages:
		chatID := req.ChatID
		sub.topics = []live.Topic{live.TopicMessages(chatID)}
		sub.run = func(ctx context.Context) (any, error) {
			return h.channel.FetchByChatID(ctx, id, chatID)
		}
	default:
		return nil, fmt.Errorf("unknown query %q", req.Query)
	}
	return sub, nil
}

func (h *Hub) invalidate(topic live.Topic) {
	h.mu.RLock()
	targets := make([]*subscription, 0, len(h.byTopic[topic]))
	for id := range h.byTopic[topic] {
		if sub, ok := h.subs[id]; ok {
			targets = append(targets, sub)
		}
	}
	h.mu.RUnlock()
	for _, sub := range targets {
		h.push(sub)
	}
}

func (h *Hub) push(sub *subscription) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	data, err := sub.run(ctx)
	if err != nil {
		h.log.Warnw("live query failed", "query", sub.query, "err", err)
		sub.client.Send(Result{Type: "error", ID: sub.id, Query: sub.query, Error: "query failed"})
		return
	}
	metrics.LivePushes.Inc()
	sub.client.Send(Result{Type: "result", ID: sub.id, Query: sub.query, Data: data})
}
