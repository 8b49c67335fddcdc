package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/dm-service/internal/auth"
	"github.com/fathima-sithara/dm-service/internal/live"
	"github.com/fathima-sithara/dm-service/internal/repository"
)

// fakeClock drives storage timestamps so ordering tests are exact.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	store     *repository.MemoryStore
	clock     *fakeClock
	notifier  *recordingNotifier
	events    *recordingEvents
	identity  *IdentityService
	directory *DirectoryService
	registry  *RegistryService
	channel   *ChannelService
}

// recordingEvents captures emitted domain events for assertions.
type recordingEvents struct {
	mu    sync.Mutex
	types []string
}

func (e *recordingEvents) Publish(_ context.Context, eventType string, _ any) {
	e.mu.Lock()
	e.types = append(e.types, eventType)
	e.mu.Unlock()
}

func (e *recordingEvents) emitted() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.types))
	copy(out, e.types)
	return out
}

// recordingNotifier captures published topics for fan-out assertions.
type recordingNotifier struct {
	*live.LocalNotifier
	mu     sync.Mutex
	topics []live.Topic
}

func (n *recordingNotifier) Publish(ctx context.Context, topics ...live.Topic) {
	n.mu.Lock()
	n.topics = append(n.topics, topics...)
	n.mu.Unlock()
	n.LocalNotifier.Publish(ctx, topics...)
}

func (n *recordingNotifier) published() []live.Topic {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]live.Topic, len(n.topics))
	copy(out, n.topics)
	return out
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := newFakeClock()
	store := repository.NewMemoryStore()
	store.Now = clock.now
	notifier := &recordingNotifier{LocalNotifier: live.NewLocalNotifier()}
	events := &recordingEvents{}

	users := store.Users()
	convs := store.Conversations()
	msgs := store.Messages()

	return &fixture{
		store:     store,
		clock:     clock,
		notifier:  notifier,
		events:    events,
		identity:  NewIdentityService(users, notifier, events),
		directory: NewDirectoryService(users),
		registry:  NewRegistryService(users, convs, msgs, notifier, events),
		channel:   NewChannelService(users, convs, msgs, notifier, events),
	}
}

func ident(subject string) *auth.Identity {
	return &auth.Identity{Subject: subject}
}

// syncUser registers a profile and returns its user id.
func (fx *fixture) syncUser(t *testing.T, subject, name string) string {
	t.Helper()
	id, err := fx.identity.SyncProfile(context.Background(), ident(subject), name, subject+"@example.com", "")
	require.NoError(t, err)
	return id
}
