package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fathima-sithara/dm-service/internal/apperr"
	"github.com/fathima-sithara/dm-service/internal/models"
)

// MemoryStore implements all three repositories in process. It backs the
// service tests (no Mongo required, deterministic timestamps via Now) and is
// handy for local development.
type MemoryStore struct {
	mu sync.RWMutex

	// Now supplies storage timestamps; tests override it.
	Now func() time.Time

	users      map[string]*models.User
	userOrder  []string
	convs      map[string]*models.Conversation
	convByPair map[string]string
	msgs       map[string][]*models.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Now:        func() time.Time { return time.Now().UTC() },
		users:      make(map[string]*models.User),
		convs:      make(map[string]*models.Conversation),
		convByPair: make(map[string]string),
		msgs:       make(map[string][]*models.Message),
	}
}

func (s *MemoryStore) Users() UserRepository                 { return memUsers{s} }
func (s *MemoryStore) Conversations() ConversationRepository { return memConvs{s} }
func (s *MemoryStore) Messages() MessageRepository           { return memMsgs{s} }

type memUsers struct{ s *MemoryStore }

func (r memUsers) BySubject(_ context.Context, subject string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, id := range r.s.userOrder {
		if u := r.s.users[id]; u.Subject == subject {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (r memUsers) ByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) Insert(_ context.Context, u *models.User) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.Now()
	u.ID = uuid.NewString()
	u.CreatedAt = now
	u.UpdatedAt = now
	cp := *u
	r.s.users[u.ID] = &cp
	r.s.userOrder = append(r.s.userOrder, u.ID)
	return u.ID, nil
}

func (r memUsers) UpdateProfile(_ context.Context, id, name, image string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return apperr.ErrNotFound
	}
	u.Name = name
	u.Image = image
	u.UpdatedAt = r.s.Now()
	return nil
}

func (r memUsers) SearchByName(_ context.Context, term string) ([]*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t := strings.ToLower(strings.TrimSpace(term))
	out := []*models.User{}
	for _, id := range r.s.userOrder {
		u := r.s.users[id]
		if t == "" || strings.Contains(strings.ToLower(u.Name), t) {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memConvs struct{ s *MemoryStore }

func (r memConvs) FindOrCreate(_ context.Context, a, b string) (*models.Conversation, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := models.PairKey(a, b)
	if id, ok := r.s.convByPair[key]; ok {
		cp := *r.s.convs[id]
		return &cp, false, nil
	}
	conv := &models.Conversation{
		ID:             uuid.NewString(),
		ParticipantOne: a,
		ParticipantTwo: b,
		PairKey:        key,
		CreatedAt:      r.s.Now(),
	}
	r.s.convs[conv.ID] = conv
	r.s.convByPair[key] = conv.ID
	cp := *conv
	return &cp, true, nil
}

func (r memConvs) ByID(_ context.Context, id string) (*models.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	conv, ok := r.s.convs[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *conv
	return &cp, nil
}

func (r memConvs) ByParticipant(_ context.Context, userID string) ([]*models.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*models.Conversation{}
	for _, conv := range r.s.convs {
		if conv.Has(userID) {
			cp := *conv
			out = append(out, &cp)
		}
	}
	// map iteration order is random; pin it for deterministic previews,
	// breaking creation-time ties on ID
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type memMsgs struct{ s *MemoryStore }

func (r memMsgs) Insert(_ context.Context, m *models.Message) (*models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.ID = uuid.NewString()
	m.CreatedAt = r.s.Now()
	cp := *m
	r.s.msgs[m.ConversationID] = append(r.s.msgs[m.ConversationID], &cp)
	return m, nil
}

func (r memMsgs) ByConversation(_ context.Context, conversationID string) ([]*models.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*models.Message{}
	for _, m := range r.s.msgs[conversationID] {
		cp := *m
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r memMsgs) Latest(ctx context.Context, conversationID string) (*models.Message, error) {
	msgs, err := r.ByConversation(ctx, conversationID)
	if err != nil || len(msgs) == 0 {
		return nil, err
	}
	return msgs[len(msgs)-1], nil
}
