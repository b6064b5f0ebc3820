// Package memory holds in-memory implementations of the repository
// interfaces, used by tests in place of Postgres.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/skillswap/skillswap/internal/domain"
	"github.com/skillswap/skillswap/internal/repository"
)

type UserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]domain.User
}

func NewUserRepo(users ...domain.User) *UserRepo {
	r := &UserRepo{users: make(map[uuid.UUID]domain.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *UserRepo) Add(user domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
}

func (r *UserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

type MessageRepo struct {
	mu   sync.RWMutex
	msgs map[uuid.UUID]domain.Message
}

func NewMessageRepo() *MessageRepo {
	return &MessageRepo{msgs: make(map[uuid.UUID]domain.Message)}
}

func (r *MessageRepo) Create(_ context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs[msg.ID] = *msg
	return nil
}

func (r *MessageRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	msg, ok := r.msgs[id]
	if !ok {
		return nil, nil
	}
	return &msg, nil
}

func (r *MessageRepo) ListConversation(_ context.Context, userA, userB uuid.UUID) ([]domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var msgs []domain.Message
	for _, msg := range r.msgs {
		if (msg.SenderID == userA && msg.RecipientID == userB) ||
			(msg.SenderID == userB && msg.RecipientID == userA) {
			msgs = append(msgs, msg)
		}
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].Before(msgs[j]) })
	return msgs, nil
}

func (r *MessageRepo) ListForUser(_ context.Context, userID uuid.UUID, filter repository.MessageFilter) ([]domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var msgs []domain.Message
	for _, msg := range r.msgs {
		if msg.SenderID != userID && msg.RecipientID != userID {
			continue
		}
		if filter.Box == "sent" && msg.SenderID != userID {
			continue
		}
		if filter.Box == "received" && msg.RecipientID != userID {
			continue
		}
		if filter.Peer != nil && msg.PeerOf(userID) != *filter.Peer {
			continue
		}
		if filter.Read != nil && msg.Read != *filter.Read {
			continue
		}
		if filter.ExchangeID != nil && (msg.ExchangeID == nil || *msg.ExchangeID != *filter.ExchangeID) {
			continue
		}
		msgs = append(msgs, msg)
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[j].Before(msgs[i]) })
	return msgs, nil
}

func (r *MessageRepo) MarkRead(_ context.Context, ids []uuid.UUID, readerID uuid.UUID) (int64, []uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	seen := make(map[uuid.UUID]struct{})
	var senders []uuid.UUID
	for _, id := range ids {
		msg, ok := r.msgs[id]
		if !ok || msg.RecipientID != readerID || msg.Read {
			continue
		}
		msg.Read = true
		r.msgs[id] = msg
		count++
		if _, ok := seen[msg.SenderID]; !ok {
			seen[msg.SenderID] = struct{}{}
			senders = append(senders, msg.SenderID)
		}
	}
	return count, senders, nil
}

func (r *MessageRepo) MarkConversationRead(_ context.Context, senderID, readerID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for id, msg := range r.msgs {
		if msg.SenderID == senderID && msg.RecipientID == readerID && !msg.Read {
			msg.Read = true
			r.msgs[id] = msg
			count++
		}
	}
	return count, nil
}

func (r *MessageRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.msgs, id)
	return nil
}

func (r *MessageRepo) UnreadCounts(_ context.Context, userID uuid.UUID) ([]domain.UnreadCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bySender := make(map[uuid.UUID]int64)
	for _, msg := range r.msgs {
		if msg.RecipientID == userID && !msg.Read {
			bySender[msg.SenderID]++
		}
	}
	var counts []domain.UnreadCount
	for sender, count := range bySender {
		counts = append(counts, domain.UnreadCount{SenderID: sender, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	return counts, nil
}
