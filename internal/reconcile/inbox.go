// Package reconcile merges the two views a chat client has of a
// conversation: the history it pulls over REST and the events pushed
// over the live channel. A reconnecting client does not replay missed
// events, so the pulled history is the source of truth and live
// messages are folded into it without duplication or loss.
package reconcile

import (
	"sort"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/skillswap/skillswap/internal/domain"
)

// Summary is one line of the conversation list: the peer, the latest
// message exchanged with them and how many of their messages are still
// unread.
type Summary struct {
	PeerID      uuid.UUID      `json:"peer_id"`
	PeerName    string         `json:"peer_name"`
	LastMessage domain.Message `json:"last_message"`
	Unread      int            `json:"unread"`
}

// Inbox is the client-side delivery-state reducer. It deduplicates by
// message id, keeps conversation order total under (created_at, id)
// and never lets a read flag revert to unread. Not goroutine-safe; it
// belongs to a single client loop.
type Inbox struct {
	self uuid.UUID
	msgs map[uuid.UUID]domain.Message
}

func NewInbox(self uuid.UUID) *Inbox {
	return &Inbox{
		self: self,
		msgs: make(map[uuid.UUID]domain.Message),
	}
}

func (in *Inbox) Len() int {
	return len(in.msgs)
}

// Merge folds messages into the inbox, whether they arrived live or
// from a history load. A message seen twice is kept once; its read
// flag only ever moves from false to true. Returns how many messages
// were new.
func (in *Inbox) Merge(msgs ...domain.Message) int {
	added := 0
	for _, msg := range msgs {
		existing, ok := in.msgs[msg.ID]
		if !ok {
			in.msgs[msg.ID] = msg
			added++
			continue
		}
		if msg.Read && !existing.Read {
			existing.Read = true
			in.msgs[msg.ID] = existing
		}
	}
	return added
}

// Drop removes a message, e.g. after the sender deleted it.
func (in *Inbox) Drop(id uuid.UUID) bool {
	if _, ok := in.msgs[id]; !ok {
		return false
	}
	delete(in.msgs, id)
	return true
}

// Conversation returns the messages exchanged with peer, ascending by
// (created_at, id).
func (in *Inbox) Conversation(peer uuid.UUID) []domain.Message {
	var msgs []domain.Message
	for _, msg := range in.msgs {
		if msg.PeerOf(in.self) == peer {
			msgs = append(msgs, msg)
		}
	}
	sortAscending(msgs)
	return msgs
}

// UnreadFrom counts the peer's messages the owner has not read yet.
func (in *Inbox) UnreadFrom(peer uuid.UUID) int {
	count := 0
	for _, msg := range in.msgs {
		if msg.SenderID == peer && msg.RecipientID == in.self && !msg.Read {
			count++
		}
	}
	return count
}

// Summaries builds the conversation list: one entry per peer with the
// most recent message and the unread count, newest conversation first.
func (in *Inbox) Summaries() []Summary {
	byPeer := lo.GroupBy(lo.Values(in.msgs), func(msg domain.Message) uuid.UUID {
		return msg.PeerOf(in.self)
	})

	summaries := make([]Summary, 0, len(byPeer))
	for peer, msgs := range byPeer {
		last := lo.MaxBy(msgs, func(a, b domain.Message) bool {
			return b.Before(a)
		})

		name := last.SenderName
		if last.SenderID == in.self {
			name = last.RecipientName
		}

		unread := lo.CountBy(msgs, func(msg domain.Message) bool {
			return msg.SenderID == peer && !msg.Read
		})

		summaries = append(summaries, Summary{
			PeerID:      peer,
			PeerName:    name,
			LastMessage: last,
			Unread:      unread,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[j].LastMessage.Before(summaries[i].LastMessage)
	})
	return summaries
}

// MarkConversationRead optimistically flips every unread message from
// peer and returns the ids it touched, ready for a bulk mark-read
// request. The server's modified count is authoritative; see
// ConfirmRead.
func (in *Inbox) MarkConversationRead(peer uuid.UUID) []uuid.UUID {
	var ids []uuid.UUID
	for id, msg := range in.msgs {
		if msg.SenderID == peer && msg.RecipientID == in.self && !msg.Read {
			msg.Read = true
			in.msgs[id] = msg
			ids = append(ids, id)
		}
	}
	return ids
}

// ConfirmRead reconciles an optimistic mark-read with the server's
// answer. A shortfall means some of the ids no longer exist on the
// server (deleted concurrently); local flags stay as they are since
// read state is monotonic, and the server's count is what callers
// should report.
func (in *Inbox) ConfirmRead(ids []uuid.UUID, modified int64) int64 {
	if modified > int64(len(ids)) {
		return int64(len(ids))
	}
	return modified
}

// ApplyReadReceipt handles a messages_read event from a peer: every
// message the owner sent them becomes read.
func (in *Inbox) ApplyReadReceipt(reader uuid.UUID) int {
	count := 0
	for id, msg := range in.msgs {
		if msg.SenderID == in.self && msg.RecipientID == reader && !msg.Read {
			msg.Read = true
			in.msgs[id] = msg
			count++
		}
	}
	return count
}

func sortAscending(msgs []domain.Message) {
	sort.Slice(msgs, func(i, j int) bool {
		return msgs[i].Before(msgs[j])
	})
}
