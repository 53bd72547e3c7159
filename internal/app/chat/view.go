// Package chat holds the per-connection message view state and the
// realtime hub that links open views together.
//
// A View is the ordered message list behind one open chat screen. It
// implements the optimistic send protocol: an outbound message appears
// in the list immediately under a temporary ID, then moves through a
// small state machine as the server round-trip completes:
//
//	pending → confirmed   (store insert succeeded; server ID/timestamp)
//	pending → failed      (store insert failed; entry stays visible and
//	                       can be retried or discarded)
//
// Inbound realtime events merge by ID: an event whose ID is already in
// the list is the echo of this view's own send and is dropped. New
// events append at the tail in arrival order. Late events are NOT
// re-sorted by timestamp, so concurrent senders can display out of
// order; the list stays append-only from the UI's perspective.
package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/unionhubhq/unionhub/internal/domain/models"
)

// Entry statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
)

// Entry is one row of a chat view. ID is either a server-assigned
// ObjectID hex or a temporary UUID while the send is in flight.
type Entry struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	SentAt     time.Time `json:"sent_at"`
	Status     string    `json:"status"`
}

// View is the reconciliation state for one open group chat. It is
// owned by a single connection; the mutex only guards against the
// hub's delivery goroutine racing the reader goroutine.
type View struct {
	mu      sync.Mutex
	entries []Entry
}

// NewView builds a view preloaded with confirmed history.
func NewView(history []models.Message) *View {
	v := &View{entries: make([]Entry, 0, len(history))}
	for _, m := range history {
		v.entries = append(v.entries, confirmedEntry(m))
	}
	return v
}

// Send appends an optimistic pending entry and returns its temporary
// ID. The list grows by exactly one before any network I/O happens.
func (v *View) Send(content, senderID, senderName string) Entry {
	e := Entry{
		ID:         "tmp-" + uuid.NewString(),
		Content:    content,
		SenderID:   senderID,
		SenderName: senderName,
		SentAt:     time.Now().UTC(),
		Status:     StatusPending,
	}
	v.mu.Lock()
	v.entries = append(v.entries, e)
	v.mu.Unlock()
	return e
}

// Confirm replaces the pending entry holding tempID with the
// authoritative server record, in place. The list length does not
// change and afterwards exactly one entry carries the server ID.
// Returns false if tempID is no longer present (already discarded).
func (v *View) Confirm(tempID string, m models.Message) (Entry, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.entries {
		if v.entries[i].ID == tempID {
			v.entries[i] = confirmedEntry(m)
			return v.entries[i], true
		}
	}
	return Entry{}, false
}

// Fail marks the pending entry as failed. The entry stays in the list,
// visibly marked, so the user can retry or discard it.
func (v *View) Fail(tempID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.entries {
		if v.entries[i].ID == tempID {
			v.entries[i].Status = StatusFailed
			return true
		}
	}
	return false
}

// Retry moves a failed entry back to pending and returns it so the
// caller can resubmit. Returns false when the entry is missing or not
// failed.
func (v *View) Retry(tempID string) (Entry, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.entries {
		if v.entries[i].ID == tempID && v.entries[i].Status == StatusFailed {
			v.entries[i].Status = StatusPending
			return v.entries[i], true
		}
	}
	return Entry{}, false
}

// Discard removes a failed entry from the list.
func (v *View) Discard(tempID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.entries {
		if v.entries[i].ID == tempID && v.entries[i].Status == StatusFailed {
			v.entries = append(v.entries[:i], v.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Merge applies an inbound realtime event. If an entry with the same
// server ID already exists the event is the echo of this view's own
// send and is dropped (idempotent). Otherwise the entry is appended at
// the tail regardless of its timestamp.
func (v *View) Merge(m models.Message, senderName string) (Entry, bool) {
	id := m.ID.Hex()
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.entries {
		if v.entries[i].ID == id {
			return Entry{}, false
		}
	}
	e := confirmedEntry(m)
	if senderName != "" {
		e.SenderName = senderName
	}
	v.entries = append(v.entries, e)
	return e, true
}

// Entries returns a copy of the current list in order.
func (v *View) Entries() []Entry {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Entry, len(v.entries))
	copy(out, v.entries)
	return out
}

// Len returns the number of entries.
func (v *View) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.entries)
}

func confirmedEntry(m models.Message) Entry {
	return Entry{
		ID:         m.ID.Hex(),
		Content:    m.Content,
		SenderID:   m.SenderID.Hex(),
		SenderName: m.SenderName,
		SentAt:     m.CreatedAt,
		Status:     StatusConfirmed,
	}
}
