package core

import (
	"github.com/google/uuid"
)

// Session is the per-user container for the active slot and queue.
// All mutation happens on the execution path that owns the session; the
// single active slot keeps pipeline runs exclusive per user.
type Session struct {
	// Active is the item currently undergoing the pipeline, or nil.
	Active *Item `json:"active"`
	// Queue holds submitted items in insertion order. Terminal items are
	// pruned by reconciliation rather than kept.
	Queue []*Item `json:"queue"`

	// Presentation bookkeeping, not invariant-bearing.
	LastInboundMessageID string `json:"last_inbound_message_id,omitempty"`
	ListViewMessageID    string `json:"list_view_message_id,omitempty"`
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{Queue: []*Item{}}
}

// Normalize defaults missing fields after a load, so records written by
// older releases stay readable. Items without an ID get one assigned.
func (s *Session) Normalize() {
	if s.Queue == nil {
		s.Queue = []*Item{}
	}
	for _, it := range s.Queue {
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
	}
	if s.Active != nil && s.Active.ID == "" {
		s.Active.ID = uuid.NewString()
	}
}

// Enqueue adds a pending item for the URL, unless the URL is already present
// among non-terminal items. It returns the existing item and false on a
// duplicate, or the freshly created item and true.
func (s *Session) Enqueue(url, placeholderTitle string) (*Item, bool) {
	if existing := s.findByURL(url); existing != nil {
		return existing, false
	}

	item := NewItem(url, placeholderTitle)
	s.Queue = append(s.Queue, item)
	return item, true
}

// Find returns the queue item with the given ID, or nil.
func (s *Session) Find(id string) *Item {
	for _, it := range s.Queue {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// Remove deletes the item from the queue. If the item occupies the active
// slot the slot is cleared too, restoring exclusivity. It reports whether
// anything was removed.
func (s *Session) Remove(id string) bool {
	removed := false

	kept := s.Queue[:0]
	for _, it := range s.Queue {
		if it.ID == id {
			removed = true
			continue
		}
		kept = append(kept, it)
	}
	s.Queue = kept

	if s.Active != nil && s.Active.ID == id {
		s.Active = nil
		removed = true
	}

	return removed
}

// PromoteToActive moves the queue item into the active slot and marks it
// downloading. It fails with ErrActiveBusy when a different item already
// occupies the slot, and ErrItemNotFound when the ID matches nothing.
func (s *Session) PromoteToActive(id string) (*Item, error) {
	if s.Active != nil && s.Active.ID != id {
		return nil, ErrActiveBusy
	}

	item := s.Find(id)
	if item == nil {
		return nil, ErrItemNotFound
	}

	if err := item.SetStatus(StatusDownloading); err != nil {
		return nil, err
	}
	s.Active = item
	return item, nil
}

// Clone returns a deep copy sharing no items with the receiver, so two
// goroutines can never observe each other's mutations through it.
func (s *Session) Clone() *Session {
	copied := &Session{
		Queue:                make([]*Item, len(s.Queue)),
		LastInboundMessageID: s.LastInboundMessageID,
		ListViewMessageID:    s.ListViewMessageID,
	}
	if s.Active != nil {
		active := *s.Active
		copied.Active = &active
	}
	for i, it := range s.Queue {
		item := *it
		copied.Queue[i] = &item
	}
	return copied
}

// ReconcileActive folds a finished or failed active item back into the
// queue and clears the slot. An item genuinely in flight (downloading,
// sending) or awaiting a quality choice stays active. Terminal items are
// pruned from the queue entirely.
func (s *Session) ReconcileActive() {
	if s.Active == nil {
		s.pruneTerminal()
		return
	}

	switch s.Active.Status {
	case StatusDownloading, StatusSending, StatusAwaitingQuality:
		return
	}

	active := s.Active
	s.Active = nil

	if active.Status.Terminal() {
		s.Remove(active.ID)
		s.pruneTerminal()
		return
	}

	// Retryable outcome: update the matching queue entry, or append when the
	// item never originated from the queue.
	if existing := s.Find(active.ID); existing != nil {
		existing.Status = active.Status
		existing.Title = active.Title
		existing.Format = active.Format
		existing.StatusMessageID = active.StatusMessageID
	} else {
		s.Queue = append(s.Queue, active)
	}
	s.pruneTerminal()
}

// Clear empties the queue and the active slot.
func (s *Session) Clear() {
	if s.Active != nil {
		s.Active.Status = StatusCancelled
	}
	s.Active = nil
	s.Queue = []*Item{}
}

// DisplayItems returns the ordered list to render: the active item first
// when genuinely in flight, then non-terminal queue items in original order.
func (s *Session) DisplayItems() []*Item {
	var items []*Item
	activeShown := false

	if s.Active != nil {
		switch s.Active.Status {
		case StatusDownloading, StatusSending, StatusAwaitingQuality:
			items = append(items, s.Active)
			activeShown = true
		}
	}

	for _, it := range s.Queue {
		if it.Status.Terminal() {
			continue
		}
		if activeShown && it.ID == s.Active.ID {
			continue
		}
		items = append(items, it)
	}

	return items
}

// QueuedCount returns the number of non-terminal queue items.
func (s *Session) QueuedCount() int {
	n := 0
	for _, it := range s.Queue {
		if !it.Status.Terminal() {
			n++
		}
	}
	return n
}

func (s *Session) findByURL(url string) *Item {
	if s.Active != nil && s.Active.URL == url && !s.Active.Status.Terminal() {
		return s.Active
	}
	for _, it := range s.Queue {
		if it.URL == url && !it.Status.Terminal() {
			return it
		}
	}
	return nil
}

func (s *Session) pruneTerminal() {
	kept := s.Queue[:0]
	for _, it := range s.Queue {
		if !it.Status.Terminal() {
			kept = append(kept, it)
		}
	}
	s.Queue = kept
}
