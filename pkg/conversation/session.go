package conversation

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/papercomputeco/gauntlet/pkg/operation"
)

// EntryState tags an Entry as applied locally or confirmed by the store.
type EntryState int

const (
	// Provisional entries were applied before the store assigned them an
	// identity and commit time.
	Provisional EntryState = iota

	// Committed entries mirror a stored message.
	Committed
)

func (s EntryState) String() string {
	switch s {
	case Provisional:
		return "provisional"
	case Committed:
		return "committed"
	}
	return fmt.Sprintf("EntryState(%d)", int(s))
}

// MarshalText renders the state name in JSON.
func (s EntryState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Entry is one message of a session's view.
type Entry struct {
	State   EntryState         `json:"state"`
	Message *operation.Message `json:"message"`

	// SubmittedAt is the local time a provisional entry was applied.
	SubmittedAt time.Time `json:"submitted_at,omitzero"`

	seq uint64

	// stored is set once the store accepted the message but the turn it
	// belongs to did not finish. The next reconcile promotes it.
	stored *operation.Message
}

// settled pairs a stored message with the provisional entry it confirms.
// A zero seq confirms no entry.
type settled struct {
	seq uint64
	msg *operation.Message
}

// Session is the local view of one operation's conversation: the committed
// log in commit order followed by the provisional overlay in submission order.
type Session struct {
	mu        sync.Mutex
	op        *operation.Operation
	committed []*operation.Message
	overlay   []Entry
	seq       uint64
}

func newSession(op *operation.Operation, log []*operation.Message) *Session {
	s := &Session{}
	s.reset(op, log)
	return s
}

// reset replaces the view with a freshly loaded log and drops the overlay.
func (s *Session) reset(op *operation.Operation, log []*operation.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.op = op.Clone()
	s.committed = make([]*operation.Message, 0, len(log))
	for _, m := range log {
		s.insertCommitted(m)
	}
	s.overlay = nil
}

// Operation returns a copy of the operation as last loaded.
func (s *Session) Operation() *operation.Operation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.op.Clone()
}

// View returns a copy of every entry, committed first.
func (s *Session) View() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.committed)+len(s.overlay))
	for _, m := range s.committed {
		c := *m
		out = append(out, Entry{State: Committed, Message: &c})
	}
	for _, e := range s.overlay {
		c := *e.Message
		e.Message = &c
		out = append(out, e)
	}
	return out
}

// Committed returns a copy of the committed log in commit order.
func (s *Session) Committed() []*operation.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*operation.Message, len(s.committed))
	for i, m := range s.committed {
		c := *m
		out[i] = &c
	}
	return out
}

// Pending reports how many provisional entries await reconciliation.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.overlay)
}

// apply appends a provisional message to the overlay and returns its handle.
func (s *Session) apply(role operation.Role, content string, now time.Time) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.overlay = append(s.overlay, Entry{
		State: Provisional,
		Message: &operation.Message{
			OperationID: s.op.ID,
			Role:        role,
			Content:     content,
		},
		SubmittedAt: now,
		seq:         s.seq,
	})
	return s.seq
}

// discard drops the provisional entry with handle seq.
func (s *Session) discard(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlay = slices.DeleteFunc(s.overlay, func(e Entry) bool {
		return e.seq == seq
	})
}

// hold records that the entry with handle seq was stored as m. The entry
// stays provisional until the next reconcile.
func (s *Session) hold(seq uint64, m *operation.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.overlay {
		if s.overlay[i].seq == seq {
			c := *m
			s.overlay[i].stored = &c
			return
		}
	}
}

// reconcile folds stored messages into the log, each replacing the
// provisional entry with its handle. Held entries from earlier unfinished
// turns are promoted at the same time, so the committed log follows the
// store's commit order.
func (s *Session) reconcile(done ...settled) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range done {
		if d.seq != 0 {
			s.overlay = slices.DeleteFunc(s.overlay, func(e Entry) bool { return e.seq == d.seq })
		}
		s.insertCommitted(d.msg)
	}

	s.overlay = slices.DeleteFunc(s.overlay, func(e Entry) bool {
		if e.stored == nil {
			return false
		}
		s.insertCommitted(e.stored)
		return true
	})
}

// insertCommitted keeps the log ordered by commit time and free of
// duplicate IDs. Callers hold s.mu.
func (s *Session) insertCommitted(m *operation.Message) {
	if slices.ContainsFunc(s.committed, func(c *operation.Message) bool { return c.ID == m.ID }) {
		return
	}
	c := *m
	i, _ := slices.BinarySearchFunc(s.committed, &c, compareCommitted)
	s.committed = slices.Insert(s.committed, i, &c)
}

func compareCommitted(a, b *operation.Message) int {
	if c := a.CommittedAt.Compare(b.CommittedAt); c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}
