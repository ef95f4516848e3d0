package fieldcrypt

import "reflect"

// PendingField is the plaintext snapshot of one field taken before encryption.
type PendingField struct {
	Descriptor Descriptor
	Plaintext  any
}

// PendingRestoration holds everything needed to put plaintext back on an
// object once its write completes.
type PendingRestoration struct {
	ID     ObjectID
	Object any
	Type   reflect.Type
	Fields []PendingField
}

// PostWriteQueue keeps restorations in the order objects were encrypted.
// It lives for one write cycle.
type PostWriteQueue struct {
	entries []*PendingRestoration
	index   map[ObjectID]struct{}
}

// NewPostWriteQueue creates an empty queue.
func NewPostWriteQueue() *PostWriteQueue {
	return &PostWriteQueue{index: make(map[ObjectID]struct{})}
}

// Push appends p. The caller ensures p.ID is not already queued.
func (q *PostWriteQueue) Push(p *PendingRestoration) {
	q.entries = append(q.entries, p)
	q.index[p.ID] = struct{}{}
}

// Contains reports whether id is queued in the current cycle.
func (q *PostWriteQueue) Contains(id ObjectID) bool {
	_, ok := q.index[id]
	return ok
}

// Drain returns all entries in push order and empties the queue.
func (q *PostWriteQueue) Drain() []*PendingRestoration {
	entries := q.entries
	q.Reset()
	return entries
}

func (q *PostWriteQueue) Len() int { return len(q.entries) }

// Reset discards every entry without restoring anything.
func (q *PostWriteQueue) Reset() {
	q.entries = nil
	q.index = make(map[ObjectID]struct{})
}
