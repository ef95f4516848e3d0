package fieldcrypt

import "github.com/google/uuid"

// ObjectID is an opaque identity token for a live object. It is never
// persisted and is only meaningful within one process.
type ObjectID uuid.UUID

func (id ObjectID) String() string { return uuid.UUID(id).String() }

// IsZero reports whether id was never assigned.
func (id ObjectID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

// Identifiable objects carry their own identity token.
type Identifiable interface {
	ObjectID() ObjectID
}

// Tracked can be embedded in a model to give it a stable identity token.
// Models that do not embed it are identified by pointer for the lifetime
// of the coordinator session.
//
//	type User struct {
//		fieldcrypt.Tracked `gorm:"-"`
//		SSN string `encrypted:"string"`
//	}
//
// The token belongs to one instance: a value copy gets a fresh token the
// first time it is asked for one.
type Tracked struct {
	id    uuid.UUID
	owner *Tracked
}

// ObjectID returns the token, assigning one on first use.
func (t *Tracked) ObjectID() ObjectID {
	if t.id == uuid.Nil || t.owner != t {
		t.id = uuid.New()
		t.owner = t
	}
	return ObjectID(t.id)
}

// identities assigns tokens to objects that are not Identifiable.
type identities struct {
	byPointer map[any]ObjectID
}

func newIdentities() *identities {
	return &identities{byPointer: make(map[any]ObjectID)}
}

// of returns the token for obj, which must be a non-nil pointer.
func (s *identities) of(obj any) ObjectID {
	if ident, ok := obj.(Identifiable); ok {
		return ident.ObjectID()
	}
	if id, ok := s.byPointer[obj]; ok {
		return id
	}
	id := ObjectID(uuid.New())
	s.byPointer[obj] = id
	return id
}

// lookup returns the token of obj without assigning one.
func (s *identities) lookup(obj any) (ObjectID, bool) {
	if ident, ok := obj.(Identifiable); ok {
		return ident.ObjectID(), true
	}
	id, ok := s.byPointer[obj]
	return id, ok
}

func (s *identities) len() int { return len(s.byPointer) }

func (s *identities) reset() {
	s.byPointer = make(map[any]ObjectID)
}
