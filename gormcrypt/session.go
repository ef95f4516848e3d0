package gormcrypt

import (
	"context"
	"reflect"

	"gorm.io/gorm"

	"github.com/kbukum/fieldcrypt/fieldcrypt"
)

type sessionKey struct{}

// Session is one unit of work: a Coordinator plus the clean values of the
// decrypted fields it has seen. Objects loaded or written through the same
// Session are decrypted at most once. A Session is not safe for concurrent
// use.
type Session struct {
	coord     *fieldcrypt.Coordinator
	schema    *Schema
	originals map[fieldcrypt.ObjectID]map[string]any
}

var _ fieldcrypt.ChangeTracker = (*Session)(nil)

func newSession(coord *fieldcrypt.Coordinator, sch *Schema) *Session {
	return &Session{
		coord:     coord,
		schema:    sch,
		originals: make(map[fieldcrypt.ObjectID]map[string]any),
	}
}

// ContextWithSession returns a context that routes GORM operations to s.
func ContextWithSession(ctx context.Context, s *Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the Session bound to ctx, if any.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}

// Bind returns a handle whose operations, including preloads and
// transactions opened from it, run in s.
func (s *Session) Bind(db *gorm.DB) *gorm.DB {
	return db.WithContext(ContextWithSession(db.Statement.Context, s))
}

// Coordinator returns the session's coordinator.
func (s *Session) Coordinator() *fieldcrypt.Coordinator { return s.coord }

// RecomputeChangeSet is a no-op: GORM reads field values when it builds the
// statement, after encryption has run.
func (s *Session) RecomputeChangeSet(reflect.Type, any) error { return nil }

func (s *Session) SetTrackedOriginalValue(id fieldcrypt.ObjectID, field string, value any) {
	fields, ok := s.originals[id]
	if !ok {
		fields = make(map[string]any)
		s.originals[id] = fields
	}
	fields[field] = value
}

// Original returns the clean value recorded for a field of obj.
func (s *Session) Original(obj any, field string) (any, bool) {
	id, err := s.coord.IdentityOf(obj)
	if err != nil {
		return nil, false
	}
	v, ok := s.originals[id][field]
	return v, ok
}

// IsDirty reports whether any encrypted field of obj differs from its
// recorded clean value. Fields without a recorded value are not compared.
func (s *Session) IsDirty(obj any) (bool, error) {
	id, err := s.coord.IdentityOf(obj)
	if err != nil {
		return false, err
	}
	descriptors, err := s.coord.Descriptors(s.schema, obj)
	if err != nil {
		return false, err
	}
	clean := s.originals[id]
	for _, d := range descriptors {
		want, ok := clean[d.Name]
		if !ok {
			continue
		}
		got, err := d.Accessor.Get(obj)
		if err != nil {
			return false, err
		}
		if !reflect.DeepEqual(got, want) {
			return true, nil
		}
	}
	return false, nil
}

// Close discards all session state.
func (s *Session) Close() {
	s.coord.Reset()
	s.originals = make(map[fieldcrypt.ObjectID]map[string]any)
}
