package testutil

import (
	"reflect"
	"sync"

	"github.com/kbukum/fieldcrypt/fieldcrypt"
)

// Schema wraps a MetadataProvider and counts calls.
type Schema struct {
	inner fieldcrypt.MetadataProvider

	mu       sync.Mutex
	fields   int
	mappings int
}

// NewSchema wraps inner. A nil inner uses fieldcrypt.StructSchema.
func NewSchema(inner fieldcrypt.MetadataProvider) *Schema {
	if inner == nil {
		inner = fieldcrypt.StructSchema{}
	}
	return &Schema{inner: inner}
}

func (s *Schema) Fields(typ reflect.Type) ([]fieldcrypt.Field, error) {
	s.mu.Lock()
	s.fields++
	s.mu.Unlock()
	return s.inner.Fields(typ)
}

func (s *Schema) FieldMapping(typ reflect.Type, name string) (fieldcrypt.FieldMapping, error) {
	s.mu.Lock()
	s.mappings++
	s.mu.Unlock()
	return s.inner.FieldMapping(typ, name)
}

// FieldsCalls returns how many times Fields was called.
func (s *Schema) FieldsCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fields
}

// MappingCalls returns how many times FieldMapping was called.
func (s *Schema) MappingCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mappings
}

// OriginalValue is one recorded SetTrackedOriginalValue call.
type OriginalValue struct {
	ID    fieldcrypt.ObjectID
	Field string
	Value any
}

// Tracker is a ChangeTracker that records calls. OnRecompute, when set, runs
// inside RecomputeChangeSet and can simulate a storage write.
type Tracker struct {
	OnRecompute func(typ reflect.Type, obj any) error

	Recomputed []any
	Originals  []OriginalValue
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker { return &Tracker{} }

func (t *Tracker) RecomputeChangeSet(typ reflect.Type, obj any) error {
	t.Recomputed = append(t.Recomputed, obj)
	if t.OnRecompute != nil {
		return t.OnRecompute(typ, obj)
	}
	return nil
}

func (t *Tracker) SetTrackedOriginalValue(id fieldcrypt.ObjectID, field string, value any) {
	t.Originals = append(t.Originals, OriginalValue{ID: id, Field: field, Value: value})
}

// Original returns the last recorded original for id and field.
func (t *Tracker) Original(id fieldcrypt.ObjectID, field string) (any, bool) {
	for i := len(t.Originals) - 1; i >= 0; i-- {
		if o := t.Originals[i]; o.ID == id && o.Field == field {
			return o.Value, true
		}
	}
	return nil, false
}

// Host bundles a counting Schema and a recording Tracker.
type Host struct {
	*Schema
	*Tracker
}

var _ fieldcrypt.Host = (*Host)(nil)

// NewHost creates a Host over fieldcrypt.StructSchema.
func NewHost() *Host {
	return &Host{Schema: NewSchema(nil), Tracker: NewTracker()}
}
