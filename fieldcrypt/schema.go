package fieldcrypt

import (
	"fmt"
	"reflect"

	apperrors "github.com/kbukum/fieldcrypt/errors"
)

// Field describes one persistent field of a type as seen by the schema layer.
type Field struct {
	Name     string
	Tag      reflect.StructTag
	Accessor FieldAccessor
}

// FieldMapping is the persistence mapping of a single field.
type FieldMapping struct {
	Nullable bool
}

// MetadataProvider is the persistence framework's schema layer.
// Both methods fail with a MAPPING_ERROR for unmapped types.
type MetadataProvider interface {
	Fields(typ reflect.Type) ([]Field, error)
	FieldMapping(typ reflect.Type, name string) (FieldMapping, error)
}

// ChangeTracker is the persistence framework's unit of work.
type ChangeTracker interface {
	// RecomputeChangeSet makes the current in-memory values of obj the ones
	// that will be written.
	RecomputeChangeSet(typ reflect.Type, obj any) error
	// SetTrackedOriginalValue records value as the clean value of a field so
	// that restoring or decrypting it does not mark the object dirty.
	SetTrackedOriginalValue(id ObjectID, field string, value any)
}

// Host is what a lifecycle hook needs from the persistence framework.
type Host interface {
	MetadataProvider
	ChangeTracker
}

type host struct {
	MetadataProvider
	ChangeTracker
}

// NewHost combines a schema provider and a change tracker.
func NewHost(schema MetadataProvider, tracker ChangeTracker) Host {
	return host{MetadataProvider: schema, ChangeTracker: tracker}
}

// StructSchema maps exported, non-embedded struct fields using reflection.
// Pointer, interface, slice and map fields are nullable. The zero value is
// ready to use.
type StructSchema struct{}

var _ MetadataProvider = StructSchema{}

func (StructSchema) Fields(typ reflect.Type) ([]Field, error) {
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil, apperrors.Mapping(typeName(typ), "not a struct type")
	}
	var fields []Field
	for _, sf := range reflect.VisibleFields(typ) {
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		acc, err := NewStructFieldAccessor(typ, sf.Name)
		if err != nil {
			continue
		}
		fields = append(fields, Field{Name: sf.Name, Tag: sf.Tag, Accessor: acc})
	}
	return fields, nil
}

func (StructSchema) FieldMapping(typ reflect.Type, name string) (FieldMapping, error) {
	if typ == nil || typ.Kind() != reflect.Struct {
		return FieldMapping{}, apperrors.Mapping(typeName(typ), "not a struct type")
	}
	sf, ok := typ.FieldByName(name)
	if !ok {
		return FieldMapping{}, apperrors.Mapping(typeName(typ), fmt.Sprintf("no field %q", name))
	}
	switch sf.Type.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
		return FieldMapping{Nullable: true}, nil
	default:
		return FieldMapping{}, nil
	}
}

func typeName(typ reflect.Type) string {
	if typ == nil {
		return "<nil>"
	}
	return typ.String()
}
