package gormcrypt

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"gorm.io/gorm/schema"

	apperrors "github.com/kbukum/fieldcrypt/errors"
	"github.com/kbukum/fieldcrypt/fieldcrypt"
)

// Schema exposes GORM model metadata to the field encryption core. Only
// fields backed by a column are reported. A field is nullable unless it is a
// primary key or tagged not null.
type Schema struct {
	namer schema.Namer
	cache *sync.Map
}

var _ fieldcrypt.MetadataProvider = (*Schema)(nil)

// NewSchema creates a provider that names columns with namer. A nil namer
// uses GORM's default naming strategy.
func NewSchema(namer schema.Namer) *Schema {
	if namer == nil {
		namer = schema.NamingStrategy{}
	}
	return &Schema{namer: namer, cache: &sync.Map{}}
}

// Parse returns the GORM schema of typ.
func (s *Schema) Parse(typ reflect.Type) (*schema.Schema, error) {
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil, apperrors.Mapping(fmt.Sprint(typ), "not a struct type")
	}
	sch, err := schema.Parse(reflect.New(typ).Interface(), s.cache, s.namer)
	if err != nil {
		return nil, apperrors.Mapping(typ.String(), err.Error())
	}
	return sch, nil
}

func (s *Schema) Fields(typ reflect.Type) ([]fieldcrypt.Field, error) {
	sch, err := s.Parse(typ)
	if err != nil {
		return nil, err
	}
	fields := make([]fieldcrypt.Field, 0, len(sch.Fields))
	for _, f := range sch.Fields {
		if f.DBName == "" {
			continue
		}
		fields = append(fields, fieldcrypt.Field{
			Name:     f.Name,
			Tag:      f.Tag,
			Accessor: &fieldAccessor{owner: typ, field: f},
		})
	}
	return fields, nil
}

func (s *Schema) FieldMapping(typ reflect.Type, name string) (fieldcrypt.FieldMapping, error) {
	sch, err := s.Parse(typ)
	if err != nil {
		return fieldcrypt.FieldMapping{}, err
	}
	f := sch.LookUpField(name)
	if f == nil || f.DBName == "" {
		return fieldcrypt.FieldMapping{}, apperrors.Mapping(typ.String(), fmt.Sprintf("no column for field %q", name))
	}
	return fieldcrypt.FieldMapping{Nullable: !f.NotNull && !f.PrimaryKey}, nil
}

// fieldAccessor reads and writes a field through GORM's own field
// reflection, so promoted and prefixed embedded fields resolve the same way
// they do for queries.
type fieldAccessor struct {
	owner reflect.Type
	field *schema.Field
}

func (a *fieldAccessor) Type() reflect.Type { return a.field.FieldType }

func (a *fieldAccessor) elem(obj any) (reflect.Value, error) {
	rv := reflect.ValueOf(obj)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return reflect.Value{}, fmt.Errorf("%s.%s: expected non-nil pointer, got %T", a.owner, a.field.Name, obj)
	}
	rv = rv.Elem()
	if rv.Type() != a.owner {
		return reflect.Value{}, fmt.Errorf("%s.%s: object is %s", a.owner, a.field.Name, rv.Type())
	}
	return rv, nil
}

func (a *fieldAccessor) Get(obj any) (any, error) {
	rv, err := a.elem(obj)
	if err != nil {
		return nil, err
	}
	// Walk the index by hand: ValueOf wraps serializer fields and
	// ReflectValueOf allocates nil embedded pointers.
	for _, i := range a.field.StructField.Index {
		if i >= 0 {
			rv = rv.Field(i)
			continue
		}
		rv = rv.Field(-i - 1)
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	return rv.Interface(), nil
}

func (a *fieldAccessor) Set(obj any, value any) error {
	rv, err := a.elem(obj)
	if err != nil {
		return err
	}
	fv := a.field.ReflectValueOf(context.Background(), rv)
	if !fv.CanSet() {
		return fmt.Errorf("%s.%s is not settable", a.owner, a.field.Name)
	}
	if err := fieldcrypt.Assign(fv, value); err != nil {
		return fmt.Errorf("%s.%s: %w", a.owner, a.field.Name, err)
	}
	return nil
}
