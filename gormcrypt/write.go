package gormcrypt

import (
	"fmt"
	"reflect"

	"gorm.io/gorm"

	apperrors "github.com/kbukum/fieldcrypt/errors"
	"github.com/kbukum/fieldcrypt/fieldcrypt"
)

// statementHost is the fieldcrypt.Host of one GORM statement. Map
// destinations get the ciphertext of their model copied in on recompute.
type statementHost struct {
	*Schema
	session *Session
	maps    []*mapWrite
}

var _ fieldcrypt.Host = (*statementHost)(nil)

func (h *statementHost) RecomputeChangeSet(typ reflect.Type, obj any) error {
	for _, m := range h.maps {
		if m.model != obj {
			continue
		}
		for _, d := range m.fields {
			v, err := d.Accessor.Get(obj)
			if err != nil {
				return apperrors.EncryptionFailed(typ.String(), d.Name, err)
			}
			m.values[m.keys[d.Name]] = v
		}
	}
	return h.session.RecomputeChangeSet(typ, obj)
}

func (h *statementHost) SetTrackedOriginalValue(id fieldcrypt.ObjectID, field string, value any) {
	h.session.SetTrackedOriginalValue(id, field, value)
}

func (h *statementHost) restoreMaps() {
	for _, m := range h.maps {
		m.restore()
	}
}

// mapWrite is a map destination whose encrypted keys are encrypted through
// a model object.
type mapWrite struct {
	values   map[string]any
	model    any
	fields   []fieldcrypt.Descriptor
	keys     map[string]string
	original map[string]any
}

func (m *mapWrite) restore() {
	for k, v := range m.original {
		m.values[k] = v
	}
}

// writeSet returns the objects a create or update statement writes.
func (p *Plugin) writeSet(db *gorm.DB, fields []fieldcrypt.Descriptor, update bool) ([]any, []*mapWrite, error) {
	stmt := db.Statement
	typ := stmt.Schema.ModelType

	switch dest := stmt.Dest.(type) {
	case map[string]any:
		m, err := newMapWrite(stmt, dest, fields)
		if err != nil || m == nil {
			return nil, nil, err
		}
		return []any{m.model}, []*mapWrite{m}, nil
	case []map[string]any, *[]map[string]any, *map[string]any:
		return nil, nil, apperrors.Mapping(typ.String(), "encrypted fields cannot be written from this map destination")
	}

	if update && !sameTarget(stmt.Dest, stmt.Model) {
		if err := rejectDistinctDest(stmt.Dest, typ, fields); err != nil {
			return nil, nil, err
		}
		return nil, nil, nil
	}

	objects, unaddressable := elements(stmt.ReflectValue)
	if unaddressable {
		return nil, nil, apperrors.Mapping(typ.String(), "encrypted models must be passed by pointer")
	}
	return objects, nil, nil
}

func newMapWrite(stmt *gorm.Statement, dest map[string]any, fields []fieldcrypt.Descriptor) (*mapWrite, error) {
	typ := stmt.Schema.ModelType
	m := &mapWrite{
		values:   dest,
		keys:     make(map[string]string),
		original: make(map[string]any),
	}
	for _, d := range fields {
		key, ok := mapKey(stmt, dest, d.Name)
		if !ok {
			continue
		}
		m.fields = append(m.fields, d)
		m.keys[d.Name] = key
		m.original[key] = dest[key]
	}
	if len(m.fields) == 0 {
		return nil, nil
	}

	rv := stmt.ReflectValue
	if rv.Kind() == reflect.Struct && rv.CanAddr() && rv.Type() == typ {
		m.model = rv.Addr().Interface()
	} else {
		m.model = reflect.New(typ).Interface()
	}
	for _, d := range m.fields {
		if err := assignLoose(d, m.model, dest[m.keys[d.Name]]); err != nil {
			return nil, apperrors.EncryptionFailed(typ.String(), d.Name, err)
		}
	}
	return m, nil
}

// mapKey finds the key that sets field in dest, by field name or column.
func mapKey(stmt *gorm.Statement, dest map[string]any, field string) (string, bool) {
	if _, ok := dest[field]; ok {
		return field, true
	}
	if f := stmt.Schema.LookUpField(field); f != nil && f.DBName != "" {
		if _, ok := dest[f.DBName]; ok {
			return f.DBName, true
		}
	}
	return "", false
}

// assignLoose sets a map value on a model field, wrapping a plain value in a
// pointer for pointer fields.
func assignLoose(d fieldcrypt.Descriptor, obj, value any) error {
	err := d.Accessor.Set(obj, value)
	if err == nil || value == nil {
		return err
	}
	t := d.Accessor.Type()
	if t.Kind() != reflect.Pointer {
		return err
	}
	ptr := reflect.New(t.Elem())
	if fieldcrypt.Assign(ptr.Elem(), value) != nil {
		return err
	}
	return d.Accessor.Set(obj, ptr.Interface())
}

// rejectDistinctDest fails when an update is given a struct other than the
// model that sets encrypted fields. GORM writes only its non-zero fields and
// ciphertext is never zero, so it cannot be encrypted without widening the
// update.
func rejectDistinctDest(dest any, typ reflect.Type, fields []fieldcrypt.Descriptor) error {
	dv := reflect.Indirect(reflect.ValueOf(dest))
	if dv.Kind() != reflect.Struct || dv.Type() != typ {
		return nil
	}
	cp := reflect.New(typ)
	cp.Elem().Set(dv)
	for _, d := range fields {
		v, err := d.Accessor.Get(cp.Interface())
		if err != nil {
			return apperrors.EncryptionFailed(typ.String(), d.Name, err)
		}
		if v != nil && !reflect.ValueOf(v).IsZero() {
			return apperrors.Mapping(typ.String(),
				fmt.Sprintf("field %s must be written through a pointer to the model or a map", d.Name))
		}
	}
	return nil
}

// elements returns pointers to the structs held by rv, which is a struct or
// a slice or array of structs or struct pointers. The flag reports structs
// that could not be addressed.
func elements(rv reflect.Value) ([]any, bool) {
	switch rv.Kind() {
	case reflect.Struct:
		if !rv.CanAddr() {
			return nil, true
		}
		return []any{rv.Addr().Interface()}, false
	case reflect.Slice, reflect.Array:
		objects := make([]any, 0, rv.Len())
		unaddressable := false
		for i := 0; i < rv.Len(); i++ {
			e := rv.Index(i)
			for e.Kind() == reflect.Pointer || e.Kind() == reflect.Interface {
				if e.IsNil() {
					break
				}
				e = e.Elem()
			}
			if e.Kind() != reflect.Struct {
				continue
			}
			if !e.CanAddr() {
				unaddressable = true
				continue
			}
			objects = append(objects, e.Addr().Interface())
		}
		return objects, unaddressable
	default:
		return nil, false
	}
}

// structType returns the struct type held by rv, looking through slices and
// pointers.
func structType(rv reflect.Value) reflect.Type {
	if !rv.IsValid() {
		return nil
	}
	t := rv.Type()
	for {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array:
			t = t.Elem()
		case reflect.Struct:
			return t
		default:
			return nil
		}
	}
}

func sameTarget(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() != reflect.Pointer || vb.Kind() != reflect.Pointer {
		return false
	}
	return va.Type() == vb.Type() && va.Pointer() == vb.Pointer()
}
