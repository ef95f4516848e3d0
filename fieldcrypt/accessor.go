package fieldcrypt

import (
	"fmt"
	"reflect"
)

// FieldAccessor reads and writes one field of objects of a single type.
// Objects are always non-nil pointers to the owner struct.
type FieldAccessor interface {
	Get(obj any) (any, error)
	Set(obj any, value any) error
	Type() reflect.Type
}

type structFieldAccessor struct {
	owner reflect.Type
	name  string
	index []int
	typ   reflect.Type
}

// NewStructFieldAccessor resolves field name of owner once so later access is
// an index walk. Promoted fields of embedded structs are supported.
func NewStructFieldAccessor(owner reflect.Type, name string) (FieldAccessor, error) {
	if owner.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%s is not a struct", owner)
	}
	sf, ok := owner.FieldByName(name)
	if !ok {
		return nil, fmt.Errorf("%s has no field %q", owner, name)
	}
	if !sf.IsExported() {
		return nil, fmt.Errorf("%s.%s is not exported", owner, name)
	}
	return &structFieldAccessor{
		owner: owner,
		name:  name,
		index: sf.Index,
		typ:   sf.Type,
	}, nil
}

func (a *structFieldAccessor) Type() reflect.Type { return a.typ }

func (a *structFieldAccessor) field(obj any) (reflect.Value, error) {
	rv := reflect.ValueOf(obj)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return reflect.Value{}, fmt.Errorf("%s.%s: expected non-nil pointer, got %T", a.owner, a.name, obj)
	}
	rv = rv.Elem()
	if rv.Type() != a.owner {
		return reflect.Value{}, fmt.Errorf("%s.%s: object is %s", a.owner, a.name, rv.Type())
	}
	fv, err := rv.FieldByIndexErr(a.index)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%s.%s: %w", a.owner, a.name, err)
	}
	if !fv.CanSet() {
		return reflect.Value{}, fmt.Errorf("%s.%s is not settable", a.owner, a.name)
	}
	return fv, nil
}

func (a *structFieldAccessor) Get(obj any) (any, error) {
	fv, err := a.field(obj)
	if err != nil {
		return nil, err
	}
	return fv.Interface(), nil
}

// Set assigns value, converting between named and underlying types.
// A nil value stores the zero value.
func (a *structFieldAccessor) Set(obj any, value any) error {
	fv, err := a.field(obj)
	if err != nil {
		return err
	}
	if err := Assign(fv, value); err != nil {
		return fmt.Errorf("%s.%s: %w", a.owner, a.name, err)
	}
	return nil
}

// Assign stores value in the settable fv. Values of a named or underlying
// type of the same kind are converted, and nil stores the zero value.
func Assign(fv reflect.Value, value any) error {
	if value == nil {
		fv.SetZero()
		return nil
	}
	v := reflect.ValueOf(value)
	switch {
	case v.Type().AssignableTo(fv.Type()):
		fv.Set(v)
	case v.Type().ConvertibleTo(fv.Type()) && v.Kind() == fv.Kind():
		fv.Set(v.Convert(fv.Type()))
	default:
		return fmt.Errorf("cannot assign %s to %s", v.Type(), fv.Type())
	}
	return nil
}
