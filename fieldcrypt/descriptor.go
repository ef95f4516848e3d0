package fieldcrypt

import (
	"errors"
	"fmt"
	"reflect"
)

// shape is how a marked field stores its ciphertext.
type shape int

const (
	shapeString    shape = iota // string or a named string type
	shapeStringPtr              // *string
	shapeBytes                  // []byte
	shapeInterface              // any
)

var errNullValue = errors.New("null value in non-nullable field")

// Descriptor is the cached encryption metadata of one marked field.
// Descriptors are immutable after the FieldCache builds them.
type Descriptor struct {
	Name     string
	Accessor FieldAccessor
	Target   TargetType
	Nullable bool
	shape    shape
}

func shapeOf(t reflect.Type) (shape, bool) {
	switch {
	case t.Kind() == reflect.String:
		return shapeString, true
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.String:
		return shapeStringPtr, true
	case t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8:
		return shapeBytes, true
	case t.Kind() == reflect.Interface && t.NumMethod() == 0:
		return shapeInterface, true
	default:
		return 0, false
	}
}

// read returns the current field value and whether it is null.
func (d Descriptor) read(obj any) (any, bool, error) {
	v, err := d.Accessor.Get(obj)
	if err != nil {
		return nil, false, err
	}
	if v == nil {
		return nil, true, nil
	}
	rv := reflect.ValueOf(v)
	switch d.shape {
	case shapeStringPtr, shapeBytes:
		if rv.IsNil() {
			return v, true, nil
		}
	}
	return v, false, nil
}

// loadedNull reports whether a value read back from storage stands for
// null. Scanning NULL into a string-shaped field leaves it empty, and a
// cipher never produces empty ciphertext, so empty text in a nullable field
// is null.
func (d Descriptor) loadedNull(v any) bool {
	if !d.Nullable {
		return false
	}
	text, err := d.storedText(v)
	return err == nil && text == ""
}

// storedText returns the ciphertext held by a non-null field.
func (d Descriptor) storedText(v any) (string, error) {
	rv := reflect.ValueOf(v)
	switch {
	case rv.Kind() == reflect.String:
		return rv.String(), nil
	case rv.Kind() == reflect.Pointer && rv.Elem().Kind() == reflect.String:
		return rv.Elem().String(), nil
	case rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8:
		return string(rv.Bytes()), nil
	default:
		return "", fmt.Errorf("stored value of type %T is not ciphertext", v)
	}
}

// stringValue builds a value of the field's type holding s. For pointer
// shapes a fresh pointer is allocated so snapshots stay untouched.
func (d Descriptor) stringValue(s string) any {
	t := d.Accessor.Type()
	switch d.shape {
	case shapeStringPtr:
		p := reflect.New(t.Elem())
		p.Elem().SetString(s)
		return p.Interface()
	case shapeBytes:
		return reflect.ValueOf([]byte(s)).Convert(t).Interface()
	case shapeInterface:
		return s
	default:
		return reflect.ValueOf(s).Convert(t).Interface()
	}
}

// decodedValue is what gets written back after a successful decrypt and
// coercion. String-shaped fields keep the decrypted text. Interface fields
// receive the coerced value.
func (d Descriptor) decodedValue(text string, coerced any) any {
	if d.Target == TargetNull {
		return nil
	}
	if d.shape == shapeInterface {
		return coerced
	}
	return d.stringValue(text)
}
