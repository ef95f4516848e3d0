package fieldcrypt

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/spf13/cast"
)

// ErrNotCoercible is wrapped by Coerce failures.
var ErrNotCoercible = errors.New("decrypted value not coercible")

// Coerce converts decrypted text to target. Booleans, integers and floats use
// strict parsing; arrays and objects must be JSON of the matching shape.
//
//	boolean -> bool
//	integer -> int
//	float   -> float64
//	string  -> string
//	array   -> []any
//	object  -> map[string]any
//	null    -> nil
func Coerce(target TargetType, text string) (any, error) {
	var (
		v   any
		err error
	)
	switch target {
	case TargetString:
		return text, nil
	case TargetNull:
		return nil, nil
	case TargetBoolean:
		v, err = cast.ToBoolE(text)
	case TargetInteger:
		v, err = cast.ToIntE(text)
	case TargetFloat:
		v, err = cast.ToFloat64E(text)
	case TargetArray:
		var arr []any
		err = json.Unmarshal([]byte(text), &arr)
		if arr == nil {
			arr = []any{}
		}
		v = arr
	case TargetObject:
		var obj map[string]any
		err = json.Unmarshal([]byte(text), &obj)
		if obj == nil {
			obj = map[string]any{}
		}
		v = obj
	default:
		return nil, fmt.Errorf("unknown target type %q", target)
	}
	// Parser errors quote their input, which is plaintext here.
	if err != nil {
		return nil, fmt.Errorf("%w: not a valid %s", ErrNotCoercible, target)
	}
	return v, nil
}

// plaintextOf renders a non-null field value as the text handed to the
// cipher. No validation against the target type happens here.
func plaintextOf(v any) (string, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Pointer:
		if !rv.IsNil() && rv.Elem().Kind() == reflect.String {
			return rv.Elem().String(), nil
		}
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return string(rv.Bytes()), nil
		}
		return marshalText(v)
	case reflect.Array, reflect.Map, reflect.Struct:
		return marshalText(v)
	}
	text, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("cannot render %T as text", v)
	}
	return text, nil
}

func marshalText(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
