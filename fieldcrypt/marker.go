package fieldcrypt

import (
	"fmt"
	"reflect"
	"strings"
)

// TagKey is the struct tag that marks a field for encryption.
//
//	type User struct {
//		SSN     string  `encrypted:"string"`
//		Age     *string `encrypted:"integer"`
//		Profile string  `encrypted:"object"`
//	}
const TagKey = "encrypted"

// TargetType is the scalar type a decrypted value is coerced to.
type TargetType string

const (
	TargetBoolean TargetType = "boolean"
	TargetInteger TargetType = "integer"
	TargetFloat   TargetType = "float"
	TargetString  TargetType = "string"
	TargetArray   TargetType = "array"
	TargetObject  TargetType = "object"
	TargetNull    TargetType = "null"
)

var targetTypes = map[string]TargetType{
	"boolean": TargetBoolean,
	"bool":    TargetBoolean,
	"integer": TargetInteger,
	"int":     TargetInteger,
	"float":   TargetFloat,
	"double":  TargetFloat,
	"string":  TargetString,
	"array":   TargetArray,
	"object":  TargetObject,
	"null":    TargetNull,
}

// Marker is the declarative encryption capability attached to a field.
type Marker struct {
	Target TargetType
}

// ParseMarker resolves a tag value. An empty value means string.
func ParseMarker(value string) (Marker, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return Marker{Target: TargetString}, nil
	}
	target, ok := targetTypes[value]
	if !ok {
		return Marker{}, fmt.Errorf("unknown target type %q", value)
	}
	return Marker{Target: target}, nil
}

// LookupMarker reports whether tag carries the encryption marker and parses it.
func LookupMarker(tag reflect.StructTag) (Marker, bool, error) {
	value, ok := tag.Lookup(TagKey)
	if !ok {
		return Marker{}, false, nil
	}
	m, err := ParseMarker(value)
	return m, true, err
}
