package fieldcrypt

import (
	"reflect"
	"sync"

	apperrors "github.com/kbukum/fieldcrypt/errors"
)

// FieldCache holds the marked-field descriptors of every type seen so far.
// Entries are never invalidated since a Go type's shape is fixed. It is safe
// for concurrent use.
type FieldCache struct {
	mu      sync.RWMutex
	entries map[reflect.Type][]Descriptor
}

var defaultCache = NewFieldCache()

// NewFieldCache creates an empty cache.
func NewFieldCache() *FieldCache {
	return &FieldCache{entries: make(map[reflect.Type][]Descriptor)}
}

// DefaultCache returns the process-wide cache.
func DefaultCache() *FieldCache { return defaultCache }

// EncryptedFields returns the descriptors of typ's marked fields in
// declaration order, consulting schema only the first time typ is seen.
// The returned slice is shared and must not be modified. Build errors are
// not cached.
func (c *FieldCache) EncryptedFields(typ reflect.Type, schema MetadataProvider) ([]Descriptor, error) {
	c.mu.RLock()
	if cached, ok := c.entries[typ]; ok {
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.entries[typ]; ok {
		return cached, nil
	}

	descriptors, err := buildDescriptors(typ, schema)
	if err != nil {
		return nil, err
	}
	c.entries[typ] = descriptors
	return descriptors, nil
}

// Len returns the number of cached types.
func (c *FieldCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Reset empties the cache. Intended for tests.
func (c *FieldCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[reflect.Type][]Descriptor)
}

func buildDescriptors(typ reflect.Type, schema MetadataProvider) ([]Descriptor, error) {
	fields, err := schema.Fields(typ)
	if err != nil {
		return nil, err
	}

	// Non-nil so an unmarked type is cached as empty.
	descriptors := make([]Descriptor, 0)
	for _, f := range fields {
		marker, ok, err := LookupMarker(f.Tag)
		if !ok {
			continue
		}
		if err != nil {
			return nil, apperrors.InvalidMarker(typ.String(), f.Name, f.Tag.Get(TagKey))
		}

		sh, ok := shapeOf(f.Accessor.Type())
		if !ok {
			return nil, apperrors.UnsupportedField(typ.String(), f.Name, f.Accessor.Type().String())
		}

		mapping, err := schema.FieldMapping(typ, f.Name)
		if err != nil {
			return nil, err
		}

		descriptors = append(descriptors, Descriptor{
			Name:     f.Name,
			Accessor: f.Accessor,
			Target:   marker.Target,
			Nullable: mapping.Nullable,
			shape:    sh,
		})
	}
	return descriptors, nil
}
