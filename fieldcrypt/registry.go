package fieldcrypt

// DecodedRegistry is the set of objects whose marked fields currently hold
// plaintext decrypted exactly once. It stores identity tokens only.
type DecodedRegistry struct {
	ids map[ObjectID]struct{}
}

// NewDecodedRegistry creates an empty registry.
func NewDecodedRegistry() *DecodedRegistry {
	return &DecodedRegistry{ids: make(map[ObjectID]struct{})}
}

func (r *DecodedRegistry) Has(id ObjectID) bool {
	_, ok := r.ids[id]
	return ok
}

func (r *DecodedRegistry) Add(id ObjectID) { r.ids[id] = struct{}{} }

func (r *DecodedRegistry) Remove(id ObjectID) { delete(r.ids, id) }

func (r *DecodedRegistry) Len() int { return len(r.ids) }

func (r *DecodedRegistry) Clear() { r.ids = make(map[ObjectID]struct{}) }
