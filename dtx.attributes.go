package dtx

// Attributes is an ordered, read-only mapping of attribute keys to values.
// Keys keep the position of their first occurrence; a repeated key keeps
// its last value.
type Attributes struct {
	keys   []string
	values map[string]string
}

// NewAttributes builds Attributes from alternating key, value arguments.
// A trailing key without a value is ignored.
func NewAttributes(pairs ...string) *Attributes {
	a := &Attributes{values: make(map[string]string, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		a.set(pairs[i], pairs[i+1])
	}
	return a
}

func (a *Attributes) set(key, value string) {
	if _, exists := a.values[key]; !exists {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
}

// With returns a copy of a with key set to value.
func (a *Attributes) With(key, value string) *Attributes {
	out := &Attributes{
		keys:   append([]string(nil), a.Keys()...),
		values: a.Map(),
	}
	out.set(key, value)
	return out
}

// Get returns the value for key.
func (a *Attributes) Get(key string) (string, bool) {
	if a == nil {
		return "", false
	}
	v, ok := a.values[key]
	return v, ok
}

// GetDefault returns the value for key, or def when absent.
func (a *Attributes) GetDefault(key, def string) string {
	if v, ok := a.Get(key); ok {
		return v
	}
	return def
}

// Has reports whether key is present.
func (a *Attributes) Has(key string) bool {
	_, ok := a.Get(key)
	return ok
}

// Keys returns the keys in first-seen order.
func (a *Attributes) Keys() []string {
	if a == nil {
		return nil
	}
	return append([]string(nil), a.keys...)
}

// Len returns the number of attributes.
func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

// Map returns a copy of the attributes as a plain map.
func (a *Attributes) Map() map[string]string {
	out := make(map[string]string, a.Len())
	if a == nil {
		return out
	}
	for k, v := range a.values {
		out[k] = v
	}
	return out
}
