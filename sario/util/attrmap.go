package util

// AttrMap is an insertion-ordered map of string attribute keys to string
// values, as parsed from a sidecar file or a container attribute set.
// Hidden keys remain readable through Get but are dropped from Keys;
// the normalizer hides keys it has lifted into the canonical record.
type AttrMap struct {
	keys   []string
	values map[string]string
	hidden map[string]bool
}

func NewAttrMap() *AttrMap {
	return &AttrMap{
		values: map[string]string{},
		hidden: map[string]bool{},
	}
}

// Set adds or replaces a key. First insertion fixes the key's position.
func (m *AttrMap) Set(key, val string) {
	if _, has := m.values[key]; !has {
		m.keys = append(m.keys, key)
	}
	m.values[key] = val
}

func (m *AttrMap) Get(key string) (val string, has bool) {
	val, has = m.values[key]
	return
}

// Hide removes a key from the visible key list without deleting its value.
func (m *AttrMap) Hide(key string) {
	m.hidden[key] = true
}

// Keys returns the visible keys in insertion order.
func (m *AttrMap) Keys() []string {
	keys := make([]string, 0, len(m.keys))
	for _, key := range m.keys {
		if m.hidden[key] {
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

// Len counts the visible keys.
func (m *AttrMap) Len() int {
	return len(m.Keys())
}

// Merge copies every entry of other into m, overwriting duplicates.
// Hidden markers of other are carried over as well.
func (m *AttrMap) Merge(other *AttrMap) {
	if other == nil {
		return
	}
	for _, key := range other.keys {
		m.Set(key, other.values[key])
		if other.hidden[key] {
			m.Hide(key)
		}
	}
}

// Clone returns an independent copy of m.
func (m *AttrMap) Clone() *AttrMap {
	c := NewAttrMap()
	c.Merge(m)
	return c
}
