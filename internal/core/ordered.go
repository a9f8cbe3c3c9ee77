package core

// orderedMap is a map that iterates in insertion order.
type orderedMap[K comparable, V any] struct {
	index  map[K]int
	values []V
}

func newOrderedMap[K comparable, V any]() *orderedMap[K, V] {
	return &orderedMap[K, V]{index: make(map[K]int)}
}

func (m *orderedMap[K, V]) get(k K) (V, bool) {
	if i, ok := m.index[k]; ok {
		return m.values[i], true
	}
	var zero V
	return zero, false
}

// getOrInsert returns the value for k, storing newValue() first if k is absent.
func (m *orderedMap[K, V]) getOrInsert(k K, newValue func() V) V {
	if v, ok := m.get(k); ok {
		return v
	}
	v := newValue()
	m.index[k] = len(m.values)
	m.values = append(m.values, v)
	return v
}

func (m *orderedMap[K, V]) len() int {
	return len(m.values)
}

// all returns the values in insertion order. The slice is owned by the map.
func (m *orderedMap[K, V]) all() []V {
	return m.values
}
