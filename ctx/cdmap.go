package ctx

// CDInsertHashMap is a map in which only insertions occur within a
// level: pop removes every insertion made above the snapshot level
// (spec §4.1 "CDInsertHashMap<K,V>"). It is the structure the
// arithmetic plugin's on-demand reason provider is built on (see
// arith.cachedReason).
type CDInsertHashMap[K comparable, V any] struct {
	c       *Context
	m       map[K]V
	batches []insertBatch[K]
}

type insertBatch[K comparable] struct {
	level int
	keys  []K
}

// NewCDInsertHashMap creates an empty context-dependent insert-only
// map.
func NewCDInsertHashMap[K comparable, V any](c *Context) *CDInsertHashMap[K, V] {
	m := &CDInsertHashMap[K, V]{c: c, m: make(map[K]V)}
	c.Register(m)
	return m
}

// Get looks up k.
func (m *CDInsertHashMap[K, V]) Get(k K) (V, bool) {
	v, ok := m.m[k]
	return v, ok
}

// Insert records k -> v. Inserting an already-present key is an
// invariant violation: this structure models "only insertions occur
// within a level" (spec §4.1), not updates.
func (m *CDInsertHashMap[K, V]) Insert(k K, v V) {
	if _, exists := m.m[k]; exists {
		panic("ctx: CDInsertHashMap.Insert called with an already-present key")
	}
	if len(m.batches) == 0 || m.batches[len(m.batches)-1].level != m.c.Level() {
		m.batches = append(m.batches, insertBatch[K]{level: m.c.Level()})
	}
	last := len(m.batches) - 1
	m.batches[last].keys = append(m.batches[last].keys, k)
	m.m[k] = v
}

// OnPop implements Notify.
func (m *CDInsertHashMap[K, V]) OnPop(level int) {
	for len(m.batches) > 0 && m.batches[len(m.batches)-1].level > level {
		b := m.batches[len(m.batches)-1]
		for _, k := range b.keys {
			delete(m.m, k)
		}
		m.batches = m.batches[:len(m.batches)-1]
	}
}
