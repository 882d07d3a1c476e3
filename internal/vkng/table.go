package vkng

// table hands out opaque handles for driver objects. Zero is never issued.
type table[H ~uint64, T any] struct {
	next  uint64
	items map[H]T
}

func (t *table[H, T]) put(v T) H {
	if t.items == nil {
		t.items = map[H]T{}
	}
	t.next++
	h := H(t.next)
	t.items[h] = v
	return h
}

func (t *table[H, T]) get(h H) T {
	return t.items[h]
}

func (t *table[H, T]) take(h H) (T, bool) {
	v, ok := t.items[h]
	delete(t.items, h)
	return v, ok
}

func (t *table[H, T]) len() int {
	return len(t.items)
}
