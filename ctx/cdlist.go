package ctx

// CDList is an append-only, context-dependent list: pop truncates it
// back to the length it had at the target level (spec §4.1
// "CDList<T>").
type CDList[T any] struct {
	c       *Context
	items   []T
	marks   []lengthMark
}

type lengthMark struct {
	level  int
	length int
}

// NewCDList creates an empty context-dependent list.
func NewCDList[T any](c *Context) *CDList[T] {
	l := &CDList[T]{c: c}
	c.Register(l)
	return l
}

// Append adds v, recording the pre-append length the first time the
// list grows at the current level.
func (l *CDList[T]) Append(v T) {
	if len(l.marks) == 0 || l.marks[len(l.marks)-1].level != l.c.Level() {
		l.marks = append(l.marks, lengthMark{level: l.c.Level(), length: len(l.items)})
	}
	l.items = append(l.items, v)
}

// Len is the current length.
func (l *CDList[T]) Len() int { return len(l.items) }

// At returns the i-th element.
func (l *CDList[T]) At(i int) T { return l.items[i] }

// Slice returns the live elements; callers must not retain it across
// a mutation.
func (l *CDList[T]) Slice() []T { return l.items }

// OnPop implements Notify.
func (l *CDList[T]) OnPop(level int) {
	for len(l.marks) > 0 && l.marks[len(l.marks)-1].level > level {
		m := l.marks[len(l.marks)-1]
		l.items = l.items[:m.length]
		l.marks = l.marks[:len(l.marks)-1]
	}
}
