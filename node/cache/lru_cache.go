package cache

import (
	hamt "github.com/raviqqe/hamt"
)

type entryString string

// FNV hash prime
const primeRK = 16777619

func (s entryString) Hash() uint32 {
	data := []byte(s)

	hash := uint32(0)
	for i := 0; i < len(data); i++ {
		hash = hash*primeRK + uint32(data[i])
	}
	return hash
}

func (s entryString) Equal(e hamt.Entry) bool {
	other, ok := e.(entryString)
	if !ok {
		return false
	}
	return s == other
}

type node struct {
	key   hamt.Entry
	value interface{}
	pre   *node
	next  *node
}

// LruCache keeps the most recently touched entries, evicting from the head
// of a doubly linked recency list once capacity is reached.
type LruCache struct {
	Capacity int
	Size     int
	head     *node
	end      *node

	entries hamt.Map
}

func NewLruCache(capacity int) *LruCache {
	return &LruCache{
		Capacity: capacity,
		entries:  hamt.NewMap(),
	}
}

func (l *LruCache) addNode(n *node) {
	if l.end != nil {
		l.end.next = n
		n.pre = l.end
		n.next = nil
	}
	l.end = n
	if l.head == nil {
		l.head = n
	}
}

func (l *LruCache) removeNode(n *node) hamt.Entry {
	if n == l.end {
		l.end = l.end.pre
	} else if n == l.head {
		l.head = l.head.next
	} else {
		n.pre.next = n.next
		n.next.pre = n.pre
	}
	return n.key
}

func (l *LruCache) refreshNode(n *node) {
	if n == l.end {
		return
	}
	l.removeNode(n)
	l.addNode(n)
}

func (l *LruCache) get(key hamt.Entry) interface{} {
	value := l.entries.Find(key)
	if value == nil {
		return nil
	}
	n := value.(*node)
	l.refreshNode(n)
	return n.value
}

func (l *LruCache) put(key hamt.Entry, value interface{}) {
	oldValue := l.entries.Find(key)
	if oldValue == nil {
		n := node{key: key, value: value}
		if l.entries.Size() >= l.Capacity {
			oldKey := l.removeNode(l.head)
			l.entries = l.entries.Delete(oldKey).Insert(key, &n)
		} else {
			l.entries = l.entries.Insert(key, &n)
		}
		l.addNode(&n)
	} else {
		n := oldValue.(*node)
		n.value = value
		l.refreshNode(n)
		l.entries = l.entries.Insert(key, n)
	}
	l.Size = l.entries.Size()
}

func (l *LruCache) evict(key hamt.Entry) {
	value := l.entries.Find(key)
	if value != nil {
		oldKey := l.removeNode(value.(*node))
		l.entries = l.entries.Delete(oldKey)
		l.Size = l.entries.Size()
	}
}
