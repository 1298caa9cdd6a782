package cache

import (
	"sync"

	"golang.org/x/xerrors"
)

type CacheSvcApi interface {
	CreateCache(name string, capacity int) error
	Get(name string, key string) (interface{}, error)
	Put(name string, key string, value interface{}) error
	Evict(name string, key string) error
}

// CacheSvc manages named in-process LRU caches. Constructed once per node
// and injected; there is no package-level singleton.
type CacheSvc struct {
	lk     sync.Mutex
	caches map[string]*LruCache
}

func NewCacheSvc() *CacheSvc {
	return &CacheSvc{
		caches: make(map[string]*LruCache),
	}
}

func (svc *CacheSvc) CreateCache(name string, capacity int) error {
	svc.lk.Lock()
	defer svc.lk.Unlock()

	if svc.caches[name] != nil {
		return xerrors.Errorf("the cache [%s] is existing already", name)
	}

	svc.caches[name] = NewLruCache(capacity)

	return nil
}

func (svc *CacheSvc) Get(name string, key string) (interface{}, error) {
	svc.lk.Lock()
	defer svc.lk.Unlock()

	cache := svc.caches[name]
	if cache == nil {
		return nil, xerrors.Errorf("the cache [%s] not found", name)
	}

	return cache.get(entryString(key)), nil
}

func (svc *CacheSvc) Put(name string, key string, value interface{}) error {
	svc.lk.Lock()
	defer svc.lk.Unlock()

	cache := svc.caches[name]
	if cache == nil {
		return xerrors.Errorf("the cache [%s] not found", name)
	}

	cache.put(entryString(key), value)

	return nil
}

func (svc *CacheSvc) Evict(name string, key string) error {
	svc.lk.Lock()
	defer svc.lk.Unlock()

	cache := svc.caches[name]
	if cache == nil {
		return xerrors.Errorf("the cache [%s] not found", name)
	}

	cache.evict(entryString(key))

	return nil
}
