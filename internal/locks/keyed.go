package locks

import "sync"

// Keyed hands out one mutex per user id so cart and order mutations for
// the same user serialize while different users proceed in parallel.
// Entries are never evicted: the map keeps one mutex for every user id
// ever locked, which stays small enough for the user counts this serves.
type Keyed struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewKeyed() *Keyed {
	return &Keyed{locks: make(map[uint]*sync.Mutex)}
}

func (k *Keyed) Lock(id uint) {
	k.mu.Lock()
	l, ok := k.locks[id]
	if !ok {
		l = &sync.Mutex{}
		k.locks[id] = l
	}
	k.mu.Unlock()
	l.Lock()
}

func (k *Keyed) Unlock(id uint) {
	k.mu.Lock()
	l := k.locks[id]
	k.mu.Unlock()
	if l != nil {
		l.Unlock()
	}
}
