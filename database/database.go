// Package database implements a single numbered keyspace: a map of keys to
// store.Entry values guarded by one mutex, plus the per-key condition
// variables that back the blocking commands (BLPOP, XREAD BLOCK).
package database

import (
	"sync"

	"github.com/rkvdb/rkv/store"
)

// Database is one of the server's numbered keyspaces. All access goes
// through the single mutex; there's no finer-grained locking because
// commands here run in microseconds and contention is cheap to eat, the
// same tradeoff detect.Detector makes for its request/response map.
type Database struct {
	mu    sync.Mutex
	data  map[string]store.Entry
	conds map[string]*waitpoint
}

// waitpoint is a per-key condition variable plus the count of goroutines
// currently parked in WaitFor on it, so forget never discards a cond that
// still has waiters registered against it.
type waitpoint struct {
	cond    *sync.Cond
	waiters int
}

// New returns an empty Database.
func New() *Database {
	return &Database{
		data:  make(map[string]store.Entry),
		conds: make(map[string]*waitpoint),
	}
}

// lookup returns the entry at key if present and not expired, evicting it
// first if its deadline has passed. Callers must hold d.mu.
func (d *Database) lookup(key string) (store.Entry, bool) {
	e, ok := d.data[key]
	if !ok {
		return store.Entry{}, false
	}
	if !e.Present() {
		delete(d.data, key)
		return store.Entry{}, false
	}
	return e, true
}

// Get returns the entry at key, applying lazy expiry.
func (d *Database) Get(key string) (store.Entry, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lookup(key)
}

// Set stores v at key unconditionally, replacing whatever kind was there.
func (d *Database) Set(key string, v store.Entry) {
	d.mu.Lock()
	d.data[key] = v
	d.mu.Unlock()
}

// SetDefault returns the live entry at key if present, otherwise installs
// def and returns it (spec.md §4.4: "returns existing value if present,
// else installs default and returns it").
func (d *Database) SetDefault(key string, def store.Entry) store.Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.lookup(key); ok {
		return e
	}
	d.data[key] = def
	return def
}

// Delete removes key and reports whether it had been present (after lazy
// expiry is taken into account: an already-expired key reports false).
func (d *Database) Delete(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.lookup(key)
	if ok {
		delete(d.data, key)
		d.forget(key)
	}
	return ok
}

// Keys returns every live key, evicting expired ones along the way.
func (d *Database) Keys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.data))
	for k := range d.data {
		if _, ok := d.lookup(k); ok {
			out = append(out, k)
		}
	}
	return out
}

// Len reports the number of live keys, evicting expired ones along the way.
func (d *Database) Len() int {
	return len(d.Keys())
}

// WithValue runs fn against the live entry at key (present=false if absent
// or expired), under the database lock, and stores back whatever fn
// returns when mutate is true. This is the single choke point every
// typed command (string/list/zset/stream) funnels through so entry
// presence, lazy expiry, and the write-back happen atomically.
func (d *Database) WithValue(key string, fn func(e store.Entry, present bool) (store.Entry, bool)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, present := d.lookup(key)
	newEntry, mutate := fn(e, present)
	if !mutate {
		return
	}
	if newEntry.Value.IsEmptyCollection() {
		delete(d.data, key)
		d.forget(key)
		return
	}
	d.data[key] = newEntry
}

// condFor returns the waitpoint for key, creating it if this is the first
// WaitFor to touch it; Notify never creates one, since with no waitpoint
// there is nobody to wake. Callers must hold d.mu.
func (d *Database) condFor(key string) *waitpoint {
	w, ok := d.conds[key]
	if !ok {
		w = &waitpoint{cond: sync.NewCond(&d.mu)}
		d.conds[key] = w
	}
	return w
}

// Notify wakes every goroutine blocked in WaitFor on key. Call this after
// any write that could satisfy a blocked reader (e.g. an RPUSH onto a list
// a BLPOP is waiting on).
func (d *Database) Notify(key string) {
	d.mu.Lock()
	w, ok := d.conds[key]
	d.mu.Unlock()
	if ok {
		w.cond.Broadcast()
	}
}

// WaitFor blocks until predicate(entry, present) reports true for key or
// cancel fires. Callers implement a timeout by closing cancel from a
// time.AfterFunc or a context deadline; WaitFor itself waits forever
// otherwise. It returns the satisfying entry and true, or a zero entry
// and false on cancellation.
//
// This is the classic monitor wait loop: release the lock, sleep on the
// condition variable, reacquire, and re-check the predicate — never trust
// a single wakeup, since Notify is a broadcast and other goroutines may
// have raced in first (spec.md §4.4's wait_for).
func (d *Database) WaitFor(key string, cancel <-chan struct{}, predicate func(e store.Entry, present bool) bool) (store.Entry, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	w := d.condFor(key)
	w.waiters++
	defer func() {
		w.waiters--
		if w.waiters == 0 {
			d.forget(key)
		}
	}()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-cancel:
			d.mu.Lock()
			w.cond.Broadcast()
			d.mu.Unlock()
		case <-done:
		}
	}()

	for {
		e, present := d.lookup(key)
		if predicate(e, present) {
			return e, true
		}
		select {
		case <-cancel:
			return store.Entry{}, false
		default:
		}
		w.cond.Wait()
	}
}

// forget drops an idle waitpoint once its key is deleted, so the conds
// map doesn't grow without bound across the keyspace's lifetime (spec.md
// §4.4: "idle condition variables may be garbage-collected on key
// deletion"). Only removes the entry when no goroutine is currently
// parked in WaitFor on it. Callers must hold d.mu.
func (d *Database) forget(key string) {
	if w, ok := d.conds[key]; ok && w.waiters == 0 {
		delete(d.conds, key)
	}
}
