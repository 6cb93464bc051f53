package interceptor

import "sync"

// dirEntry is one open remote directory stream: the full listing fetched
// once at opendir time and a read cursor, since the protocol's READDIR
// op returns a whole directory in one round trip rather than supporting
// incremental iteration.
type dirEntry struct {
	path    string
	entries []dirItem
	pos     int
}

type dirItem struct {
	name  string
	isDir bool
}

// dirTable maps the opaque DIR* pointers handed back to the target
// process to dirEntry state. Keyed by an incrementing handle rather than
// the real pointer value since Go cannot produce a C DIR* itself; the
// cgo layer in cmd/remotelink-interceptor (rl_opendir) returns the
// handle to C as a plain unsigned long long.
type dirTable struct {
	mu      sync.Mutex
	entries map[uintptr]*dirEntry
	next    uintptr
}

func newDirTable() *dirTable {
	return &dirTable{entries: make(map[uintptr]*dirEntry)}
}

func (t *dirTable) alloc(e *dirEntry) uintptr {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	h := t.next
	t.entries[h] = e
	return h
}

func (t *dirTable) get(h uintptr) (*dirEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[h]
	return e, ok
}

func (t *dirTable) free(h uintptr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, h)
}

// nextName returns the next entry name in readdir order, or ok=false at
// end of stream.
func (e *dirEntry) nextName() (name string, isDir bool, ok bool) {
	if e.pos >= len(e.entries) {
		return "", false, false
	}
	item := e.entries[e.pos]
	e.pos++
	return item.name, item.isDir, true
}
