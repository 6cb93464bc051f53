// Package socache implements the shared-object cache: the Interceptor's
// dlopen hook needs a real on-disk file to hand to the dynamic linker,
// so a remote shared object is fetched once and cached under a
// deterministic local path, keyed by its logical remote path and
// refreshed only when size or modification time changes.
package socache

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/emoon/remotelink/internal/protocol"
	"github.com/emoon/remotelink/internal/rlog"
)

// Caller performs one file-access-protocol round trip. Satisfied by the
// Interceptor's client.call.
type Caller func(req *protocol.Request) (*protocol.Response, error)

// Cache materializes remote shared objects as local files under dir.
type Cache struct {
	dir  string
	call Caller

	mu     sync.Mutex
	stamps map[string]stamp // logical path -> last-known (size, mtime)
}

type stamp struct {
	size    int64
	modTime int64
}

// New returns a Cache rooted at dir. dir is created lazily on first use.
func New(dir string, call Caller) *Cache {
	return &Cache{dir: dir, call: call, stamps: make(map[string]stamp)}
}

// localName derives a deterministic cache filename for a logical remote
// path: sha256 of the path, hex-encoded, keeping the original extension
// so the dynamic linker's suffix-based heuristics (if any) still work.
func localName(logicalPath string) string {
	sum := sha256.Sum256([]byte(logicalPath))
	return hex.EncodeToString(sum[:]) + filepath.Ext(logicalPath)
}

// Resolve returns the local path of logicalPath, fetching or refreshing
// it from the remote file server first if necessary. Freshness is
// determined by comparing the remote STAT result's (size, mtime) against
// what was cached last time; a mismatch triggers a re-fetch.
func (c *Cache) Resolve(logicalPath string) (string, error) {
	statResp, err := c.call(&protocol.Request{Op: protocol.OpStat, Path: logicalPath})
	if err != nil {
		return "", errors.Wrap(err, "socache: stat")
	}
	if !statResp.OK() {
		return "", statResp.Errno
	}

	local := filepath.Join(c.dir, localName(logicalPath))
	want := stamp{size: statResp.Size, modTime: statResp.ModTime}

	c.mu.Lock()
	have, ok := c.stamps[logicalPath]
	fresh := ok && have == want
	c.mu.Unlock()

	if fresh {
		if _, err := os.Stat(local); err == nil {
			return local, nil
		}
		// Cached stamp survives but the file itself vanished (e.g. tmp
		// cleaner); fall through and refetch.
	}

	if err := c.fetch(logicalPath, local); err != nil {
		return "", err
	}

	c.mu.Lock()
	c.stamps[logicalPath] = want
	c.mu.Unlock()
	return local, nil
}

// fetch downloads the whole file and installs it atomically: write to a
// sibling temp file, then rename over the final name, so a concurrent
// dlopen never observes a partially written shared object.
func (c *Cache) fetch(logicalPath, local string) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return errors.Wrap(err, "socache: mkdir cache dir")
	}
	resp, err := c.call(&protocol.Request{Op: protocol.OpFetch, Path: logicalPath})
	if err != nil {
		return errors.Wrap(err, "socache: fetch")
	}
	if !resp.OK() {
		return resp.Errno
	}

	tmp := local + ".tmp." + strconv.FormatInt(time.Now().UnixNano(), 36)
	if err := os.WriteFile(tmp, resp.Data, 0o755); err != nil {
		return errors.Wrap(err, "socache: write temp file")
	}
	if err := os.Rename(tmp, local); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "socache: rename into place")
	}
	rlog.Debugf(logicalPath, "cached %d bytes at %s", len(resp.Data), local)
	return nil
}

// RemoveAll deletes the cache directory, best effort. Called at process
// exit.
func (c *Cache) RemoveAll() {
	_ = os.RemoveAll(c.dir)
}
