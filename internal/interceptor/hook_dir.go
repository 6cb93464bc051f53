package interceptor

import (
	"golang.org/x/sys/unix"

	"github.com/emoon/remotelink/internal/protocol"
)

// Opendir implements the local-first half of opendir. When remote is
// false the caller (the cgo wrapper) must invoke the real opendir
// itself — this function only confirmed the directory is reachable
// locally, or that remote fallback does not apply. When remote is true,
// handle indexes into the directory table and the caller must route
// readdir/closedir for it through Readdir/Closedir instead of libc.
func (s *State) Opendir(path string) (handle uintptr, remote bool, errno int) {
	if !s.enabled {
		return 0, false, 0
	}

	remotePathStr, forced := remotePath(path)
	if forced {
		h, err := s.opendirRemote(remotePathStr)
		return h, true, err
	}

	fd, localErr := unix.Open(path, unix.O_RDONLY|unix.O_DIRECTORY, 0)
	if fd >= 0 {
		_ = unix.Close(fd)
	}
	switch decide(localErr) {
	case localResult:
		return 0, false, 0
	case goRemote:
		h, err := s.opendirRemote(path)
		return h, true, err
	default:
		return 0, false, errnoOf(localErr)
	}
}

func (s *State) opendirRemote(path string) (uintptr, int) {
	resp, err := s.client.call(&protocol.Request{Op: protocol.OpReaddir, Path: path})
	if err != nil {
		return 0, int(unix.EIO)
	}
	if !resp.OK() {
		return 0, int(resp.Errno.Syscall())
	}
	items := make([]dirItem, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		items = append(items, dirItem{name: e.Name, isDir: e.Type == protocol.FileTypeDir})
	}
	h := s.dirs.alloc(&dirEntry{path: path, entries: items})
	return h, 0
}

// Readdir returns the next entry of a remote directory handle opened by
// Opendir. ok is false at end of stream.
func (s *State) Readdir(handle uintptr) (name string, isDir bool, ok bool, errno int) {
	entry, found := s.dirs.get(handle)
	if !found {
		return "", false, false, int(unix.EBADF)
	}
	name, isDir, ok = entry.nextName()
	return name, isDir, ok, 0
}

// Closedir releases a remote directory handle. Idempotent.
func (s *State) Closedir(handle uintptr) int {
	s.dirs.free(handle)
	return 0
}
