package interceptor

import (
	"golang.org/x/sys/unix"

	"github.com/emoon/remotelink/internal/protocol"
)

// Access implements access/faccessat: local-first; the remote answer
// only distinguishes existence plus read permission, since the protocol
// is read-only end to end (spec.md §4.3 ACCESS semantics narrowed to
// R_OK).
func (s *State) Access(path string, mode uint32) (errno int) {
	if !s.enabled {
		return errnoOf(unix.Access(path, mode))
	}

	remote, forced := remotePath(path)
	if forced {
		return s.accessRemote(remote, mode)
	}

	localErr := unix.Access(path, mode)
	switch decide(localErr) {
	case localResult:
		return 0
	case goRemote:
		return s.accessRemote(path, mode)
	default:
		return errnoOf(localErr)
	}
}

func (s *State) accessRemote(path string, mode uint32) int {
	resp, err := s.client.call(&protocol.Request{Op: protocol.OpAccess, Path: path, Mode: mode})
	if err != nil {
		return int(unix.EIO)
	}
	if !resp.OK() {
		return int(resp.Errno.Syscall())
	}
	return 0
}
