package interceptor

import (
	"golang.org/x/sys/unix"

	"github.com/emoon/remotelink/internal/vfd"
)

// Seek implements lseek for a VFD by updating its cached offset; no
// round trip to the server, since the protocol has no seek op (reads
// carry an explicit offset instead). Real fds fall through to the
// kernel's lseek.
func (s *State) Seek(fd int, offset int64, whence int) (newOffset int64, errno int) {
	if !s.enabled || !vfd.IsVFD(fd) {
		off, err := unix.Seek(fd, offset, whence)
		return off, errnoOf(err)
	}

	entry, ok := s.vfds.Lookup(fd)
	if !ok {
		return -1, int(unix.EBADF)
	}
	if entry.Dead {
		return -1, int(unix.EIO)
	}

	var target int64
	switch whence {
	case unix.SEEK_SET:
		target = offset
	case unix.SEEK_CUR:
		target = entry.Offset + offset
	case unix.SEEK_END:
		target = entry.Size + offset
	default:
		return -1, int(unix.EINVAL)
	}
	if target < 0 {
		return -1, int(unix.EINVAL)
	}
	// The file is read-only, so a target past the size snapshot taken at
	// open can never hold data; such seeks are rejected.
	if target > entry.Size {
		return -1, int(unix.EINVAL)
	}
	s.vfds.SetOffset(fd, target)
	return target, 0
}
