package interceptor

import (
	"golang.org/x/sys/unix"

	"github.com/emoon/remotelink/internal/protocol"
	"github.com/emoon/remotelink/internal/rlog"
	"github.com/emoon/remotelink/internal/vfd"
)

// Read always behaves like pread: it reads at the explicit offset it is
// given, matching the protocol's offset-explicit READ op (spec.md
// testable property 5). It does not advance the VFD's cached offset,
// and rl_read passes its caller's offset through unchanged, so plain
// read() cursor semantics are not provided; only Seek changes the
// cached offset.
func (s *State) Read(fd int, buf []byte, offset int64) (n int, errno int) {
	if !s.enabled || !vfd.IsVFD(fd) {
		return realPread(fd, buf, offset)
	}

	entry, ok := s.vfds.Lookup(fd)
	if !ok {
		return -1, int(unix.EBADF)
	}
	if entry.Dead {
		return -1, int(unix.EIO)
	}

	length := uint32(len(buf))
	if length > protocol.MaxReadLength {
		length = protocol.MaxReadLength
	}
	resp, err := s.client.call(&protocol.Request{
		Op:     protocol.OpRead,
		Handle: entry.Handle,
		Offset: offset,
		Length: length,
	})
	if err != nil {
		rlog.Debugf(entry.Path, "remote read failed: %v", err)
		s.vfds.MarkAllDead()
		return -1, int(unix.EIO)
	}
	if !resp.OK() {
		return -1, int(resp.Errno.Syscall())
	}
	n = copy(buf, resp.Data)
	return n, 0
}

func realPread(fd int, buf []byte, offset int64) (int, int) {
	n, err := unix.Pread(fd, buf, offset)
	return n, errnoOf(err)
}
