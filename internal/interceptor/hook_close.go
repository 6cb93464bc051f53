package interceptor

import (
	"golang.org/x/sys/unix"

	"github.com/emoon/remotelink/internal/protocol"
	"github.com/emoon/remotelink/internal/rlog"
	"github.com/emoon/remotelink/internal/vfd"
)

// Close implements close. A double-close of a VFD that has already been
// freed yields EBADF without contacting the server (spec.md §8 property
// 7: idempotent close never round-trips twice).
func (s *State) Close(fd int) (errno int) {
	if !s.enabled || !vfd.IsVFD(fd) {
		return errnoOf(unix.Close(fd))
	}

	entry, ok := s.vfds.Lookup(fd)
	if !ok {
		return int(unix.EBADF)
	}
	s.vfds.Free(fd)

	if entry.Dead {
		// Server connection already gone; nothing to tell it.
		return 0
	}
	resp, err := s.client.call(&protocol.Request{Op: protocol.OpClose, Handle: entry.Handle})
	if err != nil {
		rlog.Debugf(entry.Path, "remote close failed (ignored, fd already freed locally): %v", err)
		return 0
	}
	if !resp.OK() {
		return int(resp.Errno.Syscall())
	}
	return 0
}
