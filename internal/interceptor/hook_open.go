package interceptor

import (
	"golang.org/x/sys/unix"

	"github.com/emoon/remotelink/internal/protocol"
	"github.com/emoon/remotelink/internal/rlog"
	"github.com/emoon/remotelink/internal/vfd"
)

// Open implements the path-based open hook. path is used as given: a
// relative path resolves against the working directory for the local
// attempt and is sent unchanged to the server. There is no dirfd
// argument, so openat's descriptor-relative resolution is not handled.
// flags is passed unchanged both to the real syscall and in the OPEN
// request; the server ignores it and opens the file read-only.
//
// On failure returns fd -1 and a positive errno; on success a fd that is
// either a real kernel fd or a VFD, indistinguishable to the caller.
func (s *State) Open(path string, flags int, mode uint32) (fd int, errno int) {
	if !s.enabled {
		return realOpen(path, flags, mode)
	}

	remote, forced := remotePath(path)
	if forced {
		return s.openRemote(remote, flags)
	}

	localFd, localErr := realOpenErr(path, flags, mode)
	switch decide(localErr) {
	case localResult:
		return localFd, 0
	case goRemote:
		return s.openRemote(path, flags)
	default:
		return -1, errnoOf(localErr)
	}
}

func (s *State) openRemote(path string, flags int) (int, int) {
	resp, err := s.client.call(&protocol.Request{
		Op:    protocol.OpOpen,
		Path:  path,
		Flags: protocol.OpenFlags(flags),
	})
	if err != nil {
		rlog.Debugf(path, "remote open failed: %v", err)
		return -1, int(unix.EIO)
	}
	if !resp.OK() {
		return -1, int(resp.Errno.Syscall())
	}
	fd, allocErr := s.vfds.Alloc(&vfd.Entry{
		Handle: resp.Handle,
		Path:   path,
		Size:   resp.Size,
	})
	if allocErr != nil {
		// Table full: tell the server to drop the handle it just
		// allocated, then report EMFILE.
		_, _ = s.client.call(&protocol.Request{Op: protocol.OpClose, Handle: resp.Handle})
		return -1, int(unix.EMFILE)
	}
	return fd, 0
}

func realOpen(path string, flags int, mode uint32) (int, int) {
	fd, err := realOpenErr(path, flags, mode)
	return fd, errnoOf(err)
}

func realOpenErr(path string, flags int, mode uint32) (int, error) {
	return unix.Open(path, flags, mode)
}

func errnoOf(err error) int {
	if err == nil {
		return 0
	}
	if errno, ok := err.(unix.Errno); ok {
		return int(errno)
	}
	return int(unix.EIO)
}
