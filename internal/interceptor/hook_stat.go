package interceptor

import (
	"golang.org/x/sys/unix"

	"github.com/emoon/remotelink/internal/protocol"
	"github.com/emoon/remotelink/internal/vfd"
)

// StatResult is the subset of stat(2) fields the protocol carries. The
// cgo layer expands this into a full struct stat, zero-filling the
// fields the protocol does not model (spec.md §4.3 STAT result shape).
type StatResult struct {
	Size    int64
	ModTime int64
	Mode    uint32
	Type    protocol.FileType
}

// Stat implements path-based stat (and the path-resolved half of
// fstatat): local-first, falling back to a remote STAT on ENOENT.
func (s *State) Stat(path string) (StatResult, int) {
	if !s.enabled {
		return s.realStat(path)
	}

	remote, forced := remotePath(path)
	if forced {
		return s.statRemote(remote)
	}

	local, localErr := localStat(path)
	switch decide(localErr) {
	case localResult:
		return local, 0
	case goRemote:
		return s.statRemote(path)
	default:
		return StatResult{}, errnoOf(localErr)
	}
}

// Fstat implements fstat for an already-open descriptor. A VFD answers
// from its last-known snapshot (size captured at open time) without a
// round trip; a real fd delegates to the kernel.
func (s *State) Fstat(fd int) (StatResult, int) {
	if !s.enabled || !vfd.IsVFD(fd) {
		return s.realFstat(fd)
	}
	entry, ok := s.vfds.Lookup(fd)
	if !ok {
		return StatResult{}, int(unix.EBADF)
	}
	if entry.Dead {
		return StatResult{}, int(unix.EIO)
	}
	return StatResult{Size: entry.Size, Type: protocol.FileTypeRegular}, 0
}

func (s *State) statRemote(path string) (StatResult, int) {
	resp, err := s.client.call(&protocol.Request{Op: protocol.OpStat, Path: path})
	if err != nil {
		return StatResult{}, int(unix.EIO)
	}
	if !resp.OK() {
		return StatResult{}, int(resp.Errno.Syscall())
	}
	return StatResult{Size: resp.Size, ModTime: resp.ModTime, Mode: resp.Mode, Type: resp.Type}, 0
}

func (s *State) realStat(path string) (StatResult, int) {
	r, err := localStat(path)
	return r, errnoOf(err)
}

func localStat(path string) (StatResult, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return StatResult{}, err
	}
	return statResultFromStat(st), nil
}

func (s *State) realFstat(fd int) (StatResult, int) {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return StatResult{}, errnoOf(err)
	}
	return statResultFromStat(st), 0
}

func statResultFromStat(st unix.Stat_t) StatResult {
	typ := protocol.FileTypeOther
	switch st.Mode & unix.S_IFMT {
	case unix.S_IFREG:
		typ = protocol.FileTypeRegular
	case unix.S_IFDIR:
		typ = protocol.FileTypeDir
	case unix.S_IFLNK:
		typ = protocol.FileTypeSymlink
	}
	return StatResult{
		Size:    st.Size,
		ModTime: st.Mtim.Sec,
		Mode:    uint32(st.Mode),
		Type:    typ,
	}
}
