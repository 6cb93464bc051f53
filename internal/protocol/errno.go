package protocol

import "golang.org/x/sys/unix"

// Errno is the wire representation of a POSIX errno. It is carried as a
// plain uint32 on the wire (not the host's native errno encoding) so the
// protocol stays stable across client/server platforms.
type Errno uint32

// The taxonomy from the error-handling design: every remote failure is
// mapped to one of these before it crosses the wire.
const (
	ErrnoNone        Errno = 0
	ErrnoNoEnt       Errno = Errno(unix.ENOENT)
	ErrnoAccess      Errno = Errno(unix.EACCES)
	ErrnoIO          Errno = Errno(unix.EIO)
	ErrnoMfile       Errno = Errno(unix.EMFILE)
	ErrnoBadf        Errno = Errno(unix.EBADF)
	ErrnoRofs        Errno = Errno(unix.EROFS)
	ErrnoInval       Errno = Errno(unix.EINVAL)
	ErrnoNotDir      Errno = Errno(unix.ENOTDIR)
	ErrnoIsDir       Errno = Errno(unix.EISDIR)
	ErrnoNameTooLong Errno = Errno(unix.ENAMETOOLONG)
)

// Syscall converts a wire errno into the host's unix.Errno, the type the
// interceptor's hooked libc entry points ultimately set as errno.
func (e Errno) Syscall() unix.Errno {
	return unix.Errno(e)
}

// Error implements the error interface so an Errno can be returned and
// compared anywhere a plain Go error is expected.
func (e Errno) Error() string {
	if e == ErrnoNone {
		return "protocol: no error"
	}
	return unix.Errno(e).Error()
}

// FromError maps a Go error observed against the real local filesystem
// (or returned by a server-side os call) to the wire errno taxonomy.
// Errors outside the taxonomy are folded to EIO, matching the
// "transport failure / protocol violation" fallback category.
func FromError(err error) Errno {
	if err == nil {
		return ErrnoNone
	}
	var errno unix.Errno
	if asErrno(err, &errno) {
		switch errno {
		case unix.ENOENT:
			return ErrnoNoEnt
		case unix.EACCES, unix.EPERM:
			return ErrnoAccess
		case unix.EMFILE, unix.ENFILE:
			return ErrnoMfile
		case unix.EBADF:
			return ErrnoBadf
		case unix.EROFS:
			return ErrnoRofs
		case unix.EINVAL:
			return ErrnoInval
		case unix.ENOTDIR:
			return ErrnoNotDir
		case unix.EISDIR:
			return ErrnoIsDir
		case unix.ENAMETOOLONG:
			return ErrnoNameTooLong
		}
	}
	return ErrnoIO
}

func asErrno(err error, out *unix.Errno) bool {
	type unwrapper interface{ Unwrap() error }
	for err != nil {
		if errno, ok := err.(unix.Errno); ok {
			*out = errno
			return true
		}
		u, ok := err.(unwrapper)
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
