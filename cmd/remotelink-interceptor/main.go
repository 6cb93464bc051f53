// Command remotelink-interceptor is the Interceptor itself: a
// -buildmode=c-shared library meant to be loaded into a target process
// via LD_PRELOAD. It is the one place in this module where cgo and raw
// C linkage are unavoidable (spec.md §9) — every exported function here
// is a thin shim translating libc's calling convention into a call on
// internal/interceptor.State, which does all the real work in Go.
//
// The functions are exported under rl_-prefixed names (rl_open, rl_read,
// ...), not under the libc names themselves, and no dlsym lookup of the
// real libc entry points happens here; the local half of each hook in
// internal/interceptor uses raw syscalls instead.
package main

/*
#include <stdlib.h>
#include <errno.h>
#include <sys/stat.h>

static void rl_set_errno(int e) { errno = e; }
*/
import "C"

import (
	"unsafe"

	"github.com/emoon/remotelink/internal/interceptor"
)

func state() *interceptor.State {
	return interceptor.Get()
}

//export rl_open
func rl_open(cPath *C.char, flags C.int, mode C.uint) C.int {
	path := C.GoString(cPath)
	fd, errno := state().Open(path, int(flags), uint32(mode))
	if errno != 0 {
		setErrno(errno)
		return -1
	}
	return C.int(fd)
}

//export rl_read
func rl_read(fd C.int, buf unsafe.Pointer, count C.size_t, offset C.longlong) C.long {
	slice := unsafe.Slice((*byte)(buf), int(count))
	n, errno := state().Read(int(fd), slice, int64(offset))
	if errno != 0 {
		setErrno(errno)
		return -1
	}
	return C.long(n)
}

//export rl_lseek
func rl_lseek(fd C.int, offset C.longlong, whence C.int) C.longlong {
	newOff, errno := state().Seek(int(fd), int64(offset), int(whence))
	if errno != 0 {
		setErrno(errno)
		return -1
	}
	return C.longlong(newOff)
}

//export rl_close
func rl_close(fd C.int) C.int {
	if errno := state().Close(int(fd)); errno != 0 {
		setErrno(errno)
		return -1
	}
	return 0
}

//export rl_stat
func rl_stat(cPath *C.char, out *C.struct_stat) C.int {
	path := C.GoString(cPath)
	res, errno := state().Stat(path)
	if errno != 0 {
		setErrno(errno)
		return -1
	}
	fillStat(out, res)
	return 0
}

//export rl_fstat
func rl_fstat(fd C.int, out *C.struct_stat) C.int {
	res, errno := state().Fstat(int(fd))
	if errno != 0 {
		setErrno(errno)
		return -1
	}
	fillStat(out, res)
	return 0
}

//export rl_access
func rl_access(cPath *C.char, mode C.int) C.int {
	path := C.GoString(cPath)
	if errno := state().Access(path, uint32(mode)); errno != 0 {
		setErrno(errno)
		return -1
	}
	return 0
}

//export rl_resolve_library
func rl_resolve_library(cName *C.char) *C.char {
	name := C.GoString(cName)
	resolved, _ := state().ResolveLibrary(name)
	return C.CString(resolved)
}

// rl_opendir returns 0 with *isRemote set to 0 when the caller must fall
// through to the real opendir; otherwise *isRemote is 1 and the returned
// handle must be driven through rl_readdir/rl_closedir, never the real
// readdir/closedir.
//
//export rl_opendir
func rl_opendir(cPath *C.char, isRemote *C.int) C.ulonglong {
	path := C.GoString(cPath)
	handle, remote, errno := state().Opendir(path)
	if errno != 0 {
		setErrno(errno)
		*isRemote = 0
		return 0
	}
	if remote {
		*isRemote = 1
	} else {
		*isRemote = 0
	}
	return C.ulonglong(handle)
}

//export rl_readdir
func rl_readdir(handle C.ulonglong, isDir *C.int) *C.char {
	name, dir, ok, errno := state().Readdir(uintptr(handle))
	if errno != 0 {
		setErrno(errno)
		return nil
	}
	if !ok {
		return nil
	}
	if dir {
		*isDir = 1
	} else {
		*isDir = 0
	}
	return C.CString(name)
}

//export rl_closedir
func rl_closedir(handle C.ulonglong) C.int {
	state().Closedir(uintptr(handle))
	return 0
}

//export rl_teardown
func rl_teardown() {
	state().Teardown()
}

func setErrno(errno int) {
	C.rl_set_errno(C.int(errno))
}

func main() {}
