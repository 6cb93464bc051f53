package main

/*
#include <sys/stat.h>
*/
import "C"

import (
	"github.com/emoon/remotelink/internal/interceptor"
	"github.com/emoon/remotelink/internal/protocol"
)

// fillStat zero-fills out and populates the handful of fields the
// protocol actually carries. Fields the protocol has no opinion on
// (inode, nlink, uid/gid, block counts) are left at zero; callers that
// need the real local identity of a file should not be going through
// the remote path in the first place.
func fillStat(out *C.struct_stat, res interceptor.StatResult) {
	*out = C.struct_stat{}
	out.st_size = C.off_t(res.Size)
	out.st_mtim.tv_sec = C.long(res.ModTime)
	out.st_mode = C.mode_t(res.Mode)
	if res.Mode == 0 {
		switch res.Type {
		case protocol.FileTypeDir:
			out.st_mode = C.S_IFDIR | 0o555
		default:
			out.st_mode = C.S_IFREG | 0o444
		}
	}
}
