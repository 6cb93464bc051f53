package fileserver

import (
	"io"
	"os"
	"sort"

	"github.com/emoon/remotelink/internal/protocol"
	"github.com/emoon/remotelink/internal/rlog"
)

// conn is the per-connection state a single worker operates on. It owns
// its handle table exclusively; nothing here is shared with other
// connections.
type conn struct {
	root    string
	handles *handleTable
}

func fileType(mode os.FileMode) protocol.FileType {
	switch {
	case mode.IsRegular():
		return protocol.FileTypeRegular
	case mode.IsDir():
		return protocol.FileTypeDir
	case mode&os.ModeSymlink != 0:
		return protocol.FileTypeSymlink
	default:
		return protocol.FileTypeOther
	}
}

func (c *conn) handle(req *protocol.Request) *protocol.Response {
	switch req.Op {
	case protocol.OpOpen:
		return c.handleOpen(req)
	case protocol.OpRead:
		return c.handleRead(req)
	case protocol.OpClose:
		return c.handleClose(req)
	case protocol.OpStat:
		return c.handleStat(req)
	case protocol.OpAccess:
		return c.handleAccess(req)
	case protocol.OpReaddir:
		return c.handleReaddir(req)
	case protocol.OpFetch:
		return c.handleFetch(req)
	default:
		return &protocol.Response{ID: req.ID, Errno: protocol.ErrnoIO}
	}
}

func (c *conn) handleOpen(req *protocol.Request) *protocol.Response {
	full, err := resolve(c.root, req.Path)
	if err != nil {
		return &protocol.Response{ID: req.ID, Errno: protocol.ErrnoAccess}
	}
	f, err := os.Open(full)
	if err != nil {
		return &protocol.Response{ID: req.ID, Errno: protocol.FromError(err)}
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return &protocol.Response{ID: req.ID, Errno: protocol.FromError(err)}
	}
	if fi.IsDir() {
		_ = f.Close()
		return &protocol.Response{ID: req.ID, Errno: protocol.ErrnoIsDir}
	}
	id, ok := c.handles.alloc(&handle{file: f, path: req.Path})
	if !ok {
		_ = f.Close()
		return &protocol.Response{ID: req.ID, Errno: protocol.ErrnoMfile}
	}
	rlog.Debugf(req.Path, "OPEN -> handle %d size %d", id, fi.Size())
	return &protocol.Response{
		ID:      req.ID,
		Handle:  id,
		Size:    fi.Size(),
		ModTime: fi.ModTime().Unix(),
	}
}

// handleRead is pread-equivalent: it never moves any cursor on the
// underlying *os.File, so interleaved reads from one handle at distinct
// offsets are well-defined and cannot corrupt each other.
func (c *conn) handleRead(req *protocol.Request) *protocol.Response {
	h, ok := c.handles.get(req.Handle)
	if !ok {
		return &protocol.Response{ID: req.ID, Errno: protocol.ErrnoBadf}
	}
	length := req.Length
	if length > protocol.MaxReadLength {
		length = protocol.MaxReadLength
	}
	buf := make([]byte, length)
	n, err := h.file.ReadAt(buf, req.Offset)
	if err != nil && err != io.EOF {
		return &protocol.Response{ID: req.ID, Errno: protocol.FromError(err)}
	}
	return &protocol.Response{ID: req.ID, Data: buf[:n]}
}

func (c *conn) handleClose(req *protocol.Request) *protocol.Response {
	h, ok := c.handles.free(req.Handle)
	if !ok {
		return &protocol.Response{ID: req.ID, Errno: protocol.ErrnoBadf}
	}
	_ = h.file.Close()
	return &protocol.Response{ID: req.ID}
}

func (c *conn) handleStat(req *protocol.Request) *protocol.Response {
	full, err := resolve(c.root, req.Path)
	if err != nil {
		return &protocol.Response{ID: req.ID, Errno: protocol.ErrnoAccess}
	}
	fi, err := os.Stat(full)
	if err != nil {
		return &protocol.Response{ID: req.ID, Errno: protocol.FromError(err)}
	}
	return &protocol.Response{
		ID:      req.ID,
		Size:    fi.Size(),
		ModTime: fi.ModTime().Unix(),
		Mode:    uint32(fi.Mode().Perm()),
		Type:    fileType(fi.Mode()),
	}
}

func (c *conn) handleAccess(req *protocol.Request) *protocol.Response {
	full, err := resolve(c.root, req.Path)
	if err != nil {
		return &protocol.Response{ID: req.ID, Errno: protocol.ErrnoAccess}
	}
	fi, err := os.Stat(full)
	if err != nil {
		return &protocol.Response{ID: req.ID, Errno: protocol.FromError(err)}
	}
	// The server only ever reports existence + read permission, never
	// write/execute — there is nothing else a read-only server could
	// meaningfully promise.
	f, err := os.Open(full)
	if err != nil {
		return &protocol.Response{ID: req.ID, Errno: protocol.FromError(err)}
	}
	_ = f.Close()
	_ = fi
	return &protocol.Response{ID: req.ID}
}

func (c *conn) handleReaddir(req *protocol.Request) *protocol.Response {
	full, err := resolve(c.root, req.Path)
	if err != nil {
		return &protocol.Response{ID: req.ID, Errno: protocol.ErrnoAccess}
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		return &protocol.Response{ID: req.ID, Errno: protocol.FromError(err)}
	}
	out := make([]protocol.DirEntry, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if name == "." || name == ".." {
			continue
		}
		info, err := e.Info()
		ft := protocol.FileTypeUnknown
		if err == nil {
			ft = fileType(info.Mode())
		}
		out = append(out, protocol.DirEntry{Name: name, Type: ft})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return &protocol.Response{ID: req.ID, Entries: out}
}

func (c *conn) handleFetch(req *protocol.Request) *protocol.Response {
	full, err := resolve(c.root, req.Path)
	if err != nil {
		return &protocol.Response{ID: req.ID, Errno: protocol.ErrnoAccess}
	}
	fi, err := os.Stat(full)
	if err != nil {
		return &protocol.Response{ID: req.ID, Errno: protocol.FromError(err)}
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return &protocol.Response{ID: req.ID, Errno: protocol.FromError(err)}
	}
	return &protocol.Response{
		ID:      req.ID,
		Size:    fi.Size(),
		ModTime: fi.ModTime().Unix(),
		Data:    data,
	}
}
