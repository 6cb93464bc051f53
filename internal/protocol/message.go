package protocol

import (
	"fmt"
	"io"
)

// FileType discriminates directory entries and STAT results without
// requiring the caller to parse a full POSIX mode.
type FileType byte

const (
	FileTypeUnknown FileType = iota
	FileTypeRegular
	FileTypeDir
	FileTypeSymlink
	FileTypeOther
)

// DirEntry is one entry in a READDIR response. "." and ".." are never
// included.
type DirEntry struct {
	Name string
	Type FileType
}

// Request is the tagged-variant client→server message. Only the fields
// relevant to Op are populated by the caller; the rest are ignored by
// Encode.
type Request struct {
	ID     uint64
	Op     Op
	Path   string
	Handle uint32
	Offset int64
	Length uint32
	Flags  OpenFlags
	Mode   uint32
}

// Encode writes the request as one frame to w.
func (r *Request) Encode(w io.Writer) error {
	body := make([]byte, 0, 32+len(r.Path))
	body = putUint64(body, r.ID)
	body = append(body, byte(r.Op))
	switch r.Op {
	case OpOpen:
		body = putUint32(body, uint32(r.Flags))
		body = putString(body, r.Path)
	case OpRead:
		body = putUint32(body, r.Handle)
		body = putUint64(body, uint64(r.Offset))
		body = putUint32(body, r.Length)
	case OpClose:
		body = putUint32(body, r.Handle)
	case OpStat:
		body = putString(body, r.Path)
	case OpAccess:
		body = putUint32(body, r.Mode)
		body = putString(body, r.Path)
	case OpReaddir:
		body = putString(body, r.Path)
	case OpFetch:
		body = putString(body, r.Path)
	default:
		return fmt.Errorf("protocol: unknown request op %d", r.Op)
	}
	return writeFrame(w, body)
}

// DecodeRequest reads and parses one request frame from r. An unknown op
// code is itself treated as a protocol violation by the caller, which
// must close the connection per the security contract.
func DecodeRequest(r io.Reader) (*Request, error) {
	body, err := readFrame(r)
	if err != nil {
		return nil, err
	}
	if len(body) < 9 {
		return nil, io.ErrUnexpectedEOF
	}
	id, off, err := getUint64(body, 0)
	if err != nil {
		return nil, err
	}
	req := &Request{ID: id, Op: Op(body[off])}
	off++
	switch req.Op {
	case OpOpen:
		flags, o2, err := getUint32(body, off)
		if err != nil {
			return nil, err
		}
		req.Flags = OpenFlags(flags)
		path, _, err := getString(body, o2)
		if err != nil {
			return nil, err
		}
		req.Path = path
	case OpRead:
		h, o2, err := getUint32(body, off)
		if err != nil {
			return nil, err
		}
		offset, o3, err := getUint64(body, o2)
		if err != nil {
			return nil, err
		}
		length, _, err := getUint32(body, o3)
		if err != nil {
			return nil, err
		}
		req.Handle, req.Offset, req.Length = h, int64(offset), length
	case OpClose:
		h, _, err := getUint32(body, off)
		if err != nil {
			return nil, err
		}
		req.Handle = h
	case OpStat, OpReaddir, OpFetch:
		path, _, err := getString(body, off)
		if err != nil {
			return nil, err
		}
		req.Path = path
	case OpAccess:
		mode, o2, err := getUint32(body, off)
		if err != nil {
			return nil, err
		}
		path, _, err := getString(body, o2)
		if err != nil {
			return nil, err
		}
		req.Mode, req.Path = mode, path
	default:
		return req, fmt.Errorf("protocol: unknown op code %d", req.Op)
	}
	return req, nil
}

// Response is the tagged-variant server→client message.
type Response struct {
	ID      uint64
	Errno   Errno
	Handle  uint32
	Size    int64
	ModTime int64
	Mode    uint32
	Type    FileType
	Data    []byte
	Entries []DirEntry
}

// OK reports whether the response carries no error.
func (r *Response) OK() bool { return r.Errno == ErrnoNone }

// Encode writes the response for op as one frame to w.
func (r *Response) Encode(w io.Writer, op Op) error {
	body := make([]byte, 0, 32+len(r.Data))
	body = putUint64(body, r.ID)
	status := StatusOK
	if r.Errno != ErrnoNone {
		status = StatusErrno
	}
	body = append(body, byte(status))
	body = putUint32(body, uint32(r.Errno))
	if status == StatusErrno {
		return writeFrame(w, body)
	}
	switch op {
	case OpOpen:
		body = putUint32(body, r.Handle)
		body = putUint64(body, uint64(r.Size))
		body = putUint64(body, uint64(r.ModTime))
	case OpRead:
		body = putUint32(body, uint32(len(r.Data)))
		body = append(body, r.Data...)
	case OpClose, OpAccess:
		// no payload beyond the status
	case OpStat:
		body = putUint64(body, uint64(r.Size))
		body = putUint64(body, uint64(r.ModTime))
		body = putUint32(body, r.Mode)
		body = append(body, byte(r.Type))
	case OpReaddir:
		body = putUint32(body, uint32(len(r.Entries)))
		for _, e := range r.Entries {
			body = putString(body, e.Name)
			body = append(body, byte(e.Type))
		}
	case OpFetch:
		body = putUint64(body, uint64(r.Size))
		body = putUint64(body, uint64(r.ModTime))
		body = putUint32(body, uint32(len(r.Data)))
		body = append(body, r.Data...)
	default:
		return fmt.Errorf("protocol: unknown response op %d", op)
	}
	return writeFrame(w, body)
}

// DecodeResponse reads and parses one response frame for op from r.
func DecodeResponse(r io.Reader, op Op) (*Response, error) {
	body, err := readFrame(r)
	if err != nil {
		return nil, err
	}
	if len(body) < 13 {
		return nil, io.ErrUnexpectedEOF
	}
	id, off, err := getUint64(body, 0)
	if err != nil {
		return nil, err
	}
	status := Status(body[off])
	off++
	errnoVal, off, err := getUint32(body, off)
	if err != nil {
		return nil, err
	}
	resp := &Response{ID: id, Errno: Errno(errnoVal)}
	if status == StatusErrno {
		return resp, nil
	}
	switch op {
	case OpOpen:
		h, o2, err := getUint32(body, off)
		if err != nil {
			return nil, err
		}
		size, o3, err := getUint64(body, o2)
		if err != nil {
			return nil, err
		}
		mtime, _, err := getUint64(body, o3)
		if err != nil {
			return nil, err
		}
		resp.Handle, resp.Size, resp.ModTime = h, int64(size), int64(mtime)
	case OpRead:
		n, o2, err := getUint32(body, off)
		if err != nil {
			return nil, err
		}
		if o2+int(n) > len(body) {
			return nil, io.ErrUnexpectedEOF
		}
		resp.Data = body[o2 : o2+int(n)]
	case OpClose, OpAccess:
	case OpStat:
		size, o2, err := getUint64(body, off)
		if err != nil {
			return nil, err
		}
		mtime, o3, err := getUint64(body, o2)
		if err != nil {
			return nil, err
		}
		mode, o4, err := getUint32(body, o3)
		if err != nil {
			return nil, err
		}
		if o4 >= len(body) {
			return nil, io.ErrUnexpectedEOF
		}
		resp.Size, resp.ModTime, resp.Mode, resp.Type = int64(size), int64(mtime), mode, FileType(body[o4])
	case OpReaddir:
		count, o2, err := getUint32(body, off)
		if err != nil {
			return nil, err
		}
		entries := make([]DirEntry, 0, count)
		pos := o2
		for i := uint32(0); i < count; i++ {
			name, o3, err := getString(body, pos)
			if err != nil {
				return nil, err
			}
			if o3 >= len(body) {
				return nil, io.ErrUnexpectedEOF
			}
			entries = append(entries, DirEntry{Name: name, Type: FileType(body[o3])})
			pos = o3 + 1
		}
		resp.Entries = entries
	case OpFetch:
		size, o2, err := getUint64(body, off)
		if err != nil {
			return nil, err
		}
		mtime, o3, err := getUint64(body, o2)
		if err != nil {
			return nil, err
		}
		n, o4, err := getUint32(body, o3)
		if err != nil {
			return nil, err
		}
		if o4+int(n) > len(body) {
			return nil, io.ErrUnexpectedEOF
		}
		resp.Size, resp.ModTime, resp.Data = int64(size), int64(mtime), body[o4:o4+int(n)]
	default:
		return nil, fmt.Errorf("protocol: unknown response op %d", op)
	}
	return resp, nil
}
