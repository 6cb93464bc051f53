package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// readFrame reads a length-prefixed frame and returns its body (everything
// after the 4-byte length). Returns io.EOF only on a clean close before
// any bytes of the next frame arrive.
func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	if n > MaxFrameLen {
		return nil, fmt.Errorf("protocol: frame length %d exceeds max %d", n, MaxFrameLen)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("protocol: short frame body: %w", err)
	}
	return body, nil
}

func writeFrame(w io.Writer, body []byte) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(body)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// putString appends a length-prefixed UTF-8 string (2-byte length).
func putString(buf []byte, s string) []byte {
	var l [2]byte
	binary.LittleEndian.PutUint16(l[:], uint16(len(s)))
	buf = append(buf, l[:]...)
	return append(buf, s...)
}

func getString(body []byte, off int) (string, int, error) {
	if off+2 > len(body) {
		return "", 0, io.ErrUnexpectedEOF
	}
	n := int(binary.LittleEndian.Uint16(body[off:]))
	off += 2
	if off+n > len(body) {
		return "", 0, io.ErrUnexpectedEOF
	}
	return string(body[off : off+n]), off + n, nil
}

func putUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func putUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func getUint32(body []byte, off int) (uint32, int, error) {
	if off+4 > len(body) {
		return 0, 0, io.ErrUnexpectedEOF
	}
	return binary.LittleEndian.Uint32(body[off:]), off + 4, nil
}

func getUint64(body []byte, off int) (uint64, int, error) {
	if off+8 > len(body) {
		return 0, 0, io.ErrUnexpectedEOF
	}
	return binary.LittleEndian.Uint64(body[off:]), off + 8, nil
}
