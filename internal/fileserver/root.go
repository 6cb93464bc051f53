package fileserver

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/emoon/remotelink/internal/protocol"
)

// resolve canonicalises <root>/<path> and rejects any result that escapes
// root — the traversal defence of the security contract. The server
// never performs any I/O on the escaping path; this check runs before any
// syscall touches the filesystem.
func resolve(root, reqPath string) (string, error) {
	full := filepath.Join(root, reqPath)
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", protocol.ErrnoAccess
	}
	return full, nil
}

// mustAbs turns root into an absolute path, returning an error if that
// fails; it does not check that root exists or is a directory. Called
// once at server construction, never per-request.
func mustAbs(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("fileserver: cannot resolve served root %q: %w", root, err)
	}
	return abs, nil
}
