package interceptor

import (
	"os"
	"path/filepath"

	"github.com/emoon/remotelink/internal/config"
	"github.com/emoon/remotelink/internal/rlog"
)

// ResolveLibrary implements the dlopen hook's library-search step. The
// real dlopen only ever receives a local path; ResolveLibrary's job is
// to turn a bare library name into one, preferring an already-present
// local file and falling back to fetching it from the server into the
// shared-object cache (spec.md §3 shared-object cache invariant: the
// path handed to the real dlopen names a real local file, never a VFD).
//
// The logical path is name itself when absolute, otherwise name joined
// onto the library search directory. If a local file exists there, that
// path is returned. Otherwise name is returned unchanged when remote
// fallback is disabled or the fetch fails, so the caller can pass the
// result straight to the real dlopen either way.
func (s *State) ResolveLibrary(name string) (resolvedPath string, errno int) {
	logical := name
	if !filepath.IsAbs(logical) {
		logical = filepath.Join(config.LibSearchDir(), logical)
	}
	if _, err := os.Stat(logical); err == nil {
		return logical, 0
	}

	if !s.enabled || s.cache == nil {
		return name, 0
	}

	remote, _ := remotePath(logical)
	local, err := s.cache.Resolve(remote)
	if err != nil {
		rlog.Debugf(name, "library resolution failed, deferring to real dlopen: %v", err)
		return name, 0
	}
	return local, 0
}
