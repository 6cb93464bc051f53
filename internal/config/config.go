// Package config parses the environment-variable contract between the
// runner and the Interceptor (spec §6). It has no files and no defaults
// beyond what that contract specifies.
package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	// EnvFileServer is the host:port of the file server. Its absence
	// disables remote fallback entirely.
	EnvFileServer = "REMOTELINK_FILE_SERVER"

	// EnvDebug turns on debug-level diagnostic logging.
	EnvDebug = "REMOTELINK_DEBUG"

	// EnvMaxOpenFiles overrides the default VFD/handle cap.
	EnvMaxOpenFiles = "REMOTELINK_MAX_OPEN_FILES"

	// EnvLibSearchDir overrides the remote-backed library search
	// directory the Interceptor's dlopen hook joins bare library names
	// onto. The runner does not read it: the LD_LIBRARY_PATH it sets
	// comes from its own --remote-lib-dir flag.
	// Open Question 1 from spec §9: both "/host/libs" and "." are
	// acceptable; this implementation defaults to the former.
	EnvLibSearchDir = "REMOTELINK_LIB_DIR"

	// DefaultLibSearchDir is used when EnvLibSearchDir is unset.
	DefaultLibSearchDir = "/host/libs"

	// DefaultMaxOpenFiles is the per-process VFD cap and matching
	// per-connection server handle cap (Open Question 2).
	DefaultMaxOpenFiles = 256
)

// InterceptorConfig is what the Interceptor reads from its environment at
// first use.
type InterceptorConfig struct {
	FileServerAddr string // empty disables remote fallback
	MaxOpenFiles   int
}

// FromEnviron builds an InterceptorConfig from the process environment.
// A missing REMOTELINK_FILE_SERVER is not an error: it means the
// Interceptor runs as a no-op shim (spec §6).
func FromEnviron() (*InterceptorConfig, error) {
	cfg := &InterceptorConfig{
		FileServerAddr: os.Getenv(EnvFileServer),
		MaxOpenFiles:   DefaultMaxOpenFiles,
	}
	if v := os.Getenv(EnvMaxOpenFiles); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("config: invalid %s=%q", EnvMaxOpenFiles, v)
		}
		cfg.MaxOpenFiles = n
	}
	return cfg, nil
}

// LibSearchDir returns the configured remote-backed library search
// directory, defaulting per Open Question 1.
func LibSearchDir() string {
	if v := os.Getenv(EnvLibSearchDir); v != "" {
		return v
	}
	return DefaultLibSearchDir
}
