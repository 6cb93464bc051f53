// Package interceptor holds the process-wide logic behind the hooked
// libc entry points: the local-first fallback decision, the VFD table,
// the one connection to the file server, and the shared-object cache.
// The cgo glue that exports C symbols (under rl_-prefixed names, not the
// libc names) lives in cmd/remotelink-interceptor, which calls into this
// package.
package interceptor

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/emoon/remotelink/internal/config"
	"github.com/emoon/remotelink/internal/interceptor/socache"
	"github.com/emoon/remotelink/internal/rlog"
	"github.com/emoon/remotelink/internal/vfd"
)

// State is the single lazily-initialised container for everything this
// process's Interceptor needs: the VFD table, the connection to the file
// server, and the shared-object cache directory. There is no lock
// spanning them: the VFD table, the directory table and the client each
// guard themselves with their own mutex, and mu is not used.
// Initialised on first intercepted call; torn down at process exit.
type State struct {
	mu sync.Mutex

	cfg    *config.InterceptorConfig
	vfds   *vfd.Table
	dirs   *dirTable
	client *client
	cache  *socache.Cache

	enabled bool // false when REMOTELINK_FILE_SERVER is unset: no-op shim
}

var (
	once  sync.Once
	state *State
)

// Get returns the process-wide State, initialising it on first call.
func Get() *State {
	once.Do(func() {
		state = newState()
	})
	return state
}

func newState() *State {
	cfg, err := config.FromEnviron()
	if err != nil {
		rlog.Errorf(nil, "interceptor: bad configuration, disabling remote fallback: %v", err)
		return &State{enabled: false}
	}
	s := &State{
		cfg:     cfg,
		vfds:    vfd.New(cfg.MaxOpenFiles),
		dirs:    newDirTable(),
		enabled: cfg.FileServerAddr != "",
	}
	if s.enabled {
		s.client = newClient(cfg.FileServerAddr)
		cacheDir := filepath.Join(os.TempDir(), fmt.Sprintf("remotelink-%d", os.Getpid()))
		s.cache = socache.New(cacheDir, s.client.call)
	}
	registerExitHook(s)
	return s
}

var registerOnce sync.Once

func registerExitHook(s *State) {
	registerOnce.Do(func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		go func() {
			<-ch
			s.teardown()
			os.Exit(1)
		}()
	})
}

// teardown closes the connection and removes the shared-object cache
// directory, best effort. Called from the exit-signal goroutine; a
// normal process exit (falling off main) does not run Go deferred
// cleanup, so the cache directory removal there is best-effort only, as
// documented in the data model.
func (s *State) teardown() {
	if s.client != nil {
		s.client.close()
	}
	if s.cache != nil {
		s.cache.RemoveAll()
	}
}

// Teardown is exported to C by cmd/remotelink-interceptor as
// rl_teardown; nothing in this module registers it as a DSO destructor.
func (s *State) Teardown() { s.teardown() }
