package interceptor

import (
	"os"
	"strings"

	"github.com/emoon/remotelink/internal/protocol"
)

// outcome is the three-variant result of the local-first decision
// function: answer from the local result already in hand, go fetch the
// answer remotely, or surface an error without consulting the remote at
// all. One call site per intercepted operation consults this instead of
// scattering the errno check.
type outcome int

const (
	localResult outcome = iota
	goRemote
	localError
)

// decide implements the local-first fallback policy (spec §4.1):
// attempt the real local operation; retry remotely iff it failed with
// exactly ENOENT; any other local error is returned as-is.
func decide(localErr error) outcome {
	if localErr == nil {
		return localResult
	}
	if os.IsNotExist(localErr) {
		return goRemote
	}
	return localError
}

// remotePath strips the remote prefix from p if present and reports
// whether the prefix forced remote-only routing. A prefixed path skips
// the local step entirely; the local filesystem is never consulted.
func remotePath(p string) (rel string, forced bool) {
	if strings.HasPrefix(p, protocol.RemotePrefix) {
		return strings.TrimPrefix(p, protocol.RemotePrefix), true
	}
	return p, false
}
