package interceptor

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"

	"github.com/emoon/remotelink/internal/protocol"
)

func TestDecideLocalResultOnNil(t *testing.T) {
	assert.Equal(t, localResult, decide(nil))
}

func TestDecideGoRemoteOnNotExist(t *testing.T) {
	_, err := os.Open("/nonexistent/remotelink-test-path")
	assert.Error(t, err)
	assert.Equal(t, goRemote, decide(err))
}

func TestDecideLocalErrorOnOtherFailure(t *testing.T) {
	assert.Equal(t, localError, decide(unix.EACCES))
}

func TestRemotePathStripsPrefix(t *testing.T) {
	rel, forced := remotePath(protocol.RemotePrefix + "lib/libfoo.so")
	assert.True(t, forced)
	assert.Equal(t, "lib/libfoo.so", rel)
}

func TestRemotePathPassesThroughUnprefixed(t *testing.T) {
	rel, forced := remotePath("relative/path.txt")
	assert.False(t, forced)
	assert.Equal(t, "relative/path.txt", rel)
}
