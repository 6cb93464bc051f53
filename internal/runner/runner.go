// Package runner is the external-collaborator boundary: it connects to
// the target host over SSH, copies the Interceptor library across (the
// target binary itself is not copied), spawns a command with the
// Interceptor preloaded
// and pointed at this machine's file server, and relays its output and
// termination signals. Explicitly out of core scope (spec.md §1): no
// watch/restart loop lives here, that is left to the caller.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	sshagent "github.com/xanzy/ssh-agent"
	"golang.org/x/crypto/ssh"

	"github.com/emoon/remotelink/internal/config"
	"github.com/emoon/remotelink/internal/rlog"
)

// Options configures one remote run.
type Options struct {
	Host string // "host:port", port defaults to 22 if absent
	User string

	// InterceptorPath is the local path to the -buildmode=c-shared
	// library built for the target's architecture.
	InterceptorPath string
	// RemoteLibDir is where InterceptorPath is copied to on the remote
	// host; also becomes LD_LIBRARY_PATH.
	RemoteLibDir string

	// FileServerAddr is this machine's reachable address for the remote
	// process's REMOTELINK_FILE_SERVER env var.
	FileServerAddr string

	// Command is the remote command line to run under the Interceptor.
	Command []string
}

// Runner owns one SSH connection to the target host.
type Runner struct {
	client *ssh.Client
}

// Dial connects to opt.Host, authenticating first via ssh-agent (the
// default, matching a checkout with no explicit credentials configured)
// and falling back to none if the agent is unavailable — the caller is
// expected to have host access configured through their own ssh-agent,
// same as any interactive ssh session.
func Dial(ctx context.Context, opt Options) (*Runner, error) {
	host := opt.Host
	if !hasPort(host) {
		host += ":22"
	}

	sshConfig := &ssh.ClientConfig{
		User:            opt.User,
		Auth:            []ssh.AuthMethod{},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	agentClient, _, err := sshagent.New()
	if err != nil {
		rlog.Debugf(host, "no ssh-agent available: %v", err)
	} else {
		signers, err := agentClient.Signers()
		if err != nil {
			return nil, errors.Wrap(err, "runner: reading ssh-agent signers")
		}
		sshConfig.Auth = append(sshConfig.Auth, ssh.PublicKeys(signers...))
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", host)
	if err != nil {
		return nil, errors.Wrapf(err, "runner: dial %s", host)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, host, sshConfig)
	if err != nil {
		return nil, errors.Wrap(err, "runner: ssh handshake")
	}
	client := ssh.NewClient(c, chans, reqs)
	rlog.Logf(host, "connected")
	return &Runner{client: client}, nil
}

func hasPort(host string) bool {
	return strings.Contains(host, ":")
}

// Close tears down the SSH connection.
func (r *Runner) Close() error {
	return r.client.Close()
}

// CopyInterceptor copies the local Interceptor shared library to
// opt.RemoteLibDir on the target host over SFTP.
func (r *Runner) CopyInterceptor(opt Options) error {
	sc, err := sftp.NewClient(r.client)
	if err != nil {
		return errors.Wrap(err, "runner: open sftp session")
	}
	defer sc.Close()

	if err := sc.MkdirAll(opt.RemoteLibDir); err != nil {
		return errors.Wrapf(err, "runner: mkdir %s", opt.RemoteLibDir)
	}

	local, err := os.Open(opt.InterceptorPath)
	if err != nil {
		return errors.Wrap(err, "runner: open local interceptor library")
	}
	defer local.Close()

	remotePath := opt.RemoteLibDir + "/" + interceptorBaseName
	remote, err := sc.Create(remotePath)
	if err != nil {
		return errors.Wrapf(err, "runner: create %s", remotePath)
	}
	defer remote.Close()

	if _, err := io.Copy(remote, local); err != nil {
		return errors.Wrap(err, "runner: copy interceptor library")
	}
	return remote.Chmod(0o755)
}

const interceptorBaseName = "remotelink-interceptor.so"

// Run spawns opt.Command on the remote host with the Interceptor
// preloaded, per spec.md §6: REMOTELINK_FILE_SERVER, LD_PRELOAD and
// LD_LIBRARY_PATH set in the remote process's environment. Remote
// stdout/stderr are streamed to stdout and stderr. When ctx is cancelled
// (remotelink-run cancels it on SIGINT or SIGTERM), SIGTERM is sent to
// the remote session's process and Run returns; the received signal is
// not forwarded as is, and no process group is signalled.
func (r *Runner) Run(ctx context.Context, opt Options, stdout, stderr io.Writer) error {
	session, err := r.client.NewSession()
	if err != nil {
		return errors.Wrap(err, "runner: open session")
	}
	defer session.Close()

	session.Stdout = stdout
	session.Stderr = stderr

	env := map[string]string{
		config.EnvFileServer: opt.FileServerAddr,
		"LD_PRELOAD":         opt.RemoteLibDir + "/" + interceptorBaseName,
		"LD_LIBRARY_PATH":    opt.RemoteLibDir,
	}
	var envPrefix bytes.Buffer
	for k, v := range env {
		fmt.Fprintf(&envPrefix, "export %s=%s; ", k, shellQuote(v))
	}

	cmdLine := envPrefix.String() + shellJoin(opt.Command)

	done := make(chan error, 1)
	go func() { done <- session.Run(cmdLine) }()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGTERM)
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func shellJoin(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = shellQuote(a)
	}
	return strings.Join(quoted, " ")
}
