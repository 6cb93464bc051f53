// Command remotelink-run drives the runner: it connects to a target
// host over SSH, copies the Interceptor library there, and spawns a
// command with it preloaded against a remotelink-server running
// locally. It is a thin CLI over internal/runner; the watch/restart loop
// some callers will want around this is intentionally not here.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/emoon/remotelink/internal/config"
	"github.com/emoon/remotelink/internal/runner"
)

var opt runner.Options

var rootCmd = &cobra.Command{
	Use:   "remotelink-run <host> -- <command> [args...]",
	Short: "Run a command on a remote host with the remotelink Interceptor preloaded",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt.Host = args[0]
		opt.Command = args[1:]

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigs
			cancel()
		}()

		r, err := runner.Dial(ctx, opt)
		if err != nil {
			return err
		}
		defer r.Close()

		if err := r.CopyInterceptor(opt); err != nil {
			return err
		}
		return r.Run(ctx, opt, os.Stdout, os.Stderr)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&opt.User, "user", "u", "", "remote ssh user")
	rootCmd.Flags().StringVar(&opt.InterceptorPath, "interceptor", "remotelink-interceptor.so", "path to the built Interceptor shared library")
	rootCmd.Flags().StringVar(&opt.RemoteLibDir, "remote-lib-dir", config.DefaultLibSearchDir, "remote directory to copy the Interceptor into")
	rootCmd.Flags().StringVar(&opt.FileServerAddr, "file-server", "", "host:port of the locally running remotelink-server, as reachable from the target host")
	_ = rootCmd.MarkFlagRequired("file-server")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
