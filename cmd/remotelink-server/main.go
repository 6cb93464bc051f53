// Command remotelink-server runs the developer-host side of the
// file-access protocol: a read-only server over a single directory,
// meant to run next to the developer's checkout while a target program
// runs elsewhere with the Interceptor preloaded.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/emoon/remotelink/internal/config"
	"github.com/emoon/remotelink/internal/fileserver"
	"github.com/emoon/remotelink/internal/protocol"
	"github.com/emoon/remotelink/internal/rlog"
)

var (
	listenAddr string
	maxHandles int
)

var rootCmd = &cobra.Command{
	Use:   "remotelink-server <root-dir>",
	Short: "Serve a directory read-only over the remotelink file-access protocol",
	Long: `remotelink-server exposes a single local directory to the
remotelink Interceptor over a lightweight binary protocol: OPEN, READ,
CLOSE, STAT, ACCESS, READDIR and FETCH. There is no write, rename,
create or delete op code; the read-only contract is enforced by their
absence.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := args[0]
		srv, err := fileserver.New(root, maxHandles)
		if err != nil {
			return err
		}

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigs
			rlog.Logf(listenAddr, "shutting down")
			_ = srv.Close()
		}()

		rlog.Logf(listenAddr, "remotelink-server starting, root=%s", root)
		return srv.Serve(listenAddr)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&listenAddr, "addr", "a", fmt.Sprintf(":%d", protocol.DefaultPort), "address to listen on")
	rootCmd.Flags().IntVar(&maxHandles, "max-open-files", config.DefaultMaxOpenFiles, "maximum open file handles per connection")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
