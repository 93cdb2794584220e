package replay

import (
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/ryanreadbooks/tokkichat/pkg/process"
	"github.com/ryanreadbooks/tokkichat/replay"

	"github.com/spf13/cobra"
)

var (
	scriptPath string
	listenAddr string
)

var ReplayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Start a scripted agent server for local development.",
	Long: "Start a scripted agent server for local development. " +
		"It answers sends with the runs of a yaml script and streams them over sse and websocket.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReplay(cmd)
	},
}

func init() {
	ReplayCmd.Flags().StringVar(&scriptPath, "script", "", "Path of the script to play. Defaults to the built in demo.")
	ReplayCmd.Flags().StringVar(&listenAddr, "addr", "127.0.0.1:8080", "Address to listen on.")
}

func runReplay(cmd *cobra.Command) error {
	ctx := cmd.Context()

	// Server logs go to stderr, there is no UI here
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	var (
		script *replay.Script
		err    error
	)
	if scriptPath != "" {
		script, err = replay.LoadScript(scriptPath)
	} else {
		script, err = replay.DefaultScript()
	}
	if err != nil {
		return fmt.Errorf("failed to load script: %w", err)
	}

	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	served := make(chan struct{})
	defer close(served)
	process.Track(ctx, served)

	fmt.Fprintf(cmd.OutOrStdout(), "Playing script %q on http://%s, press Ctrl+C to stop\n", script.Name, ln.Addr())
	return replay.New(ctx, script).Serve(ctx, ln)
}
