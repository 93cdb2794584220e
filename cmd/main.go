package main

import (
	"context"
	"log/slog"

	"github.com/ryanreadbooks/tokkichat/cmd/chat"
	"github.com/ryanreadbooks/tokkichat/cmd/inspect"
	"github.com/ryanreadbooks/tokkichat/cmd/onboard"
	"github.com/ryanreadbooks/tokkichat/cmd/replay"
	"github.com/ryanreadbooks/tokkichat/cmd/schema"
	"github.com/ryanreadbooks/tokkichat/pkg/process"
	"github.com/ryanreadbooks/tokkichat/pkg/telemetry"
	"github.com/spf13/cobra"
)

var enableOtel bool

var rootCmd = &cobra.Command{
	Use:          "tokkichat",
	Short:        "A terminal client for streaming agent conversations.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !enableOtel {
			return
		}
		ctx := cmd.Context()
		shutdown, err := telemetry.Setup(ctx, telemetry.EndpointFromEnv())
		if err != nil {
			slog.Warn("[main] failed to setup opentelemetry", "error", err)
			return
		}
		flushed := make(chan struct{})
		process.Track(ctx, flushed)
		go func() {
			defer close(flushed)
			<-ctx.Done()
			_ = shutdown(context.Background())
		}()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&enableOtel, "otel", "o", false,
		"Enable OpenTelemetry tracing, exported to "+telemetry.EndpointEnv+" when set.")
	rootCmd.AddCommand(chat.ChatCmd)
	rootCmd.AddCommand(inspect.InspectCmd)
	rootCmd.AddCommand(replay.ReplayCmd)
	rootCmd.AddCommand(schema.SchemaCmd)
	rootCmd.AddCommand(onboard.OnboardCmd)
}

func main() {
	ctx, cancel, wait := process.GetRootContext()
	rootCmd.ExecuteContext(ctx)
	cancel()

	wait()
}
