package inspect

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ryanreadbooks/tokkichat/channel"
	"github.com/ryanreadbooks/tokkichat/channel/adapter/local"
	chmodel "github.com/ryanreadbooks/tokkichat/channel/model"
	"github.com/ryanreadbooks/tokkichat/config"
	"github.com/ryanreadbooks/tokkichat/conversation"
	"github.com/ryanreadbooks/tokkichat/journal"

	"github.com/spf13/cobra"
)

var (
	agentId  string
	threadId string
	recorded bool
	verbose  bool
)

var InspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Replay a recorded event stream offline and print the result.",
	Long: "Replay a recorded event stream offline and print the result. " +
		"The input holds one json frame per line; without a file it is read from stdin. " +
		"With --recorded the thread recorded by chat --record is read instead.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scope := conversation.Scope{AgentId: agentId, Thread: conversation.ThreadId(threadId)}

		in := cmd.InOrStdin()
		path := ""
		switch {
		case recorded:
			if scope.IsZero() {
				return errors.New("--recorded requires --thread")
			}
			if scope.AgentId == "" {
				cfg, err := config.LoadConfig()
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
				scope.AgentId = cfg.DefaultAgent
			}
			path = journal.New(config.GetWorkspaceDir()).Path(scope)
		case len(args) == 1 && args[0] != "-":
			path = args[0]
		}
		if path != "" {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open recording: %w", err)
			}
			defer f.Close()
			in = f
		}

		snap, err := Reduce(cmd.Context(), in, scope)
		if err != nil {
			return err
		}
		Print(cmd.OutOrStdout(), snap)
		return nil
	},
}

func init() {
	InspectCmd.Flags().StringVar(&agentId, "agent", "", "The agent of a recorded thread. Defaults to default_agent in the config.")
	InspectCmd.Flags().StringVar(&threadId, "thread", "", "Only apply frames of this thread.")
	InspectCmd.Flags().BoolVar(&recorded, "recorded", false, "Read the thread recorded by chat --record.")
	InspectCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Also print tool call arguments and results.")
}

// Reduce feeds every line of r through the same channel and reducers a live
// session uses and returns the final state.
func Reduce(ctx context.Context, r io.Reader, scope conversation.Scope) (*conversation.Snapshot, error) {
	src := local.New(0)
	ch := channel.New(src, channel.WithBuffer(0))
	conv := conversation.New()
	conv.SetScope(scope)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	_, done := ch.Open(ctx, chmodel.Subscription{AgentId: scope.AgentId, ThreadId: scope.Thread.String()})
	defer ch.Close()

	readErr := make(chan error, 1)
	go func() {
		defer src.Close()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if err := src.PushString(ctx, line); err != nil {
				readErr <- err
				return
			}
		}
		readErr <- scanner.Err()
	}()

	skipped := 0
	for running := true; running; {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case f := <-ch.Frames():
			applied, err := conv.Apply(f.Data)
			if err != nil {
				slog.Debug("[inspect] skipping frame", "error", err)
			}
			if !applied {
				skipped++
			}
		case <-done:
			running = false
		}
	}

	if err := <-readErr; err != nil && !errors.Is(err, context.Canceled) {
		return nil, fmt.Errorf("failed to read recording: %w", err)
	}
	slog.Debug("[inspect] recording reduced", "skipped", skipped)

	return conv.Snapshot()
}

// Print writes a plain text transcript of snap.
func Print(w io.Writer, snap *conversation.Snapshot) {
	for _, m := range snap.Messages {
		marker := ""
		if m.IsStreaming {
			marker = " (streaming)"
		}
		fmt.Fprintf(w, "[%s]%s %s\n", m.Role, marker, m.Content)
		for _, tc := range snap.Attached(m.Id) {
			printToolCall(w, "  ", tc)
		}
	}

	if unattached := snap.Unattached(); len(unattached) > 0 {
		fmt.Fprintln(w, "--- tool calls without a message")
		for _, tc := range unattached {
			printToolCall(w, "  ", tc)
		}
	}

	for _, th := range snap.Thinking {
		fmt.Fprintf(w, "[thinking %s] %s\n", th.Key.String(), th.Content)
	}

	state := "idle"
	if snap.Run.IsLoading {
		state = "running"
	}
	fmt.Fprintf(w, "--- run %s: %s", snap.Run.RunId, state)
	if snap.Run.LastError != "" {
		fmt.Fprintf(w, ", last error: %s", snap.Run.LastError)
	}
	fmt.Fprintln(w)
}

func printToolCall(w io.Writer, indent string, tc *conversation.ToolCall) {
	fmt.Fprintf(w, "%stool %s %s [%s]\n", indent, tc.Id, tc.Name, tc.Status)
	if !verbose {
		return
	}
	if tc.Args != "" {
		fmt.Fprintf(w, "%s  args: %s\n", indent, tc.Args)
	}
	if tc.Result != "" {
		fmt.Fprintf(w, "%s  result: %s\n", indent, tc.Result)
	}
	if tc.Error != "" {
		fmt.Fprintf(w, "%s  error: %s\n", indent, tc.Error)
	}
}
