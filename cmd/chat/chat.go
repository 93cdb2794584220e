package chat

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ryanreadbooks/tokkichat/cmd/chat/ui/tui"

	"github.com/spf13/cobra"
)

var (
	agentId       string
	threadId      string
	transportType string
	record        bool

	oneTimeQuestion string
	autoApprove     bool
)

var ChatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a remote agent in a CLI.",
	Long:  "Chat with a remote agent in a CLI. Replies stream in over sse or websocket.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if oneTimeQuestion != "" {
			return runChatOnce(cmd.Context(), oneTimeQuestion)
		}

		return runChat(cmd.Context())
	},
}

func init() {
	ChatCmd.Flags().StringVar(&agentId, "agent", "", "The agent to talk to. Defaults to default_agent in the config.")
	ChatCmd.Flags().StringVar(&threadId, "thread", "", "To resume an existing thread, provide the thread id.")
	ChatCmd.Flags().StringVar(&transportType, "transport", "", "Override the transport, sse or websocket.")
	ChatCmd.Flags().StringVar(&oneTimeQuestion, "message", "", "To ask a one-time question, provide the message.")
	ChatCmd.Flags().BoolVar(&autoApprove, "approve", false, "Approve tool calls of a one-time question instead of rejecting them.")
	ChatCmd.Flags().BoolVar(&record, "record", false, "Record the raw frames of the thread under the workspace dir for inspect.")
}

func runChatOnce(ctx context.Context, message string) error {
	p, err := prepareSession(ctx, agentId, uuid.NewString())
	if err != nil {
		return fmt.Errorf("failed to prepare session: %w", err)
	}
	defer p.close()

	// Run with spinner
	return tui.RunWithSpinner(p.handler, p.notifier, message, autoApprove)
}

func runChat(ctx context.Context) error {
	// Generate or use existing thread ID
	thread := threadId
	if thread == "" {
		thread = uuid.NewString()
	}

	p, err := prepareSession(ctx, agentId, thread)
	if err != nil {
		return fmt.Errorf("failed to prepare session: %w", err)
	}
	defer p.close()

	// Run TUI
	if err := tui.Run(p.handler, p.notifier, p.transport); err != nil {
		return err
	}

	fmt.Printf("\nBye, use --thread %s to resume the conversation\n", thread)

	return nil
}
