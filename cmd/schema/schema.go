package schema

import (
	"encoding/json"
	"fmt"

	"github.com/ryanreadbooks/tokkichat/conversation"
	"github.com/ryanreadbooks/tokkichat/pkg/schema"
	"github.com/ryanreadbooks/tokkichat/pkg/xmap"

	"github.com/spf13/cobra"
)

var eventType string

var SchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the json schema of the event frames.",
	Long:  "Print the json schema of the event frames, keyed by frame type.",
	RunE: func(cmd *cobra.Command, args []string) error {
		schemas, err := Schemas(conversation.EventType(eventType))
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(schemas, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal schema: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	SchemaCmd.Flags().StringVar(&eventType, "type", "", "Only print the schema of this frame type.")
}

type entry struct {
	Type conversation.EventType `json:"type"`
	schema.Schema
}

// Schemas reflects the frame shapes, sorted by type. An empty typ selects all.
func Schemas(typ conversation.EventType) ([]entry, error) {
	wire := conversation.WireTypes()
	types := xmap.SortedKeys(wire)

	out := make([]entry, 0, len(types))
	for _, t := range types {
		if typ != "" && t != typ {
			continue
		}
		s := schema.Of(wire[t])
		s.Title = string(t)
		out = append(out, entry{Type: t, Schema: s})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("unknown frame type %q", typ)
	}
	return out, nil
}
