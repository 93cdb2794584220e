package tui

import (
	"github.com/ryanreadbooks/tokkichat/channel/model"
	"github.com/ryanreadbooks/tokkichat/cmd/chat/ui/types"
)

// Tea messages for event handling

type (
	// SnapshotMsg is an alias for types.SnapshotMsg
	SnapshotMsg = types.SnapshotMsg

	// StatusMsg reports transport health
	StatusMsg = model.Status

	// ActionFailedMsg is an alias for types.ActionFailedMsg
	ActionFailedMsg = types.ActionFailedMsg
)
