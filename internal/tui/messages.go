package tui

import "github.com/Veraticus/paddy/internal/workflow"

// actionMsg carries the outcome of a workflow effect back to Update.
type actionMsg struct {
	action workflow.Action
}
