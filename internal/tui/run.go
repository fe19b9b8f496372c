package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/paddy/internal/workflow"
)

// Run starts the terminal UI and blocks until the user quits or ctx is
// canceled.
func Run(ctx context.Context, wf *workflow.Workflow, opts ...Option) error {
	if wf == nil {
		return errors.New("workflow is required")
	}

	p := tea.NewProgram(
		New(ctx, wf, opts...),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
