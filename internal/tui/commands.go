package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/paddy/internal/model"
	"github.com/Veraticus/paddy/internal/workflow"
)

// effect runs a workflow effect off the Update loop.
func (m Model) effect(run func(context.Context) workflow.Action) tea.Cmd {
	ctx, timeout := m.ctx, m.config.Timeout
	return func() tea.Msg {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return actionMsg{action: run(ctx)}
	}
}

func (m Model) loginCmd(cred model.Credential) tea.Cmd {
	wf := m.wf
	return m.effect(func(ctx context.Context) workflow.Action {
		return wf.Login(ctx, cred)
	})
}

func (m Model) registerCmd(cred model.Credential, confirm string) tea.Cmd {
	wf := m.wf
	return m.effect(func(ctx context.Context) workflow.Action {
		return wf.Register(ctx, cred, confirm)
	})
}

// googleCmd is not bounded by the timeout; the consent flow has its own.
func (m Model) googleCmd() tea.Cmd {
	ctx, wf := m.ctx, m.wf
	return func() tea.Msg {
		return actionMsg{action: wf.LoginWithProvider(ctx)}
	}
}

func (m Model) logoutCmd() tea.Cmd {
	return m.effect(m.wf.Logout)
}

func (m Model) submitImageCmd() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.effect(m.wf.SubmitImage))
}

func (m Model) submitTabularCmd() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.effect(m.wf.SubmitTabular))
}

func (m Model) fetchHistoryCmd() tea.Cmd {
	return m.effect(m.wf.FetchHistory)
}
