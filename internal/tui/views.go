package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/paddy/internal/auth"
	"github.com/Veraticus/paddy/internal/model"
	"github.com/Veraticus/paddy/internal/workflow"
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	if m.state.Authenticated() {
		content = m.renderMain()
	} else {
		content = m.renderLogin()
	}

	return m.theme.BorderedBox.
		Width(m.width - 2).
		Render(content)
}

func (m Model) renderHeader() string {
	title := m.theme.Title.Render("paddy · rice plant health")
	if !m.state.Authenticated() || m.state.Identity == nil {
		return title
	}
	who := lipgloss.NewStyle().Foreground(m.theme.Muted).Render("signed in as " + m.state.Identity.Email)
	return lipgloss.JoinVertical(lipgloss.Left, title, who)
}

// renderLogin renders the login or registration form.
func (m Model) renderLogin() string {
	heading := "Login"
	if m.state.Mode == auth.ModeRegister {
		heading = "Register"
	}

	labels := []string{"Email", "Password", "Confirm password"}
	lines := []string{m.renderHeader(), m.theme.Subtitle.Render(heading), ""}
	for i := 0; i < m.visibleLoginInputs(); i++ {
		lines = append(lines, m.renderField(labels[i], m.loginInputs[i].View(), i == m.focus))
	}
	lines = append(lines, "")

	switch {
	case m.authPending:
		lines = append(lines, m.spinner.View()+" "+m.theme.StatusPending.Render("Signing in..."))
	case m.state.AuthError != "":
		lines = append(lines, m.theme.StatusError.Render(m.state.AuthError))
	}

	toggle := "No account? Press ctrl+t to register."
	if m.state.Mode == auth.ModeRegister {
		toggle = "Already registered? Press ctrl+t to log in."
	}
	lines = append(lines,
		lipgloss.NewStyle().Foreground(m.theme.Muted).Render(toggle),
		"",
		m.help.ShortHelpView(m.keymap.LoginHelp()),
	)

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderMain renders the prediction forms, the result, and the history.
func (m Model) renderMain() string {
	lines := []string{m.renderHeader(), ""}

	lines = append(lines, m.theme.Subtitle.Render("Image prediction"))
	lines = append(lines, m.renderField("Image file", m.formInputs[inputImage].View(), m.focus == inputImage))
	if m.state.FileName != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(m.theme.Muted).Render("  selected: "+m.state.FileName))
	}
	if m.state.Submitting(workflow.FormImage) {
		lines = append(lines, m.spinner.View()+" "+m.theme.StatusPending.Render("Analyzing image..."))
	}
	lines = append(lines, "")

	lines = append(lines, m.theme.Subtitle.Render("Environmental data"))
	for i, f := range model.TabularFields {
		idx := i + 1
		lines = append(lines, m.renderField(f.Label, m.formInputs[idx].View(), m.focus == idx))
	}
	if m.state.Submitting(workflow.FormTabular) {
		lines = append(lines, m.spinner.View()+" "+m.theme.StatusPending.Render("Analyzing measurements..."))
	}
	lines = append(lines, "")

	if m.state.Message != "" {
		lines = append(lines, m.theme.Result.Render(m.state.Message))
	}
	if m.state.Warning != "" {
		lines = append(lines, m.theme.StatusWarning.Render("⚠ "+m.state.Warning))
	}

	lines = append(lines, "", m.renderHistory(), "", m.help.ShortHelpView(m.keymap.MainHelp()))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderField(label, input string, focused bool) string {
	style := m.theme.Label
	if focused {
		style = m.theme.Focused
	}
	return style.Render(label) + " " + input
}

// renderHistory renders the past predictions.
func (m Model) renderHistory() string {
	title := m.theme.Subtitle.Render("Past predictions")

	switch {
	case m.state.HistoryErr != "":
		return lipgloss.JoinVertical(lipgloss.Left, title, m.theme.StatusError.Render(m.state.HistoryErr))
	case !m.state.HistoryLoaded:
		return lipgloss.JoinVertical(lipgloss.Left, title,
			lipgloss.NewStyle().Foreground(m.theme.Muted).Render("Press ctrl+p to load past predictions."))
	case len(m.state.History) == 0:
		return lipgloss.JoinVertical(lipgloss.Left, title,
			lipgloss.NewStyle().Foreground(m.theme.Muted).Render("No predictions yet."))
	}

	lines := []string{title}
	for _, record := range m.state.History {
		lines = append(lines, m.theme.HistoryItem.Render(FormatRecord(record)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// FormatRecord renders one prediction record on a single line.
func FormatRecord(record model.PredictionRecord) string {
	var b strings.Builder
	if !record.Timestamp.IsZero() {
		b.WriteString(record.Timestamp.Local().Format("2006-01-02 15:04"))
		b.WriteString("  ")
	}
	fmt.Fprintf(&b, "[%s] %s", record.Type, record.Result)

	if record.Data != nil {
		values := make([]string, 0, len(model.TabularFields))
		for _, f := range model.TabularFields {
			v, _ := record.Data.Get(f.Name)
			values = append(values, fmt.Sprintf("%s %g", f.Label, v))
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(values, ", "))
	}
	return b.String()
}
