// Package tui renders the prediction client as a terminal UI.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/paddy/internal/auth"
	"github.com/Veraticus/paddy/internal/config"
	"github.com/Veraticus/paddy/internal/model"
	"github.com/Veraticus/paddy/internal/tui/themes"
	"github.com/Veraticus/paddy/internal/workflow"
)

// Login form inputs.
const (
	inputEmail = iota
	inputPassword
	inputConfirm
)

// inputImage is the first input of the prediction screen; the six
// measurements follow in model.TabularFields order.
const inputImage = 0

// Model holds the TUI state.
type Model struct {
	ctx         context.Context
	wf          *workflow.Workflow
	theme       themes.Theme
	config      Config
	keymap      KeyMap
	help        help.Model
	spinner     spinner.Model
	state       workflow.State
	loginInputs []textinput.Model
	formInputs  []textinput.Model
	focus       int
	width       int
	height      int
	authPending bool
	quitting    bool
}

// New creates the TUI model over wf, restoring a saved session if one exists.
func New(ctx context.Context, wf *workflow.Workflow, opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(cfg.Theme.Primary)

	m := Model{
		ctx:         ctx,
		wf:          wf,
		theme:       cfg.Theme,
		config:      cfg,
		keymap:      DefaultKeyMap(),
		help:        help.New(),
		spinner:     s,
		state:       wf.Initial(ctx),
		loginInputs: newLoginInputs(),
		formInputs:  newFormInputs(),
		width:       cfg.Width,
		height:      cfg.Height,
	}
	m.help.Width = cfg.Width
	m.syncFocus()
	return m
}

func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = ""
	ti.CharLimit = 256
	ti.Width = 40
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

func newLoginInputs() []textinput.Model {
	email := newInput("you@example.com")
	password := newInput("password")
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	confirm := newInput("confirm password")
	confirm.EchoMode = textinput.EchoPassword
	confirm.EchoCharacter = '•'
	return []textinput.Model{email, password, confirm}
}

func newFormInputs() []textinput.Model {
	inputs := []textinput.Model{newInput("path/to/leaf.jpg")}
	for _, f := range model.TabularFields {
		ti := newInput(f.Label)
		ti.CharLimit = 32
		ti.Width = 12
		inputs = append(inputs, ti)
	}
	return inputs
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// State returns the workflow state being rendered.
func (m Model) State() workflow.State {
	return m.state
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case actionMsg:
		return m.apply(msg.action), nil

	case spinner.TickMsg:
		if !m.state.Busy() && !m.authPending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.ForceQuit), key.Matches(msg, m.keymap.Quit):
			m.quitting = true
			return m, tea.Quit
		}
		if m.state.Authenticated() {
			return m.updateMain(msg)
		}
		return m.updateLogin(msg)
	}
	return m, nil
}

// apply reduces an action into the state and adjusts the inputs to match.
func (m Model) apply(a workflow.Action) Model {
	m.state = workflow.Reduce(m.state, a)

	switch a.(type) {
	case workflow.LoginSucceeded:
		m.authPending = false
		m.loginInputs = newLoginInputs()
		m.focus = 0
	case workflow.AuthFailed:
		m.authPending = false
	case workflow.LoggedOut, workflow.SessionExpired:
		m.loginInputs = newLoginInputs()
		m.formInputs = newFormInputs()
		m.focus = 0
	case workflow.ModeToggled:
		if m.focus >= m.visibleLoginInputs() {
			m.focus = m.visibleLoginInputs() - 1
		}
	}
	m.syncFocus()
	return m
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.authPending {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keymap.ToggleMode):
		return m.apply(m.wf.ToggleMode()), nil

	case key.Matches(msg, m.keymap.Google):
		m.authPending = true
		m.state.AuthError = ""
		return m, tea.Batch(m.spinner.Tick, m.googleCmd())

	case key.Matches(msg, m.keymap.Next):
		m.moveFocus(1, m.visibleLoginInputs())
		return m, nil

	case key.Matches(msg, m.keymap.Prev):
		m.moveFocus(-1, m.visibleLoginInputs())
		return m, nil

	case key.Matches(msg, m.keymap.Submit):
		if m.focus < m.visibleLoginInputs()-1 {
			m.moveFocus(1, m.visibleLoginInputs())
			return m, nil
		}
		cred := model.Credential{
			Email:    strings.TrimSpace(m.loginInputs[inputEmail].Value()),
			Password: m.loginInputs[inputPassword].Value(),
		}
		m.authPending = true
		m.state.AuthError = ""
		if m.state.Mode == auth.ModeRegister {
			return m, tea.Batch(m.spinner.Tick, m.registerCmd(cred, m.loginInputs[inputConfirm].Value()))
		}
		return m, tea.Batch(m.spinner.Tick, m.loginCmd(cred))
	}

	var cmd tea.Cmd
	m.loginInputs[m.focus], cmd = m.loginInputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Logout):
		return m, m.logoutCmd()

	case key.Matches(msg, m.keymap.FetchHistory):
		return m, m.fetchHistoryCmd()

	case key.Matches(msg, m.keymap.Next):
		m.moveFocus(1, len(m.formInputs))
		return m, nil

	case key.Matches(msg, m.keymap.Prev):
		m.moveFocus(-1, len(m.formInputs))
		return m, nil

	case key.Matches(msg, m.keymap.Submit):
		if m.focus == inputImage {
			return m.submitImage()
		}
		return m.submitTabular()
	}

	var cmd tea.Cmd
	m.formInputs[m.focus], cmd = m.formInputs[m.focus].Update(msg)
	if m.focus != inputImage {
		field := model.TabularFields[m.focus-1]
		if err := m.wf.Form().SetField(field.Name, m.formInputs[m.focus].Value()); err != nil {
			m.state.Message = err.Error()
		}
	}
	return m, cmd
}

func (m Model) submitImage() (tea.Model, tea.Cmd) {
	if m.state.Submitting(workflow.FormImage) {
		return m.apply(workflow.SubmitRejected{Form: workflow.FormImage, Message: workflow.MsgInFlight}), nil
	}

	if path := strings.TrimSpace(m.formInputs[inputImage].Value()); path != "" {
		selected := m.wf.SelectImage(config.ExpandPath(path))
		m = m.apply(selected)
		if _, rejected := selected.(workflow.SubmitRejected); rejected {
			return m, nil
		}
	}

	m = m.apply(workflow.SubmitStarted{Form: workflow.FormImage})
	return m, m.submitImageCmd()
}

func (m Model) submitTabular() (tea.Model, tea.Cmd) {
	if m.state.Submitting(workflow.FormTabular) {
		return m.apply(workflow.SubmitRejected{Form: workflow.FormTabular, Message: workflow.MsgInFlight}), nil
	}
	m = m.apply(workflow.SubmitStarted{Form: workflow.FormTabular})
	return m, m.submitTabularCmd()
}

func (m Model) visibleLoginInputs() int {
	if m.state.Mode == auth.ModeRegister {
		return 3
	}
	return 2
}

func (m *Model) moveFocus(delta, count int) {
	m.focus = (m.focus + delta + count) % count
	m.syncFocus()
}

// syncFocus focuses the current input of the active screen and blurs the rest.
func (m *Model) syncFocus() {
	active, inactive := m.loginInputs, m.formInputs
	if m.state.Authenticated() {
		active, inactive = m.formInputs, m.loginInputs
	}
	for i := range inactive {
		inactive[i].Blur()
	}
	for i := range active {
		if i == m.focus {
			active[i].Focus()
		} else {
			active[i].Blur()
		}
	}
}
