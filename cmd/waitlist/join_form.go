// Copyright (C) 2025 NextGen CTO (hello@nextgen-cto.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/arindamdawn/nextgen-cto/pkg/validation"
	"github.com/arindamdawn/nextgen-cto/services/waitlist/datatypes"
)

// connectivityMessage is shown for transport failures; the real error goes
// nowhere near the screen.
const connectivityMessage = "Could not reach the server. Check your connection and try again."

// =============================================================================
// STYLES
// =============================================================================

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	helpStyle    = lipgloss.NewStyle().Faint(true)
)

// =============================================================================
// MODEL
// =============================================================================

// formState is the phase of the signup form.
type formState int

const (
	stateIdle formState = iota
	stateLoading
	stateSuccess
	stateError
)

// submitResultMsg carries the submission outcome back into the model.
type submitResultMsg struct {
	resp datatypes.SubmissionResponse
	err  error
}

// joinModel drives the interactive signup form.
//
// State machine: idle (editing) -> loading -> success or error. An error
// keeps the entered values so the visitor can fix and resubmit; success
// clears them and ends the program.
type joinModel struct {
	client *APIClient

	state   formState
	email   textinput.Model
	name    textinput.Model
	focus   int // 0 = email, 1 = name
	spin    spinner.Model
	message string

	succeeded bool
}

func newJoinModel(client *APIClient) *joinModel {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 254
	email.Focus()

	name := textinput.New()
	name.Placeholder = "Your name (optional)"
	name.CharLimit = validation.MaxNameLength

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return &joinModel{
		client: client,
		email:  email,
		name:   name,
		spin:   spin,
	}
}

func (m *joinModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *joinModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case submitResultMsg:
		return m.handleResult(msg)

	case spinner.TickMsg:
		if m.state != stateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m.updateInputs(msg)
}

func (m *joinModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "tab", "shift+tab", "up", "down":
		if m.state == stateLoading {
			return m, nil
		}
		m.setFocus(1 - m.focus)
		return m, nil

	case "enter":
		switch m.state {
		case stateLoading:
			return m, nil
		case stateSuccess:
			return m, tea.Quit
		case stateError:
			// Retry keeps the entered values.
			return m.submit()
		}
		if m.focus == 0 {
			m.setFocus(1)
			return m, nil
		}
		return m.submit()
	}

	return m.updateInputs(msg)
}

func (m *joinModel) setFocus(i int) {
	m.focus = i
	if i == 0 {
		m.email.Focus()
		m.name.Blur()
	} else {
		m.name.Focus()
		m.email.Blur()
	}
}

func (m *joinModel) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == stateLoading {
		return m, nil
	}
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.email, cmd = m.email.Update(msg)
	cmds = append(cmds, cmd)
	m.name, cmd = m.name.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// submit validates locally first; a request only goes out for input the
// server would accept.
func (m *joinModel) submit() (tea.Model, tea.Cmd) {
	email := validation.NormalizeEmail(m.email.Value())
	name := validation.SanitizeFreeText(m.name.Value())

	// Local validation failures stay in idle: no request goes out and the
	// fields remain editable with the message shown inline.
	if msg := validation.ValidateEmail(email); msg != "" {
		m.state = stateIdle
		m.message = msg
		return m, nil
	}
	if msg := validation.ValidateName(name); msg != "" {
		m.state = stateIdle
		m.message = msg
		return m, nil
	}

	m.state = stateLoading
	m.message = ""

	client := m.client
	return m, tea.Batch(m.spin.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		resp, err := client.Join(ctx, email, name)
		return submitResultMsg{resp: resp, err: err}
	})
}

func (m *joinModel) handleResult(msg submitResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.state = stateError
		m.message = connectivityMessage
		return m, nil
	}

	if !msg.resp.Success {
		m.state = stateError
		m.message = msg.resp.Message
		if len(msg.resp.Errors) > 0 {
			m.message = msg.resp.Errors[0].Message
		}
		return m, nil
	}

	m.state = stateSuccess
	m.succeeded = true
	m.message = msg.resp.Message
	m.email.SetValue("")
	m.name.SetValue("")
	return m, nil
}

func (m *joinModel) View() string {
	s := titleStyle.Render("Join the NextGen-CTO waitlist") + "\n\n"

	switch m.state {
	case stateLoading:
		s += m.spin.View() + " Submitting...\n"
	case stateSuccess:
		s += successStyle.Render(m.message) + "\n\n"
		s += helpStyle.Render("press enter to close")
	default:
		s += labelStyle.Render("Email") + "\n" + m.email.View() + "\n\n"
		s += labelStyle.Render("Name") + "\n" + m.name.View() + "\n"
		if m.message != "" {
			s += "\n" + errorStyle.Render(m.message) + "\n"
		}
		s += "\n" + helpStyle.Render("tab to switch fields · enter to submit · esc to quit")
	}

	return s + "\n"
}
